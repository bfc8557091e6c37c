package commands

import (
	"GophDrive/internal/blob/memory"
	"GophDrive/internal/config"
	"GophDrive/internal/handlers"
	"GophDrive/internal/middleware"
	"GophDrive/internal/repo"
	"GophDrive/internal/service"
	"GophDrive/internal/tree"
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testSecret = "cli-secret"

// newTestServer поднимает настоящий API над in-memory SQLite и memory-хранилищем
// и возвращает конфиг CLI, указывающий на него, с токеном во временном каталоге.
func newTestServer(t *testing.T) *config.Config {
	t.Helper()
	db, err := repo.InitDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	folders := repo.NewFolderRepository(db)
	store := tree.NewStore(folders, repo.NewFileRepository(db), repo.NewTxManager(db), tree.NewMoveValidator(folders))
	svc := service.NewStorageService(store, tree.NewPathResolver(folders), memory.New(), repo.NewOrphanRepository(db), zap.NewNop().Sugar())
	srvCfg := &config.Config{AuthSecret: testSecret, UploadMaxMB: 1}
	ts := httptest.NewServer(handlers.NewHandler(svc, nil, zap.NewNop().Sugar(), srvCfg).Router)
	t.Cleanup(ts.Close)

	return &config.Config{ServerURL: ts.URL, TokenFile: filepath.Join(t.TempDir(), "token")}
}

func tokenFor(t *testing.T, owner string) string {
	t.Helper()
	tok, err := middleware.NewToken(owner, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// run выполняет команду и возвращает её вывод.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	c, ok := Get(args[0])
	if !ok {
		t.Fatalf("command %q not registered", args[0])
	}
	var err error
	out := withStdoutCapture(t, func() { err = c.Run(context.Background(), cfg, args[1:]) })
	return out, err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

// firstField — uuid из строк вида "<uuid>  <path>".
func firstField(out string) string {
	f := strings.Fields(out)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}
