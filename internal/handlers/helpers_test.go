package handlers_test

import (
	"GophDrive/internal/blob"
	"GophDrive/internal/blob/memory"
	"GophDrive/internal/config"
	"GophDrive/internal/handlers"
	"GophDrive/internal/metrics"
	"GophDrive/internal/middleware"
	"GophDrive/internal/repo"
	"GophDrive/internal/service"
	"GophDrive/internal/tree"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// failingGateway — memory-хранилище, у которого можно сломать запись или Delete.
type failingGateway struct {
	*memory.Store
	putErr    error
	deleteErr error
}

func (g *failingGateway) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	if g.putErr != nil {
		return g.putErr
	}
	return g.Store.PutIfAbsent(ctx, key, content, size, contentType)
}

func (g *failingGateway) Delete(ctx context.Context, key string) (bool, error) {
	if g.deleteErr != nil {
		return false, g.deleteErr
	}
	return g.Store.Delete(ctx, key)
}

// newTestRouter собирает полный роутер над in-memory SQLite и переданным шлюзом.
func newTestRouter(t *testing.T, gw blob.Gateway) http.Handler {
	t.Helper()
	db, err := repo.InitDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	folders := repo.NewFolderRepository(db)
	files := repo.NewFileRepository(db)
	store := tree.NewStore(folders, files, repo.NewTxManager(db), tree.NewMoveValidator(folders))
	m := metrics.New()
	logger := zap.NewNop().Sugar()
	svc := service.NewStorageService(store, tree.NewPathResolver(folders), blob.Instrument(gw, m.BlobMetrics()),
		repo.NewOrphanRepository(db), logger, service.WithMetrics(m))

	cfg := &config.Config{AuthSecret: testSecret, UploadMaxMB: 1}
	return handlers.NewHandler(svc, m, logger, cfg).Router
}

func addAuth(t *testing.T, req *http.Request, owner string) {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, middleware.SetLoginCookie(rr, owner, testSecret))
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

// do выполняет запрос от имени owner; body сериализуется в JSON, если не nil.
func do(t *testing.T, router http.Handler, owner, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		addAuth(t, req, owner)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func upload(t *testing.T, router http.Handler, owner, folderUUID, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/"+folderUUID+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	addAuth(t, req, owner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func mkRoot(t *testing.T, router http.Handler, owner, name string) service.FolderView {
	t.Helper()
	rr := do(t, router, owner, http.MethodPost, "/api/folders/root", handlers.NameRequest{Name: name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[service.FolderView](t, rr)
}

func mkdir(t *testing.T, router http.Handler, owner, parent, name string) service.FolderView {
	t.Helper()
	rr := do(t, router, owner, http.MethodPost, "/api/folders/"+parent+"/subfolders", handlers.NameRequest{Name: name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[service.FolderView](t, rr)
}
