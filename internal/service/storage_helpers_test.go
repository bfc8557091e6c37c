package service

import (
	"GophDrive/internal/blob"
	"GophDrive/internal/blob/memory"
	"GophDrive/internal/repo"
	"GophDrive/internal/tree"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// мок для blob.Gateway
type mockGateway struct{ mock.Mock }

func (m *mockGateway) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	return m.put(ctx, "Put", key, content, size, contentType)
}

func (m *mockGateway) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	return m.put(ctx, "PutIfAbsent", key, content, size, contentType)
}

func (m *mockGateway) put(ctx context.Context, method string, key string, content io.Reader, size int64, contentType string) error {
	args := m.MethodCalled(method, ctx, key, content, size, contentType)
	if fn, ok := args.Get(0).(func(context.Context, string, io.Reader, int64, string) error); ok {
		return fn(ctx, key, content, size, contentType)
	}
	return args.Error(0)
}

func (m *mockGateway) Get(ctx context.Context, key string) (*blob.Object, error) {
	args := m.Called(ctx, key)
	if o, ok := args.Get(0).(*blob.Object); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockGateway) List(ctx context.Context, prefix string) (*blob.Listing, error) {
	args := m.Called(ctx, prefix)
	if l, ok := args.Get(0).(*blob.Listing); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

var _ blob.Gateway = (*mockGateway)(nil)

// gatedGateway задерживает условную запись, пока к ней не подойдут n загрузок,
// так что все они проходят проверку ключа по метаданным до первой записи.
type gatedGateway struct {
	*memory.Store
	arrived sync.WaitGroup
}

func newGatedGateway(n int) *gatedGateway {
	g := &gatedGateway{Store: memory.New()}
	g.arrived.Add(n)
	return g
}

func (g *gatedGateway) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	g.arrived.Done()
	g.arrived.Wait()
	return g.Store.PutIfAbsent(ctx, key, content, size, contentType)
}

type env struct {
	svc     *StorageService
	store   *tree.Store
	orphans repo.OrphanRepository
}

// newEnv собирает сервис над отдельной in-memory SQLite и переданным шлюзом
func newEnv(t *testing.T, gw blob.Gateway, opts ...Option) *env {
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
	orphans := repo.NewOrphanRepository(db)
	svc := NewStorageService(store, tree.NewPathResolver(folders), gw, orphans, zap.NewNop().Sugar(), opts...)
	return &env{svc: svc, store: store, orphans: orphans}
}
