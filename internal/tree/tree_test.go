package tree

import (
	"GophDrive/internal/model"
	"GophDrive/internal/repo"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *Store
	tx    repo.TxManager
	paths *PathResolver
	moves *MoveValidator
	repos struct {
		folders repo.FolderRepository
		files   repo.FileRepository
	}
}

// newFixture поднимает отдельную in-memory SQLite на тест
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repo.InitDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	fx := &fixture{}
	fx.repos.folders = repo.NewFolderRepository(db)
	fx.repos.files = repo.NewFileRepository(db)
	fx.moves = NewMoveValidator(fx.repos.folders)
	fx.paths = NewPathResolver(fx.repos.folders)
	fx.tx = repo.NewTxManager(db)
	fx.store = NewStore(fx.repos.folders, fx.repos.files, fx.tx, fx.moves)
	return fx
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Documents"))
	assert.NoError(t, ValidateName("отчёт 2023.pdf"))
	assert.ErrorIs(t, ValidateName(""), model.ErrEmptyName)
	assert.ErrorIs(t, ValidateName("   "), model.ErrEmptyName)
	assert.ErrorIs(t, ValidateName("a/b"), model.ErrInvalidName)
	assert.ErrorIs(t, ValidateName(".."), model.ErrInvalidName)
	assert.ErrorIs(t, ValidateName(strings.Repeat("x", MaxNameLength+1)), model.ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a/b"), model.ErrInvalidOperation)
}

func TestPaths_RootChildAndFile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	docs, err := fx.store.CreateRoot(ctx, "U1", "Documents")
	require.NoError(t, err)
	p, err := fx.paths.FolderPath(ctx, docs.UUID)
	require.NoError(t, err)
	assert.Equal(t, "/Documents/", p)

	taxes, err := fx.store.CreateChild(ctx, "U1", docs.UUID, "Taxes")
	require.NoError(t, err)
	child, err := fx.paths.FolderPath(ctx, taxes.UUID)
	require.NoError(t, err)
	assert.Equal(t, "/Documents/Taxes/", child)
	assert.True(t, strings.HasPrefix(child, p))
	assert.True(t, strings.HasSuffix(child, taxes.Name+"/"))

	f, err := fx.store.CreateFile(ctx, "U1", taxes.UUID, "a.pdf", "U1/Documents/Taxes/a.pdf", 3, "application/pdf")
	require.NoError(t, err)
	fp, err := fx.paths.FilePath(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "/Documents/Taxes/a.pdf", fp)

	np, err := fx.paths.NodePath(ctx, model.FileNode(f))
	require.NoError(t, err)
	assert.Equal(t, fp, np)

	// тот же ключ второй раз не выдаётся
	_, err = fx.store.CreateFile(ctx, "U1", taxes.UUID, "a.pdf", "U1/Documents/Taxes/a.pdf", 3, "application/pdf")
	assert.ErrorIs(t, err, model.ErrBlobKeyTaken)
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = fx.paths.FolderPath(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_CreateChecks(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	root, err := fx.store.CreateRoot(ctx, "U1", "root")
	require.NoError(t, err)

	_, err = fx.store.CreateChild(ctx, "U1", uuid.NewString(), "x")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = fx.store.CreateChild(ctx, "U2", root.UUID, "x")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = fx.store.CreateFile(ctx, "U2", root.UUID, "f", "k", 1, "text/plain")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = fx.store.CreateRoot(ctx, "U1", "")
	assert.ErrorIs(t, err, model.ErrEmptyName)

	// имена корней не обязаны быть уникальными
	_, err = fx.store.CreateRoot(ctx, "U1", "root")
	assert.NoError(t, err)
	roots, err := fx.store.ListRoots(ctx, "U1")
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestStore_GetByUUIDAndExists(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	root, err := fx.store.CreateRoot(ctx, "U1", "root")
	require.NoError(t, err)
	f, err := fx.store.CreateFile(ctx, "U1", root.UUID, "f.txt", "U1/root/f.txt", 1, "text/plain")
	require.NoError(t, err)

	n, err := fx.store.GetByUUID(ctx, root.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.KindFolder, n.Kind)

	n, err = fx.store.GetByUUID(ctx, f.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.KindFile, n.Kind)
	assert.Equal(t, "f.txt", n.Item().Name)

	_, err = fx.store.GetByUUID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)

	ok, err := fx.store.Exists(ctx, f.UUID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.store.Exists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	ch, err := fx.store.ListChildren(ctx, root.UUID)
	require.NoError(t, err)
	assert.Empty(t, ch.Folders)
	assert.Len(t, ch.Files, 1)

	_, err = fx.store.ListChildren(ctx, f.UUID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMoveValidator(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, _ := fx.store.CreateRoot(ctx, "U1", "a")
	b, _ := fx.store.CreateChild(ctx, "U1", a.UUID, "b")
	c, _ := fx.store.CreateChild(ctx, "U1", b.UUID, "c")
	other, _ := fx.store.CreateRoot(ctx, "U1", "other")

	assert.ErrorIs(t, fx.moves.Validate(ctx, a.UUID, a.UUID), model.ErrSelfMove)
	assert.ErrorIs(t, fx.moves.Validate(ctx, a.UUID, b.UUID), model.ErrCycleDetected)
	assert.ErrorIs(t, fx.moves.Validate(ctx, a.UUID, c.UUID), model.ErrCycleDetected)
	assert.ErrorIs(t, fx.moves.Validate(ctx, b.UUID, c.UUID), model.ErrInvalidOperation)

	assert.NoError(t, fx.moves.Validate(ctx, c.UUID, a.UUID))
	assert.NoError(t, fx.moves.Validate(ctx, a.UUID, other.UUID))
	assert.NoError(t, fx.moves.Validate(ctx, b.UUID, other.UUID))

	assert.ErrorIs(t, fx.moves.Validate(ctx, a.UUID, uuid.NewString()), model.ErrNotFound)
}

func TestStore_RenameKeepsBlobKey(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	docs, _ := fx.store.CreateRoot(ctx, "U1", "Documents")
	taxes, _ := fx.store.CreateChild(ctx, "U1", docs.UUID, "Taxes")
	f, err := fx.store.CreateFile(ctx, "U1", taxes.UUID, "a.pdf", "U1/Documents/Taxes/a.pdf", 3, "application/pdf")
	require.NoError(t, err)

	n, err := fx.store.Rename(ctx, "U1", taxes.UUID, "Taxes2023")
	require.NoError(t, err)
	assert.Equal(t, taxes.UUID, n.Folder.UUID)
	assert.Equal(t, "Taxes2023", n.Folder.Name)
	assert.Equal(t, int64(2), n.Folder.Version)

	got, err := fx.store.GetFile(ctx, f.UUID)
	require.NoError(t, err)
	fp, err := fx.paths.FilePath(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "/Documents/Taxes2023/a.pdf", fp)
	assert.Equal(t, "U1/Documents/Taxes/a.pdf", got.BlobKey)

	n, err = fx.store.Rename(ctx, "U1", f.UUID, "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", n.File.Name)
	assert.Equal(t, "U1/Documents/Taxes/a.pdf", n.File.BlobKey)

	_, err = fx.store.Rename(ctx, "U2", f.UUID, "c.pdf")
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = fx.store.Rename(ctx, "U1", f.UUID, "")
	assert.ErrorIs(t, err, model.ErrEmptyName)
	_, err = fx.store.Rename(ctx, "U1", uuid.NewString(), "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_ReparentMovesAndRejectsCycles(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	docs, _ := fx.store.CreateRoot(ctx, "U1", "Documents")
	taxes, _ := fx.store.CreateChild(ctx, "U1", docs.UUID, "Taxes2023")
	archive, _ := fx.store.CreateRoot(ctx, "U1", "Archive")
	f, err := fx.store.CreateFile(ctx, "U1", taxes.UUID, "a.pdf", "U1/Documents/Taxes/a.pdf", 3, "application/pdf")
	require.NoError(t, err)

	n, err := fx.store.Reparent(ctx, "U1", taxes.UUID, archive.UUID)
	require.NoError(t, err)
	require.NotNil(t, n.Folder.ParentUUID)
	assert.Equal(t, archive.UUID, *n.Folder.ParentUUID)

	fp, err := fx.paths.FilePath(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "/Archive/Taxes2023/a.pdf", fp)
	got, _ := fx.store.GetFile(ctx, f.UUID)
	assert.Equal(t, "U1/Documents/Taxes/a.pdf", got.BlobKey)

	// цикл: Archive внутрь собственного потомка
	_, err = fx.store.Reparent(ctx, "U1", archive.UUID, taxes.UUID)
	assert.ErrorIs(t, err, model.ErrCycleDetected)
	_, err = fx.store.Reparent(ctx, "U1", archive.UUID, archive.UUID)
	assert.ErrorIs(t, err, model.ErrSelfMove)

	after, err := fx.store.GetFolder(ctx, archive.UUID)
	require.NoError(t, err)
	assert.Nil(t, after.ParentUUID)
	assert.Equal(t, int64(1), after.Version)

	// файл
	n, err = fx.store.Reparent(ctx, "U1", f.UUID, docs.UUID)
	require.NoError(t, err)
	assert.Equal(t, docs.UUID, n.File.FolderUUID)

	// чужая папка назначения
	foreign, _ := fx.store.CreateRoot(ctx, "U2", "x")
	_, err = fx.store.Reparent(ctx, "U1", taxes.UUID, foreign.UUID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = fx.store.Reparent(ctx, "U2", taxes.UUID, foreign.UUID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = fx.store.Reparent(ctx, "U1", taxes.UUID, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
	// файл не может быть папкой назначения
	_, err = fx.store.Reparent(ctx, "U1", taxes.UUID, f.UUID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_DeleteSubtree(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	docs, _ := fx.store.CreateRoot(ctx, "U1", "Documents")
	taxes, _ := fx.store.CreateChild(ctx, "U1", docs.UUID, "Taxes")
	deep, _ := fx.store.CreateChild(ctx, "U1", taxes.UUID, "Deep")
	keep, _ := fx.store.CreateRoot(ctx, "U1", "Keep")

	keys := []string{"U1/Documents/a", "U1/Documents/Taxes/b", "U1/Documents/Taxes/Deep/c"}
	for i, parent := range []string{docs.UUID, taxes.UUID, deep.UUID} {
		_, err := fx.store.CreateFile(ctx, "U1", parent, "f", keys[i], 1, "text/plain")
		require.NoError(t, err)
	}
	kept, err := fx.store.CreateFile(ctx, "U1", keep.UUID, "k", "U1/Keep/k", 1, "text/plain")
	require.NoError(t, err)

	d, err := fx.store.DeleteSubtree(ctx, docs.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Folders)
	assert.Equal(t, int64(3), d.Files)
	got := make([]string, 0, len(d.Blobs))
	for _, b := range d.Blobs {
		assert.Equal(t, "U1", b.OwnerID)
		got = append(got, b.BlobKey)
	}
	assert.ElementsMatch(t, keys, got)

	for _, id := range []string{docs.UUID, taxes.UUID, deep.UUID} {
		ok, err := fx.store.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := fx.store.Exists(ctx, kept.UUID)
	require.NoError(t, err)
	assert.True(t, ok)

	// удаление одного файла
	d, err = fx.store.DeleteSubtree(ctx, kept.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Files)
	assert.Equal(t, int64(0), d.Folders)
	require.Len(t, d.Blobs, 1)
	assert.Equal(t, "U1/Keep/k", d.Blobs[0].BlobKey)

	_, err = fx.store.DeleteSubtree(ctx, docs.UUID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// racingFolders имитирует параллельного клиента: hook срабатывает один раз
// после первого чтения parent_uuid, то есть после проверки переноса до транзакции.
type racingFolders struct {
	repo.FolderRepository
	once sync.Once
	hook func(ctx context.Context)
}

func (r *racingFolders) ParentOf(ctx context.Context, id string) (*string, error) {
	parent, err := r.FolderRepository.ParentOf(ctx, id)
	r.once.Do(func() { r.hook(ctx) })
	return parent, err
}

// racingFiles вызывает hook после первого чтения файлов поддерева в DeleteSubtree.
type racingFiles struct {
	repo.FileRepository
	once sync.Once
	hook func(ctx context.Context)
}

func (r *racingFiles) ListByFolders(ctx context.Context, folderUUIDs []string) ([]model.File, error) {
	files, err := r.FileRepository.ListByFolders(ctx, folderUUIDs)
	if err == nil {
		r.once.Do(func() { r.hook(ctx) })
	}
	return files, err
}

func (fx *fixture) storeWith(folders repo.FolderRepository, files repo.FileRepository) *Store {
	return NewStore(folders, files, fx.tx, NewMoveValidator(folders))
}

func TestStore_ReparentConflictWhenNodeChangedConcurrently(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, _ := fx.store.CreateRoot(ctx, "U1", "a")
	b, _ := fx.store.CreateRoot(ctx, "U1", "b")

	folders := &racingFolders{FolderRepository: fx.repos.folders, hook: func(ctx context.Context) {
		_, err := fx.repos.folders.UpdateWithVersion(ctx, a.UUID, 1, map[string]any{"name": "a2"})
		require.NoError(t, err)
	}}
	_, err := fx.storeWith(folders, fx.repos.files).Reparent(ctx, "U1", a.UUID, b.UUID)
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := fx.store.GetFolder(ctx, a.UUID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentUUID)
	assert.Equal(t, "a2", got.Name)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_ReparentRevalidatesInsideTransaction(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, _ := fx.store.CreateRoot(ctx, "U1", "a")
	b, _ := fx.store.CreateRoot(ctx, "U1", "b")

	// пока проверяется перенос a -> b, другой клиент переносит b внутрь a
	folders := &racingFolders{FolderRepository: fx.repos.folders, hook: func(ctx context.Context) {
		_, err := fx.repos.folders.UpdateWithVersion(ctx, b.UUID, 1, map[string]any{"parent_uuid": a.UUID})
		require.NoError(t, err)
	}}
	_, err := fx.storeWith(folders, fx.repos.files).Reparent(ctx, "U1", a.UUID, b.UUID)
	assert.ErrorIs(t, err, model.ErrCycleDetected)

	gotA, err := fx.store.GetFolder(ctx, a.UUID)
	require.NoError(t, err)
	assert.Nil(t, gotA.ParentUUID)
	assert.Equal(t, int64(1), gotA.Version)

	gotB, err := fx.store.GetFolder(ctx, b.UUID)
	require.NoError(t, err)
	require.NotNil(t, gotB.ParentUUID)
	assert.Equal(t, a.UUID, *gotB.ParentUUID)
}

func TestStore_DeleteSubtreeRollsBackOnConcurrentInsert(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	docs, _ := fx.store.CreateRoot(ctx, "U1", "Documents")
	taxes, _ := fx.store.CreateChild(ctx, "U1", docs.UUID, "Taxes")
	f, err := fx.store.CreateFile(ctx, "U1", taxes.UUID, "a.pdf", "U1/Documents/Taxes/a.pdf", 3, "application/pdf")
	require.NoError(t, err)

	files := &racingFiles{FileRepository: fx.repos.files, hook: func(ctx context.Context) {
		parent := taxes.UUID
		late := &model.Folder{
			StorageItem: model.StorageItem{UUID: uuid.NewString(), OwnerID: "U1", Name: "late"},
			ParentUUID:  &parent,
			Version:     1,
		}
		require.NoError(t, fx.repos.folders.Create(ctx, late))
	}}
	_, err = fx.storeWith(fx.repos.folders, files).DeleteSubtree(ctx, docs.UUID)
	assert.ErrorIs(t, err, model.ErrConflict)

	for _, id := range []string{docs.UUID, taxes.UUID, f.UUID} {
		ok, err := fx.store.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
	kids, err := fx.repos.folders.ListChildren(ctx, taxes.UUID)
	require.NoError(t, err)
	assert.Empty(t, kids)
}
