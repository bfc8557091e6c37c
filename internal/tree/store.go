package tree

import (
	"GophDrive/internal/model"
	"GophDrive/internal/repo"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Children — прямое содержимое папки в порядке создания.
type Children struct {
	Folders []model.Folder
	Files   []model.File
}

// FreedBlob — ключ blob'а, освободившийся после удаления метаданных файла.
type FreedBlob struct {
	OwnerID  string
	FileUUID string
	BlobKey  string
}

// Deletion — итог каскадного удаления поддерева.
type Deletion struct {
	Folders int64
	Files   int64
	Blobs   []FreedBlob
}

// Store владеет деревом папок и файлов: создание, поиск, перенос, переименование
// и каскадное удаление. Все изменения структуры выполняются в транзакциях TxManager.
type Store struct {
	folders   repo.FolderRepository
	files     repo.FileRepository
	tx        repo.TxManager
	validator *MoveValidator
}

func NewStore(folders repo.FolderRepository, files repo.FileRepository, tx repo.TxManager, validator *MoveValidator) *Store {
	return &Store{folders: folders, files: files, tx: tx, validator: validator}
}

// CreateRoot создаёт корневую папку владельца. Уникальность имён корней не требуется.
func (s *Store) CreateRoot(ctx context.Context, owner, name string) (*model.Folder, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	f := &model.Folder{
		StorageItem: model.StorageItem{UUID: uuid.NewString(), OwnerID: owner, Name: name},
		Version:     1,
	}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create root folder: %w", err)
	}
	return f, nil
}

// CreateChild создаёт папку внутри parentUUID.
func (s *Store) CreateChild(ctx context.Context, owner, parentUUID, name string) (*model.Folder, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	f := &model.Folder{
		StorageItem: model.StorageItem{UUID: uuid.NewString(), OwnerID: owner, Name: name},
		ParentUUID:  &parentUUID,
		Version:     1,
	}
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		parent, err := s.folders.GetForUpdate(ctx, parentUUID)
		if err != nil {
			return err
		}
		if err := authorize(owner, &parent.StorageItem, model.KindFolder); err != nil {
			return err
		}
		return s.folders.Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile создаёт запись файла в папке folderUUID. Ключ blob'а сохраняется как есть
// и не может совпадать с ключом другого файла.
func (s *Store) CreateFile(ctx context.Context, owner, folderUUID, name, blobKey string, size int64, contentType string) (*model.File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	f := &model.File{
		StorageItem: model.StorageItem{UUID: uuid.NewString(), OwnerID: owner, Name: name},
		FolderUUID:  folderUUID,
		BlobKey:     blobKey,
		Size:        size,
		ContentType: contentType,
		Version:     1,
	}
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := s.folders.GetForUpdate(ctx, folderUUID)
		if err != nil {
			return err
		}
		if err := authorize(owner, &folder.StorageItem, model.KindFolder); err != nil {
			return err
		}
		taken, err := s.files.ExistsByBlobKey(ctx, blobKey)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("file %q: %w", blobKey, model.ErrBlobKeyTaken)
		}
		return s.files.Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetByUUID находит папку или файл по uuid.
func (s *Store) GetByUUID(ctx context.Context, id string) (*model.Node, error) {
	return s.node(ctx, id, false)
}

func (s *Store) GetFolder(ctx context.Context, id string) (*model.Folder, error) {
	return s.folders.GetByUUID(ctx, id)
}

func (s *Store) GetFile(ctx context.Context, id string) (*model.File, error) {
	return s.files.GetByUUID(ctx, id)
}

// Exists проверяет наличие узла без загрузки записи.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := s.folders.Exists(ctx, id)
	if err != nil || ok {
		return ok, err
	}
	return s.files.Exists(ctx, id)
}

// BlobKeyInUse сообщает, ссылается ли какой-либо файл на ключ.
func (s *Store) BlobKeyInUse(ctx context.Context, key string) (bool, error) {
	return s.files.ExistsByBlobKey(ctx, key)
}

func (s *Store) ListRoots(ctx context.Context, owner string) ([]model.Folder, error) {
	return s.folders.ListRoots(ctx, owner)
}

// ListChildren возвращает дочерние папки и файлы папки folderUUID.
func (s *Store) ListChildren(ctx context.Context, folderUUID string) (*Children, error) {
	ok, err := s.folders.Exists(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", folderUUID, model.ErrNotFound)
	}
	folders, err := s.folders.ListChildren(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByFolder(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	return &Children{Folders: folders, Files: files}, nil
}

// Reparent переносит папку или файл в папку newParentUUID.
//
// Проверка циклов выполняется до транзакции и повторяется внутри неё после
// блокировки обоих узлов. Запись идёт с проверкой версии, прочитанной до транзакции:
// если узел успели изменить, возвращается model.ErrConflict и ничего не меняется.
func (s *Store) Reparent(ctx context.Context, owner, nodeUUID, newParentUUID string) (*model.Node, error) {
	node, err := s.GetByUUID(ctx, nodeUUID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, node.Item(), node.Kind); err != nil {
		return nil, err
	}
	dest, err := s.folders.GetByUUID(ctx, newParentUUID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, &dest.StorageItem, model.KindFolder); err != nil {
		return nil, err
	}
	if node.Kind == model.KindFolder {
		if err := s.validator.Validate(ctx, nodeUUID, newParentUUID); err != nil {
			return nil, err
		}
	}

	expected := version(node)
	var out *model.Node
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		locked, err := s.lockPair(ctx, nodeUUID, newParentUUID)
		if err != nil {
			return err
		}
		if version(locked) != expected {
			return model.ErrConflict
		}
		switch locked.Kind {
		case model.KindFolder:
			if err := s.validator.Validate(ctx, nodeUUID, newParentUUID); err != nil {
				return err
			}
			_, err = s.folders.UpdateWithVersion(ctx, nodeUUID, expected, map[string]any{"parent_uuid": newParentUUID})
		default:
			_, err = s.files.UpdateWithVersion(ctx, nodeUUID, expected, map[string]any{"folder_uuid": newParentUUID})
		}
		if err != nil {
			return err
		}
		out, err = s.GetByUUID(ctx, nodeUUID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockPair блокирует перемещаемый узел и папку назначения в порядке uuid,
// чтобы встречные переносы не блокировали друг друга.
func (s *Store) lockPair(ctx context.Context, nodeUUID, destUUID string) (*model.Node, error) {
	var node *model.Node
	lockDest := func() error {
		_, err := s.folders.GetForUpdate(ctx, destUUID)
		return err
	}
	lockNode := func() (err error) {
		node, err = s.node(ctx, nodeUUID, true)
		return err
	}
	first, second := lockNode, lockDest
	if destUUID < nodeUUID {
		first, second = lockDest, lockNode
	}
	if err := first(); err != nil {
		return nil, err
	}
	if err := second(); err != nil {
		return nil, err
	}
	return node, nil
}

// Rename меняет имя узла. Ключи blob'ов не затрагиваются.
func (s *Store) Rename(ctx context.Context, owner, nodeUUID, name string) (*model.Node, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	node, err := s.GetByUUID(ctx, nodeUUID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, node.Item(), node.Kind); err != nil {
		return nil, err
	}

	var out *model.Node
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		updates := map[string]any{"name": name}
		var err error
		if node.Kind == model.KindFolder {
			_, err = s.folders.UpdateWithVersion(ctx, nodeUUID, node.Folder.Version, updates)
		} else {
			_, err = s.files.UpdateWithVersion(ctx, nodeUUID, node.File.Version, updates)
		}
		if err != nil {
			return err
		}
		out, err = s.GetByUUID(ctx, nodeUUID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSubtree удаляет узел со всеми потомками в одной транзакции и возвращает
// ключи blob'ов удалённых файлов. Владельца проверяет вызывающая сторона.
//
// Поддерево обходится в ширину по uuid, затем строки файлов и папок удаляются пакетами.
// Если после удаления у удалённых папок нашлись потомки, созданные параллельно,
// транзакция откатывается с model.ErrConflict.
func (s *Store) DeleteSubtree(ctx context.Context, nodeUUID string) (*Deletion, error) {
	var out *Deletion
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.node(ctx, nodeUUID, true)
		if err != nil {
			return err
		}
		if node.Kind == model.KindFile {
			n, err := s.files.DeleteByUUIDs(ctx, []string{nodeUUID})
			if err != nil {
				return err
			}
			out = &Deletion{Files: n, Blobs: []FreedBlob{freed(node.File)}}
			return nil
		}

		folderIDs, err := s.collectFolders(ctx, nodeUUID)
		if err != nil {
			return err
		}
		files, err := s.files.ListByFolders(ctx, folderIDs)
		if err != nil {
			return err
		}
		fileIDs := make([]string, 0, len(files))
		blobs := make([]FreedBlob, 0, len(files))
		for i := range files {
			fileIDs = append(fileIDs, files[i].UUID)
			blobs = append(blobs, freed(&files[i]))
		}

		d := &Deletion{Blobs: blobs}
		if d.Files, err = s.files.DeleteByUUIDs(ctx, fileIDs); err != nil {
			return err
		}
		if d.Folders, err = s.folders.DeleteByUUIDs(ctx, folderIDs); err != nil {
			return err
		}

		strayFolders, err := s.folders.ListChildUUIDs(ctx, folderIDs)
		if err != nil {
			return err
		}
		strayFiles, err := s.files.ListByFolders(ctx, folderIDs)
		if err != nil {
			return err
		}
		if len(strayFolders) > 0 || len(strayFiles) > 0 {
			return fmt.Errorf("delete folder %s: %w", nodeUUID, model.ErrConflict)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// collectFolders обходит поддерево в ширину и возвращает uuid всех папок, включая корень.
func (s *Store) collectFolders(ctx context.Context, rootUUID string) ([]string, error) {
	seen := map[string]struct{}{rootUUID: {}}
	all := []string{rootUUID}
	frontier := []string{rootUUID}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > MaxTreeDepth {
			return nil, fmt.Errorf("%w: subtree of %s", ErrTreeTooDeep, rootUUID)
		}
		kids, err := s.folders.ListChildUUIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0:0]
		for _, id := range kids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	return all, nil
}

// node читает папку или файл; lock — с блокировкой строки.
func (s *Store) node(ctx context.Context, id string, lock bool) (*model.Node, error) {
	getFolder, getFile := s.folders.GetByUUID, s.files.GetByUUID
	if lock {
		getFolder, getFile = s.folders.GetForUpdate, s.files.GetForUpdate
	}
	folder, err := getFolder(ctx, id)
	if err == nil {
		return &model.Node{Kind: model.KindFolder, Folder: folder}, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	file, err := getFile(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("node %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &model.Node{Kind: model.KindFile, File: file}, nil
}

// Authorize проверяет, что узел принадлежит владельцу.
func Authorize(owner string, n *model.Node) error {
	return authorize(owner, n.Item(), n.Kind)
}

func authorize(owner string, item *model.StorageItem, kind model.NodeKind) error {
	if item.OwnerID != owner {
		return fmt.Errorf("%s %s: %w", kind, item.UUID, model.ErrForbidden)
	}
	return nil
}

func version(n *model.Node) int64 {
	if n.Kind == model.KindFolder {
		return n.Folder.Version
	}
	return n.File.Version
}

func freed(f *model.File) FreedBlob {
	return FreedBlob{OwnerID: f.OwnerID, FileUUID: f.UUID, BlobKey: f.BlobKey}
}
