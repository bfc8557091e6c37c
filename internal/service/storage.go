package service

import (
	"GophDrive/internal/blob"
	"GophDrive/internal/metrics"
	"GophDrive/internal/model"
	"GophDrive/internal/repo"
	"GophDrive/internal/tree"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	DefaultBlobTimeout = 30 * time.Second
	DefaultPresignTTL  = 60 * time.Minute
	// MaxPresignTTL — предел срока действия presigned-ссылки (ограничение SigV4).
	MaxPresignTTL = 7 * 24 * time.Hour
)

// ErrInvalidTTL — срок действия ссылки вне (0, MaxPresignTTL].
var ErrInvalidTTL = fmt.Errorf("%w: expiration must be positive and at most 7 days", model.ErrInvalidOperation)

// StorageService связывает дерево метаданных и хранилище blob'ов в пользовательские операции.
//
// Порядок шагов выбран так, чтобы окно рассогласования было минимальным:
// при загрузке сначала пишется blob, затем строка файла; при удалении сначала
// удаляются метаданные, затем blob'ы. Всё, что не удалось согласовать, попадает
// в журнал осиротевших blob'ов и не откатывается.
type StorageService struct {
	tree    *tree.Store
	paths   *tree.PathResolver
	blobs   blob.Gateway
	orphans repo.OrphanRepository
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	blobTimeout time.Duration
	presignTTL  time.Duration
}

// Option настраивает StorageService.
type Option func(*StorageService)

// WithBlobTimeout ограничивает каждый вызов хранилища blob'ов.
func WithBlobTimeout(d time.Duration) Option {
	return func(s *StorageService) {
		if d > 0 {
			s.blobTimeout = d
		}
	}
}

// WithPresignTTL задаёт срок действия ссылки по умолчанию.
func WithPresignTTL(d time.Duration) Option {
	return func(s *StorageService) {
		if d > 0 && d <= MaxPresignTTL {
			s.presignTTL = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *StorageService) { s.metrics = m }
}

func NewStorageService(
	store *tree.Store,
	paths *tree.PathResolver,
	blobs blob.Gateway,
	orphans repo.OrphanRepository,
	logger *zap.SugaredLogger,
	opts ...Option,
) *StorageService {
	s := &StorageService{
		tree:        store,
		paths:       paths,
		blobs:       blobs,
		orphans:     orphans,
		logger:      logger,
		blobTimeout: DefaultBlobTimeout,
		presignTTL:  DefaultPresignTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Представления узлов с вычисленным путём.
type FolderView struct {
	model.Folder
	Path string `json:"path"`
}

type FileView struct {
	model.File
	Path string `json:"path"`
}

type NodeView struct {
	Kind   model.NodeKind `json:"kind"`
	Folder *FolderView    `json:"folder,omitempty"`
	File   *FileView      `json:"file,omitempty"`
}

// FolderListing — папка и её прямое содержимое.
type FolderListing struct {
	Folder  FolderView   `json:"folder"`
	Folders []FolderView `json:"folders"`
	Files   []FileView   `json:"files"`
}

// FolderDetails — сводка по прямому содержимому папки.
type FolderDetails struct {
	FolderView
	SubFolderCount int    `json:"sub_folder_count"`
	FileCount      int    `json:"file_count"`
	TotalSize      int64  `json:"total_size"`
	FormattedSize  string `json:"formatted_size"`
}

// DeleteReport — итог удаления. Orphans — ключи, которые не удалось удалить из хранилища.
type DeleteReport struct {
	Folders int64    `json:"folders"`
	Files   int64    `json:"files"`
	Orphans []string `json:"orphans"`
}

// BlobKey строит ключ blob'а: владелец + путь папки на момент загрузки + имя файла.
func BlobKey(owner, folderPath, name string) string {
	return owner + folderPath + name
}

func (s *StorageService) CreateRoot(ctx context.Context, owner, name string) (_ *FolderView, err error) {
	defer s.count("create_root", &err)
	f, err := s.tree.CreateRoot(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return &FolderView{Folder: *f, Path: "/" + f.Name + "/"}, nil
}

func (s *StorageService) CreateFolder(ctx context.Context, owner, parentUUID, name string) (_ *FolderView, err error) {
	defer s.count("create_folder", &err)
	f, err := s.tree.CreateChild(ctx, owner, parentUUID, name)
	if err != nil {
		return nil, err
	}
	return s.folderView(ctx, f)
}

func (s *StorageService) ListRoots(ctx context.Context, owner string) ([]FolderView, error) {
	roots, err := s.tree.ListRoots(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]FolderView, 0, len(roots))
	for _, r := range roots {
		out = append(out, FolderView{Folder: r, Path: "/" + r.Name + "/"})
	}
	return out, nil
}

func (s *StorageService) GetFolder(ctx context.Context, owner, folderUUID string) (*FolderView, error) {
	f, err := s.ownedFolder(ctx, owner, folderUUID)
	if err != nil {
		return nil, err
	}
	return s.folderView(ctx, f)
}

func (s *StorageService) GetFile(ctx context.Context, owner, fileUUID string) (*FileView, error) {
	f, err := s.ownedFile(ctx, owner, fileUUID)
	if err != nil {
		return nil, err
	}
	return s.fileView(ctx, f)
}

// ListFolder возвращает папку с дочерними папками и файлами. Пути детей строятся от пути папки.
func (s *StorageService) ListFolder(ctx context.Context, owner, folderUUID string) (*FolderListing, error) {
	f, err := s.ownedFolder(ctx, owner, folderUUID)
	if err != nil {
		return nil, err
	}
	view, err := s.folderView(ctx, f)
	if err != nil {
		return nil, err
	}
	children, err := s.tree.ListChildren(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	out := &FolderListing{
		Folder:  *view,
		Folders: make([]FolderView, 0, len(children.Folders)),
		Files:   make([]FileView, 0, len(children.Files)),
	}
	for _, c := range children.Folders {
		out.Folders = append(out.Folders, FolderView{Folder: c, Path: view.Path + c.Name + "/"})
	}
	for _, c := range children.Files {
		out.Files = append(out.Files, FileView{File: c, Path: view.Path + c.Name})
	}
	return out, nil
}

// FolderDetails считает подпапки, файлы и суммарный размер прямого содержимого папки.
func (s *StorageService) FolderDetails(ctx context.Context, owner, folderUUID string) (*FolderDetails, error) {
	l, err := s.ListFolder(ctx, owner, folderUUID)
	if err != nil {
		return nil, err
	}
	d := &FolderDetails{
		FolderView:     l.Folder,
		SubFolderCount: len(l.Folders),
		FileCount:      len(l.Files),
	}
	for _, f := range l.Files {
		d.TotalSize += f.Size
	}
	d.FormattedSize = humanize.IBytes(uint64(d.TotalSize))
	return d, nil
}

// Upload сохраняет содержимое в хранилище и только после этого создаёт запись файла.
// Если запись не удалось создать, записанный blob регистрируется как осиротевший.
func (s *StorageService) Upload(ctx context.Context, owner, folderUUID string, content io.Reader, name, contentType string, size int64) (_ *FileView, err error) {
	defer s.count("upload", &err)
	if err := tree.ValidateName(name); err != nil {
		return nil, err
	}
	folder, err := s.ownedFolder(ctx, owner, folderUUID)
	if err != nil {
		return nil, err
	}
	dir, err := s.paths.FolderPath(ctx, folder.UUID)
	if err != nil {
		return nil, err
	}
	key := BlobKey(owner, dir, name)

	if err := s.putBlob(ctx, key, content, size, contentType); err != nil {
		return nil, err
	}

	f, err := s.tree.CreateFile(ctx, owner, folderUUID, name, key, size, contentType)
	if err != nil {
		// на ключ ссылается другой файл, blob не осиротел
		if !errors.Is(err, model.ErrBlobKeyTaken) {
			s.recordOrphan(ctx, owner, key, model.OpUpload, err)
		}
		return nil, err
	}
	s.logger.Infow("file uploaded", "owner", owner, "file", f.UUID, "key", key, "size", size)
	return &FileView{File: *f, Path: dir + f.Name}, nil
}

// putBlob пишет blob только под свободный ключ. Проверка по метаданным отсекает
// заведомо занятые ключи до передачи содержимого; гонку двух загрузок решает
// условная запись в хранилище, и проигравшая получает model.ErrBlobKeyTaken.
func (s *StorageService) putBlob(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	s.logger.Debugw("put blob", "key", key, "size", size)
	taken, err := s.tree.BlobKeyInUse(ctx, key)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("file %q: %w", key, model.ErrBlobKeyTaken)
	}
	bctx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	if err := s.blobs.PutIfAbsent(bctx, key, content, size, contentType); err != nil {
		if errors.Is(err, blob.ErrExists) {
			return fmt.Errorf("file %q: %w", key, model.ErrBlobKeyTaken)
		}
		return blob.Wrap("put", key, err)
	}
	return nil
}

// Download отдаёт содержимое файла по сохранённому ключу. Таймаут хранилища
// действует до закрытия Body.
func (s *StorageService) Download(ctx context.Context, owner, fileUUID string) (*blob.Object, *model.File, error) {
	f, err := s.ownedFile(ctx, owner, fileUUID)
	if err != nil {
		return nil, nil, err
	}
	bctx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	obj, err := s.blobs.Get(bctx, f.BlobKey)
	if err != nil {
		cancel()
		return nil, nil, blob.Wrap("get", f.BlobKey, err)
	}
	obj.Body = &cancelOnClose{ReadCloser: obj.Body, cancel: cancel}
	if obj.ContentType == "" {
		obj.ContentType = f.ContentType
	}
	return obj, f, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// DownloadURL выдаёт presigned-ссылку на файл. ttl == 0 — срок по умолчанию.
// Чужой файл отклоняется до проверки срока.
func (s *StorageService) DownloadURL(ctx context.Context, owner, fileUUID string, ttl time.Duration) (string, error) {
	f, err := s.ownedFile(ctx, owner, fileUUID)
	if err != nil {
		return "", err
	}
	if ttl == 0 {
		ttl = s.presignTTL
	}
	if ttl < 0 || ttl > MaxPresignTTL {
		return "", ErrInvalidTTL
	}
	bctx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	url, err := s.blobs.Presign(bctx, f.BlobKey, ttl)
	if err != nil {
		return "", blob.Wrap("presign", f.BlobKey, err)
	}
	return url, nil
}

// DeleteFile удаляет запись файла, затем его blob.
func (s *StorageService) DeleteFile(ctx context.Context, owner, fileUUID string) (_ *DeleteReport, err error) {
	defer s.count("delete_file", &err)
	if _, err := s.ownedFile(ctx, owner, fileUUID); err != nil {
		return nil, err
	}
	d, err := s.tree.DeleteSubtree(ctx, fileUUID)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, owner, model.OpDeleteFile, d), nil
}

// DeleteFolder каскадно удаляет папку в одной транзакции, затем по одному
// удалению blob'а на каждый освободившийся ключ.
func (s *StorageService) DeleteFolder(ctx context.Context, owner, folderUUID string) (_ *DeleteReport, err error) {
	defer s.count("delete_folder", &err)
	if _, err := s.ownedFolder(ctx, owner, folderUUID); err != nil {
		return nil, err
	}
	d, err := s.tree.DeleteSubtree(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, owner, model.OpDeleteFolder, d), nil
}

// release удаляет blob'ы уже удалённых файлов. Ошибки не повторяются и не откатывают
// метаданные: ключ попадает в журнал осиротевших blob'ов.
func (s *StorageService) release(ctx context.Context, owner, op string, d *tree.Deletion) *DeleteReport {
	report := &DeleteReport{Folders: d.Folders, Files: d.Files, Orphans: []string{}}
	for _, b := range d.Blobs {
		bctx, cancel := context.WithTimeout(ctx, s.blobTimeout)
		existed, err := s.blobs.Delete(bctx, b.BlobKey)
		cancel()
		if err != nil {
			s.recordOrphan(ctx, owner, b.BlobKey, op, blob.Wrap("delete", b.BlobKey, err))
			report.Orphans = append(report.Orphans, b.BlobKey)
			continue
		}
		if !existed {
			s.logger.Warnw("blob already absent", "owner", owner, "key", b.BlobKey, "file", b.FileUUID)
		}
	}
	s.logger.Infow("nodes deleted", "owner", owner, "operation", op,
		"folders", report.Folders, "files", report.Files, "orphans", len(report.Orphans))
	return report
}

// Move переносит папку или файл. Ключи blob'ов не меняются.
func (s *StorageService) Move(ctx context.Context, owner, nodeUUID, destFolderUUID string) (*NodeView, error) {
	return s.move(ctx, owner, "", nodeUUID, destFolderUUID)
}

func (s *StorageService) MoveFolder(ctx context.Context, owner, folderUUID, destFolderUUID string) (*FolderView, error) {
	v, err := s.move(ctx, owner, model.KindFolder, folderUUID, destFolderUUID)
	if err != nil {
		return nil, err
	}
	return v.Folder, nil
}

func (s *StorageService) MoveFile(ctx context.Context, owner, fileUUID, destFolderUUID string) (*FileView, error) {
	v, err := s.move(ctx, owner, model.KindFile, fileUUID, destFolderUUID)
	if err != nil {
		return nil, err
	}
	return v.File, nil
}

func (s *StorageService) move(ctx context.Context, owner string, kind model.NodeKind, nodeUUID, destFolderUUID string) (_ *NodeView, err error) {
	defer s.count("move", &err)
	if err := s.expectKind(ctx, kind, nodeUUID); err != nil {
		return nil, err
	}
	n, err := s.tree.Reparent(ctx, owner, nodeUUID, destFolderUUID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("node moved", "owner", owner, "node", nodeUUID, "kind", n.Kind, "destination", destFolderUUID)
	return s.nodeView(ctx, n)
}

// Rename меняет имя папки или файла. Ключи blob'ов не меняются.
func (s *StorageService) Rename(ctx context.Context, owner, nodeUUID, newName string) (*NodeView, error) {
	return s.rename(ctx, owner, "", nodeUUID, newName)
}

func (s *StorageService) RenameFolder(ctx context.Context, owner, folderUUID, newName string) (*FolderView, error) {
	v, err := s.rename(ctx, owner, model.KindFolder, folderUUID, newName)
	if err != nil {
		return nil, err
	}
	return v.Folder, nil
}

func (s *StorageService) RenameFile(ctx context.Context, owner, fileUUID, newName string) (*FileView, error) {
	v, err := s.rename(ctx, owner, model.KindFile, fileUUID, newName)
	if err != nil {
		return nil, err
	}
	return v.File, nil
}

func (s *StorageService) rename(ctx context.Context, owner string, kind model.NodeKind, nodeUUID, newName string) (_ *NodeView, err error) {
	defer s.count("rename", &err)
	if err := tree.ValidateName(newName); err != nil {
		return nil, err
	}
	if err := s.expectKind(ctx, kind, nodeUUID); err != nil {
		return nil, err
	}
	n, err := s.tree.Rename(ctx, owner, nodeUUID, newName)
	if err != nil {
		return nil, err
	}
	return s.nodeView(ctx, n)
}

// ListBlobs перечисляет ключи владельца под prefix (путь вида "/Documents/").
func (s *StorageService) ListBlobs(ctx context.Context, owner, prefix string) (*blob.Listing, error) {
	full := owner + "/" + strings.TrimPrefix(prefix, "/")
	bctx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	l, err := s.blobs.List(bctx, full)
	if err != nil {
		return nil, blob.Wrap("list", full, err)
	}
	if l.Names == nil {
		l.Names = []string{}
	}
	if l.CommonPrefixes == nil {
		l.CommonPrefixes = []string{}
	}
	return l, nil
}

// Orphans возвращает несверенные записи журнала владельца.
func (s *StorageService) Orphans(ctx context.Context, owner string) ([]model.OrphanBlob, error) {
	return s.orphans.ListUnresolved(ctx, owner)
}

// ResolveOrphan отмечает запись журнала как сверенную.
func (s *StorageService) ResolveOrphan(ctx context.Context, owner string, id int64) error {
	return s.orphans.MarkResolved(ctx, owner, id)
}

// recordOrphan фиксирует расхождение: лог с владельцем, ключом и операцией, метрика
// и строка журнала. Запись в журнал выполняется и при отменённом ctx запроса.
func (s *StorageService) recordOrphan(ctx context.Context, owner, key, op string, cause error) {
	s.logger.Warnw("orphan blob", "owner", owner, "key", key, "operation", op, "error", cause)
	s.metrics.CountOrphan(op)

	o := &model.OrphanBlob{OwnerID: owner, BlobKey: key, Operation: op, Reason: cause.Error()}
	if err := s.orphans.Record(context.WithoutCancel(ctx), o); err != nil {
		s.logger.Errorw("failed to record orphan blob", "owner", owner, "key", key, "operation", op, "error", err)
	}
}

func (s *StorageService) ownedFolder(ctx context.Context, owner, folderUUID string) (*model.Folder, error) {
	f, err := s.tree.GetFolder(ctx, folderUUID)
	if err != nil {
		return nil, err
	}
	if err := tree.Authorize(owner, model.FolderNode(f)); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *StorageService) ownedFile(ctx context.Context, owner, fileUUID string) (*model.File, error) {
	f, err := s.tree.GetFile(ctx, fileUUID)
	if err != nil {
		return nil, err
	}
	if err := tree.Authorize(owner, model.FileNode(f)); err != nil {
		return nil, err
	}
	return f, nil
}

// expectKind отвечает NotFound, если uuid указывает на узел другого типа.
func (s *StorageService) expectKind(ctx context.Context, kind model.NodeKind, nodeUUID string) error {
	if kind == "" {
		return nil
	}
	n, err := s.tree.GetByUUID(ctx, nodeUUID)
	if err != nil {
		return err
	}
	if n.Kind != kind {
		return fmt.Errorf("%s %s: %w", kind, nodeUUID, model.ErrNotFound)
	}
	return nil
}

func (s *StorageService) folderView(ctx context.Context, f *model.Folder) (*FolderView, error) {
	p, err := s.paths.FolderPath(ctx, f.UUID)
	if err != nil {
		return nil, err
	}
	return &FolderView{Folder: *f, Path: p}, nil
}

func (s *StorageService) fileView(ctx context.Context, f *model.File) (*FileView, error) {
	p, err := s.paths.FilePath(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FileView{File: *f, Path: p}, nil
}

func (s *StorageService) nodeView(ctx context.Context, n *model.Node) (*NodeView, error) {
	v := &NodeView{Kind: n.Kind}
	var err error
	if n.Kind == model.KindFolder {
		v.Folder, err = s.folderView(ctx, n.Folder)
	} else {
		v.File, err = s.fileView(ctx, n.File)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *StorageService) count(op string, err *error) {
	s.metrics.CountOperation(op, *err)
}
