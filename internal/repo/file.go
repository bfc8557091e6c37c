package repo

import (
	"GophDrive/internal/model"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// FileRepository — доступ к таблице файлов.
type FileRepository interface {
	Create(ctx context.Context, f *model.File) error
	GetByUUID(ctx context.Context, uuid string) (*model.File, error)
	GetForUpdate(ctx context.Context, uuid string) (*model.File, error)
	Exists(ctx context.Context, uuid string) (bool, error)
	// ExistsByBlobKey сообщает, ссылается ли какой-либо файл на ключ blob'а.
	ExistsByBlobKey(ctx context.Context, blobKey string) (bool, error)
	ListByFolder(ctx context.Context, folderUUID string) ([]model.File, error)
	ListByFolders(ctx context.Context, folderUUIDs []string) ([]model.File, error)
	UpdateWithVersion(ctx context.Context, uuid string, expectedVersion int64, updates map[string]any) (int64, error)
	DeleteByUUIDs(ctx context.Context, uuids []string) (int64, error)
}

type fileRepo struct {
	db *gorm.DB
}

// NewFileRepository создаёт gorm-реализацию FileRepository.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepo{db: db}
}

// Create отклоняет второй файл с тем же blob_key ошибкой model.ErrBlobKeyTaken.
func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	err := conn(ctx, r.db).Create(f).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("file %q: %w", f.BlobKey, model.ErrBlobKeyTaken)
	}
	return err
}

func (r *fileRepo) GetByUUID(ctx context.Context, uuid string) (*model.File, error) {
	return r.get(conn(ctx, r.db), uuid)
}

func (r *fileRepo) GetForUpdate(ctx context.Context, uuid string) (*model.File, error) {
	return r.get(forUpdate(conn(ctx, r.db)), uuid)
}

func (r *fileRepo) get(db *gorm.DB, uuid string) (*model.File, error) {
	var f model.File
	if err := db.Where("uuid = ?", uuid).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", uuid, model.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) Exists(ctx context.Context, uuid string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&model.File{}).Where("uuid = ?", uuid).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *fileRepo) ExistsByBlobKey(ctx context.Context, blobKey string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&model.File{}).Where("blob_key = ?", blobKey).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *fileRepo) ListByFolder(ctx context.Context, folderUUID string) ([]model.File, error) {
	var out []model.File
	err := conn(ctx, r.db).
		Where("folder_uuid = ?", folderUUID).
		Order("created_at ASC, uuid ASC").
		Find(&out).Error
	return out, err
}

func (r *fileRepo) ListByFolders(ctx context.Context, folderUUIDs []string) ([]model.File, error) {
	var out []model.File
	for _, part := range chunks(folderUUIDs) {
		var files []model.File
		if err := conn(ctx, r.db).Where("folder_uuid IN ?", part).Find(&files).Error; err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func (r *fileRepo) UpdateWithVersion(ctx context.Context, uuid string, expectedVersion int64, updates map[string]any) (int64, error) {
	return updateWithVersion(conn(ctx, r.db).Model(&model.File{}), uuid, expectedVersion, updates)
}

func (r *fileRepo) DeleteByUUIDs(ctx context.Context, uuids []string) (int64, error) {
	var total int64
	for _, part := range chunks(uuids) {
		tx := conn(ctx, r.db).Where("uuid IN ?", part).Delete(&model.File{})
		if tx.Error != nil {
			return total, tx.Error
		}
		total += tx.RowsAffected
	}
	return total, nil
}
