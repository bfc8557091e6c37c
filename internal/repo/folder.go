package repo

import (
	"GophDrive/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FolderRepository — доступ к таблице папок.
type FolderRepository interface {
	Create(ctx context.Context, f *model.Folder) error
	GetByUUID(ctx context.Context, uuid string) (*model.Folder, error)
	// GetForUpdate читает папку с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, uuid string) (*model.Folder, error)
	Exists(ctx context.Context, uuid string) (bool, error)
	// ParentOf возвращает parent_uuid без загрузки всей записи.
	ParentOf(ctx context.Context, uuid string) (*string, error)
	ListRoots(ctx context.Context, ownerID string) ([]model.Folder, error)
	ListChildren(ctx context.Context, parentUUID string) ([]model.Folder, error)
	// ListChildUUIDs возвращает uuid прямых потомков сразу для нескольких папок.
	ListChildUUIDs(ctx context.Context, parentUUIDs []string) ([]string, error)
	// UpdateWithVersion применяет изменения, только если версия совпала.
	UpdateWithVersion(ctx context.Context, uuid string, expectedVersion int64, updates map[string]any) (int64, error)
	DeleteByUUIDs(ctx context.Context, uuids []string) (int64, error)
}

type folderRepo struct {
	db *gorm.DB
}

// NewFolderRepository создаёт gorm-реализацию FolderRepository.
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepo{db: db}
}

func (r *folderRepo) Create(ctx context.Context, f *model.Folder) error {
	return conn(ctx, r.db).Create(f).Error
}

func (r *folderRepo) GetByUUID(ctx context.Context, uuid string) (*model.Folder, error) {
	return r.get(conn(ctx, r.db), uuid)
}

func (r *folderRepo) GetForUpdate(ctx context.Context, uuid string) (*model.Folder, error) {
	return r.get(forUpdate(conn(ctx, r.db)), uuid)
}

func (r *folderRepo) get(db *gorm.DB, uuid string) (*model.Folder, error) {
	var f model.Folder
	if err := db.Where("uuid = ?", uuid).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("folder %s: %w", uuid, model.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

func (r *folderRepo) Exists(ctx context.Context, uuid string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&model.Folder{}).Where("uuid = ?", uuid).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *folderRepo) ParentOf(ctx context.Context, uuid string) (*string, error) {
	var row struct{ ParentUUID *string }
	tx := conn(ctx, r.db).Model(&model.Folder{}).Select("parent_uuid").Where("uuid = ?", uuid).Limit(1).Scan(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("folder %s: %w", uuid, model.ErrNotFound)
	}
	return row.ParentUUID, nil
}

func (r *folderRepo) ListRoots(ctx context.Context, ownerID string) ([]model.Folder, error) {
	var out []model.Folder
	err := conn(ctx, r.db).
		Where("owner_id = ? AND parent_uuid IS NULL", ownerID).
		Order("created_at ASC, uuid ASC").
		Find(&out).Error
	return out, err
}

func (r *folderRepo) ListChildren(ctx context.Context, parentUUID string) ([]model.Folder, error) {
	var out []model.Folder
	err := conn(ctx, r.db).
		Where("parent_uuid = ?", parentUUID).
		Order("created_at ASC, uuid ASC").
		Find(&out).Error
	return out, err
}

func (r *folderRepo) ListChildUUIDs(ctx context.Context, parentUUIDs []string) ([]string, error) {
	var out []string
	for _, part := range chunks(parentUUIDs) {
		var ids []string
		if err := conn(ctx, r.db).Model(&model.Folder{}).
			Where("parent_uuid IN ?", part).
			Pluck("uuid", &ids).Error; err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

func (r *folderRepo) UpdateWithVersion(ctx context.Context, uuid string, expectedVersion int64, updates map[string]any) (int64, error) {
	return updateWithVersion(conn(ctx, r.db).Model(&model.Folder{}), uuid, expectedVersion, updates)
}

func (r *folderRepo) DeleteByUUIDs(ctx context.Context, uuids []string) (int64, error) {
	var total int64
	for _, part := range chunks(uuids) {
		tx := conn(ctx, r.db).Where("uuid IN ?", part).Delete(&model.Folder{})
		if tx.Error != nil {
			return total, tx.Error
		}
		total += tx.RowsAffected
	}
	return total, nil
}

// updateWithVersion — общий оптимистичный апдейт для папок и файлов.
// Ноль затронутых строк означает, что запись изменили или удалили параллельно.
func updateWithVersion(db *gorm.DB, uuid string, expectedVersion int64, updates map[string]any) (int64, error) {
	values := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = time.Now().UTC()

	tx := db.Where("uuid = ? AND version = ?", uuid, expectedVersion).Updates(values)
	if tx.Error != nil {
		return 0, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, model.ErrConflict
	}
	return expectedVersion + 1, nil
}
