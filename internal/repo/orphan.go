package repo

import (
	"GophDrive/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrphanRepository — журнал осиротевших blob'ов для внешней сверки.
type OrphanRepository interface {
	Record(ctx context.Context, o *model.OrphanBlob) error
	// ListUnresolved возвращает несверенные записи; пустой ownerID — по всем владельцам.
	ListUnresolved(ctx context.Context, ownerID string) ([]model.OrphanBlob, error)
	// MarkResolved закрывает запись; пустой ownerID снимает проверку владельца.
	MarkResolved(ctx context.Context, ownerID string, id int64) error
}

type orphanRepo struct {
	db *gorm.DB
}

// NewOrphanRepository создаёт gorm-реализацию OrphanRepository.
func NewOrphanRepository(db *gorm.DB) OrphanRepository {
	return &orphanRepo{db: db}
}

func (r *orphanRepo) Record(ctx context.Context, o *model.OrphanBlob) error {
	return conn(ctx, r.db).Create(o).Error
}

func (r *orphanRepo) ListUnresolved(ctx context.Context, ownerID string) ([]model.OrphanBlob, error) {
	q := conn(ctx, r.db).Where("resolved_at IS NULL")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var out []model.OrphanBlob
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *orphanRepo) MarkResolved(ctx context.Context, ownerID string, id int64) error {
	q := conn(ctx, r.db).Model(&model.OrphanBlob{}).Where("id = ? AND resolved_at IS NULL", id)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	tx := q.Update("resolved_at", time.Now().UTC())
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("orphan %d: %w", id, model.ErrNotFound)
	}
	return nil
}
