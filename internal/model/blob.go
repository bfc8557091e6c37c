package model

import "time"

// Операции, после которых может остаться осиротевший blob.
const (
	OpUpload       = "upload"
	OpDeleteFile   = "delete_file"
	OpDeleteFolder = "delete_folder"
)

// OrphanBlob — запись о расхождении метаданных и хранилища blob'ов.
// Сама сверка выполняется внешним процессом, здесь только журнал.
type OrphanBlob struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   string `gorm:"not null;index" json:"owner_id"`
	BlobKey   string `gorm:"not null;index" json:"blob_key"`
	Operation string `gorm:"not null" json:"operation"`
	Reason    string `json:"reason"`

	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
