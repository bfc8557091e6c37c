package model

import "time"

// StorageItem — общие поля узла дерева пользователя (папки или файла).
type StorageItem struct {
	UUID    string `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	OwnerID string `gorm:"not null;index" json:"owner_id"`
	Name    string `gorm:"not null" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Folder — папка. ParentUUID == nil означает корневую папку владельца.
// Дочерние элементы не хранятся в структуре: дерево читается запросами по parent_uuid.
type Folder struct {
	StorageItem
	ParentUUID *string `gorm:"type:varchar(36);index" json:"parent_uuid"`
	// Version увеличивается при каждом изменении имени или родителя
	Version int64 `gorm:"not null;default:1" json:"version"`
}

// IsRoot сообщает, является ли папка корневой.
func (f *Folder) IsRoot() bool { return f.ParentUUID == nil }

// File — файл. Содержимое лежит во внешнем хранилище под ключом BlobKey,
// который назначается при загрузке, больше не меняется и уникален среди файлов.
type File struct {
	StorageItem
	FolderUUID  string `gorm:"type:varchar(36);not null;index" json:"folder_uuid"`
	BlobKey     string `gorm:"not null;uniqueIndex" json:"blob_key"`
	Size        int64  `gorm:"not null;default:0" json:"size"`
	ContentType string `json:"content_type"`
	Version     int64  `gorm:"not null;default:1" json:"version"`
}

// NodeKind — тип узла дерева.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
)

// Node — результат поиска узла по uuid: заполнено ровно одно из полей.
type Node struct {
	Kind   NodeKind
	Folder *Folder
	File   *File
}

// Item возвращает общие поля узла.
func (n *Node) Item() *StorageItem {
	if n.Kind == KindFolder {
		return &n.Folder.StorageItem
	}
	return &n.File.StorageItem
}

// FolderNode и FileNode заворачивают запись в Node.
func FolderNode(f *Folder) *Node { return &Node{Kind: KindFolder, Folder: f} }

func FileNode(f *File) *Node { return &Node{Kind: KindFile, File: f} }
