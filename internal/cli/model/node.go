package model

import "time"

// Folder — папка в ответах сервера.
type Folder struct {
	UUID       string    `json:"uuid"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	ParentUUID *string   `json:"parent_uuid"`
	Version    int64     `json:"version"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// File — файл в ответах сервера. BlobKey не меняется после загрузки.
type File struct {
	UUID        string    `json:"uuid"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	FolderUUID  string    `json:"folder_uuid"`
	BlobKey     string    `json:"blob_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Version     int64     `json:"version"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Node — папка или файл, заполнено одно из полей.
type Node struct {
	Kind   string  `json:"kind"`
	Folder *Folder `json:"folder,omitempty"`
	File   *File   `json:"file,omitempty"`
}

// Path возвращает путь узла.
func (n Node) Path() string {
	if n.Folder != nil {
		return n.Folder.Path
	}
	if n.File != nil {
		return n.File.Path
	}
	return ""
}

type FolderDetails struct {
	Folder
	SubFolderCount int    `json:"sub_folder_count"`
	FileCount      int    `json:"file_count"`
	TotalSize      int64  `json:"total_size"`
	FormattedSize  string `json:"formatted_size"`
}

// DeleteReport — итог удаления; Orphans — ключи blob'ов, которые не удалось удалить.
type DeleteReport struct {
	Folders int64    `json:"folders"`
	Files   int64    `json:"files"`
	Orphans []string `json:"orphans"`
}

type Orphan struct {
	ID        int64     `json:"id"`
	BlobKey   string    `json:"blob_key"`
	Operation string    `json:"operation"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type BlobListing struct {
	Names          []string `json:"names"`
	CommonPrefixes []string `json:"common_prefixes"`
}
