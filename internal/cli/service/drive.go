package service

import (
	"GophDrive/internal/cli/api"
	"GophDrive/internal/cli/model"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// DriveService описывает юзкейсы CLI над деревом папок и файлов на сервере.
type DriveService interface {
	Roots(ctx context.Context) ([]model.Folder, error)
	// Mkdir создаёт корневую папку при пустом parentUUID.
	Mkdir(ctx context.Context, parentUUID, name string) (*model.Folder, error)
	List(ctx context.Context, folderUUID string) ([]model.Folder, []model.File, error)
	FolderDetails(ctx context.Context, folderUUID string) (*model.FolderDetails, error)
	File(ctx context.Context, fileUUID string) (*model.File, error)
	Upload(ctx context.Context, folderUUID, localPath string) (*model.File, error)
	// Download сохраняет файл в dest; пустой dest — имя файла на сервере в текущем каталоге.
	Download(ctx context.Context, fileUUID, dest string) (string, int64, error)
	URL(ctx context.Context, fileUUID string, minutes int) (string, error)
	Move(ctx context.Context, nodeUUID, destFolderUUID string) (*model.Node, error)
	Rename(ctx context.Context, nodeUUID, newName string) (*model.Node, error)
	// Remove удаляет файл или папку со всем содержимым.
	Remove(ctx context.Context, nodeUUID string) (*model.DeleteReport, error)
	Orphans(ctx context.Context) ([]model.Orphan, error)
	ResolveOrphan(ctx context.Context, id int64) error
	Blobs(ctx context.Context, prefix string) (*model.BlobListing, error)
}

// DriveServiceRemote — реализация DriveService поверх HTTP API.
type DriveServiceRemote struct {
	client *api.Client
}

// NewDriveService конструктор сервиса
func NewDriveService(c *api.Client) DriveService {
	return &DriveServiceRemote{client: c}
}

func esc(s string) string { return url.PathEscape(s) }

func (s *DriveServiceRemote) Roots(ctx context.Context) ([]model.Folder, error) {
	var out []model.Folder
	err := s.client.Do(ctx, http.MethodGet, "/api/folders/root", nil, &out)
	return out, err
}

func (s *DriveServiceRemote) Mkdir(ctx context.Context, parentUUID, name string) (*model.Folder, error) {
	path := "/api/folders/root"
	if parentUUID != "" {
		path = "/api/folders/" + esc(parentUUID) + "/subfolders"
	}
	var out model.Folder
	if err := s.client.Do(ctx, http.MethodPost, path, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) List(ctx context.Context, folderUUID string) ([]model.Folder, []model.File, error) {
	var folders []model.Folder
	if err := s.client.Do(ctx, http.MethodGet, "/api/folders/"+esc(folderUUID)+"/subfolders", nil, &folders); err != nil {
		return nil, nil, err
	}
	var files []model.File
	if err := s.client.Do(ctx, http.MethodGet, "/api/folders/"+esc(folderUUID)+"/files", nil, &files); err != nil {
		return nil, nil, err
	}
	return folders, files, nil
}

func (s *DriveServiceRemote) FolderDetails(ctx context.Context, folderUUID string) (*model.FolderDetails, error) {
	var out model.FolderDetails
	if err := s.client.Do(ctx, http.MethodGet, "/api/folders/"+esc(folderUUID)+"/details", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) File(ctx context.Context, fileUUID string) (*model.File, error) {
	var out model.File
	if err := s.client.Do(ctx, http.MethodGet, "/api/files/"+esc(fileUUID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) Upload(ctx context.Context, folderUUID, localPath string) (*model.File, error) {
	var out model.File
	if err := s.client.Upload(ctx, "/api/files/"+esc(folderUUID)+"/upload", localPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) Download(ctx context.Context, fileUUID, dest string) (string, int64, error) {
	resp, err := s.client.Download(ctx, "/api/files/"+esc(fileUUID)+"/download")
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fileUUID
	}
	if dest == "" {
		dest = name
	} else if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, name)
	}

	tmp := dest + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("download: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", 0, err
	}
	return dest, n, nil
}

// attachmentName достаёт безопасное имя файла из Content-Disposition.
func attachmentName(header string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func (s *DriveServiceRemote) URL(ctx context.Context, fileUUID string, minutes int) (string, error) {
	path := "/api/files/" + esc(fileUUID) + "/url"
	if minutes > 0 {
		path += "?expiration=" + strconv.Itoa(minutes)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *DriveServiceRemote) Move(ctx context.Context, nodeUUID, destFolderUUID string) (*model.Node, error) {
	var out model.Node
	if err := s.client.Do(ctx, http.MethodPut, "/api/nodes/"+esc(nodeUUID)+"/move/"+esc(destFolderUUID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) Rename(ctx context.Context, nodeUUID, newName string) (*model.Node, error) {
	var out model.Node
	if err := s.client.Do(ctx, http.MethodPatch, "/api/nodes/"+esc(nodeUUID)+"/rename", map[string]string{"new_name": newName}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove пробует удалить uuid как файл, а при 404 — как папку.
func (s *DriveServiceRemote) Remove(ctx context.Context, nodeUUID string) (*model.DeleteReport, error) {
	var out model.DeleteReport
	err := s.client.Do(ctx, http.MethodDelete, "/api/files/"+esc(nodeUUID), nil, &out)
	if api.IsStatus(err, http.StatusNotFound) {
		out = model.DeleteReport{}
		err = s.client.Do(ctx, http.MethodDelete, "/api/folders/"+esc(nodeUUID), nil, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DriveServiceRemote) Orphans(ctx context.Context) ([]model.Orphan, error) {
	var out []model.Orphan
	err := s.client.Do(ctx, http.MethodGet, "/api/orphans", nil, &out)
	return out, err
}

func (s *DriveServiceRemote) ResolveOrphan(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid orphan id")
	}
	return s.client.Do(ctx, http.MethodPost, "/api/orphans/"+strconv.FormatInt(id, 10)+"/resolve", nil, nil)
}

func (s *DriveServiceRemote) Blobs(ctx context.Context, prefix string) (*model.BlobListing, error) {
	var out model.BlobListing
	if err := s.client.Do(ctx, http.MethodGet, "/api/blobs?prefix="+url.QueryEscape(prefix), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
