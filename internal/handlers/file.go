package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const multipartMemory = 10 << 20

// Upload загружает файл из multipart-поля "file" в папку {folderUuid}
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Лимит общего тела запроса: сам файл + 1 МБ на заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.UploadMaxBytes()+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.Logger.Warnw("Upload: invalid multipart form", "error", err)
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Warnw("Upload: missing file", "error", err)
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > h.Config.UploadMaxBytes() {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f, err := h.Storage.Upload(r.Context(), ownerOf(r), chi.URLParam(r, "folderUuid"), file, header.Filename, contentType, header.Size)
	if err != nil {
		h.fail(w, r, "Upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *StorageHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.Storage.GetFile(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "GetFile", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Download стримит содержимое файла из хранилища
func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	obj, f, err := h.Storage.Download(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "Download", err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		// заголовки уже отправлены, остаётся только залогировать
		h.Logger.Warnw("Download: stream interrupted", "file", f.UUID, "error", err)
	}
}

// DownloadURL выдаёт presigned-ссылку. expiration — срок в минутах.
func (h *StorageHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	var ttl time.Duration
	if raw := r.URL.Query().Get("expiration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			http.Error(w, "invalid expiration", http.StatusBadRequest)
			return
		}
		ttl = time.Duration(minutes) * time.Minute
	}
	url, err := h.Storage.DownloadURL(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), ttl)
	if err != nil {
		h.fail(w, r, "DownloadURL", err)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

func (h *StorageHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, "RenameFile", &req) {
		return
	}
	f, err := h.Storage.RenameFile(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), req.NewName)
	if err != nil {
		h.fail(w, r, "RenameFile", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *StorageHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.Storage.MoveFile(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), chi.URLParam(r, "dest"))
	if err != nil {
		h.fail(w, r, "MoveFile", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *StorageHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Storage.DeleteFile(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "DeleteFile", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
