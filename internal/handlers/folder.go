package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateRoot создаёт корневую папку
func (h *StorageHandler) CreateRoot(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decode(w, r, "CreateRoot", &req) {
		return
	}
	f, err := h.Storage.CreateRoot(r.Context(), ownerOf(r), req.Name)
	if err != nil {
		h.fail(w, r, "CreateRoot", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *StorageHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.Storage.ListRoots(r.Context(), ownerOf(r))
	if err != nil {
		h.fail(w, r, "ListRoots", err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

func (h *StorageHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.Storage.GetFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "GetFolder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// CreateSubfolder создаёт папку внутри {uuid}
func (h *StorageHandler) CreateSubfolder(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decode(w, r, "CreateSubfolder", &req) {
		return
	}
	f, err := h.Storage.CreateFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), req.Name)
	if err != nil {
		h.fail(w, r, "CreateSubfolder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *StorageHandler) ListSubfolders(w http.ResponseWriter, r *http.Request) {
	l, err := h.Storage.ListFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "ListSubfolders", err)
		return
	}
	writeJSON(w, http.StatusOK, l.Folders)
}

func (h *StorageHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	l, err := h.Storage.ListFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "ListFiles", err)
		return
	}
	writeJSON(w, http.StatusOK, l.Files)
}

func (h *StorageHandler) FolderDetails(w http.ResponseWriter, r *http.Request) {
	d, err := h.Storage.FolderDetails(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "FolderDetails", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *StorageHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, "RenameFolder", &req) {
		return
	}
	f, err := h.Storage.RenameFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), req.NewName)
	if err != nil {
		h.fail(w, r, "RenameFolder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *StorageHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.Storage.MoveFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), chi.URLParam(r, "dest"))
	if err != nil {
		h.fail(w, r, "MoveFolder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder удаляет папку со всем содержимым. Blob'ы, которые не удалось
// удалить, перечислены в orphans ответа; сам запрос при этом успешен.
func (h *StorageHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Storage.DeleteFolder(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, r, "DeleteFolder", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
