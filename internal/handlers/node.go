package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MoveNode переносит папку или файл, не требуя знать вид узла.
func (h *StorageHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	n, err := h.Storage.Move(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), chi.URLParam(r, "dest"))
	if err != nil {
		h.fail(w, r, "MoveNode", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *StorageHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, "RenameNode", &req) {
		return
	}
	n, err := h.Storage.Rename(r.Context(), ownerOf(r), chi.URLParam(r, "uuid"), req.NewName)
	if err != nil {
		h.fail(w, r, "RenameNode", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
