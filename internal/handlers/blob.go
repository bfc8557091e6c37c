package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListBlobs перечисляет ключи хранилища под префиксом владельца
func (h *StorageHandler) ListBlobs(w http.ResponseWriter, r *http.Request) {
	l, err := h.Storage.ListBlobs(r.Context(), ownerOf(r), r.URL.Query().Get("prefix"))
	if err != nil {
		h.fail(w, r, "ListBlobs", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *StorageHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	list, err := h.Storage.Orphans(r.Context(), ownerOf(r))
	if err != nil {
		h.fail(w, r, "Orphans", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ResolveOrphan помечает запись журнала как обработанную
func (h *StorageHandler) ResolveOrphan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Storage.ResolveOrphan(r.Context(), ownerOf(r), id); err != nil {
		h.fail(w, r, "ResolveOrphan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
