package handlers

import (
	"GophDrive/internal/config"
	"GophDrive/internal/middleware"
	"GophDrive/internal/service"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// StorageHandler отдаёт операции над деревом папок и файлов по HTTP.
type StorageHandler struct {
	Storage *service.StorageService
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

// NewStorageHandler создаёт хендлер хранилища
func NewStorageHandler(storage *service.StorageService, logger *zap.SugaredLogger, cfg *config.Config) *StorageHandler {
	return &StorageHandler{Storage: storage, Logger: logger, Config: cfg}
}

// NameRequest — тело создания папки.
type NameRequest struct {
	Name string `json:"name"`
}

// RenameRequest — тело переименования.
type RenameRequest struct {
	NewName string `json:"new_name"`
}

// URLResponse — presigned-ссылка на содержимое файла.
type URLResponse struct {
	URL string `json:"url"`
}

// requireOwner пропускает дальше только запросы с проверенным владельцем.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.OwnerFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ownerOf(r *http.Request) string {
	owner, _ := middleware.OwnerFromContext(r.Context())
	return owner
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *StorageHandler) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Warnw(op+": invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
