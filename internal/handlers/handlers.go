package handlers

import (
	"GophDrive/internal/config"
	"GophDrive/internal/metrics"
	"GophDrive/internal/middleware"
	"GophDrive/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров. m == nil — без /metrics.
func NewHandler(
	storage *service.StorageService,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	h := NewStorageHandler(storage, logger, config)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireOwner)

		// Folder routes
		r.Post("/folders/root", h.CreateRoot)
		r.Get("/folders/root", h.ListRoots)
		r.Get("/folders/{uuid}", h.GetFolder)
		r.Post("/folders/{uuid}/subfolders", h.CreateSubfolder)
		r.Get("/folders/{uuid}/subfolders", h.ListSubfolders)
		r.Get("/folders/{uuid}/files", h.ListFiles)
		r.Get("/folders/{uuid}/details", h.FolderDetails)
		r.Patch("/folders/{uuid}/rename", h.RenameFolder)
		r.Put("/folders/{uuid}/move/{dest}", h.MoveFolder)
		r.Delete("/folders/{uuid}", h.DeleteFolder)

		// File routes
		r.Post("/files/{folderUuid}/upload", h.Upload)
		r.Get("/files/{uuid}", h.GetFile)
		r.Get("/files/{uuid}/download", h.Download)
		r.Get("/files/{uuid}/url", h.DownloadURL)
		r.Patch("/files/{uuid}/rename", h.RenameFile)
		r.Put("/files/{uuid}/move/{dest}", h.MoveFile)
		r.Delete("/files/{uuid}", h.DeleteFile)

		// Kind-agnostic node routes
		r.Put("/nodes/{uuid}/move/{dest}", h.MoveNode)
		r.Patch("/nodes/{uuid}/rename", h.RenameNode)

		// Blob store
		r.Get("/blobs", h.ListBlobs)
		r.Get("/orphans", h.Orphans)
		r.Post("/orphans/{id}/resolve", h.ResolveOrphan)
	})

	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	return &Handler{Router: r}
}
