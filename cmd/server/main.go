package main

import (
	"GophDrive/internal/blob"
	"GophDrive/internal/blob/memory"
	"GophDrive/internal/blob/s3"
	"GophDrive/internal/config"
	"GophDrive/internal/handlers"
	"GophDrive/internal/metrics"
	"GophDrive/internal/middleware"
	"GophDrive/internal/repo"
	"GophDrive/internal/service"
	"GophDrive/internal/tree"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	gateway, err := newBlobGateway(ctx, cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "backend", cfg.BlobBackend, "error", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	folders := repo.NewFolderRepository(gormDB)
	files := repo.NewFileRepository(gormDB)
	store := tree.NewStore(folders, files, repo.NewTxManager(gormDB), tree.NewMoveValidator(folders))
	storage := service.NewStorageService(
		store,
		tree.NewPathResolver(folders),
		blob.Instrument(gateway, m.BlobMetrics()),
		repo.NewOrphanRepository(gormDB),
		sugar,
		service.WithBlobTimeout(cfg.BlobTimeout),
		service.WithPresignTTL(cfg.PresignTTL()),
		service.WithMetrics(m),
	)

	h := handlers.NewHandler(storage, m, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"BlobBackend", cfg.BlobBackend,
		"UploadMaxMB", cfg.UploadMaxMB,
		"MetricsEnabled", cfg.MetricsEnabled,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	sugar.Infow("Starting server", "addr", srv.Addr)
	if cfg.EnableHTTPS && cfg.TLSCertFile != "" {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newBlobGateway выбирает хранилище содержимого по конфигурации.
// Для S3 проверяет доступность бакета до старта сервера.
func newBlobGateway(ctx context.Context, cfg *config.Config) (blob.Gateway, error) {
	if cfg.BlobBackend != config.BlobBackendS3 {
		return memory.New(), nil
	}
	store, err := s3.NewFromConfig(ctx, s3.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		KeyPrefix:       cfg.S3KeyPrefix,
		MaxRetries:      cfg.S3MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	hctx, cancel := context.WithTimeout(ctx, cfg.BlobTimeout)
	defer cancel()
	if err := store.HealthCheck(hctx); err != nil {
		return nil, err
	}
	return store, nil
}
