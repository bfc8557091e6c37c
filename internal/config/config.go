package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Бэкенды хранилища blob'ов.
const (
	BlobBackendS3     = "s3"
	BlobBackendMemory = "memory"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	UploadMaxMB int    `env:"UPLOAD_MAX_MB"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
	LogFormat   string `env:"LOG_FORMAT"` // console | json

	// Blob store
	BlobBackend       string        `env:"BLOB_BACKEND"` // s3 | memory
	S3Bucket          string        `env:"S3_BUCKET"`
	S3Region          string        `env:"S3_REGION"`
	S3Endpoint        string        `env:"S3_ENDPOINT"`
	S3AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	S3KeyPrefix       string        `env:"S3_KEY_PREFIX"`
	S3MaxRetries      int           `env:"S3_MAX_RETRIES"`
	BlobTimeout       time.Duration `env:"BLOB_TIMEOUT"`
	PresignTTLMinutes int           `env:"PRESIGN_TTL_MINUTES"`

	MetricsEnabled bool `env:"METRICS_ENABLED"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для проверки JWT")
	flag.IntVar(&cfg.UploadMaxMB, "upload-max-mb", cfg.UploadMaxMB, "максимальный размер загружаемого файла, МБ")
	flag.StringVar(&cfg.BlobBackend, "blob-backend", cfg.BlobBackend, "хранилище содержимого: s3 или memory")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "имя S3 бакета")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "endpoint S3-совместимого хранилища (MinIO, LocalStack)")
	flag.DurationVar(&cfg.BlobTimeout, "blob-timeout", cfg.BlobTimeout, "таймаут одного вызова хранилища")
	flag.BoolVar(&cfg.MetricsEnabled, "metrics", cfg.MetricsEnabled, "отдавать метрики Prometheus на /metrics")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the GophDrive server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 100
	}
	if cfg.BlobBackend == "" {
		cfg.BlobBackend = BlobBackendMemory
		if cfg.S3Bucket != "" {
			cfg.BlobBackend = BlobBackendS3
		}
	}
	if cfg.S3MaxRetries <= 0 {
		cfg.S3MaxRetries = 3
	}
	if cfg.BlobTimeout <= 0 {
		cfg.BlobTimeout = 30 * time.Second
	}
	if cfg.PresignTTLMinutes <= 0 {
		cfg.PresignTTLMinutes = 60
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".gd_token")
	}
}

// PresignTTL — срок действия presigned-ссылки по умолчанию.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLMinutes) * time.Minute
}

// UploadMaxBytes — предел размера загружаемого файла.
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

// Validate проверяет настройки, без которых сервер не стартует.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case BlobBackendMemory:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			return errors.New("config: S3_BUCKET is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("config: unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	if c.EnableHTTPS && (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("config: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.PresignTTL() > 7*24*time.Hour {
		return errors.New("config: PRESIGN_TTL_MINUTES must not exceed 7 days")
	}
	return nil
}
