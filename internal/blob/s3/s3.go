// Package s3 — реализация blob.Gateway поверх Amazon S3 и совместимых хранилищ (MinIO, LocalStack).
package s3

import (
	"GophDrive/internal/blob"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Config — параметры подключения к бакету.
type Config struct {
	Bucket string
	Region string
	// Endpoint задаётся для S3-совместимых сервисов; включает path-style адресацию.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// KeyPrefix добавляется ко всем ключам, например "gophdrive/".
	KeyPrefix string
	// MaxRetries — число попыток SDK для временных ошибок.
	MaxRetries int
}

const defaultMaxRetries = 3

// Store — blob.Gateway над S3. Объекты пишутся с приватным ACL.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
}

// New создаёт Store с готовым клиентом.
func New(client *s3.Client, cfg Config) *Store {
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}
}

// NewFromConfig собирает клиент S3 из Config: регион, статические ключи (если заданы),
// стандартный retryer с экспоненциальной задержкой и пользовательский endpoint.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	opts = append(opts, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg), nil
}

func (s *Store) fullKey(key string) string {
	return s.keyPrefix + key
}

// Put загружает объект. Для повторной отправки при ретраях content должен поддерживать Seek.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	return s.put(ctx, key, content, size, contentType, false)
}

// PutIfAbsent пишет с заголовком If-None-Match: *, так что занятый ключ
// S3 отклоняет ответом 412 без перезаписи объекта.
func (s *Store) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	return s.put(ctx, key, content, size, contentType, true)
}

func (s *Store) put(ctx context.Context, key string, content io.Reader, size int64, contentType string, ifAbsent bool) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   content,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if ifAbsent {
		in.IfNoneMatch = aws.String("*")
	}
	_, err := s.client.PutObject(ctx, in)
	return classify("put", key, err)
}

func (s *Store) Get(ctx context.Context, key string) (*blob.Object, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return nil, classify("get", key, err)
	}
	return &blob.Object{
		Body:        resp.Body,
		Size:        aws.ToInt64(resp.ContentLength),
		ContentType: aws.ToString(resp.ContentType),
	}, nil
}

// Delete проверяет наличие объекта через HeadObject и удаляет его.
// DeleteObject в S3 успешен и для отсутствующего ключа, поэтому без HEAD нельзя вернуть false.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := s.exists(ctx, "delete", key)
	if err != nil || !ok {
		return false, err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return false, classify("delete", key, err)
	}
	return true, nil
}

// List перечисляет ключи уровня prefix (Delimiter "/"), KeyPrefix из ответа срезается.
func (s *Store) List(ctx context.Context, prefix string) (*blob.Listing, error) {
	out := &blob.Listing{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.fullKey(prefix)),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("list", prefix, err)
		}
		for _, obj := range page.Contents {
			out.Names = append(out.Names, strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix))
		}
		for _, cp := range page.CommonPrefixes {
			out.CommonPrefixes = append(out.CommonPrefixes, strings.TrimPrefix(aws.ToString(cp.Prefix), s.keyPrefix))
		}
	}
	return out, nil
}

// Presign выдаёт временную ссылку на скачивание существующего объекта.
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ok, err := s.exists(ctx, "presign", key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("presign %q: %w", key, blob.ErrNotFound)
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classify("presign", key, err)
	}
	return req.URL, nil
}

// HealthCheck проверяет доступность бакета.
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("s3 health check: %w", classify("head_bucket", s.bucket, err))
	}
	return nil
}

func (s *Store) exists(ctx context.Context, op, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, classify(op, key, err)
}

// classify переводит ошибку SDK в blob.ErrNotFound или *blob.Error с признаком Transient.
func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%s %q: %w", op, key, blob.ErrNotFound)
	}
	if isExists(err) {
		return fmt.Errorf("%s %q: %w", op, key, blob.ErrExists)
	}
	werr := blob.Wrap(op, key, err)
	var be *blob.Error
	if errors.As(werr, &be) && !be.Transient {
		be.Transient = isTransient(err)
	}
	return werr
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// isExists распознаёт отказ условной записи. ConditionalRequestConflict (409) S3 отдаёт,
// когда параллельная условная запись того же ключа ещё не завершилась.
func isExists(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == 412
}

func isTransient(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"InternalError", "ServiceUnavailable", "RequestTimeout":
			return true
		}
	}
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		code := status.HTTPStatusCode()
		return code >= 500 || code == 429
	}
	var retryErr *retry.MaxAttemptsError
	return errors.As(err, &retryErr)
}

var _ blob.Gateway = (*Store)(nil)
