// Package blob описывает контракт внешнего хранилища содержимого файлов.
// Ядро только потребляет Gateway; реализации лежат в blob/s3 и blob/memory.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Gateway — put/get/delete/list/presign по ключу. Put и Delete идемпотентны.
type Gateway interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	// PutIfAbsent пишет объект, только если ключа ещё нет; иначе возвращает ErrExists
	// и не трогает сохранённое содержимое.
	PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	// Get возвращает содержимое; Body закрывает вызывающая сторона.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete возвращает false, если ключа не было.
	Delete(ctx context.Context, key string) (bool, error)
	// List перечисляет ключи под prefix с разделителем "/".
	List(ctx context.Context, prefix string) (*Listing, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Object — содержимое blob'а.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Listing — результат List: ключи на уровне prefix и общие префиксы вложенных уровней.
type Listing struct {
	Names          []string `json:"names"`
	CommonPrefixes []string `json:"common_prefixes"`
}

var (
	// ErrNotFound — ключ отсутствует в хранилище.
	ErrNotFound = errors.New("blob: not found")
	// ErrExists — условная запись не выполнена: ключ уже занят.
	ErrExists = errors.New("blob: already exists")
)

// Error — сбой хранилища. Transient отличает временные сбои (таймаут, throttling, 5xx)
// от постоянных.
type Error struct {
	Op        string
	Key       string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("blob %s %q (%s): %v", e.Op, e.Key, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient сообщает, что err — временный сбой хранилища.
func IsTransient(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Transient
}

// Wrap приводит ошибку бэкенда к *Error. ErrNotFound, ErrExists и уже классифицированные
// ошибки возвращаются без изменений; истёкший дедлайн и сетевой таймаут считаются временными.
func Wrap(op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
		return err
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Op: op, Key: key, Transient: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
