// Package memory — хранилище blob'ов в памяти процесса для разработки и тестов.
package memory

import (
	"GophDrive/internal/blob"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data        []byte
	contentType string
}

// Store — потокобезопасная реализация blob.Gateway поверх map.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
	now     func() time.Time
}

func New() *Store {
	return &Store{objects: make(map[string]entry), now: time.Now}
}

// Put сохраняет копию содержимого. size < 0 означает, что размер заранее неизвестен.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	e, err := read(ctx, key, content, size, contentType)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = e
	s.mu.Unlock()
	return nil
}

// PutIfAbsent проверяет ключ и пишет под одной блокировкой.
func (s *Store) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	e, err := read(ctx, key, content, size, contentType)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("put %q: %w", key, blob.ErrExists)
	}
	s.objects[key] = e
	return nil
}

func read(ctx context.Context, key string, content io.Reader, size int64, contentType string) (entry, error) {
	if err := ctx.Err(); err != nil {
		return entry{}, blob.Wrap("put", key, err)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return entry{}, blob.Wrap("put", key, fmt.Errorf("read content: %w", err))
	}
	if size >= 0 && int64(len(data)) != size {
		return entry{}, &blob.Error{Op: "put", Key: key, Err: fmt.Errorf("size mismatch: declared %d, got %d", size, len(data))}
	}
	return entry{data: data, contentType: contentType}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, blob.Wrap("get", key, err)
	}
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, blob.ErrNotFound)
	}
	return &blob.Object{
		Body:        io.NopCloser(bytes.NewReader(e.data)),
		Size:        int64(len(e.data)),
		ContentType: e.contentType,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, blob.Wrap("delete", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

// List группирует ключи по первому "/" после prefix, как ListObjectsV2 с Delimiter.
func (s *Store) List(ctx context.Context, prefix string) (*blob.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, blob.Wrap("list", prefix, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &blob.Listing{}
	seen := make(map[string]struct{})
	for key := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			cp := prefix + rest[:i+1]
			if _, ok := seen[cp]; !ok {
				seen[cp] = struct{}{}
				out.CommonPrefixes = append(out.CommonPrefixes, cp)
			}
			continue
		}
		out.Names = append(out.Names, key)
	}
	sort.Strings(out.Names)
	sort.Strings(out.CommonPrefixes)
	return out, nil
}

// Presign возвращает псевдо-URL memory://key?expires=unix.
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", blob.Wrap("presign", key, err)
	}
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("presign %q: %w", key, blob.ErrNotFound)
	}
	u := url.URL{
		Scheme:   "memory",
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(s.now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Len возвращает число сохранённых объектов.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ blob.Gateway = (*Store)(nil)
