package blob

import (
	"context"
	"io"
	"time"
)

// Metrics принимает наблюдения об операциях с хранилищем.
type Metrics interface {
	ObserveOperation(op string, d time.Duration, err error)
	RecordBytes(op string, n int64)
}

// Instrument оборачивает gw и отправляет длительность, исход и объём каждой операции в m.
// При m == nil возвращает gw как есть.
func Instrument(gw Gateway, m Metrics) Gateway {
	if m == nil {
		return gw
	}
	return &instrumented{next: gw, m: m}
}

type instrumented struct {
	next Gateway
	m    Metrics
}

func (g *instrumented) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) (err error) {
	defer g.observe("put", time.Now(), &err)
	if err = g.next.Put(ctx, key, content, size, contentType); err == nil && size > 0 {
		g.m.RecordBytes("put", size)
	}
	return err
}

func (g *instrumented) PutIfAbsent(ctx context.Context, key string, content io.Reader, size int64, contentType string) (err error) {
	defer g.observe("put", time.Now(), &err)
	if err = g.next.PutIfAbsent(ctx, key, content, size, contentType); err == nil && size > 0 {
		g.m.RecordBytes("put", size)
	}
	return err
}

func (g *instrumented) Get(ctx context.Context, key string) (obj *Object, err error) {
	defer g.observe("get", time.Now(), &err)
	obj, err = g.next.Get(ctx, key)
	if err == nil && obj.Size > 0 {
		g.m.RecordBytes("get", obj.Size)
	}
	return obj, err
}

func (g *instrumented) Delete(ctx context.Context, key string) (ok bool, err error) {
	defer g.observe("delete", time.Now(), &err)
	return g.next.Delete(ctx, key)
}

func (g *instrumented) List(ctx context.Context, prefix string) (l *Listing, err error) {
	defer g.observe("list", time.Now(), &err)
	return g.next.List(ctx, prefix)
}

func (g *instrumented) Presign(ctx context.Context, key string, ttl time.Duration) (url string, err error) {
	defer g.observe("presign", time.Now(), &err)
	return g.next.Presign(ctx, key, ttl)
}

func (g *instrumented) observe(op string, start time.Time, err *error) {
	g.m.ObserveOperation(op, time.Since(start), *err)
}
