package mongodriver

import (
	"context"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/pool"
)

// Wrapper is the pooled dbcx.DocumentConnection handed back to callers.
type Wrapper struct {
	h *pool.Handle[*Conn]
}

func newWrapper(h *pool.Handle[*Conn]) *Wrapper { return &Wrapper{h: h} }

func (w *Wrapper) Close() error        { return w.h.Close() }
func (w *Wrapper) IsClosed() bool      { return w.h.IsClosed() }
func (w *Wrapper) IsPooled() bool      { return w.h.IsPooled() }
func (w *Wrapper) GetURL() string      { return w.h.GetURL() }
func (w *Wrapper) ReturnToPool() error { return w.h.ReturnToPool() }

func (w *Wrapper) GetCollection(ctx context.Context, name string) (dbcx.Collection, error) {
	w.h.Touch()
	return w.h.Physical.getCollection(ctx, name)
}

func (w *Wrapper) CreateCollection(ctx context.Context, name string) error {
	w.h.Touch()
	return w.h.Physical.createCollection(ctx, name)
}

func (w *Wrapper) DropCollection(ctx context.Context, name string) error {
	w.h.Touch()
	return w.h.Physical.dropCollection(ctx, name)
}

func (w *Wrapper) ListCollections(ctx context.Context) ([]string, error) {
	w.h.Touch()
	return w.h.Physical.listCollections(ctx)
}

func (w *Wrapper) CollectionExists(ctx context.Context, name string) (bool, error) {
	w.h.Touch()
	return w.h.Physical.collectionExists(ctx, name)
}

func (w *Wrapper) Ping(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.Ping(ctx)
}

var _ dbcx.DocumentConnection = (*Wrapper)(nil)
