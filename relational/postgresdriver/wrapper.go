package postgresdriver

import (
	"context"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/pool"
)

// Wrapper is the pooled dbcx.RelationalConnection handed back to callers.
type Wrapper struct {
	h *pool.Handle[*Conn]
}

func newWrapper(h *pool.Handle[*Conn]) *Wrapper { return &Wrapper{h: h} }

func (w *Wrapper) Close() error        { return w.h.Close() }
func (w *Wrapper) IsClosed() bool      { return w.h.IsClosed() }
func (w *Wrapper) IsPooled() bool      { return w.h.IsPooled() }
func (w *Wrapper) GetURL() string      { return w.h.GetURL() }
func (w *Wrapper) ReturnToPool() error { return w.h.ReturnToPool() }

func (w *Wrapper) PrepareStatement(ctx context.Context, sql string) (dbcx.PreparedStatement, error) {
	w.h.Touch()
	return w.h.Physical.prepareStatement(sql), nil
}

func (w *Wrapper) ExecuteQuery(ctx context.Context, sql string) (dbcx.ResultSet, error) {
	w.h.Touch()
	return w.h.Physical.executeQuery(ctx, sql)
}

func (w *Wrapper) ExecuteUpdate(ctx context.Context, sql string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.executeUpdate(ctx, sql)
}

func (w *Wrapper) BeginTransaction(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.beginTransaction(ctx)
}

func (w *Wrapper) Commit(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.commit(ctx)
}

func (w *Wrapper) Rollback(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.rollback(ctx)
}

func (w *Wrapper) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	w.h.Touch()
	return w.h.Physical.setAutoCommit(ctx, autoCommit)
}

func (w *Wrapper) GetAutoCommit() bool {
	return w.h.Physical.getAutoCommit()
}

func (w *Wrapper) TransactionActive() bool {
	return w.h.Physical.transactionActive()
}

func (w *Wrapper) SetTransactionIsolation(ctx context.Context, level dbcx.IsolationLevel) error {
	w.h.Touch()
	return w.h.Physical.setTransactionIsolation(ctx, level)
}

func (w *Wrapper) GetTransactionIsolation() dbcx.IsolationLevel {
	return w.h.Physical.getTransactionIsolation()
}

func (w *Wrapper) Ping(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.Ping(ctx)
}

var _ dbcx.RelationalConnection = (*Wrapper)(nil)
