package redisdriver

import (
	"context"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/pool"
)

// Wrapper is the pooled dbcx.KVConnection handed back to callers. It holds
// a pool.Handle[*Conn] and forwards every KV operation to the underlying
// Conn after touching the handle, matching the "every forwarded operation
// refreshes last_used_at" rule spec.md §4.2 states for pooled wrappers.
type Wrapper struct {
	h *pool.Handle[*Conn]
}

func newWrapper(h *pool.Handle[*Conn]) *Wrapper { return &Wrapper{h: h} }

func (w *Wrapper) Close() error        { return w.h.Close() }
func (w *Wrapper) IsClosed() bool      { return w.h.IsClosed() }
func (w *Wrapper) IsPooled() bool      { return w.h.IsPooled() }
func (w *Wrapper) GetURL() string      { return w.h.GetURL() }
func (w *Wrapper) ReturnToPool() error { return w.h.ReturnToPool() }

func (w *Wrapper) SetString(ctx context.Context, key, value string, expirySeconds int64) error {
	w.h.Touch()
	return w.h.Physical.SetString(ctx, key, value, expirySeconds)
}

func (w *Wrapper) GetString(ctx context.Context, key string) (string, error) {
	w.h.Touch()
	return w.h.Physical.GetString(ctx, key)
}

func (w *Wrapper) Exists(ctx context.Context, key string) (bool, error) {
	w.h.Touch()
	return w.h.Physical.Exists(ctx, key)
}

func (w *Wrapper) DeleteKey(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.DeleteKey(ctx, key)
}

func (w *Wrapper) DeleteKeys(ctx context.Context, keys []string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.DeleteKeys(ctx, keys)
}

func (w *Wrapper) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	w.h.Touch()
	return w.h.Physical.Expire(ctx, key, seconds)
}

func (w *Wrapper) GetTTL(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.GetTTL(ctx, key)
}

func (w *Wrapper) Increment(ctx context.Context, key string, by int64) (int64, error) {
	w.h.Touch()
	return w.h.Physical.Increment(ctx, key, by)
}

func (w *Wrapper) Decrement(ctx context.Context, key string, by int64) (int64, error) {
	w.h.Touch()
	return w.h.Physical.Decrement(ctx, key, by)
}

func (w *Wrapper) PushLeft(ctx context.Context, key string, values ...string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.PushLeft(ctx, key, values...)
}

func (w *Wrapper) PushRight(ctx context.Context, key string, values ...string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.PushRight(ctx, key, values...)
}

func (w *Wrapper) PopLeft(ctx context.Context, key string) (string, error) {
	w.h.Touch()
	return w.h.Physical.PopLeft(ctx, key)
}

func (w *Wrapper) PopRight(ctx context.Context, key string) (string, error) {
	w.h.Touch()
	return w.h.Physical.PopRight(ctx, key)
}

func (w *Wrapper) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	w.h.Touch()
	return w.h.Physical.Range(ctx, key, start, stop)
}

func (w *Wrapper) Length(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.Length(ctx, key)
}

func (w *Wrapper) HashSet(ctx context.Context, key, field, value string) error {
	w.h.Touch()
	return w.h.Physical.HashSet(ctx, key, field, value)
}

func (w *Wrapper) HashGet(ctx context.Context, key, field string) (string, error) {
	w.h.Touch()
	return w.h.Physical.HashGet(ctx, key, field)
}

func (w *Wrapper) HashDelete(ctx context.Context, key string, fields ...string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.HashDelete(ctx, key, fields...)
}

func (w *Wrapper) HashExists(ctx context.Context, key, field string) (bool, error) {
	w.h.Touch()
	return w.h.Physical.HashExists(ctx, key, field)
}

func (w *Wrapper) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	w.h.Touch()
	return w.h.Physical.HashGetAll(ctx, key)
}

func (w *Wrapper) HashLength(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.HashLength(ctx, key)
}

func (w *Wrapper) SetAdd(ctx context.Context, key string, members ...string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SetAdd(ctx, key, members...)
}

func (w *Wrapper) SetRemove(ctx context.Context, key string, members ...string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SetRemove(ctx, key, members...)
}

func (w *Wrapper) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	w.h.Touch()
	return w.h.Physical.SetIsMember(ctx, key, member)
}

func (w *Wrapper) SetMembers(ctx context.Context, key string) ([]string, error) {
	w.h.Touch()
	return w.h.Physical.SetMembers(ctx, key)
}

func (w *Wrapper) SetSize(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SetSize(ctx, key)
}

func (w *Wrapper) SortedSetAdd(ctx context.Context, key string, score float64, member string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SortedSetAdd(ctx, key, score, member)
}

func (w *Wrapper) SortedSetRemove(ctx context.Context, key string, member string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SortedSetRemove(ctx, key, member)
}

func (w *Wrapper) SortedSetScore(ctx context.Context, key, member string) (float64, error) {
	w.h.Touch()
	return w.h.Physical.SortedSetScore(ctx, key, member)
}

func (w *Wrapper) SortedSetRangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	w.h.Touch()
	return w.h.Physical.SortedSetRangeByRank(ctx, key, start, stop)
}

func (w *Wrapper) SortedSetSize(ctx context.Context, key string) (int64, error) {
	w.h.Touch()
	return w.h.Physical.SortedSetSize(ctx, key)
}

func (w *Wrapper) ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error) {
	w.h.Touch()
	return w.h.Physical.ScanKeys(ctx, pattern, count)
}

func (w *Wrapper) ExecuteCommand(ctx context.Context, cmd string, args ...string) (string, error) {
	w.h.Touch()
	return w.h.Physical.ExecuteCommand(ctx, cmd, args...)
}

func (w *Wrapper) FlushDB(ctx context.Context, async bool) error {
	w.h.Touch()
	return w.h.Physical.FlushDB(ctx, async)
}

func (w *Wrapper) Ping(ctx context.Context) error {
	w.h.Touch()
	return w.h.Physical.Ping(ctx)
}

func (w *Wrapper) GetServerInfo(ctx context.Context) (map[string]string, error) {
	w.h.Touch()
	return w.h.Physical.GetServerInfo(ctx)
}

var _ dbcx.KVConnection = (*Wrapper)(nil)
