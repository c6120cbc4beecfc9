package dbcx

import "context"

// KVResult adapts any KVConnection into its non-throwing twin surface:
// every method shares the throwing method's implementation body and
// differs only in how the outcome is carried back to the caller
// (spec.md §6 "Every throwing operation has a parallel non-throwing
// twin", §9 "implement one and delegate the other").
type KVResult struct {
	conn KVConnection
}

// NewKVResult wraps any KVConnection — pooled or direct — with the
// Result-returning twin surface.
func NewKVResult(conn KVConnection) *KVResult { return &KVResult{conn: conn} }

func (r *KVResult) SetString(ctx context.Context, key, value string, expirySeconds int64) Result[Void] {
	return TryVoid(func() error { return r.conn.SetString(ctx, key, value, expirySeconds) })
}

func (r *KVResult) GetString(ctx context.Context, key string) Result[string] {
	return Try(func() (string, error) { return r.conn.GetString(ctx, key) })
}

func (r *KVResult) Exists(ctx context.Context, key string) Result[bool] {
	return Try(func() (bool, error) { return r.conn.Exists(ctx, key) })
}

func (r *KVResult) DeleteKey(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.DeleteKey(ctx, key) })
}

func (r *KVResult) DeleteKeys(ctx context.Context, keys []string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.DeleteKeys(ctx, keys) })
}

func (r *KVResult) Expire(ctx context.Context, key string, seconds int64) Result[bool] {
	return Try(func() (bool, error) { return r.conn.Expire(ctx, key, seconds) })
}

func (r *KVResult) GetTTL(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.GetTTL(ctx, key) })
}

func (r *KVResult) Increment(ctx context.Context, key string, by int64) Result[int64] {
	return Try(func() (int64, error) { return r.conn.Increment(ctx, key, by) })
}

func (r *KVResult) Decrement(ctx context.Context, key string, by int64) Result[int64] {
	return Try(func() (int64, error) { return r.conn.Decrement(ctx, key, by) })
}

func (r *KVResult) PushLeft(ctx context.Context, key string, values ...string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.PushLeft(ctx, key, values...) })
}

func (r *KVResult) PushRight(ctx context.Context, key string, values ...string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.PushRight(ctx, key, values...) })
}

func (r *KVResult) PopLeft(ctx context.Context, key string) Result[string] {
	return Try(func() (string, error) { return r.conn.PopLeft(ctx, key) })
}

func (r *KVResult) PopRight(ctx context.Context, key string) Result[string] {
	return Try(func() (string, error) { return r.conn.PopRight(ctx, key) })
}

func (r *KVResult) Range(ctx context.Context, key string, start, stop int64) Result[[]string] {
	return Try(func() ([]string, error) { return r.conn.Range(ctx, key, start, stop) })
}

func (r *KVResult) Length(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.Length(ctx, key) })
}

func (r *KVResult) HashSet(ctx context.Context, key, field, value string) Result[Void] {
	return TryVoid(func() error { return r.conn.HashSet(ctx, key, field, value) })
}

func (r *KVResult) HashGet(ctx context.Context, key, field string) Result[string] {
	return Try(func() (string, error) { return r.conn.HashGet(ctx, key, field) })
}

func (r *KVResult) HashDelete(ctx context.Context, key string, fields ...string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.HashDelete(ctx, key, fields...) })
}

func (r *KVResult) HashExists(ctx context.Context, key, field string) Result[bool] {
	return Try(func() (bool, error) { return r.conn.HashExists(ctx, key, field) })
}

func (r *KVResult) HashGetAll(ctx context.Context, key string) Result[map[string]string] {
	return Try(func() (map[string]string, error) { return r.conn.HashGetAll(ctx, key) })
}

func (r *KVResult) HashLength(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.HashLength(ctx, key) })
}

func (r *KVResult) SetAdd(ctx context.Context, key string, members ...string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SetAdd(ctx, key, members...) })
}

func (r *KVResult) SetRemove(ctx context.Context, key string, members ...string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SetRemove(ctx, key, members...) })
}

func (r *KVResult) SetIsMember(ctx context.Context, key, member string) Result[bool] {
	return Try(func() (bool, error) { return r.conn.SetIsMember(ctx, key, member) })
}

func (r *KVResult) SetMembers(ctx context.Context, key string) Result[[]string] {
	return Try(func() ([]string, error) { return r.conn.SetMembers(ctx, key) })
}

func (r *KVResult) SetSize(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SetSize(ctx, key) })
}

func (r *KVResult) SortedSetAdd(ctx context.Context, key string, score float64, member string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SortedSetAdd(ctx, key, score, member) })
}

func (r *KVResult) SortedSetRemove(ctx context.Context, key, member string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SortedSetRemove(ctx, key, member) })
}

func (r *KVResult) SortedSetScore(ctx context.Context, key, member string) Result[float64] {
	return Try(func() (float64, error) { return r.conn.SortedSetScore(ctx, key, member) })
}

func (r *KVResult) SortedSetRangeByRank(ctx context.Context, key string, start, stop int64) Result[[]string] {
	return Try(func() ([]string, error) { return r.conn.SortedSetRangeByRank(ctx, key, start, stop) })
}

func (r *KVResult) SortedSetSize(ctx context.Context, key string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.SortedSetSize(ctx, key) })
}

func (r *KVResult) ScanKeys(ctx context.Context, pattern string, count int64) Result[[]string] {
	return Try(func() ([]string, error) { return r.conn.ScanKeys(ctx, pattern, count) })
}

func (r *KVResult) ExecuteCommand(ctx context.Context, cmd string, args ...string) Result[string] {
	return Try(func() (string, error) { return r.conn.ExecuteCommand(ctx, cmd, args...) })
}

func (r *KVResult) FlushDB(ctx context.Context, async bool) Result[Void] {
	return TryVoid(func() error { return r.conn.FlushDB(ctx, async) })
}

func (r *KVResult) Ping(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.Ping(ctx) })
}

func (r *KVResult) GetServerInfo(ctx context.Context) Result[map[string]string] {
	return Try(func() (map[string]string, error) { return r.conn.GetServerInfo(ctx) })
}

// RelationalResult adapts any RelationalConnection into its non-throwing
// twin surface, same rationale as KVResult.
type RelationalResult struct {
	conn RelationalConnection
}

// NewRelationalResult wraps any RelationalConnection — pooled or
// direct — with the Result-returning twin surface.
func NewRelationalResult(conn RelationalConnection) *RelationalResult {
	return &RelationalResult{conn: conn}
}

func (r *RelationalResult) PrepareStatement(ctx context.Context, sql string) Result[PreparedStatement] {
	return Try(func() (PreparedStatement, error) { return r.conn.PrepareStatement(ctx, sql) })
}

func (r *RelationalResult) ExecuteQuery(ctx context.Context, sql string) Result[ResultSet] {
	return Try(func() (ResultSet, error) { return r.conn.ExecuteQuery(ctx, sql) })
}

func (r *RelationalResult) ExecuteUpdate(ctx context.Context, sql string) Result[int64] {
	return Try(func() (int64, error) { return r.conn.ExecuteUpdate(ctx, sql) })
}

func (r *RelationalResult) BeginTransaction(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.BeginTransaction(ctx) })
}

func (r *RelationalResult) Commit(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.Commit(ctx) })
}

func (r *RelationalResult) Rollback(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.Rollback(ctx) })
}

func (r *RelationalResult) SetAutoCommit(ctx context.Context, autoCommit bool) Result[Void] {
	return TryVoid(func() error { return r.conn.SetAutoCommit(ctx, autoCommit) })
}

func (r *RelationalResult) SetTransactionIsolation(ctx context.Context, level IsolationLevel) Result[Void] {
	return TryVoid(func() error { return r.conn.SetTransactionIsolation(ctx, level) })
}

func (r *RelationalResult) Ping(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.Ping(ctx) })
}

// DocumentResult adapts any DocumentConnection into its non-throwing twin
// surface, same rationale as KVResult.
type DocumentResult struct {
	conn DocumentConnection
}

// NewDocumentResult wraps any DocumentConnection — pooled or direct —
// with the Result-returning twin surface.
func NewDocumentResult(conn DocumentConnection) *DocumentResult {
	return &DocumentResult{conn: conn}
}

func (r *DocumentResult) GetCollection(ctx context.Context, name string) Result[Collection] {
	return Try(func() (Collection, error) { return r.conn.GetCollection(ctx, name) })
}

func (r *DocumentResult) CreateCollection(ctx context.Context, name string) Result[Void] {
	return TryVoid(func() error { return r.conn.CreateCollection(ctx, name) })
}

func (r *DocumentResult) DropCollection(ctx context.Context, name string) Result[Void] {
	return TryVoid(func() error { return r.conn.DropCollection(ctx, name) })
}

func (r *DocumentResult) ListCollections(ctx context.Context) Result[[]string] {
	return Try(func() ([]string, error) { return r.conn.ListCollections(ctx) })
}

func (r *DocumentResult) CollectionExists(ctx context.Context, name string) Result[bool] {
	return Try(func() (bool, error) { return r.conn.CollectionExists(ctx, name) })
}

func (r *DocumentResult) Ping(ctx context.Context) Result[Void] {
	return TryVoid(func() error { return r.conn.Ping(ctx) })
}

// CollectionResult adapts any Collection into its non-throwing twin
// surface, same rationale as KVResult.
type CollectionResult struct {
	coll Collection
}

// NewCollectionResult wraps any Collection with the Result-returning
// twin surface.
func NewCollectionResult(coll Collection) *CollectionResult {
	return &CollectionResult{coll: coll}
}

func (r *CollectionResult) InsertOne(ctx context.Context, doc map[string]any) Result[any] {
	return Try(func() (any, error) { return r.coll.InsertOne(ctx, doc) })
}

func (r *CollectionResult) UpdateOne(ctx context.Context, filter, update map[string]any) Result[int64] {
	return Try(func() (int64, error) { return r.coll.UpdateOne(ctx, filter, update) })
}

func (r *CollectionResult) Find(ctx context.Context, filter map[string]any) Result[[]map[string]any] {
	return Try(func() ([]map[string]any, error) { return r.coll.Find(ctx, filter) })
}

func (r *CollectionResult) Aggregate(ctx context.Context, pipeline []map[string]any) Result[[]map[string]any] {
	return Try(func() ([]map[string]any, error) { return r.coll.Aggregate(ctx, pipeline) })
}
