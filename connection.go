package dbcx

import "context"

// Connection is the common surface every backend connection (or a pooled
// wrapper around one) implements.
type Connection interface {
	Close() error
	IsClosed() bool
	IsPooled() bool
	GetURL() string
	ReturnToPool() error
}

// PreparedStatement is the relational prepared-statement handle.
type PreparedStatement interface {
	SetString(index int, value string) error
	SetInt64(index int, value int64) error
	SetFloat64(index int, value float64) error
	SetBool(index int, value bool) error
	SetBlob(index int, value *Blob) error
	SetNull(index int) error
	ExecuteQuery(ctx context.Context) (ResultSet, error)
	ExecuteUpdate(ctx context.Context) (int64, error)
	Close() error
}

// ResultSet is the relational cursor over returned rows.
type ResultSet interface {
	Next() bool
	ColumnNames() []string
	GetString(col string) (string, error)
	GetInt64(col string) (int64, error)
	GetFloat64(col string) (float64, error)
	GetBool(col string) (bool, error)
	GetBlob(col string) (*Blob, error)
	IsNull(col string) bool
	Err() error
	Close() error
}

// RelationalConnection is the MySQL/PostgreSQL-style connection surface.
type RelationalConnection interface {
	Connection

	PrepareStatement(ctx context.Context, sql string) (PreparedStatement, error)
	ExecuteQuery(ctx context.Context, sql string) (ResultSet, error)
	ExecuteUpdate(ctx context.Context, sql string) (int64, error)

	BeginTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	SetAutoCommit(ctx context.Context, autoCommit bool) error
	GetAutoCommit() bool
	TransactionActive() bool
	SetTransactionIsolation(ctx context.Context, level IsolationLevel) error
	GetTransactionIsolation() IsolationLevel

	Ping(ctx context.Context) error
}

// KVConnection is the Redis-style key-value connection surface (spec.md §4.5).
type KVConnection interface {
	Connection

	SetString(ctx context.Context, key, value string, expirySeconds int64) error
	GetString(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	DeleteKey(ctx context.Context, key string) (int64, error)
	DeleteKeys(ctx context.Context, keys []string) (int64, error)
	Expire(ctx context.Context, key string, seconds int64) (bool, error)
	GetTTL(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string, by int64) (int64, error)
	Decrement(ctx context.Context, key string, by int64) (int64, error)

	PushLeft(ctx context.Context, key string, values ...string) (int64, error)
	PushRight(ctx context.Context, key string, values ...string) (int64, error)
	PopLeft(ctx context.Context, key string) (string, error)
	PopRight(ctx context.Context, key string) (string, error)
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Length(ctx context.Context, key string) (int64, error)

	HashSet(ctx context.Context, key, field, value string) error
	HashGet(ctx context.Context, key, field string) (string, error)
	HashDelete(ctx context.Context, key string, fields ...string) (int64, error)
	HashExists(ctx context.Context, key, field string) (bool, error)
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashLength(ctx context.Context, key string) (int64, error)

	SetAdd(ctx context.Context, key string, members ...string) (int64, error)
	SetRemove(ctx context.Context, key string, members ...string) (int64, error)
	SetIsMember(ctx context.Context, key, member string) (bool, error)
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetSize(ctx context.Context, key string) (int64, error)

	SortedSetAdd(ctx context.Context, key string, score float64, member string) (int64, error)
	SortedSetRemove(ctx context.Context, key string, member string) (int64, error)
	SortedSetScore(ctx context.Context, key, member string) (float64, error)
	SortedSetRangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error)
	SortedSetSize(ctx context.Context, key string) (int64, error)

	ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error)

	ExecuteCommand(ctx context.Context, cmd string, args ...string) (string, error)
	FlushDB(ctx context.Context, async bool) error
	Ping(ctx context.Context) error
	GetServerInfo(ctx context.Context) (map[string]string, error)
}

// Collection is a single MongoDB-style collection handle.
type Collection interface {
	Name() string
	InsertOne(ctx context.Context, doc map[string]any) (any, error)
	UpdateOne(ctx context.Context, filter, update map[string]any) (int64, error)
	Find(ctx context.Context, filter map[string]any) ([]map[string]any, error)
	Aggregate(ctx context.Context, pipeline []map[string]any) ([]map[string]any, error)
}

// DocumentConnection is the MongoDB-style document connection surface.
type DocumentConnection interface {
	Connection

	GetCollection(ctx context.Context, name string) (Collection, error)
	CreateCollection(ctx context.Context, name string) error
	DropCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CollectionExists(ctx context.Context, name string) (bool, error)

	Ping(ctx context.Context) error
}
