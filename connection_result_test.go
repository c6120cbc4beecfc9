package dbcx

import (
	"context"
	"errors"
	"testing"
)

// fakeKVConnection implements KVConnection with just enough behavior to
// drive KVResult's twin methods through both the success and error arms.
type fakeKVConnection struct {
	getErr error
	store  map[string]string
}

func (f *fakeKVConnection) Close() error        { return nil }
func (f *fakeKVConnection) IsClosed() bool      { return false }
func (f *fakeKVConnection) IsPooled() bool      { return false }
func (f *fakeKVConnection) GetURL() string      { return "dbcx:redis://fake" }
func (f *fakeKVConnection) ReturnToPool() error { return nil }

func (f *fakeKVConnection) SetString(ctx context.Context, key, value string, expirySeconds int64) error {
	if f.store == nil {
		f.store = map[string]string{}
	}
	f.store[key] = value
	return nil
}

func (f *fakeKVConnection) GetString(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.store[key], nil
}

func (f *fakeKVConnection) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.store[key]
	return ok, nil
}
func (f *fakeKVConnection) DeleteKey(ctx context.Context, key string) (int64, error)    { return 0, nil }
func (f *fakeKVConnection) DeleteKeys(ctx context.Context, keys []string) (int64, error) { return 0, nil }
func (f *fakeKVConnection) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	return false, nil
}
func (f *fakeKVConnection) GetTTL(ctx context.Context, key string) (int64, error)       { return 0, nil }
func (f *fakeKVConnection) Increment(ctx context.Context, key string, by int64) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) Decrement(ctx context.Context, key string, by int64) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) PushLeft(ctx context.Context, key string, values ...string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) PushRight(ctx context.Context, key string, values ...string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) PopLeft(ctx context.Context, key string) (string, error)   { return "", nil }
func (f *fakeKVConnection) PopRight(ctx context.Context, key string) (string, error)  { return "", nil }
func (f *fakeKVConnection) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return nil, nil
}
func (f *fakeKVConnection) Length(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeKVConnection) HashSet(ctx context.Context, key, field, value string) error { return nil }
func (f *fakeKVConnection) HashGet(ctx context.Context, key, field string) (string, error) {
	return "", nil
}
func (f *fakeKVConnection) HashDelete(ctx context.Context, key string, fields ...string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) HashExists(ctx context.Context, key, field string) (bool, error) {
	return false, nil
}
func (f *fakeKVConnection) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeKVConnection) HashLength(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeKVConnection) SetAdd(ctx context.Context, key string, members ...string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) SetRemove(ctx context.Context, key string, members ...string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	return false, nil
}
func (f *fakeKVConnection) SetMembers(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}
func (f *fakeKVConnection) SetSize(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeKVConnection) SortedSetAdd(ctx context.Context, key string, score float64, member string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) SortedSetRemove(ctx context.Context, key, member string) (int64, error) {
	return 0, nil
}
func (f *fakeKVConnection) SortedSetScore(ctx context.Context, key, member string) (float64, error) {
	return 0, nil
}
func (f *fakeKVConnection) SortedSetRangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return nil, nil
}
func (f *fakeKVConnection) SortedSetSize(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeKVConnection) ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error) {
	return nil, nil
}
func (f *fakeKVConnection) ExecuteCommand(ctx context.Context, cmd string, args ...string) (string, error) {
	return "", nil
}
func (f *fakeKVConnection) FlushDB(ctx context.Context, async bool) error { return nil }
func (f *fakeKVConnection) Ping(ctx context.Context) error                { return nil }
func (f *fakeKVConnection) GetServerInfo(ctx context.Context) (map[string]string, error) {
	return nil, nil
}

var _ KVConnection = (*fakeKVConnection)(nil)

func TestKVResultSuccessTwin(t *testing.T) {
	conn := &fakeKVConnection{}
	r := NewKVResult(conn)

	if res := r.SetString(context.Background(), "k", "v", 0); !res.Ok {
		t.Fatalf("SetString result: %+v", res)
	}

	res := r.GetString(context.Background(), "k")
	if !res.Ok || res.Value != "v" {
		t.Fatalf("GetString result = %+v, want Ok value=v", res)
	}
}

func TestKVResultErrorTwinCarriesErrorValue(t *testing.T) {
	conn := &fakeKVConnection{getErr: NewError(CodeCommandError, "boom")}
	r := NewKVResult(conn)

	res := r.GetString(context.Background(), "k")
	if res.Ok {
		t.Fatal("expected Ok=false on a failing GetString")
	}
	if res.Err == nil || res.Err.Code != CodeCommandError {
		t.Fatalf("Err = %+v, want CodeCommandError", res.Err)
	}
}

func TestKVResultWrapsPlainErrors(t *testing.T) {
	conn := &fakeKVConnection{getErr: errors.New("not a dbcx error")}
	r := NewKVResult(conn)

	res := r.GetString(context.Background(), "k")
	if res.Ok {
		t.Fatal("expected Ok=false")
	}
	if res.Err.Code != CodeUnknownError {
		t.Fatalf("Err.Code = %v, want CodeUnknownError", res.Err.Code)
	}
}

func TestThrowingAndResultTwinsShareBehavior(t *testing.T) {
	conn := &fakeKVConnection{}
	ctx := context.Background()

	if err := conn.SetString(ctx, "a", "1", 0); err != nil {
		t.Fatalf("throwing SetString: %v", err)
	}
	throwingVal, err := conn.GetString(ctx, "a")
	if err != nil {
		t.Fatalf("throwing GetString: %v", err)
	}

	r := NewKVResult(conn)
	twinVal := r.GetString(ctx, "a").Must()

	if throwingVal != twinVal {
		t.Fatalf("throwing=%q twin=%q, want equal (same implementation body)", throwingVal, twinVal)
	}
}

// fakeRelationalConnection implements just enough of RelationalConnection
// to exercise RelationalResult's twin for a method with no return value.
type fakeRelationalConnection struct {
	autoCommit bool
	isolation  IsolationLevel
	beginErr   error
}

func (f *fakeRelationalConnection) Close() error        { return nil }
func (f *fakeRelationalConnection) IsClosed() bool      { return false }
func (f *fakeRelationalConnection) IsPooled() bool      { return false }
func (f *fakeRelationalConnection) GetURL() string      { return "dbcx:postgresql://fake" }
func (f *fakeRelationalConnection) ReturnToPool() error { return nil }

func (f *fakeRelationalConnection) PrepareStatement(ctx context.Context, sql string) (PreparedStatement, error) {
	return nil, nil
}
func (f *fakeRelationalConnection) ExecuteQuery(ctx context.Context, sql string) (ResultSet, error) {
	return nil, nil
}
func (f *fakeRelationalConnection) ExecuteUpdate(ctx context.Context, sql string) (int64, error) {
	return 0, nil
}
func (f *fakeRelationalConnection) BeginTransaction(ctx context.Context) error { return f.beginErr }
func (f *fakeRelationalConnection) Commit(ctx context.Context) error          { return nil }
func (f *fakeRelationalConnection) Rollback(ctx context.Context) error        { return nil }
func (f *fakeRelationalConnection) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	f.autoCommit = autoCommit
	return nil
}
func (f *fakeRelationalConnection) GetAutoCommit() bool { return f.autoCommit }
func (f *fakeRelationalConnection) TransactionActive() bool { return false }
func (f *fakeRelationalConnection) SetTransactionIsolation(ctx context.Context, level IsolationLevel) error {
	f.isolation = level
	return nil
}
func (f *fakeRelationalConnection) GetTransactionIsolation() IsolationLevel { return f.isolation }
func (f *fakeRelationalConnection) Ping(ctx context.Context) error          { return nil }

var _ RelationalConnection = (*fakeRelationalConnection)(nil)

func TestRelationalResultVoidTwin(t *testing.T) {
	conn := &fakeRelationalConnection{}
	r := NewRelationalResult(conn)

	res := r.BeginTransaction(context.Background())
	if !res.Ok {
		t.Fatalf("BeginTransaction result: %+v", res)
	}

	conn.beginErr = NewError(CodeInvalidState, "already in transaction")
	res = r.BeginTransaction(context.Background())
	if res.Ok || res.Err.Code != CodeInvalidState {
		t.Fatalf("BeginTransaction error result: %+v", res)
	}
}

// fakeDocumentConnection implements just enough of DocumentConnection to
// exercise DocumentResult's twin.
type fakeDocumentConnection struct {
	existsErr error
}

func (f *fakeDocumentConnection) Close() error        { return nil }
func (f *fakeDocumentConnection) IsClosed() bool      { return false }
func (f *fakeDocumentConnection) IsPooled() bool      { return false }
func (f *fakeDocumentConnection) GetURL() string      { return "dbcx:mongodb://fake" }
func (f *fakeDocumentConnection) ReturnToPool() error { return nil }

func (f *fakeDocumentConnection) GetCollection(ctx context.Context, name string) (Collection, error) {
	return nil, nil
}
func (f *fakeDocumentConnection) CreateCollection(ctx context.Context, name string) error { return nil }
func (f *fakeDocumentConnection) DropCollection(ctx context.Context, name string) error   { return nil }
func (f *fakeDocumentConnection) ListCollections(ctx context.Context) ([]string, error) {
	return []string{"a", "b"}, nil
}
func (f *fakeDocumentConnection) CollectionExists(ctx context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return name == "a", nil
}
func (f *fakeDocumentConnection) Ping(ctx context.Context) error { return nil }

var _ DocumentConnection = (*fakeDocumentConnection)(nil)

func TestDocumentResultTwin(t *testing.T) {
	conn := &fakeDocumentConnection{}
	r := NewDocumentResult(conn)

	res := r.ListCollections(context.Background())
	if !res.Ok || len(res.Value) != 2 {
		t.Fatalf("ListCollections result: %+v", res)
	}

	exists := r.CollectionExists(context.Background(), "a")
	if !exists.Ok || !exists.Value {
		t.Fatalf("CollectionExists result: %+v", exists)
	}

	conn.existsErr = NewError(CodeCommandError, "boom")
	exists = r.CollectionExists(context.Background(), "a")
	if exists.Ok {
		t.Fatal("expected Ok=false once the underlying call fails")
	}
}
