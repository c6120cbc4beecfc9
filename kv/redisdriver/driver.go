package redisdriver

import (
	"context"
	"strconv"
	"strings"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/uri"
)

const defaultRedisPort = 6379

// Driver is the dbcx.KVDriver for Redis-style servers. Register it with
// dbcx.Register (or dbcx.DefaultRegistry) during process init to make
// "dbcx:redis://" URLs resolvable.
type Driver struct{}

// New returns a ready-to-register Driver.
func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return "redis" }

func (d *Driver) Accepts(url string) bool {
	return strings.Contains(url, ":redis://")
}

func (d *Driver) Connect(ctx context.Context, url, user, password string, options map[string]string) (dbcx.Connection, error) {
	return d.ConnectKV(ctx, url, user, password, options)
}

func (d *Driver) ConnectKV(ctx context.Context, url, user, password string, options map[string]string) (dbcx.KVConnection, error) {
	parsed, err := uri.Parse(url, defaultRedisPort)
	if err != nil {
		return nil, err
	}
	db, err := uri.ParseIntOr(parsed.DB, 0)
	if err != nil {
		return nil, dbcx.NewError(dbcx.CodeInvalidURI, "redis database must be numeric: "+parsed.DB)
	}

	addr := parsed.Host + ":" + strconv.Itoa(parsed.Port)
	c, err := dial(ctx, url, addr, db, user, password, options)
	if err != nil {
		return nil, err
	}
	return &unpooledConn{Conn: c}, nil
}

// unpooledConn adapts a bare *Conn to dbcx.KVConnection for callers that
// connect directly rather than through a Pool (spec.md §4.3's "direct
// connection" mode). IsPooled always reports false and ReturnToPool is a
// synonym for Close.
type unpooledConn struct {
	*Conn
}

func (u *unpooledConn) IsPooled() bool      { return false }
func (u *unpooledConn) GetURL() string      { return u.Conn.URL() }
func (u *unpooledConn) ReturnToPool() error { return u.Conn.Close() }

var (
	_ dbcx.KVDriver     = (*Driver)(nil)
	_ dbcx.KVConnection = (*unpooledConn)(nil)
)
