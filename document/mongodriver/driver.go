package mongodriver

import (
	"context"
	"strconv"
	"strings"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/uri"
)

const defaultMongoPort = 27017

// Driver is the dbcx.DocumentDriver for MongoDB-compatible servers.
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return "mongodb" }

func (d *Driver) Accepts(url string) bool {
	return strings.Contains(url, ":mongodb://")
}

func (d *Driver) Connect(ctx context.Context, url, user, password string, options map[string]string) (dbcx.Connection, error) {
	return d.ConnectDocument(ctx, url, user, password, options)
}

func (d *Driver) ConnectDocument(ctx context.Context, url, user, password string, options map[string]string) (dbcx.DocumentConnection, error) {
	parsed, err := uri.Parse(url, defaultMongoPort)
	if err != nil {
		return nil, err
	}
	addr := parsed.Host + ":" + strconv.Itoa(parsed.Port)
	c, err := dial(ctx, url, addr, user, password, parsed.DB, options)
	if err != nil {
		return nil, err
	}
	return &unpooledConn{Conn: c}, nil
}

// unpooledConn adapts a bare *Conn to dbcx.DocumentConnection for callers
// that connect directly rather than through a Pool.
type unpooledConn struct {
	*Conn
}

func (u *unpooledConn) IsPooled() bool      { return false }
func (u *unpooledConn) GetURL() string      { return u.Conn.URL() }
func (u *unpooledConn) ReturnToPool() error { return u.Conn.Close() }

func (u *unpooledConn) GetCollection(ctx context.Context, name string) (dbcx.Collection, error) {
	return u.Conn.getCollection(ctx, name)
}
func (u *unpooledConn) CreateCollection(ctx context.Context, name string) error {
	return u.Conn.createCollection(ctx, name)
}
func (u *unpooledConn) DropCollection(ctx context.Context, name string) error {
	return u.Conn.dropCollection(ctx, name)
}
func (u *unpooledConn) ListCollections(ctx context.Context) ([]string, error) {
	return u.Conn.listCollections(ctx)
}
func (u *unpooledConn) CollectionExists(ctx context.Context, name string) (bool, error) {
	return u.Conn.collectionExists(ctx, name)
}

var (
	_ dbcx.DocumentDriver     = (*Driver)(nil)
	_ dbcx.DocumentConnection = (*unpooledConn)(nil)
)
