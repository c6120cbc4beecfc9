package mysqldriver

import (
	"context"
	"strconv"
	"strings"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/uri"
)

const defaultMySQLPort = 3306

// Driver is the dbcx.RelationalDriver for MySQL-compatible servers.
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return "mysql" }

func (d *Driver) Accepts(url string) bool {
	return strings.Contains(url, ":mysql://")
}

func (d *Driver) Connect(ctx context.Context, url, user, password string, options map[string]string) (dbcx.Connection, error) {
	return d.ConnectRelational(ctx, url, user, password, options)
}

func (d *Driver) ConnectRelational(ctx context.Context, url, user, password string, options map[string]string) (dbcx.RelationalConnection, error) {
	parsed, err := uri.Parse(url, defaultMySQLPort)
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

type unpooledConn struct {
	*Conn
}

func (u *unpooledConn) IsPooled() bool      { return false }
func (u *unpooledConn) GetURL() string      { return u.Conn.URL() }
func (u *unpooledConn) ReturnToPool() error { return u.Conn.Close() }

func (u *unpooledConn) PrepareStatement(ctx context.Context, sql string) (dbcx.PreparedStatement, error) {
	return u.Conn.prepareStatement(sql), nil
}
func (u *unpooledConn) ExecuteQuery(ctx context.Context, sql string) (dbcx.ResultSet, error) {
	return u.Conn.executeQuery(ctx, sql)
}
func (u *unpooledConn) ExecuteUpdate(ctx context.Context, sql string) (int64, error) {
	return u.Conn.executeUpdate(ctx, sql)
}
func (u *unpooledConn) BeginTransaction(ctx context.Context) error { return u.Conn.beginTransaction(ctx) }
func (u *unpooledConn) Commit(ctx context.Context) error           { return u.Conn.commit(ctx) }
func (u *unpooledConn) Rollback(ctx context.Context) error         { return u.Conn.rollback(ctx) }
func (u *unpooledConn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	return u.Conn.setAutoCommit(ctx, autoCommit)
}
func (u *unpooledConn) GetAutoCommit() bool      { return u.Conn.getAutoCommit() }
func (u *unpooledConn) TransactionActive() bool  { return u.Conn.transactionActive() }
func (u *unpooledConn) SetTransactionIsolation(ctx context.Context, level dbcx.IsolationLevel) error {
	return u.Conn.setTransactionIsolation(ctx, level)
}
func (u *unpooledConn) GetTransactionIsolation() dbcx.IsolationLevel {
	return u.Conn.getTransactionIsolation()
}

var (
	_ dbcx.RelationalDriver     = (*Driver)(nil)
	_ dbcx.RelationalConnection = (*unpooledConn)(nil)
)
