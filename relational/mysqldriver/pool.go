package mysqldriver

import (
	"context"
	"strconv"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/pool"
	"github.com/dbcx/dbcx/uri"
)

// Pool is the MySQL-family specialization of the generic pool: it fixes
// the validation command to "SELECT 1" per spec.md §4.4's relational
// validation convention.
type Pool struct {
	inner *pool.Pool[*Conn]
}

func NewPool(ctx context.Context, name string, url, user, password string, cfg pool.Config) (*Pool, error) {
	parsed, err := uri.Parse(url, defaultMySQLPort)
	if err != nil {
		return nil, err
	}
	addr := parsed.Host + ":" + strconv.Itoa(parsed.Port)

	if cfg.ValidationCommand == "" {
		cfg.ValidationCommand = "SELECT 1"
	}
	if cfg.Backend == "" {
		cfg.Backend = "mysql"
	}

	dialer := func(ctx context.Context) (*Conn, error) {
		return dial(ctx, url, addr, user, password, parsed.DB, cfg.Options)
	}

	inner, err := pool.New[*Conn](ctx, name, cfg, dialer)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner}, nil
}

func (p *Pool) Borrow(ctx context.Context) (dbcx.RelationalConnection, error) {
	h, err := p.inner.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	return newWrapper(h), nil
}

func (p *Pool) Stats() pool.Stats { return p.inner.Stats() }
func (p *Pool) Close() error      { return p.inner.Close() }

// Ping borrows a connection, issues the validation command, and returns the
// connection to the pool — the health.Checker's probe hook (spec.md §4.4).
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.Borrow(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Ping(ctx)
}
