package redisdriver

import (
	"context"
	"strconv"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/pool"
	"github.com/dbcx/dbcx/uri"
)

// Pool is the Redis-family specialization of the generic pool described in
// spec.md §4.1/§4.4: it fixes the validation command to PING and knows how
// to dial a *Conn from a dbcx:redis:// URL.
type Pool struct {
	inner *pool.Pool[*Conn]
}

// NewPool parses url, fills cfg's ValidationCommand default, and builds a
// ready-to-borrow Pool. cfg.Options carries the connect_timeout/
// client_name driver options (spec.md §6) applied to every physical
// connection dialed.
func NewPool(ctx context.Context, name string, url, user, password string, cfg pool.Config) (*Pool, error) {
	parsed, err := uri.Parse(url, defaultRedisPort)
	if err != nil {
		return nil, err
	}
	db, err := uri.ParseIntOr(parsed.DB, 0)
	if err != nil {
		return nil, dbcx.NewError(dbcx.CodeInvalidURI, "redis database must be numeric: "+parsed.DB)
	}
	addr := parsed.Host + ":" + strconv.Itoa(parsed.Port)

	if cfg.ValidationCommand == "" {
		cfg.ValidationCommand = "PING"
	}
	if cfg.Backend == "" {
		cfg.Backend = "redis"
	}

	dialer := func(ctx context.Context) (*Conn, error) {
		return dial(ctx, url, addr, db, user, password, cfg.Options)
	}

	inner, err := pool.New[*Conn](ctx, name, cfg, dialer)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner}, nil
}

// Borrow returns a pooled dbcx.KVConnection.
func (p *Pool) Borrow(ctx context.Context) (dbcx.KVConnection, error) {
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
