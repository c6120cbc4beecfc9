package postgresdriver

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/dbcx/dbcx"
)

// Conn is a single physical PostgreSQL connection. It satisfies
// pool.Physical and, through Wrapper, dbcx.RelationalConnection.
type Conn struct {
	url    string
	net    net.Conn
	params map[string]string

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu            sync.Mutex
	closed        bool
	inTransaction bool
	autoCommit    bool
	isolation     dbcx.IsolationLevel
}

// dial opens a raw TCP connection honoring the connect_timeout option,
// then completes the PostgreSQL startup/auth handshake (spec.md §4.5/§6).
// read_timeout and write_timeout are recorded on the Conn and applied as
// the socket deadline on every later round trip whenever ctx carries none.
func dial(ctx context.Context, url, addr, user, password, dbname string, options map[string]string) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dbcx.ConnectTimeout(options))
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	params, err := handshake(nc, user, password, dbname)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &Conn{
		url:          url,
		net:          nc,
		params:       params,
		autoCommit:   true,
		readTimeout:  dbcx.ReadTimeout(options),
		writeTimeout: dbcx.WriteTimeout(options),
	}, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}

func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) URL() string { return c.url }

// Ping sends a simple-query "SELECT 1" — PostgreSQL has no dedicated ping
// message, so this is the validation command spec.md §4.4 names for the
// relational family.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.simpleQuery(ctx, "SELECT 1")
	return err
}

func sendSimpleQuery(conn net.Conn, sql string) error {
	payload := append([]byte(sql), 0)
	buf := make([]byte, 1+4+len(payload))
	buf[0] = 'Q'
	binary.BigEndian.PutUint32(buf[1:5], uint32(4+len(payload)))
	copy(buf[5:], payload)
	_, err := conn.Write(buf)
	return err
}

// withDeadline applies ctx's deadline to the socket if present, otherwise
// falls back to the connection's configured read_timeout/write_timeout
// options, and returns a func that clears whatever it set.
func (c *Conn) withDeadline(ctx context.Context) func() {
	if dl, ok := ctx.Deadline(); ok {
		c.net.SetDeadline(dl)
		return func() { c.net.SetDeadline(time.Time{}) }
	}
	if c.readTimeout > 0 {
		c.net.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	if c.writeTimeout > 0 {
		c.net.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return func() {
		c.net.SetReadDeadline(time.Time{})
		c.net.SetWriteDeadline(time.Time{})
	}
}
