package mysqldriver

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dbcx/dbcx"
)

const (
	comQuery = 0x03
	comPing  = 0x0e
)

// Conn is a single physical MySQL connection. It satisfies pool.Physical
// and, through Wrapper, dbcx.RelationalConnection.
type Conn struct {
	url string
	net net.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu            sync.Mutex
	closed        bool
	inTransaction bool
	autoCommit    bool
	isolation     dbcx.IsolationLevel
}

// dial opens a raw TCP connection honoring the connect_timeout option,
// then completes the MySQL handshake (spec.md §4.5/§6). read_timeout and
// write_timeout are recorded on the Conn and applied as the socket
// deadline on every later round trip whenever ctx itself carries none.
func dial(ctx context.Context, url, addr, user, password, dbname string, options map[string]string) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dbcx.ConnectTimeout(options))
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if err := handshake(nc, user, password, dbname); err != nil {
		nc.Close()
		return nil, err
	}
	return &Conn{
		url:          url,
		net:          nc,
		autoCommit:   true,
		readTimeout:  dbcx.ReadTimeout(options),
		writeTimeout: dbcx.WriteTimeout(options),
	}, nil
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

func (c *Conn) Ping(ctx context.Context) error {
	defer c.withDeadline(ctx)()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writePacket(c.net, []byte{comPing}, 0); err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	pkt, _, err := readPacket(c.net)
	if err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) > 0 && pkt[0] == 0xff {
		return dbcx.NewError(dbcx.CodeCommandError, parseErrPacket(pkt))
	}
	return nil
}
