package redisdriver

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/dbcx/dbcx"
)

// Conn is a single physical connection to a Redis-style server. It
// satisfies both pool.Physical (Close/IsClosed/Ping/URL) and, wrapped by
// Wrapper, dbcx.KVConnection.
type Conn struct {
	url string
	net net.Conn
	r   *bufio.Reader
	w   *bufio.Writer

	mu     sync.Mutex
	closed bool
}

// dial opens a raw TCP connection (honoring the connect_timeout option,
// spec.md §4.5/§6) and, if a password was supplied, issues an AUTH command
// before selecting db and applying client_name, if present.
func dial(ctx context.Context, url, addr string, db int, user, password string, options map[string]string) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dbcx.ConnectTimeout(options))
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	c := &Conn{
		url: url,
		net: nc,
		r:   bufio.NewReader(nc),
		w:   bufio.NewWriter(nc),
	}

	if password != "" {
		args := []string{"AUTH"}
		if user != "" {
			args = append(args, user)
		}
		args = append(args, password)
		if _, err := c.do(args...); err != nil {
			c.net.Close()
			return nil, dbcx.Wrap(dbcx.CodeAuthError, err)
		}
	}

	if db != 0 {
		if _, err := c.do("SELECT", strconv.Itoa(db)); err != nil {
			c.net.Close()
			return nil, dbcx.Wrap(dbcx.CodeAuthError, err)
		}
	}

	if name := dbcx.ClientName(options); name != "" {
		if _, err := c.do("CLIENT", "SETNAME", name); err != nil {
			c.net.Close()
			return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
		}
	}

	return c, nil
}

// do sends one command and returns its decoded reply, translating a RESP
// error reply into a Go error tagged dbcx.CodeCommandError.
func (c *Conn) do(args ...string) (*reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, dbcx.NewError(dbcx.CodeInvalidState, "connection is closed")
	}
	if err := writeCommand(c.w, args...); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	rep, err := readReply(c.r)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if rerr := rep.asError(); rerr != nil {
		return nil, dbcx.NewError(dbcx.CodeCommandError, rerr.Error())
	}
	return rep, nil
}

// doCtx runs do, honoring ctx's deadline as a socket read/write deadline.
func (c *Conn) doCtx(ctx context.Context, args ...string) (*reply, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.net.SetDeadline(dl)
		defer c.net.SetDeadline(time.Time{})
	}
	return c.do(args...)
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

// Ping satisfies pool.Physical: the validation command spec.md §4.4 names
// for the KV family.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.doCtx(ctx, "PING")
	return err
}

func (c *Conn) URL() string { return c.url }

func intReply(r *reply) (int64, error) {
	if r.Type != respInteger {
		return 0, fmt.Errorf("redis: expected integer reply, got %c", r.Type)
	}
	return r.Int, nil
}
