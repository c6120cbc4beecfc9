package mongodriver

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dbcx/dbcx"
)

// Conn is a single physical connection to a MongoDB-style server. It
// satisfies pool.Physical (Close/IsClosed/Ping/URL) and, through Wrapper,
// dbcx.DocumentConnection.
type Conn struct {
	url    string
	net    net.Conn
	dbName string

	mu     sync.Mutex
	closed bool
}

// dial opens a TCP connection honoring the connect_timeout option
// (spec.md §4.5/§6), completes the "hello" handshake, and — if a password
// was supplied — authenticates via SCRAM-SHA-256.
func dial(ctx context.Context, url, addr, user, password, dbName string, options map[string]string) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dbcx.ConnectTimeout(options))
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if dbName == "" {
		dbName = "admin"
	}
	c := &Conn{url: url, net: nc, dbName: dbName}

	if _, err := c.runCommand(ctx, "admin", D{{Key: "hello", Value: int32(1)}}); err != nil {
		nc.Close()
		return nil, err
	}

	if password != "" {
		if err := scramSHA256Auth(nc, dbName, user, password); err != nil {
			nc.Close()
			return nil, err
		}
	}

	return c, nil
}

// runCommand issues a single BSON command document against db and returns
// the decoded reply. Every command holds the connection's mutex for its
// entire round trip — one in-flight command per physical connection at a
// time, the same serialization discipline the Redis adapter uses.
func (c *Conn) runCommand(ctx context.Context, db string, cmd D) (D, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, dbcx.NewError(dbcx.CodeInvalidState, "connection is closed")
	}
	if dl, ok := ctx.Deadline(); ok {
		c.net.SetDeadline(dl)
		defer c.net.SetDeadline(time.Time{})
	}

	full := append(append(D{}, cmd...), E{Key: "$db", Value: db})
	if err := sendOpMsg(c.net, nextRequestID(), full); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	reply, err := readOpMsg(c.net)
	if err != nil {
		return nil, err
	}
	if err := requireOK(reply); err != nil {
		return nil, err
	}
	return reply, nil
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

// Ping issues a no-op "ping" command, the validation probe spec.md §4.4/§6
// names for the document family.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.runCommand(ctx, "admin", D{{Key: "ping", Value: int32(1)}})
	return err
}

func (c *Conn) getCollection(ctx context.Context, name string) (*Collection, error) {
	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dbcx.NewError(dbcx.CodeInvalidState, "collection does not exist: "+name)
	}
	return &Collection{conn: c, db: c.dbName, name: name}, nil
}

func (c *Conn) createCollection(ctx context.Context, name string) error {
	_, err := c.runCommand(ctx, c.dbName, D{{Key: "create", Value: name}})
	return err
}

func (c *Conn) dropCollection(ctx context.Context, name string) error {
	_, err := c.runCommand(ctx, c.dbName, D{{Key: "drop", Value: name}})
	return err
}

func (c *Conn) listCollections(ctx context.Context) ([]string, error) {
	reply, err := c.runCommand(ctx, c.dbName, D{{Key: "listCollections", Value: int32(1)}})
	if err != nil {
		return nil, err
	}
	names := []string{}
	cursor, ok := reply.Get("cursor")
	cursorDoc, isDoc := cursor.(D)
	if !ok || !isDoc {
		return names, nil
	}
	batch, _ := cursorDoc.Get("firstBatch")
	items, _ := batch.([]any)
	for _, item := range items {
		if doc, ok := item.(D); ok {
			if n, ok := doc.Get("name"); ok {
				if s, ok := n.(string); ok {
					names = append(names, s)
				}
			}
		}
	}
	return names, nil
}

func (c *Conn) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := c.listCollections(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
