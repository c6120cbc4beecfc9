package redisdriver

import (
	"bufio"
	"context"
	"net"
	"testing"
)

// fakeServer runs a tiny RESP2 responder over a net.Pipe, the same
// lightweight double dbbouncer's proxy tests use for protocol framing
// rather than a live network server. handler receives the decoded command
// args and returns the raw RESP2 bytes to write back.
func fakeServer(t *testing.T, handler func(args []string) string) (*Conn, func()) {
	t.Helper()
	client, server := net.Pipe()

	go func() {
		r := bufio.NewReader(server)
		w := bufio.NewWriter(server)
		for {
			rep, err := readReply(r)
			if err != nil {
				return
			}
			args := rep.strs()
			out := handler(args)
			if _, err := w.WriteString(out); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()

	c := &Conn{
		url: "dbcx:redis://test/0",
		net: client,
		r:   bufio.NewReader(client),
		w:   bufio.NewWriter(client),
	}
	return c, func() { client.Close(); server.Close() }
}

func TestConnSetAndGetString(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		switch args[0] {
		case "SET":
			return "+OK\r\n"
		case "GET":
			return "$5\r\nhello\r\n"
		}
		return "-ERR unexpected\r\n"
	})
	defer cleanup()

	if err := c.SetString(context.Background(), "k", "hello", 0); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	v, err := c.GetString(context.Background(), "k")
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if v != "hello" {
		t.Errorf("expected hello, got %q", v)
	}
}

func TestConnGetStringMissingKey(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		return "$-1\r\n"
	})
	defer cleanup()

	if _, err := c.GetString(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for a nil bulk reply")
	}
}

func TestConnIncrement(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		return ":42\r\n"
	})
	defer cleanup()

	n, err := c.Increment(context.Background(), "counter", 1)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestConnCommandError(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		return "-ERR wrong type\r\n"
	})
	defer cleanup()

	if _, err := c.GetString(context.Background(), "k"); err == nil {
		t.Fatal("expected an error for a RESP error reply")
	}
}

func TestConnHashGetAll(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		return "*4\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n"
	})
	defer cleanup()

	m, err := c.HashGetAll(context.Background(), "h")
	if err != nil {
		t.Fatalf("HashGetAll: %v", err)
	}
	if m["a"] != "1" || m["b"] != "2" {
		t.Errorf("unexpected map: %+v", m)
	}
}

func TestConnPing(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string {
		return "+PONG\r\n"
	})
	defer cleanup()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	c, cleanup := fakeServer(t, func(args []string) string { return "+OK\r\n" })
	defer cleanup()

	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
	if !c.IsClosed() {
		t.Error("expected IsClosed true after Close")
	}
}
