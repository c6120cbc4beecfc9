package mongodriver

import (
	"context"
	"net"
	"testing"
)

// fakeServer runs a minimal OP_MSG responder over a net.Pipe: it decodes
// each incoming command document and hands it to handler, which returns the
// reply document to send back. The same lightweight in-process double the
// Redis adapter's tests use for protocol framing, adapted to OP_MSG framing.
func fakeServer(t *testing.T, handler func(cmd D) D) (*Conn, func()) {
	t.Helper()
	client, server := net.Pipe()

	go func() {
		for {
			cmd, err := readOpMsg(server)
			if err != nil {
				return
			}
			reply := handler(cmd)
			if err := sendOpMsg(server, 0, reply); err != nil {
				return
			}
		}
	}()

	c := &Conn{url: "dbcx:mongodb://test/mydb", net: client, dbName: "mydb"}
	return c, func() { client.Close(); server.Close() }
}

func TestConnPing(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D {
		return D{{Key: "ok", Value: float64(1)}}
	})
	defer cleanup()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestConnCommandError(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D {
		return D{{Key: "ok", Value: float64(0)}, {Key: "errmsg", Value: "no such command"}}
	})
	defer cleanup()

	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected an error for an ok:0 reply")
	}
}

func TestConnListCollectionsAndExists(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D {
		name, _ := cmd.Get("listCollections")
		if name == nil {
			return D{{Key: "ok", Value: float64(1)}}
		}
		batch := []any{
			D{{Key: "name", Value: "widgets"}},
			D{{Key: "name", Value: "orders"}},
		}
		cursor := D{{Key: "firstBatch", Value: batch}}
		return D{{Key: "cursor", Value: cursor}, {Key: "ok", Value: float64(1)}}
	})
	defer cleanup()

	names, err := c.listCollections(context.Background())
	if err != nil {
		t.Fatalf("listCollections: %v", err)
	}
	if len(names) != 2 || names[0] != "widgets" || names[1] != "orders" {
		t.Fatalf("unexpected collection names: %+v", names)
	}

	exists, err := c.collectionExists(context.Background(), "orders")
	if err != nil {
		t.Fatalf("collectionExists: %v", err)
	}
	if !exists {
		t.Error("expected orders to exist")
	}

	missing, err := c.collectionExists(context.Background(), "ghosts")
	if err != nil {
		t.Fatalf("collectionExists: %v", err)
	}
	if missing {
		t.Error("expected ghosts to not exist")
	}
}

func TestCollectionInsertOneGeneratesID(t *testing.T) {
	var captured D
	c, cleanup := fakeServer(t, func(cmd D) D {
		if _, ok := cmd.Get("insert"); ok {
			captured = cmd
			return D{{Key: "ok", Value: float64(1)}, {Key: "n", Value: int32(1)}}
		}
		return D{{Key: "ok", Value: float64(1)}}
	})
	defer cleanup()

	coll := &Collection{conn: c, db: "mydb", name: "widgets"}
	id, err := coll.InsertOne(context.Background(), map[string]any{"name": "gadget"})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if id == nil || id == "" {
		t.Fatal("expected a generated _id")
	}
	if _, ok := captured.Get("documents"); !ok {
		t.Error("expected the insert command to carry a documents array")
	}
}

func TestCollectionUpdateOne(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D {
		return D{{Key: "ok", Value: float64(1)}, {Key: "n", Value: int32(1)}}
	})
	defer cleanup()

	coll := &Collection{conn: c, db: "mydb", name: "widgets"}
	n, err := coll.UpdateOne(context.Background(),
		map[string]any{"name": "gadget"},
		map[string]any{"$set": map[string]any{"price": int32(5)}})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 modified, got %d", n)
	}
}

func TestCollectionFind(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D {
		batch := []any{D{{Key: "name", Value: "gadget"}, {Key: "price", Value: int32(5)}}}
		cursor := D{{Key: "firstBatch", Value: batch}}
		return D{{Key: "cursor", Value: cursor}, {Key: "ok", Value: float64(1)}}
	})
	defer cleanup()

	coll := &Collection{conn: c, db: "mydb", name: "widgets"}
	docs, err := coll.Find(context.Background(), map[string]any{"name": "gadget"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0]["name"] != "gadget" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	c, cleanup := fakeServer(t, func(cmd D) D { return D{{Key: "ok", Value: float64(1)}} })
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
