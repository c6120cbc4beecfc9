package mongodriver

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/dbcx/dbcx"
)

// Collection is the dbcx.Collection handle for one named MongoDB-style
// collection, bound to the Conn that created it.
type Collection struct {
	conn *Conn
	db   string
	name string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) InsertOne(ctx context.Context, doc map[string]any) (any, error) {
	d := MapToD(doc)
	id, hasID := d.Get("_id")
	if !hasID {
		id = newObjectID()
		d = append(D{{Key: "_id", Value: id}}, d...)
	}
	cmd := D{
		{Key: "insert", Value: c.name},
		{Key: "documents", Value: []any{d}},
		{Key: "ordered", Value: true},
	}
	reply, err := c.conn.runCommand(ctx, c.db, cmd)
	if err != nil {
		return nil, err
	}
	if n, ok := reply.Get("n"); ok {
		if count, ok := asInt64(n); ok && count < 1 {
			return nil, dbcx.NewError(dbcx.CodeCommandError, "insertOne inserted zero documents")
		}
	}
	return id, nil
}

func (c *Collection) UpdateOne(ctx context.Context, filter, update map[string]any) (int64, error) {
	spec := D{
		{Key: "q", Value: MapToD(filter)},
		{Key: "u", Value: MapToD(update)},
		{Key: "multi", Value: false},
	}
	cmd := D{
		{Key: "update", Value: c.name},
		{Key: "updates", Value: []any{spec}},
	}
	reply, err := c.conn.runCommand(ctx, c.db, cmd)
	if err != nil {
		return 0, err
	}
	n, _ := reply.Get("n")
	count, _ := asInt64(n)
	return count, nil
}

func (c *Collection) Find(ctx context.Context, filter map[string]any) ([]map[string]any, error) {
	cmd := D{
		{Key: "find", Value: c.name},
		{Key: "filter", Value: MapToD(filter)},
	}
	reply, err := c.conn.runCommand(ctx, c.db, cmd)
	if err != nil {
		return nil, err
	}
	return firstBatchMaps(reply)
}

func (c *Collection) Aggregate(ctx context.Context, pipeline []map[string]any) ([]map[string]any, error) {
	stages := make([]any, len(pipeline))
	for i, stage := range pipeline {
		stages[i] = MapToD(stage)
	}
	cmd := D{
		{Key: "aggregate", Value: c.name},
		{Key: "pipeline", Value: stages},
		{Key: "cursor", Value: D{}},
	}
	reply, err := c.conn.runCommand(ctx, c.db, cmd)
	if err != nil {
		return nil, err
	}
	return firstBatchMaps(reply)
}

func firstBatchMaps(reply D) ([]map[string]any, error) {
	cursor, ok := reply.Get("cursor")
	cursorDoc, isDoc := cursor.(D)
	if !ok || !isDoc {
		return nil, nil
	}
	batch, _ := cursorDoc.Get("firstBatch")
	items, _ := batch.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if doc, ok := item.(D); ok {
			out = append(out, doc.Map())
		}
	}
	return out, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// newObjectID generates a 12-byte identifier hex-encoded the way a MongoDB
// ObjectId prints, without reproducing its timestamp/counter structure —
// sufficient for round-tripping InsertOne's generated id, not for ObjectId
// interop with a real server's own id generator.
func newObjectID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
