package redisdriver

import (
	"context"

	"github.com/dbcx/dbcx"
)

func (c *Conn) HashSet(ctx context.Context, key, field, value string) error {
	_, err := c.doCtx(ctx, "HSET", key, field, value)
	return err
}

func (c *Conn) HashGet(ctx context.Context, key, field string) (string, error) {
	r, err := c.doCtx(ctx, "HGET", key, field)
	if err != nil {
		return "", err
	}
	s, ok := r.str()
	if !ok {
		return "", dbcx.NewError(dbcx.CodeCommandError, "field does not exist")
	}
	return s, nil
}

func (c *Conn) HashDelete(ctx context.Context, key string, fields ...string) (int64, error) {
	args := append([]string{"HDEL", key}, fields...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) HashExists(ctx context.Context, key, field string) (bool, error) {
	r, err := c.doCtx(ctx, "HEXISTS", key, field)
	if err != nil {
		return false, err
	}
	n, err := intReply(r)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Conn) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	r, err := c.doCtx(ctx, "HGETALL", key)
	if err != nil {
		return nil, err
	}
	flat := r.strs()
	out := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out[flat[i]] = flat[i+1]
	}
	return out, nil
}

func (c *Conn) HashLength(ctx context.Context, key string) (int64, error) {
	r, err := c.doCtx(ctx, "HLEN", key)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}
