package redisdriver

import (
	"context"
	"strconv"

	"github.com/dbcx/dbcx"
)

func (c *Conn) PushLeft(ctx context.Context, key string, values ...string) (int64, error) {
	args := append([]string{"LPUSH", key}, values...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) PushRight(ctx context.Context, key string, values ...string) (int64, error) {
	args := append([]string{"RPUSH", key}, values...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) PopLeft(ctx context.Context, key string) (string, error) {
	r, err := c.doCtx(ctx, "LPOP", key)
	if err != nil {
		return "", err
	}
	s, ok := r.str()
	if !ok {
		return "", dbcx.NewError(dbcx.CodeCommandError, "list is empty")
	}
	return s, nil
}

func (c *Conn) PopRight(ctx context.Context, key string) (string, error) {
	r, err := c.doCtx(ctx, "RPOP", key)
	if err != nil {
		return "", err
	}
	s, ok := r.str()
	if !ok {
		return "", dbcx.NewError(dbcx.CodeCommandError, "list is empty")
	}
	return s, nil
}

func (c *Conn) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	r, err := c.doCtx(ctx, "LRANGE", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	return r.strs(), nil
}

func (c *Conn) Length(ctx context.Context, key string) (int64, error) {
	r, err := c.doCtx(ctx, "LLEN", key)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}
