package redisdriver

import (
	"context"
	"strconv"

	"github.com/dbcx/dbcx"
)

func (c *Conn) SetString(ctx context.Context, key, value string, expirySeconds int64) error {
	args := []string{"SET", key, value}
	if expirySeconds > 0 {
		args = append(args, "EX", strconv.FormatInt(expirySeconds, 10))
	}
	_, err := c.doCtx(ctx, args...)
	return err
}

func (c *Conn) GetString(ctx context.Context, key string) (string, error) {
	r, err := c.doCtx(ctx, "GET", key)
	if err != nil {
		return "", err
	}
	s, ok := r.str()
	if !ok {
		return "", dbcx.NewError(dbcx.CodeCommandError, "key does not exist")
	}
	return s, nil
}

func (c *Conn) Exists(ctx context.Context, key string) (bool, error) {
	r, err := c.doCtx(ctx, "EXISTS", key)
	if err != nil {
		return false, err
	}
	n, err := intReply(r)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Conn) DeleteKey(ctx context.Context, key string) (int64, error) {
	return c.DeleteKeys(ctx, []string{key})
}

func (c *Conn) DeleteKeys(ctx context.Context, keys []string) (int64, error) {
	args := append([]string{"DEL"}, keys...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	r, err := c.doCtx(ctx, "EXPIRE", key, strconv.FormatInt(seconds, 10))
	if err != nil {
		return false, err
	}
	n, err := intReply(r)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Conn) GetTTL(ctx context.Context, key string) (int64, error) {
	r, err := c.doCtx(ctx, "TTL", key)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) Increment(ctx context.Context, key string, by int64) (int64, error) {
	r, err := c.doCtx(ctx, "INCRBY", key, strconv.FormatInt(by, 10))
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) Decrement(ctx context.Context, key string, by int64) (int64, error) {
	r, err := c.doCtx(ctx, "DECRBY", key, strconv.FormatInt(by, 10))
	if err != nil {
		return 0, err
	}
	return intReply(r)
}
