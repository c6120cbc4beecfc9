package redisdriver

import (
	"context"
	"strconv"

	"github.com/dbcx/dbcx"
)

func (c *Conn) SortedSetAdd(ctx context.Context, key string, score float64, member string) (int64, error) {
	r, err := c.doCtx(ctx, "ZADD", key, strconv.FormatFloat(score, 'f', -1, 64), member)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) SortedSetRemove(ctx context.Context, key string, member string) (int64, error) {
	r, err := c.doCtx(ctx, "ZREM", key, member)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) SortedSetScore(ctx context.Context, key, member string) (float64, error) {
	r, err := c.doCtx(ctx, "ZSCORE", key, member)
	if err != nil {
		return 0, err
	}
	s, ok := r.str()
	if !ok {
		return 0, dbcx.NewError(dbcx.CodeCommandError, "member does not exist")
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, dbcx.Wrap(dbcx.CodeCommandError, perr)
	}
	return f, nil
}

func (c *Conn) SortedSetRangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	r, err := c.doCtx(ctx, "ZRANGE", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	return r.strs(), nil
}

func (c *Conn) SortedSetSize(ctx context.Context, key string) (int64, error) {
	r, err := c.doCtx(ctx, "ZCARD", key)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}
