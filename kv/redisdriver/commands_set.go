package redisdriver

import "context"

func (c *Conn) SetAdd(ctx context.Context, key string, members ...string) (int64, error) {
	args := append([]string{"SADD", key}, members...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) SetRemove(ctx context.Context, key string, members ...string) (int64, error) {
	args := append([]string{"SREM", key}, members...)
	r, err := c.doCtx(ctx, args...)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}

func (c *Conn) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	r, err := c.doCtx(ctx, "SISMEMBER", key, member)
	if err != nil {
		return false, err
	}
	n, err := intReply(r)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Conn) SetMembers(ctx context.Context, key string) ([]string, error) {
	r, err := c.doCtx(ctx, "SMEMBERS", key)
	if err != nil {
		return nil, err
	}
	return r.strs(), nil
}

func (c *Conn) SetSize(ctx context.Context, key string) (int64, error) {
	r, err := c.doCtx(ctx, "SCARD", key)
	if err != nil {
		return 0, err
	}
	return intReply(r)
}
