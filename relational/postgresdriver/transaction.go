package postgresdriver

import (
	"context"

	"github.com/dbcx/dbcx"
)

func (c *Conn) executeQuery(ctx context.Context, sql string) (*resultSet, error) {
	return c.simpleQuery(ctx, sql)
}

func (c *Conn) executeUpdate(ctx context.Context, sql string) (int64, error) {
	rs, err := c.simpleQuery(ctx, sql)
	if err != nil {
		return 0, err
	}
	return rs.affected, nil
}

func (c *Conn) beginTransaction(ctx context.Context) error {
	c.mu.Lock()
	already := c.inTransaction
	c.mu.Unlock()
	if already {
		return dbcx.NewError(dbcx.CodeInvalidState, "a transaction is already active")
	}
	if _, err := c.executeUpdate(ctx, "BEGIN"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inTransaction = true
	c.mu.Unlock()
	return nil
}

func (c *Conn) commit(ctx context.Context) error {
	c.mu.Lock()
	open := c.inTransaction
	c.mu.Unlock()
	if !open {
		return dbcx.NewError(dbcx.CodeInvalidState, "no active transaction to commit")
	}
	if _, err := c.executeUpdate(ctx, "COMMIT"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inTransaction = false
	c.mu.Unlock()
	return nil
}

func (c *Conn) rollback(ctx context.Context) error {
	c.mu.Lock()
	open := c.inTransaction
	c.mu.Unlock()
	if !open {
		return dbcx.NewError(dbcx.CodeInvalidState, "no active transaction to roll back")
	}
	if _, err := c.executeUpdate(ctx, "ROLLBACK"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inTransaction = false
	c.mu.Unlock()
	return nil
}

func (c *Conn) setAutoCommit(ctx context.Context, autoCommit bool) error {
	c.mu.Lock()
	c.autoCommit = autoCommit
	c.mu.Unlock()
	// PostgreSQL has no session-level autocommit toggle; callers that want
	// autocommit off simply wrap statements in BeginTransaction/Commit.
	return nil
}

func (c *Conn) getAutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCommit
}

func (c *Conn) transactionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inTransaction
}

var isolationSQL = map[dbcx.IsolationLevel]string{
	dbcx.IsolationReadUncommitted: "READ UNCOMMITTED",
	dbcx.IsolationReadCommitted:   "READ COMMITTED",
	dbcx.IsolationRepeatableRead:  "REPEATABLE READ",
	dbcx.IsolationSerializable:    "SERIALIZABLE",
}

func (c *Conn) setTransactionIsolation(ctx context.Context, level dbcx.IsolationLevel) error {
	sql, ok := isolationSQL[level]
	if !ok {
		return dbcx.NewError(dbcx.CodeInvalidState, "unsupported isolation level for PostgreSQL")
	}
	if _, err := c.executeUpdate(ctx, "SET SESSION CHARACTERISTICS AS TRANSACTION ISOLATION LEVEL "+sql); err != nil {
		return err
	}
	c.mu.Lock()
	c.isolation = level
	c.mu.Unlock()
	return nil
}

func (c *Conn) getTransactionIsolation() dbcx.IsolationLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isolation
}
