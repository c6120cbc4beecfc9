package mysqldriver

import (
	"context"

	"github.com/dbcx/dbcx"
)

// executeUpdate sends a COM_QUERY expected to return an OK_Packet and
// decodes its affected-rows length-encoded integer.
func (c *Conn) executeUpdate(ctx context.Context, sql string) (int64, error) {
	defer c.withDeadline(ctx)()
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := append([]byte{comQuery}, []byte(sql)...)
	if err := writePacket(c.net, payload, 0); err != nil {
		return 0, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	pkt, _, err := readPacket(c.net)
	if err != nil {
		return 0, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) == 0 {
		return 0, dbcx.NewError(dbcx.CodeTransportError, "empty update response")
	}
	if pkt[0] == 0xff {
		return 0, dbcx.NewError(dbcx.CodeCommandError, parseErrPacket(pkt))
	}
	if pkt[0] != 0x00 {
		return 0, dbcx.NewError(dbcx.CodeCommandError, "expected OK_Packet for an update statement")
	}
	affected, _, err := readLengthEncodedInt(pkt, 1)
	if err != nil {
		return 0, err
	}
	return int64(affected), nil
}

func (c *Conn) beginTransaction(ctx context.Context) error {
	c.mu.Lock()
	alreadyOpen := c.inTransaction
	c.mu.Unlock()
	if alreadyOpen {
		return dbcx.NewError(dbcx.CodeInvalidState, "a transaction is already active")
	}
	if _, err := c.executeUpdate(ctx, "START TRANSACTION"); err != nil {
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
	val := "1"
	if !autoCommit {
		val = "0"
	}
	if _, err := c.executeUpdate(ctx, "SET autocommit="+val); err != nil {
		return err
	}
	c.mu.Lock()
	c.autoCommit = autoCommit
	c.mu.Unlock()
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
		return dbcx.NewError(dbcx.CodeInvalidState, "unsupported isolation level for MySQL")
	}
	if _, err := c.executeUpdate(ctx, "SET SESSION TRANSACTION ISOLATION LEVEL "+sql); err != nil {
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
