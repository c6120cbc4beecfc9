package postgresdriver

import (
	"context"
	"strconv"
	"strings"

	"github.com/dbcx/dbcx"
)

// statement is a client-side prepared statement over PostgreSQL's
// "$1, $2, ..." placeholder syntax, substituted into one simple-query
// message. See mysqldriver.statement for the rationale (spec.md's
// relational Non-goals exclude wire-encoding precision for the extended
// query protocol).
type statement struct {
	conn   *Conn
	sql    string
	params int
	args   map[int]string
}

func (c *Conn) prepareStatement(sql string) *statement {
	count := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '$' {
			count++
		}
	}
	return &statement{conn: c, sql: sql, params: count, args: make(map[int]string)}
}

func (s *statement) set(index int, literal string) error {
	if index < 0 || index >= s.params {
		return dbcx.NewError(dbcx.CodeInvalidState, "parameter index out of range")
	}
	s.args[index] = literal
	return nil
}

func (s *statement) SetString(index int, value string) error {
	return s.set(index, "'"+strings.ReplaceAll(value, "'", "''")+"'")
}

func (s *statement) SetInt64(index int, value int64) error {
	return s.set(index, strconv.FormatInt(value, 10))
}

func (s *statement) SetFloat64(index int, value float64) error {
	return s.set(index, strconv.FormatFloat(value, 'f', -1, 64))
}

func (s *statement) SetBool(index int, value bool) error {
	if value {
		return s.set(index, "TRUE")
	}
	return s.set(index, "FALSE")
}

func (s *statement) SetBlob(index int, value *dbcx.Blob) error {
	return s.set(index, "'\\x"+hexEncode(value.Bytes())+"'")
}

func (s *statement) SetNull(index int) error {
	return s.set(index, "NULL")
}

func (s *statement) render() (string, error) {
	out := s.sql
	// Substitute from the highest-numbered placeholder down so "$1" never
	// matches as a prefix of "$10" before $10 itself is replaced.
	for i := s.params - 1; i >= 0; i-- {
		literal, ok := s.args[i]
		if !ok {
			return "", dbcx.NewError(dbcx.CodeInvalidState, "unbound parameter at position "+strconv.Itoa(i))
		}
		placeholder := "$" + strconv.Itoa(i+1)
		out = strings.ReplaceAll(out, placeholder, literal)
	}
	return out, nil
}

func (s *statement) ExecuteQuery(ctx context.Context) (dbcx.ResultSet, error) {
	sql, err := s.render()
	if err != nil {
		return nil, err
	}
	return s.conn.executeQuery(ctx, sql)
}

func (s *statement) ExecuteUpdate(ctx context.Context) (int64, error) {
	sql, err := s.render()
	if err != nil {
		return 0, err
	}
	return s.conn.executeUpdate(ctx, sql)
}

func (s *statement) Close() error { return nil }

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0f]
	}
	return string(out)
}
