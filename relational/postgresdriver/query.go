package postgresdriver

import (
	"context"
	"encoding/binary"

	"github.com/dbcx/dbcx"
)

type row struct {
	values map[string]string
	nulls  map[string]bool
}

type resultSet struct {
	columns  []string
	rows     []row
	pos      int
	affected int64
}

func (rs *resultSet) Next() bool {
	if rs.pos < len(rs.rows) {
		rs.pos++
		return true
	}
	return false
}

func (rs *resultSet) ColumnNames() []string { return rs.columns }

func (rs *resultSet) current() (row, error) {
	if rs.pos < 1 || rs.pos > len(rs.rows) {
		return row{}, dbcx.NewError(dbcx.CodeInvalidState, "Next was not called or result set exhausted")
	}
	return rs.rows[rs.pos-1], nil
}

func (rs *resultSet) GetString(col string) (string, error) {
	r, err := rs.current()
	if err != nil {
		return "", err
	}
	return r.values[col], nil
}

func (rs *resultSet) GetInt64(col string) (int64, error) {
	s, err := rs.GetString(col)
	if err != nil {
		return 0, err
	}
	return parseInt64(s)
}

func (rs *resultSet) GetFloat64(col string) (float64, error) {
	s, err := rs.GetString(col)
	if err != nil {
		return 0, err
	}
	return parseFloat64(s)
}

func (rs *resultSet) GetBool(col string) (bool, error) {
	s, err := rs.GetString(col)
	if err != nil {
		return false, err
	}
	return s == "t" || s == "true", nil
}

func (rs *resultSet) GetBlob(col string) (*dbcx.Blob, error) {
	s, err := rs.GetString(col)
	if err != nil {
		return nil, err
	}
	return dbcx.NewBlob([]byte(s)), nil
}

func (rs *resultSet) IsNull(col string) bool {
	r, err := rs.current()
	if err != nil {
		return true
	}
	return r.nulls[col]
}

func (rs *resultSet) Err() error   { return nil }
func (rs *resultSet) Close() error { rs.rows = nil; return nil }

// simpleQuery drives the PostgreSQL simple query protocol: RowDescription,
// zero or more DataRow, then CommandComplete/ReadyForQuery.
func (c *Conn) simpleQuery(ctx context.Context, sql string) (*resultSet, error) {
	undo := c.withDeadline(ctx)
	defer undo()
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := sendSimpleQuery(c.net, sql); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	rs := &resultSet{}
	for {
		msgType, payload, err := readMessage(c.net)
		if err != nil {
			return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
		}
		switch msgType {
		case 'T':
			rs.columns = parseRowDescription(payload)
		case 'D':
			r, err := parseDataRow(payload, rs.columns)
			if err != nil {
				return nil, err
			}
			rs.rows = append(rs.rows, r)
		case 'C':
			rs.affected = parseCommandTag(payload)
		case 'Z':
			return rs, nil
		case 'E':
			return nil, dbcx.NewError(dbcx.CodeCommandError, parseErrorMessage(payload))
		case 'I':
			// EmptyQueryResponse
		default:
			continue
		}
	}
}

func parseRowDescription(payload []byte) []string {
	if len(payload) < 2 {
		return nil
	}
	n := int(binary.BigEndian.Uint16(payload[:2]))
	cols := make([]string, 0, n)
	pos := 2
	for i := 0; i < n; i++ {
		end := pos
		for end < len(payload) && payload[end] != 0 {
			end++
		}
		cols = append(cols, string(payload[pos:end]))
		pos = end + 1 + 18 // null terminator + table oid(4) + col num(2) + type oid(4) + type len(2) + type mod(4) + format(2)
	}
	return cols
}

func parseDataRow(payload []byte, columns []string) (row, error) {
	if len(payload) < 2 {
		return row{}, dbcx.NewError(dbcx.CodeTransportError, "truncated DataRow")
	}
	n := int(binary.BigEndian.Uint16(payload[:2]))
	r := row{values: make(map[string]string, n), nulls: make(map[string]bool, n)}
	pos := 2
	for i := 0; i < n; i++ {
		if pos+4 > len(payload) {
			return row{}, dbcx.NewError(dbcx.CodeTransportError, "truncated DataRow column length")
		}
		colLen := int(int32(binary.BigEndian.Uint32(payload[pos : pos+4])))
		pos += 4
		name := ""
		if i < len(columns) {
			name = columns[i]
		}
		if colLen < 0 {
			r.nulls[name] = true
			continue
		}
		if pos+colLen > len(payload) {
			return row{}, dbcx.NewError(dbcx.CodeTransportError, "truncated DataRow column value")
		}
		r.values[name] = string(payload[pos : pos+colLen])
		pos += colLen
	}
	return r, nil
}

// parseCommandTag extracts the affected-row count from a CommandComplete
// tag like "UPDATE 3" or "INSERT 0 1".
func parseCommandTag(payload []byte) int64 {
	tag := string(payload)
	end := len(tag)
	for end > 0 && tag[end-1] == 0 {
		end--
	}
	tag = tag[:end]
	lastSpace := -1
	for i := len(tag) - 1; i >= 0; i-- {
		if tag[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if lastSpace < 0 {
		return 0
	}
	n, err := parseInt64(tag[lastSpace+1:])
	if err != nil {
		return 0
	}
	return n
}

func parseInt64(s string) (int64, error) {
	var n int64
	var neg bool
	if len(s) == 0 {
		return 0, dbcx.NewError(dbcx.CodeTypeMismatch, "empty value is not an integer")
	}
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, dbcx.NewError(dbcx.CodeTypeMismatch, "value is not an integer: "+s)
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseFloat64(s string) (float64, error) {
	var whole, frac float64
	var fracDiv float64 = 1
	seenDot := false
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, dbcx.NewError(dbcx.CodeTypeMismatch, "empty value is not a float")
	}
	for ; i < len(s); i++ {
		if s[i] == '.' {
			seenDot = true
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return 0, dbcx.NewError(dbcx.CodeTypeMismatch, "value is not a float: "+s)
		}
		d := float64(s[i] - '0')
		if seenDot {
			fracDiv *= 10
			frac += d / fracDiv
		} else {
			whole = whole*10 + d
		}
	}
	v := whole + frac
	if neg {
		v = -v
	}
	return v, nil
}
