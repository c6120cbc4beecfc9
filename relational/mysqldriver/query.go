package mysqldriver

import (
	"context"

	"github.com/dbcx/dbcx"
)

// textRow holds one decoded row of the COM_QUERY text result set protocol,
// keyed by column name.
type textRow struct {
	values map[string]string
	nulls  map[string]bool
}

// resultSet is the dbcx.ResultSet for a MySQL text-protocol query result.
type resultSet struct {
	columns []string
	rows    []textRow
	pos     int
	err     error
}

func (rs *resultSet) Next() bool {
	if rs.pos < len(rs.rows) {
		rs.pos++
		return true
	}
	return false
}

func (rs *resultSet) ColumnNames() []string { return rs.columns }

func (rs *resultSet) current() (textRow, error) {
	if rs.pos < 1 || rs.pos > len(rs.rows) {
		return textRow{}, dbcx.NewError(dbcx.CodeInvalidState, "Next was not called or result set exhausted")
	}
	return rs.rows[rs.pos-1], nil
}

func (rs *resultSet) GetString(col string) (string, error) {
	row, err := rs.current()
	if err != nil {
		return "", err
	}
	return row.values[col], nil
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
	return s == "1" || s == "true", nil
}

func (rs *resultSet) GetBlob(col string) (*dbcx.Blob, error) {
	s, err := rs.GetString(col)
	if err != nil {
		return nil, err
	}
	return dbcx.NewBlob([]byte(s)), nil
}

func (rs *resultSet) IsNull(col string) bool {
	row, err := rs.current()
	if err != nil {
		return true
	}
	return row.nulls[col]
}

func (rs *resultSet) Err() error { return rs.err }
func (rs *resultSet) Close() error {
	rs.rows = nil
	return nil
}

// executeQuery sends a COM_QUERY and decodes the MySQL text result set
// protocol: column count, column definitions, rows, terminated by EOF/OK.
func (c *Conn) executeQuery(ctx context.Context, sql string) (*resultSet, error) {
	defer c.withDeadline(ctx)()
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := append([]byte{comQuery}, []byte(sql)...)
	if err := writePacket(c.net, payload, 0); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	pkt, _, err := readPacket(c.net)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) == 0 {
		return nil, dbcx.NewError(dbcx.CodeTransportError, "empty query response")
	}
	if pkt[0] == 0xff {
		return nil, dbcx.NewError(dbcx.CodeCommandError, parseErrPacket(pkt))
	}
	if pkt[0] == 0x00 {
		// OK_Packet: a statement with no result set (handled by executeUpdate).
		return &resultSet{}, nil
	}

	colCount, _, err := readLengthEncodedInt(pkt, 0)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, colCount)
	for i := uint64(0); i < colCount; i++ {
		colPkt, _, err := readPacket(c.net)
		if err != nil {
			return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
		}
		name, err := parseColumnName(colPkt)
		if err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}

	// EOF marking the end of column definitions (pre-CLIENT_DEPRECATE_EOF).
	if _, _, err := readPacket(c.net); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	var rows []textRow
	for {
		rowPkt, _, err := readPacket(c.net)
		if err != nil {
			return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
		}
		if len(rowPkt) > 0 && (rowPkt[0] == 0xfe && len(rowPkt) < 9) {
			break // EOF_Packet: end of rows
		}
		if len(rowPkt) > 0 && rowPkt[0] == 0xff {
			return nil, dbcx.NewError(dbcx.CodeCommandError, parseErrPacket(rowPkt))
		}
		row, err := parseTextRow(rowPkt, columns)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return &resultSet{columns: columns, rows: rows}, nil
}

func parseColumnName(colPkt []byte) (string, error) {
	pos := 0
	for i := 0; i < 4; i++ { // catalog, schema, table, org_table
		_, _, n, err := readLengthEncodedString(colPkt, pos)
		if err != nil {
			return "", err
		}
		pos += n
	}
	name, _, _, err := readLengthEncodedString(colPkt, pos)
	if err != nil {
		return "", err
	}
	return name, nil
}

func parseTextRow(rowPkt []byte, columns []string) (textRow, error) {
	row := textRow{values: make(map[string]string, len(columns)), nulls: make(map[string]bool, len(columns))}
	pos := 0
	for _, col := range columns {
		s, isNull, n, err := readLengthEncodedString(rowPkt, pos)
		if err != nil {
			return textRow{}, err
		}
		pos += n
		row.values[col] = s
		row.nulls[col] = isNull
	}
	return row, nil
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
