// Package mysqldriver implements the RelationalDriver contract over the
// MySQL wire protocol: Protocol::HandshakeV10, mysql_native_password
// authentication, and the COM_QUERY text protocol, adapted from
// dbbouncer's packet-framing and handshake code in internal/pool/pool.go.
// spec.md's Non-goals exclude wire-encoding precision for the relational
// family, so the text-protocol result-set decoding here covers the common
// column types rather than every MySQL column/collation combination.
package mysqldriver

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/dbcx/dbcx"
)

// readPacket reads one MySQL packet: 3-byte length + 1-byte sequence + payload.
func readPacket(conn net.Conn) (payload []byte, seq byte, err error) {
	hdr := make([]byte, 4)
	if _, err = io.ReadFull(conn, hdr); err != nil {
		return nil, 0, err
	}
	length := int(hdr[0]) | int(hdr[1])<<8 | int(hdr[2])<<16
	seq = hdr[3]
	if length == 0 {
		return []byte{}, seq, nil
	}
	payload = make([]byte, length)
	if _, err = io.ReadFull(conn, payload); err != nil {
		return nil, seq, err
	}
	return payload, seq, nil
}

// writePacket writes one MySQL packet with the given sequence number.
func writePacket(conn net.Conn, payload []byte, seq byte) error {
	hdr := make([]byte, 4)
	length := len(payload)
	hdr[0] = byte(length)
	hdr[1] = byte(length >> 8)
	hdr[2] = byte(length >> 16)
	hdr[3] = seq
	buf := append(hdr, payload...)
	_, err := conn.Write(buf)
	return err
}

// parseErrPacket extracts the error message from an ERR_Packet: 0xff(1) +
// error_code(2) + '#'(1) + sqlstate(5) + message.
func parseErrPacket(pkt []byte) string {
	if len(pkt) < 9 {
		return "unknown MySQL error"
	}
	return string(pkt[9:])
}

// readLengthEncodedInt reads a MySQL length-encoded integer at pos,
// returning its value and the number of bytes it occupied.
func readLengthEncodedInt(data []byte, pos int) (uint64, int, error) {
	if pos >= len(data) {
		return 0, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated length-encoded integer")
	}
	first := data[pos]
	switch {
	case first < 0xfb:
		return uint64(first), 1, nil
	case first == 0xfb:
		return 0, 1, nil // NULL marker
	case first == 0xfc:
		if pos+3 > len(data) {
			return 0, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated 2-byte length-encoded integer")
		}
		return uint64(binary.LittleEndian.Uint16(data[pos+1 : pos+3])), 3, nil
	case first == 0xfd:
		if pos+4 > len(data) {
			return 0, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated 3-byte length-encoded integer")
		}
		return uint64(data[pos+1]) | uint64(data[pos+2])<<8 | uint64(data[pos+3])<<16, 4, nil
	case first == 0xfe:
		if pos+9 > len(data) {
			return 0, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated 8-byte length-encoded integer")
		}
		return binary.LittleEndian.Uint64(data[pos+1 : pos+9]), 9, nil
	default:
		return 0, 0, dbcx.NewError(dbcx.CodeTransportError, "invalid length-encoded integer prefix")
	}
}

// readLengthEncodedString reads a length-encoded string at pos, reporting
// whether it was NULL (0xfb prefix) and the number of bytes consumed.
func readLengthEncodedString(data []byte, pos int) (s string, isNull bool, consumed int, err error) {
	if pos < len(data) && data[pos] == 0xfb {
		return "", true, 1, nil
	}
	n, lenBytes, err := readLengthEncodedInt(data, pos)
	if err != nil {
		return "", false, 0, err
	}
	start := pos + lenBytes
	end := start + int(n)
	if end > len(data) {
		return "", false, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated length-encoded string")
	}
	return string(data[start:end]), false, lenBytes + int(n), nil
}
