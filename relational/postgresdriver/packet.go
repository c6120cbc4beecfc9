package postgresdriver

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/dbcx/dbcx"
)

// readMessage reads one PostgreSQL backend message: 1-byte type + 4-byte
// length (includes itself) + payload.
func readMessage(conn net.Conn) (msgType byte, payload []byte, err error) {
	typeBuf := make([]byte, 1)
	if _, err = io.ReadFull(conn, typeBuf); err != nil {
		return 0, nil, err
	}
	lenBuf := make([]byte, 4)
	if _, err = io.ReadFull(conn, lenBuf); err != nil {
		return 0, nil, err
	}
	payloadLen := int(binary.BigEndian.Uint32(lenBuf)) - 4
	if payloadLen < 0 || payloadLen > 1<<24 {
		return 0, nil, dbcx.NewError(dbcx.CodeTransportError, "invalid PostgreSQL message length")
	}
	payload = make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err = io.ReadFull(conn, payload); err != nil {
			return 0, nil, err
		}
	}
	return typeBuf[0], payload, nil
}

func readAuthMessage(conn net.Conn, expectedAuthType uint32) ([]byte, error) {
	msgType, payload, err := readMessage(conn)
	if err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if msgType == 'E' {
		return nil, dbcx.NewError(dbcx.CodeAuthError, parseErrorMessage(payload))
	}
	if msgType != 'R' {
		return nil, dbcx.NewError(dbcx.CodeTransportError, "expected Authentication message")
	}
	if len(payload) < 4 {
		return nil, dbcx.NewError(dbcx.CodeTransportError, "authentication message too short")
	}
	authType := binary.BigEndian.Uint32(payload[:4])
	if authType != expectedAuthType {
		return nil, dbcx.NewError(dbcx.CodeAuthError, "unexpected authentication subtype")
	}
	return payload[4:], nil
}

func parseNullTerminatedPair(data []byte) (string, string) {
	for i := 0; i < len(data); i++ {
		if data[i] == 0 {
			key := string(data[:i])
			rest := data[i+1:]
			for j := 0; j < len(rest); j++ {
				if rest[j] == 0 {
					return key, string(rest[:j])
				}
			}
			return key, string(rest)
		}
	}
	return "", ""
}

func parseErrorMessage(payload []byte) string {
	for i := 0; i < len(payload); i++ {
		fieldType := payload[i]
		if fieldType == 0 {
			break
		}
		i++
		end := i
		for end < len(payload) && payload[end] != 0 {
			end++
		}
		if fieldType == 'M' {
			return string(payload[i:end])
		}
		i = end
	}
	return "unknown PostgreSQL error"
}
