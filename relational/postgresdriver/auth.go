package postgresdriver

import (
	"crypto/md5" //nolint:gosec // PostgreSQL's md5 password method is defined in terms of MD5
	"encoding/binary"
	"encoding/hex"
	"net"

	"github.com/dbcx/dbcx"
)

// handshake sends the startup message and drives the authentication
// exchange through to ReadyForQuery, adapted from dbbouncer's authenticatePG.
func handshake(conn net.Conn, user, password, dbname string) (params map[string]string, err error) {
	var body []byte
	ver := make([]byte, 4)
	binary.BigEndian.PutUint32(ver, 3<<16)
	body = append(body, ver...)
	body = append(body, "user"...)
	body = append(body, 0)
	body = append(body, user...)
	body = append(body, 0)
	body = append(body, "database"...)
	body = append(body, 0)
	body = append(body, dbname...)
	body = append(body, 0)
	body = append(body, 0)

	msgLen := make([]byte, 4)
	binary.BigEndian.PutUint32(msgLen, uint32(4+len(body)))
	if _, err := conn.Write(append(msgLen, body...)); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	params = make(map[string]string)
	for {
		msgType, payload, err := readMessage(conn)
		if err != nil {
			return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
		}

		switch msgType {
		case 'R':
			if len(payload) < 4 {
				return nil, dbcx.NewError(dbcx.CodeTransportError, "authentication message too short")
			}
			authType := binary.BigEndian.Uint32(payload[:4])
			switch authType {
			case 0:
				continue
			case 3:
				if err := sendPasswordMessage(conn, []byte(password)); err != nil {
					return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
				}
			case 5:
				if len(payload) < 8 {
					return nil, dbcx.NewError(dbcx.CodeTransportError, "MD5 auth message too short")
				}
				salt := payload[4:8]
				md5Pass := []byte(computeMD5Password(user, password, salt))
				if err := sendPasswordMessage(conn, md5Pass); err != nil {
					return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
				}
			case 10:
				if err := scramSHA256Auth(conn, user, password, payload); err != nil {
					return nil, err
				}
			default:
				return nil, dbcx.NewError(dbcx.CodeAuthError, "unsupported PostgreSQL auth type")
			}

		case 'S':
			key, val := parseNullTerminatedPair(payload)
			if key != "" {
				params[key] = val
			}

		case 'K':
			// BackendKeyData: not retained, cancellation requests are out of scope.

		case 'Z':
			if len(payload) >= 1 && payload[0] == 'I' {
				return params, nil
			}
			return nil, dbcx.NewError(dbcx.CodeTransportError, "unexpected transaction status after auth")

		case 'E':
			return nil, dbcx.NewError(dbcx.CodeAuthError, parseErrorMessage(payload))

		default:
			continue
		}
	}
}

// computeMD5Password computes "md5" + md5(md5(password+user) + salt).
func computeMD5Password(user, password string, salt []byte) string {
	h1 := md5.Sum([]byte(password + user)) //nolint:gosec
	hex1 := hex.EncodeToString(h1[:])
	h2 := md5.Sum(append([]byte(hex1), salt...)) //nolint:gosec
	return "md5" + hex.EncodeToString(h2[:])
}
