// Package postgresdriver implements the RelationalDriver contract over the
// PostgreSQL wire protocol: the startup/authentication handshake
// (cleartext, MD5, SCRAM-SHA-256) and the simple query protocol, adapted
// from dbbouncer's internal/pool/pool.go (authenticatePG) and
// internal/pool/scram.go.
package postgresdriver

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dbcx/dbcx"
)

// scramSHA256Auth performs the SASL SCRAM-SHA-256 exchange given the
// AuthenticationSASL payload (mechanism list) already read from conn.
func scramSHA256Auth(conn net.Conn, user, password string, saslPayload []byte) error {
	mechanisms := parseSASLMechanisms(saslPayload[4:])
	if !containsMechanism(mechanisms, "SCRAM-SHA-256") {
		return dbcx.NewError(dbcx.CodeAuthError, "server does not support SCRAM-SHA-256")
	}

	nonceBytes := make([]byte, 18)
	if _, err := rand.Read(nonceBytes); err != nil {
		return dbcx.Wrap(dbcx.CodeAuthError, err)
	}
	clientNonce := base64.StdEncoding.EncodeToString(nonceBytes)

	gs2Header := "n,,"
	clientFirstBare := "n=" + saslEscapeUsername(user) + ",r=" + clientNonce
	clientFirstMsg := gs2Header + clientFirstBare

	if err := sendSASLInitialResponse(conn, "SCRAM-SHA-256", []byte(clientFirstMsg)); err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	serverFirstMsg, err := readAuthMessage(conn, 11)
	if err != nil {
		return err
	}

	serverNonce, salt, iterations, err := parseServerFirst(string(serverFirstMsg))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(serverNonce, clientNonce) {
		return dbcx.NewError(dbcx.CodeAuthError, "server nonce does not start with client nonce")
	}

	saltedPassword := pbkdf2.Key([]byte(password), salt, iterations, 32, sha256.New)
	clientKey := hmacSHA256(saltedPassword, []byte("Client Key"))
	storedKey := sha256Sum(clientKey)

	channelBinding := "c=" + base64.StdEncoding.EncodeToString([]byte(gs2Header))
	clientFinalWithoutProof := channelBinding + ",r=" + serverNonce

	authMessage := clientFirstBare + "," + string(serverFirstMsg) + "," + clientFinalWithoutProof
	clientSignature := hmacSHA256(storedKey, []byte(authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	clientFinalMsg := clientFinalWithoutProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	if err := sendSASLResponse(conn, []byte(clientFinalMsg)); err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	serverFinalMsg, err := readAuthMessage(conn, 12)
	if err != nil {
		return err
	}

	serverKey := hmacSHA256(saltedPassword, []byte("Server Key"))
	expectedServerSig := hmacSHA256(serverKey, []byte(authMessage))
	expectedServerFinal := "v=" + base64.StdEncoding.EncodeToString(expectedServerSig)
	if string(serverFinalMsg) != expectedServerFinal {
		return dbcx.NewError(dbcx.CodeAuthError, "server SCRAM signature mismatch")
	}
	return nil
}

func parseSASLMechanisms(data []byte) []string {
	var mechs []string
	for len(data) > 0 {
		idx := 0
		for idx < len(data) && data[idx] != 0 {
			idx++
		}
		if idx > 0 {
			mechs = append(mechs, string(data[:idx]))
		}
		if idx >= len(data) {
			break
		}
		data = data[idx+1:]
	}
	return mechs
}

func containsMechanism(mechs []string, target string) bool {
	for _, m := range mechs {
		if m == target {
			return true
		}
	}
	return false
}

func parseServerFirst(msg string) (nonce string, salt []byte, iterations int, err error) {
	for _, part := range strings.Split(msg, ",") {
		switch {
		case strings.HasPrefix(part, "r="):
			nonce = part[2:]
		case strings.HasPrefix(part, "s="):
			salt, err = base64.StdEncoding.DecodeString(part[2:])
			if err != nil {
				return "", nil, 0, dbcx.Wrap(dbcx.CodeAuthError, err)
			}
		case strings.HasPrefix(part, "i="):
			iterations, _ = strconv.Atoi(part[2:])
		}
	}
	if nonce == "" || salt == nil || iterations == 0 {
		return "", nil, 0, dbcx.NewError(dbcx.CodeAuthError, "incomplete SCRAM server-first-message")
	}
	return nonce, salt, iterations, nil
}

func saslEscapeUsername(user string) string {
	user = strings.ReplaceAll(user, "=", "=3D")
	user = strings.ReplaceAll(user, ",", "=2C")
	return user
}

func sendSASLInitialResponse(conn net.Conn, mechanism string, clientFirstMsg []byte) error {
	var payload []byte
	payload = append(payload, mechanism...)
	payload = append(payload, 0)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(clientFirstMsg)))
	payload = append(payload, lenBuf...)
	payload = append(payload, clientFirstMsg...)
	return sendPasswordMessage(conn, payload)
}

func sendSASLResponse(conn net.Conn, data []byte) error {
	return sendPasswordMessage(conn, data)
}

func sendPasswordMessage(conn net.Conn, payload []byte) error {
	msgLen := len(payload) + 4
	buf := make([]byte, 1+4+len(payload))
	buf[0] = 'p'
	binary.BigEndian.PutUint32(buf[1:5], uint32(msgLen))
	copy(buf[5:], payload)
	_, err := conn.Write(buf)
	return err
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Sum(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func xorBytes(a, b []byte) []byte {
	result := make([]byte, len(a))
	for i := range a {
		result[i] = a[i] ^ b[i]
	}
	return result
}
