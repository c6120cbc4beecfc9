package mysqldriver

import (
	"crypto/sha1" //nolint:gosec // mysql_native_password is defined in terms of SHA-1
	"net"

	"github.com/dbcx/dbcx"
)

const (
	clientLongPassword     = uint32(1)
	clientConnectWithDB    = uint32(8)
	clientProtocol41       = uint32(512)
	clientSecureConnection = uint32(32768)
	clientPluginAuth       = uint32(1 << 19)
)

// handshake performs Protocol::HandshakeV10 and mysql_native_password
// authentication, adapted from dbbouncer's authenticateMySQL.
func handshake(conn net.Conn, user, password, dbname string) error {
	pkt, _, err := readPacket(conn)
	if err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) < 1 {
		return dbcx.NewError(dbcx.CodeTransportError, "empty server handshake")
	}
	if pkt[0] == 0xff {
		return dbcx.NewError(dbcx.CodeAuthError, "server sent error on connect")
	}

	pos := 1
	for pos < len(pkt) && pkt[pos] != 0 {
		pos++
	}
	pos++
	if pos+4 > len(pkt) {
		return dbcx.NewError(dbcx.CodeTransportError, "handshake packet too short")
	}
	pos += 4 // connection_id

	if pos+8 > len(pkt) {
		return dbcx.NewError(dbcx.CodeTransportError, "handshake packet too short for auth data")
	}
	authData := append([]byte{}, pkt[pos:pos+8]...)
	pos += 8
	pos++ // filler

	if pos+2 > len(pkt) {
		return dbcx.NewError(dbcx.CodeTransportError, "handshake packet too short for capabilities")
	}
	capLow := uint32(pkt[pos]) | uint32(pkt[pos+1])<<8
	pos += 2
	pos += 3 // charset + status flags

	if pos+2 > len(pkt) {
		return dbcx.NewError(dbcx.CodeTransportError, "handshake packet too short for capabilities high")
	}
	capHigh := (uint32(pkt[pos]) | uint32(pkt[pos+1])<<8) << 16
	capFlags := capLow | capHigh
	pos += 2

	var authPluginDataLen int
	if pos < len(pkt) {
		authPluginDataLen = int(pkt[pos])
		pos++
	}
	pos += 10 // reserved

	part2Len := authPluginDataLen - 8
	if part2Len < 13 {
		part2Len = 13
	}
	if pos+part2Len > len(pkt) {
		part2Len = len(pkt) - pos
	}
	if part2Len > 0 {
		part2 := pkt[pos : pos+part2Len]
		if len(part2) > 0 && part2[len(part2)-1] == 0 {
			part2 = part2[:len(part2)-1]
		}
		authData = append(authData, part2...)
	}
	pos += part2Len

	pluginName := "mysql_native_password"
	if capFlags&clientPluginAuth != 0 && pos < len(pkt) {
		end := pos
		for end < len(pkt) && pkt[end] != 0 {
			end++
		}
		pluginName = string(pkt[pos:end])
	}

	var authResp []byte
	if pluginName == "mysql_native_password" {
		authResp = nativePasswordHash([]byte(password), authData)
	}

	clientCaps := clientLongPassword | clientProtocol41 | clientSecureConnection | clientPluginAuth | clientConnectWithDB
	var resp []byte
	resp = append(resp, byte(clientCaps), byte(clientCaps>>8), byte(clientCaps>>16), byte(clientCaps>>24))
	resp = append(resp, 0xff, 0xff, 0xff, 0x00)
	resp = append(resp, 0x21)
	resp = append(resp, make([]byte, 23)...)
	resp = append(resp, []byte(user)...)
	resp = append(resp, 0)
	resp = append(resp, byte(len(authResp)))
	resp = append(resp, authResp...)
	resp = append(resp, []byte(dbname)...)
	resp = append(resp, 0)
	resp = append(resp, []byte("mysql_native_password")...)
	resp = append(resp, 0)

	if err := writePacket(conn, resp, 1); err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	pkt, _, err = readPacket(conn)
	if err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) < 1 {
		return dbcx.NewError(dbcx.CodeTransportError, "empty auth result")
	}

	switch pkt[0] {
	case 0x00:
		return nil
	case 0xfe:
		return handleAuthSwitch(conn, pkt, password)
	case 0xff:
		return dbcx.NewError(dbcx.CodeAuthError, parseErrPacket(pkt))
	default:
		return dbcx.NewError(dbcx.CodeTransportError, "unexpected auth response byte")
	}
}

func handleAuthSwitch(conn net.Conn, pkt []byte, password string) error {
	if len(pkt) < 2 {
		return dbcx.NewError(dbcx.CodeTransportError, "malformed AuthSwitchRequest")
	}
	nameEnd := 1
	for nameEnd < len(pkt) && pkt[nameEnd] != 0 {
		nameEnd++
	}
	plugin := string(pkt[1:nameEnd])
	var switchData []byte
	if nameEnd+1 < len(pkt) {
		switchData = pkt[nameEnd+1:]
		if len(switchData) > 0 && switchData[len(switchData)-1] == 0 {
			switchData = switchData[:len(switchData)-1]
		}
	}
	if plugin != "mysql_native_password" {
		return dbcx.NewError(dbcx.CodeAuthError, "unsupported auth plugin switch: "+plugin)
	}
	resp := nativePasswordHash([]byte(password), switchData)
	if err := writePacket(conn, resp, 3); err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	pkt, _, err := readPacket(conn)
	if err != nil {
		return dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	if len(pkt) < 1 || pkt[0] != 0x00 {
		return dbcx.NewError(dbcx.CodeAuthError, "authentication failed after plugin switch")
	}
	return nil
}

// nativePasswordHash computes SHA1(password) XOR SHA1(authData + SHA1(SHA1(password))).
func nativePasswordHash(password, authData []byte) []byte {
	if len(password) == 0 {
		return []byte{}
	}
	h1 := sha1.Sum(password) //nolint:gosec
	h2 := sha1.Sum(h1[:])    //nolint:gosec
	h := sha1.New()          //nolint:gosec
	h.Write(authData)
	h.Write(h2[:])
	h3 := h.Sum(nil)
	out := make([]byte, 20)
	for i := range out {
		out[i] = h1[i] ^ h3[i]
	}
	return out
}
