package mongodriver

import (
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"

	"github.com/dbcx/dbcx"
)

const opMsg = 2013

var requestCounter atomic.Int32

func nextRequestID() int32 { return requestCounter.Add(1) }

// sendOpMsg writes a single-section (kind 0, one document) OP_MSG message,
// MongoDB's wire protocol opcode 2013.
func sendOpMsg(conn net.Conn, requestID int32, doc D) error {
	body := EncodeDocument(doc)

	msg := make([]byte, 0, 16+5+len(body))
	msg = append(msg, make([]byte, 16)...) // header placeholder
	flagBits := make([]byte, 4)
	msg = append(msg, flagBits...)
	msg = append(msg, 0) // section kind 0
	msg = append(msg, body...)

	binary.LittleEndian.PutUint32(msg[0:4], uint32(len(msg)))
	binary.LittleEndian.PutUint32(msg[4:8], uint32(requestID))
	binary.LittleEndian.PutUint32(msg[8:12], 0) // responseTo
	binary.LittleEndian.PutUint32(msg[12:16], opMsg)

	_, err := conn.Write(msg)
	return err
}

// readOpMsg reads one OP_MSG reply and decodes its first (and, for this
// adapter's purposes, only) kind-0 document section.
func readOpMsg(conn net.Conn) (D, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}
	msgLen := int(binary.LittleEndian.Uint32(header[0:4]))
	opCode := int32(binary.LittleEndian.Uint32(header[12:16]))
	if opCode != opMsg {
		return nil, dbcx.NewError(dbcx.CodeTransportError, "unexpected MongoDB wire opcode")
	}
	if msgLen < 16+4+1 || msgLen > 48*1024*1024 {
		return nil, dbcx.NewError(dbcx.CodeTransportError, "invalid MongoDB message length")
	}
	rest := make([]byte, msgLen-16)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return nil, dbcx.Wrap(dbcx.CodeTransportError, err)
	}

	pos := 4 // flagBits
	for pos < len(rest) {
		kind := rest[pos]
		pos++
		switch kind {
		case 0:
			doc, _, err := DecodeDocument(rest[pos:])
			if err != nil {
				return nil, err
			}
			return doc, nil
		case 1:
			// Document sequence section: identifier cstring + documents.
			// Not produced by any command this adapter issues; skip over it
			// using its own length prefix if present.
			if pos+4 > len(rest) {
				return nil, dbcx.NewError(dbcx.CodeTransportError, "truncated document sequence section")
			}
			n := int(binary.LittleEndian.Uint32(rest[pos : pos+4]))
			pos += n
		default:
			return nil, dbcx.NewError(dbcx.CodeTransportError, "unsupported OP_MSG section kind")
		}
	}
	return nil, dbcx.NewError(dbcx.CodeTransportError, "OP_MSG reply carried no document section")
}
