// Package mongodriver implements dbcx.DocumentDriver over a minimal subset
// of MongoDB's wire protocol: OP_MSG framing plus enough BSON to build and
// decode the handful of server commands the document surface needs
// (hello/ping, insert, update, find, aggregate, listCollections,
// create/drop). spec.md §1 scopes MongoDB wire-encoding precision out of the
// core ("only the Redis-style adapter is specified as the protocol
// exemplar"), so this is built to interface-satisfying depth rather than
// full BSON/wire-protocol fidelity — no vendored BSON library is available
// in the example pack (the one mongo-driver file under other_examples/ is
// reference material, not an importable teacher dependency), so this is
// hand-rolled in the same wire-protocol-from-scratch style the relational
// and KV adapters use.
package mongodriver

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dbcx/dbcx"
)

// E is one ordered BSON document element. D preserves field order the way
// MongoDB commands require (the command name must be the first field).
type E struct {
	Key   string
	Value any
}

// D is an ordered BSON document, the hand-rolled analogue of the official
// driver's bson.D.
type D []E

const (
	bsonDouble   = 0x01
	bsonString   = 0x02
	bsonDocument = 0x03
	bsonArray    = 0x04
	bsonBinary   = 0x05
	bsonBool     = 0x08
	bsonNull     = 0x0A
	bsonInt32    = 0x10
	bsonInt64    = 0x12
)

// EncodeDocument serializes d as a BSON document.
func EncodeDocument(d D) []byte {
	var body []byte
	for _, e := range d {
		body = append(body, encodeElement(e.Key, e.Value)...)
	}
	total := 4 + len(body) + 1
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(total))
	out = append(out, body...)
	out = append(out, 0)
	return out
}

func encodeElement(key string, value any) []byte {
	switch v := value.(type) {
	case nil:
		return append([]byte{bsonNull}, cstring(key)...)
	case bool:
		b := byte(0)
		if v {
			b = 1
		}
		return append(append([]byte{bsonBool}, cstring(key)...), b)
	case int:
		return encodeInt(key, int64(v))
	case int32:
		return encodeInt(key, int64(v))
	case int64:
		return encodeInt(key, v)
	case float64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		return append(append([]byte{bsonDouble}, cstring(key)...), buf...)
	case string:
		return append(append([]byte{bsonString}, cstring(key)...), encodeBSONString(v)...)
	case []byte:
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(v)))
		out := append([]byte{bsonBinary}, cstring(key)...)
		out = append(out, lenBuf...)
		out = append(out, 0) // generic binary subtype
		out = append(out, v...)
		return out
	case D:
		out := append([]byte{bsonDocument}, cstring(key)...)
		return append(out, EncodeDocument(v)...)
	case map[string]any:
		out := append([]byte{bsonDocument}, cstring(key)...)
		return append(out, EncodeDocument(MapToD(v))...)
	case []any:
		out := append([]byte{bsonArray}, cstring(key)...)
		return append(out, encodeArray(v)...)
	case []D:
		arr := make([]any, len(v))
		for i, e := range v {
			arr[i] = e
		}
		out := append([]byte{bsonArray}, cstring(key)...)
		return append(out, encodeArray(arr)...)
	case []map[string]any:
		arr := make([]any, len(v))
		for i, e := range v {
			arr[i] = e
		}
		out := append([]byte{bsonArray}, cstring(key)...)
		return append(out, encodeArray(arr)...)
	default:
		// Unsupported Go type: encode as its string form rather than fail
		// the whole document, matching the "interface-satisfying depth"
		// scope of this adapter.
		return append(append([]byte{bsonString}, cstring(key)...), encodeBSONString(fmt.Sprint(v))...)
	}
}

func encodeInt(key string, v int64) []byte {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
		return append(append([]byte{bsonInt32}, cstring(key)...), buf...)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return append(append([]byte{bsonInt64}, cstring(key)...), buf...)
}

func encodeArray(items []any) []byte {
	var body []byte
	for i, item := range items {
		body = append(body, encodeElement(itoa(i), item)...)
	}
	total := 4 + len(body) + 1
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(total))
	out = append(out, body...)
	out = append(out, 0)
	return out
}

func encodeBSONString(s string) []byte {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(s)+1))
	out := append([]byte{}, lenBuf...)
	out = append(out, s...)
	out = append(out, 0)
	return out
}

func cstring(s string) []byte { return append([]byte(s), 0) }

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// DecodeDocument parses one BSON document from the front of data, returning
// the decoded elements and the number of bytes consumed.
func DecodeDocument(data []byte) (D, int, error) {
	if len(data) < 5 {
		return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON document")
	}
	total := int(binary.LittleEndian.Uint32(data[:4]))
	if total < 5 || total > len(data) {
		return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "invalid BSON document length")
	}
	pos := 4
	var doc D
	for pos < total-1 {
		elemType := data[pos]
		pos++
		key, n, err := readCString(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		value, consumed, err := decodeValue(elemType, data[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += consumed
		doc = append(doc, E{Key: key, Value: value})
	}
	return doc, total, nil
}

func readCString(data []byte) (string, int, error) {
	for i := 0; i < len(data); i++ {
		if data[i] == 0 {
			return string(data[:i]), i + 1, nil
		}
	}
	return "", 0, dbcx.NewError(dbcx.CodeTransportError, "unterminated BSON cstring")
}

func decodeValue(elemType byte, data []byte) (any, int, error) {
	switch elemType {
	case bsonDouble:
		if len(data) < 8 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON double")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data[:8])), 8, nil
	case bsonString:
		if len(data) < 4 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON string")
		}
		n := int(binary.LittleEndian.Uint32(data[:4]))
		if n < 1 || 4+n > len(data) {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "invalid BSON string length")
		}
		return string(data[4 : 4+n-1]), 4 + n, nil
	case bsonDocument:
		d, n, err := DecodeDocument(data)
		return d, n, err
	case bsonArray:
		d, n, err := DecodeDocument(data)
		if err != nil {
			return nil, 0, err
		}
		arr := make([]any, len(d))
		for i, e := range d {
			arr[i] = e.Value
		}
		return arr, n, nil
	case bsonBinary:
		if len(data) < 5 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON binary")
		}
		n := int(binary.LittleEndian.Uint32(data[:4]))
		if 5+n > len(data) {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "invalid BSON binary length")
		}
		payload := make([]byte, n)
		copy(payload, data[5:5+n])
		return payload, 5 + n, nil
	case bsonBool:
		if len(data) < 1 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON bool")
		}
		return data[0] != 0, 1, nil
	case bsonNull:
		return nil, 0, nil
	case bsonInt32:
		if len(data) < 4 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON int32")
		}
		return int32(binary.LittleEndian.Uint32(data[:4])), 4, nil
	case bsonInt64:
		if len(data) < 8 {
			return nil, 0, dbcx.NewError(dbcx.CodeTransportError, "truncated BSON int64")
		}
		return int64(binary.LittleEndian.Uint64(data[:8])), 8, nil
	default:
		// Unknown/unsupported BSON type (e.g. ObjectId, Date, Timestamp):
		// skip is not possible without a length, so surface it distinctly.
		return nil, 0, dbcx.NewError(dbcx.CodeUnknownError, "unsupported BSON element type")
	}
}

// Map converts an ordered document to a plain map, the shape the
// dbcx.Collection surface exposes to callers.
func (d D) Map() map[string]any {
	m := make(map[string]any, len(d))
	for _, e := range d {
		if nested, ok := e.Value.(D); ok {
			m[e.Key] = nested.Map()
		} else {
			m[e.Key] = e.Value
		}
	}
	return m
}

// MapToD converts a plain map into an ordered document. Field order is
// unspecified (map iteration order), which is fine for filter/update
// documents — only top-level command documents need a fixed first field,
// and those are built directly as D literals by collection.go.
func MapToD(m map[string]any) D {
	d := make(D, 0, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			d = append(d, E{Key: k, Value: MapToD(nested)})
			continue
		}
		d = append(d, E{Key: k, Value: v})
	}
	return d
}

// Get returns the value for key and whether it was present.
func (d D) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
