package dbcx

import "io"

// Blob is a sized binary payload carrier exposed through prepared-statement
// parameters and result-set getters in relational backends (spec.md §2).
// The pool itself never looks inside a Blob; it only flows through the
// relational connection contract.
type Blob struct {
	data []byte
}

// NewBlob wraps an in-memory byte slice as a Blob. The slice is copied so
// later mutation by the caller cannot corrupt a pending write.
func NewBlob(data []byte) *Blob {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Blob{data: cp}
}

// NewBlobFromReader reads r fully into a Blob.
func NewBlobFromReader(r io.Reader) (*Blob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Wrap(CodeUnknownError, err)
	}
	return &Blob{data: data}, nil
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.data))
}

// Bytes returns the payload. Callers must not mutate the returned slice.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Reader returns a fresh reader over the payload.
func (b *Blob) Reader() io.Reader {
	if b == nil {
		return nil
	}
	return &blobReader{data: b.data}
}

type blobReader struct {
	data []byte
	pos  int
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
