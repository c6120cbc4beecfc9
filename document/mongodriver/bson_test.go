package mongodriver

import "testing"

func TestEncodeDecodeDocumentRoundTrip(t *testing.T) {
	doc := D{
		{Key: "ok", Value: float64(1)},
		{Key: "name", Value: "widgets"},
		{Key: "count", Value: int32(42)},
		{Key: "big", Value: int64(1 << 40)},
		{Key: "active", Value: true},
		{Key: "missing", Value: nil},
		{Key: "tags", Value: []any{"a", "b"}},
		{Key: "nested", Value: D{{Key: "x", Value: int32(1)}}},
	}

	encoded := EncodeDocument(doc)
	decoded, n, err := DecodeDocument(encoded)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("expected to consume %d bytes, consumed %d", len(encoded), n)
	}

	m := decoded.Map()
	if m["name"] != "widgets" {
		t.Errorf("expected name=widgets, got %v", m["name"])
	}
	if m["count"] != int32(42) {
		t.Errorf("expected count=42, got %v", m["count"])
	}
	if m["big"] != int64(1<<40) {
		t.Errorf("expected big=2^40, got %v", m["big"])
	}
	if m["active"] != true {
		t.Errorf("expected active=true, got %v", m["active"])
	}
	if m["missing"] != nil {
		t.Errorf("expected missing=nil, got %v", m["missing"])
	}
	tags, ok := m["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("unexpected tags: %+v", m["tags"])
	}
}

func TestMapToDRoundTrip(t *testing.T) {
	m := map[string]any{"a": int32(1), "b": "two"}
	d := MapToD(m)
	back := d.Map()
	if back["a"] != int32(1) || back["b"] != "two" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestDocumentGet(t *testing.T) {
	d := D{{Key: "ok", Value: float64(1)}}
	v, ok := d.Get("ok")
	if !ok || v != float64(1) {
		t.Errorf("expected ok=1, got %v, %v", v, ok)
	}
	if _, ok := d.Get("missing"); ok {
		t.Error("expected missing key to report ok=false")
	}
}
