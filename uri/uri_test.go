package uri

import "testing"

func TestParseHostPortAndDB(t *testing.T) {
	p, err := Parse("dbcx:redis://localhost:6379/2", 6379)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Scheme != "redis" || p.Host != "localhost" || p.Port != 6379 || p.DB != "2" {
		t.Errorf("unexpected parse result: %+v", p)
	}
}

func TestParseUsesDefaultPort(t *testing.T) {
	p, err := Parse("dbcx:redis://localhost/0", 6379)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Port != 6379 {
		t.Errorf("expected default port 6379, got %d", p.Port)
	}
}

func TestParseWithoutDBPath(t *testing.T) {
	p, err := Parse("dbcx:mysql://db.internal:3306", 3306)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.DB != "" {
		t.Errorf("expected empty DB path, got %q", p.DB)
	}
}

func TestParseBracketedIPv6(t *testing.T) {
	p, err := Parse("dbcx:redis://[::1]:1234/0", 6379)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Host != "::1" || p.Port != 1234 {
		t.Errorf("expected host=::1 port=1234, got host=%q port=%d", p.Host, p.Port)
	}
}

func TestParseBracketedIPv6WithoutPort(t *testing.T) {
	p, err := Parse("dbcx:redis://[::1]/0", 6379)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Host != "::1" || p.Port != 6379 {
		t.Errorf("expected host=::1 default port=6379, got host=%q port=%d", p.Host, p.Port)
	}
}

func TestParseInvalidURIMissingScheme(t *testing.T) {
	if _, err := Parse("localhost:6379/0", 6379); err == nil {
		t.Fatal("expected error for URL missing a \"://\" scheme separator")
	}
}

func TestParseInvalidURIEmptyHost(t *testing.T) {
	if _, err := Parse("dbcx:redis:///0", 6379); err == nil {
		t.Fatal("expected error for URL with an empty host")
	}
}

func TestParseInvalidURIBadPort(t *testing.T) {
	if _, err := Parse("dbcx:redis://localhost:abc/0", 6379); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestParseIntOrFallback(t *testing.T) {
	n, err := ParseIntOr("", 7)
	if err != nil || n != 7 {
		t.Errorf("expected fallback 7, got n=%d err=%v", n, err)
	}
}

func TestParseIntOrRejectsNonNumeric(t *testing.T) {
	if _, err := ParseIntOr("abc", 0); err == nil {
		t.Fatal("expected error for non-numeric db path component")
	}
}
