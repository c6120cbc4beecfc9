// Package uri implements the scheme+authority+optional-path URL grammar
// shared by every dbcx backend (spec.md §6): "<prefix>scheme://host[:port][/db]".
package uri

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbcx/dbcx"
)

// Parsed holds the decomposed connection target.
type Parsed struct {
	Scheme string
	Host   string
	Port   int
	DB     string // raw path component, interpretation is backend-specific
}

// Parse splits a URL of the form "<prefix>scheme://host[:port][/db]" into
// its components. defaultPort is used when no port is present; IPv6 hosts
// must be bracketed ("[::1]:1234").
func Parse(raw string, defaultPort int) (Parsed, error) {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return Parsed{}, dbcx.NewError(dbcx.CodeInvalidURI, fmt.Sprintf("missing scheme separator in %q", raw))
	}
	schemePart := raw[:idx]
	rest := raw[idx+3:]

	scheme := schemePart
	if i := strings.LastIndex(schemePart, ":"); i >= 0 {
		scheme = schemePart[i+1:]
	}
	if scheme == "" {
		return Parsed{}, dbcx.NewError(dbcx.CodeInvalidURI, fmt.Sprintf("empty backend scheme in %q", raw))
	}

	authority := rest
	path := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		authority = rest[:i]
		path = rest[i+1:]
	}
	if authority == "" {
		return Parsed{}, dbcx.NewError(dbcx.CodeInvalidURI, fmt.Sprintf("missing host in %q", raw))
	}

	host, port, err := splitHostPort(authority, defaultPort)
	if err != nil {
		return Parsed{}, dbcx.NewError(dbcx.CodeInvalidURI, fmt.Sprintf("parsing host/port in %q: %v", raw, err))
	}

	return Parsed{Scheme: scheme, Host: host, Port: port, DB: path}, nil
}

// splitHostPort handles bracketed IPv6 literals ("[::1]:1234") and bare
// hostnames/IPv4 ("host:1234", "host").
func splitHostPort(authority string, defaultPort int) (string, int, error) {
	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return "", 0, fmt.Errorf("unterminated IPv6 literal")
		}
		host := authority[1:end]
		remainder := authority[end+1:]
		if remainder == "" {
			return host, defaultPort, nil
		}
		if !strings.HasPrefix(remainder, ":") {
			return "", 0, fmt.Errorf("unexpected characters after IPv6 literal: %q", remainder)
		}
		port, err := parsePort(remainder[1:], defaultPort)
		if err != nil {
			return "", 0, err
		}
		return host, port, nil
	}

	if i := strings.LastIndex(authority, ":"); i >= 0 {
		host := authority[:i]
		port, err := parsePort(authority[i+1:], defaultPort)
		if err != nil {
			return "", 0, err
		}
		return host, port, nil
	}
	return authority, defaultPort, nil
}

func parsePort(s string, defaultPort int) (int, error) {
	if s == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// ParseIntOr parses s as a non-negative integer, for optional path
// components like a KV/relational database number ("/2"). An empty s yields
// fallback; anything else that is not a non-negative integer yields an error.
func ParseIntOr(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}
