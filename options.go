package dbcx

import (
	"strconv"
	"time"
)

// DefaultConnectTimeout is used whenever connect_timeout is absent,
// non-numeric, or non-positive (spec.md §4.5: "configurable connect
// timeout... default 3000, non-positive resets to default").
const DefaultConnectTimeout = 3000 * time.Millisecond

// ConnectTimeout extracts the connect_timeout option, in milliseconds,
// falling back to DefaultConnectTimeout per spec.md §6's driver-options
// table. Every backend reads this option the same way.
func ConnectTimeout(options map[string]string) time.Duration {
	return durationOption(options, "connect_timeout", DefaultConnectTimeout)
}

// ReadTimeout extracts the relational-only read_timeout option, in
// milliseconds. Zero means "no read deadline beyond ctx's own".
func ReadTimeout(options map[string]string) time.Duration {
	return durationOption(options, "read_timeout", 0)
}

// WriteTimeout extracts the relational-only write_timeout option, in
// milliseconds. Zero means "no write deadline beyond ctx's own".
func WriteTimeout(options map[string]string) time.Duration {
	return durationOption(options, "write_timeout", 0)
}

// ClientName extracts the KV-only client_name option, or "" if absent.
func ClientName(options map[string]string) string {
	return options["client_name"]
}

// durationOption parses a millisecond integer out of options[key],
// falling back to def on a missing key, a non-numeric value, or a
// non-positive value — unknown/malformed options are ignored, never
// rejected (spec.md §6: "Unknown options are ignored").
func durationOption(options map[string]string, key string, def time.Duration) time.Duration {
	raw, ok := options[key]
	if !ok {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
