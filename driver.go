package dbcx

import "context"

// Driver is a per-backend connection factory. Every backend package
// (redisdriver, mysqldriver, postgresdriver, mongodriver) registers one
// instance of its Driver with the process-wide Registry.
type Driver interface {
	// Name identifies the driver for Unregister and log messages.
	Name() string

	// Accepts reports whether this driver handles the given URL. The
	// grammar is "<library-scheme>:<backend-scheme>://host[:port][/db]",
	// e.g. "dbcx:redis://localhost:6379/0".
	Accepts(url string) bool

	// Connect opens a fresh physical connection and returns it through
	// the common Connection surface. Callers that need the backend-typed
	// surface should use the typed Connect* variant on the concrete
	// driver rather than downcast Connection themselves.
	Connect(ctx context.Context, url, user, password string, options map[string]string) (Connection, error)
}

// KVDriver is implemented by drivers whose native connection family is
// key-value, so the registry can hand back a typed connection without a
// failing type assertion at the call site.
type KVDriver interface {
	Driver
	ConnectKV(ctx context.Context, url, user, password string, options map[string]string) (KVConnection, error)
}

// RelationalDriver is implemented by relational-family drivers.
type RelationalDriver interface {
	Driver
	ConnectRelational(ctx context.Context, url, user, password string, options map[string]string) (RelationalConnection, error)
}

// DocumentDriver is implemented by document-family drivers.
type DocumentDriver interface {
	Driver
	ConnectDocument(ctx context.Context, url, user, password string, options map[string]string) (DocumentConnection, error)
}
