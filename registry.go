package dbcx

import (
	"context"
	"fmt"
	"sync"
)

// Registry is a process-wide mapping from URL prefix to driver. It is the
// dispatch layer spec.md §4.3 describes: register/unregister a driver, then
// resolve a connection by scanning registered drivers for the first one
// that accepts a given URL.
type Registry struct {
	mu      sync.RWMutex
	drivers []Driver
}

// DefaultRegistry is the process-wide registry behind the package-level
// Register/Unregister/GetConnection functions. Backend packages do not
// register themselves; callers add the drivers they use with Register.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an independent registry — useful in tests that don't
// want to share state with the process-wide DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a driver to the registry. Re-registering a driver with the
// same Name replaces the previous registration (keeps registry idempotent
// across repeated package inits in tests).
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.drivers {
		if existing.Name() == d.Name() {
			r.drivers[i] = d
			return
		}
	}
	r.drivers = append(r.drivers, d)
}

// Unregister removes a driver by name. Reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.drivers {
		if d.Name() == name {
			r.drivers = append(r.drivers[:i], r.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// find returns the first registered driver that accepts url.
func (r *Registry) find(url string) Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.drivers {
		if d.Accepts(url) {
			return d
		}
	}
	return nil
}

// GetConnection dispatches to the first accepting driver's Connect.
func (r *Registry) GetConnection(ctx context.Context, url, user, password string, options map[string]string) (Connection, error) {
	d := r.find(url)
	if d == nil {
		return nil, NewError(CodeDriverUnavailable, fmt.Sprintf("no driver accepts url %q", url))
	}
	return d.Connect(ctx, url, user, password, options)
}

// GetKVConnection dispatches to the first accepting KV driver.
func (r *Registry) GetKVConnection(ctx context.Context, url, user, password string, options map[string]string) (KVConnection, error) {
	d := r.find(url)
	if d == nil {
		return nil, NewError(CodeDriverUnavailable, fmt.Sprintf("no driver accepts url %q", url))
	}
	kv, ok := d.(KVDriver)
	if !ok {
		return nil, NewError(CodeTypeMismatch, fmt.Sprintf("driver %q is not a KV driver", d.Name()))
	}
	return kv.ConnectKV(ctx, url, user, password, options)
}

// GetRelationalConnection dispatches to the first accepting relational driver.
func (r *Registry) GetRelationalConnection(ctx context.Context, url, user, password string, options map[string]string) (RelationalConnection, error) {
	d := r.find(url)
	if d == nil {
		return nil, NewError(CodeDriverUnavailable, fmt.Sprintf("no driver accepts url %q", url))
	}
	rel, ok := d.(RelationalDriver)
	if !ok {
		return nil, NewError(CodeTypeMismatch, fmt.Sprintf("driver %q is not a relational driver", d.Name()))
	}
	return rel.ConnectRelational(ctx, url, user, password, options)
}

// GetDocumentConnection dispatches to the first accepting document driver.
func (r *Registry) GetDocumentConnection(ctx context.Context, url, user, password string, options map[string]string) (DocumentConnection, error) {
	d := r.find(url)
	if d == nil {
		return nil, NewError(CodeDriverUnavailable, fmt.Sprintf("no driver accepts url %q", url))
	}
	doc, ok := d.(DocumentDriver)
	if !ok {
		return nil, NewError(CodeTypeMismatch, fmt.Sprintf("driver %q is not a document driver", d.Name()))
	}
	return doc.ConnectDocument(ctx, url, user, password, options)
}

// Register adds a driver to the process-wide DefaultRegistry.
func Register(d Driver) { DefaultRegistry.Register(d) }

// Unregister removes a driver from the process-wide DefaultRegistry.
func Unregister(name string) bool { return DefaultRegistry.Unregister(name) }

// GetConnection dispatches through the process-wide DefaultRegistry.
func GetConnection(ctx context.Context, url, user, password string, options map[string]string) (Connection, error) {
	return DefaultRegistry.GetConnection(ctx, url, user, password, options)
}
