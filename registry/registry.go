// Package registry tracks the callbacks guest extensions register.
//
// Each callback kind binds to a fixed export of the registering module;
// the export is resolved and its signature checked once, at
// registration, and the resolved function rides on the descriptor.
package registry

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/engine"
	"github.com/ryarnyah/collectd-wasm/errors"
)

// Callback is one registered guest callback. Object is the token the
// guest supplied at registration; it is passed back as the first
// argument of every invocation.
type Callback struct {
	Name      string
	Kind      collectdwasm.CallbackKind
	Extension *engine.Extension
	Object    int32
	fn        api.Function
}

// Invoke calls the callback's export under the binding carried by ctx.
// extra follows the object token in the argument list. The result is
// the guest's status code.
func (c *Callback) Invoke(ctx context.Context, extra ...uint64) (int32, error) {
	args := make([]uint64, 0, 1+len(extra))
	args = append(args, api.EncodeI32(c.Object))
	args = append(args, extra...)

	res, err := c.Extension.Invoke(ctx, c.fn, args...)
	if err != nil {
		return -1, err
	}
	return api.DecodeI32(res[0]), nil
}

// ExportName returns the guest export each callback kind binds to.
func ExportName(kind collectdwasm.CallbackKind) string {
	switch kind {
	case collectdwasm.CallbackConfig:
		return "plugin_config"
	case collectdwasm.CallbackInit:
		return "plugin_init"
	case collectdwasm.CallbackRead:
		return "plugin_read"
	case collectdwasm.CallbackWrite:
		return "plugin_write"
	case collectdwasm.CallbackShutdown:
		return "plugin_shutdown"
	default:
		return ""
	}
}

func signature(kind collectdwasm.CallbackKind) (params, results []api.ValueType) {
	i32 := api.ValueTypeI32
	switch kind {
	case collectdwasm.CallbackConfig, collectdwasm.CallbackWrite:
		// (object, argument handle) -> status
		return []api.ValueType{i32, i32}, []api.ValueType{i32}
	default:
		// (object) -> status
		return []api.ValueType{i32}, []api.ValueType{i32}
	}
}

// Registry is a mutex-guarded list of callbacks.
type Registry struct {
	mu        sync.Mutex
	callbacks []*Callback
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register resolves the export for kind on ext and records the
// callback. Resolution failure, including a signature mismatch, is a
// lookup error and nothing is recorded.
func (r *Registry) Register(kind collectdwasm.CallbackKind, name string, ext *engine.Extension, object int32) (*Callback, error) {
	export := ExportName(kind)
	if export == "" {
		return nil, errors.Lookup(errors.PhaseLoad, "unknown callback kind %d", int(kind))
	}

	params, results := signature(kind)
	fn, err := ext.Resolve(export, params, results)
	if err != nil {
		return nil, err
	}

	cb := &Callback{Name: name, Kind: kind, Extension: ext, Object: object, fn: fn}

	r.mu.Lock()
	r.callbacks = append(r.callbacks, cb)
	r.mu.Unlock()
	return cb, nil
}

// ByKind returns the callbacks of one kind in registration order.
func (r *Registry) ByKind(kind collectdwasm.CallbackKind) []*Callback {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Callback
	for _, cb := range r.callbacks {
		if cb.Kind == kind {
			out = append(out, cb)
		}
	}
	return out
}

// Find returns the first callback matching kind and name.
func (r *Registry) Find(kind collectdwasm.CallbackKind, name string) (*Callback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.callbacks {
		if cb.Kind == kind && cb.Name == name {
			return cb, true
		}
	}
	return nil, false
}

// Remove drops the first callback matching kind and name.
func (r *Registry) Remove(kind collectdwasm.CallbackKind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, cb := range r.callbacks {
		if cb.Kind == kind && cb.Name == name {
			r.callbacks = append(r.callbacks[:i], r.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// Drain empties the registry and returns what it held.
func (r *Registry) Drain() []*Callback {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.callbacks
	r.callbacks = nil
	return out
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks)
}
