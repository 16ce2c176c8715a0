package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ryarnyah/collectd-wasm/errors"
)

// Extension is one instantiated guest module. Invocations are
// serialized per instance; wazero module instances are not reentrant.
type Extension struct {
	name string
	mod  api.Module
	mu   sync.Mutex
}

// LoadExtension compiles and instantiates a guest module. The host
// surface must be registered first so the module's "collectd" imports
// resolve. The module name must be unique within the runtime.
func (e *Engine) LoadExtension(ctx context.Context, name string, wasm []byte) (*Extension, error) {
	compiled, err := e.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Extension(errors.PhaseLoad, err, "compile %s", name)
	}

	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := e.rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Extension(errors.PhaseLoad, err, "instantiate %s", name)
	}

	return &Extension{name: name, mod: mod}, nil
}

// Name returns the module name the extension was instantiated under.
func (x *Extension) Name() string { return x.name }

// Resolve looks up an exported function and checks its signature.
// A missing export and a signature mismatch are both lookup failures.
func (x *Extension) Resolve(name string, params, results []api.ValueType) (api.Function, error) {
	fn := x.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.Lookup(errors.PhaseLoad, "%s: no export %q", x.name, name)
	}

	def := fn.Definition()
	if !typesEqual(def.ParamTypes(), params) || !typesEqual(def.ResultTypes(), results) {
		return nil, errors.Lookup(errors.PhaseLoad, "%s: export %q has signature %v->%v",
			x.name, name, def.ParamTypes(), def.ResultTypes())
	}

	return fn, nil
}

// Invoke calls a previously resolved function under the binding carried
// by ctx. Traps come back as the raw wazero error; callers attach the
// lifecycle phase they were invoking for.
func (x *Extension) Invoke(ctx context.Context, fn api.Function, args ...uint64) ([]uint64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return fn.Call(ctx, args...)
}

// Close tears the module instance down.
func (x *Extension) Close(ctx context.Context) error {
	return x.mod.Close(ctx)
}

func typesEqual(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
