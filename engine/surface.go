package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/marshal"
	"github.com/ryarnyah/collectd-wasm/resource"
)

// HostModule is the import namespace guest extensions link against.
const HostModule = "collectd"

// Surface is the daemon-facing half of the host call surface. The
// bridge implements it; the engine translates guest calls into it.
type Surface interface {
	// DispatchValues hands a guest-built value list to the daemon.
	// Returns 0 on success, nonzero on failure.
	DispatchValues(ctx context.Context, env *Env, vl *marshal.ValueListObject) int32

	// LookupDataSet resolves a metric type name. Misses are not errors.
	LookupDataSet(typeName string) (*collectdwasm.DataSet, bool)

	// RegisterCallback records a guest callback. caller is the module
	// name of the registering extension, object its callback token.
	RegisterCallback(ctx context.Context, kind collectdwasm.CallbackKind, name, caller string, object int32) int32

	// Log routes a guest log line into the daemon's log.
	Log(sev collectdwasm.Severity, msg string)
}

// RegisterSurface instantiates the "collectd" host module. It must run
// before any extension is loaded so imports resolve, and at most once
// per engine.
func (e *Engine) RegisterSurface(ctx context.Context, s Surface) error {
	g := &glue{e: e, s: s}

	b := e.rt.NewHostModuleBuilder(HostModule)
	for _, f := range g.functions() {
		b.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}

	if _, err := b.Instantiate(ctx); err != nil {
		return errors.Runtime(errors.PhaseInit, err, "instantiate host module %q", HostModule)
	}
	return nil
}

// glue adapts the stack-machine host call convention to the Surface
// and the class registry.
type glue struct {
	e *Engine
	s Surface
}

type hostFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	fn      api.GoModuleFunc
}

func (g *glue) env(ctx context.Context) *Env {
	env := FromContext(ctx)
	if env == nil {
		g.e.log.Error("host call outside an acquired binding")
	}
	return env
}

func (g *glue) class(name marshal.Kind) (*marshal.Class, bool) {
	cls, err := g.e.classes.Class(name)
	if err != nil {
		g.e.log.Error("host call against undefined class", zap.String("class", string(name)))
		return nil, false
	}
	return cls, true
}

func (g *glue) accessorFailed(member string, err error) {
	g.e.log.Warn("host accessor failed", zap.String("member", member), zap.Error(err))
}

func lookupAs[T any](env *Env, raw uint64) (T, bool) {
	var zero T
	if env == nil {
		return zero, false
	}
	v, ok := env.Lookup(resource.Handle(uint32(raw)))
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func readGuestString(mod api.Module, ptr, length uint64) (string, bool) {
	b, ok := mod.Memory().Read(uint32(ptr), uint32(length))
	if !ok {
		return "", false
	}
	return string(b), true
}

// writeGuestString copies s into a guest-supplied buffer and returns
// the full length of s, so a short buffer is detectable by the guest.
// The host never allocates in guest memory.
func writeGuestString(mod api.Module, buf, capacity uint64, s string) int32 {
	n := len(s)
	if c := int(uint32(capacity)); n > c {
		n = c
	}
	if n > 0 && !mod.Memory().Write(uint32(buf), []byte(s[:n])) {
		return -1
	}
	return int32(len(s))
}
