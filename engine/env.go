package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/resource"
)

type envKey struct{}

// Env is one call chain's binding to the runtime. It travels in the
// context, counts nested acquisitions, and owns the scope table for
// transient object handles minted while the binding is held. An Env is
// confined to the call chain that acquired it and is not safe for
// concurrent use.
type Env struct {
	engine *Engine
	locals *resource.Table
	refs   int
}

// FromContext returns the Env bound to ctx, or nil.
func FromContext(ctx context.Context) *Env {
	env, _ := ctx.Value(envKey{}).(*Env)
	return env
}

// Acquire binds the calling chain to the runtime. If ctx already
// carries a binding it is reused and its count incremented; otherwise a
// fresh Env is attached. The returned context carries the Env and must
// be used for guest invocations under this binding. Every Acquire must
// be paired with exactly one Release.
func (e *Engine) Acquire(ctx context.Context) (context.Context, *Env, error) {
	if env := FromContext(ctx); env != nil {
		env.refs++
		return ctx, env, nil
	}

	if e.isClosed() {
		return ctx, nil, errors.Runtime(errors.PhaseInit, nil, "attach to destroyed runtime")
	}

	env := &Env{
		engine: e,
		locals: resource.NewTable(),
		refs:   1,
	}
	return context.WithValue(ctx, envKey{}, env), env, nil
}

// Release undoes one Acquire. Dropping the last reference detaches the
// binding and drains its scope table. Releasing an unbound Env is a
// programming error and panics.
func (env *Env) Release() {
	if env.refs <= 0 {
		panic("engine: release of unbound environment")
	}

	env.refs--
	if env.refs > 0 {
		return
	}

	// Handles the guest never freed are reclaimed when the scope ends.
	// A nonempty scope here means a release was skipped somewhere.
	if leaked := env.locals.Drain(); leaked > 0 {
		env.engine.log.Warn("detached with live transient handles", zap.Int("count", leaked))
	}
}

// Export places obj in the binding's scope and returns its handle.
func (env *Env) Export(obj any) resource.Handle {
	return env.locals.Insert(obj)
}

// Lookup resolves a scope handle.
func (env *Env) Lookup(h resource.Handle) (any, bool) {
	return env.locals.Get(h)
}

// Free releases one scope handle before the binding ends.
func (env *Env) Free(h resource.Handle) bool {
	_, ok := env.locals.Remove(h)
	return ok
}
