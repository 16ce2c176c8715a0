package bridge

import (
	"context"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/marshal"
)

// Read invokes a named read callback. The binding is released on every
// path; a binding or lookup failure reports status -1.
func (b *Bridge) Read(ctx context.Context, name string) (int32, error) {
	if st := b.State(); st != StateRunning {
		return -1, errors.Runtime(errors.PhaseRead, nil, "read %q in state %s", name, st)
	}

	cb, ok := b.callbacks.Find(collectdwasm.CallbackRead, name)
	if !ok {
		return -1, errors.Lookup(errors.PhaseRead, "no read callback named %q", name)
	}

	bound, env, err := b.engine.Acquire(ctx)
	if err != nil {
		return -1, errors.Runtime(errors.PhaseRead, err, "attach for read %q", name)
	}
	defer env.Release()

	status, err := cb.Invoke(bound)
	if err != nil {
		return -1, errors.Extension(errors.PhaseRead, err, "read callback %q", name)
	}
	return status, nil
}

// Write invokes a named write callback with a converted value list.
// The transient managed object and the binding are released even when
// the invocation fails.
func (b *Bridge) Write(ctx context.Context, name string, vl *collectdwasm.ValueList) (int32, error) {
	if st := b.State(); st != StateRunning {
		return -1, errors.Runtime(errors.PhaseWrite, nil, "write %q in state %s", name, st)
	}

	cb, ok := b.callbacks.Find(collectdwasm.CallbackWrite, name)
	if !ok {
		return -1, errors.Lookup(errors.PhaseWrite, "no write callback named %q", name)
	}

	ds, ok := b.lookupDataSet(vl.Type)
	if !ok {
		return -1, errors.Marshal(errors.PhaseWrite, nil, "no data set for type %q", vl.Type)
	}

	bound, env, err := b.engine.Acquire(ctx)
	if err != nil {
		return -1, errors.Runtime(errors.PhaseWrite, err, "attach for write %q", name)
	}
	defer env.Release()

	obj, err := marshal.ValueListTo(b.engine.Classes(), vl, ds)
	if err != nil {
		return -1, err
	}

	handle := env.Export(obj)
	status, err := cb.Invoke(bound, uint64(handle))
	env.Free(handle)
	if err != nil {
		return -1, errors.Extension(errors.PhaseWrite, err, "write callback %q", name)
	}
	return status, nil
}

func (b *Bridge) lookupDataSet(typeName string) (*collectdwasm.DataSet, bool) {
	if b.schemas == nil {
		return nil, false
	}
	return b.schemas.LookupDataSet(typeName)
}
