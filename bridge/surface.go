package bridge

import (
	"context"

	"go.uber.org/zap"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/engine"
	"github.com/ryarnyah/collectd-wasm/marshal"
)

// The bridge is the engine's host surface.
var _ engine.Surface = (*Bridge)(nil)

// DispatchValues converts a guest-built value list back to the native
// record and hands it to the daemon's sink.
func (b *Bridge) DispatchValues(ctx context.Context, _ *engine.Env, obj *marshal.ValueListObject) int32 {
	if b.schemas == nil {
		b.log.Error("value list dropped, no schema source configured")
		return -1
	}
	vl, err := marshal.ValueListFrom(b.engine.Classes(), obj, b.schemas)
	if err != nil {
		b.log.Error("dispatched value list rejected", zap.Error(err))
		return -1
	}
	if b.sink == nil {
		b.log.Warn("value list dropped, no sink configured", zap.String("identifier", vl.Identifier()))
		return -1
	}
	if err := b.sink.DispatchValues(ctx, vl); err != nil {
		b.log.Error("sink rejected value list", zap.String("identifier", vl.Identifier()), zap.Error(err))
		return -1
	}
	return 0
}

// LookupDataSet resolves a type name for the guest.
func (b *Bridge) LookupDataSet(typeName string) (*collectdwasm.DataSet, bool) {
	return b.lookupDataSet(typeName)
}

// RegisterCallback records a callback for the calling extension.
func (b *Bridge) RegisterCallback(_ context.Context, kind collectdwasm.CallbackKind, name, caller string, object int32) int32 {
	b.extMu.Lock()
	ext := b.extensions[caller]
	b.extMu.Unlock()
	if ext == nil {
		b.log.Error("callback registration from unknown module",
			zap.String("module", caller), zap.String("callback", name))
		return -1
	}

	if _, err := b.callbacks.Register(kind, name, ext, object); err != nil {
		b.log.Error("callback registration failed",
			zap.String("module", caller),
			zap.String("callback", name),
			zap.Stringer("kind", kind),
			zap.Error(err))
		return -1
	}

	b.log.Debug("callback registered",
		zap.String("callback", name), zap.Stringer("kind", kind))
	return 0
}

// Log routes a guest log line to the bridge logger at the level
// matching its severity.
func (b *Bridge) Log(sev collectdwasm.Severity, msg string) {
	switch sev {
	case collectdwasm.SevError:
		b.log.Error(msg)
	case collectdwasm.SevWarning:
		b.log.Warn(msg)
	case collectdwasm.SevDebug:
		b.log.Debug(msg)
	default:
		b.log.Info(msg)
	}
}
