package collectdwasm

import "context"

// MetricSink receives value lists dispatched by extensions. The daemon's
// dispatch pipeline implements it.
type MetricSink interface {
	DispatchValues(ctx context.Context, vl *ValueList) error
}

// SchemaSource resolves metric type names against the daemon's data-source
// schema registry. Lookup misses are not errors.
type SchemaSource interface {
	LookupDataSet(typeName string) (*DataSet, bool)
}

// ReadFunc is a read callback as handed to the daemon's scheduler. The status
// is the extension's return value; -1 signals a bridge-level failure.
type ReadFunc func(ctx context.Context) (int32, error)

// WriteFunc is a write callback as handed to the daemon's scheduler.
type WriteFunc func(ctx context.Context, vl *ValueList) (int32, error)

// CallbackKind identifies which lifecycle hook a registered callback serves.
type CallbackKind int

const (
	CallbackConfig CallbackKind = iota
	CallbackInit
	CallbackRead
	CallbackWrite
	CallbackShutdown
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackConfig:
		return "config"
	case CallbackInit:
		return "init"
	case CallbackRead:
		return "read"
	case CallbackWrite:
		return "write"
	case CallbackShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Scheduler is the daemon's registration surface for periodic reads and
// write fan-out. done releases the callback's retained reference and must be
// called exactly once when the daemon discards the registration.
type Scheduler interface {
	AddRead(name string, read ReadFunc, done func())
	AddWrite(name string, write WriteFunc, done func())
	// RemoveRead discards a read registration by name, invoking its done
	// function. Used when an extension's init callback fails.
	RemoveRead(name string)
}
