package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge lifecycle the error occurred.
type Phase string

const (
	PhaseConfig   Phase = "config"   // directive processing
	PhaseLoad     Phase = "load"     // extension loading
	PhaseInit     Phase = "init"     // runtime creation and init dispatch
	PhaseRead     Phase = "read"     // read entry point
	PhaseWrite    Phase = "write"    // write entry point
	PhaseDispatch Phase = "dispatch" // values dispatched by guest code
	PhaseMarshal  Phase = "marshal"  // record conversion
	PhaseShutdown Phase = "shutdown" // teardown
)

// Kind categorizes the error.
type Kind string

const (
	// KindConfig marks a malformed configuration directive.
	KindConfig Kind = "config"
	// KindLookup marks a class, member or export that could not be resolved.
	KindLookup Kind = "lookup"
	// KindMarshal marks a conversion step whose underlying invocation failed.
	KindMarshal Kind = "marshal"
	// KindRuntime marks runtime creation, attach or detach failures.
	KindRuntime Kind = "runtime"
	// KindExtension marks instantiation or callback invocation failures.
	KindExtension Kind = "extension"
)

// Error is the structured error type used throughout the bridge.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// Config creates a malformed-directive error.
func Config(detail string, args ...any) *Error {
	return &Error{Phase: PhaseConfig, Kind: KindConfig, Detail: sprintf(detail, args)}
}

// Lookup creates an unresolvable class/member/export error.
func Lookup(phase Phase, detail string, args ...any) *Error {
	return &Error{Phase: phase, Kind: KindLookup, Detail: sprintf(detail, args)}
}

// Marshal creates a failed-conversion error.
func Marshal(phase Phase, cause error, detail string, args ...any) *Error {
	return &Error{Phase: phase, Kind: KindMarshal, Cause: cause, Detail: sprintf(detail, args)}
}

// Runtime creates a runtime creation/attach/detach error.
func Runtime(phase Phase, cause error, detail string, args ...any) *Error {
	return &Error{Phase: phase, Kind: KindRuntime, Cause: cause, Detail: sprintf(detail, args)}
}

// Extension creates an extension instantiation/invocation error.
func Extension(phase Phase, cause error, detail string, args ...any) *Error {
	return &Error{Phase: phase, Kind: KindExtension, Cause: cause, Detail: sprintf(detail, args)}
}

// Wrap wraps an existing error with phase and kind context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Cause: cause, Detail: detail}
}

// IsKind reports whether err carries the given kind at any wrapping depth.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
