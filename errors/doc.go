// Package errors provides structured error types for the collectd-wasm bridge.
//
// Errors are categorized by Phase (where in the lifecycle the error occurred)
// and Kind (the bridge's error taxonomy: config, lookup, marshal, runtime,
// extension). Use the convenience constructors:
//
//	err := errors.Lookup(errors.PhaseRead, "export %q not found", name)
//	err := errors.Runtime(errors.PhaseInit, cause, "create runtime")
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind.
package errors
