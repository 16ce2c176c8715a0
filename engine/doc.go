// Package engine owns the embedded WebAssembly runtime.
//
// An Engine wraps a single wazero runtime configured from accumulated
// option strings. Extensions are compiled and instantiated into it, and
// every guest invocation runs under an Env acquired from the engine: the
// Env travels in the context, counts nested acquisitions, and scopes the
// transient object handles the host surface mints for the guest.
//
// The daemon-facing half of the host surface is the Surface interface;
// RegisterSurface instantiates the "collectd" host module that guest
// extensions import against it.
package engine
