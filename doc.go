// Package collectdwasm embeds a WebAssembly runtime inside a metric-collection
// daemon so that wasm extension modules participate in the daemon's pipeline
// as first-class collectors and emitters.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	collectdwasm/        Root package: metric and configuration data model,
//	                     daemon-facing contracts, schema registry
//	├── bridge/          Runtime manager: lifecycle, config dispatch,
//	                     extension loading, read/write entry points
//	├── engine/          wazero integration: runtime creation, per-call
//	                     environment binding, extension instances and the
//	                     host surface exposed to guest code
//	├── marshal/         Conversion between native records and managed
//	                     objects, resolved member by member
//	├── registry/        Callback descriptors registered by extensions
//	├── resource/        Handle tables for managed references
//	└── errors/          Structured error types
//
// # Quick Start
//
// The daemon hands the bridge an already-parsed configuration tree and then
// drives its lifecycle:
//
//	b := bridge.New(bridge.Options{Sink: sink, Schemas: schemas, Logger: logger})
//	if err := b.Config(tree); err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	status, _ := b.Read(ctx, "MyCollector")
//	_ = b.Shutdown(ctx)
//
// Extensions are core wasm modules importing the "collectd" host module. Each
// extension exports a zero-argument constructor, plugin_ctor, and registers
// its callbacks from inside it.
//
// # Thread Safety
//
// Read and Write entry points are safe for concurrent use from independent
// daemon worker threads; each call binds its own environment for the duration
// of the call. The config/init/shutdown lifecycle phases assume they are not
// interleaved with concurrent Read/Write scheduling.
package collectdwasm
