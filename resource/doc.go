// Package resource provides the handle tables backing managed references.
//
// Guest code never sees host pointers; it refers to host-side objects by
// integer handles. Each call-chain environment owns one table as its scope
// for transient references, drained when the environment detaches.
//
//	table := resource.NewTable()
//	h := table.Insert(obj)
//	v, ok := table.Get(h)
//	table.Remove(h)
//
// Handle 0 is reserved as the invalid handle, so it can double as the
// "absent" result across the wasm boundary.
package resource
