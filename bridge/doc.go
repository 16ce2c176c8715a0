// Package bridge ties the pieces together: it owns the runtime
// lifecycle, processes configuration directives, loads extensions,
// dispatches their configuration and init callbacks, and exposes the
// read and write entry points the daemon schedules.
//
// A Bridge moves through Uninitialized, Initializing, Running,
// ShuttingDown and Destroyed. Runtime creation and host surface
// registration failures are fatal and leave the bridge Uninitialized;
// everything after that point degrades per extension, so one broken
// module never takes the bridge down.
package bridge
