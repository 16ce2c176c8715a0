package bridge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/engine"
	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/marshal"
	"github.com/ryarnyah/collectd-wasm/registry"
)

// State is the bridge lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateShuttingDown
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// Options configures a Bridge. Sink and Schemas are the daemon-side
// services; Scheduler, when set, receives the read and write callbacks
// surviving init.
type Options struct {
	Logger    *zap.Logger
	Sink      collectdwasm.MetricSink
	Schemas   collectdwasm.SchemaSource
	Scheduler collectdwasm.Scheduler
}

// Bridge embeds the runtime into the daemon.
type Bridge struct {
	log     *zap.Logger
	sink    collectdwasm.MetricSink
	schemas collectdwasm.SchemaSource
	sched   collectdwasm.Scheduler

	mu         sync.Mutex
	state      State
	args       []string
	loadPaths  []string
	blocks     map[string]*collectdwasm.ConfigItem
	blockOrder []string

	extMu      sync.Mutex
	extensions map[string]*engine.Extension

	engine    *engine.Engine
	callbacks *registry.Registry
}

// New creates an uninitialized bridge.
func New(opts Options) *Bridge {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		log:        log,
		sink:       opts.Sink,
		schemas:    opts.Schemas,
		sched:      opts.Scheduler,
		blocks:     map[string]*collectdwasm.ConfigItem{},
		extensions: map[string]*engine.Extension{},
		callbacks:  registry.New(),
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Config processes the bridge's configuration block. Directives are
// the children of root. Each malformed or unknown directive counts as
// one error; the call fails only when nothing succeeded and at least
// one directive failed.
func (b *Bridge) Config(root *collectdwasm.ConfigItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	success, errs := 0, 0
	for i := range root.Children {
		item := &root.Children[i]
		switch {
		case strings.EqualFold(item.Key, "RuntimeArg"):
			arg, ok := singleString(item)
			if !ok {
				b.log.Error("RuntimeArg needs exactly one string argument")
				errs++
				continue
			}
			b.args = append(b.args, arg)
			success++

		case strings.EqualFold(item.Key, "LoadPlugin"):
			path, ok := singleString(item)
			if !ok {
				b.log.Error("LoadPlugin needs exactly one string argument")
				errs++
				continue
			}
			b.loadPaths = append(b.loadPaths, path)
			success++

		case strings.EqualFold(item.Key, "Plugin"):
			name, ok := singleString(item)
			if !ok {
				b.log.Error("Plugin blocks need exactly one string argument")
				errs++
				continue
			}
			if _, dup := b.blocks[name]; dup {
				// First block wins.
				b.log.Warn("duplicate Plugin block ignored", zap.String("plugin", name))
				success++
				continue
			}
			b.blocks[name] = item.Clone()
			b.blockOrder = append(b.blockOrder, name)
			success++

		default:
			b.log.Warn("unknown configuration directive", zap.String("key", item.Key))
			errs++
		}
	}

	if success == 0 && errs > 0 {
		return errors.Config("%d configuration errors and nothing succeeded", errs)
	}
	return nil
}

func singleString(item *collectdwasm.ConfigItem) (string, bool) {
	if len(item.Values) != 1 || item.Values[0].Kind != collectdwasm.ConfigString {
		return "", false
	}
	return item.Values[0].Str, true
}

// Init creates the runtime, registers the host surface, loads the
// configured extensions and dispatches their config and init
// callbacks. Calling Init on a Running bridge is a no-op. Runtime or
// surface failure is fatal and reverts to Uninitialized; per-extension
// failures only degrade.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateRunning:
		b.mu.Unlock()
		return nil
	case StateUninitialized:
	default:
		st := b.state
		b.mu.Unlock()
		return errors.Runtime(errors.PhaseInit, nil, "init in state %s", st)
	}
	b.state = StateInitializing
	args := append([]string(nil), b.args...)
	paths := append([]string(nil), b.loadPaths...)
	order := append([]string(nil), b.blockOrder...)
	b.mu.Unlock()

	fail := func(err error) error {
		b.mu.Lock()
		b.state = StateUninitialized
		b.mu.Unlock()
		return err
	}

	e, err := engine.New(ctx, args, b.log)
	if err != nil {
		return fail(err)
	}
	if err := e.RegisterSurface(ctx, b); err != nil {
		_ = e.Close(ctx)
		return fail(err)
	}
	b.engine = e

	for _, path := range paths {
		if err := b.loadExtension(ctx, path); err != nil {
			b.log.Error("extension skipped", zap.String("path", path), zap.Error(err))
		}
	}

	for _, name := range order {
		b.dispatchConfig(ctx, name)
	}

	b.dispatchInit(ctx)
	b.scheduleCallbacks()

	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()
	return nil
}

func (b *Bridge) loadExtension(ctx context.Context, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	b.extMu.Lock()
	_, dup := b.extensions[name]
	b.extMu.Unlock()
	if dup {
		return errors.Extension(errors.PhaseLoad, nil, "extension %q already loaded", name)
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		return errors.Extension(errors.PhaseLoad, err, "read %s", path)
	}

	ext, err := b.engine.LoadExtension(ctx, name, wasm)
	if err != nil {
		return err
	}

	ctor, err := ext.Resolve("plugin_ctor", nil, nil)
	if err != nil {
		_ = ext.Close(ctx)
		return err
	}

	// The extension must be resolvable by name before the constructor
	// runs; callbacks register from inside it.
	b.extMu.Lock()
	b.extensions[name] = ext
	b.extMu.Unlock()

	bound, env, err := b.engine.Acquire(ctx)
	if err != nil {
		b.dropExtension(ctx, name)
		return errors.Runtime(errors.PhaseLoad, err, "attach for constructor of %q", name)
	}
	_, err = ext.Invoke(bound, ctor)
	env.Release()
	if err != nil {
		b.dropExtension(ctx, name)
		return errors.Extension(errors.PhaseLoad, err, "constructor of %q", name)
	}

	b.log.Info("extension loaded", zap.String("extension", name))
	return nil
}

func (b *Bridge) dropExtension(ctx context.Context, name string) {
	b.extMu.Lock()
	ext := b.extensions[name]
	delete(b.extensions, name)
	b.extMu.Unlock()
	if ext != nil {
		_ = ext.Close(ctx)
	}
}

// dispatchConfig hands one retained Plugin block to the matching
// config callback. A missing callback is a notice; a nonzero status is
// logged and never propagated.
func (b *Bridge) dispatchConfig(ctx context.Context, name string) {
	b.mu.Lock()
	block := b.blocks[name]
	b.mu.Unlock()
	if block == nil {
		return
	}

	cb, ok := b.callbacks.Find(collectdwasm.CallbackConfig, name)
	if !ok {
		b.log.Info("no config callback for plugin block", zap.String("plugin", name))
		return
	}

	bound, env, err := b.engine.Acquire(ctx)
	if err != nil {
		b.log.Error("config dispatch attach failed", zap.String("plugin", name), zap.Error(err))
		return
	}
	defer env.Release()

	obj, err := marshal.ConfigItemTo(b.engine.Classes(), block)
	if err != nil {
		b.log.Error("config block conversion failed", zap.String("plugin", name), zap.Error(err))
		return
	}

	status, err := cb.Invoke(bound, uint64(env.Export(obj)))
	if err != nil {
		b.log.Error("config callback failed", zap.String("plugin", name), zap.Error(err))
		return
	}
	if status != 0 {
		b.log.Warn("config callback returned nonzero status",
			zap.String("plugin", name), zap.Int32("status", status))
	}
}

// dispatchInit runs every init callback. A failing init logs an error
// and unregisters the same-named read callback so a half-initialized
// extension is never scheduled.
func (b *Bridge) dispatchInit(ctx context.Context) {
	for _, cb := range b.callbacks.ByKind(collectdwasm.CallbackInit) {
		bound, env, err := b.engine.Acquire(ctx)
		if err != nil {
			b.log.Error("init dispatch attach failed", zap.String("callback", cb.Name), zap.Error(err))
			continue
		}
		status, err := cb.Invoke(bound)
		env.Release()

		if err != nil || status != 0 {
			b.log.Error("init callback failed",
				zap.String("callback", cb.Name), zap.Int32("status", status), zap.Error(err))
			if b.callbacks.Remove(collectdwasm.CallbackRead, cb.Name) {
				b.log.Warn("read callback unregistered after failed init", zap.String("callback", cb.Name))
			}
		}
	}
}

// scheduleCallbacks hands the surviving read and write callbacks to
// the daemon's scheduler.
func (b *Bridge) scheduleCallbacks() {
	if b.sched == nil {
		return
	}
	for _, cb := range b.callbacks.ByKind(collectdwasm.CallbackRead) {
		name := cb.Name
		b.sched.AddRead(name, func(ctx context.Context) (int32, error) {
			return b.Read(ctx, name)
		}, func() {
			b.callbacks.Remove(collectdwasm.CallbackRead, name)
		})
	}
	for _, cb := range b.callbacks.ByKind(collectdwasm.CallbackWrite) {
		name := cb.Name
		b.sched.AddWrite(name, func(ctx context.Context, vl *collectdwasm.ValueList) (int32, error) {
			return b.Write(ctx, name, vl)
		}, func() {
			b.callbacks.Remove(collectdwasm.CallbackWrite, name)
		})
	}
}

// Shutdown runs the shutdown callbacks, releases every retained
// reference and destroys the runtime. It is idempotent and works even
// when init degraded.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.state == StateDestroyed {
		b.mu.Unlock()
		return nil
	}
	b.state = StateShuttingDown
	b.blocks = map[string]*collectdwasm.ConfigItem{}
	b.blockOrder = nil
	b.mu.Unlock()

	if b.engine != nil {
		for _, cb := range b.callbacks.ByKind(collectdwasm.CallbackShutdown) {
			bound, env, err := b.engine.Acquire(ctx)
			if err != nil {
				b.log.Error("shutdown dispatch attach failed", zap.String("callback", cb.Name), zap.Error(err))
				continue
			}
			status, err := cb.Invoke(bound)
			env.Release()
			if err != nil || status != 0 {
				b.log.Warn("shutdown callback failed",
					zap.String("callback", cb.Name), zap.Int32("status", status), zap.Error(err))
			}
		}
	}

	b.callbacks.Drain()

	b.extMu.Lock()
	exts := b.extensions
	b.extensions = map[string]*engine.Extension{}
	b.extMu.Unlock()
	for name, ext := range exts {
		if err := ext.Close(ctx); err != nil {
			b.log.Warn("extension close failed", zap.String("extension", name), zap.Error(err))
		}
	}

	var err error
	if b.engine != nil {
		err = b.engine.Close(ctx)
		b.engine = nil
	}

	b.mu.Lock()
	b.state = StateDestroyed
	b.mu.Unlock()
	return err
}
