package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/marshal"
)

// Engine wraps a wazero runtime shared by every loaded extension. The
// class registry hangs off the engine so host functions and record
// conversion resolve members against the same definitions.
type Engine struct {
	rt      wazero.Runtime
	cache   wazero.CompilationCache
	classes *marshal.Registry
	log     *zap.Logger
	wasi    bool

	mu     sync.Mutex
	closed bool
}

// New creates a runtime from the accumulated option strings. An
// unparseable option fails runtime creation outright.
func New(ctx context.Context, args []string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts, err := parseOptions(args)
	if err != nil {
		return nil, err
	}

	var cfg wazero.RuntimeConfig
	if opts.interpreter {
		cfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		cfg = wazero.NewRuntimeConfigCompiler()
	}
	if opts.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(opts.memoryLimitPages)
	}

	var cache wazero.CompilationCache
	if opts.cacheDir != "" {
		cache, err = wazero.NewCompilationCacheWithDir(opts.cacheDir)
		if err != nil {
			return nil, errors.Runtime(errors.PhaseInit, err, "compilation cache at %s", opts.cacheDir)
		}
		cfg = cfg.WithCompilationCache(cache)
	}

	e := &Engine{
		rt:      wazero.NewRuntimeWithConfig(ctx, cfg),
		cache:   cache,
		classes: marshal.NewRegistry(),
		log:     log,
		wasi:    opts.wasi,
	}

	if e.wasi {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.rt); err != nil {
			_ = e.rt.Close(ctx)
			return nil, errors.Runtime(errors.PhaseInit, err, "instantiate wasi")
		}
	}

	log.Info("runtime created",
		zap.Bool("interpreter", opts.interpreter),
		zap.Bool("wasi", opts.wasi),
		zap.Uint32("memory_limit_pages", opts.memoryLimitPages))

	return e, nil
}

// Classes returns the engine's class registry.
func (e *Engine) Classes() *marshal.Registry { return e.classes }

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger { return e.log }

// Close destroys the runtime and every module instantiated in it.
// Subsequent attaches fail; Close is idempotent.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.rt.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return errors.Runtime(errors.PhaseShutdown, err, "close runtime")
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
