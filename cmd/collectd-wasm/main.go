// Command collectd-wasm is a standalone harness around the bridge: it
// plays the daemon's part, loading WebAssembly extensions from a
// directive file, ticking their read callbacks and logging or
// forwarding whatever they dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/bridge"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to the directive file")
		typesFile   = flag.String("types", "", "Path to a types.db schema file")
		interval    = flag.Duration("interval", 10*time.Second, "Read callback interval")
		remoteWrite = flag.String("remote-write", "", "Prometheus remote-write endpoint (optional)")
		debug       = flag.Bool("debug", false, "Verbose logging")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: collectd-wasm -config <file> [-types types.db] [-interval 10s] [-remote-write URL]")
		os.Exit(1)
	}

	if err := run(*configFile, *typesFile, *interval, *remoteWrite, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, typesFile string, interval time.Duration, remoteWrite string, debug bool) error {
	log, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	schemas, err := loadSchemas(typesFile)
	if err != nil {
		return err
	}

	root, err := parseConfigFile(configFile)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := newTickScheduler(log)
	b := bridge.New(bridge.Options{
		Logger:    log,
		Sink:      newMetricSink(log, remoteWrite),
		Schemas:   schemas,
		Scheduler: sched,
	})

	if err := b.Config(root); err != nil {
		return fmt.Errorf("configure bridge: %w", err)
	}
	if err := b.Init(ctx); err != nil {
		return fmt.Errorf("initialize bridge: %w", err)
	}
	defer func() {
		if err := b.Shutdown(context.Background()); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("bridge running", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sched.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("signal received, shutting down")
			return nil
		case <-ticker.C:
			sched.tick(ctx)
		}
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadSchemas(path string) (*collectdwasm.SchemaRegistry, error) {
	if path == "" {
		return collectdwasm.NewSchemaRegistry(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	schemas, err := collectdwasm.ParseSchemas(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return schemas, nil
}
