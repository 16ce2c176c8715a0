package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eryajf/promwrite"
	"go.uber.org/zap"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
)

// metricSink logs every dispatched value list and optionally forwards
// it to a Prometheus remote-write endpoint.
type metricSink struct {
	log    *zap.Logger
	remote *promwrite.Client
}

func newMetricSink(log *zap.Logger, remoteURL string) *metricSink {
	s := &metricSink{log: log}
	if remoteURL != "" {
		s.remote = promwrite.NewClient(remoteURL)
	}
	return s
}

func (s *metricSink) DispatchValues(ctx context.Context, vl *collectdwasm.ValueList) error {
	s.log.Info("metric dispatched",
		zap.String("identifier", vl.Identifier()),
		zap.Int64("time", vl.Time),
		zap.Int("values", len(vl.Values)))

	if s.remote == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req := &promwrite.WriteRequest{TimeSeries: toTimeSeries(vl)}
	if _, err := s.remote.Write(ctx, req); err != nil {
		return fmt.Errorf("remote write: %w", err)
	}
	return nil
}

// toTimeSeries flattens a value list into one series per measurement.
func toTimeSeries(vl *collectdwasm.ValueList) []promwrite.TimeSeries {
	ts := time.Unix(vl.Time, 0)
	name := promName(vl.Plugin, vl.Type)

	out := make([]promwrite.TimeSeries, 0, len(vl.Values))
	for i, v := range vl.Values {
		labels := []promwrite.Label{
			{Name: "__name__", Value: name},
			{Name: "host", Value: vl.Host},
			{Name: "ds_index", Value: fmt.Sprintf("%d", i)},
		}
		if vl.PluginInstance != "" {
			labels = append(labels, promwrite.Label{Name: "plugin_instance", Value: vl.PluginInstance})
		}
		if vl.TypeInstance != "" {
			labels = append(labels, promwrite.Label{Name: "type_instance", Value: vl.TypeInstance})
		}

		out = append(out, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{Time: ts, Value: v.Float64()},
		})
	}
	return out
}

func promName(plugin, typeName string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			default:
				return '_'
			}
		}, s)
	}
	return "collectd_" + clean(plugin) + "_" + clean(typeName)
}

// tickScheduler collects the read callbacks the bridge hands over and
// drives them on a fixed interval.
type tickScheduler struct {
	log *zap.Logger

	mu    sync.Mutex
	reads map[string]collectdwasm.ReadFunc
	dones map[string]func()
}

func newTickScheduler(log *zap.Logger) *tickScheduler {
	return &tickScheduler{
		log:   log,
		reads: map[string]collectdwasm.ReadFunc{},
		dones: map[string]func(){},
	}
}

func (s *tickScheduler) AddRead(name string, read collectdwasm.ReadFunc, done func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[name] = read
	s.dones[name] = done
	s.log.Info("read callback scheduled", zap.String("callback", name))
}

func (s *tickScheduler) AddWrite(name string, _ collectdwasm.WriteFunc, done func()) {
	// The harness only produces metrics; write fan-out is the daemon's
	// business. Release the registration immediately.
	s.log.Info("write callback ignored by harness", zap.String("callback", name))
	done()
}

func (s *tickScheduler) RemoveRead(name string) {
	s.mu.Lock()
	done := s.dones[name]
	delete(s.reads, name)
	delete(s.dones, name)
	s.mu.Unlock()
	if done != nil {
		done()
	}
}

func (s *tickScheduler) tick(ctx context.Context) {
	s.mu.Lock()
	reads := make(map[string]collectdwasm.ReadFunc, len(s.reads))
	for name, fn := range s.reads {
		reads[name] = fn
	}
	s.mu.Unlock()

	for name, read := range reads {
		status, err := read(ctx)
		if err != nil {
			s.log.Error("read failed", zap.String("callback", name), zap.Error(err))
			continue
		}
		if status != 0 {
			s.log.Warn("read returned nonzero status",
				zap.String("callback", name), zap.Int32("status", status))
		}
	}
}
