package bridge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/errors"
	"github.com/ryarnyah/collectd-wasm/internal/wasmtest"
)

type testSink struct {
	mu    sync.Mutex
	lists []*collectdwasm.ValueList
}

func (s *testSink) DispatchValues(_ context.Context, vl *collectdwasm.ValueList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, vl)
	return nil
}

func (s *testSink) all() []*collectdwasm.ValueList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*collectdwasm.ValueList(nil), s.lists...)
}

type testScheduler struct {
	reads   map[string]collectdwasm.ReadFunc
	writes  map[string]collectdwasm.WriteFunc
	removed []string
}

func newTestScheduler() *testScheduler {
	return &testScheduler{
		reads:  map[string]collectdwasm.ReadFunc{},
		writes: map[string]collectdwasm.WriteFunc{},
	}
}

func (s *testScheduler) AddRead(name string, read collectdwasm.ReadFunc, _ func()) {
	s.reads[name] = read
}

func (s *testScheduler) AddWrite(name string, write collectdwasm.WriteFunc, _ func()) {
	s.writes[name] = write
}

func (s *testScheduler) RemoveRead(name string) {
	s.removed = append(s.removed, name)
	delete(s.reads, name)
}

func testSchemas() *collectdwasm.SchemaRegistry {
	r := collectdwasm.NewSchemaRegistry()
	r.Register(&collectdwasm.DataSet{
		Type:    "test-counter",
		Sources: []collectdwasm.DataSource{{Name: "value", Kind: collectdwasm.KindCounter}},
	})
	r.Register(&collectdwasm.DataSet{
		Type: "test-pair",
		Sources: []collectdwasm.DataSource{
			{Name: "rx", Kind: collectdwasm.KindGauge},
			{Name: "tx", Kind: collectdwasm.KindGauge},
		},
	})
	return r
}

func writeWasm(t *testing.T, name string, m *wasmtest.Module) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".wasm")
	if err := os.WriteFile(path, m.Build(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// readerModule registers a read callback "reader" from its constructor.
// Its read builds one test-counter value list through the host
// accessors and dispatches it.
func readerModule() *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32
	i64 := wasmtest.I64

	registerRead := m.Import("collectd", "register_read", []byte{i32, i32, i32}, []byte{i32})
	create := m.Import("collectd", "value_list_create", nil, []byte{i32})
	setHost := m.Import("collectd", "value_list_set_host", []byte{i32, i32, i32}, []byte{i32})
	setPlugin := m.Import("collectd", "value_list_set_plugin", []byte{i32, i32, i32}, []byte{i32})
	setType := m.Import("collectd", "value_list_set_type", []byte{i32, i32, i32}, []byte{i32})
	setTime := m.Import("collectd", "value_list_set_time", []byte{i32, i64}, []byte{i32})
	setInterval := m.Import("collectd", "value_list_set_interval", []byte{i32, i64}, []byte{i32})
	addCounter := m.Import("collectd", "value_list_add_counter", []byte{i32, i64}, []byte{i32})
	dispatch := m.Import("collectd", "dispatch_values", []byte{i32}, []byte{i32})

	namePtr, nameLen := m.String(16, "reader")
	hostPtr, hostLen := m.String(32, "testhost")
	plugPtr, plugLen := m.String(48, "wasm")
	typePtr, typeLen := m.String(64, "test-counter")

	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(7), wasmtest.Call(registerRead), wasmtest.Drop())

	m.FuncWithLocals("plugin_read", []byte{i32}, []byte{i32}, []byte{i32},
		wasmtest.Call(create), wasmtest.LocalSet(1),
		wasmtest.LocalGet(1), hostPtr, hostLen, wasmtest.Call(setHost), wasmtest.Drop(),
		wasmtest.LocalGet(1), plugPtr, plugLen, wasmtest.Call(setPlugin), wasmtest.Drop(),
		wasmtest.LocalGet(1), typePtr, typeLen, wasmtest.Call(setType), wasmtest.Drop(),
		wasmtest.LocalGet(1), wasmtest.I64Const(1700000000123), wasmtest.Call(setTime), wasmtest.Drop(),
		wasmtest.LocalGet(1), wasmtest.I64Const(10), wasmtest.Call(setInterval), wasmtest.Drop(),
		wasmtest.LocalGet(1), wasmtest.I64Const(42), wasmtest.Call(addCounter), wasmtest.Drop(),
		wasmtest.LocalGet(1), wasmtest.Call(dispatch))

	return m
}

func configTree(children ...collectdwasm.ConfigItem) *collectdwasm.ConfigItem {
	return &collectdwasm.ConfigItem{Key: "wasm", Children: children}
}

func directive(key string, values ...collectdwasm.ConfigValue) collectdwasm.ConfigItem {
	return collectdwasm.ConfigItem{Key: key, Values: values}
}

func newBridge(t *testing.T, sink *testSink, sched collectdwasm.Scheduler) (*Bridge, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	b := New(Options{
		Logger:    zap.New(core),
		Sink:      sink,
		Schemas:   testSchemas(),
		Scheduler: sched,
	})
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })
	return b, logs
}

func TestLifecycleReadDispatch(t *testing.T) {
	ctx := context.Background()
	sink := &testSink{}
	sched := newTestScheduler()
	b, _ := newBridge(t, sink, sched)

	path := writeWasm(t, "reader", readerModule())
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if b.State() != StateRunning {
		t.Fatalf("state = %s, want running", b.State())
	}

	read, ok := sched.reads["reader"]
	if !ok {
		t.Fatal("read callback not handed to the scheduler")
	}
	status, err := read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if status != 0 {
		t.Errorf("read status = %d, want 0", status)
	}

	lists := sink.all()
	if len(lists) != 1 {
		t.Fatalf("sink received %d value lists, want 1", len(lists))
	}
	vl := lists[0]
	if vl.Host != "testhost" || vl.Plugin != "wasm" || vl.Type != "test-counter" {
		t.Errorf("identity = %s", vl.Identifier())
	}
	if vl.Time != 1700000000 {
		t.Errorf("time = %d, want seconds truncated from milliseconds", vl.Time)
	}
	if vl.Interval != 10 {
		t.Errorf("interval = %d, want 10 (passed through unscaled)", vl.Interval)
	}
	if len(vl.Values) != 1 || vl.Values[0].Kind != collectdwasm.KindCounter || vl.Values[0].Counter != 42 {
		t.Errorf("values = %+v", vl.Values)
	}

	if err := b.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if b.State() != StateDestroyed {
		t.Errorf("state after shutdown = %s", b.State())
	}
	if err := b.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}

	if status, _ := b.Read(ctx, "reader"); status != -1 {
		t.Errorf("read after shutdown = %d, want -1", status)
	}
}

func TestInitIdempotentWhenRunning(t *testing.T) {
	ctx := context.Background()
	b, _ := newBridge(t, &testSink{}, nil)

	cfg := configTree(directive("RuntimeArg", collectdwasm.StringValue("interpreter")))
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if b.State() != StateRunning {
		t.Errorf("state = %s", b.State())
	}
}

func TestInitFatalOnBadRuntimeArg(t *testing.T) {
	ctx := context.Background()
	b, _ := newBridge(t, &testSink{}, nil)

	cfg := configTree(directive("RuntimeArg", collectdwasm.StringValue("warp-drive")))
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err == nil {
		t.Fatal("Init must fail on an unknown runtime option")
	} else if !errors.IsKind(err, errors.KindRuntime) {
		t.Errorf("error kind: %v", err)
	}
	if b.State() != StateUninitialized {
		t.Errorf("failed init must revert to uninitialized, got %s", b.State())
	}
}

func TestConfigStatusRules(t *testing.T) {
	b, _ := newBridge(t, &testSink{}, nil)

	// Unknown directives alone fail the whole block.
	if err := b.Config(configTree(directive("FluxCapacitor"))); err == nil {
		t.Error("all-errors config must fail")
	} else if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("error kind: %v", err)
	}

	// One success outweighs any number of errors.
	cfg := configTree(
		directive("FluxCapacitor"),
		directive("RuntimeArg"), // wrong arity
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
	)
	if err := b.Config(cfg); err != nil {
		t.Errorf("mixed config must succeed: %v", err)
	}

	// Nothing to do is not an error.
	if err := b.Config(configTree()); err != nil {
		t.Errorf("empty config must succeed: %v", err)
	}
}

func TestDuplicatePluginBlockFirstWins(t *testing.T) {
	b, _ := newBridge(t, &testSink{}, nil)

	first := collectdwasm.ConfigItem{
		Key:      "Plugin",
		Values:   []collectdwasm.ConfigValue{collectdwasm.StringValue("p")},
		Children: []collectdwasm.ConfigItem{directive("Interval", collectdwasm.NumberValue(10))},
	}
	second := collectdwasm.ConfigItem{
		Key:    "Plugin",
		Values: []collectdwasm.ConfigValue{collectdwasm.StringValue("p")},
	}

	if err := b.Config(configTree(first, second)); err != nil {
		t.Fatalf("Config: %v", err)
	}
	block := b.blocks["p"]
	if block == nil || len(block.Children) != 1 {
		t.Fatalf("retained block = %+v, want the first occurrence", block)
	}
}

// configModule registers a config callback whose status is the number
// of children in the received block.
func configModule(name string) *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32

	registerConfig := m.Import("collectd", "register_config", []byte{i32, i32, i32}, []byte{i32})
	childrenLen := m.Import("collectd", "config_item_children_len", []byte{i32}, []byte{i32})

	namePtr, nameLen := m.String(16, name)
	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerConfig), wasmtest.Drop())
	m.Func("plugin_config", []byte{i32, i32}, []byte{i32},
		wasmtest.LocalGet(1), wasmtest.Call(childrenLen))
	return m
}

func TestConfigDispatch(t *testing.T) {
	ctx := context.Background()
	b, logs := newBridge(t, &testSink{}, nil)

	path := writeWasm(t, "confplug", configModule("confplug"))
	block := collectdwasm.ConfigItem{
		Key:    "Plugin",
		Values: []collectdwasm.ConfigValue{collectdwasm.StringValue("confplug")},
		Children: []collectdwasm.ConfigItem{
			directive("Host", collectdwasm.StringValue("example")),
			directive("Verbose", collectdwasm.BooleanValue(true)),
		},
	}
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
		block,
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// The callback saw both children and returned 2; nonzero statuses
	// are logged, never propagated.
	entries := logs.FilterMessage("config callback returned nonzero status").All()
	if len(entries) != 1 {
		t.Fatalf("nonzero-status log entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int32(2) {
		t.Errorf("logged status = %v, want 2", got)
	}
}

func TestConfigDispatchWithoutCallbackIsNotice(t *testing.T) {
	ctx := context.Background()
	b, logs := newBridge(t, &testSink{}, nil)

	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		collectdwasm.ConfigItem{
			Key:    "Plugin",
			Values: []collectdwasm.ConfigValue{collectdwasm.StringValue("ghost")},
		},
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if logs.FilterMessage("no config callback for plugin block").Len() != 1 {
		t.Error("missing callback must log a notice and continue")
	}
}

// fragileModule registers read and init callbacks named alike; its
// init fails.
func fragileModule() *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32

	registerRead := m.Import("collectd", "register_read", []byte{i32, i32, i32}, []byte{i32})
	registerInit := m.Import("collectd", "register_init", []byte{i32, i32, i32}, []byte{i32})

	namePtr, nameLen := m.String(16, "fragile")
	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerRead), wasmtest.Drop(),
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerInit), wasmtest.Drop())
	m.Func("plugin_read", []byte{i32}, []byte{i32}, wasmtest.I32Const(0))
	m.Func("plugin_init", []byte{i32}, []byte{i32}, wasmtest.I32Const(1))
	return m
}

func TestFailedInitRemovesReadCallback(t *testing.T) {
	ctx := context.Background()
	sched := newTestScheduler()
	b, logs := newBridge(t, &testSink{}, sched)

	path := writeWasm(t, "fragile", fragileModule())
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init must stay non-fatal: %v", err)
	}
	if b.State() != StateRunning {
		t.Fatalf("state = %s, want running despite failed init callback", b.State())
	}

	if logs.FilterMessage("init callback failed").Len() != 1 {
		t.Error("failed init callback not logged")
	}
	if _, ok := sched.reads["fragile"]; ok {
		t.Error("read callback scheduled despite failed init")
	}
	if status, err := b.Read(ctx, "fragile"); status != -1 || !errors.IsKind(err, errors.KindLookup) {
		t.Errorf("Read = (%d, %v), want removed callback", status, err)
	}
}

func TestBrokenExtensionIsSkipped(t *testing.T) {
	ctx := context.Background()
	sched := newTestScheduler()
	b, logs := newBridge(t, &testSink{}, sched)

	broken := filepath.Join(t.TempDir(), "broken.wasm")
	if err := os.WriteFile(broken, []byte("not wasm"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	good := writeWasm(t, "reader", readerModule())

	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(broken)),
		directive("LoadPlugin", collectdwasm.StringValue(good)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if logs.FilterMessage("extension skipped").Len() != 1 {
		t.Error("broken extension not logged as skipped")
	}
	if _, ok := sched.reads["reader"]; !ok {
		t.Error("healthy extension must survive a broken sibling")
	}
}

// writerModule registers a write callback whose status is the number
// of values on the record it received.
func writerModule() *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32

	registerWrite := m.Import("collectd", "register_write", []byte{i32, i32, i32}, []byte{i32})
	valuesLen := m.Import("collectd", "value_list_values_len", []byte{i32}, []byte{i32})

	namePtr, nameLen := m.String(16, "writer")
	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerWrite), wasmtest.Drop())
	m.Func("plugin_write", []byte{i32, i32}, []byte{i32},
		wasmtest.LocalGet(1), wasmtest.Call(valuesLen))
	return m
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	sched := newTestScheduler()
	b, _ := newBridge(t, &testSink{}, sched)

	path := writeWasm(t, "writer", writerModule())
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	vl := &collectdwasm.ValueList{
		Host:     "testhost",
		Plugin:   "net",
		Type:     "test-pair",
		Time:     1700000000,
		Interval: 10,
		Values: []collectdwasm.Value{
			collectdwasm.GaugeValue(1.5),
			collectdwasm.GaugeValue(2.5),
		},
	}

	write, ok := sched.writes["writer"]
	if !ok {
		t.Fatal("write callback not handed to the scheduler")
	}
	status, err := write(ctx, vl)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if status != 2 {
		t.Errorf("write status = %d, want the value count 2", status)
	}

	if status, err := b.Write(ctx, "nobody", vl); status != -1 || !errors.IsKind(err, errors.KindLookup) {
		t.Errorf("unknown write = (%d, %v)", status, err)
	}

	bad := *vl
	bad.Type = "unregistered"
	if status, err := b.Write(ctx, "writer", &bad); status != -1 || !errors.IsKind(err, errors.KindMarshal) {
		t.Errorf("unknown type = (%d, %v), want marshal failure", status, err)
	}
}

// schemaModule registers a read callback that looks up data sets by
// name and walks one through the accessors. Its status is the sum of
// every intermediate result, so a single assertion covers the chain:
// a miss yields handle 0, test-pair has two sources, source 0 is a
// gauge, and the text getters return the full string length even when
// the guest buffer is shorter. The truncated type name is logged back
// through the host so the write side is observable too.
func schemaModule() *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32

	registerRead := m.Import("collectd", "register_read", []byte{i32, i32, i32}, []byte{i32})
	getDS := m.Import("collectd", "get_ds", []byte{i32, i32}, []byte{i32})
	dsLen := m.Import("collectd", "data_set_len", []byte{i32}, []byte{i32})
	dsSource := m.Import("collectd", "data_set_source", []byte{i32, i32}, []byte{i32})
	dsType := m.Import("collectd", "data_set_type", []byte{i32, i32, i32}, []byte{i32})
	srcKind := m.Import("collectd", "data_source_kind", []byte{i32}, []byte{i32})
	srcName := m.Import("collectd", "data_source_name", []byte{i32, i32, i32}, []byte{i32})
	logFn := m.Import("collectd", "log", []byte{i32, i32, i32}, nil)

	namePtr, nameLen := m.String(16, "schemas")
	missPtr, missLen := m.String(32, "nonexistent")
	typePtr, typeLen := m.String(48, "test-pair")

	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerRead), wasmtest.Drop())

	// Local 1 holds the data-set handle, local 2 the source handle.
	// The running total stays on the operand stack between calls.
	m.FuncWithLocals("plugin_read", []byte{i32}, []byte{i32}, []byte{i32, i32},
		missPtr, missLen, wasmtest.Call(getDS),
		typePtr, typeLen, wasmtest.Call(getDS), wasmtest.LocalSet(1),
		wasmtest.LocalGet(1), wasmtest.Call(dsLen), wasmtest.I32Add(),
		wasmtest.LocalGet(1), wasmtest.I32Const(0), wasmtest.Call(dsSource), wasmtest.LocalSet(2),
		wasmtest.LocalGet(2), wasmtest.Call(srcKind), wasmtest.I32Add(),
		wasmtest.LocalGet(1), wasmtest.I32Const(128), wasmtest.I32Const(4), wasmtest.Call(dsType), wasmtest.I32Add(),
		wasmtest.LocalGet(2), wasmtest.I32Const(160), wasmtest.I32Const(16), wasmtest.Call(srcName), wasmtest.I32Add(),
		wasmtest.I32Const(6), wasmtest.I32Const(128), wasmtest.I32Const(4), wasmtest.Call(logFn))

	return m
}

func TestSchemaLookupFromGuest(t *testing.T) {
	ctx := context.Background()
	sched := newTestScheduler()
	b, logs := newBridge(t, &testSink{}, sched)

	path := writeWasm(t, "schemas", schemaModule())
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	read, ok := sched.reads["schemas"]
	if !ok {
		t.Fatal("read callback not handed to the scheduler")
	}
	status, err := read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// miss 0 + sources-len 2 + gauge kind 1 + len("test-pair") 9 +
	// len("rx") 2. A miss that trapped or returned an error status
	// would throw the sum off.
	if status != 14 {
		t.Errorf("accumulated status = %d, want 14", status)
	}

	// The guest logged its 4-byte buffer after data_set_type reported
	// the full 9-byte length. Only the truncated prefix was written.
	entries := logs.FilterMessage("test").All()
	if len(entries) != 1 {
		t.Fatalf("guest log entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Errorf("level = %s, want info", entries[0].Level)
	}
}

// shutdownModule registers a shutdown callback that logs through the
// host surface so the teardown order is observable.
func shutdownModule() *wasmtest.Module {
	m := wasmtest.NewModule()
	i32 := wasmtest.I32

	registerShutdown := m.Import("collectd", "register_shutdown", []byte{i32, i32, i32}, []byte{i32})
	logFn := m.Import("collectd", "log", []byte{i32, i32, i32}, nil)

	namePtr, nameLen := m.String(16, "closer")
	msgPtr, msgLen := m.String(32, "goodbye")
	m.Func("plugin_ctor", nil, nil,
		namePtr, nameLen, wasmtest.I32Const(1), wasmtest.Call(registerShutdown), wasmtest.Drop())
	m.Func("plugin_shutdown", []byte{i32}, []byte{i32},
		wasmtest.I32Const(99), msgPtr, msgLen, wasmtest.Call(logFn),
		wasmtest.I32Const(0))
	return m
}

func TestShutdownRunsCallbacksAndClampsSeverity(t *testing.T) {
	ctx := context.Background()
	b, logs := newBridge(t, &testSink{}, nil)

	path := writeWasm(t, "closer", shutdownModule())
	cfg := configTree(
		directive("RuntimeArg", collectdwasm.StringValue("interpreter")),
		directive("LoadPlugin", collectdwasm.StringValue(path)),
	)
	if err := b.Config(cfg); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := b.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	entries := logs.FilterMessage("goodbye").All()
	if len(entries) != 1 {
		t.Fatalf("guest log entries = %d, want 1", len(entries))
	}
	// Severity 99 is out of range and clamps to debug.
	if entries[0].Level != zap.DebugLevel {
		t.Errorf("level = %s, want debug", entries[0].Level)
	}
}
