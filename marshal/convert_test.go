package marshal

import (
	"math"
	"testing"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/errors"
)

func testDataSet() *collectdwasm.DataSet {
	return &collectdwasm.DataSet{
		Type: "if_octets",
		Sources: []collectdwasm.DataSource{
			{Name: "rx", Kind: collectdwasm.KindCounter, Min: 0, Max: math.NaN()},
			{Name: "tx", Kind: collectdwasm.KindCounter, Min: 0, Max: math.NaN()},
		},
	}
}

func testSchemas() *collectdwasm.SchemaRegistry {
	reg := collectdwasm.NewSchemaRegistry()
	reg.Register(testDataSet())
	reg.Register(&collectdwasm.DataSet{
		Type:    "load",
		Sources: []collectdwasm.DataSource{{Name: "value", Kind: collectdwasm.KindGauge}},
	})
	return reg
}

func TestValueListRoundTrip(t *testing.T) {
	reg := NewRegistry()

	in := &collectdwasm.ValueList{
		Host:           "db01.example.com",
		Plugin:         "interface",
		PluginInstance: "eth0",
		Type:           "if_octets",
		TypeInstance:   "vlan7",
		Time:           1700000123,
		Interval:       10,
		Values: []collectdwasm.Value{
			collectdwasm.CounterValue(123456),
			collectdwasm.CounterValue(654321),
		},
	}

	obj, err := ValueListTo(reg, in, testDataSet())
	if err != nil {
		t.Fatalf("ValueListTo: %v", err)
	}
	if obj.Schema == nil || obj.Schema.Type != "if_octets" {
		t.Fatal("schema not attached")
	}
	if obj.TimeMS != in.Time*1000 {
		t.Errorf("TimeMS = %d, want %d", obj.TimeMS, in.Time*1000)
	}

	out, err := ValueListFrom(reg, obj, testSchemas())
	if err != nil {
		t.Fatalf("ValueListFrom: %v", err)
	}

	if !equalValueLists(out, in) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func equalValueLists(a, b *collectdwasm.ValueList) bool {
	if a.Host != b.Host || a.Plugin != b.Plugin || a.PluginInstance != b.PluginInstance ||
		a.Type != b.Type || a.TypeInstance != b.TypeInstance ||
		a.Time != b.Time || a.Interval != b.Interval || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}

func TestGaugeValuesFollowSchemaKind(t *testing.T) {
	reg := NewRegistry()

	in := &collectdwasm.ValueList{
		Host: "h", Plugin: "load", Type: "load",
		Time: 1, Interval: 10,
		Values: []collectdwasm.Value{collectdwasm.GaugeValue(0.75)},
	}
	ds, _ := testSchemas().LookupDataSet("load")

	obj, err := ValueListTo(reg, in, ds)
	if err != nil {
		t.Fatalf("ValueListTo: %v", err)
	}
	if !obj.Values[0].IsFloat {
		t.Error("gauge must use the double wrapper")
	}

	out, err := ValueListFrom(reg, obj, testSchemas())
	if err != nil {
		t.Fatalf("ValueListFrom: %v", err)
	}
	if out.Values[0].Kind != collectdwasm.KindGauge || out.Values[0].Gauge != 0.75 {
		t.Errorf("gauge round trip = %+v", out.Values[0])
	}
}

func TestTimeConversionExact(t *testing.T) {
	for _, s := range []int64{0, 1, 1234567890, 2147483647, 99999999999} {
		if got := MillisToSeconds(SecondsToMillis(s)); got != s {
			t.Errorf("round trip of %d = %d", s, got)
		}
	}
	// Sub-second precision is dropped, not rounded.
	if got := MillisToSeconds(1999); got != 1 {
		t.Errorf("MillisToSeconds(1999) = %d, want 1", got)
	}
}

func TestValueListFromUnknownType(t *testing.T) {
	reg := NewRegistry()
	obj := &ValueListObject{Type: "nonexistent"}

	_, err := ValueListFrom(reg, obj, testSchemas())
	if err == nil {
		t.Fatal("expected error for unknown data set")
	}
	if !errors.IsKind(err, errors.KindMarshal) {
		t.Errorf("expected marshal kind, got %v", err)
	}
}

func TestValueCountMustMatchSchema(t *testing.T) {
	reg := NewRegistry()
	in := &collectdwasm.ValueList{
		Type: "if_octets", Time: 1,
		Values: []collectdwasm.Value{collectdwasm.CounterValue(1)},
	}
	if _, err := ValueListTo(reg, in, testDataSet()); err == nil {
		t.Error("expected error when value count differs from schema")
	}
}

func TestNumberForKindSelection(t *testing.T) {
	reg := NewRegistry()

	n, err := NumberFor(reg, collectdwasm.CounterValue(9))
	if err != nil {
		t.Fatalf("NumberFor(counter): %v", err)
	}
	if n.IsFloat {
		t.Error("counter must use the integer wrapper")
	}

	n, err = NumberFor(reg, collectdwasm.GaugeValue(1.5))
	if err != nil {
		t.Fatalf("NumberFor(gauge): %v", err)
	}
	if !n.IsFloat {
		t.Error("gauge must use the double wrapper")
	}
}

func TestConfigItemConversionOrder(t *testing.T) {
	reg := NewRegistry()

	tree := &collectdwasm.ConfigItem{
		Key: "Plugin",
		Values: []collectdwasm.ConfigValue{
			collectdwasm.StringValue("example"),
			collectdwasm.NumberValue(9.5),
			collectdwasm.BooleanValue(true),
		},
		Children: []collectdwasm.ConfigItem{
			{Key: "Host", Values: []collectdwasm.ConfigValue{collectdwasm.StringValue("localhost")}},
			{Key: "Port", Values: []collectdwasm.ConfigValue{collectdwasm.NumberValue(25826)}},
		},
	}

	obj, err := ConfigItemTo(reg, tree)
	if err != nil {
		t.Fatalf("ConfigItemTo: %v", err)
	}

	if obj.Key != "Plugin" {
		t.Errorf("Key = %q", obj.Key)
	}
	if len(obj.Values) != 3 {
		t.Fatalf("got %d values", len(obj.Values))
	}
	if obj.Values[0].Kind != 0 || obj.Values[0].Text != "example" {
		t.Errorf("values[0] = %+v", obj.Values[0])
	}
	if obj.Values[1].Kind != 1 || obj.Values[1].Num != 9.5 {
		t.Errorf("values[1] = %+v", obj.Values[1])
	}
	if obj.Values[2].Kind != 2 || !obj.Values[2].Bool {
		t.Errorf("values[2] = %+v", obj.Values[2])
	}
	if len(obj.Children) != 2 || obj.Children[0].Key != "Host" || obj.Children[1].Key != "Port" {
		t.Errorf("children = %+v", obj.Children)
	}
}
