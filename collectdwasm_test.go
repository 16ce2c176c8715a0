package collectdwasm

import (
	"math"
	"strings"
	"testing"
)

func TestParseSchemas(t *testing.T) {
	input := `
# data-set definitions
cpu            value:DERIVE:0:U
if_octets      rx:COUNTER:0:4294967295, tx:COUNTER:0:4294967295
load           shortterm:GAUGE:0:5000, midterm:GAUGE:0:5000, longterm:GAUGE:0:5000
temperature    value:GAUGE:U:U
`
	reg, err := ParseSchemas(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseSchemas: %v", err)
	}
	if reg.Len() != 4 {
		t.Fatalf("registered %d sets, want 4", reg.Len())
	}

	cpu, ok := reg.LookupDataSet("cpu")
	if !ok {
		t.Fatal("cpu not registered")
	}
	if len(cpu.Sources) != 1 || cpu.Sources[0].Kind != KindCounter {
		t.Errorf("cpu sources = %+v, DERIVE must map to the counter kind", cpu.Sources)
	}
	if !math.IsNaN(cpu.Sources[0].Max) {
		t.Error("U bound must parse as unbounded")
	}

	octets, _ := reg.LookupDataSet("if_octets")
	if len(octets.Sources) != 2 || octets.Sources[1].Name != "tx" {
		t.Errorf("if_octets sources = %+v", octets.Sources)
	}

	load, _ := reg.LookupDataSet("load")
	if len(load.Sources) != 3 || load.Sources[2].Kind != KindGauge {
		t.Errorf("load sources = %+v", load.Sources)
	}

	if _, ok := reg.LookupDataSet("absent"); ok {
		t.Error("lookup of an unregistered type must miss")
	}
}

func TestParseSchemasRejectsMalformedLines(t *testing.T) {
	cases := []string{
		"lonely\n",
		"broken value:GAUGE:0\n",
		"broken value:SOMETHING:0:U\n",
		"broken value:GAUGE:zero:U\n",
	}
	for _, input := range cases {
		if _, err := ParseSchemas(strings.NewReader(input)); err == nil {
			t.Errorf("ParseSchemas(%q): expected error", input)
		}
	}
}

func TestIdentifier(t *testing.T) {
	vl := &ValueList{Host: "web1", Plugin: "cpu", Type: "cpu"}
	if got := vl.Identifier(); got != "web1/cpu/cpu" {
		t.Errorf("Identifier() = %q", got)
	}

	vl = &ValueList{
		Host: "web1", Plugin: "if", PluginInstance: "eth0",
		Type: "if_octets", TypeInstance: "rx",
	}
	if got := vl.Identifier(); got != "web1/if-eth0/if_octets-rx" {
		t.Errorf("Identifier() = %q", got)
	}
}

func TestSeverityClamp(t *testing.T) {
	cases := map[Severity]Severity{
		0:          SevError,
		SevError:   SevError,
		SevNotice:  SevNotice,
		SevDebug:   SevDebug,
		99:         SevDebug,
		-1:         SevError,
	}
	for in, want := range cases {
		if got := in.Clamp(); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestConfigItemClone(t *testing.T) {
	orig := &ConfigItem{
		Key:    "Plugin",
		Values: []ConfigValue{StringValue("cpu")},
		Children: []ConfigItem{
			{Key: "Interval", Values: []ConfigValue{NumberValue(10)}},
			{Key: "Nested", Children: []ConfigItem{{Key: "Leaf", Values: []ConfigValue{BooleanValue(true)}}}},
		},
	}

	clone := orig.Clone()
	orig.Values[0] = StringValue("mutated")
	orig.Children[0].Values[0] = NumberValue(99)
	orig.Children[1].Children[0].Key = "Mutated"

	if clone.Values[0] != StringValue("cpu") {
		t.Error("clone shares values with the original")
	}
	if clone.Children[0].Values[0] != NumberValue(10) {
		t.Error("clone shares child values with the original")
	}
	if clone.Children[1].Children[0].Key != "Leaf" {
		t.Error("clone shares nested children with the original")
	}

	var nothing *ConfigItem
	if nothing.Clone() != nil {
		t.Error("cloning nil must return nil")
	}
}

func TestValueFloat64(t *testing.T) {
	if got := CounterValue(42).Float64(); got != 42 {
		t.Errorf("counter Float64 = %g", got)
	}
	if got := GaugeValue(1.5).Float64(); got != 1.5 {
		t.Errorf("gauge Float64 = %g", got)
	}
}
