package main

import (
	"strings"
	"testing"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
)

func TestParseConfig(t *testing.T) {
	input := `
# runtime setup
RuntimeArg "interpreter"
LoadPlugin "/opt/ext/cpu.wasm"

<Plugin "cpu">
  Interval 10
  Verbose true
  Host "10"
</Plugin>
`
	root, err := parseConfig(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if len(root.Children) != 3 {
		t.Fatalf("directives = %d, want 3", len(root.Children))
	}

	if root.Children[0].Key != "RuntimeArg" ||
		root.Children[0].Values[0] != collectdwasm.StringValue("interpreter") {
		t.Errorf("RuntimeArg parsed as %+v", root.Children[0])
	}

	plug := root.Children[2]
	if plug.Key != "Plugin" || plug.Values[0] != collectdwasm.StringValue("cpu") {
		t.Fatalf("Plugin block parsed as %+v", plug)
	}
	if len(plug.Children) != 3 {
		t.Fatalf("block children = %d, want 3", len(plug.Children))
	}
	if plug.Children[0].Values[0] != collectdwasm.NumberValue(10) {
		t.Errorf("Interval parsed as %+v", plug.Children[0].Values[0])
	}
	if plug.Children[1].Values[0] != collectdwasm.BooleanValue(true) {
		t.Errorf("Verbose parsed as %+v", plug.Children[1].Values[0])
	}
	// Quoted numerics stay strings.
	if plug.Children[2].Values[0] != collectdwasm.StringValue("10") {
		t.Errorf("Host parsed as %+v", plug.Children[2].Values[0])
	}
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed block":  "<Plugin \"cpu\">\nInterval 10\n",
		"mismatched tag":  "<Plugin \"cpu\">\n</Module>\n",
		"stray close":     "</Plugin>\n",
		"unclosed quote":  "LoadPlugin \"/opt/ext\n",
	}
	for name, input := range cases {
		if _, err := parseConfig(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}
