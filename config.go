package collectdwasm

import "fmt"

// ConfigValueKind discriminates the scalar values of a configuration item.
type ConfigValueKind int

const (
	ConfigString ConfigValueKind = iota
	ConfigNumber
	ConfigBoolean
)

// ConfigValue is one scalar from a configuration directive.
type ConfigValue struct {
	Kind    ConfigValueKind
	Str     string
	Num     float64
	Boolean bool
}

// StringValue returns a string-kind ConfigValue.
func StringValue(s string) ConfigValue { return ConfigValue{Kind: ConfigString, Str: s} }

// NumberValue returns a number-kind ConfigValue.
func NumberValue(n float64) ConfigValue { return ConfigValue{Kind: ConfigNumber, Num: n} }

// BooleanValue returns a boolean-kind ConfigValue.
func BooleanValue(b bool) ConfigValue { return ConfigValue{Kind: ConfigBoolean, Boolean: b} }

func (v ConfigValue) String() string {
	switch v.Kind {
	case ConfigString:
		return v.Str
	case ConfigNumber:
		return fmt.Sprintf("%g", v.Num)
	case ConfigBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	}
	return fmt.Sprintf("config-value(%d)", int(v.Kind))
}

// ConfigItem is one node of an already-parsed configuration tree: a key, its
// scalar values in source order, and nested child items.
type ConfigItem struct {
	Key      string
	Values   []ConfigValue
	Children []ConfigItem
}

// Clone deep-copies the item so the bridge can retain configuration blocks
// independently of the daemon's own tree.
func (ci *ConfigItem) Clone() *ConfigItem {
	if ci == nil {
		return nil
	}
	out := &ConfigItem{Key: ci.Key}
	if len(ci.Values) > 0 {
		out.Values = make([]ConfigValue, len(ci.Values))
		copy(out.Values, ci.Values)
	}
	if len(ci.Children) > 0 {
		out.Children = make([]ConfigItem, len(ci.Children))
		for i := range ci.Children {
			out.Children[i] = *ci.Children[i].Clone()
		}
	}
	return out
}
