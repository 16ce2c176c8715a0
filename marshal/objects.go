package marshal

// Managed object representations. Guest code refers to these through
// handles; the classes in this package define their members.

// Class names used in member signatures.
const (
	ClassValueList   Kind = "value-list"
	ClassDataSet     Kind = "data-set"
	ClassDataSource  Kind = "data-source"
	ClassConfigItem  Kind = "config-item"
	ClassConfigValue Kind = "config-value"
	ClassNumber      Kind = "number"
)

// ValueListObject is the managed form of a metric record. Time and interval
// are epoch milliseconds, values are kept as the Number wrappers they were
// added with; the attached schema decides their native kind on the way back.
type ValueListObject struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
	TimeMS         int64
	Interval       int64
	Values         []*NumberObject
	Schema         *DataSetObject
}

// DataSetObject is the managed form of a data-source schema.
type DataSetObject struct {
	Type    string
	Sources []*DataSourceObject
}

// DataSourceObject is one (name, kind, min, max) tuple.
type DataSourceObject struct {
	Name string
	Kind int32
	Min  float64
	Max  float64
}

// NumberObject is the numeric wrapper chosen by the metric kind: counters
// carry a 64-bit integer, gauges a double.
type NumberObject struct {
	IsFloat bool
	I       int64
	F       float64
}

// Int64 returns the wrapped value as an integer, truncating floats.
func (n *NumberObject) Int64() int64 {
	if n.IsFloat {
		return int64(n.F)
	}
	return n.I
}

// Float64 returns the wrapped value as a double.
func (n *NumberObject) Float64() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

// ConfigItemObject is the managed form of one configuration tree node.
type ConfigItemObject struct {
	Key      string
	Values   []*ConfigValueObject
	Children []*ConfigItemObject
}

// ConfigValueObject is one configuration scalar. Kind uses the native
// ConfigValueKind numbering.
type ConfigValueObject struct {
	Kind int32
	Text string
	Num  float64
	Bool bool
}
