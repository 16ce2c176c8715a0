package collectdwasm

import (
	"fmt"
	"strings"
)

// ValueKind discriminates measurement values and data-source shapes.
type ValueKind int

const (
	// KindCounter is a monotonically increasing 64-bit integer value.
	KindCounter ValueKind = iota
	// KindGauge is a double-precision floating point value.
	KindGauge
)

func (k ValueKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is one measurement value, tagged by kind.
type Value struct {
	Kind    ValueKind
	Counter int64
	Gauge   float64
}

// CounterValue returns a counter-kind Value.
func CounterValue(v int64) Value { return Value{Kind: KindCounter, Counter: v} }

// GaugeValue returns a gauge-kind Value.
func GaugeValue(v float64) Value { return Value{Kind: KindGauge, Gauge: v} }

// Float64 returns the measurement as a double regardless of kind.
func (v Value) Float64() float64 {
	if v.Kind == KindGauge {
		return v.Gauge
	}
	return float64(v.Counter)
}

// ValueList is one measurement event: identification, timing and the ordered
// values matching the data-source schema of its type.
type ValueList struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
	// Time is the measurement time in epoch seconds.
	Time int64
	// Interval is the expected gap between measurements, in seconds.
	Interval int64
	Values   []Value
}

// Identifier renders the conventional host/plugin[-instance]/type[-instance]
// form used in daemon logs.
func (vl *ValueList) Identifier() string {
	var b strings.Builder
	b.WriteString(vl.Host)
	b.WriteByte('/')
	b.WriteString(vl.Plugin)
	if vl.PluginInstance != "" {
		b.WriteByte('-')
		b.WriteString(vl.PluginInstance)
	}
	b.WriteByte('/')
	b.WriteString(vl.Type)
	if vl.TypeInstance != "" {
		b.WriteByte('-')
		b.WriteString(vl.TypeInstance)
	}
	return b.String()
}

// DataSource describes the shape of one value inside a data set.
type DataSource struct {
	Name string
	Kind ValueKind
	// Min and Max bound valid values; NaN means unbounded.
	Min float64
	Max float64
}

// DataSet is the schema of a metric type: its name and the ordered data
// sources a value list of that type must carry.
type DataSet struct {
	Type    string
	Sources []DataSource
}

// Severity tags log messages crossing the bridge. The numeric values match
// the daemon's syslog-style levels.
type Severity int

const (
	SevError   Severity = 3
	SevWarning Severity = 4
	SevNotice  Severity = 5
	SevInfo    Severity = 6
	SevDebug   Severity = 7
)

// Clamp forces s into the supported range before forwarding to the daemon.
func (s Severity) Clamp() Severity {
	if s < SevError {
		return SevError
	}
	if s > SevDebug {
		return SevDebug
	}
	return s
}

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevNotice:
		return "notice"
	case SevInfo:
		return "info"
	case SevDebug:
		return "debug"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}
