package marshal

import (
	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/errors"
)

// Time conversion: the managed side measures time in milliseconds, the
// daemon in seconds. Sub-second precision is intentionally not preserved.

// SecondsToMillis converts native epoch seconds to managed epoch milliseconds.
func SecondsToMillis(s int64) int64 { return s * 1000 }

// MillisToSeconds converts managed epoch milliseconds back to native epoch
// seconds.
func MillisToSeconds(ms int64) int64 { return ms / 1000 }

// NumberFor wraps a measurement value in the numeric wrapper chosen by its
// kind: counter values get the 64-bit integer constructor, gauges the
// double constructor.
func NumberFor(reg *Registry, v collectdwasm.Value) (*NumberObject, error) {
	cls, err := reg.Class(ClassNumber)
	if err != nil {
		return nil, err
	}

	var out any
	switch v.Kind {
	case collectdwasm.KindCounter:
		out, err = cls.New(Sig(ClassNumber, KindI64), v.Counter)
	case collectdwasm.KindGauge:
		out, err = cls.New(Sig(ClassNumber, KindF64), v.Gauge)
	default:
		return nil, errors.Marshal(errors.PhaseMarshal, nil, "unknown value kind %d", int(v.Kind))
	}
	if err != nil {
		return nil, err
	}
	return out.(*NumberObject), nil
}

// DataSetTo converts a data-source schema to its managed form.
func DataSetTo(reg *Registry, ds *collectdwasm.DataSet) (*DataSetObject, error) {
	setCls, err := reg.Class(ClassDataSet)
	if err != nil {
		return nil, err
	}
	srcCls, err := reg.Class(ClassDataSource)
	if err != nil {
		return nil, err
	}

	obj, err := setCls.New(Sig(ClassDataSet, KindText), ds.Type)
	if err != nil {
		return nil, err
	}
	out := obj.(*DataSetObject)

	for i := range ds.Sources {
		src := &ds.Sources[i]

		o, err := srcCls.New(Sig(ClassDataSource))
		if err != nil {
			return nil, err
		}
		if err := srcCls.SetText(o, "set-name", src.Name); err != nil {
			return nil, err
		}
		if err := srcCls.SetInt32(o, "set-kind", int32(src.Kind)); err != nil {
			return nil, err
		}
		if err := srcCls.SetFloat64(o, "set-min", src.Min); err != nil {
			return nil, err
		}
		if err := srcCls.SetFloat64(o, "set-max", src.Max); err != nil {
			return nil, err
		}
		if err := setCls.SetObject(out, "add-data-source", ClassDataSource, o); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ValueListTo converts a metric record and its schema to the managed form:
// schema first, then the identification strings, time (seconds to
// milliseconds), interval, and finally one add-value call per measurement.
func ValueListTo(reg *Registry, vl *collectdwasm.ValueList, ds *collectdwasm.DataSet) (*ValueListObject, error) {
	cls, err := reg.Class(ClassValueList)
	if err != nil {
		return nil, err
	}

	obj, err := cls.New(Sig(ClassValueList))
	if err != nil {
		return nil, err
	}
	out := obj.(*ValueListObject)

	schema, err := DataSetTo(reg, ds)
	if err != nil {
		return nil, err
	}
	if err := cls.SetObject(out, "set-data-set", ClassDataSet, schema); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		member string
		value  string
	}{
		{"set-host", vl.Host},
		{"set-plugin", vl.Plugin},
		{"set-plugin-instance", vl.PluginInstance},
		{"set-type", vl.Type},
		{"set-type-instance", vl.TypeInstance},
	} {
		if err := cls.SetText(out, f.member, f.value); err != nil {
			return nil, err
		}
	}

	if err := cls.SetInt64(out, "set-time", SecondsToMillis(vl.Time)); err != nil {
		return nil, err
	}
	if err := cls.SetInt64(out, "set-interval", vl.Interval); err != nil {
		return nil, err
	}

	if len(vl.Values) != len(ds.Sources) {
		return nil, errors.Marshal(errors.PhaseMarshal, nil,
			"value list %q carries %d values, data set defines %d",
			vl.Type, len(vl.Values), len(ds.Sources))
	}
	for _, v := range vl.Values {
		n, err := NumberFor(reg, v)
		if err != nil {
			return nil, err
		}
		if err := cls.SetObject(out, "add-value", ClassNumber, n); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ValueListFrom converts a managed value list back to the native record. The
// type is read first so the schema can be resolved; a type without a
// registered data set fails the conversion. Each value is decoded per the
// matching data source's kind.
func ValueListFrom(reg *Registry, obj *ValueListObject, schemas collectdwasm.SchemaSource) (*collectdwasm.ValueList, error) {
	cls, err := reg.Class(ClassValueList)
	if err != nil {
		return nil, err
	}
	numCls, err := reg.Class(ClassNumber)
	if err != nil {
		return nil, err
	}

	out := &collectdwasm.ValueList{}

	out.Type, err = cls.GetText(obj, "get-type")
	if err != nil {
		return nil, err
	}
	ds, ok := schemas.LookupDataSet(out.Type)
	if !ok {
		return nil, errors.Marshal(errors.PhaseMarshal, nil, "data set %q is not defined", out.Type)
	}

	for _, f := range []struct {
		member string
		dst    *string
	}{
		{"get-host", &out.Host},
		{"get-plugin", &out.Plugin},
		{"get-plugin-instance", &out.PluginInstance},
		{"get-type-instance", &out.TypeInstance},
	} {
		*f.dst, err = cls.GetText(obj, f.member)
		if err != nil {
			return nil, err
		}
	}

	ms, err := cls.GetInt64(obj, "get-time")
	if err != nil {
		return nil, err
	}
	out.Time = MillisToSeconds(ms)

	out.Interval, err = cls.GetInt64(obj, "get-interval")
	if err != nil {
		return nil, err
	}

	if len(obj.Values) != len(ds.Sources) {
		return nil, errors.Marshal(errors.PhaseMarshal, nil,
			"value list %q carries %d values, data set defines %d",
			out.Type, len(obj.Values), len(ds.Sources))
	}
	out.Values = make([]collectdwasm.Value, len(obj.Values))
	for i, n := range obj.Values {
		switch ds.Sources[i].Kind {
		case collectdwasm.KindCounter:
			v, err := numCls.GetInt64(n, "get-i64")
			if err != nil {
				return nil, err
			}
			out.Values[i] = collectdwasm.CounterValue(v)
		case collectdwasm.KindGauge:
			v, err := numCls.GetFloat64(n, "get-f64")
			if err != nil {
				return nil, err
			}
			out.Values[i] = collectdwasm.GaugeValue(v)
		default:
			return nil, errors.Marshal(errors.PhaseMarshal, nil,
				"data source %q has unknown kind %d", ds.Sources[i].Name, int(ds.Sources[i].Kind))
		}
	}

	return out, nil
}

// ConfigItemTo converts a configuration tree node recursively: one object
// per node, scalar values appended in source order, then each child
// converted and appended after all values.
func ConfigItemTo(reg *Registry, item *collectdwasm.ConfigItem) (*ConfigItemObject, error) {
	itemCls, err := reg.Class(ClassConfigItem)
	if err != nil {
		return nil, err
	}
	valCls, err := reg.Class(ClassConfigValue)
	if err != nil {
		return nil, err
	}

	obj, err := itemCls.New(Sig(ClassConfigItem, KindText), item.Key)
	if err != nil {
		return nil, err
	}
	out := obj.(*ConfigItemObject)

	for _, v := range item.Values {
		var o any
		switch v.Kind {
		case collectdwasm.ConfigString:
			o, err = valCls.New(Sig(ClassConfigValue, KindText), v.Str)
		case collectdwasm.ConfigNumber:
			o, err = valCls.New(Sig(ClassConfigValue, KindF64), v.Num)
		case collectdwasm.ConfigBoolean:
			o, err = valCls.New(Sig(ClassConfigValue, KindBool), v.Boolean)
		default:
			err = errors.Marshal(errors.PhaseMarshal, nil,
				"unknown config value kind %d", int(v.Kind))
		}
		if err != nil {
			return nil, err
		}
		if err := itemCls.SetObject(out, "add-value", ClassConfigValue, o); err != nil {
			return nil, err
		}
	}

	for i := range item.Children {
		child, err := ConfigItemTo(reg, &item.Children[i])
		if err != nil {
			return nil, err
		}
		if err := itemCls.SetObject(out, "add-child", ClassConfigItem, child); err != nil {
			return nil, err
		}
	}

	return out, nil
}
