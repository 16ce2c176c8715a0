package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
	"github.com/ryarnyah/collectd-wasm/marshal"
	"github.com/ryarnyah/collectd-wasm/resource"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f64 = api.ValueTypeF64
)

// functions lists every export of the "collectd" host module. Strings
// travel guest to host as (ptr, len) pairs and host to guest through
// guest-supplied (buf, cap) buffers. Object arguments and results are
// scope handles minted by the binding in effect.
func (g *glue) functions() []hostFunc {
	return append(g.lifecycleFunctions(), g.accessorFunctions()...)
}

func (g *glue) lifecycleFunctions() []hostFunc {
	return []hostFunc{
		{"dispatch_values", []api.ValueType{i32}, []api.ValueType{i32}, g.dispatchValues},
		{"get_ds", []api.ValueType{i32, i32}, []api.ValueType{i32}, g.getDataSet},
		{"register_config", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.register(collectdwasm.CallbackConfig)},
		{"register_init", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.register(collectdwasm.CallbackInit)},
		{"register_read", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.register(collectdwasm.CallbackRead)},
		{"register_write", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.register(collectdwasm.CallbackWrite)},
		{"register_shutdown", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.register(collectdwasm.CallbackShutdown)},
		{"log", []api.ValueType{i32, i32, i32}, nil, g.logLine},
		{"object_release", []api.ValueType{i32}, nil, g.objectRelease},
	}
}

func (g *glue) dispatchValues(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	vl, ok := lookupAs[*marshal.ValueListObject](env, stack[0])
	if !ok {
		stack[0] = api.EncodeI32(-1)
		return
	}
	stack[0] = api.EncodeI32(g.s.DispatchValues(ctx, env, vl))
}

func (g *glue) getDataSet(ctx context.Context, mod api.Module, stack []uint64) {
	env := g.env(ctx)
	name, ok := readGuestString(mod, stack[0], stack[1])
	stack[0] = 0
	if env == nil || !ok {
		return
	}

	ds, ok := g.s.LookupDataSet(name)
	if !ok {
		return
	}
	obj, err := marshal.DataSetTo(g.e.classes, ds)
	if err != nil {
		g.accessorFailed("get_ds", err)
		return
	}
	stack[0] = uint64(env.Export(obj))
}

func (g *glue) register(kind collectdwasm.CallbackKind) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		name, ok := readGuestString(mod, stack[0], stack[1])
		object := api.DecodeI32(stack[2])
		if !ok {
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(g.s.RegisterCallback(ctx, kind, name, mod.Name(), object))
	}
}

func (g *glue) logLine(_ context.Context, mod api.Module, stack []uint64) {
	msg, ok := readGuestString(mod, stack[1], stack[2])
	if !ok {
		return
	}
	g.s.Log(collectdwasm.Severity(api.DecodeI32(stack[0])).Clamp(), msg)
}

func (g *glue) objectRelease(ctx context.Context, _ api.Module, stack []uint64) {
	if env := g.env(ctx); env != nil {
		env.Free(resource.Handle(uint32(stack[0])))
	}
}

func (g *glue) accessorFunctions() []hostFunc {
	fns := []hostFunc{
		{"value_list_create", nil, []api.ValueType{i32}, g.valueListCreate},
		{"value_list_set_time", []api.ValueType{i32, i64}, []api.ValueType{i32}, g.i64Setter(marshal.ClassValueList, "set-time")},
		{"value_list_set_interval", []api.ValueType{i32, i64}, []api.ValueType{i32}, g.i64Setter(marshal.ClassValueList, "set-interval")},
		{"value_list_get_time", []api.ValueType{i32}, []api.ValueType{i64}, g.i64Getter(marshal.ClassValueList, "get-time")},
		{"value_list_get_interval", []api.ValueType{i32}, []api.ValueType{i64}, g.i64Getter(marshal.ClassValueList, "get-interval")},
		{"value_list_add_counter", []api.ValueType{i32, i64}, []api.ValueType{i32}, g.valueListAddCounter},
		{"value_list_add_gauge", []api.ValueType{i32, f64}, []api.ValueType{i32}, g.valueListAddGauge},
		{"value_list_values_len", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassValueList, "values-len")},
		{"value_list_value_kind", []api.ValueType{i32, i32}, []api.ValueType{i32}, g.valueListValueKind},
		{"value_list_counter_at", []api.ValueType{i32, i32}, []api.ValueType{i64}, g.valueListCounterAt},
		{"value_list_gauge_at", []api.ValueType{i32, i32}, []api.ValueType{f64}, g.valueListGaugeAt},
		{"value_list_get_ds", []api.ValueType{i32}, []api.ValueType{i32}, g.valueListGetDataSet},

		{"data_set_type", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textGetter(marshal.ClassDataSet, "get-type")},
		{"data_set_len", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassDataSet, "sources-len")},
		{"data_set_source", []api.ValueType{i32, i32}, []api.ValueType{i32}, g.dataSetSource},
		{"data_source_name", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textGetter(marshal.ClassDataSource, "get-name")},
		{"data_source_kind", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassDataSource, "get-kind")},
		{"data_source_min", []api.ValueType{i32}, []api.ValueType{f64}, g.f64Getter(marshal.ClassDataSource, "get-min")},
		{"data_source_max", []api.ValueType{i32}, []api.ValueType{f64}, g.f64Getter(marshal.ClassDataSource, "get-max")},

		{"config_item_key", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textGetter(marshal.ClassConfigItem, "get-key")},
		{"config_item_values_len", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassConfigItem, "values-len")},
		{"config_item_value", []api.ValueType{i32, i32}, []api.ValueType{i32}, g.configItemValue},
		{"config_item_children_len", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassConfigItem, "children-len")},
		{"config_item_child", []api.ValueType{i32, i32}, []api.ValueType{i32}, g.configItemChild},
		{"config_value_kind", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassConfigValue, "get-kind")},
		{"config_value_text", []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textGetter(marshal.ClassConfigValue, "get-text")},
		{"config_value_number", []api.ValueType{i32}, []api.ValueType{f64}, g.f64Getter(marshal.ClassConfigValue, "get-number")},
		{"config_value_bool", []api.ValueType{i32}, []api.ValueType{i32}, g.lenGetter(marshal.ClassConfigValue, "get-bool")},
	}

	for _, field := range []string{"host", "plugin", "plugin-instance", "type", "type-instance"} {
		wire := valueListWireName(field)
		fns = append(fns,
			hostFunc{"value_list_set_" + wire, []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textSetter(marshal.ClassValueList, "set-" + field)},
			hostFunc{"value_list_get_" + wire, []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, g.textGetter(marshal.ClassValueList, "get-" + field)},
		)
	}
	return fns
}

// valueListWireName maps member spelling to export spelling.
func valueListWireName(field string) string {
	switch field {
	case "plugin-instance":
		return "plugin_instance"
	case "type-instance":
		return "type_instance"
	default:
		return field
	}
}

func (g *glue) valueListCreate(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	cls, ok := g.class(marshal.ClassValueList)
	if env == nil || !ok {
		stack[0] = 0
		return
	}
	obj, err := cls.New(marshal.Sig(marshal.ClassValueList))
	if err != nil {
		g.accessorFailed("value_list_create", err)
		stack[0] = 0
		return
	}
	stack[0] = uint64(env.Export(obj))
}

func (g *glue) addNumber(ctx context.Context, stack []uint64, num func(*marshal.Class) (any, error)) {
	env := g.env(ctx)
	vl, ok := lookupAs[*marshal.ValueListObject](env, stack[0])
	vlCls, okCls := g.class(marshal.ClassValueList)
	numCls, okNum := g.class(marshal.ClassNumber)
	if !ok || !okCls || !okNum {
		stack[0] = api.EncodeI32(-1)
		return
	}

	n, err := num(numCls)
	if err == nil {
		err = vlCls.SetObject(vl, "add-value", marshal.ClassNumber, n)
	}
	if err != nil {
		g.accessorFailed("add-value", err)
		stack[0] = api.EncodeI32(-1)
		return
	}
	stack[0] = api.EncodeI32(0)
}

func (g *glue) valueListAddCounter(ctx context.Context, _ api.Module, stack []uint64) {
	v := int64(stack[1])
	g.addNumber(ctx, stack, func(cls *marshal.Class) (any, error) {
		return cls.New(marshal.Sig(marshal.ClassNumber, marshal.KindI64), v)
	})
}

func (g *glue) valueListAddGauge(ctx context.Context, _ api.Module, stack []uint64) {
	v := api.DecodeF64(stack[1])
	g.addNumber(ctx, stack, func(cls *marshal.Class) (any, error) {
		return cls.New(marshal.Sig(marshal.ClassNumber, marshal.KindF64), v)
	})
}

func (g *glue) valueAt(ctx context.Context, stack []uint64) (*marshal.NumberObject, bool) {
	vl, ok := lookupAs[*marshal.ValueListObject](g.env(ctx), stack[0])
	if !ok {
		return nil, false
	}
	i := int(api.DecodeI32(stack[1]))
	if i < 0 || i >= len(vl.Values) {
		return nil, false
	}
	return vl.Values[i], true
}

func (g *glue) valueListValueKind(ctx context.Context, _ api.Module, stack []uint64) {
	n, ok := g.valueAt(ctx, stack)
	switch {
	case !ok:
		stack[0] = api.EncodeI32(-1)
	case n.IsFloat:
		stack[0] = api.EncodeI32(1)
	default:
		stack[0] = api.EncodeI32(0)
	}
}

func (g *glue) valueListCounterAt(ctx context.Context, _ api.Module, stack []uint64) {
	n, ok := g.valueAt(ctx, stack)
	if !ok {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeI64(n.Int64())
}

func (g *glue) valueListGaugeAt(ctx context.Context, _ api.Module, stack []uint64) {
	n, ok := g.valueAt(ctx, stack)
	if !ok {
		stack[0] = api.EncodeF64(0)
		return
	}
	stack[0] = api.EncodeF64(n.Float64())
}

func (g *glue) valueListGetDataSet(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	vl, ok := lookupAs[*marshal.ValueListObject](env, stack[0])
	if !ok || vl.Schema == nil {
		stack[0] = 0
		return
	}
	stack[0] = uint64(env.Export(vl.Schema))
}

func (g *glue) dataSetSource(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	ds, ok := lookupAs[*marshal.DataSetObject](env, stack[0])
	i := int(api.DecodeI32(stack[1]))
	if !ok || i < 0 || i >= len(ds.Sources) {
		stack[0] = 0
		return
	}
	stack[0] = uint64(env.Export(ds.Sources[i]))
}

func (g *glue) configItemValue(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	item, ok := lookupAs[*marshal.ConfigItemObject](env, stack[0])
	i := int(api.DecodeI32(stack[1]))
	if !ok || i < 0 || i >= len(item.Values) {
		stack[0] = 0
		return
	}
	stack[0] = uint64(env.Export(item.Values[i]))
}

func (g *glue) configItemChild(ctx context.Context, _ api.Module, stack []uint64) {
	env := g.env(ctx)
	item, ok := lookupAs[*marshal.ConfigItemObject](env, stack[0])
	i := int(api.DecodeI32(stack[1]))
	if !ok || i < 0 || i >= len(item.Children) {
		stack[0] = 0
		return
	}
	stack[0] = uint64(env.Export(item.Children[i]))
}

// Member-routed accessor builders. Resolution failures and receiver
// mismatches degrade to an error status rather than a trap.

func (g *glue) textGetter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		if !okObj || !okCls {
			stack[0] = api.EncodeI32(-1)
			return
		}
		s, err := cls.GetText(obj, member)
		if err != nil {
			g.accessorFailed(member, err)
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(writeGuestString(mod, stack[1], stack[2], s))
	}
}

func (g *glue) textSetter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		s, okStr := readGuestString(mod, stack[1], stack[2])
		if !okObj || !okCls || !okStr {
			stack[0] = api.EncodeI32(-1)
			return
		}
		if err := cls.SetText(obj, member, s); err != nil {
			g.accessorFailed(member, err)
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(0)
	}
}

func (g *glue) i64Setter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		if !okObj || !okCls {
			stack[0] = api.EncodeI32(-1)
			return
		}
		if err := cls.SetInt64(obj, member, int64(stack[1])); err != nil {
			g.accessorFailed(member, err)
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(0)
	}
}

func (g *glue) i64Getter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		if !okObj || !okCls {
			stack[0] = 0
			return
		}
		v, err := cls.GetInt64(obj, member)
		if err != nil {
			g.accessorFailed(member, err)
			stack[0] = 0
			return
		}
		stack[0] = api.EncodeI64(v)
	}
}

// lenGetter reads an i64 member and narrows it to an i32 result.
func (g *glue) lenGetter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		if !okObj || !okCls {
			stack[0] = api.EncodeI32(-1)
			return
		}
		v, err := cls.GetInt64(obj, member)
		if err != nil {
			g.accessorFailed(member, err)
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(int32(v))
	}
}

func (g *glue) f64Getter(class marshal.Kind, member string) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		obj, okObj := lookupAs[any](g.env(ctx), stack[0])
		cls, okCls := g.class(class)
		if !okObj || !okCls {
			stack[0] = api.EncodeF64(0)
			return
		}
		v, err := cls.GetFloat64(obj, member)
		if err != nil {
			g.accessorFailed(member, err)
			stack[0] = api.EncodeF64(0)
			return
		}
		stack[0] = api.EncodeF64(v)
	}
}
