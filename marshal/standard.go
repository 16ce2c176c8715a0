package marshal

import "fmt"

// NewRegistry builds the class registry for the bridge's managed object
// model. It is part of the native-callable surface registration: a bridge
// whose registry failed to build must not come up.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]*Class)}
	defineNumber(r.define(ClassNumber))
	defineDataSource(r.define(ClassDataSource))
	defineDataSet(r.define(ClassDataSet))
	defineValueList(r.define(ClassValueList))
	defineConfigValue(r.define(ClassConfigValue))
	defineConfigItem(r.define(ClassConfigItem))
	return r
}

func recvAs[T any](recv any) (T, error) {
	v, ok := recv.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("receiver is %T, want %T", recv, zero)
	}
	return v, nil
}

func defineNumber(c *Class) {
	c.constructor(Sig(ClassNumber, KindI64), func(args []any) (any, error) {
		return &NumberObject{I: args[0].(int64)}, nil
	})
	c.constructor(Sig(ClassNumber, KindF64), func(args []any) (any, error) {
		return &NumberObject{IsFloat: true, F: args[0].(float64)}, nil
	})
	c.method("get-i64", Sig(KindI64), func(recv any, _ []any) (any, error) {
		n, err := recvAs[*NumberObject](recv)
		if err != nil {
			return nil, err
		}
		return n.Int64(), nil
	})
	c.method("get-f64", Sig(KindF64), func(recv any, _ []any) (any, error) {
		n, err := recvAs[*NumberObject](recv)
		if err != nil {
			return nil, err
		}
		return n.Float64(), nil
	})
}

func defineDataSource(c *Class) {
	c.constructor(Sig(ClassDataSource), func(_ []any) (any, error) {
		return &DataSourceObject{}, nil
	})
	c.method("set-name", Sig(KindVoid, KindText), func(recv any, args []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		s.Name = args[0].(string)
		return nil, nil
	})
	c.method("set-kind", Sig(KindVoid, KindI32), func(recv any, args []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		s.Kind = args[0].(int32)
		return nil, nil
	})
	c.method("set-min", Sig(KindVoid, KindF64), func(recv any, args []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		s.Min = args[0].(float64)
		return nil, nil
	})
	c.method("set-max", Sig(KindVoid, KindF64), func(recv any, args []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		s.Max = args[0].(float64)
		return nil, nil
	})
	c.method("get-name", Sig(KindText), func(recv any, _ []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		return s.Name, nil
	})
	c.method("get-kind", Sig(KindI64), func(recv any, _ []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(s.Kind), nil
	})
	c.method("get-min", Sig(KindF64), func(recv any, _ []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		return s.Min, nil
	})
	c.method("get-max", Sig(KindF64), func(recv any, _ []any) (any, error) {
		s, err := recvAs[*DataSourceObject](recv)
		if err != nil {
			return nil, err
		}
		return s.Max, nil
	})
}

func defineDataSet(c *Class) {
	c.constructor(Sig(ClassDataSet, KindText), func(args []any) (any, error) {
		return &DataSetObject{Type: args[0].(string)}, nil
	})
	c.method("add-data-source", Sig(KindVoid, ClassDataSource), func(recv any, args []any) (any, error) {
		ds, err := recvAs[*DataSetObject](recv)
		if err != nil {
			return nil, err
		}
		src, err := recvAs[*DataSourceObject](args[0])
		if err != nil {
			return nil, err
		}
		ds.Sources = append(ds.Sources, src)
		return nil, nil
	})
	c.method("get-type", Sig(KindText), func(recv any, _ []any) (any, error) {
		ds, err := recvAs[*DataSetObject](recv)
		if err != nil {
			return nil, err
		}
		return ds.Type, nil
	})
	c.method("sources-len", Sig(KindI64), func(recv any, _ []any) (any, error) {
		ds, err := recvAs[*DataSetObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(len(ds.Sources)), nil
	})
}

func defineValueList(c *Class) {
	c.constructor(Sig(ClassValueList), func(_ []any) (any, error) {
		return &ValueListObject{}, nil
	})

	setText := func(name string, assign func(*ValueListObject, string)) {
		c.method(name, Sig(KindVoid, KindText), func(recv any, args []any) (any, error) {
			vl, err := recvAs[*ValueListObject](recv)
			if err != nil {
				return nil, err
			}
			assign(vl, args[0].(string))
			return nil, nil
		})
	}
	getText := func(name string, read func(*ValueListObject) string) {
		c.method(name, Sig(KindText), func(recv any, _ []any) (any, error) {
			vl, err := recvAs[*ValueListObject](recv)
			if err != nil {
				return nil, err
			}
			return read(vl), nil
		})
	}

	setText("set-host", func(vl *ValueListObject, s string) { vl.Host = s })
	setText("set-plugin", func(vl *ValueListObject, s string) { vl.Plugin = s })
	setText("set-plugin-instance", func(vl *ValueListObject, s string) { vl.PluginInstance = s })
	setText("set-type", func(vl *ValueListObject, s string) { vl.Type = s })
	setText("set-type-instance", func(vl *ValueListObject, s string) { vl.TypeInstance = s })
	getText("get-host", func(vl *ValueListObject) string { return vl.Host })
	getText("get-plugin", func(vl *ValueListObject) string { return vl.Plugin })
	getText("get-plugin-instance", func(vl *ValueListObject) string { return vl.PluginInstance })
	getText("get-type", func(vl *ValueListObject) string { return vl.Type })
	getText("get-type-instance", func(vl *ValueListObject) string { return vl.TypeInstance })

	c.method("set-time", Sig(KindVoid, KindI64), func(recv any, args []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		vl.TimeMS = args[0].(int64)
		return nil, nil
	})
	c.method("get-time", Sig(KindI64), func(recv any, _ []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		return vl.TimeMS, nil
	})
	c.method("set-interval", Sig(KindVoid, KindI64), func(recv any, args []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		vl.Interval = args[0].(int64)
		return nil, nil
	})
	c.method("get-interval", Sig(KindI64), func(recv any, _ []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		return vl.Interval, nil
	})
	c.method("add-value", Sig(KindVoid, ClassNumber), func(recv any, args []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		n, err := recvAs[*NumberObject](args[0])
		if err != nil {
			return nil, err
		}
		vl.Values = append(vl.Values, n)
		return nil, nil
	})
	c.method("values-len", Sig(KindI64), func(recv any, _ []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(len(vl.Values)), nil
	})
	c.method("set-data-set", Sig(KindVoid, ClassDataSet), func(recv any, args []any) (any, error) {
		vl, err := recvAs[*ValueListObject](recv)
		if err != nil {
			return nil, err
		}
		ds, err := recvAs[*DataSetObject](args[0])
		if err != nil {
			return nil, err
		}
		vl.Schema = ds
		return nil, nil
	})
}

func defineConfigValue(c *Class) {
	c.constructor(Sig(ClassConfigValue, KindText), func(args []any) (any, error) {
		return &ConfigValueObject{Kind: 0, Text: args[0].(string)}, nil
	})
	c.constructor(Sig(ClassConfigValue, KindF64), func(args []any) (any, error) {
		return &ConfigValueObject{Kind: 1, Num: args[0].(float64)}, nil
	})
	c.constructor(Sig(ClassConfigValue, KindBool), func(args []any) (any, error) {
		return &ConfigValueObject{Kind: 2, Bool: args[0].(bool)}, nil
	})
	c.method("get-kind", Sig(KindI64), func(recv any, _ []any) (any, error) {
		v, err := recvAs[*ConfigValueObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(v.Kind), nil
	})
	c.method("get-text", Sig(KindText), func(recv any, _ []any) (any, error) {
		v, err := recvAs[*ConfigValueObject](recv)
		if err != nil {
			return nil, err
		}
		return v.Text, nil
	})
	c.method("get-number", Sig(KindF64), func(recv any, _ []any) (any, error) {
		v, err := recvAs[*ConfigValueObject](recv)
		if err != nil {
			return nil, err
		}
		return v.Num, nil
	})
	c.method("get-bool", Sig(KindI64), func(recv any, _ []any) (any, error) {
		v, err := recvAs[*ConfigValueObject](recv)
		if err != nil {
			return nil, err
		}
		if v.Bool {
			return int64(1), nil
		}
		return int64(0), nil
	})
}

func defineConfigItem(c *Class) {
	c.constructor(Sig(ClassConfigItem, KindText), func(args []any) (any, error) {
		return &ConfigItemObject{Key: args[0].(string)}, nil
	})
	c.method("get-key", Sig(KindText), func(recv any, _ []any) (any, error) {
		ci, err := recvAs[*ConfigItemObject](recv)
		if err != nil {
			return nil, err
		}
		return ci.Key, nil
	})
	c.method("add-value", Sig(KindVoid, ClassConfigValue), func(recv any, args []any) (any, error) {
		ci, err := recvAs[*ConfigItemObject](recv)
		if err != nil {
			return nil, err
		}
		v, err := recvAs[*ConfigValueObject](args[0])
		if err != nil {
			return nil, err
		}
		ci.Values = append(ci.Values, v)
		return nil, nil
	})
	c.method("add-child", Sig(KindVoid, ClassConfigItem), func(recv any, args []any) (any, error) {
		ci, err := recvAs[*ConfigItemObject](recv)
		if err != nil {
			return nil, err
		}
		child, err := recvAs[*ConfigItemObject](args[0])
		if err != nil {
			return nil, err
		}
		ci.Children = append(ci.Children, child)
		return nil, nil
	})
	c.method("values-len", Sig(KindI64), func(recv any, _ []any) (any, error) {
		ci, err := recvAs[*ConfigItemObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(len(ci.Values)), nil
	})
	c.method("children-len", Sig(KindI64), func(recv any, _ []any) (any, error) {
		ci, err := recvAs[*ConfigItemObject](recv)
		if err != nil {
			return nil, err
		}
		return int64(len(ci.Children)), nil
	})
}
