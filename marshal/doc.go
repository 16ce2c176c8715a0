// Package marshal converts between the daemon's native records and the
// managed object representations guest extensions operate on.
//
// Managed objects belong to a small class system (value-list, data-set,
// data-source, config-item, config-value, number). Every conversion resolves
// its target member - constructor, setter or getter - by name and declared
// signature at the point of use:
//
//	cls, err := reg.Class(marshal.ClassValueList)
//	obj, err := cls.New(marshal.Sig(marshal.ClassValueList))
//	err = cls.SetText(obj, "set-host", vl.Host)
//
// A missing class or member, or a member with a different signature, is a
// lookup-kind error; a member whose invocation fails is a marshal-kind
// error. Composite conversions (ValueListTo, ValueListFrom, ConfigItemTo,
// DataSetTo) follow the same per-member discipline.
//
// Timestamps cross the boundary as epoch milliseconds; the conversion is a
// plain multiply/integer-divide by 1000, so sub-second precision does not
// survive a round trip by design.
package marshal
