package marshal

import (
	"github.com/ryarnyah/collectd-wasm/errors"
)

// Member is a resolved, invocable member of a class: a constructor, setter
// or getter with a declared signature.
type Member struct {
	Name   string
	Sig    Signature
	invoke func(recv any, args []any) (any, error)
}

// Invoke calls the member. A failure of the underlying invocation is a
// marshal-kind error; signature conformance is the caller's responsibility
// and is guaranteed when the member was resolved with its signature.
func (m *Member) Invoke(recv any, args ...any) (any, error) {
	out, err := m.invoke(recv, args)
	if err != nil {
		return nil, errors.Marshal(errors.PhaseMarshal, err, "invoke %s%s", m.Name, m.Sig)
	}
	return out, nil
}

// Class describes one managed object type: its constructors (keyed by
// signature, like constructor overloads) and its named members.
type Class struct {
	Name    string
	ctors   map[string]*Member
	members map[string]*Member
}

func newClass(name string) *Class {
	return &Class{
		Name:    name,
		ctors:   make(map[string]*Member),
		members: make(map[string]*Member),
	}
}

func (c *Class) constructor(sig Signature, fn func(args []any) (any, error)) {
	c.ctors[sig.String()] = &Member{
		Name: c.Name,
		Sig:  sig,
		invoke: func(_ any, args []any) (any, error) {
			return fn(args)
		},
	}
}

func (c *Class) method(name string, sig Signature, fn func(recv any, args []any) (any, error)) {
	c.members[name] = &Member{Name: c.Name + "." + name, Sig: sig, invoke: fn}
}

// Constructor resolves the constructor with the given signature.
func (c *Class) Constructor(sig Signature) (*Member, error) {
	m, ok := c.ctors[sig.String()]
	if !ok {
		return nil, errors.Lookup(errors.PhaseMarshal, "class %q has no constructor %s", c.Name, sig)
	}
	return m, nil
}

// Member resolves a member by name and declared signature. A present member
// with a different signature is as unresolvable as an absent one.
func (c *Class) Member(name string, sig Signature) (*Member, error) {
	m, ok := c.members[name]
	if !ok {
		return nil, errors.Lookup(errors.PhaseMarshal, "class %q has no member %q", c.Name, name)
	}
	if !m.Sig.Equal(sig) {
		return nil, errors.Lookup(errors.PhaseMarshal,
			"class %q member %q has signature %s, want %s", c.Name, name, m.Sig, sig)
	}
	return m, nil
}

// New resolves and invokes a constructor.
func (c *Class) New(sig Signature, args ...any) (any, error) {
	ctor, err := c.Constructor(sig)
	if err != nil {
		return nil, err
	}
	return ctor.Invoke(nil, args...)
}

// Typed native-to-managed setters. Each resolves its member by name and
// declared signature at the point of use.

// SetText invokes a (text)void member.
func (c *Class) SetText(recv any, name, value string) error {
	m, err := c.Member(name, Sig(KindVoid, KindText))
	if err != nil {
		return err
	}
	_, err = m.Invoke(recv, value)
	return err
}

// SetInt32 invokes an (i32)void member.
func (c *Class) SetInt32(recv any, name string, value int32) error {
	m, err := c.Member(name, Sig(KindVoid, KindI32))
	if err != nil {
		return err
	}
	_, err = m.Invoke(recv, value)
	return err
}

// SetInt64 invokes an (i64)void member.
func (c *Class) SetInt64(recv any, name string, value int64) error {
	m, err := c.Member(name, Sig(KindVoid, KindI64))
	if err != nil {
		return err
	}
	_, err = m.Invoke(recv, value)
	return err
}

// SetFloat64 invokes an (f64)void member.
func (c *Class) SetFloat64(recv any, name string, value float64) error {
	m, err := c.Member(name, Sig(KindVoid, KindF64))
	if err != nil {
		return err
	}
	_, err = m.Invoke(recv, value)
	return err
}

// SetObject invokes a (class)void member, appending or attaching an object.
func (c *Class) SetObject(recv any, name string, class Kind, value any) error {
	m, err := c.Member(name, Sig(KindVoid, class))
	if err != nil {
		return err
	}
	_, err = m.Invoke(recv, value)
	return err
}

// Typed managed-to-native getters.

// GetText invokes a ()text member.
func (c *Class) GetText(recv any, name string) (string, error) {
	m, err := c.Member(name, Sig(KindText))
	if err != nil {
		return "", err
	}
	out, err := m.Invoke(recv)
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// GetInt64 invokes a ()i64 member.
func (c *Class) GetInt64(recv any, name string) (int64, error) {
	m, err := c.Member(name, Sig(KindI64))
	if err != nil {
		return 0, err
	}
	out, err := m.Invoke(recv)
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}

// GetFloat64 invokes a ()f64 member.
func (c *Class) GetFloat64(recv any, name string) (float64, error) {
	m, err := c.Member(name, Sig(KindF64))
	if err != nil {
		return 0, err
	}
	out, err := m.Invoke(recv)
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

// Registry holds the managed classes the bridge exposes. It is built once
// when the native-callable surface is registered with the runtime.
type Registry struct {
	classes map[string]*Class
}

// Class resolves a class by name.
func (r *Registry) Class(name Kind) (*Class, error) {
	c, ok := r.classes[string(name)]
	if !ok {
		return nil, errors.Lookup(errors.PhaseMarshal, "class %q not found", name)
	}
	return c, nil
}

func (r *Registry) define(name Kind) *Class {
	c := newClass(string(name))
	r.classes[string(name)] = c
	return c
}
