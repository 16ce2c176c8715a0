// Package wasmtest builds small WebAssembly binaries for tests. The
// engine has no text-format frontend, so in-test guest modules are
// assembled directly in the binary format.
package wasmtest

import (
	"encoding/binary"
	"math"
)

// Value types as they appear in the binary format.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
	F64 byte = 0x7c
)

type funcType struct {
	params  []byte
	results []byte
}

type importedFunc struct {
	module string
	name   string
	typ    int
}

type definedFunc struct {
	name   string
	typ    int
	locals []byte
	body   []byte
}

type dataSegment struct {
	offset uint32
	bytes  []byte
}

// Module accumulates a guest module. All imports must be declared
// before the first defined function so that function indices line up.
type Module struct {
	types    []funcType
	imports  []importedFunc
	funcs    []definedFunc
	datas    []dataSegment
	memPages uint32
}

// NewModule returns a builder with one page of exported memory.
func NewModule() *Module {
	return &Module{memPages: 1}
}

// Memory overrides the module's minimum memory size in 64KiB pages.
func (m *Module) Memory(pages uint32) *Module {
	m.memPages = pages
	return m
}

// Import declares a function import and returns its function index.
func (m *Module) Import(module, name string, params, results []byte) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmtest: imports must precede defined functions")
	}
	m.imports = append(m.imports, importedFunc{
		module: module,
		name:   name,
		typ:    m.typeIndex(params, results),
	})
	return uint32(len(m.imports) - 1)
}

// Func defines and exports a function whose body is the given
// instruction stream. The terminating end opcode is appended here.
// Returns the function index.
func (m *Module) Func(name string, params, results []byte, body ...[]byte) uint32 {
	return m.FuncWithLocals(name, params, results, nil, body...)
}

// FuncWithLocals is Func with extra locals, one per value type in
// locals, indexed after the parameters.
func (m *Module) FuncWithLocals(name string, params, results, locals []byte, body ...[]byte) uint32 {
	var code []byte
	for _, b := range body {
		code = append(code, b...)
	}
	code = append(code, 0x0b)

	m.funcs = append(m.funcs, definedFunc{
		name:   name,
		typ:    m.typeIndex(params, results),
		locals: locals,
		body:   code,
	})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Data places bytes at a fixed offset in the module's memory.
func (m *Module) Data(offset uint32, b []byte) *Module {
	m.datas = append(m.datas, dataSegment{offset: offset, bytes: b})
	return m
}

// String places s in memory and returns (ptr, len) operand pairs for
// passing it to a host function.
func (m *Module) String(offset uint32, s string) (ptr, length []byte) {
	m.Data(offset, []byte(s))
	return I32Const(int32(offset)), I32Const(int32(len(s)))
}

func (m *Module) typeIndex(params, results []byte) int {
	for i, t := range m.types {
		if bytesEqual(t.params, params) && bytesEqual(t.results, results) {
			return i
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return len(m.types) - 1
}

// Build encodes the module.
func (m *Module) Build() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// Type section.
	var sec []byte
	sec = appendUleb(sec, uint64(len(m.types)))
	for _, t := range m.types {
		sec = append(sec, 0x60)
		sec = appendVec(sec, t.params)
		sec = appendVec(sec, t.results)
	}
	out = appendSection(out, 1, sec)

	// Import section.
	if len(m.imports) > 0 {
		sec = appendUleb(nil, uint64(len(m.imports)))
		for _, imp := range m.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, 0x00)
			sec = appendUleb(sec, uint64(imp.typ))
		}
		out = appendSection(out, 2, sec)
	}

	// Function section.
	if len(m.funcs) > 0 {
		sec = appendUleb(nil, uint64(len(m.funcs)))
		for _, f := range m.funcs {
			sec = appendUleb(sec, uint64(f.typ))
		}
		out = appendSection(out, 3, sec)
	}

	// Memory section: one memory, no maximum.
	sec = appendUleb(nil, 1)
	sec = append(sec, 0x00)
	sec = appendUleb(sec, uint64(m.memPages))
	out = appendSection(out, 5, sec)

	// Export section: every defined function plus the memory.
	sec = appendUleb(nil, uint64(len(m.funcs)+1))
	for i, f := range m.funcs {
		sec = appendName(sec, f.name)
		sec = append(sec, 0x00)
		sec = appendUleb(sec, uint64(len(m.imports)+i))
	}
	sec = appendName(sec, "memory")
	sec = append(sec, 0x02)
	sec = appendUleb(sec, 0)
	out = appendSection(out, 7, sec)

	// Code section.
	if len(m.funcs) > 0 {
		sec = appendUleb(nil, uint64(len(m.funcs)))
		for _, f := range m.funcs {
			var entry []byte
			entry = appendUleb(entry, uint64(len(f.locals)))
			for _, vt := range f.locals {
				entry = appendUleb(entry, 1)
				entry = append(entry, vt)
			}
			entry = append(entry, f.body...)
			sec = appendUleb(sec, uint64(len(entry)))
			sec = append(sec, entry...)
		}
		out = appendSection(out, 10, sec)
	}

	// Data section.
	if len(m.datas) > 0 {
		sec = appendUleb(nil, uint64(len(m.datas)))
		for _, d := range m.datas {
			sec = appendUleb(sec, 0)
			sec = append(sec, I32Const(int32(d.offset))...)
			sec = append(sec, 0x0b)
			sec = appendVec(sec, d.bytes)
		}
		out = appendSection(out, 11, sec)
	}

	return out
}

// Instruction helpers. Each returns the encoded instruction so bodies
// read as a flat list of operations.

func I32Const(v int32) []byte { return appendSleb([]byte{0x41}, int64(v)) }

func I64Const(v int64) []byte { return appendSleb([]byte{0x42}, v) }

func F64Const(v float64) []byte {
	b := make([]byte, 9)
	b[0] = 0x44
	binary.LittleEndian.PutUint64(b[1:], math.Float64bits(v))
	return b
}

func LocalGet(i uint32) []byte { return appendUleb([]byte{0x20}, uint64(i)) }

func LocalSet(i uint32) []byte { return appendUleb([]byte{0x21}, uint64(i)) }

func LocalTee(i uint32) []byte { return appendUleb([]byte{0x22}, uint64(i)) }

func Call(f uint32) []byte { return appendUleb([]byte{0x10}, uint64(f)) }

func Drop() []byte { return []byte{0x1a} }

func I32Add() []byte { return []byte{0x6a} }

func appendSection(out []byte, id byte, contents []byte) []byte {
	out = append(out, id)
	out = appendUleb(out, uint64(len(contents)))
	return append(out, contents...)
}

func appendVec(out, b []byte) []byte {
	out = appendUleb(out, uint64(len(b)))
	return append(out, b...)
}

func appendName(out []byte, s string) []byte {
	return appendVec(out, []byte(s))
}

func appendUleb(out []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func appendSleb(out []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
