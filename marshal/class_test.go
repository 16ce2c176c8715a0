package marshal

import (
	stderrors "errors"
	"testing"

	"github.com/ryarnyah/collectd-wasm/errors"
)

func TestClassLookup(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Class(ClassValueList); err != nil {
		t.Fatalf("Class(value-list): %v", err)
	}

	_, err := reg.Class("no-such-class")
	if err == nil {
		t.Fatal("expected lookup error for unknown class")
	}
	if !errors.IsKind(err, errors.KindLookup) {
		t.Errorf("expected lookup kind, got %v", err)
	}
}

func TestMemberLookupBySignature(t *testing.T) {
	reg := NewRegistry()
	cls, _ := reg.Class(ClassValueList)

	if _, err := cls.Member("set-host", Sig(KindVoid, KindText)); err != nil {
		t.Fatalf("set-host(text)void should resolve: %v", err)
	}

	// Right name, wrong declared signature.
	_, err := cls.Member("set-host", Sig(KindVoid, KindI64))
	if err == nil {
		t.Fatal("expected lookup error on signature mismatch")
	}
	if !errors.IsKind(err, errors.KindLookup) {
		t.Errorf("expected lookup kind, got %v", err)
	}

	_, err = cls.Member("no-such-member", Sig(KindVoid, KindText))
	if !errors.IsKind(err, errors.KindLookup) {
		t.Errorf("expected lookup kind for absent member, got %v", err)
	}
}

func TestConstructorOverloads(t *testing.T) {
	reg := NewRegistry()
	cls, _ := reg.Class(ClassNumber)

	n, err := cls.New(Sig(ClassNumber, KindI64), int64(42))
	if err != nil {
		t.Fatalf("i64 constructor: %v", err)
	}
	if got := n.(*NumberObject).Int64(); got != 42 {
		t.Errorf("Int64() = %d, want 42", got)
	}

	f, err := cls.New(Sig(ClassNumber, KindF64), 2.5)
	if err != nil {
		t.Fatalf("f64 constructor: %v", err)
	}
	if got := f.(*NumberObject).Float64(); got != 2.5 {
		t.Errorf("Float64() = %g, want 2.5", got)
	}

	if _, err := cls.New(Sig(ClassNumber, KindText), "nope"); err == nil {
		t.Error("expected lookup error for absent constructor overload")
	}
}

func TestInvokeWrongReceiver(t *testing.T) {
	reg := NewRegistry()
	cls, _ := reg.Class(ClassValueList)

	err := cls.SetText("not a value list", "set-host", "h")
	if err == nil {
		t.Fatal("expected marshal error on wrong receiver")
	}
	if !errors.IsKind(err, errors.KindMarshal) {
		t.Errorf("expected marshal kind, got %v", err)
	}
	if stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindLookup}) {
		t.Error("receiver mismatch must not look like a lookup failure")
	}
}

func TestSignatureString(t *testing.T) {
	if got := Sig(KindVoid, KindText, KindI32).String(); got != "(text,i32)void" {
		t.Errorf("String() = %q", got)
	}
	if got := Sig(ClassNumber).String(); got != "()number" {
		t.Errorf("String() = %q", got)
	}
}
