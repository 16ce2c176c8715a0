package marshal

import "strings"

// Kind names one slot of a member signature. Scalar kinds are predefined;
// any other value names an object class.
type Kind string

const (
	KindText Kind = "text"
	KindI32  Kind = "i32"
	KindI64  Kind = "i64"
	KindF64  Kind = "f64"
	KindBool Kind = "bool"
	KindVoid Kind = "void"
)

// Signature is the declared shape of a member: parameter kinds and the
// result kind. Members without a result use KindVoid.
type Signature struct {
	Params []Kind
	Result Kind
}

// Sig builds a Signature.
func Sig(result Kind, params ...Kind) Signature {
	return Signature{Params: params, Result: result}
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(p))
	}
	b.WriteByte(')')
	b.WriteString(string(s.Result))
	return b.String()
}

// Equal reports whether two signatures declare the same shape.
func (s Signature) Equal(o Signature) bool {
	if s.Result != o.Result || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}
