// Package types implements the IR type system (§3, §4.1 of the design):
// mapping typed-tree types to IR types, and computing size/alignment/field
// offsets against a target ABI.
package types

import (
	"fmt"
	"strings"

	"github.com/arc-language/core-builder/target"
)

// Kind discriminates the variants of Type.
type Kind int

const (
	KindNone Kind = iota
	KindPrimitive
	KindPointer
	KindArray
	KindFunc
	KindStruct
	KindUnion
	// KindVariadic is a sentinel used only in parameter lists during
	// lowering; it never appears in a fully-built IR function type.
	KindVariadic
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPrimitive:
		return "primitive"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindFunc:
		return "func"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindVariadic:
		return "variadic"
	default:
		return "unknown"
	}
}

// Primitive enumerates the scalar primitive types the IR supports.
type Primitive int

const (
	I1 Primitive = iota
	I8
	I16
	I32
	I64
	I128
	F16
	F32
	F64
)

func (p Primitive) String() string {
	switch p {
	case I1:
		return "i1"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "?"
	}
}

// IsFloat reports whether the primitive is a floating-point kind.
func (p Primitive) IsFloat() bool { return p == F16 || p == F32 || p == F64 }

// Type is any IR type. All concrete variants are comparable so they can be
// used as map keys where convenient; callers needing structural equality
// across pointer-distinct instances should use Equal.
type Type interface {
	Kind() Kind
	String() string
}

// None is the `void` IR type. There is exactly one logical instance,
// but it is not a singleton pointer — compare by Kind().
type None struct{}

func (None) Kind() Kind     { return KindNone }
func (None) String() string { return "void" }

// Variadic is the sentinel type standing in for `...` in a parameter
// list while lowering; TypeLowering strips it before producing the final
// Func type (§4.1).
type Variadic struct{}

func (Variadic) Kind() Kind     { return KindVariadic }
func (Variadic) String() string { return "..." }

// PrimitiveT wraps a Primitive as a Type.
type PrimitiveT struct {
	Prim Primitive
	// Signed matters only for integer primitives, and only String reads
	// it: size, alignment and Equal ignore it, and cast classification
	// (§4.1) and op selection take signedness from the typed-tree type,
	// which the caller (ExprBuilder) passes separately.
	Signed bool
}

func (t *PrimitiveT) Kind() Kind { return KindPrimitive }
func (t *PrimitiveT) String() string {
	if t.Prim.IsFloat() {
		return t.Prim.String()
	}
	if t.Signed {
		return t.Prim.String()
	}
	return "u" + t.Prim.String()
}

// Pointer is the IR pointer type. Pointers are opaque at the IR level —
// no pointee type is carried (§3).
type Pointer struct{}

func (*Pointer) Kind() Kind     { return KindPointer }
func (*Pointer) String() string { return "ptr" }

// Array is a fixed-length array of Elem.
type Array struct {
	Elem   Type
	Length int64
}

func (t *Array) Kind() Kind { return KindArray }
func (t *Array) String() string {
	return fmt.Sprintf("[%d x %s]", t.Length, t.Elem.String())
}

// Func is a function type: return type, parameter types (with the
// Variadic sentinel already stripped), and whether the source function
// was variadic.
type Func struct {
	Ret      Type
	Params   []Type
	Variadic bool
}

func (t *Func) Kind() Kind { return KindFunc }
func (t *Func) String() string {
	var b strings.Builder
	b.WriteString(t.Ret.String())
	b.WriteString(" (")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	if t.Variadic {
		if len(t.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	return b.String()
}

// Field is one member of a Struct or Union.
type Field struct {
	Name string
	Type Type
	// Bitfield is non-nil when this field is a bitfield; Offset/Width are
	// in bits, relative to the start of the underlying storage unit.
	Bitfield *BitfieldInfo
}

// BitfieldInfo gives the {offset, width} in bits of a bitfield member,
// per §3's LOAD_BITFIELD/STORE_BITFIELD contract.
type BitfieldInfo struct {
	Offset uint8
	Width  uint8
}

// Struct is a sequential aggregate; fields are laid out in declaration
// order with natural alignment padding (computed by Size and FieldOffset
// in layout.go).
type Struct struct {
	Tag    string
	Fields []Field
}

func (t *Struct) Kind() Kind { return KindStruct }
func (t *Struct) String() string {
	if t.Tag != "" {
		return "struct " + t.Tag
	}
	return "struct <anon>"
}

// Union is an overlapping aggregate; every field starts at offset 0.
type Union struct {
	Tag    string
	Fields []Field
}

func (t *Union) Kind() Kind { return KindUnion }
func (t *Union) String() string {
	if t.Tag != "" {
		return "union " + t.Tag
	}
	return "union <anon>"
}

// Equal reports whether two types are structurally identical. This is
// used by the type validator and cast lowering, which need to compare IR
// types by structure rather than by pointer identity, since
// TypeLowering does not intern.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case None:
		return true
	case Variadic:
		return true
	case *PrimitiveT:
		bv := b.(*PrimitiveT)
		return av.Prim == bv.Prim
	case *Pointer:
		return true
	case *Array:
		bv := b.(*Array)
		return av.Length == bv.Length && Equal(av.Elem, bv.Elem)
	case *Func:
		bv := b.(*Func)
		if av.Variadic != bv.Variadic || len(av.Params) != len(bv.Params) {
			return false
		}
		if !Equal(av.Ret, bv.Ret) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	case *Struct:
		bv := b.(*Struct)
		return av.Tag == bv.Tag && fieldsEqual(av.Fields, bv.Fields)
	case *Union:
		bv := b.(*Union)
		return av.Tag == bv.Tag && fieldsEqual(av.Fields, bv.Fields)
	default:
		return false
	}
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !Equal(a[i].Type, b[i].Type) {
			return false
		}
		if (a[i].Bitfield == nil) != (b[i].Bitfield == nil) ||
			(a[i].Bitfield != nil && *a[i].Bitfield != *b[i].Bitfield) {
			return false
		}
	}
	return true
}

// IsAggregate reports whether t is passed/loaded as a memory blob rather
// than a scalar SSA value (§4.2's lvalue/rvalue discipline).
func IsAggregate(t Type) bool {
	k := t.Kind()
	return k == KindStruct || k == KindUnion
}

// IsScalar is the complement restricted to types that can legally be an
// SSA op's result type (so aggregates and arrays are excluded — arrays
// decay before reaching this check).
func IsScalar(t Type) bool {
	switch t.Kind() {
	case KindPrimitive, KindPointer:
		return true
	default:
		return false
	}
}

// Constructor helpers used pervasively by callers constructing IR types by
// hand (tests, InitBuilder constant folding).
func I1T() Type                   { return &PrimitiveT{Prim: I1, Signed: false} }
func I8T(signed bool) Type        { return &PrimitiveT{Prim: I8, Signed: signed} }
func I16T(signed bool) Type       { return &PrimitiveT{Prim: I16, Signed: signed} }
func I32T(signed bool) Type       { return &PrimitiveT{Prim: I32, Signed: signed} }
func I64T(signed bool) Type       { return &PrimitiveT{Prim: I64, Signed: signed} }
func I128T(signed bool) Type      { return &PrimitiveT{Prim: I128, Signed: signed} }
func F32T() Type                  { return &PrimitiveT{Prim: F32} }
func F64T() Type                  { return &PrimitiveT{Prim: F64} }
func PtrT() Type                  { return &Pointer{} }
func ArrayT(e Type, n int64) Type { return &Array{Elem: e, Length: n} }

// PointerSizedInt returns a pointer-width integer type for the target,
// used when synthesising e.g. the `1` operand of pointer ++/-- (§4.2) or
// the divisor in pointer subtraction.
func PointerSizedInt(td *target.Descriptor, signed bool) Type {
	switch td.PointerSizeBytes {
	case 4:
		return I32T(signed)
	default:
		return I64T(signed)
	}
}
