package types

import "github.com/arc-language/core-builder/target"

// Size returns the size in bytes of t on the given target. Grounded on
// core-codegen's arch/amd64.SizeOf, generalised to be target-parametric
// (the teacher hard-codes AMD64 widths; here pointer/long/size_t widths
// come from the target.Descriptor instead).
func Size(t Type, td *target.Descriptor) int64 {
	switch v := t.(type) {
	case None:
		return 0
	case Variadic:
		return 0
	case *PrimitiveT:
		return primitiveSize(v.Prim)
	case *Pointer:
		return int64(td.PointerSizeBytes)
	case *Array:
		return v.Length * Size(v.Elem, td)
	case *Func:
		return int64(td.PointerSizeBytes)
	case *Struct:
		return structSize(v, td)
	case *Union:
		return unionSize(v, td)
	default:
		return int64(td.PointerSizeBytes)
	}
}

func primitiveSize(p Primitive) int64 {
	switch p {
	case I1, I8:
		return 1
	case I16, F16:
		return 2
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	case I128:
		return 16
	default:
		return 8
	}
}

// Align returns the alignment requirement in bytes of t.
func Align(t Type, td *target.Descriptor) int64 {
	switch v := t.(type) {
	case None:
		return 1
	case Variadic:
		return 1
	case *PrimitiveT:
		return primitiveSize(v.Prim)
	case *Pointer:
		return int64(td.PointerSizeBytes)
	case *Array:
		return Align(v.Elem, td)
	case *Func:
		return int64(td.PointerSizeBytes)
	case *Struct:
		max := int64(1)
		for _, f := range v.Fields {
			if a := Align(f.Type, td); a > max {
				max = a
			}
		}
		return max
	case *Union:
		max := int64(1)
		for _, f := range v.Fields {
			if a := Align(f.Type, td); a > max {
				max = a
			}
		}
		return max
	default:
		return int64(td.PointerSizeBytes)
	}
}

func alignUp(off, align int64) int64 {
	if align <= 1 {
		return off
	}
	if r := off % align; r != 0 {
		off += align - r
	}
	return off
}

func structSize(st *Struct, td *target.Descriptor) int64 {
	var off int64
	for _, f := range st.Fields {
		off = alignUp(off, Align(f.Type, td))
		off += Size(f.Type, td)
	}
	return alignUp(off, Align(st, td))
}

func unionSize(un *Union, td *target.Descriptor) int64 {
	var max int64
	for _, f := range un.Fields {
		if s := Size(f.Type, td); s > max {
			max = s
		}
	}
	return alignUp(max, Align(un, td))
}

// FieldOffset returns the byte offset of field index i within a Struct.
// Per §4.1, union types return null field offsets — callers must check
// the struct's Kind() before calling, or use FieldOffsetOf below, which
// encodes that contract directly.
func FieldOffset(st *Struct, i int, td *target.Descriptor) int64 {
	var off int64
	for j := 0; j < i; j++ {
		off = alignUp(off, Align(st.Fields[j].Type, td))
		off += Size(st.Fields[j].Type, td)
	}
	off = alignUp(off, Align(st.Fields[i].Type, td))
	return off
}

// FieldOffsetOf returns the byte offset of field i in an aggregate type,
// or nil if agg is a Union (unions have no meaningful field offset — all
// fields start at 0, but the spec models this as "returns null field
// offsets" so callers don't accidentally treat 0 as a real answer for a
// type where every field shares it).
func FieldOffsetOf(agg Type, i int, td *target.Descriptor) *int64 {
	switch v := agg.(type) {
	case *Struct:
		off := FieldOffset(v, i, td)
		return &off
	case *Union:
		return nil
	default:
		return nil
	}
}

// ArrayElementOffset returns the byte offset of element index within an
// array type.
func ArrayElementOffset(at *Array, index int64, td *target.Descriptor) int64 {
	return index * Size(at.Elem, td)
}
