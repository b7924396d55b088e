package types

import "github.com/arc-language/core-builder/target"

// CastKind classifies how a value of one IR type must be converted to
// another, per §4.1.
type CastKind int

const (
	CastNone CastKind = iota
	// CastCompareNonzero: producing an I1 from any other scalar compares
	// it against zero rather than truncating/converting.
	CastCompareNonzero
	CastTrunc
	CastZExt
	CastSExt
	// CastConv is a float-to-float conversion of differing width.
	CastConv
	// CastSConv converts between a float and a signed integer, in
	// either direction.
	CastSConv
	// CastUConv converts between a float and an unsigned integer, in
	// either direction.
	CastUConv
)

func (k CastKind) String() string {
	switch k {
	case CastNone:
		return "none"
	case CastCompareNonzero:
		return "cmp-nonzero"
	case CastTrunc:
		return "trunc"
	case CastZExt:
		return "zext"
	case CastSExt:
		return "sext"
	case CastConv:
		return "conv"
	case CastSConv:
		return "sconv"
	case CastUConv:
		return "uconv"
	default:
		return "?"
	}
}

// Classify determines the cast operation required to convert a value of
// type `from` (with signedness fromSigned, meaningful only when from is
// an integer primitive) to type `to` (toSigned likewise). This follows
// §4.1's rule list exactly.
func Classify(from Type, fromSigned bool, to Type, toSigned bool, td *target.Descriptor) CastKind {
	// Pointer<->pointer, function<->pointer, pointer<->integer-of-pointer-width: no-op.
	if from.Kind() == KindPointer && to.Kind() == KindPointer {
		return CastNone
	}
	if (from.Kind() == KindFunc && to.Kind() == KindPointer) ||
		(from.Kind() == KindPointer && to.Kind() == KindFunc) {
		return CastNone
	}
	if from.Kind() == KindPointer && isIntOfWidth(to, td.PointerSizeBytes*8) {
		return CastNone
	}
	if to.Kind() == KindPointer && isIntOfWidth(from, td.PointerSizeBytes*8) {
		return CastNone
	}

	toPrim, toIsPrim := to.(*PrimitiveT)
	fromPrim, fromIsPrim := from.(*PrimitiveT)

	// I1 <- T: compare-nonzero.
	if toIsPrim && toPrim.Prim == I1 && !(fromIsPrim && fromPrim.Prim == I1) {
		return CastCompareNonzero
	}

	// I8 <- I1: no-op, I1 is canonically {0,1}.
	if fromIsPrim && fromPrim.Prim == I1 && toIsPrim && toPrim.Prim == I8 {
		return CastNone
	}

	if fromIsPrim && toIsPrim {
		fromFloat := fromPrim.Prim.IsFloat()
		toFloat := toPrim.Prim.IsFloat()

		switch {
		case !fromFloat && !toFloat:
			// integer <-> integer
			fb := primitiveSize(fromPrim.Prim)
			tb := primitiveSize(toPrim.Prim)
			if tb < fb {
				return CastTrunc
			}
			if tb == fb {
				return CastNone
			}
			if fromSigned {
				return CastSExt
			}
			return CastZExt
		case fromFloat && toFloat:
			if fromPrim.Prim == toPrim.Prim {
				return CastNone
			}
			return CastConv
		case !fromFloat && toFloat:
			if fromSigned {
				return CastSConv
			}
			return CastUConv
		case fromFloat && !toFloat:
			// float -> integer: the source is signed/unsigned per the
			// destination's signedness (toSigned), following the same
			// SCONV/UCONV split used for the reverse direction.
			if toSigned {
				return CastSConv
			}
			return CastUConv
		}
	}

	return CastNone
}

func isIntOfWidth(t Type, bits int) bool {
	p, ok := t.(*PrimitiveT)
	if !ok || p.Prim.IsFloat() {
		return false
	}
	return int(primitiveSize(p.Prim)*8) == bits
}
