// Package build implements the six build-phase components of §4:
// TypeLowering's expression-facing half (array decay lives here, per
// §4.1, because it is a caller responsibility), ExprBuilder, StmtBuilder,
// InitBuilder, FuncBuilder and UnitBuilder.
package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"
)

// LowerMode selects how TypeLowering treats an incomplete aggregate
// (§4.1): Normal rejects it (a DEBUG_ASSERT contract violation if it
// slips through — the typed tree
// contract says incomplete aggregates are only legal when producing a
// declaration type), Decl lowers it to a bare pointer.
type LowerMode int

const (
	LowerNormal LowerMode = iota
	LowerDecl
)

// LowerType maps a typed-tree type to an IR type (§4.1). This is the
// pure, deterministic half of TypeLowering; ExprBuilder additionally
// decides *when* array/function decay applies (reading vs. taking the
// address), which is why decay itself is not performed here.
func LowerType(td *target.Descriptor, vt *tree.VarTy, mode LowerMode) types.Type {
	switch vt.Kind {
	case tree.TyVoid:
		return types.None{}
	case tree.TyVariadic:
		return types.Variadic{}
	case tree.TyWellKnown:
		return lowerWellKnown(td, vt.WellKnown)
	case tree.TyPointer:
		return types.PtrT()
	case tree.TyArray:
		if vt.Len < 0 {
			// Incomplete array: only legal as a declaration type (e.g.
			// `extern int a[];`); elsewhere this is a contract
			// violation the type checker should have ruled out.
			ibug.Assertf(mode == LowerDecl, "incomplete array type used outside a declaration")
			return types.PtrT()
		}
		return types.ArrayT(LowerType(td, vt.Of, LowerNormal), vt.Len)
	case tree.TyFunc:
		return lowerFunc(td, vt)
	case tree.TyStruct:
		if vt.Incomplete {
			ibug.Assertf(mode == LowerDecl, "incomplete struct %q used outside a declaration", vt.Tag)
			return types.PtrT()
		}
		return &types.Struct{Tag: vt.Tag, Fields: lowerFields(td, vt.Fields)}
	case tree.TyUnion:
		if vt.Incomplete {
			ibug.Assertf(mode == LowerDecl, "incomplete union %q used outside a declaration", vt.Tag)
			return types.PtrT()
		}
		return &types.Union{Tag: vt.Tag, Fields: lowerFields(td, vt.Fields)}
	default:
		ibug.Bugf("unreachable VarTyKind %d", vt.Kind)
		return nil
	}
}

func lowerWellKnown(td *target.Descriptor, wkt tree.WellKnown) types.Type {
	switch wkt {
	case tree.Bool:
		return types.I1T()
	case tree.Char:
		return types.I8T(true)
	case tree.SChar:
		return types.I8T(true)
	case tree.UChar:
		return types.I8T(false)
	case tree.Short:
		return types.I16T(true)
	case tree.UShort:
		return types.I16T(false)
	case tree.Int:
		return types.I32T(true)
	case tree.UInt:
		return types.I32T(false)
	case tree.Long:
		return longType(td, true)
	case tree.ULong:
		return longType(td, false)
	case tree.LongLong:
		return types.I64T(true)
	case tree.ULongLong:
		return types.I64T(false)
	case tree.Float:
		return types.F32T()
	case tree.Double:
		return types.F64T()
	case tree.LongDouble:
		// §9 design note: long double collapses to F64, true extended
		// precision is out of scope.
		return types.F64T()
	default:
		ibug.Assertf(false, "unknown well-known type %d", wkt)
		return nil
	}
}

func longType(td *target.Descriptor, signed bool) types.Type {
	if td.LongWidthBits() == 32 {
		return types.I32T(signed)
	}
	return types.I64T(signed)
}

func lowerFunc(td *target.Descriptor, vt *tree.VarTy) types.Type {
	params := make([]types.Type, 0, len(vt.Params))
	variadic := vt.Variadic
	for _, p := range vt.Params {
		if p.Kind == tree.TyVariadic {
			variadic = true
			continue
		}
		pt := LowerType(td, p, LowerNormal)
		// Array/function parameter types decay to pointer in the IR
		// signature (§4.5 step 3).
		pt = decayForSignature(pt)
		params = append(params, pt)
	}
	return &types.Func{Ret: LowerType(td, vt.Ret, LowerNormal), Params: params, Variadic: variadic}
}

func decayForSignature(t types.Type) types.Type {
	switch t.Kind() {
	case types.KindArray, types.KindFunc:
		return types.PtrT()
	default:
		return t
	}
}

func lowerFields(td *target.Descriptor, fields []*tree.FieldTy) []types.Field {
	out := make([]types.Field, 0, len(fields))
	var bitRun uint8 // bits consumed so far in the current run of consecutive bitfields
	for _, f := range fields {
		ft := types.Field{Name: f.Name, Type: LowerType(td, f.Ty, LowerNormal)}
		if f.Bitwidth > 0 {
			storageBits := uint8(types.Size(ft.Type, td) * 8)
			if bitRun+uint8(f.Bitwidth) > storageBits {
				bitRun = 0 // spills into the next storage unit
			}
			ft.Bitfield = &types.BitfieldInfo{Offset: bitRun, Width: uint8(f.Bitwidth)}
			bitRun += uint8(f.Bitwidth)
		} else {
			bitRun = 0
		}
		out = append(out, ft)
	}
	return out
}

// Signed reports whether vt is a signed well-known type; pointers and
// every other kind report false. ExprBuilder uses it constantly, since
// IR types carry no signedness that casts or op selection consult.
func Signed(vt *tree.VarTy) bool {
	switch vt.Kind {
	case tree.TyWellKnown:
		return vt.WellKnown.Signed()
	case tree.TyPointer:
		return false
	default:
		return false
	}
}
