package build

import (
	"cmp"

	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"

	"golang.org/x/exp/slices"
)

// initEntry is one flattened (byte offset, type, optional bitfield,
// source expression) leaf of a designated/nested initialiser list
// (§4.4). Flattening resolves every designator and running positional
// index up front so both the local (STORE-sequence) and global
// (VarValue-tree) lowering paths share one walk.
type initEntry struct {
	offset   int64
	ty       types.Type
	bitfield *types.BitfieldInfo
	expr     *tree.Expr
}

// flattenInit implements §4.4's designated-initialiser flattening,
// including original_source/build.c's build_ir_for_init_list running
// member-index behaviour: a positional element after a designator
// resumes counting from the designated field/index, and a lone
// designator with Next chains (`.a.b[2] = x`) descends through nested
// aggregates before producing a leaf.
func flattenInit(fb *funcBuilder, ty types.Type, init tree.Init, offset int64, bitfield *types.BitfieldInfo, td *target.Descriptor) []initEntry {
	if init == nil {
		return nil
	}
	switch v := init.(type) {
	case *tree.InitExpr:
		return []initEntry{{offset: offset, ty: ty, bitfield: bitfield, expr: v.Expr}}
	case *tree.InitList:
		switch agg := ty.(type) {
		case *types.Array:
			return flattenArrayList(fb, agg, v, offset, td)
		case *types.Struct:
			return flattenStructList(fb, agg, v, offset, td)
		case *types.Union:
			return flattenUnionList(fb, agg, v, offset, td)
		default:
			// A scalar wrapped in an extra pair of braces, e.g.
			// `int x = {5};` — GCC/Clang both accept this; take the
			// first (only meaningful) element.
			ibug.Assertf(len(v.Elems) >= 1, "empty initialiser list for scalar type %s", ty)
			return flattenInit(fb, ty, v.Elems[0].Value, offset, bitfield, td)
		}
	default:
		ibug.Bugf("unhandled Init variant %T", init)
		return nil
	}
}

func flattenArrayList(fb *funcBuilder, agg *types.Array, list *tree.InitList, offset int64, td *target.Descriptor) []initEntry {
	var entries []initEntry
	idx := int64(0)
	elemSize := types.Size(agg.Elem, td)
	for _, elem := range list.Elems {
		if d := elem.Designator; d != nil {
			ibug.Assertf(d.Kind == tree.DesignatorIndex, "struct designator used against an array type")
			idx = d.Index
			entries = append(entries, descendDesignator(fb, agg.Elem, offset+idx*elemSize, d.Next, elem.Value, td)...)
		} else {
			entries = append(entries, flattenInit(fb, agg.Elem, elem.Value, offset+idx*elemSize, nil, td)...)
		}
		idx++
	}
	return entries
}

func flattenStructList(fb *funcBuilder, agg *types.Struct, list *tree.InitList, offset int64, td *target.Descriptor) []initEntry {
	var entries []initEntry
	fieldIdx := 0
	for _, elem := range list.Elems {
		if d := elem.Designator; d != nil {
			ibug.Assertf(d.Kind == tree.DesignatorField, "array designator used against a struct type")
			i, fty, foff := findField(agg.Fields, d.Field, agg, td)
			fieldIdx = i
			entries = append(entries, descendDesignatorBf(fb, fty, offset+foff, agg.Fields[i].Bitfield, d.Next, elem.Value, td)...)
		} else {
			ibug.Assertf(fieldIdx < len(agg.Fields), "too many initialisers for struct %s", agg)
			f := agg.Fields[fieldIdx]
			foff := types.FieldOffset(agg, fieldIdx, td)
			entries = append(entries, flattenInit(fb, f.Type, elem.Value, offset+foff, f.Bitfield, td)...)
		}
		fieldIdx++
	}
	return entries
}

func flattenUnionList(fb *funcBuilder, agg *types.Union, list *tree.InitList, offset int64, td *target.Descriptor) []initEntry {
	ibug.Assertf(len(list.Elems) >= 1, "empty initialiser list for union %s", agg)
	elem := list.Elems[0]
	if d := elem.Designator; d != nil {
		ibug.Assertf(d.Kind == tree.DesignatorField, "array designator used against a union type")
		i, fty, _ := findField(agg.Fields, d.Field, nil, td)
		return descendDesignatorBf(fb, fty, offset, agg.Fields[i].Bitfield, d.Next, elem.Value, td)
	}
	f := agg.Fields[0]
	return flattenInit(fb, f.Type, elem.Value, offset, f.Bitfield, td)
}

// findField returns the index, type and byte offset (0 for a union —
// st is nil in that case) of the named field.
func findField(fields []types.Field, name string, st *types.Struct, td *target.Descriptor) (int, types.Type, int64) {
	for i, f := range fields {
		if f.Name == name {
			if st != nil {
				return i, f.Type, types.FieldOffset(st, i, td)
			}
			return i, f.Type, 0
		}
	}
	ibug.Bugf("unknown designated field %q", name)
	return 0, nil, 0
}

// descendDesignator walks the remainder of a designator chain
// (`.a.b[2] = x`'s `.b[2]` part once `.a` has already been resolved),
// recursing one designator at a time before finally flattening the
// leaf value against whatever aggregate/scalar type it bottoms out at.
func descendDesignator(fb *funcBuilder, ty types.Type, offset int64, d *tree.Designator, value tree.Init, td *target.Descriptor) []initEntry {
	return descendDesignatorBf(fb, ty, offset, nil, d, value, td)
}

func descendDesignatorBf(fb *funcBuilder, ty types.Type, offset int64, bitfield *types.BitfieldInfo, d *tree.Designator, value tree.Init, td *target.Descriptor) []initEntry {
	if d == nil {
		return flattenInit(fb, ty, value, offset, bitfield, td)
	}
	switch d.Kind {
	case tree.DesignatorField:
		switch agg := ty.(type) {
		case *types.Struct:
			i, fty, foff := findField(agg.Fields, d.Field, agg, td)
			return descendDesignatorBf(fb, fty, offset+foff, agg.Fields[i].Bitfield, d.Next, value, td)
		case *types.Union:
			i, fty, _ := findField(agg.Fields, d.Field, nil, td)
			return descendDesignatorBf(fb, fty, offset, agg.Fields[i].Bitfield, d.Next, value, td)
		default:
			ibug.Bugf("field designator against non-aggregate type %s", ty)
			return nil
		}
	case tree.DesignatorIndex:
		at, ok := ty.(*types.Array)
		ibug.Assertf(ok, "index designator against non-array type %s", ty)
		return descendDesignatorBf(fb, at.Elem, offset+d.Index*types.Size(at.Elem, td), nil, d.Next, value, td)
	default:
		ibug.Bugf("unhandled DesignatorKind %d", d.Kind)
		return nil
	}
}

// lowerLocalInit realises an automatic/compound-literal aggregate's
// initialiser at runtime: MEM_SET the whole object to zero first (§9's
// documented workaround — flattening does not itself track which bytes
// every designator leaves untouched, so zeroing up front is simpler and
// always correct), then STORE/STORE_BITFIELD each flattened entry in
// source order so later entries win over earlier ones targeting the
// same bytes, exactly as C's initialiser-list overwrite rule requires.
func (fb *funcBuilder) lowerLocalInit(addr *ir.Op, ty types.Type, init tree.Init) {
	size := types.Size(ty, fb.td)
	memset := fb.emit(ir.OpMemSet, types.None{})
	memset.Operands = []*ir.Op{addr}
	memset.ConstOffset = size

	entries := flattenInit(fb, ty, init, 0, nil, fb.td)
	for _, e := range entries {
		dst := addr
		if e.offset != 0 {
			dst = fb.addrOffset(addr, nil, 0, e.offset)
		}
		if e.bitfield != nil {
			val := fb.buildExprValue(e.expr)
			op := fb.emit(ir.OpStoreBitfield, types.None{})
			op.Base = dst
			op.Bitfield = &ir.BitfieldOperand{Offset: e.bitfield.Offset, Width: e.bitfield.Width}
			op.Operands = []*ir.Op{val}
			continue
		}
		if types.IsAggregate(e.ty) {
			src := fb.buildExprAddr(e.expr)
			cp := fb.emit(ir.OpMemCopy, types.None{})
			cp.Operands = []*ir.Op{dst, src}
			cp.ConstOffset = types.Size(e.ty, fb.td)
			continue
		}
		val := fb.buildExprValue(e.expr)
		fb.store(dst, val)
	}
}

// buildGlobalInit folds a global/static initialiser to a compile-time
// constant VarValue tree (§4.4). Every leaf expression must itself be a
// constant (literal, address-of-global-with-constant-offset, or a
// constant arithmetic combination) — the type checker is assumed to
// have already rejected anything else, so a non-constant leaf here is a
// DEBUG_ASSERT violation, not a user error to report.
func buildGlobalInit(unit *ir.Unit, td *target.Descriptor, ty types.Type, init tree.Init) *ir.VarValue {
	entries := flattenInit(nil, ty, init, 0, nil, td)
	if len(entries) == 0 {
		return &ir.VarValue{Kind: ir.VarValZero, Ty: ty}
	}
	if types.IsScalar(ty) && len(entries) == 1 && entries[0].offset == 0 {
		return constExprToVarValue(unit, td, ty, entries[0].expr)
	}

	children := make([]ir.VarValueChild, 0, len(entries))
	for _, e := range entries {
		if e.bitfield != nil {
			ibug.TODOf("bitfield initialiser in global/static storage at offset %d is not folded into the packed VarValue", e.offset)
		}
		children = append(children, ir.VarValueChild{
			Offset: e.offset,
			Value:  constExprToVarValue(unit, td, e.ty, e.expr),
		})
	}
	slices.SortStableFunc(children, func(a, b ir.VarValueChild) int { return cmp.Compare(a.Offset, b.Offset) })
	return &ir.VarValue{Kind: ir.VarValAggregate, Ty: ty, Children: children}
}

// constExprToVarValue folds one scalar (or string/address) constant
// leaf expression into a VarValue (§4.4, §6).
func constExprToVarValue(unit *ir.Unit, td *target.Descriptor, ty types.Type, e *tree.Expr) *ir.VarValue {
	switch e.Kind {
	case tree.ExprCnstInt:
		return &ir.VarValue{Kind: ir.VarValInt, Ty: ty, Int: e.IntVal}
	case tree.ExprCnstFloat:
		return &ir.VarValue{Kind: ir.VarValFloat, Ty: ty, Float: e.FloatVal}
	case tree.ExprCnstStr:
		kind := ir.ClassifyString(e.StrVal, ty.Kind() == types.KindArray)
		if kind == ir.StringLiteral {
			return &ir.VarValue{Kind: ir.VarValStr, Ty: ty, Str: e.StrVal, Wide: e.Wide}
		}
		name := unit.FreshStringName()
		glb := unit.GetOrCreateGlobal(name, ir.GlobalData, types.ArrayT(types.I8T(false), int64(len(e.StrVal))+1))
		glb.SetLinkage(ir.LinkageInternal)
		glb.SetVarValue(&ir.VarValue{Kind: ir.VarValStr, Ty: glb.Type(), Str: e.StrVal, Wide: e.Wide})
		glb.SetDefStatus(ir.Defined)
		return &ir.VarValue{Kind: ir.VarValAddr, Ty: ty, AddrOf: glb}
	case tree.ExprAddressof:
		return addressConstToVarValue(unit, td, ty, e.Lhs, 0)
	case tree.ExprCast:
		return constExprToVarValue(unit, td, ty, e.Lhs)
	case tree.ExprVar:
		return addressConstToVarValue(unit, td, ty, e, 0)
	default:
		ibug.Assertf(false, "non-constant expression in global initialiser: ExprKind %d", e.Kind)
		return nil
	}
}

// addressConstToVarValue folds `&global`, `&global.field`, `&arr[n]` and
// plain array/function-decayed identifiers into a relocatable address
// constant (§4.4: "relocatable addresses of other globals with a
// constant offset").
func addressConstToVarValue(unit *ir.Unit, td *target.Descriptor, ty types.Type, e *tree.Expr, extra int64) *ir.VarValue {
	switch e.Kind {
	case tree.ExprVar:
		glb, ok := unit.FindGlobal(e.Var.Identifier)
		ibug.Assertf(ok, "address-of-global constant referencing unknown global %q", e.Var.Identifier)
		return &ir.VarValue{Kind: ir.VarValAddr, Ty: ty, AddrOf: glb, AddrOffset: extra}
	case tree.ExprMember:
		aggTy := LowerType(td, e.Lhs.Ty, LowerNormal)
		st, ok := aggTy.(*types.Struct)
		ibug.Assertf(ok, "member-of constant against non-struct type")
		for i, f := range st.Fields {
			if f.Name == e.MemberName {
				return addressConstToVarValue(unit, td, ty, e.Lhs, extra+types.FieldOffset(st, i, td))
			}
		}
		ibug.Bugf("unknown field %q in constant member access", e.MemberName)
		return nil
	case tree.ExprArrayAccess:
		var elemTy types.Type
		if e.Lhs.Ty.Kind == tree.TyArray {
			elemTy = LowerType(td, e.Lhs.Ty.Of, LowerNormal)
		} else {
			elemTy = LowerType(td, e.Lhs.Ty.Pointee, LowerNormal)
		}
		ibug.Assertf(e.Index.Kind == tree.ExprCnstInt, "non-constant index in constant array access")
		off := int64(e.Index.IntVal) * types.Size(elemTy, td)
		return addressConstToVarValue(unit, td, ty, e.Lhs, extra+off)
	default:
		ibug.Bugf("unhandled address-constant ExprKind %d", e.Kind)
		return nil
	}
}
