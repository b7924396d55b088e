package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/types"
)

// validate implements §4.5 step 10: a pass over the finished function
// checking both the "universal" invariants of §8 — every reachable
// block terminates, terminator shape agrees with its recorded
// successors, no phi placeholder escaped SSA completion unresolved —
// and the type validator step 10 also names: every operand's IR type
// is compatible with its consumer's declared operand type. It panics
// via ibug on violation rather than returning an error, consistent with
// BUG/DEBUG_ASSERT being internal-only (§1).
func validate(fn *ir.Function) {
	for _, b := range fn.Blocks() {
		ibug.Assertf(b.Term() != ir.TermNone, "block bb%d in %s has no terminator", b.ID(), fn.Name)

		extra := 0
		if b.Term() == ir.TermBrSwitch {
			extra = len(b.SwitchCases())
		}
		ibug.Assertf(len(b.Succs()) == b.Term().SuccessorCount(extra),
			"block bb%d in %s: terminator %s expects %d successors, has %d",
			b.ID(), fn.Name, b.Term(), b.Term().SuccessorCount(extra), len(b.Succs()))

		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				if o.Kind() == ir.OpPhi {
					ibug.Assertf(o.PendingVar == nil, "phi %%%d in %s never completed SSA resolution", o.ID(), fn.Name)
					for _, e := range o.PhiEntries {
						ibug.Assertf(containsBlock(b.Preds(), e.Block), "phi %%%d in bb%d names a non-predecessor bb%d", o.ID(), b.ID(), e.Block.ID())
					}
				}
				validateOperandTypes(fn, o)
			}
		}
	}
}

func containsBlock(blocks []*ir.BasicBlock, b *ir.BasicBlock) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}

// uniformArithmetic is the set of ops whose result, and every operand,
// must share one IR type — the typed tree's usual-arithmetic-conversions
// already unified lhs/rhs before lowering (§4.1), so a mismatch here
// means an earlier lowering step dropped or mis-cast a value.
var uniformArithmetic = map[ir.OpKind]bool{
	ir.OpAdd: true, ir.OpFAdd: true, ir.OpSub: true, ir.OpFSub: true,
	ir.OpMul: true, ir.OpFMul: true, ir.OpSDiv: true, ir.OpUDiv: true, ir.OpFDiv: true,
	ir.OpSMod: true, ir.OpUMod: true, ir.OpAnd: true, ir.OpOr: true, ir.OpXor: true,
	ir.OpNeg: true, ir.OpFNeg: true, ir.OpNot: true,
}

// shiftOps: only the shifted value's type must agree with the result;
// the shift count's width is ABI-defined and need not match (§4.2).
var shiftOps = map[ir.OpKind]bool{
	ir.OpShl: true, ir.OpSShr: true, ir.OpUShr: true,
}

// compareOps: the two operands must agree with each other, but the
// boolean/int result is never the same type as either (§4.1).
var compareOps = map[ir.OpKind]bool{
	ir.OpEqI: true, ir.OpNeI: true, ir.OpEqF: true, ir.OpNeF: true,
	ir.OpSLt: true, ir.OpULt: true, ir.OpFLt: true,
	ir.OpSLe: true, ir.OpULe: true, ir.OpFLe: true,
	ir.OpSGt: true, ir.OpUGt: true, ir.OpFGt: true,
	ir.OpSGe: true, ir.OpUGe: true, ir.OpFGe: true,
}

// validateOperandTypes checks o's operands against the declared type its
// consumer expects, for the op kinds where that declared type is known
// statically. Casts, comparisons' result, LOGICAL_NOT, and address
// formation ops are deliberately excluded — their whole point is to
// produce a value of a different type than their operand(s), so operand
// type does not constrain result type for those kinds.
func validateOperandTypes(fn *ir.Function, o *ir.Op) {
	switch {
	case o.Kind() == ir.OpSub && len(o.Operands) == 2 && o.Operands[0].Type() != nil && o.Operands[0].Type().Kind() == types.KindPointer:
		// Pointer difference (§4.2): both operands are pointers, but the
		// result is a pointer-sized integer byte/element count, not a
		// pointer itself — the usual "operand type == result type" rule
		// for OpSub does not apply here.
		ibug.Assertf(types.Equal(o.Operands[0].Type(), o.Operands[1].Type()),
			"%%%d in %s: pointer difference operands disagree: %s vs %s",
			o.ID(), fn.Name, o.Operands[0].Type(), o.Operands[1].Type())
	case uniformArithmetic[o.Kind()]:
		for _, operand := range o.Operands {
			ibug.Assertf(types.Equal(operand.Type(), o.Type()),
				"%%%d in %s: %s operand %%%d has type %s, result expects %s",
				o.ID(), fn.Name, o.Kind(), operand.ID(), operand.Type(), o.Type())
		}
	case shiftOps[o.Kind()]:
		ibug.Assertf(len(o.Operands) >= 1, "%%%d in %s: %s has no operands", o.ID(), fn.Name, o.Kind())
		ibug.Assertf(types.Equal(o.Operands[0].Type(), o.Type()),
			"%%%d in %s: %s shifted value %%%d has type %s, result expects %s",
			o.ID(), fn.Name, o.Kind(), o.Operands[0].ID(), o.Operands[0].Type(), o.Type())
	case compareOps[o.Kind()]:
		ibug.Assertf(len(o.Operands) == 2, "%%%d in %s: %s expects two operands", o.ID(), fn.Name, o.Kind())
		ibug.Assertf(types.Equal(o.Operands[0].Type(), o.Operands[1].Type()),
			"%%%d in %s: %s operands disagree: %s vs %s",
			o.ID(), fn.Name, o.Kind(), o.Operands[0].Type(), o.Operands[1].Type())
	case o.Kind() == ir.OpPhi:
		for _, e := range o.PhiEntries {
			ibug.Assertf(types.Equal(e.Value.Type(), o.Type()),
				"%%%d in %s: phi entry from bb%d has type %s, phi declares %s",
				o.ID(), fn.Name, e.Block.ID(), e.Value.Type(), o.Type())
		}
	case o.Kind() == ir.OpStore:
		declared := storageDeclaredType(o)
		if declared != nil && len(o.Operands) == 1 {
			ibug.Assertf(types.Equal(o.Operands[0].Type(), declared),
				"%%%d in %s: store value has type %s, destination declares %s",
				o.ID(), fn.Name, o.Operands[0].Type(), declared)
		}
	case o.Kind() == ir.OpLoad:
		declared := storageDeclaredType(o)
		if declared != nil {
			ibug.Assertf(types.Equal(o.Type(), declared),
				"%%%d in %s: load result has type %s, source declares %s",
				o.ID(), fn.Name, o.Type(), declared)
		}
	case o.Kind() == ir.OpCall:
		validateCallArgTypes(fn, o)
	case o.Kind() == ir.OpRet:
		validateRetType(fn, o)
	}
}

// storageDeclaredType returns the declared type of a LOAD/STORE's
// directly-addressed local or global, or nil when the op instead
// addresses through a generic ADDR_OFFSET base (whose own type is
// always a bare pointer, carrying no pointee type to check against).
func storageDeclaredType(o *ir.Op) types.Type {
	switch {
	case o.Lcl != nil:
		return o.Lcl.Ty
	case o.Glb != nil:
		return o.Glb.Type()
	default:
		return nil
	}
}

// validateCallArgTypes checks each non-variadic, non-aggregate argument
// against the callee's declared parameter type; aggregate arguments are
// passed by address (§4.2) so their operand type is always a bare
// pointer, not the declared parameter type, and are skipped.
func validateCallArgTypes(fn *ir.Function, o *ir.Op) {
	if o.FuncTy == nil {
		return
	}
	for i, param := range o.FuncTy.Params {
		if i >= len(o.Operands) {
			break
		}
		if types.IsAggregate(param) {
			continue
		}
		ibug.Assertf(types.Equal(o.Operands[i].Type(), param),
			"%%%d in %s: call argument %d has type %s, callee declares %s",
			o.ID(), fn.Name, i, o.Operands[i].Type(), param)
	}
}

// validateRetType checks a non-aggregate return value against the
// function's declared return type; an aggregate return is itself
// passed back by address (§4.2) so its operand type is a bare pointer,
// not the declared return type, and is skipped.
func validateRetType(fn *ir.Function, o *ir.Op) {
	if len(o.Operands) != 1 || types.IsAggregate(fn.Ty.Ret) {
		return
	}
	ibug.Assertf(types.Equal(o.Operands[0].Type(), fn.Ty.Ret),
		"%%%d in %s: return value has type %s, function declares %s",
		o.ID(), fn.Name, o.Operands[0].Type(), fn.Ty.Ret)
}
