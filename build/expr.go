package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"
)

// emit appends a new op to the builder's current statement, lazily
// opening a fresh statement whenever the current block has changed
// since the last emit (a branch was just taken) — each basic block's
// first emit after entry starts its own Statement, matching §5's
// ordering guarantee without forcing every sub-expression to thread a
// *Statement through every call.
func (fb *funcBuilder) emit(kind ir.OpKind, ty types.Type) *ir.Op {
	if fb.curStmt == nil || fb.curStmt.Block() != fb.cur {
		fb.curStmt = fb.cur.AppendStatement()
	}
	return fb.curStmt.AppendOp(kind, ty)
}

// freshStatement forces the next emit to open a new Statement — called
// at every source-level sequence point (StmtBuilder, between
// expression-statements, after each comma-operator operand).
func (fb *funcBuilder) freshStatement() { fb.curStmt = nil }

func (fb *funcBuilder) irType(vt *tree.VarTy) types.Type {
	return LowerType(fb.td, vt, LowerNormal)
}

// buildExprValue lowers e to an rvalue: a scalar SSA op for scalar
// expressions, or the address op for aggregates (§4.2's discipline:
// aggregates are always passed/returned by address, never materialised
// as a single SSA value).
func (fb *funcBuilder) buildExprValue(e *tree.Expr) *ir.Op {
	ty := fb.irType(e.Ty)
	if types.IsAggregate(ty) {
		return fb.buildExprAddr(e)
	}

	switch e.Kind {
	case tree.ExprVar:
		return fb.readVarExpr(e)
	case tree.ExprCnstInt:
		op := fb.emit(ir.OpCnst, ty)
		op.CnstInt = e.IntVal
		return op
	case tree.ExprCnstFloat:
		op := fb.emit(ir.OpCnst, ty)
		op.CnstFloat = e.FloatVal
		return op
	case tree.ExprCnstStr:
		op := fb.emit(ir.OpCnst, ty)
		op.CnstStr = e.StrVal
		return op
	case tree.ExprFuncName:
		op := fb.emit(ir.OpCnst, ty)
		op.CnstStr = []byte(fb.funcName)
		return op
	case tree.ExprUnary:
		return fb.buildUnary(e, ty)
	case tree.ExprBinary:
		return fb.buildBinary(e, ty)
	case tree.ExprAssg:
		return fb.buildAssign(e, ty)
	case tree.ExprCompoundAssg:
		return fb.buildCompoundAssign(e, ty)
	case tree.ExprIncDec:
		return fb.buildIncDec(e, ty)
	case tree.ExprTernary:
		return fb.buildTernary(e, ty)
	case tree.ExprComma:
		return fb.buildComma(e)
	case tree.ExprCall:
		return fb.buildCall(e, ty)
	case tree.ExprAddressof:
		return fb.buildExprAddr(e.Lhs)
	case tree.ExprDeref:
		addr := fb.buildExprValue(e.Lhs)
		return fb.load(addr, ty)
	case tree.ExprMember, tree.ExprPtrMember, tree.ExprArrayAccess:
		addr := fb.buildExprAddr(e)
		return fb.load(addr, ty)
	case tree.ExprCast:
		return fb.buildCast(e, ty)
	case tree.ExprCompoundLiteral:
		addr := fb.buildExprAddr(e)
		return fb.load(addr, ty)
	case tree.ExprSizeof, tree.ExprAlignof:
		op := fb.emit(ir.OpCnst, ty)
		op.CnstInt = uint64(fb.sizeofAlignof(e))
		return op
	case tree.ExprVaArg:
		vaAddr := fb.buildExprValue(e.Lhs)
		op := fb.emit(ir.OpVaArg, ty)
		op.VaListAddr = vaAddr
		return op
	case tree.ExprBuiltin:
		return fb.buildBuiltin(e, ty)
	case tree.ExprStmt:
		return fb.buildStmtExpr(e, ty)
	default:
		ibug.Bugf("unhandled ExprKind %d in buildExprValue", e.Kind)
		return nil
	}
}

func (fb *funcBuilder) sizeofAlignof(e *tree.Expr) int64 {
	var vt *tree.VarTy
	if e.OperandTy != nil {
		vt = e.OperandTy
	} else {
		vt = e.Lhs.Ty
	}
	t := fb.irType(vt)
	if e.Kind == tree.ExprSizeof {
		return types.Size(t, fb.td)
	}
	return types.Align(t, fb.td)
}

// load emits a LOAD from an address op, choosing the local/global
// direct-addressed form when the address op is itself an ADDR_LCL/
// ADDR_GLB with no further offsetting, and the generic pointer-operand
// form otherwise (§3's op shapes).
func (fb *funcBuilder) load(addr *ir.Op, ty types.Type) *ir.Op {
	op := fb.emit(ir.OpLoad, ty)
	switch addr.Kind() {
	case ir.OpAddrLcl:
		op.Lcl = addr.Lcl
	case ir.OpAddrGlb:
		op.Glb = addr.Glb
	default:
		op.Operands = []*ir.Op{addr}
	}
	return op
}

func (fb *funcBuilder) store(addr *ir.Op, val *ir.Op) *ir.Op {
	op := fb.emit(ir.OpStore, types.None{})
	switch addr.Kind() {
	case ir.OpAddrLcl:
		op.Lcl = addr.Lcl
	case ir.OpAddrGlb:
		op.Glb = addr.Glb
	default:
		op.Base = addr
	}
	op.Operands = []*ir.Op{val}
	return op
}

// buildExprAddr lowers e to the address of its storage (§4.2's lvalue
// discipline). Only ever called on expressions the type checker has
// already verified are lvalues, or on aggregates (which are always
// addressed).
func (fb *funcBuilder) buildExprAddr(e *tree.Expr) *ir.Op {
	switch e.Kind {
	case tree.ExprVar:
		return fb.varAddr(e.Var)
	case tree.ExprDeref:
		return fb.buildExprValue(e.Lhs)
	case tree.ExprMember:
		base := fb.buildExprAddr(e.Lhs)
		return fb.memberAddr(base, e.Lhs.Ty, e.MemberName)
	case tree.ExprPtrMember:
		base := fb.buildExprValue(e.Lhs)
		return fb.memberAddr(base, e.Lhs.Ty.Pointee, e.MemberName)
	case tree.ExprArrayAccess:
		return fb.arrayElemAddr(e)
	case tree.ExprCompoundLiteral:
		return fb.buildCompoundLiteral(e)
	case tree.ExprStmt:
		// A statement expression whose result is itself an aggregate
		// lvalue (the body's final expression-statement is an lvalue):
		// evaluate the body and take the address of its last value.
		return fb.buildStmtExprAddr(e)
	default:
		ibug.Bugf("unhandled ExprKind %d in buildExprAddr", e.Kind)
		return nil
	}
}

func (fb *funcBuilder) varAddr(v tree.Var) *ir.Op {
	info, ok := fb.vars.lookupDecl(v.Identifier, v.Scope)
	ibug.Assertf(ok, "reference to undeclared identifier %q", v.Identifier)
	switch info.kind {
	case declLocal:
		op := fb.emit(ir.OpAddrLcl, types.PtrT())
		op.Lcl = info.lcl
		return op
	case declGlobal:
		op := fb.emit(ir.OpAddrGlb, types.PtrT())
		op.Glb = info.glb
		return op
	default:
		ibug.Bugf("address taken of SSA-realised variable %q — declSSA should have been upgraded to declLocal by the address-taken prescan", v.Identifier)
		return nil
	}
}

func (fb *funcBuilder) readVarExpr(e *tree.Expr) *ir.Op {
	v := e.Var
	info, ok := fb.vars.lookupDecl(v.Identifier, v.Scope)
	ibug.Assertf(ok, "reference to undeclared identifier %q", v.Identifier)
	ty := fb.irType(e.Ty)
	switch info.kind {
	case declLocal:
		op := fb.emit(ir.OpLoad, ty)
		op.Lcl = info.lcl
		return op
	case declGlobal:
		if info.glb.Tag() == ir.GlobalFunc {
			op := fb.emit(ir.OpAddrGlb, types.PtrT())
			op.Glb = info.glb
			return op
		}
		op := fb.emit(ir.OpLoad, ty)
		op.Glb = info.glb
		return op
	default:
		op := fb.vars.currentDef(fb.cur, varKey{v.Identifier, v.Scope})
		if op.Type() == nil {
			op.SetType(ty)
		}
		return op
	}
}

func (fb *funcBuilder) memberAddr(base *ir.Op, aggVt *tree.VarTy, member string) *ir.Op {
	aggTy := fb.irType(aggVt)
	var offset int64
	switch agg := aggTy.(type) {
	case *types.Struct:
		for i, f := range agg.Fields {
			if f.Name == member {
				offset = types.FieldOffset(agg, i, fb.td)
				break
			}
		}
	case *types.Union:
		offset = 0
	default:
		ibug.Bugf("member access on non-aggregate type %s", aggTy)
	}
	if offset == 0 {
		return base
	}
	return fb.addrOffset(base, nil, 0, offset)
}

func (fb *funcBuilder) arrayElemAddr(e *tree.Expr) *ir.Op {
	baseTy := fb.irType(e.Lhs.Ty)
	var base *ir.Op
	var elemTy types.Type
	if at, ok := baseTy.(*types.Array); ok {
		base = fb.buildExprAddr(e.Lhs)
		elemTy = at.Elem
	} else {
		// Pointer arithmetic base: decayed array, or a genuine pointer
		// value (§4.2 array decay on use).
		base = fb.buildExprValue(e.Lhs)
		elemTy = fb.irType(e.Lhs.Ty.Pointee)
	}
	index := fb.buildExprValue(e.Index)
	return fb.addrOffset(base, index, types.Size(elemTy, fb.td), 0)
}

// addrOffset emits ADDR_OFFSET(base, index*scale + constOffset),
// collapsing the purely-constant case to a direct constant-only form
// (§3: base, optional scaled index, optional constant offset).
func (fb *funcBuilder) addrOffset(base, index *ir.Op, scale, constOffset int64) *ir.Op {
	op := fb.emit(ir.OpAddrOffset, types.PtrT())
	op.Base = base
	op.Index = index
	op.Scale = scale
	op.ConstOffset = constOffset
	return op
}

func (fb *funcBuilder) buildUnary(e *tree.Expr, ty types.Type) *ir.Op {
	switch e.UnOp {
	case tree.UnaryPlus:
		return fb.buildExprValue(e.Lhs)
	case tree.UnaryNeg:
		v := fb.buildExprValue(e.Lhs)
		kind := ir.OpNeg
		if ty.Kind() == types.KindPrimitive && ty.(*types.PrimitiveT).Prim.IsFloat() {
			kind = ir.OpFNeg
		}
		op := fb.emit(kind, ty)
		op.Operands = []*ir.Op{v}
		return op
	case tree.UnaryNot:
		v := fb.buildExprValue(e.Lhs)
		op := fb.emit(ir.OpNot, ty)
		op.Operands = []*ir.Op{v}
		return op
	case tree.UnaryLogNot:
		v := fb.buildExprValue(e.Lhs)
		op := fb.emit(ir.OpLogicalNot, ty)
		op.Operands = []*ir.Op{v}
		return op
	case tree.UnaryDeref:
		addr := fb.buildExprValue(e.Lhs)
		return fb.load(addr, ty)
	default:
		ibug.Bugf("unhandled UnaryOp %d", e.UnOp)
		return nil
	}
}

// isPointer reports whether vt is a pointer type, the test that selects
// §4.2's pointer arithmetic / subtraction rules.
func isPointer(vt *tree.VarTy) bool { return vt.Kind == tree.TyPointer }

func (fb *funcBuilder) buildBinary(e *tree.Expr, ty types.Type) *ir.Op {
	switch e.BinOp {
	case tree.BinLogAnd, tree.BinLogOr:
		return fb.buildShortCircuit(e, ty)
	case tree.BinAdd, tree.BinSub:
		if isPointer(e.Lhs.Ty) || isPointer(e.Rhs.Ty) {
			return fb.buildPointerArith(e, ty)
		}
	}

	lhs := fb.buildExprValue(e.Lhs)
	rhs := fb.buildExprValue(e.Rhs)
	signed := Signed(e.Lhs.Ty)
	isFloat := e.Lhs.Ty.Kind == tree.TyWellKnown && e.Lhs.Ty.WellKnown.IsFloat()

	kind := binOpKind(e.BinOp, signed, isFloat)
	op := fb.emit(kind, ty)
	op.Operands = []*ir.Op{lhs, rhs}
	return op
}

func binOpKind(op tree.BinaryOp, signed, isFloat bool) ir.OpKind {
	switch op {
	case tree.BinAdd:
		if isFloat {
			return ir.OpFAdd
		}
		return ir.OpAdd
	case tree.BinSub:
		if isFloat {
			return ir.OpFSub
		}
		return ir.OpSub
	case tree.BinMul:
		if isFloat {
			return ir.OpFMul
		}
		return ir.OpMul
	case tree.BinDiv:
		if isFloat {
			return ir.OpFDiv
		}
		if signed {
			return ir.OpSDiv
		}
		return ir.OpUDiv
	case tree.BinMod:
		if signed {
			return ir.OpSMod
		}
		return ir.OpUMod
	case tree.BinAnd:
		return ir.OpAnd
	case tree.BinOr:
		return ir.OpOr
	case tree.BinXor:
		return ir.OpXor
	case tree.BinShl:
		return ir.OpShl
	case tree.BinShr:
		if signed {
			return ir.OpSShr
		}
		return ir.OpUShr
	case tree.BinEq:
		if isFloat {
			return ir.OpEqF
		}
		return ir.OpEqI
	case tree.BinNe:
		if isFloat {
			return ir.OpNeF
		}
		return ir.OpNeI
	case tree.BinLt:
		if isFloat {
			return ir.OpFLt
		}
		if signed {
			return ir.OpSLt
		}
		return ir.OpULt
	case tree.BinLe:
		if isFloat {
			return ir.OpFLe
		}
		if signed {
			return ir.OpSLe
		}
		return ir.OpULe
	case tree.BinGt:
		if isFloat {
			return ir.OpFGt
		}
		if signed {
			return ir.OpSGt
		}
		return ir.OpUGt
	case tree.BinGe:
		if isFloat {
			return ir.OpFGe
		}
		if signed {
			return ir.OpSGe
		}
		return ir.OpUGe
	default:
		ibug.Bugf("unhandled BinaryOp %d", op)
		return 0
	}
}

// buildPointerArith handles `ptr +/- int` (scaled by the pointee size)
// and `ptr - ptr` (byte difference divided by the common pointee size),
// per §4.2.
func (fb *funcBuilder) buildPointerArith(e *tree.Expr, ty types.Type) *ir.Op {
	if e.BinOp == tree.BinSub && isPointer(e.Lhs.Ty) && isPointer(e.Rhs.Ty) {
		l := fb.buildExprValue(e.Lhs)
		r := fb.buildExprValue(e.Rhs)
		diff := fb.emit(ir.OpSub, types.PointerSizedInt(fb.td, true))
		diff.Operands = []*ir.Op{l, r}
		elemSize := types.Size(fb.irType(e.Lhs.Ty.Pointee), fb.td)
		if elemSize == 1 {
			return diff
		}
		divisor := fb.emit(ir.OpCnst, types.PointerSizedInt(fb.td, true))
		divisor.CnstInt = uint64(elemSize)
		op := fb.emit(ir.OpSDiv, ty)
		op.Operands = []*ir.Op{diff, divisor}
		return op
	}

	ptrExpr, intExpr := e.Lhs, e.Rhs
	if !isPointer(ptrExpr.Ty) {
		ptrExpr, intExpr = e.Rhs, e.Lhs
	}
	base := fb.buildExprValue(ptrExpr)
	idx := fb.buildExprValue(intExpr)
	elemSize := types.Size(fb.irType(ptrExpr.Ty.Pointee), fb.td)
	if e.BinOp == tree.BinSub {
		zero := fb.emit(ir.OpCnst, idx.Type())
		zero.CnstInt = 0
		neg := fb.emit(ir.OpSub, idx.Type())
		neg.Operands = []*ir.Op{zero, idx}
		idx = neg
	}
	return fb.addrOffset(base, idx, elemSize, 0)
}

// buildShortCircuit lowers && / || as control flow (§4.2, §8: "short
// circuit && as CFG"): the second operand's evaluation is itself a
// basic block only entered conditionally, and the result is a phi over
// the two possible outcomes.
func (fb *funcBuilder) buildShortCircuit(e *tree.Expr, ty types.Type) *ir.Op {
	lhs := fb.buildExprValue(e.Lhs)
	lhsBlock := fb.cur

	rhsBlock := fb.fn.AppendBlock("")
	joinBlock := fb.fn.AppendBlock("")

	brOp := fb.emit(ir.OpBrCond, types.None{})
	brOp.Cond = lhs
	if e.BinOp == tree.BinLogAnd {
		brOp.TrueTarget, brOp.FalseTarget = rhsBlock, joinBlock
	} else {
		brOp.TrueTarget, brOp.FalseTarget = joinBlock, rhsBlock
	}
	fb.cur.SetTermCond(brOp, brOp.TrueTarget, brOp.FalseTarget)

	fb.cur = rhsBlock
	fb.freshStatement()
	rhs := fb.buildExprValue(e.Rhs)
	rhsEnd := fb.cur
	if rhsEnd.Term() == ir.TermNone {
		brJoin := fb.emit(ir.OpBr, types.None{})
		rhsEnd.SetTermBr(brJoin, joinBlock)
	}

	fb.cur = joinBlock
	fb.freshStatement()
	phi := fb.emit(ir.OpPhi, ty)
	shortCircuit := fb.emit(ir.OpCnst, ty)
	shortCircuit.CnstInt = boolToInt(e.BinOp == tree.BinLogOr)
	phi.PhiEntries = []ir.PhiEntry{
		{Block: lhsBlock, Value: shortCircuit},
		{Block: rhsEnd, Value: rhs},
	}
	return phi
}

func boolToInt(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Ternary operand layout (tree.Expr doc comment): Lhs is the condition
// (and, for the GNU two-operand `a ?: b` form where Third is nil, also
// the reused "true" value); Rhs is the else-arm for that GNU form or
// the then-arm otherwise; Third, when present, is the else-arm.
func (fb *funcBuilder) buildTernary(e *tree.Expr, ty types.Type) *ir.Op {
	cond := fb.buildExprValue(e.Lhs)
	condBlock := fb.cur

	thenBlock := fb.fn.AppendBlock("")
	elseBlock := fb.fn.AppendBlock("")
	joinBlock := fb.fn.AppendBlock("")

	brOp := fb.emit(ir.OpBrCond, types.None{})
	brOp.Cond = cond
	condBlock.SetTermCond(brOp, thenBlock, elseBlock)

	aggregate := types.IsAggregate(ty)

	fb.cur = thenBlock
	fb.freshStatement()
	var thenVal *ir.Op
	if e.Third == nil {
		// GNU `cond ?: else`: the "then" value is the (already
		// evaluated) condition itself — no separate then-expression to
		// lower.
		thenVal = cond
	} else if aggregate {
		thenVal = fb.buildExprAddr(e.Rhs)
	} else {
		thenVal = fb.buildExprValue(e.Rhs)
	}
	thenEnd := fb.cur
	if thenEnd.Term() == ir.TermNone {
		b := fb.emit(ir.OpBr, types.None{})
		thenEnd.SetTermBr(b, joinBlock)
	}

	fb.cur = elseBlock
	fb.freshStatement()
	var elseExpr *tree.Expr
	if e.Third != nil {
		elseExpr = e.Third
	} else {
		elseExpr = e.Rhs
	}
	var elseVal *ir.Op
	if aggregate {
		elseVal = fb.buildExprAddr(elseExpr)
	} else {
		elseVal = fb.buildExprValue(elseExpr)
	}
	elseEnd := fb.cur
	if elseEnd.Term() == ir.TermNone {
		b := fb.emit(ir.OpBr, types.None{})
		elseEnd.SetTermBr(b, joinBlock)
	}

	fb.cur = joinBlock
	fb.freshStatement()
	resultTy := ty
	if aggregate {
		resultTy = types.PtrT()
	}
	phi := fb.emit(ir.OpPhi, resultTy)
	phi.PhiEntries = []ir.PhiEntry{
		{Block: thenEnd, Value: thenVal},
		{Block: elseEnd, Value: elseVal},
	}
	return phi
}

func (fb *funcBuilder) buildComma(e *tree.Expr) *ir.Op {
	var last *ir.Op
	for i, sub := range e.Comma {
		if i > 0 {
			fb.freshStatement()
		}
		last = fb.buildExprValue(sub)
	}
	return last
}

func (fb *funcBuilder) buildAssign(e *tree.Expr, ty types.Type) *ir.Op {
	if types.IsAggregate(ty) {
		dst := fb.buildExprAddr(e.Lhs)
		src := fb.buildExprAddr(e.Rhs)
		size := types.Size(ty, fb.td)
		op := fb.emit(ir.OpMemCopy, types.None{})
		op.Operands = []*ir.Op{dst, src}
		op.ConstOffset = size
		return fb.load(dst, ty)
	}
	val := fb.buildExprValue(e.Rhs)
	fb.assignScalar(e.Lhs, val)
	return val
}

// assignScalar stores val into e's storage — a direct SSA write for a
// declSSA variable (no STORE op emitted at all), or a STORE/STORE_BITFIELD
// for anything address-based (§4.2, §9).
func (fb *funcBuilder) assignScalar(e *tree.Expr, val *ir.Op) {
	if e.Kind == tree.ExprVar {
		v := e.Var
		info, ok := fb.vars.lookupDecl(v.Identifier, v.Scope)
		ibug.Assertf(ok, "assignment to undeclared identifier %q", v.Identifier)
		switch info.kind {
		case declLocal:
			fb.store(fb.varAddr(v), val)
		case declGlobal:
			fb.store(fb.varAddr(v), val)
		default:
			fb.vars.recordWrite(fb.cur, varKey{v.Identifier, v.Scope}, val)
		}
		return
	}
	if bf := fb.bitfieldOf(e); bf != nil {
		addr, info := bf.addr, bf.info
		op := fb.emit(ir.OpStoreBitfield, types.None{})
		op.Base = addr
		op.Bitfield = &ir.BitfieldOperand{Offset: info.Offset, Width: info.Width}
		op.Operands = []*ir.Op{val}
		return
	}
	fb.store(fb.buildExprAddr(e), val)
}

type bitfieldTarget struct {
	addr *ir.Op
	info *types.BitfieldInfo
}

// bitfieldOf reports the bitfield descriptor of a member access, or nil
// if the member isn't a bitfield (§4.2, §3's LOAD_BITFIELD/STORE_BITFIELD).
func (fb *funcBuilder) bitfieldOf(e *tree.Expr) *bitfieldTarget {
	var aggVt *tree.VarTy
	var base *ir.Op
	switch e.Kind {
	case tree.ExprMember:
		aggVt = e.Lhs.Ty
		base = fb.buildExprAddr(e.Lhs)
	case tree.ExprPtrMember:
		aggVt = e.Lhs.Ty.Pointee
		base = fb.buildExprValue(e.Lhs)
	default:
		return nil
	}
	aggTy := fb.irType(aggVt)
	var fields []types.Field
	switch agg := aggTy.(type) {
	case *types.Struct:
		fields = agg.Fields
	case *types.Union:
		fields = agg.Fields
	default:
		return nil
	}
	for i, f := range fields {
		if f.Name == e.MemberName && f.Bitfield != nil {
			var offset int64
			if st, ok := aggTy.(*types.Struct); ok {
				offset = types.FieldOffset(st, i, fb.td)
			}
			addr := base
			if offset != 0 {
				addr = fb.addrOffset(base, nil, 0, offset)
			}
			return &bitfieldTarget{addr: addr, info: f.Bitfield}
		}
	}
	return nil
}

func (fb *funcBuilder) readBitfieldOrValue(e *tree.Expr, ty types.Type) *ir.Op {
	if bf := fb.bitfieldOf(e); bf != nil {
		op := fb.emit(ir.OpLoadBitfield, ty)
		op.Base = bf.addr
		op.Bitfield = &ir.BitfieldOperand{Offset: bf.info.Offset, Width: bf.info.Width}
		return op
	}
	return fb.buildExprValue(e)
}

func (fb *funcBuilder) buildCompoundAssign(e *tree.Expr, ty types.Type) *ir.Op {
	if isPointer(e.Lhs.Ty) {
		// `ptr += n` / `ptr -= n`: scale n by the pointee size exactly
		// like ordinary pointer arithmetic, reusing the already-loaded
		// pointer value rather than re-reading the lvalue.
		ptr := fb.readBitfieldOrValue(e.Lhs, ty)
		n := fb.buildExprValue(e.Rhs)
		if e.BinOp == tree.BinSub {
			zero := fb.emit(ir.OpCnst, n.Type())
			zero.CnstInt = 0
			neg := fb.emit(ir.OpSub, n.Type())
			neg.Operands = []*ir.Op{zero, n}
			n = neg
		}
		elemSize := types.Size(fb.irType(e.Lhs.Ty.Pointee), fb.td)
		result := fb.addrOffset(ptr, n, elemSize, 0)
		fb.assignScalar(e.Lhs, result)
		return result
	}

	cur := fb.readBitfieldOrValue(e.Lhs, ty)
	rhs := fb.buildExprValue(e.Rhs)
	signed := Signed(e.Lhs.Ty)
	isFloat := e.Lhs.Ty.Kind == tree.TyWellKnown && e.Lhs.Ty.WellKnown.IsFloat()
	kind := binOpKind(e.BinOp, signed, isFloat)
	op := fb.emit(kind, ty)
	op.Operands = []*ir.Op{cur, rhs}
	fb.assignScalar(e.Lhs, op)
	return op
}

func (fb *funcBuilder) buildIncDec(e *tree.Expr, ty types.Type) *ir.Op {
	isDec := e.IncDec == tree.PreDec || e.IncDec == tree.PostDec
	isPost := e.IncDec == tree.PostInc || e.IncDec == tree.PostDec

	old := fb.readBitfieldOrValue(e.Lhs, ty)
	var updated *ir.Op
	if isPointer(e.Lhs.Ty) {
		op := tree.BinAdd
		if isDec {
			op = tree.BinSub
		}
		one := &tree.Expr{Kind: tree.ExprCnstInt, IntVal: 1, Ty: &tree.VarTy{Kind: tree.TyWellKnown, WellKnown: tree.Long}}
		synthetic := &tree.Expr{Kind: tree.ExprBinary, BinOp: op, Ty: e.Lhs.Ty, Lhs: e.Lhs, Rhs: one}
		updated = fb.buildPointerArith(synthetic, ty)
	} else {
		isFloat := e.Lhs.Ty.Kind == tree.TyWellKnown && e.Lhs.Ty.WellKnown.IsFloat()
		one := fb.emit(ir.OpCnst, ty)
		one.CnstInt = 1
		if isFloat {
			one.CnstFloat = 1
		}
		kind := ir.OpAdd
		if isFloat {
			kind = ir.OpFAdd
		}
		if isDec {
			kind = ir.OpSub
			if isFloat {
				kind = ir.OpFSub
			}
		}
		op := fb.emit(kind, ty)
		op.Operands = []*ir.Op{old, one}
		updated = op
	}
	fb.assignScalar(e.Lhs, updated)
	if isPost {
		return old
	}
	return updated
}

func (fb *funcBuilder) buildCast(e *tree.Expr, ty types.Type) *ir.Op {
	v := fb.buildExprValue(e.Lhs)
	fromTy := fb.irType(e.Lhs.Ty)
	if types.Equal(fromTy, ty) {
		return v
	}
	kind := types.Classify(fromTy, Signed(e.Lhs.Ty), ty, Signed(e.CastTy), fb.td)
	if kind == types.CastNone {
		return v
	}
	if kind == types.CastCompareNonzero {
		zero := fb.emit(ir.OpCnst, fromTy)
		kindNe := ir.OpNeI
		if fromTy.Kind() == types.KindPrimitive && fromTy.(*types.PrimitiveT).Prim.IsFloat() {
			kindNe = ir.OpNeF
		}
		res := fb.emit(kindNe, ty)
		res.Operands = []*ir.Op{v, zero}
		return res
	}
	op := castOpKind(kind)
	res := fb.emit(op, ty)
	res.Operands = []*ir.Op{v}
	return res
}

func castOpKind(k types.CastKind) ir.OpKind {
	switch k {
	case types.CastTrunc:
		return ir.OpTrunc
	case types.CastZExt:
		return ir.OpZExt
	case types.CastSExt:
		return ir.OpSExt
	case types.CastConv:
		return ir.OpFConv
	case types.CastSConv:
		return ir.OpSConv
	case types.CastUConv:
		return ir.OpUConv
	default:
		return 0
	}
}

func (fb *funcBuilder) buildCall(e *tree.Expr, ty types.Type) *ir.Op {
	fb.fn.Flags |= ir.FuncMakesCall

	args := make([]*ir.Op, 0, len(e.Args))
	for _, a := range e.Args {
		at := fb.irType(a.Ty)
		if types.IsAggregate(at) {
			args = append(args, fb.buildExprAddr(a))
		} else {
			args = append(args, fb.buildExprValue(a))
		}
	}

	resultTy := ty
	aggregate := types.IsAggregate(ty)
	if aggregate {
		resultTy = types.PtrT()
	}
	op := fb.emit(ir.OpCall, resultTy)
	op.Operands = args
	funcTy, _ := fb.irType(e.Callee.Ty).(*types.Func)
	op.FuncTy = funcTy

	if e.Callee.Kind == tree.ExprVar {
		info, ok := fb.vars.lookupDecl(e.Callee.Var.Identifier, e.Callee.Var.Scope)
		if ok && info.kind == declGlobal {
			op.Glb = info.glb
		} else {
			op.Callee = fb.buildExprValue(e.Callee)
		}
	} else {
		op.Callee = fb.buildExprValue(e.Callee)
	}

	if aggregate {
		return fb.load(op, ty)
	}
	return op
}

func (fb *funcBuilder) buildBuiltin(e *tree.Expr, ty types.Type) *ir.Op {
	args := make([]*ir.Op, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, fb.buildExprValue(a))
	}
	kind := builtinOpKind(e.BuiltinKind)
	op := fb.emit(kind, ty)
	op.Operands = args
	return op
}

func builtinOpKind(b tree.Builtin) ir.OpKind {
	switch b {
	case tree.BuiltinPopcnt:
		return ir.OpPopcnt
	case tree.BuiltinClz:
		return ir.OpClz
	case tree.BuiltinCtz:
		return ir.OpCtz
	case tree.BuiltinRev:
		return ir.OpRev
	case tree.BuiltinFabs:
		return ir.OpFAbs
	case tree.BuiltinFsqrt:
		return ir.OpFSqrt
	case tree.BuiltinVaStart:
		return ir.OpVaStart
	case tree.BuiltinVaCopy:
		return ir.OpVaCopy
	case tree.BuiltinMemcpy:
		return ir.OpMemCopy
	case tree.BuiltinMemmove:
		return ir.OpMemMove
	case tree.BuiltinMemcmp:
		return ir.OpMemCmp
	case tree.BuiltinMemset:
		return ir.OpMemSet
	case tree.BuiltinUnreachable:
		return ir.OpUnreachable
	default:
		ibug.Bugf("unhandled Builtin %d", b)
		return 0
	}
}

func (fb *funcBuilder) buildCompoundLiteral(e *tree.Expr) *ir.Op {
	ty := fb.irType(e.Ty)
	lcl := fb.newLocal(ty, "")
	addr := fb.emit(ir.OpAddrLcl, types.PtrT())
	addr.Lcl = lcl
	fb.lowerLocalInit(addr, ty, e.CompoundLiteralInit)
	return addr
}

// buildStmtExpr lowers a GNU statement expression: every statement in
// the body runs for effect except the last, which must be an
// expression-statement whose value becomes the whole expression's value
// (§4.2).
func (fb *funcBuilder) buildStmtExpr(e *tree.Expr, ty types.Type) *ir.Op {
	return fb.lowerStmtExprBody(e.StmtExprBody)
}

func (fb *funcBuilder) buildStmtExprAddr(e *tree.Expr) *ir.Op {
	return fb.lowerStmtExprBody(e.StmtExprBody)
}

func (fb *funcBuilder) lowerStmtExprBody(body *tree.Stmt) *ir.Op {
	ibug.Assertf(body.Kind == tree.StmtCompound, "statement expression body must be a compound statement")
	var last *ir.Op
	for i, s := range body.Compound {
		if i == len(body.Compound)-1 && s.Kind == tree.StmtExpr {
			fb.freshStatement()
			last = fb.buildExprValue(s.Expr)
			continue
		}
		fb.buildStmt(s)
	}
	return last
}
