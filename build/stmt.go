package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"
)

// buildStmt lowers one typed-tree statement into the current block,
// possibly appending and switching through further blocks for control
// flow (§4.3).
func (fb *funcBuilder) buildStmt(s *tree.Stmt) {
	switch s.Kind {
	case tree.StmtCompound:
		fb.pushDeferScope()
		for _, sub := range s.Compound {
			fb.freshStatement()
			fb.buildStmt(sub)
		}
		fb.popDeferScopeAndRun()
	case tree.StmtDeclaration:
		fb.buildDeclaration(s.Decl)
	case tree.StmtExpr:
		fb.freshStatement()
		if s.Expr != nil {
			fb.buildExprValue(s.Expr)
		}
	case tree.StmtIf:
		fb.buildIf(s)
	case tree.StmtWhile:
		fb.buildWhile(s)
	case tree.StmtDoWhile:
		fb.buildDoWhile(s)
	case tree.StmtFor:
		fb.buildFor(s)
	case tree.StmtSwitch:
		fb.buildSwitch(s)
	case tree.StmtCase:
		fb.buildCase(s)
	case tree.StmtDefault:
		fb.buildDefault(s)
	case tree.StmtLabel:
		fb.buildLabel(s)
	case tree.StmtGoto:
		fb.buildGoto(s)
	case tree.StmtBreak:
		fb.buildBreak()
	case tree.StmtContinue:
		fb.buildContinue()
	case tree.StmtReturn:
		fb.buildReturn(s)
	case tree.StmtDefer:
		fb.defers = append(fb.defers, deferEntry{stmt: s.Defer})
	case tree.StmtNull:
		// Nothing to lower.
	default:
		ibug.Bugf("unhandled StmtKind %d", s.Kind)
	}
}

// buildDeclaration realises each declarator of a block-scope declaration
// (§4.3): static-storage declarators become file-scope globals with a
// mangled name, function prototypes register their (unmangled) function
// global, and everything else is a local (SSA or stack, decided by
// declKindFor) whose initialiser (if any) is lowered through InitBuilder.
func (fb *funcBuilder) buildDeclaration(decl *tree.Declaration) {
	for _, d := range decl.Declarators {
		v := d.Var
		ty := fb.irType(v.Ty)

		if d.Storage == tree.StorageStatic {
			fb.buildStaticLocal(d, v, ty)
			continue
		}
		if d.IsFunc {
			// A nested prototype declaration, not a definition — just
			// register the global so calls can resolve it.
			glb := fb.unit.GetOrCreateGlobal(v.Identifier, ir.GlobalFunc, ty)
			fb.vars.declareGlobal(v.Identifier, v.Scope, glb)
			continue
		}

		if fb.declKindFor(v.Identifier, ty) == declLocal {
			lcl := fb.newLocal(ty, v.Identifier)
			fb.vars.declareLocal(v.Identifier, v.Scope, lcl)
			if d.Init != nil {
				addr := fb.emit(ir.OpAddrLcl, types.PtrT())
				addr.Lcl = lcl
				fb.lowerLocalInit(addr, ty, d.Init)
			}
			continue
		}

		fb.vars.declareSSA(v.Identifier, v.Scope)
		if d.Init != nil {
			ie, ok := d.Init.(*tree.InitExpr)
			ibug.Assertf(ok, "scalar declaration of %q initialised with a brace list", v.Identifier)
			val := fb.buildExprValue(ie.Expr)
			fb.vars.recordWrite(fb.cur, varKey{v.Identifier, v.Scope}, val)
		}
	}
}

// declKindFor decides whether an automatic variable is realised as a
// stack local (aggregate, SPILL_ALL, or address-taken somewhere in this
// function — §9) or as a plain SSA value.
func (fb *funcBuilder) declKindFor(identifier string, ty types.Type) declKind {
	if types.IsAggregate(ty) || ty.Kind() == types.KindArray {
		return declLocal
	}
	if fb.flags.SpillAll {
		return declLocal
	}
	if fb.addressTaken[identifier] {
		return declLocal
	}
	return declSSA
}

// buildStaticLocal realises a `static` block-scope variable as an
// internal-linkage global, mangled per §2.3/original_source's
// mangle_static_name so distinct functions' same-named statics don't
// collide, with its initialiser (if any) folded to a constant VarValue
// exactly like a file-scope global (§4.4) rather than re-run on every
// call.
func (fb *funcBuilder) buildStaticLocal(d *tree.Declarator, v tree.Var, ty types.Type) {
	mangled := mangleStaticName(fb.funcName, v.Identifier, fb.staticCounter[v.Identifier])
	fb.staticCounter[v.Identifier]++
	glb := fb.unit.GetOrCreateGlobal(mangled, ir.GlobalData, ty)
	glb.SetLinkage(ir.LinkageInternal)
	if d.Init != nil {
		glb.SetVarValue(buildGlobalInit(fb.unit, fb.td, ty, d.Init))
		glb.SetDefStatus(ir.Defined)
	} else {
		glb.SetDefStatus(ir.Tentative)
	}
	fb.vars.declareGlobal(v.Identifier, v.Scope, glb)
}

func (fb *funcBuilder) buildIf(s *tree.Stmt) {
	cond := fb.buildExprValue(s.Cond)
	condBlock := fb.cur

	thenBlock := fb.fn.AppendBlock("")
	joinBlock := fb.fn.AppendBlock("")
	elseBlock := joinBlock
	if s.Else != nil {
		elseBlock = fb.fn.AppendBlock("")
	}

	brOp := fb.emit(ir.OpBrCond, types.None{})
	brOp.Cond = cond
	condBlock.SetTermCond(brOp, thenBlock, elseBlock)

	fb.cur = thenBlock
	fb.freshStatement()
	fb.buildStmt(s.Then)
	fb.brIfFallthrough(joinBlock)

	if s.Else != nil {
		fb.cur = elseBlock
		fb.freshStatement()
		fb.buildStmt(s.Else)
		fb.brIfFallthrough(joinBlock)
	}

	fb.cur = joinBlock
	fb.freshStatement()
}

// brIfFallthrough terminates fb.cur with an unconditional BR to target
// if it hasn't already been terminated (by a nested return/break/
// continue/goto) — the common "fall off the end of this arm" case.
func (fb *funcBuilder) brIfFallthrough(target *ir.BasicBlock) {
	if fb.cur.Term() == ir.TermNone {
		op := fb.emit(ir.OpBr, types.None{})
		fb.cur.SetTermBr(op, target)
	}
}

func (fb *funcBuilder) buildWhile(s *tree.Stmt) {
	header := fb.fn.AppendBlock("")
	body := fb.fn.AppendBlock("")
	after := fb.fn.AppendBlock("")

	fb.brIfFallthrough(header)

	fb.cur = header
	fb.freshStatement()
	cond := fb.buildExprValue(s.Cond)
	brOp := fb.emit(ir.OpBrCond, types.None{})
	brOp.Cond = cond
	header.SetTermCond(brOp, body, after)

	fb.pushLoop(after, header)
	fb.cur = body
	fb.freshStatement()
	fb.buildStmt(s.Body)
	fb.brIfFallthrough(header)
	fb.popLoop()

	fb.cur = after
	fb.freshStatement()
}

func (fb *funcBuilder) buildDoWhile(s *tree.Stmt) {
	body := fb.fn.AppendBlock("")
	condBlk := fb.fn.AppendBlock("")
	after := fb.fn.AppendBlock("")

	fb.brIfFallthrough(body)

	fb.pushLoop(after, condBlk)
	fb.cur = body
	fb.freshStatement()
	fb.buildStmt(s.Body)
	fb.brIfFallthrough(condBlk)
	fb.popLoop()

	fb.cur = condBlk
	fb.freshStatement()
	cond := fb.buildExprValue(s.Cond)
	brOp := fb.emit(ir.OpBrCond, types.None{})
	brOp.Cond = cond
	condBlk.SetTermCond(brOp, body, after)

	fb.cur = after
	fb.freshStatement()
}

func (fb *funcBuilder) buildFor(s *tree.Stmt) {
	if s.ForInit != nil {
		fb.buildStmt(s.ForInit)
	}

	header := fb.fn.AppendBlock("")
	body := fb.fn.AppendBlock("")
	iterBlk := fb.fn.AppendBlock("")
	after := fb.fn.AppendBlock("")

	fb.brIfFallthrough(header)

	fb.cur = header
	fb.freshStatement()
	if s.Cond != nil {
		cond := fb.buildExprValue(s.Cond)
		brOp := fb.emit(ir.OpBrCond, types.None{})
		brOp.Cond = cond
		header.SetTermCond(brOp, body, after)
	} else {
		brOp := fb.emit(ir.OpBr, types.None{})
		header.SetTermBr(brOp, body)
	}

	fb.pushLoop(after, iterBlk)
	fb.cur = body
	fb.freshStatement()
	fb.buildStmt(s.Body)
	fb.brIfFallthrough(iterBlk)
	fb.popLoop()

	fb.cur = iterBlk
	fb.freshStatement()
	if s.ForIter != nil {
		fb.buildExprValue(s.ForIter)
	}
	brOp := fb.emit(ir.OpBr, types.None{})
	iterBlk.SetTermBr(brOp, header)

	fb.cur = after
	fb.freshStatement()
}

func (fb *funcBuilder) pushLoop(breakTo, continueTo *ir.BasicBlock) {
	fb.breakTargets = append(fb.breakTargets, breakTo)
	fb.continueTargets = append(fb.continueTargets, continueTo)
}

func (fb *funcBuilder) popLoop() {
	fb.breakTargets = fb.breakTargets[:len(fb.breakTargets)-1]
	fb.continueTargets = fb.continueTargets[:len(fb.continueTargets)-1]
}

func (fb *funcBuilder) buildSwitch(s *tree.Stmt) {
	ctrl := fb.buildExprValue(s.Cond)
	header := fb.cur
	switchOp := fb.emit(ir.OpBrSwitch, types.None{})
	switchOp.SwitchVal = ctrl

	bodyEntry := fb.fn.AppendBlock("")
	after := fb.fn.AppendBlock("")

	ctx := &switchCtx{header: header, seen: make(map[int64]bool)}
	fb.switches = append(fb.switches, ctx)
	fb.breakTargets = append(fb.breakTargets, after)

	fb.cur = bodyEntry
	fb.freshStatement()
	fb.buildStmt(s.Body)
	fb.brIfFallthrough(after)

	fb.breakTargets = fb.breakTargets[:len(fb.breakTargets)-1]
	fb.switches = fb.switches[:len(fb.switches)-1]

	defaultTarget := ctx.defaultBlk
	if defaultTarget == nil {
		defaultTarget = after
	}
	header.SetTermSwitch(switchOp, ctx.cases, defaultTarget)
	// bodyEntry is itself reachable only by falling straight through
	// from header when there happen to be no case labels before the
	// first statement; wire that edge explicitly since SetTermSwitch
	// only adds edges for the collected cases/default.
	if len(ctx.cases) == 0 && ctx.defaultBlk == nil {
		bodyEntry.AddPred(header)
	}

	fb.cur = after
	fb.freshStatement()
}

func (fb *funcBuilder) currentSwitch() *switchCtx {
	ibug.Assertf(len(fb.switches) > 0, "case/default label outside a switch")
	return fb.switches[len(fb.switches)-1]
}

func (fb *funcBuilder) buildCase(s *tree.Stmt) {
	ctx := fb.currentSwitch()
	ibug.Assertf(s.Expr != nil && s.Expr.Kind == tree.ExprCnstInt, "case label is not an integer constant expression")
	val := int64(s.Expr.IntVal)
	ibug.Assertf(!ctx.seen[val], "duplicate case value %d", val)
	ctx.seen[val] = true

	caseBlk := fb.fn.AppendBlock("")
	fb.brIfFallthrough(caseBlk)
	ctx.cases = append(ctx.cases, ir.SwitchCase{Value: val, Target: caseBlk})

	fb.cur = caseBlk
	fb.freshStatement()
}

func (fb *funcBuilder) buildDefault(s *tree.Stmt) {
	ctx := fb.currentSwitch()
	ibug.Assertf(ctx.defaultBlk == nil, "duplicate default label")

	defaultBlk := fb.fn.AppendBlock("")
	fb.brIfFallthrough(defaultBlk)
	ctx.defaultBlk = defaultBlk

	fb.cur = defaultBlk
	fb.freshStatement()
}

func (fb *funcBuilder) buildLabel(s *tree.Stmt) {
	blk := fb.fn.AppendBlock(s.Label)
	fb.brIfFallthrough(blk)
	fb.labels[s.Label] = blk
	fb.cur = blk
	fb.freshStatement()
}

func (fb *funcBuilder) buildGoto(s *tree.Stmt) {
	op := fb.emit(ir.OpBr, types.None{})
	op.PendingLabel = s.Label
	fb.cur.SetTermBrPending(op)
	fb.pendingGotos = append(fb.pendingGotos, pendingGoto{op: op, label: s.Label})

	fb.cur = fb.fn.AppendBlock("")
	fb.freshStatement()
}

func (fb *funcBuilder) buildBreak() {
	ibug.Assertf(len(fb.breakTargets) > 0, "break outside a loop or switch")
	target := fb.breakTargets[len(fb.breakTargets)-1]
	fb.runPendingDefers()
	op := fb.emit(ir.OpBr, types.None{})
	fb.cur.SetTermBr(op, target)
	fb.cur = fb.fn.AppendBlock("")
	fb.freshStatement()
}

func (fb *funcBuilder) buildContinue() {
	ibug.Assertf(len(fb.continueTargets) > 0, "continue outside a loop")
	target := fb.continueTargets[len(fb.continueTargets)-1]
	fb.runPendingDefers()
	op := fb.emit(ir.OpBr, types.None{})
	fb.cur.SetTermBr(op, target)
	fb.cur = fb.fn.AppendBlock("")
	fb.freshStatement()
}

func (fb *funcBuilder) buildReturn(s *tree.Stmt) {
	fb.runPendingDefers()

	var op *ir.Op
	if s.Expr != nil {
		retTy := fb.fn.Ty.Ret
		if types.IsAggregate(retTy) {
			addr := fb.buildExprAddr(s.Expr)
			op = fb.emit(ir.OpRet, types.None{})
			op.Operands = []*ir.Op{addr}
		} else {
			val := fb.buildExprValue(s.Expr)
			op = fb.emit(ir.OpRet, types.None{})
			op.Operands = []*ir.Op{val}
		}
	} else {
		op = fb.emit(ir.OpRet, types.None{})
	}
	fb.cur.SetTermRet(op)

	fb.cur = fb.fn.AppendBlock("")
	fb.freshStatement()
}
