package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"
)

// Flags carries build-wide options that change how a function's locals
// are realised (§9's documented workaround note).
type Flags struct {
	// SpillAll forces every automatic variable to a stack local instead
	// of SSA, trading optimisation opportunity for a far simpler builder
	// — the degraded mode mentioned in §9 for when a consumer cannot yet
	// trust the phi-completion pass.
	SpillAll bool
}

// switchCtx tracks the in-progress case list for one enclosing switch
// (§4.3's "cases stack").
type switchCtx struct {
	header     *ir.BasicBlock
	cases      []ir.SwitchCase
	defaultBlk *ir.BasicBlock
	seen       map[int64]bool
}

// pendingGoto is an unresolved `goto label;` — the BR op whose target
// block will be filled in once the label is seen (§4.3).
type pendingGoto struct {
	op    *ir.Op
	label string
}

// deferEntry is one slot of the defer stack (§4.3): either a NEW_SCOPE
// marker pushed by a compound on entry, or a deferred statement pushed
// by StmtDefer.
type deferEntry struct {
	newScope bool
	stmt     *tree.Stmt
}

// funcBuilder holds all per-function state shared by ExprBuilder,
// StmtBuilder, InitBuilder while lowering one function body (§4.5).
type funcBuilder struct {
	unit  *ir.Unit
	td    *target.Descriptor
	fn    *ir.Function
	vars  *varRefs
	flags Flags

	cur     *ir.BasicBlock
	curStmt *ir.Statement

	labels       map[string]*ir.BasicBlock
	pendingGotos []pendingGoto

	breakTargets    []*ir.BasicBlock
	continueTargets []*ir.BasicBlock
	switches        []*switchCtx

	// defers is the scope-tagged LIFO stack of §4.3's StmtDefer: a
	// NEW_SCOPE marker entry per open compound, interleaved with the
	// deferred statements registered inside it. Compound end pops and
	// runs back to (and including) its own marker; return/break/continue
	// only run the unpopped run down to the nearest marker, since those
	// jumps leave outer scopes' markers for their own compounds to pop.
	defers []deferEntry

	funcName      string
	staticCounter map[string]int
	addressTaken  map[string]bool
}

// BuildFunction implements §4.5's ten steps end to end, returning the
// finished Function ready to attach to its Global.
func BuildFunction(unit *ir.Unit, global *globalVarRefs, td *target.Descriptor, def *tree.FunctionDef, funcTy *types.Func, flags Flags) *ir.Function {
	fn := ir.NewFunction(def.Name, funcTy)
	fb := &funcBuilder{
		unit:          unit,
		td:            td,
		fn:            fn,
		vars:          newVarRefs(global),
		flags:         flags,
		labels:        make(map[string]*ir.BasicBlock),
		funcName:      def.Name,
		staticCounter: make(map[string]int),
		addressTaken:  scanAddressTaken(def.Body),
	}

	// Step 1/2: entry block with its reserved parameter statement.
	entry := fn.AppendBlock("entry")
	fb.cur = entry
	paramStmt := entry.AppendStatement()
	paramStmt.Flags |= ir.StmtParam

	// Step 3: materialise parameters.
	for i, p := range def.Params {
		pty := funcTy.Params[i]
		fb.declareParam(paramStmt, p, pty)
	}
	if funcTy.Variadic {
		fn.Flags |= ir.FuncUsesVaArgs
	}

	// Step 4: lower the body.
	fb.buildStmt(def.Body)

	// Step 5: resolve pending gotos.
	fb.resolvePendingGotos()

	// Step 6: prune empty/detached blocks.
	fb.pruneBlocks()

	// Step 7: ensure every reachable block terminates; main gets an
	// implicit `return 0`.
	fb.ensureTerminated(def.Name == "main")

	// Step 8: SSA completion.
	fb.vars.resolvePendingPhis()

	// Step 9: phi simplification to a fixed point.
	simplifyPhis(fn)

	// Step 10: validate.
	validate(fn)

	return fn
}

func (fb *funcBuilder) declareParam(paramStmt *ir.Statement, p tree.Var, pty types.Type) {
	key := varKey{p.Identifier, tree.ScopeParams}
	if types.IsAggregate(pty) {
		lcl := fb.fn.NewLocal(pty, ir.LocalParam, p.Identifier)
		op := paramStmt.AppendOp(ir.OpAddrLcl, types.PtrT())
		op.Lcl = lcl
		op.Flags |= ir.OpFlagParam
		fb.vars.declareLocal(p.Identifier, tree.ScopeParams, lcl)
		return
	}
	op := paramStmt.AppendOp(ir.OpMov, pty)
	op.Flags |= ir.OpFlagParam
	if fb.declKindFor(p.Identifier, pty) == declLocal {
		// SPILL_ALL or address-taken: store the incoming value into a
		// stack slot and realise the parameter as that local.
		lcl := fb.newLocal(pty, p.Identifier)
		st := fb.emit(ir.OpStore, types.None{})
		st.Lcl = lcl
		st.Operands = []*ir.Op{op}
		fb.vars.declareLocal(p.Identifier, tree.ScopeParams, lcl)
		return
	}
	fb.vars.declareSSA(p.Identifier, tree.ScopeParams)
	fb.vars.recordWrite(fb.cur, key, op)
}

// newLocal is the common "spill this SSA-eligible variable to a stack
// slot instead" path used whenever SpillAll is set or a variable's
// address is taken (§9).
func (fb *funcBuilder) newLocal(ty types.Type, name string) *ir.Local {
	return fb.fn.NewLocal(ty, 0, name)
}

// resolvePendingGotos retargets every goto's BR op once every label in
// the function has been seen (§4.3, §4.5 step 5).
func (fb *funcBuilder) resolvePendingGotos() {
	for _, pg := range fb.pendingGotos {
		target, ok := fb.labels[pg.label]
		ibug.Assertf(ok, "goto to undefined label %q", pg.label)
		pg.op.PendingLabel = ""
		pg.op.Block().FinalizeGoto(pg.op, target)
	}
}

// pruneBlocks removes blocks that ended up detached (never jumped into)
// and still have no terminator after the whole body is lowered (§4.5
// step 6). A detached block that did receive a terminator is kept.
func (fb *funcBuilder) pruneBlocks() {
	for _, b := range fb.fn.Blocks() {
		if b.IsDetached() && b.Term() == ir.TermNone {
			fb.fn.RemoveBlock(b)
		}
	}
}

// ensureTerminated appends an implicit RET to any reachable block that
// fell through without one (§4.5 step 7) — the final block built by a
// function body lacking an explicit trailing return, and main's
// implicit `return 0`.
func (fb *funcBuilder) ensureTerminated(isMain bool) {
	for _, b := range fb.fn.Blocks() {
		if b.Term() != ir.TermNone {
			continue
		}
		fb.cur = b
		fb.runPendingDefers()
		s := fb.lastOrNewStatement(b)
		op := s.AppendOp(ir.OpRet, types.None{})
		if isMain {
			ret := fb.fn.Ty.Ret
			if ret.Kind() != types.KindNone {
				zero := s.AppendOp(ir.OpCnst, ret)
				zero.CnstInt = 0
				op.Operands = []*ir.Op{zero}
			}
		}
		b.SetTermRet(op)
	}
}

func (fb *funcBuilder) lastOrNewStatement(b *ir.BasicBlock) *ir.Statement {
	if s := b.LastStatement(); s != nil {
		return s
	}
	return b.AppendStatement()
}

// pushDeferScope opens a new defer scope on entry to a compound
// statement (§4.3's NEW_SCOPE marker).
func (fb *funcBuilder) pushDeferScope() {
	fb.defers = append(fb.defers, deferEntry{newScope: true})
}

// popDeferScopeAndRun closes the innermost defer scope at a compound's
// end: pops and lowers each deferred statement back to (and including)
// its own NEW_SCOPE marker, in LIFO order (§4.3).
func (fb *funcBuilder) popDeferScopeAndRun() {
	for len(fb.defers) > 0 {
		last := fb.defers[len(fb.defers)-1]
		fb.defers = fb.defers[:len(fb.defers)-1]
		if last.newScope {
			return
		}
		fb.buildStmt(last.stmt)
	}
}

// runPendingDefers lowers the deferred statements down to, but does not
// pop past, the nearest enclosing NEW_SCOPE marker — the "run pending
// defers" step at `return`/`break`/`continue` (§4.3). Outer scopes keep
// their own entries, to be run by their own compound's eventual
// popDeferScopeAndRun.
func (fb *funcBuilder) runPendingDefers() {
	for i := len(fb.defers) - 1; i >= 0; i-- {
		if fb.defers[i].newScope {
			return
		}
		fb.buildStmt(fb.defers[i].stmt)
	}
}
