package ir

// TermKind discriminates a basic block's terminator shape (§3).
type TermKind int

const (
	// TermNone marks a block that has not yet been terminated — only
	// legal transiently, mid-build; every block reachable at the end of
	// FuncBuilder must have a real terminator (invariant I1, §3).
	TermNone TermKind = iota
	TermRet
	TermBr
	TermBrCond
	TermBrSwitch
)

func (t TermKind) String() string {
	switch t {
	case TermRet:
		return "ret"
	case TermBr:
		return "br"
	case TermBrCond:
		return "br_cond"
	case TermBrSwitch:
		return "br_switch"
	default:
		return "none"
	}
}

// SuccessorCount returns the expected number of CFG successors for a
// terminator kind, used by the "terminator shape agreement" testable
// property (§8): RET=0, BR=1, BR_COND=2, BR_SWITCH=1+|cases|. For
// TermBrSwitch, extra is the number of explicit cases (the default
// target is the "+1").
func (t TermKind) SuccessorCount(extra int) int {
	switch t {
	case TermRet:
		return 0
	case TermBr:
		return 1
	case TermBrCond:
		return 2
	case TermBrSwitch:
		return 1 + extra
	default:
		return 0
	}
}

// BasicBlock is a maximal straight-line sequence of statements with a
// stable id, a predecessor set, and a terminator shape (§3).
type BasicBlock struct {
	id   int
	name string
	fn   *Function

	prev, next *BasicBlock

	firstStmt, lastStmt *Statement
	numStmts            int

	preds []*BasicBlock

	term        TermKind
	termOp      *Op // the BR/BR_COND/BR_SWITCH/RET op itself, once emitted
	succs       []*BasicBlock
	switchCases []SwitchCase
}

// SwitchCase pairs a constant value with its target block, for
// BR_SWITCH (§3).
type SwitchCase struct {
	Value  int64
	Target *BasicBlock
}

func (b *BasicBlock) ID() int            { return b.id }
func (b *BasicBlock) Name() string       { return b.name }
func (b *BasicBlock) Func() *Function    { return b.fn }
func (b *BasicBlock) Term() TermKind     { return b.term }
func (b *BasicBlock) TermOp() *Op        { return b.termOp }
func (b *BasicBlock) Preds() []*BasicBlock { return b.preds }
func (b *BasicBlock) Succs() []*BasicBlock { return b.succs }
func (b *BasicBlock) SwitchCases() []SwitchCase { return b.switchCases }

// IsDetached reports whether the block currently has no predecessor
// edges and is not the function's entry block — the state a fresh block
// is in immediately after StmtBuilder appends it as "the current block"
// following a return/break/continue/goto (§4.3), before anything is
// wired to jump into it. FuncBuilder's pruning pass (§4.5 step 6) removes
// blocks still in this state, and still unterminated, once the function
// is fully lowered.
func (b *BasicBlock) IsDetached() bool {
	return b != b.fn.first && len(b.preds) == 0
}

// Statements returns the block's statements in order.
func (b *BasicBlock) Statements() []*Statement {
	out := make([]*Statement, 0, b.numStmts)
	for s := b.firstStmt; s != nil; s = s.next {
		out = append(out, s)
	}
	return out
}

// AppendStatement creates and links a new statement at the tail of b.
func (b *BasicBlock) AppendStatement() *Statement {
	s := &Statement{block: b}
	if b.lastStmt == nil {
		b.firstStmt, b.lastStmt = s, s
	} else {
		s.prev = b.lastStmt
		b.lastStmt.next = s
		b.lastStmt = s
	}
	b.numStmts++
	return s
}

// FirstStatement / LastStatement expose the list ends; phi insertion
// uses FirstStatement to place PHI ops at a block's head (§5's ordering
// guarantee).
func (b *BasicBlock) FirstStatement() *Statement { return b.firstStmt }
func (b *BasicBlock) LastStatement() *Statement  { return b.lastStmt }

func addPred(b, pred *BasicBlock) {
	for _, p := range b.preds {
		if p == pred {
			return
		}
	}
	b.preds = append(b.preds, pred)
}

// setTermRet/setTermBr/setTermCond/setTermSwitch install a terminator
// and update the successor/predecessor edges consistently (invariant
// I2, §3). Each may only be called once per block — FuncBuilder/
// StmtBuilder never re-terminate an already-terminated block; they
// instead continue building in a freshly appended block.
func (b *BasicBlock) setTermRet(op *Op) {
	b.term = TermRet
	b.termOp = op
	b.succs = nil
}

func (b *BasicBlock) setTermBr(op *Op, target *BasicBlock) {
	b.term = TermBr
	b.termOp = op
	op.BrTarget = target
	b.succs = []*BasicBlock{target}
	addPred(target, b)
}

func (b *BasicBlock) setTermCond(op *Op, t, f *BasicBlock) {
	b.term = TermBrCond
	b.termOp = op
	op.TrueTarget, op.FalseTarget = t, f
	b.succs = []*BasicBlock{t, f}
	addPred(t, b)
	addPred(f, b)
}

func (b *BasicBlock) setTermSwitch(op *Op, cases []SwitchCase, def *BasicBlock) {
	b.term = TermBrSwitch
	b.termOp = op
	op.SwitchCases = cases
	op.DefaultTarget = def
	b.switchCases = cases
	succs := make([]*BasicBlock, 0, len(cases)+1)
	for _, c := range cases {
		succs = append(succs, c.Target)
		addPred(c.Target, b)
	}
	succs = append(succs, def)
	addPred(def, b)
	b.succs = succs
}

// SetTermRet / SetTermBr / SetTermCond / SetTermSwitch are the build
// package's entry points onto the unexported terminator installers,
// kept unexported themselves so nothing outside this package can install
// a terminator without going through the edge-consistent helpers.
func (b *BasicBlock) SetTermRet(op *Op)                                 { b.setTermRet(op) }
func (b *BasicBlock) SetTermBr(op *Op, target *BasicBlock)              { b.setTermBr(op, target) }
func (b *BasicBlock) SetTermCond(op *Op, t, f *BasicBlock)              { b.setTermCond(op, t, f) }
func (b *BasicBlock) SetTermSwitch(op *Op, cases []SwitchCase, def *BasicBlock) {
	b.setTermSwitch(op, cases, def)
}

// SetTermBrPending installs a BR terminator whose target is not yet
// known (a forward `goto`, §4.3) — no successor/predecessor edge is
// recorded until FinalizeGoto supplies the real target.
func (b *BasicBlock) SetTermBrPending(op *Op) {
	b.term = TermBr
	b.termOp = op
}

// FinalizeGoto completes a pending goto BR once its label's block is
// known (§4.5 step 5).
func (b *BasicBlock) FinalizeGoto(op *Op, target *BasicBlock) {
	op.BrTarget = target
	b.succs = []*BasicBlock{target}
	addPred(target, b)
}

// RetargetPred exposes retargetPred to the build package.
func (b *BasicBlock) RetargetPred(oldPred, newPred *BasicBlock) { retargetPred(b, oldPred, newPred) }

// AddPred exposes addPred to the build package, used when a block
// gains a predecessor edge outside of setTerm* (the switch builder's
// edge into a body that has no case labels).
func (b *BasicBlock) AddPred(pred *BasicBlock) { addPred(b, pred) }

// retargetPred rewires every predecessor edge in succ's pred list that
// equals oldPred to newPred instead.
func retargetPred(succ, oldPred, newPred *BasicBlock) {
	for i, p := range succ.preds {
		if p == oldPred {
			succ.preds[i] = newPred
		}
	}
}
