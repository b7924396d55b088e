package ir

import "github.com/arc-language/core-builder/types"

// StmtFlag is a bitmask of optional Statement flags.
type StmtFlag uint8

const (
	// StmtParam marks the reserved first statement of a function's
	// entry block, which holds PARAM-flagged MOV/ADDR ops for parameter
	// materialisation (§3, §4.5 step 2).
	StmtParam StmtFlag = 1 << iota
)

// Statement is a doubly-linked ordered sequence of ops within a block
// (§3). Each source-level sequence point corresponds to a fresh
// Statement (§5's ordering guarantee).
type Statement struct {
	block *BasicBlock
	prev, next *Statement

	firstOp, lastOp *Op
	numOps          int

	Flags StmtFlag
}

func (s *Statement) Block() *BasicBlock { return s.block }
func (s *Statement) Prev() *Statement   { return s.prev }
func (s *Statement) Next() *Statement   { return s.next }

// Ops returns the statement's ops in order.
func (s *Statement) Ops() []*Op {
	out := make([]*Op, 0, s.numOps)
	for o := s.firstOp; o != nil; o = o.next {
		out = append(out, o)
	}
	return out
}

// AppendOp creates, links (at the tail), and assigns an id to a new op
// of the given kind within this statement. Ops are append-only within a
// statement and never individually freed (§3's lifecycle).
func (s *Statement) AppendOp(kind OpKind, ty types.Type) *Op {
	o := &Op{
		id:   s.block.fn.NextOpID(),
		kind: kind,
		ty:   ty,
		stmt: s,
	}
	if s.lastOp == nil {
		s.firstOp, s.lastOp = o, o
	} else {
		o.prev = s.lastOp
		s.lastOp.next = o
		s.lastOp = o
	}
	s.numOps++
	return o
}

// PrependOp inserts a new op at the head of the statement — used to
// place PHI ops at a block's first statement (§5's ordering guarantee).
// Parameter ops are appended to the entry block's reserved parameter
// statement with AppendOp instead.
func (s *Statement) PrependOp(kind OpKind) *Op {
	o := &Op{
		id:   s.block.fn.NextOpID(),
		kind: kind,
		stmt: s,
	}
	if s.firstOp == nil {
		s.firstOp, s.lastOp = o, o
	} else {
		o.next = s.firstOp
		s.firstOp.prev = o
		s.firstOp = o
	}
	s.numOps++
	return o
}

// RemoveOp exposes removeOp to the build package's phi simplifier.
func RemoveOp(o *Op) { removeOp(o) }

// removeOp unlinks o from its statement; used by the phi simplifier
// (§4.5 step 9) to delete a trivial phi once its users have been
// rewritten.
func removeOp(o *Op) {
	s := o.stmt
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		s.firstOp = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		s.lastOp = o.prev
	}
	o.prev, o.next = nil, nil
	s.numOps--
}
