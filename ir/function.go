package ir

import "github.com/arc-language/core-builder/types"

// FuncFlag is a bitmask of function-level flags (§3).
type FuncFlag uint8

const (
	FuncMakesCall FuncFlag = 1 << iota
	FuncUsesVaArgs
)

// Local is a stack-allocated slot owned by a function (§3).
type Local struct {
	ID    int
	Ty    types.Type
	Flags LocalFlag
	Name  string // debug-only, e.g. the source identifier or "" for synthetic locals
}

// LocalFlag is a bitmask of optional Local flags.
type LocalFlag uint8

const (
	// LocalParam marks a local materialising an aggregate parameter
	// (§4.5 step 3).
	LocalParam LocalFlag = 1 << iota
)

// Function owns parameter/return typing, ordered basic blocks, locals,
// and the monotonically increasing op-id counter (§3).
type Function struct {
	Name string
	Ty   *types.Func

	first, last *BasicBlock
	numBlocks   int

	locals   []*Local
	nextLocalID int

	nextOpID int

	Flags FuncFlag
}

// NewFunction creates an empty function with the given name/signature.
func NewFunction(name string, ty *types.Func) *Function {
	return &Function{Name: name, Ty: ty}
}

// NewLocal allocates a fresh Local owned by this function.
func (f *Function) NewLocal(ty types.Type, flags LocalFlag, name string) *Local {
	l := &Local{ID: f.nextLocalID, Ty: ty, Flags: flags, Name: name}
	f.nextLocalID++
	f.locals = append(f.locals, l)
	return l
}

// Locals returns the function's locals in allocation order.
func (f *Function) Locals() []*Local { return f.locals }

// NextOpID returns a fresh, function-scoped monotonically increasing op
// id (§3's "monotonically increasing op-id counter").
func (f *Function) NextOpID() int {
	id := f.nextOpID
	f.nextOpID++
	return id
}

// AppendBlock creates a new basic block and links it at the tail of the
// function's doubly-linked block list (§3).
func (f *Function) AppendBlock(name string) *BasicBlock {
	b := &BasicBlock{id: f.numBlocks, name: name, fn: f}
	f.numBlocks++
	if f.last == nil {
		f.first, f.last = b, b
	} else {
		b.prev = f.last
		f.last.next = b
		f.last = b
	}
	return b
}

// Blocks returns the function's basic blocks in list order.
func (f *Function) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, f.numBlocks)
	for b := f.first; b != nil; b = b.next {
		out = append(out, b)
	}
	return out
}

// FirstBlock / LastBlock give direct access to the list ends.
func (f *Function) FirstBlock() *BasicBlock { return f.first }
func (f *Function) LastBlock() *BasicBlock  { return f.last }

// RemoveBlock unlinks b from the function's block list (§4.5 step 6,
// "prune empty/detached blocks"). It is the caller's responsibility to
// have already re-wired any predecessors/phis that referenced b.
func (f *Function) RemoveBlock(b *BasicBlock) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		f.first = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		f.last = b.prev
	}
	b.prev, b.next = nil, nil
	f.numBlocks--
}
