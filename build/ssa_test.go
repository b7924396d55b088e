package build

import (
	"testing"

	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSimplifyPhisRemovesTrivialSelfLoop exercises the case a loop back
// edge produces before the loop body ever redefines the variable: a
// phi whose only non-self incoming value is the block's single
// predecessor value collapses to that value everywhere it is used.
func TestSimplifyPhisRemovesTrivialSelfLoop(t *testing.T) {
	fn := ir.NewFunction("f", &types.Func{Ret: types.I32T(true)})
	entry := fn.AppendBlock("entry")
	loop := fn.AppendBlock("loop")

	entryStmt := entry.AppendStatement()
	init := entryStmt.AppendOp(ir.OpCnst, types.I32T(true))
	init.CnstInt = 1

	loopStmt := loop.AppendStatement()
	phi := loopStmt.PrependOp(ir.OpPhi)
	phi.SetType(types.I32T(true))
	phi.PhiEntries = []ir.PhiEntry{
		{Block: entry, Value: init},
		{Block: loop, Value: phi}, // back edge: self-reference
	}

	// A downstream use of the phi (e.g. `return x;`).
	useStmt := loop.AppendStatement()
	use := useStmt.AppendOp(ir.OpAdd, types.I32T(true))
	use.Operands = []*ir.Op{phi, phi}

	simplifyPhis(fn)

	for _, b := range fn.Blocks() {
		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				assert.NotEqual(t, ir.OpPhi, o.Kind())
			}
		}
	}
	require.Len(t, use.Operands, 2)
	assert.Equal(t, init, use.Operands[0])
	assert.Equal(t, init, use.Operands[1])
}

// TestSimplifyPhisKeepsGenuinePhi verifies a phi with two genuinely
// distinct incoming values (both non-self) survives simplification.
func TestSimplifyPhisKeepsGenuinePhi(t *testing.T) {
	fn := ir.NewFunction("f", &types.Func{Ret: types.I32T(true)})
	a := fn.AppendBlock("a")
	b := fn.AppendBlock("b")
	join := fn.AppendBlock("join")

	aStmt := a.AppendStatement()
	av := aStmt.AppendOp(ir.OpCnst, types.I32T(true))
	av.CnstInt = 1

	bStmt := b.AppendStatement()
	bv := bStmt.AppendOp(ir.OpCnst, types.I32T(true))
	bv.CnstInt = 2

	joinStmt := join.AppendStatement()
	phi := joinStmt.PrependOp(ir.OpPhi)
	phi.SetType(types.I32T(true))
	phi.PhiEntries = []ir.PhiEntry{
		{Block: a, Value: av},
		{Block: b, Value: bv},
	}

	simplifyPhis(fn)

	found := false
	for _, s := range join.Statements() {
		for _, o := range s.Ops() {
			if o.Kind() == ir.OpPhi {
				found = true
			}
		}
	}
	assert.True(t, found, "genuine two-way phi must survive simplification")
}
