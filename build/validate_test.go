package build

import (
	"testing"

	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"

	"github.com/stretchr/testify/assert"
)

// TestValidateAcceptsWellFormedFunction checks the universal invariants
// (§8: every reachable block terminated, successor count matches the
// terminator kind) hold for an ordinary function built end to end.
func TestValidateAcceptsWellFormedFunction(t *testing.T) {
	ty := intTy()
	funcTy := &types.Func{Ret: types.I32T(true)}
	def := &tree.FunctionDef{
		Name: "zero",
		Ty:   &tree.VarTy{Kind: tree.TyFunc, Ret: ty},
		Body: &tree.Stmt{Kind: tree.StmtCompound, Compound: []*tree.Stmt{
			{Kind: tree.StmtReturn, Expr: &tree.Expr{Kind: tree.ExprCnstInt, Ty: ty, IntVal: 0}},
		}},
	}

	assert.NotPanics(t, func() {
		buildOneFunc(t, def, funcTy)
	})
}

// TestValidatePanicsOnUnterminatedBlock confirms validate() rejects a
// block left without a terminator, per §8's "every block terminated"
// invariant — constructed directly against ir.Function since nothing
// BuildFunction itself produces should ever trip this.
func TestValidatePanicsOnUnterminatedBlock(t *testing.T) {
	fn := ir.NewFunction("bad", &types.Func{Ret: types.I32T(true)})
	fn.AppendBlock("entry") // never given a terminator

	assert.Panics(t, func() {
		validate(fn)
	})
}

// TestValidatePanicsOnPhiNamingNonPredecessor confirms validate() checks
// that every phi entry's block is an actual predecessor of the block
// the phi lives in.
func TestValidatePanicsOnPhiNamingNonPredecessor(t *testing.T) {
	fn := ir.NewFunction("bad", &types.Func{Ret: types.I32T(true)})
	entry := fn.AppendBlock("entry")
	stray := fn.AppendBlock("stray") // never wired as a predecessor of entry

	stmt := entry.AppendStatement()
	phi := stmt.PrependOp(ir.OpPhi)
	phi.SetType(types.I32T(true))
	cnst := stmt.AppendOp(ir.OpCnst, types.I32T(true))
	cnst.CnstInt = 1
	phi.PhiEntries = []ir.PhiEntry{{Block: stray, Value: cnst}}

	ret := stmt.AppendOp(ir.OpRet, types.None{})
	ret.Operands = []*ir.Op{phi}
	entry.SetTermRet(ret)

	assert.Panics(t, func() {
		validate(fn)
	})
}
