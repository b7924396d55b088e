package build

import (
	"testing"

	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intTy() *tree.VarTy  { return &tree.VarTy{Kind: tree.TyWellKnown, WellKnown: tree.Int} }
func intPtrTy() *tree.VarTy {
	return &tree.VarTy{Kind: tree.TyPointer, Pointee: intTy()}
}

func varExpr(name string, scope tree.Scope, ty *tree.VarTy) *tree.Expr {
	return &tree.Expr{Kind: tree.ExprVar, Ty: ty, Var: tree.Var{Identifier: name, Scope: scope, Ty: ty}}
}

func buildOneFunc(t *testing.T, def *tree.FunctionDef, funcTy *types.Func) *ir.Function {
	t.Helper()
	unit := ir.NewUnit(target.Default64())
	global := newGlobalVarRefs()
	return BuildFunction(unit, global, target.Default64(), def, funcTy, Flags{})
}

// TestPointerArithmeticScalesByElementSize exercises `p + n` for an int
// pointer: the index must be scaled by sizeof(int) via ADDR_OFFSET, not
// added directly to the pointer's raw byte value.
func TestPointerArithmeticScalesByElementSize(t *testing.T) {
	pTy := intPtrTy()
	nTy := intTy()
	funcTy := &types.Func{Ret: types.PtrT(), Params: []types.Type{types.PtrT(), types.I32T(true)}}
	def := &tree.FunctionDef{
		Name:   "advance",
		Ty:     &tree.VarTy{Kind: tree.TyFunc, Ret: pTy, Params: []*tree.VarTy{pTy, nTy}},
		Params: []tree.Var{{Identifier: "p", Scope: tree.ScopeParams, Ty: pTy}, {Identifier: "n", Scope: tree.ScopeParams, Ty: nTy}},
		Body: &tree.Stmt{Kind: tree.StmtCompound, Compound: []*tree.Stmt{
			{Kind: tree.StmtReturn, Expr: &tree.Expr{
				Kind: tree.ExprBinary, Ty: pTy, BinOp: tree.BinAdd,
				Lhs: varExpr("p", tree.ScopeParams, pTy),
				Rhs: varExpr("n", tree.ScopeParams, nTy),
			}},
		}},
	}

	fn := buildOneFunc(t, def, funcTy)

	var found *ir.Op
	for _, b := range fn.Blocks() {
		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				if o.Base != nil && o.Index != nil {
					found = o
				}
			}
		}
	}
	require.NotNil(t, found, "expected an ADDR_OFFSET-shaped op with a scaled index")
	assert.Equal(t, int64(4), found.Scale) // sizeof(int) on a 64-bit target
}

// TestShortCircuitAndBuildsThreeBlocks verifies `a && b` lowers to
// control flow (not a plain bitwise AND): the rhs is only evaluated in
// its own conditionally-entered block, and the result joins via a phi.
func TestShortCircuitAndBuildsThreeBlocks(t *testing.T) {
	aTy := intTy()
	funcTy := &types.Func{Ret: types.I32T(true), Params: []types.Type{types.I32T(true), types.I32T(true)}}
	def := &tree.FunctionDef{
		Name:   "both",
		Ty:     &tree.VarTy{Kind: tree.TyFunc, Ret: aTy, Params: []*tree.VarTy{aTy, aTy}},
		Params: []tree.Var{{Identifier: "a", Scope: tree.ScopeParams, Ty: aTy}, {Identifier: "b", Scope: tree.ScopeParams, Ty: aTy}},
		Body: &tree.Stmt{Kind: tree.StmtCompound, Compound: []*tree.Stmt{
			{Kind: tree.StmtReturn, Expr: &tree.Expr{
				Kind: tree.ExprBinary, Ty: aTy, BinOp: tree.BinLogAnd,
				Lhs: varExpr("a", tree.ScopeParams, aTy),
				Rhs: varExpr("b", tree.ScopeParams, aTy),
			}},
		}},
	}

	fn := buildOneFunc(t, def, funcTy)

	// entry (param+cond), rhs block, join block, at minimum.
	assert.GreaterOrEqual(t, len(fn.Blocks()), 3)

	phiFound := false
	for _, b := range fn.Blocks() {
		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				if o.Kind() == ir.OpPhi {
					phiFound = true
					assert.Len(t, o.PhiEntries, 2)
				}
			}
		}
	}
	assert.True(t, phiFound, "short-circuit && must join through a phi")
}

// TestTernaryReusesThenElseBlocks verifies `c ? a : b` lowers to
// then/else/join blocks with a phi over the two branch values.
func TestTernaryReusesThenElseBlocks(t *testing.T) {
	cTy := intTy()
	funcTy := &types.Func{Ret: types.I32T(true), Params: []types.Type{types.I32T(true), types.I32T(true), types.I32T(true)}}
	def := &tree.FunctionDef{
		Name: "pick",
		Ty:   &tree.VarTy{Kind: tree.TyFunc, Ret: cTy, Params: []*tree.VarTy{cTy, cTy, cTy}},
		Params: []tree.Var{
			{Identifier: "c", Scope: tree.ScopeParams, Ty: cTy},
			{Identifier: "a", Scope: tree.ScopeParams, Ty: cTy},
			{Identifier: "b", Scope: tree.ScopeParams, Ty: cTy},
		},
		Body: &tree.Stmt{Kind: tree.StmtCompound, Compound: []*tree.Stmt{
			{Kind: tree.StmtReturn, Expr: &tree.Expr{
				Kind: tree.ExprTernary, Ty: cTy,
				Lhs:   varExpr("c", tree.ScopeParams, cTy),
				Rhs:   varExpr("a", tree.ScopeParams, cTy),
				Third: varExpr("b", tree.ScopeParams, cTy),
			}},
		}},
	}

	fn := buildOneFunc(t, def, funcTy)

	condBlockFound := false
	for _, b := range fn.Blocks() {
		if b.Term() == ir.TermBrCond {
			condBlockFound = true
		}
	}
	assert.True(t, condBlockFound, "ternary must branch on the condition")

	phiFound := false
	for _, b := range fn.Blocks() {
		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				if o.Kind() == ir.OpPhi {
					phiFound = true
				}
			}
		}
	}
	assert.True(t, phiFound, "ternary result must join through a phi")
}
