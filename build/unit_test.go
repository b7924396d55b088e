package build

import (
	"testing"

	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intVarTy() *tree.VarTy {
	return &tree.VarTy{Kind: tree.TyWellKnown, WellKnown: tree.Int}
}

func intDeclarator(name string, storage tree.StorageClass, init tree.Init) *tree.Declarator {
	return &tree.Declarator{
		Var:     tree.Var{Identifier: name, Scope: tree.ScopeGlobal, Ty: intVarTy()},
		Storage: storage,
		Init:    init,
	}
}

func constInit(v uint64) tree.Init {
	return &tree.InitExpr{Expr: &tree.Expr{Kind: tree.ExprCnstInt, IntVal: v, Ty: intVarTy()}}
}

func TestBuildUnitExternalObjectIsExternal(t *testing.T) {
	tu := &tree.TranslationUnit{Decls: []*tree.Declaration{
		{Declarators: []*tree.Declarator{intDeclarator("counter", tree.StorageNone, nil)}},
	}}
	unit := BuildUnit(target.Default64(), tu, Flags{})

	glb, ok := unit.FindGlobal("counter")
	require.True(t, ok)
	assert.Equal(t, ir.LinkageExternal, glb.Linkage())
	assert.Equal(t, ir.Defined, glb.DefStatus()) // promoted tentative -> defined
}

func TestBuildUnitFileScopeStaticIsInternalAndMangled(t *testing.T) {
	tu := &tree.TranslationUnit{Decls: []*tree.Declaration{
		{Declarators: []*tree.Declarator{intDeclarator("hidden", tree.StorageStatic, constInit(7))}},
	}}
	unit := BuildUnit(target.Default64(), tu, Flags{})

	glb, ok := unit.FindGlobal("hidden")
	require.True(t, ok)
	assert.Equal(t, ir.LinkageInternal, glb.Linkage())
	assert.Equal(t, ".hidden", glb.Name())
	assert.Equal(t, ir.Defined, glb.DefStatus())
	require.NotNil(t, glb.VarValue())
	assert.Equal(t, uint64(7), glb.VarValue().Int)
}

func TestBuildUnitTentativeWithoutInitPromotesToZero(t *testing.T) {
	tu := &tree.TranslationUnit{Decls: []*tree.Declaration{
		{Declarators: []*tree.Declarator{intDeclarator("g", tree.StorageNone, nil)}},
	}}
	unit := BuildUnit(target.Default64(), tu, Flags{})

	glb, ok := unit.FindGlobal("g")
	require.True(t, ok)
	assert.Equal(t, ir.Defined, glb.DefStatus())
	require.NotNil(t, glb.VarValue())
	assert.Equal(t, ir.VarValZero, glb.VarValue().Kind)
}

func TestBuildUnitExternAfterStaticPreservesInternalLinkage(t *testing.T) {
	tu := &tree.TranslationUnit{Decls: []*tree.Declaration{
		{Declarators: []*tree.Declarator{intDeclarator("hidden", tree.StorageStatic, constInit(1))}},
		{Declarators: []*tree.Declarator{intDeclarator("hidden", tree.StorageExtern, nil)}},
	}}
	unit := BuildUnit(target.Default64(), tu, Flags{})

	glb, ok := unit.FindGlobal("hidden")
	require.True(t, ok)
	assert.Equal(t, ir.LinkageInternal, glb.Linkage())
}
