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

func intExpr(v uint64) *tree.Expr {
	return &tree.Expr{Kind: tree.ExprCnstInt, IntVal: v}
}

func positional(v uint64) *tree.InitElem {
	return &tree.InitElem{Value: &tree.InitExpr{Expr: intExpr(v)}}
}

func designatedIndex(idx int64, v uint64) *tree.InitElem {
	return &tree.InitElem{
		Designator: &tree.Designator{Kind: tree.DesignatorIndex, Index: idx},
		Value:      &tree.InitExpr{Expr: intExpr(v)},
	}
}

func designatedField(name string, v uint64) *tree.InitElem {
	return &tree.InitElem{
		Designator: &tree.Designator{Kind: tree.DesignatorField, Field: name},
		Value:      &tree.InitExpr{Expr: intExpr(v)},
	}
}

func TestFlattenArrayListPositionalResumesAfterDesignator(t *testing.T) {
	td := target.Default64()
	arr := &types.Array{Elem: types.I32T(true), Length: 5}
	list := &tree.InitList{Elems: []*tree.InitElem{
		positional(1),
		designatedIndex(3, 30),
		positional(4), // resumes at index 4, not 2
	}}

	entries := flattenArrayList(nil, arr, list, 0, td)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(0), entries[0].offset)
	assert.Equal(t, uint64(1), entries[0].expr.IntVal)
	assert.Equal(t, int64(12), entries[1].offset) // idx 3 * 4 bytes
	assert.Equal(t, uint64(30), entries[1].expr.IntVal)
	assert.Equal(t, int64(16), entries[2].offset) // idx 4 * 4 bytes
	assert.Equal(t, uint64(4), entries[2].expr.IntVal)
}

func TestFlattenStructListDesignatedField(t *testing.T) {
	td := target.Default64()
	st := &types.Struct{Tag: "point", Fields: []types.Field{
		{Name: "x", Type: types.I32T(true)},
		{Name: "y", Type: types.I32T(true)},
		{Name: "z", Type: types.I32T(true)},
	}}
	list := &tree.InitList{Elems: []*tree.InitElem{
		designatedField("y", 7),
		positional(9), // resumes at z, following y
	}}

	entries := flattenStructList(nil, st, list, 0, td)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].offset) // y's offset
	assert.Equal(t, uint64(7), entries[0].expr.IntVal)
	assert.Equal(t, int64(8), entries[1].offset) // z's offset
	assert.Equal(t, uint64(9), entries[1].expr.IntVal)
}

func TestFlattenStructListWithBitfieldDesignator(t *testing.T) {
	td := target.Default64()
	st := &types.Struct{Tag: "flags", Fields: []types.Field{
		{Name: "enabled", Type: types.I32T(false), Bitfield: &types.BitfieldInfo{Offset: 0, Width: 1}},
		{Name: "mode", Type: types.I32T(false), Bitfield: &types.BitfieldInfo{Offset: 1, Width: 3}},
	}}
	list := &tree.InitList{Elems: []*tree.InitElem{
		designatedField("mode", 5),
	}}

	entries := flattenStructList(nil, st, list, 0, td)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].bitfield)
	assert.Equal(t, uint8(1), entries[0].bitfield.Offset)
	assert.Equal(t, uint8(3), entries[0].bitfield.Width)
	assert.Equal(t, uint64(5), entries[0].expr.IntVal)
}

func TestDescendDesignatorChainThroughNestedStruct(t *testing.T) {
	td := target.Default64()
	inner := &types.Struct{Tag: "inner", Fields: []types.Field{
		{Name: "a", Type: types.I32T(true)},
		{Name: "enabled", Type: types.I32T(false), Bitfield: &types.BitfieldInfo{Offset: 0, Width: 1}},
	}}
	outer := &types.Struct{Tag: "outer", Fields: []types.Field{
		{Name: "flags", Type: inner},
	}}
	// `.flags.enabled = 1`
	d := &tree.Designator{
		Kind:  tree.DesignatorField,
		Field: "flags",
		Next:  &tree.Designator{Kind: tree.DesignatorField, Field: "enabled"},
	}
	list := &tree.InitList{Elems: []*tree.InitElem{
		{Designator: d, Value: &tree.InitExpr{Expr: intExpr(1)}},
	}}

	entries := flattenStructList(nil, outer, list, 0, td)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].bitfield)
	assert.Equal(t, uint8(1), entries[0].bitfield.Width)
}

func TestBuildGlobalInitScalarZeroWhenNoInitializer(t *testing.T) {
	unit := ir.NewUnit(target.Default64())
	v := buildGlobalInit(unit, target.Default64(), types.I32T(true), nil)
	assert.Equal(t, ir.VarValZero, v.Kind)
}

func TestBuildGlobalInitAggregateSortedByOffset(t *testing.T) {
	td := target.Default64()
	unit := ir.NewUnit(td)
	st := &types.Struct{Tag: "pair", Fields: []types.Field{
		{Name: "a", Type: types.I32T(true)},
		{Name: "b", Type: types.I32T(true)},
	}}
	list := &tree.InitList{Elems: []*tree.InitElem{
		designatedField("b", 2),
		designatedField("a", 1), // designators go back to an earlier field
	}}
	v := buildGlobalInit(unit, td, st, list)
	require.Len(t, v.Children, 2)
	assert.Equal(t, int64(0), v.Children[0].Offset)
	assert.Equal(t, uint64(1), v.Children[0].Value.Int)
	assert.Equal(t, int64(4), v.Children[1].Offset)
	assert.Equal(t, uint64(2), v.Children[1].Value.Int)
}
