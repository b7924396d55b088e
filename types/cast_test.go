package types_test

import (
	"testing"

	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/types"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntWidening(t *testing.T) {
	td := target.Default64()
	assert.Equal(t, types.CastSExt, types.Classify(types.I16T(true), true, types.I32T(true), true, td))
	assert.Equal(t, types.CastZExt, types.Classify(types.I16T(false), false, types.I32T(false), false, td))
	assert.Equal(t, types.CastTrunc, types.Classify(types.I64T(true), true, types.I8T(true), true, td))
	assert.Equal(t, types.CastNone, types.Classify(types.I32T(true), true, types.I32T(false), false, td))
}

func TestClassifyCompareNonzero(t *testing.T) {
	td := target.Default64()
	assert.Equal(t, types.CastCompareNonzero, types.Classify(types.I32T(true), true, types.I1T(), false, td))
	assert.Equal(t, types.CastCompareNonzero, types.Classify(types.F64T(), false, types.I1T(), false, td))
}

func TestClassifyFloatConversions(t *testing.T) {
	td := target.Default64()
	assert.Equal(t, types.CastConv, types.Classify(types.F32T(), false, types.F64T(), false, td))
	assert.Equal(t, types.CastNone, types.Classify(types.F64T(), false, types.F64T(), false, td))
	assert.Equal(t, types.CastSConv, types.Classify(types.I32T(true), true, types.F64T(), false, td))
	assert.Equal(t, types.CastUConv, types.Classify(types.I32T(false), false, types.F64T(), false, td))
	assert.Equal(t, types.CastSConv, types.Classify(types.F64T(), false, types.I32T(true), true, td))
	assert.Equal(t, types.CastUConv, types.Classify(types.F64T(), false, types.I32T(false), false, td))
}

func TestClassifyPointerNoop(t *testing.T) {
	td := target.Default64()
	assert.Equal(t, types.CastNone, types.Classify(types.PtrT(), false, types.PtrT(), false, td))
	assert.Equal(t, types.CastNone, types.Classify(types.PtrT(), false, types.I64T(false), false, td))
	assert.Equal(t, types.CastNone, types.Classify(types.I64T(false), false, types.PtrT(), false, td))
}
