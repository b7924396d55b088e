package ir

import "github.com/arc-language/core-builder/types"

// VarValueKind discriminates the leaves/branches of a global's constant
// initialiser tree (§4.4).
type VarValueKind int

const (
	VarValZero VarValueKind = iota
	VarValInt
	VarValFloat
	VarValStr
	// VarValAddr is a relocatable address of another global plus a
	// constant byte offset (§4.4: "relocatable addresses of other
	// globals with a constant offset").
	VarValAddr
	// VarValAggregate is a nested struct/array/union value built from
	// child VarValues, each already placed at its flattened byte offset
	// within the parent (mirrors InitBuilder's flattened entry list).
	VarValAggregate
)

// VarValue is one node of a global's compile-time-constant initialiser
// tree (§3's "variable value", §4.4).
type VarValue struct {
	Kind VarValueKind
	Ty   types.Type

	Int   uint64
	Float float64
	Str   []byte
	Wide  bool

	AddrOf    *Global
	AddrOffset int64

	// Children holds, for VarValAggregate, each member's value paired
	// with its byte offset within this aggregate (InitBuilder already
	// resolved designators/nesting by the time this tree is built).
	Children []VarValueChild
}

// VarValueChild is one flattened member of an aggregate VarValue.
type VarValueChild struct {
	Offset int64
	Value  *VarValue
}

// StringGlobalKind distinguishes how a raw byte string is categorised
// for a global (§6): STRING_LITERAL for embedded-NUL-free strings used
// to initialise const char[], CONST_DATA otherwise.
type StringGlobalKind int

const (
	StringLiteral StringGlobalKind = iota
	ConstData
)

// ClassifyString implements §6's classification rule.
func ClassifyString(bytes []byte, usedAsCharArrayInit bool) StringGlobalKind {
	if !usedAsCharArrayInit {
		return ConstData
	}
	for _, b := range bytes {
		if b == 0 {
			return ConstData
		}
	}
	return StringLiteral
}
