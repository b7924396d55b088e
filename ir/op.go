package ir

import "github.com/arc-language/core-builder/types"

// OpKind enumerates the op kinds of §3.
type OpKind int

const (
	OpCnst OpKind = iota
	OpUndf

	// Arithmetic — separate signed/unsigned/float variants per §3.
	OpAdd
	OpFAdd
	OpSub
	OpFSub
	OpMul
	OpFMul
	OpSDiv
	OpUDiv
	OpFDiv
	OpSMod
	OpUMod
	OpShl
	OpSShr
	OpUShr
	OpAnd
	OpOr
	OpXor
	OpNeg
	OpFNeg
	OpNot
	OpLogicalNot

	// Comparisons — signed/unsigned/float variants.
	OpEqI
	OpNeI
	OpEqF
	OpNeF
	OpSLt
	OpULt
	OpFLt
	OpSLe
	OpULe
	OpFLe
	OpSGt
	OpUGt
	OpFGt
	OpSGe
	OpUGe
	OpFGe

	// Casts.
	OpTrunc
	OpZExt
	OpSExt
	OpFConv
	OpSConv // int(signed) <-> float, direction given by the operand/result types
	OpUConv // int(unsigned) <-> float, direction given by the operand/result types

	// Memory.
	OpLoad
	OpStore
	OpLoadBitfield
	OpStoreBitfield

	// Address formation.
	OpAddrLcl
	OpAddrGlb
	OpAddrOffset

	// Control.
	OpBr
	OpBrCond
	OpBrSwitch
	OpRet

	// Calls.
	OpCall

	// Parameter materialisation placeholder.
	OpMov

	// Bulk memory / builtins.
	OpMemSet
	OpMemCopy
	OpMemMove
	OpMemCmp
	OpPopcnt
	OpClz
	OpCtz
	OpRev
	OpFAbs
	OpFSqrt
	OpUnreachable

	OpVaStart
	OpVaArg
	OpVaCopy

	OpPhi
)

var opKindNames = map[OpKind]string{
	OpCnst: "cnst", OpUndf: "undf",
	OpAdd: "add", OpFAdd: "fadd", OpSub: "sub", OpFSub: "fsub",
	OpMul: "mul", OpFMul: "fmul", OpSDiv: "sdiv", OpUDiv: "udiv", OpFDiv: "fdiv",
	OpSMod: "smod", OpUMod: "umod", OpShl: "shl", OpSShr: "sshr", OpUShr: "ushr",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNeg: "neg", OpFNeg: "fneg",
	OpNot: "not", OpLogicalNot: "lnot",
	OpEqI: "eq", OpNeI: "ne", OpEqF: "feq", OpNeF: "fne",
	OpSLt: "slt", OpULt: "ult", OpFLt: "flt", OpSLe: "sle", OpULe: "ule", OpFLe: "fle",
	OpSGt: "sgt", OpUGt: "ugt", OpFGt: "fgt", OpSGe: "sge", OpUGe: "uge", OpFGe: "fge",
	OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext", OpFConv: "fconv",
	OpSConv: "sconv", OpUConv: "uconv",
	OpLoad: "load", OpStore: "store", OpLoadBitfield: "load_bf", OpStoreBitfield: "store_bf",
	OpAddrLcl: "addr_lcl", OpAddrGlb: "addr_glb", OpAddrOffset: "addr_offset",
	OpBr: "br", OpBrCond: "br_cond", OpBrSwitch: "br_switch", OpRet: "ret",
	OpCall: "call", OpMov: "mov",
	OpMemSet: "mem_set", OpMemCopy: "mem_copy", OpMemMove: "mem_move", OpMemCmp: "mem_cmp",
	OpPopcnt: "popcnt", OpClz: "clz", OpCtz: "ctz", OpRev: "rev",
	OpFAbs: "fabs", OpFSqrt: "fsqrt", OpUnreachable: "unreachable",
	OpVaStart: "va_start", OpVaArg: "va_arg", OpVaCopy: "va_copy",
	OpPhi: "phi",
}

func (k OpKind) String() string {
	if n, ok := opKindNames[k]; ok {
		return n
	}
	return "?"
}

// OpFlag is a bitmask of optional per-op flags (§3).
type OpFlag uint8

const (
	OpFlagParam OpFlag = 1 << iota
	OpFlagSpilled
	OpFlagVariadicParam
)

// BitfieldOperand carries the {offset, width} pair for LOAD_BITFIELD /
// STORE_BITFIELD (§3).
type BitfieldOperand struct {
	Offset uint8
	Width  uint8
}

// PhiEntry is one (predecessor block, incoming value) pair of a PHI op
// (§3).
type PhiEntry struct {
	Block *BasicBlock
	Value *Op
}

// SwitchTarget pairs a constant with a target block, mirroring
// SwitchCase but attached directly to a BR_SWITCH op's operand list so
// the op is self-describing independent of the owning block.
type SwitchTarget = SwitchCase

// Op is a single IR instruction: a tagged kind, kind-specific operands
// (stored by reference to other ops / blocks / locals / globals), a
// result type, its owning statement, a unique id, and flag bits (§3).
type Op struct {
	id   int
	kind OpKind
	ty   types.Type
	stmt *Statement
	prev, next *Op
	Flags OpFlag

	// Operand slots. Only the ones relevant to Kind are populated; this
	// mirrors the source's tagged-union op but as plain fields, which is
	// both simpler and faster than a Go interface-per-kind hierarchy
	// while keeping each accessor meaningful for its kind.
	Operands []*Op // generic positional operands (arithmetic, casts, call args, etc.)

	CnstInt   uint64 // OpCnst (integer types): unsigned 64-bit value (§6)
	CnstFloat float64 // OpCnst (float types): long-double-magnitude value, narrowed to F64 (§6, §9)
	CnstStr   []byte  // OpCnst (pointer-to-string constants, when used directly as an operand)

	Lcl *Local  // OpAddrLcl, OpLoad/OpStore local-addressed form
	Glb *Global // OpAddrGlb, OpLoad/OpStore global-addressed form, OpCall callee-by-address

	// ADDR_OFFSET operands: base, optional scaled index, optional
	// constant offset (§3).
	Base           *Op
	Index          *Op
	Scale          int64
	ConstOffset    int64

	Bitfield *BitfieldOperand // OpLoadBitfield/OpStoreBitfield

	// Control operands.
	Cond         *Op
	BrTarget     *BasicBlock // OpBr
	TrueTarget   *BasicBlock // OpBrCond
	FalseTarget  *BasicBlock // OpBrCond
	SwitchVal    *Op          // OpBrSwitch
	SwitchCases  []SwitchTarget
	DefaultTarget *BasicBlock // OpBrSwitch

	// Pending goto target name, resolved by FuncBuilder at end of
	// function (§4.3 "Labels and goto").
	PendingLabel string

	// OpCall: FuncTy records the full function type (§4.2); Callee is
	// the callee op when it is a value (function pointer), mutually
	// exclusive with Glb.
	FuncTy *types.Func
	Callee *Op

	// OpPhi.
	PhiEntries []PhiEntry
	// PendingVar is non-nil while this phi is still a placeholder
	// awaiting SSA completion (§9) — the identifier/scope it stands for.
	PendingVar any

	// OpVaArg: the address of the va_list lvalue.
	VaListAddr *Op
}

func (o *Op) ID() int             { return o.id }
func (o *Op) Kind() OpKind        { return o.kind }
func (o *Op) Type() types.Type    { return o.ty }
func (o *Op) Stmt() *Statement    { return o.stmt }
func (o *Op) Block() *BasicBlock  { return o.stmt.block }
func (o *Op) SetType(t types.Type) { o.ty = t }

// IsTerminator reports whether this op is one of the four terminator
// kinds (§3).
func (o *Op) IsTerminator() bool {
	switch o.kind {
	case OpBr, OpBrCond, OpBrSwitch, OpRet:
		return true
	default:
		return false
	}
}
