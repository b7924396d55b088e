// Package tree defines the shapes of the typed syntax tree that the type
// checker (an excluded collaborator, §1) produces and that this core
// consumes. Nothing in this package performs type checking; it is purely
// the data contract described in §3/§6 of the design.
package tree

// WellKnown enumerates C's built-in scalar types.
type WellKnown int

const (
	Bool WellKnown = iota
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
)

// Signed reports whether the well-known integer type is signed. Float
// kinds return false but callers must not consult signedness for them.
func (w WellKnown) Signed() bool {
	switch w {
	case SChar, Short, Int, Long, LongLong, Char:
		return true
	default:
		return false
	}
}

func (w WellKnown) IsFloat() bool {
	return w == Float || w == Double || w == LongDouble
}

// VarTyKind discriminates the variants of VarTy.
type VarTyKind int

const (
	TyVoid VarTyKind = iota
	TyWellKnown
	TyVariadic
	TyPointer
	TyArray
	TyFunc
	TyStruct
	TyUnion
)

// VarTy is a typed-tree type. Exactly one of the kind-specific fields is
// meaningful, selected by Kind.
type VarTy struct {
	Kind VarTyKind

	WellKnown WellKnown // TyWellKnown

	Pointee *VarTy // TyPointer

	Of  *VarTy // TyArray
	Len int64  // TyArray; <0 means incomplete ("int a[]")

	Ret      *VarTy   // TyFunc
	Params   []*VarTy // TyFunc (may include a trailing TyVariadic marker)
	Variadic bool     // TyFunc

	Tag        string        // TyStruct/TyUnion
	Fields     []*FieldTy    // TyStruct/TyUnion
	Incomplete bool          // TyStruct/TyUnion: no Fields known yet
}

// FieldTy is one member of a struct/union type.
type FieldTy struct {
	Name     string
	Ty       *VarTy
	Bitwidth int // >0 for bitfields, 0 otherwise
}

// Scope identifies where an identifier's storage lives.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeParams
	ScopeBlock
)

// StorageClass is the declared storage-class specifier, if any.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
	StorageRegister
	StorageTypedef
)

// Var identifies a referenced variable/function by name plus the scope
// it was declared in; it is the key used to look up or create a var-ref
// (§4.6, §9).
type Var struct {
	Identifier string
	Scope      Scope
	Ty         *VarTy
}

// Declarator is one declared name within a Declaration.
type Declarator struct {
	Var       Var
	Storage   StorageClass
	Inline    bool
	Init      Init // nil if no initialiser
	IsFunc    bool
	FuncBody  *FunctionDef // non-nil only for a function *definition*
}

// Declaration is an external or block-scope declaration statement
// (possibly multiple declarators sharing a base type, e.g. `int a, b;`).
type Declaration struct {
	Declarators []*Declarator
}

// FunctionDef is a function definition: its declared type, parameter
// names (aligned with Ty.Params), and body.
type FunctionDef struct {
	Name   string
	Ty     *VarTy
	Params []Var
	Body   *Stmt
}

// TranslationUnit is the root of a typed-tree input: a sequence of
// top-level declarations (possibly function definitions).
type TranslationUnit struct {
	Decls []*Declaration
}

// --- Statements ---------------------------------------------------------

type StmtKind int

const (
	StmtCompound StmtKind = iota
	StmtDeclaration
	StmtExpr
	StmtIf
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtSwitch
	StmtCase
	StmtDefault
	StmtLabel
	StmtGoto
	StmtBreak
	StmtContinue
	StmtReturn
	StmtDefer
	StmtNull
)

// Stmt is a typed-tree statement. As with VarTy, exactly the fields
// relevant to Kind are populated.
type Stmt struct {
	Kind StmtKind

	Compound []*Stmt // StmtCompound

	Decl *Declaration // StmtDeclaration

	Expr *Expr // StmtExpr, StmtReturn (optional), StmtCase value

	Cond *Expr // StmtIf, StmtWhile, StmtDoWhile, StmtFor (optional), StmtSwitch
	Then *Stmt // StmtIf
	Else *Stmt // StmtIf (optional)

	Body *Stmt // StmtWhile, StmtDoWhile, StmtFor, StmtSwitch

	ForInit *Stmt // StmtFor (optional: declaration or expr-statement)
	ForIter *Expr // StmtFor (optional)

	Label string // StmtLabel, StmtGoto

	Defer *Stmt // StmtDefer: the deferred statement
}

// --- Expressions ---------------------------------------------------------

type ExprKind int

const (
	ExprVar ExprKind = iota
	ExprCnstInt
	ExprCnstFloat
	ExprCnstStr
	ExprUnary
	ExprBinary
	ExprAssg
	ExprCompoundAssg
	ExprTernary
	ExprComma
	ExprCall
	ExprAddressof
	ExprDeref
	ExprMember    // a.b
	ExprPtrMember // a->b
	ExprArrayAccess
	ExprCast
	ExprCompoundLiteral
	ExprSizeof
	ExprAlignof
	ExprVaArg
	ExprFuncName // __func__
	ExprBuiltin
	ExprStmt // GNU statement expression ({ ... })
	ExprIncDec
)

// UnaryOp / BinaryOp enumerate the source-level operators; the builder
// maps these (together with the already-resolved operand types) onto
// concrete IR opcodes (§4.2).
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryNeg
	UnaryNot    // ~
	UnaryLogNot // !
	UnaryDeref  // *x (also reachable via ExprDeref)
)

type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLogAnd
	BinLogOr
)

// IncDecOp distinguishes pre/post and increment/decrement.
type IncDecOp int

const (
	PreInc IncDecOp = iota
	PreDec
	PostInc
	PostDec
)

// Builtin enumerates the fixed name set of compiler intrinsics (§4.2).
type Builtin int

const (
	BuiltinPopcnt Builtin = iota
	BuiltinClz
	BuiltinCtz
	BuiltinRev
	BuiltinFabs
	BuiltinFsqrt
	BuiltinVaStart
	BuiltinVaCopy
	BuiltinMemcpy
	BuiltinMemmove
	BuiltinMemcmp
	BuiltinMemset
	BuiltinUnreachable
)

// Expr is a typed-tree expression node. Ty is the type the type checker
// already resolved for this expression (the core never infers types).
type Expr struct {
	Kind ExprKind
	Ty   *VarTy

	Var Var // ExprVar, ExprFuncName (identifier only)

	IntVal   uint64 // ExprCnstInt
	FloatVal float64
	StrVal   []byte // ExprCnstStr (raw bytes, no trailing NUL implied)
	Wide     bool   // ExprCnstStr: wide string (4-byte code units)

	UnOp  UnaryOp
	BinOp BinaryOp
	IncDec IncDecOp

	Lhs *Expr
	Rhs *Expr
	// Third is the else-arm of a ternary, or nil for the GNU `a ?: b`
	// two-operand form (in which case Lhs doubles as the reused
	// "true" value).
	Third *Expr

	// Comma holds the full operand list for ExprComma: `(a, b, c)`.
	Comma []*Expr

	// Callee/Args for ExprCall.
	Callee *Expr
	Args   []*Expr

	// Member for ExprMember/ExprPtrMember.
	MemberName string

	// Index for ExprArrayAccess.
	Index *Expr

	// CastTy for ExprCast (From is Lhs.Ty).
	CastTy *VarTy

	// CompoundLiteralInit for ExprCompoundLiteral.
	CompoundLiteralInit Init

	// OperandTy is set when sizeof/alignof operate on a
	// bare type name rather than an expression (Lhs is nil in that case).
	OperandTy *VarTy

	// BuiltinKind for ExprBuiltin; its arguments are in Args.
	BuiltinKind Builtin

	// StmtExprBody for GNU statement expressions.
	StmtExprBody *Stmt
}

// --- Initialisers ---------------------------------------------------------

// Init is an initialiser tree: either a single expression or a
// (possibly designated, possibly nested) brace-enclosed list.
type Init interface{ isInit() }

// InitExpr is a scalar (or whole-aggregate-by-expression, e.g. struct
// assignment) initialiser.
type InitExpr struct {
	Expr *Expr
}

func (*InitExpr) isInit() {}

// InitList is a brace-enclosed initialiser list, in source order.
type InitList struct {
	Elems []*InitElem
}

func (*InitList) isInit() {}

// InitElem is one element of an InitList, with an optional designator.
type InitElem struct {
	// Designator is nil for a plain positional element.
	Designator *Designator
	Value      Init
}

// DesignatorKind discriminates Designator.
type DesignatorKind int

const (
	DesignatorField DesignatorKind = iota
	DesignatorIndex
)

// Designator is one `.field` or `[index]` component; Next chains further
// designators for `.a.b[2]`-style nested designators.
type Designator struct {
	Kind  DesignatorKind
	Field string
	Index int64
	Next  *Designator
}
