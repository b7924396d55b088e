// Package ir implements the IR data model of §3: units, globals,
// functions, basic blocks, statements and ops. Build-phase mutation is
// confined to the build package; this package only owns the shapes and
// the invariant-preserving mutators (block linking, statement/op
// insertion) that those builders call.
package ir

import (
	"fmt"
	"sort"

	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/types"
)

// Unit is the top-level IR container: an ordered list of globals plus the
// target descriptor every size/ABI decision was made against (§3). There
// is no arena field — per SPEC_FULL.md §3/§9, the arena is an explicitly
// excluded collaborator and Go's GC is the natural replacement; nodes are
// simply referenced from their owning slices/maps and live exactly as
// long as the Unit (or, during a function build, the Function) does.
type Unit struct {
	Target *target.Descriptor

	globals    []*Global
	globalsIdx map[string]*Global

	strCounter int
}

// NewUnit creates an empty unit targeting td.
func NewUnit(td *target.Descriptor) *Unit {
	return &Unit{Target: td, globalsIdx: make(map[string]*Global)}
}

// Globals returns the unit's globals in creation order.
func (u *Unit) Globals() []*Global { return u.globals }

// FindGlobal looks up an already-created global by name.
func (u *Unit) FindGlobal(name string) (*Global, bool) {
	g, ok := u.globalsIdx[name]
	return g, ok
}

// GetOrCreateGlobal implements the "globals are created lazily on first
// use" lifecycle rule (§3): if name is already known, it is returned
// unmodified (callers reconcile def_ty/linkage themselves, per §4.6);
// otherwise a fresh UNDEFINED, NONE-linkage global is appended.
func (u *Unit) GetOrCreateGlobal(name string, tag GlobalTag, ty types.Type) *Global {
	if g, ok := u.globalsIdx[name]; ok {
		return g
	}
	g := &Global{
		tag:    tag,
		name:   name,
		ty:     ty,
		defTy:  Undefined,
		linkage: LinkageNone,
	}
	u.globals = append(u.globals, g)
	u.globalsIdx[name] = g
	return g
}

// PromoteTentative implements the tentative-promotion testable property
// (§8): after the translation unit is processed, every global still
// TENTATIVE becomes DEFINED with a zero value.
func (u *Unit) PromoteTentative() {
	for _, g := range u.globals {
		if g.defTy == Tentative {
			g.defTy = Defined
			if g.tag == GlobalData && g.varValue == nil {
				g.varValue = &VarValue{Kind: VarValZero, Ty: g.ty}
			}
		}
	}
}

// FreshStringName mints a unique internal-linkage symbol name for a
// string literal that must live as its own global rather than be
// inlined into an aggregate's VarValue tree (§6).
func (u *Unit) FreshStringName() string {
	u.strCounter++
	return fmt.Sprintf(".str.%d", u.strCounter)
}

// SortGlobalsByName reorders the globals list deterministically. Nothing
// in building or in String calls it: declaration order is otherwise
// preserved, matching the source translation unit.
func (u *Unit) SortGlobalsByName() {
	sort.SliceStable(u.globals, func(i, j int) bool {
		return u.globals[i].name < u.globals[j].name
	})
}

// GlobalTag discriminates a Global's payload (§3).
type GlobalTag int

const (
	GlobalFunc GlobalTag = iota
	GlobalData
)

func (t GlobalTag) String() string {
	if t == GlobalFunc {
		return "func"
	}
	return "data"
}

// DefStatus is a Global's definition status, which only ever moves
// forward: UNDEFINED -> TENTATIVE -> DEFINED (§3).
type DefStatus int

const (
	Undefined DefStatus = iota
	Tentative
	Defined
)

func (s DefStatus) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Tentative:
		return "tentative"
	case Defined:
		return "defined"
	default:
		return "?"
	}
}

// Linkage is a Global's linkage (§3, §4.6).
type Linkage int

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
)

func (l Linkage) String() string {
	switch l {
	case LinkageNone:
		return "none"
	case LinkageInternal:
		return "internal"
	case LinkageExternal:
		return "external"
	default:
		return "?"
	}
}

// GlobalFlag is a bitmask of optional Global flags.
type GlobalFlag uint8

const (
	GlobalFlagWeak GlobalFlag = 1 << iota
)

// Global is a top-level symbol: a function or a data object (§3).
type Global struct {
	tag     GlobalTag
	name    string
	ty      types.Type
	defTy   DefStatus
	linkage Linkage
	flags   GlobalFlag

	fn       *Function // non-nil iff tag == GlobalFunc and defTy != Undefined
	varValue *VarValue // non-nil iff tag == GlobalData and defTy == Defined
}

func (g *Global) Tag() GlobalTag        { return g.tag }
func (g *Global) Name() string          { return g.name }
func (g *Global) Type() types.Type      { return g.ty }
func (g *Global) DefStatus() DefStatus  { return g.defTy }
func (g *Global) Linkage() Linkage      { return g.linkage }
func (g *Global) Flags() GlobalFlag     { return g.flags }
func (g *Global) Function() *Function   { return g.fn }
func (g *Global) VarValue() *VarValue   { return g.varValue }
func (g *Global) IsWeak() bool          { return g.flags&GlobalFlagWeak != 0 }

// SetLinkage/SetDefStatus/SetFlags/SetFunction/SetVarValue are the
// mutators UnitBuilder uses while reconciling a global across multiple
// declarations (§4.6). Per §5, globals remain mutable until the
// translation-unit build completes.
func (g *Global) SetLinkage(l Linkage)       { g.linkage = l }
func (g *Global) SetDefStatus(d DefStatus)   { g.defTy = d }
func (g *Global) AddFlag(f GlobalFlag)       { g.flags |= f }
func (g *Global) SetFunction(fn *Function) {
	g.fn = fn
	g.tag = GlobalFunc
}
func (g *Global) SetVarValue(v *VarValue) {
	g.varValue = v
	g.tag = GlobalData
}
func (g *Global) SetType(ty types.Type) { g.ty = ty }

// SetName overrides a global's emitted symbol name without disturbing
// its identity in the unit's lookup table (UnitBuilder keys that table
// by the source identifier; SetName is used to apply the file-scope
// `static` mangling from §4.6 on top of that identity once it is known).
func (g *Global) SetName(name string) { g.name = name }
