package build

import (
	"github.com/arc-language/core-builder/ibug"
	"github.com/arc-language/core-builder/ir"
	"github.com/arc-language/core-builder/target"
	"github.com/arc-language/core-builder/tree"
	"github.com/arc-language/core-builder/types"
)

// BuildUnit implements §4.6 end to end: it walks every external
// declaration of tu in order, reconciling each declarator's global
// (linkage, def status), building function bodies as their definitions
// are reached, and finally promoting leftover TENTATIVE globals to
// DEFINED-with-zero-value.
func BuildUnit(td *target.Descriptor, tu *tree.TranslationUnit, flags Flags) *ir.Unit {
	unit := ir.NewUnit(td)
	global := newGlobalVarRefs()

	for _, decl := range tu.Decls {
		for _, d := range decl.Declarators {
			if d.Storage == tree.StorageTypedef {
				continue
			}
			buildExternalDeclarator(unit, global, td, d, flags)
		}
	}

	unit.PromoteTentative()
	return unit
}

// buildExternalDeclarator reconciles one file-scope declarator's global
// and, for a function definition, builds its body (§4.6).
func buildExternalDeclarator(unit *ir.Unit, global *globalVarRefs, td *target.Descriptor, d *tree.Declarator, flags Flags) {
	name := d.Var.Identifier
	ty := LowerType(td, d.Var.Ty, LowerNormal)

	// Every declarator of the same source identifier must resolve to one
	// Global, regardless of which one happens to be `static` and which
	// `extern` (§4.6's "extern following a static preserves INTERNAL"
	// rule only makes sense if they share an identity) — so the unit's
	// global table is keyed by the plain identifier. File-scope `static`
	// additionally mangles the *emitted* name to ".name" (§4.6, §2.3 of
	// SPEC_FULL.md) via SetName, independent of that lookup key.
	tag := ir.GlobalData
	if d.IsFunc {
		tag = ir.GlobalFunc
	}
	glb := unit.GetOrCreateGlobal(name, tag, ty)

	linkage := externalLinkage(d)
	// An `extern` declarator following an earlier `static` definition of
	// the same name keeps the INTERNAL linkage already recorded — §4.6's
	// "preserves INTERNAL linkage" rule. Every other declarator sets the
	// linkage it computes, replacing whatever was recorded before.
	if !(d.Storage == tree.StorageExtern && glb.Linkage() == ir.LinkageInternal) {
		glb.SetLinkage(linkage)
	}
	if linkage == ir.LinkageInternal && glb.Name() == name {
		glb.SetName("." + name)
	}

	if d.IsFunc {
		global.declare(name, tree.ScopeGlobal, declInfo{kind: declGlobal, glb: glb})
		if d.FuncBody != nil {
			funcTy, ok := ty.(*types.Func)
			ibug.Assertf(ok, "function definition %q lowered to a non-function type", name)
			fn := BuildFunction(unit, global, td, d.FuncBody, funcTy, flags)
			glb.SetFunction(fn)
			glb.SetDefStatus(ir.Defined)
		}
		return
	}

	switch {
	case d.Init != nil:
		glb.SetVarValue(buildGlobalInit(unit, td, ty, d.Init))
		glb.SetDefStatus(ir.Defined)
	case glb.DefStatus() == ir.Defined:
		// Already defined by an earlier declarator of the same name;
		// a later tentative/extern redeclaration does not regress it.
	case d.Storage == tree.StorageNone || d.Storage == tree.StorageStatic:
		if glb.DefStatus() != ir.Tentative {
			glb.SetDefStatus(ir.Tentative)
		}
	default:
		// `extern` with no initialiser stays UNDEFINED until either
		// defined in this unit or resolved by the linker.
	}

	global.declare(name, tree.ScopeGlobal, declInfo{kind: declGlobal, glb: glb})
}

// externalLinkage implements §4.6's linkage table for a file-scope
// declarator.
func externalLinkage(d *tree.Declarator) ir.Linkage {
	switch {
	case d.IsFunc:
		if d.Storage == tree.StorageStatic {
			return ir.LinkageInternal
		}
		if d.Storage == tree.StorageExtern {
			return ir.LinkageExternal
		}
		if d.Inline {
			// A plain (non-extern, non-static) `inline` function only
			// supplies an inline definition, not a guaranteed external
			// one — distinct from the "Function (non-static,
			// non-inline): EXTERNAL" case.
			return ir.LinkageNone
		}
		return ir.LinkageExternal
	case d.Storage == tree.StorageExtern:
		return ir.LinkageExternal
	case d.Storage == tree.StorageStatic:
		return ir.LinkageInternal
	case d.Storage == tree.StorageNone:
		return ir.LinkageExternal
	default:
		return ir.LinkageNone
	}
}
