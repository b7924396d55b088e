package build

import "github.com/arc-language/core-builder/ir"

// simplifyPhis implements §4.5 step 9: repeatedly rewrite trivial phis
// (every incoming value is either the phi itself or one single other
// value) to that other value and delete them, until a fixed point is
// reached. This is the standard minimal SSA-construction cleanup pass
// that Braun-et-al.-style builders run after completion, needed because
// §9's deferred worklist happily inserts a phi for every cross-block
// read even when the loop/branch turns out not to have actually
// redefined the variable.
func simplifyPhis(fn *ir.Function) {
	for {
		changed := false
		for _, b := range fn.Blocks() {
			for _, s := range b.Statements() {
				for _, o := range s.Ops() {
					if o.Kind() != ir.OpPhi {
						continue
					}
					if same, ok := trivialValue(o); ok {
						replaceAllUses(fn, o, same)
						ir.RemoveOp(o)
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

// trivialValue reports the single non-self incoming value of a phi, if
// every entry is either that value or the phi itself (a pure self-loop
// entry, possible after a back edge was wired before the loop body
// redefined the variable).
func trivialValue(phi *ir.Op) (*ir.Op, bool) {
	var unique *ir.Op
	for _, e := range phi.PhiEntries {
		if e.Value == phi {
			continue
		}
		if unique == nil {
			unique = e.Value
			continue
		}
		if unique != e.Value {
			return nil, false
		}
	}
	if unique == nil {
		return nil, false
	}
	return unique, true
}

// replaceAllUses rewrites every operand reference to old, anywhere in
// fn, to new. Needed by simplifyPhis since Op has no use-list (§3 keeps
// ops minimal); a structural scan is the straightforward alternative.
func replaceAllUses(fn *ir.Function, old, repl *ir.Op) {
	for _, b := range fn.Blocks() {
		for _, s := range b.Statements() {
			for _, o := range s.Ops() {
				if o == old {
					continue
				}
				for i, operand := range o.Operands {
					if operand == old {
						o.Operands[i] = repl
					}
				}
				if o.Base == old {
					o.Base = repl
				}
				if o.Index == old {
					o.Index = repl
				}
				if o.Cond == old {
					o.Cond = repl
				}
				if o.SwitchVal == old {
					o.SwitchVal = repl
				}
				if o.Callee == old {
					o.Callee = repl
				}
				if o.VaListAddr == old {
					o.VaListAddr = repl
				}
				for i, e := range o.PhiEntries {
					if e.Value == old {
						o.PhiEntries[i].Value = repl
					}
				}
			}
		}
	}
}
