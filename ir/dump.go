package ir

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// String renders the unit as human-readable text, used for debugging and
// for the round-trip/idempotence testable property (§8). Globals are
// dumped in creation order; blocks, predecessor lists and phi entries
// are sorted by block id, and op/block ids are printed as assigned (no
// renumbering).
func (u *Unit) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; target %s\n", u.Target.Name)
	for _, g := range u.globals {
		dumpGlobal(&b, g)
	}
	return b.String()
}

func dumpGlobal(b *strings.Builder, g *Global) {
	fmt.Fprintf(b, "\n%s %s %s %s", g.linkage, g.defTy, g.tag, g.name)
	if g.tag == GlobalFunc {
		if g.fn == nil {
			fmt.Fprintf(b, " %s\n", g.ty.String())
			return
		}
		fmt.Fprintf(b, " %s {\n", g.ty.String())
		dumpFunction(b, g.fn)
		fmt.Fprintln(b, "}")
		return
	}
	fmt.Fprintf(b, " %s", g.ty.String())
	if g.varValue != nil {
		fmt.Fprintf(b, " = %s", dumpVarValue(g.varValue))
	}
	fmt.Fprintln(b)
}

func dumpFunction(b *strings.Builder, f *Function) {
	blocks := f.Blocks()
	slices.SortStableFunc(blocks, func(x, y *BasicBlock) int { return cmp.Compare(x.ID(), y.ID()) })
	for _, blk := range blocks {
		fmt.Fprintf(b, "  bb%d:", blk.ID())
		if len(blk.preds) > 0 {
			fmt.Fprint(b, " ; preds =")
			preds := append([]*BasicBlock(nil), blk.preds...)
			slices.SortFunc(preds, func(x, y *BasicBlock) int { return cmp.Compare(x.ID(), y.ID()) })
			for _, p := range preds {
				fmt.Fprintf(b, " bb%d", p.ID())
			}
		}
		fmt.Fprintln(b)
		for _, s := range blk.Statements() {
			for _, o := range s.Ops() {
				fmt.Fprintf(b, "    %s\n", dumpOp(o))
			}
		}
	}
}

func dumpOp(o *Op) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%%%d = %s", o.id, o.kind)
	if o.ty != nil {
		fmt.Fprintf(&b, " %s", o.ty.String())
	}
	switch o.kind {
	case OpCnst:
		fmt.Fprintf(&b, " %d", o.CnstInt)
	case OpAddrLcl:
		fmt.Fprintf(&b, " lcl%d", o.Lcl.ID)
	case OpAddrGlb:
		fmt.Fprintf(&b, " @%s", o.Glb.Name())
	case OpBr:
		fmt.Fprintf(&b, " bb%d", o.BrTarget.ID())
	case OpBrCond:
		fmt.Fprintf(&b, " %%%d, bb%d, bb%d", o.Cond.id, o.TrueTarget.ID(), o.FalseTarget.ID())
	case OpPhi:
		entries := append([]PhiEntry(nil), o.PhiEntries...)
		slices.SortFunc(entries, func(x, y PhiEntry) int { return cmp.Compare(x.Block.ID(), y.Block.ID()) })
		for i, e := range entries {
			if i > 0 {
				fmt.Fprint(&b, ",")
			}
			fmt.Fprintf(&b, " [bb%d: %%%d]", e.Block.ID(), e.Value.id)
		}
	default:
		for i, op := range o.Operands {
			if i > 0 {
				fmt.Fprint(&b, ",")
			}
			fmt.Fprintf(&b, " %%%d", op.id)
		}
	}
	return b.String()
}

func dumpVarValue(v *VarValue) string {
	switch v.Kind {
	case VarValZero:
		return "zeroinitializer"
	case VarValInt:
		return fmt.Sprintf("%d", v.Int)
	case VarValFloat:
		return fmt.Sprintf("%g", v.Float)
	case VarValStr:
		return fmt.Sprintf("%q", string(v.Str))
	case VarValAddr:
		if v.AddrOffset != 0 {
			return fmt.Sprintf("@%s+%d", v.AddrOf.Name(), v.AddrOffset)
		}
		return fmt.Sprintf("@%s", v.AddrOf.Name())
	case VarValAggregate:
		var b strings.Builder
		b.WriteString("{")
		for i, c := range v.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d: %s", c.Offset, dumpVarValue(c.Value))
		}
		b.WriteString("}")
		return b.String()
	default:
		return "?"
	}
}
