package build

import "github.com/arc-language/core-builder/tree"

// scanAddressTaken walks a function body collecting every identifier
// that appears as the operand of `&` somewhere in it (§9: a variable
// whose address escapes must be realised as a stack local, never pure
// SSA, since a pointer to an SSA value has no stable address to hand
// out). Keyed by identifier alone rather than (identifier, scope): the
// typed tree is expected to have already alpha-renamed shadowed
// declarations to distinct identifiers, so this is a conservative but
// correct approximation.
func scanAddressTaken(body *tree.Stmt) map[string]bool {
	taken := make(map[string]bool)
	walkStmt(body, func(e *tree.Expr) {
		if e.Kind == tree.ExprAddressof && e.Lhs.Kind == tree.ExprVar {
			taken[e.Lhs.Var.Identifier] = true
		}
		// Taking &arr[i] or &s.field ultimately bottoms out at a
		// variable reference reached through the same Lhs chain, which
		// walkExpr already visits independently of the address-of case
		// above; no separate handling is needed since arrays/aggregates
		// are always local-realised regardless of this map.
	})
	return taken
}

// walkStmt/walkExpr visit every sub-expression of s, invoking visit on
// each. Declarations' initialisers and every statement field that can
// hold an expression or nested statement are covered.
func walkStmt(s *tree.Stmt, visit func(*tree.Expr)) {
	if s == nil {
		return
	}
	switch s.Kind {
	case tree.StmtCompound:
		for _, sub := range s.Compound {
			walkStmt(sub, visit)
		}
	case tree.StmtDeclaration:
		for _, d := range s.Decl.Declarators {
			walkInit(d.Init, visit)
		}
	}
	walkExpr(s.Expr, visit)
	walkExpr(s.Cond, visit)
	walkStmt(s.Then, visit)
	walkStmt(s.Else, visit)
	walkStmt(s.Body, visit)
	walkStmt(s.ForInit, visit)
	walkExpr(s.ForIter, visit)
	walkStmt(s.Defer, visit)
}

func walkInit(init tree.Init, visit func(*tree.Expr)) {
	switch v := init.(type) {
	case nil:
	case *tree.InitExpr:
		walkExpr(v.Expr, visit)
	case *tree.InitList:
		for _, elem := range v.Elems {
			walkInit(elem.Value, visit)
		}
	}
}

func walkExpr(e *tree.Expr, visit func(*tree.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	walkExpr(e.Lhs, visit)
	walkExpr(e.Rhs, visit)
	walkExpr(e.Third, visit)
	for _, c := range e.Comma {
		walkExpr(c, visit)
	}
	walkExpr(e.Callee, visit)
	for _, a := range e.Args {
		walkExpr(a, visit)
	}
	walkExpr(e.Index, visit)
	walkInit(e.CompoundLiteralInit, visit)
	walkStmt(e.StmtExprBody, visit)
}
