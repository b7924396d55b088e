// Package ibug implements the error taxonomy from §7: internal invariant
// violations, typechecker-contract violations, and TODO markers for
// unimplemented corners. None of these are user-facing diagnostics — the
// typed tree is assumed well-formed, so any violation of that contract is
// a bug in this core or its caller, not a user error.
package ibug

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the three taxonomy buckets from §7.
type Kind int

const (
	// Bug marks an internal invariant violation: unreachable type
	// combinations, a producer/consumer IR type mismatch, a phi
	// inserted into the entry block, and similar "this cannot happen if
	// every earlier phase did its job" conditions.
	Bug Kind = iota
	// ContractViolation marks a typed-tree contract the type checker
	// should have already enforced: incomplete-aggregate use outside a
	// declaration, an unknown type, a Variadic sentinel found outside a
	// function-type parameter list.
	ContractViolation
	// Unimplemented marks a corner the core does not yet handle: wide
	// string globals, bitfield initialisers in globals, multi-object
	// linking on targets without linker support.
	Unimplemented
)

func (k Kind) String() string {
	switch k {
	case Bug:
		return "BUG"
	case ContractViolation:
		return "DEBUG_ASSERT"
	case Unimplemented:
		return "TODO"
	default:
		return "?"
	}
}

// Error is a halting condition raised by the core. It carries the
// taxonomy Kind plus whatever diagnostic context the caller had at hand
// (identifier, op kind, source span) so an implementer extending the
// core later has something to go on.
type Error struct {
	Kind    Kind
	Context string
	cause   error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.cause }

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...), cause: errors.New(fmt.Sprintf(format, args...))}
}

// Bugf panics with a Bug-kind error. Callers that hit an unreachable
// branch (a type combination the type checker should have ruled out, an
// IR type mismatch between an op and its consumer) call this instead of
// returning an error, because there is no sensible recovery — the IR
// being built is already inconsistent.
func Bugf(format string, args ...any) {
	panic(errors.WithStack(newf(Bug, format, args...)))
}

// Assertf panics with a ContractViolation-kind error, for conditions the
// type checker's contract (§6) was supposed to rule out: an incomplete
// aggregate reaching a context other than a declaration type, a Variadic
// sentinel appearing outside a function parameter list, an unknown
// well-known type.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.WithStack(newf(ContractViolation, format, args...)))
	}
}

// TODOf panics with an Unimplemented-kind error for a corner the core
// knows about but does not yet handle. Unlike Bugf/Assertf this is not a
// contract violation — it is a documented gap, surfaced loudly so an
// implementer extending the core finds it immediately rather than
// silently mis-lowering.
func TODOf(format string, args ...any) {
	panic(errors.WithStack(newf(Unimplemented, format, args...)))
}

// Recover turns a panic raised by Bugf/Assertf/TODOf back into an error
// for a caller (typically UnitBuilder, at the top of translation-unit
// processing) that wants to report rather than crash the process. Any
// other panic value is re-panicked unchanged — this core only converts
// its own taxonomy, it does not swallow unrelated failures.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*Error); ok {
		*errp = ie
		return
	}
	if werr, ok := r.(error); ok {
		var ie *Error
		if errors.As(werr, &ie) {
			*errp = werr
			return
		}
	}
	panic(r)
}
