package rewrite

import "fmt"

// RuleKind distinguishes rules whose template was evaluated when the rule
// was made (Immediate, from Set) from rules whose template is evaluated on
// every application (Delayed, from SetDelayed).
type RuleKind uint8

const (
	Immediate RuleKind = iota
	Delayed
)

func (k RuleKind) String() string {
	if k == Delayed {
		return "Delayed"
	}
	return "Immediate"
}

// Rule is one rewrite: a term matching Pattern, for which Condition (if
// any) evaluates to True, is replaced by Template under the bindings.
// Symbols owned by Vars act as pattern variables in addition to those
// introduced by Pattern[v, p].
type Rule struct {
	Kind      RuleKind
	Pattern   Expr
	Template  Expr
	Condition Expr
	Vars      *Scope
}

func (r *Rule) String() string {
	op := "->"
	if r.Kind == Delayed {
		op = ":>"
	}
	s := fmt.Sprintf("%s %s %s", ToString(r.Pattern, InfixForm), op, ToString(r.Template, InfixForm))
	if r.Condition != nil {
		s += " /; " + ToString(r.Condition, InfixForm)
	}
	return s
}

// validate checks that r can be stored on owner.
func (r *Rule) validate(owner *Symbol) error {
	if r.Pattern == nil || r.Template == nil {
		return &EvalError{Op: "define", Term: owner, Err: fmt.Errorf("%w: nil pattern or template", ErrMalformedPattern)}
	}
	if r.Pattern.System() != owner.sys || r.Template.System() != owner.sys ||
		r.Condition != nil && r.Condition.System() != owner.sys {
		return &EvalError{Op: "define", Term: owner, Err: ErrCrossSystemMix}
	}
	if head := ruleHead(r.Pattern); head != owner {
		return &EvalError{Op: "define", Term: r.Pattern, Err: fmt.Errorf("%w: pattern is not headed by %s", ErrMalformedPattern, owner.name)}
	}
	return checkPattern(r.Pattern)
}

// ruleHead returns the symbol a definition with lhs p is stored on, or nil.
func ruleHead(p Expr) *Symbol {
	sys := p.System()
	for {
		switch t := p.(type) {
		case *Symbol:
			return t
		case *Invocation:
			if t.head == sys.Condition && len(t.args) == 2 {
				p = t.args[0]
				continue
			}
			if s, ok := t.head.(*Symbol); ok {
				return s
			}
			p = t.head
		default:
			return nil
		}
	}
}

// withoutCondition strips Condition[p, test] wrappers from p.
func withoutCondition(p Expr) Expr {
	for {
		inv, ok := p.(*Invocation)
		if !ok || inv.head != Expr(inv.sys.Condition) || len(inv.args) != 2 {
			return p
		}
		p = inv.args[0]
	}
}

// checkPattern rejects Pattern[v, p] where v is not a symbol and pattern
// constructs of the wrong arity.
func checkPattern(p Expr) error {
	inv, ok := p.(*Invocation)
	if !ok {
		return nil
	}
	sys := inv.sys
	switch inv.head {
	case sys.Pattern:
		if len(inv.args) != 2 {
			return &EvalError{Op: "pattern", Term: p, Err: fmt.Errorf("%w: Pattern takes 2 arguments", ErrMalformedPattern)}
		}
		if _, ok := inv.args[0].(*Symbol); !ok {
			return &EvalError{Op: "pattern", Term: p, Err: fmt.Errorf("%w: Pattern variable must be a symbol", ErrMalformedPattern)}
		}
		return checkPattern(inv.args[1])
	case sys.Hole, sys.HoleSplice:
		if len(inv.args) > 1 {
			return &EvalError{Op: "pattern", Term: p, Err: fmt.Errorf("%w: %s takes at most 1 argument", ErrMalformedPattern, inv.head)}
		}
		return nil
	case sys.Condition:
		if len(inv.args) != 2 {
			return &EvalError{Op: "pattern", Term: p, Err: fmt.Errorf("%w: Condition takes 2 arguments", ErrMalformedPattern)}
		}
		return checkPattern(inv.args[0])
	}
	if err := checkPattern(inv.head); err != nil {
		return err
	}
	for _, a := range inv.args {
		if err := checkPattern(a); err != nil {
			return err
		}
	}
	return nil
}
