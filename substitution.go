package rewrite

// ============================================================
// Substitution — ordered bindings with rollback
// ============================================================

// Binding maps Var to a single Value, or to the run Seq when Splice is set.
type Binding struct {
	Var    *Symbol
	Value  Expr
	Seq    []Expr
	Splice bool
}

// Substitution is a small ordered binding list. Each variable binds at
// most once; Mark and Rollback let a matcher discard speculative bindings
// of a failed branch without touching earlier ones.
type Substitution struct {
	binds []Binding
}

func NewSubstitution() *Substitution { return &Substitution{} }

func (s *Substitution) Len() int { return len(s.binds) }

// Bindings returns a copy in binding order.
func (s *Substitution) Bindings() []Binding { return append([]Binding(nil), s.binds...) }

// Mark returns a point to Rollback to.
func (s *Substitution) Mark() int { return len(s.binds) }

// Rollback discards every binding made after mark.
func (s *Substitution) Rollback(mark int) {
	for i := mark; i < len(s.binds); i++ {
		s.binds[i] = Binding{}
	}
	s.binds = s.binds[:mark]
}

// Lookup returns v's binding.
func (s *Substitution) Lookup(v *Symbol) (Binding, bool) {
	for _, b := range s.binds {
		if b.Var == v {
			return b, true
		}
	}
	return Binding{}, false
}

// Bind binds v to e. When v is already bound it succeeds only if the
// existing binding is equivalent, and adds nothing.
func (s *Substitution) Bind(v *Symbol, e Expr) bool {
	if b, ok := s.Lookup(v); ok {
		if b.Splice {
			return len(b.Seq) == 1 && Equivalent(b.Seq[0], e)
		}
		return Equivalent(b.Value, e)
	}
	s.binds = append(s.binds, Binding{Var: v, Value: e})
	return true
}

// BindSplice binds v to the run seq, with the same rule for existing bindings.
func (s *Substitution) BindSplice(v *Symbol, seq []Expr) bool {
	if b, ok := s.Lookup(v); ok {
		if !b.Splice {
			return len(seq) == 1 && Equivalent(b.Value, seq[0])
		}
		if len(b.Seq) != len(seq) {
			return false
		}
		for i := range seq {
			if !Equivalent(b.Seq[i], seq[i]) {
				return false
			}
		}
		return true
	}
	s.binds = append(s.binds, Binding{Var: v, Seq: append([]Expr(nil), seq...), Splice: true})
	return true
}

// Apply replaces every bound symbol in e. Splice bindings in argument
// position are spliced into the enclosing invocation; elsewhere they
// become Sequence[...]. Apply returns e itself when nothing changes.
func (s *Substitution) Apply(e Expr) Expr {
	if len(s.binds) == 0 {
		return e
	}
	out, _ := s.apply(e)
	return out
}

func (s *Substitution) apply(e Expr) (Expr, bool) {
	switch t := e.(type) {
	case *Symbol:
		b, ok := s.Lookup(t)
		if !ok {
			return e, false
		}
		if b.Splice {
			return t.sys.invoke(t.sys.Sequence, append([]Expr(nil), b.Seq...)), true
		}
		return b.Value, true
	case *Invocation:
		head, changed := s.apply(t.head)
		var args []Expr
		for i, a := range t.args {
			if sym, ok := a.(*Symbol); ok {
				if b, ok := s.Lookup(sym); ok && b.Splice {
					if args == nil {
						args = append(make([]Expr, 0, len(t.args)+len(b.Seq)), t.args[:i]...)
					}
					args = append(args, b.Seq...)
					changed = true
					continue
				}
			}
			na, c := s.apply(a)
			if c && args == nil {
				args = append(make([]Expr, 0, len(t.args)), t.args[:i]...)
			}
			if args != nil {
				args = append(args, na)
			}
			changed = changed || c
		}
		if !changed {
			return e, false
		}
		if args == nil {
			args = append([]Expr(nil), t.args...)
		}
		return t.sys.invoke(head, args), true
	}
	return e, false
}
