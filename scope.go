package rewrite

// ============================================================
// Scope — lexical symbol tables
// ============================================================

// Scope binds names to symbols. Lookup walks from the scope outward
// through its parents to the built-in root; inner bindings shadow outer
// ones. A scope owns the symbols bound in it; PopScope releases them.
type Scope struct {
	sys      *System
	parent   *Scope
	syms     map[string]*Symbol
	order    []*Symbol
	released bool
}

// PushScope opens a child of parent; a nil parent means the global scope.
func (sys *System) PushScope(parent *Scope) *Scope {
	if parent == nil {
		parent = sys.global
	}
	return &Scope{sys: sys, parent: parent, syms: map[string]*Symbol{}}
}

// PopScope releases s and every symbol it owns. Popping the global or
// built-in scope is a no-op.
func (sys *System) PopScope(s *Scope) {
	if s == nil || s == sys.global || s == sys.root || s.released {
		return
	}
	for _, sym := range s.order {
		sym.release()
	}
	s.released = true
	s.syms = nil
	s.order = nil
}

// Bind returns the symbol named name owned by s, creating it if needed.
func (s *Scope) Bind(name string) (*Symbol, error) {
	if s.released {
		return nil, &EvalError{Op: "bind " + name, Err: ErrReleased}
	}
	if sym, ok := s.syms[name]; ok {
		return sym, nil
	}
	sym := s.sys.newSymbol(name, s)
	s.syms[name] = sym
	s.order = append(s.order, sym)
	return sym, nil
}

// Lookup finds name in s or its ancestors.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.syms[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal finds name in s only.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.syms[name]
	return sym, ok
}

func (s *Scope) Parent() *Scope  { return s.parent }
func (s *Scope) Released() bool  { return s.released }
func (s *Scope) System() *System { return s.sys }

// Symbols returns the owned symbols in binding order.
func (s *Scope) Symbols() []*Symbol { return append([]*Symbol(nil), s.order...) }

// Owns reports whether sym was bound in s.
func (s *Scope) Owns(sym *Symbol) bool { return s != nil && sym.scope == s }
