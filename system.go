package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// ============================================================
// System — owner of a symbol universe
// ============================================================

// System owns the built-in table, the global scope and every term built
// through it. Terms of different systems never mix.
//
// The built-in table is built by NewSystem and locked before it returns,
// so concurrent evaluations only read it. Global symbols and their rules
// are session state; their mutation must be serialized by the embedder.
type System struct {
	Builtins

	True, False *Boolean

	id     uuid.UUID
	opts   Options
	log    *slog.Logger
	root   *Scope
	global *Scope

	nextID    atomic.Uint64
	gensym    atomic.Uint64
	handleSeq atomic.Uint64
}

// NewSystem returns a system with the built-in library installed and locked.
func NewSystem(opts ...Option) *System {
	o := gatherOptions(opts)
	sys := &System{id: uuid.New(), opts: o, log: o.Logger}
	sys.root = &Scope{sys: sys, syms: map[string]*Symbol{}}
	sys.global = &Scope{sys: sys, parent: sys.root, syms: map[string]*Symbol{}}
	sys.True = sys.newBoolean(true)
	sys.False = sys.newBoolean(false)
	sys.installBuiltins()
	sys.log.Debug("system ready", "id", sys.id.String(), "builtins", len(sys.root.order),
		"max_depth", o.MaxDepth, "max_iterations", o.MaxIterations)
	return sys
}

// ID identifies the system in diagnostics.
func (sys *System) ID() uuid.UUID { return sys.id }

// Options returns the evaluation policy.
func (sys *System) Options() Options { return sys.opts }

func (sys *System) Logger() *slog.Logger { return sys.log }

// Global returns the scope user symbols are interned in.
func (sys *System) Global() *Scope { return sys.global }

// Sym returns the symbol named name visible from the global scope,
// creating it in the global scope when absent.
func (sys *System) Sym(name string) *Symbol {
	if s, ok := sys.global.Lookup(name); ok {
		return s
	}
	s, _ := sys.global.Bind(name)
	return s
}

// Lookup finds a global or built-in symbol without creating one.
func (sys *System) Lookup(name string) (*Symbol, bool) { return sys.global.Lookup(name) }

// DefineBuiltin registers a host extension in the built-in table. The
// returned symbol is locked.
func (sys *System) DefineBuiltin(name string, attrs Attributes, r Reducer) (*Symbol, error) {
	if s, ok := sys.root.syms[name]; ok {
		return nil, &EvalError{Op: "define builtin", Term: s, Err: ErrLocked}
	}
	if s, ok := sys.global.syms[name]; ok {
		return nil, &EvalError{Op: "define builtin", Term: s, Err: fmt.Errorf("%w: %s is already a global symbol", ErrLocked, name)}
	}
	s := sys.builtin(name, attrs, r)
	s.Lock()
	return s, nil
}

func (sys *System) builtin(name string, attrs Attributes, r Reducer) *Symbol {
	s, _ := sys.root.Bind(name)
	s.attrs = attrs
	s.builtin = r
	return s
}

// freshName returns name$N, unique within the system.
func (sys *System) freshName(name string) string {
	return fmt.Sprintf("%s$%d", name, sys.gensym.Add(1))
}

func (sys *System) debugEnabled() bool {
	return sys.log.Enabled(context.Background(), slog.LevelDebug)
}
