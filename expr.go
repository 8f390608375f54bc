// Package rewrite provides a symbolic term-rewriting kernel for Go.
//
// Design goals:
//   - Immutable terms with structural equivalence and hashing
//   - Attribute-driven canonical forms (Flat, Orderless, Listable, UnaryIdentity)
//   - Scoped pattern matching with ordered, backtracking rule stores
//   - A fixpoint evaluator bounded in depth and steps, with no Go recursion
//     per nesting level
//   - Exact arithmetic on math/big, promoted to float64 only on demand
package rewrite

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is any node of a term tree: a constant, a symbol or an invocation.
// Every Expr is owned by exactly one System.
type Expr interface {
	// System returns the owning system.
	System() *System
	// Head returns the head symbol of an atom or the head of an invocation.
	Head() Expr
	// Equivalent reports structural equality.
	Equivalent(other Expr) bool
	// Hash is consistent with Equivalent.
	Hash() uint64
	// Placement returns the source placement, or nil.
	Placement() *Placement
	// Format writes the term to b through f.
	Format(b *strings.Builder, f Formatter)
	String() string

	withPlacement(p *Placement) Expr
}

// Placement locates a term in its source text. It never affects equivalence.
type Placement struct {
	Source string
	Line   int
	Col    int
}

func (p Placement) String() string { return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Col) }

// Place returns a copy of e carrying p. Symbols are returned unchanged
// because their identity is their pointer.
func Place(e Expr, p Placement) Expr { return e.withPlacement(&p) }

type base struct {
	sys   *System
	place *Placement
	hash  uint64
}

func (b *base) System() *System       { return b.sys }
func (b *base) Placement() *Placement { return b.place }
func (b *base) Hash() uint64          { return b.hash }

// ============================================================
// Hashing
// ============================================================

const (
	hashOffset = 14695981039346656037
	hashPrime  = 1099511628211
)

const (
	seedInteger uint64 = iota + 1
	seedRational
	seedReal
	seedBoolean
	seedText
	seedHandle
	seedSymbol
	seedInvocation
)

func mix(h, v uint64) uint64 {
	h ^= v
	h *= hashPrime
	h ^= h >> 29
	return h
}

func hashBytes(seed uint64, p []byte) uint64 {
	f := fnv.New64a()
	_, _ = f.Write(p)
	return mix(mix(hashOffset, seed), f.Sum64())
}

func hashBigInt(seed uint64, v *big.Int) uint64 {
	if v.IsInt64() {
		return mix(mix(hashOffset, seed), uint64(v.Int64()))
	}
	h := hashBytes(seed, v.Bytes())
	return mix(h, uint64(v.Sign()+1))
}

func hashFloat(f float64) uint64 {
	switch {
	case f == 0:
		f = 0 // folds -0
	case math.IsNaN(f):
		return mix(mix(hashOffset, seedReal), 0x7ff8000000000001)
	}
	return mix(mix(hashOffset, seedReal), math.Float64bits(f))
}

// ============================================================
// Integer — arbitrary-precision integer constant
// ============================================================

type Integer struct {
	base
	v *big.Int
}

// Int returns the integer constant n.
func (sys *System) Int(n int64) *Integer { return sys.newInteger(big.NewInt(n)) }

// BigInt returns an integer constant holding a copy of n.
func (sys *System) BigInt(n *big.Int) *Integer { return sys.newInteger(new(big.Int).Set(n)) }

func (sys *System) newInteger(v *big.Int) *Integer {
	return &Integer{base: base{sys: sys, hash: hashBigInt(seedInteger, v)}, v: v}
}

func (i *Integer) Head() Expr { return i.sys.Integer }
func (i *Integer) Equivalent(other Expr) bool {
	o, ok := other.(*Integer)
	return ok && i.v.Cmp(o.v) == 0
}
func (i *Integer) Big() *big.Int        { return new(big.Int).Set(i.v) }
func (i *Integer) Int64() (int64, bool) { return i.v.Int64(), i.v.IsInt64() }
func (i *Integer) Sign() int            { return i.v.Sign() }
func (i *Integer) String() string       { return ToString(i, FullForm) }
func (i *Integer) Format(b *strings.Builder, f Formatter) {
	formatTo(b, i, f)
}
func (i *Integer) withPlacement(p *Placement) Expr {
	c := *i
	c.place = p
	return &c
}

// ============================================================
// Rational — exact fraction, never with denominator 1
// ============================================================

type Rational struct {
	base
	v *big.Rat
}

// Rat returns p/q in lowest terms; an integral result is an *Integer.
func (sys *System) Rat(p, q int64) Expr {
	if q == 0 {
		panic("rewrite: denominator is zero")
	}
	return sys.BigRat(new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q)))
}

// BigRat returns a constant holding a copy of r.
func (sys *System) BigRat(r *big.Rat) Expr {
	if r.IsInt() {
		return sys.newInteger(new(big.Int).Set(r.Num()))
	}
	v := new(big.Rat).Set(r)
	h := mix(hashBigInt(seedRational, v.Num()), hashBigInt(seedRational, v.Denom()))
	return &Rational{base: base{sys: sys, hash: h}, v: v}
}

func (r *Rational) Head() Expr { return r.sys.Rational }
func (r *Rational) Equivalent(other Expr) bool {
	o, ok := other.(*Rational)
	return ok && r.v.Cmp(o.v) == 0
}
func (r *Rational) Big() *big.Rat  { return new(big.Rat).Set(r.v) }
func (r *Rational) String() string { return ToString(r, FullForm) }
func (r *Rational) Format(b *strings.Builder, f Formatter) {
	formatTo(b, r, f)
}
func (r *Rational) withPlacement(p *Placement) Expr {
	c := *r
	c.place = p
	return &c
}

// ============================================================
// Real — float64 constant
// ============================================================

type Real struct {
	base
	v float64
}

func (sys *System) Real(f float64) *Real {
	return &Real{base: base{sys: sys, hash: hashFloat(f)}, v: f}
}

func (r *Real) Head() Expr { return r.sys.Builtins.Real }
func (r *Real) Equivalent(other Expr) bool {
	o, ok := other.(*Real)
	return ok && (r.v == o.v || math.IsNaN(r.v) && math.IsNaN(o.v))
}
func (r *Real) Float64() float64 { return r.v }
func (r *Real) String() string   { return ToString(r, FullForm) }
func (r *Real) Format(b *strings.Builder, f Formatter) {
	formatTo(b, r, f)
}
func (r *Real) withPlacement(p *Placement) Expr {
	c := *r
	c.place = p
	return &c
}

func formatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "Indeterminate"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += "."
	}
	return s
}

// ============================================================
// Boolean
// ============================================================

type Boolean struct {
	base
	v bool
}

// Bool returns the shared True or False constant.
func (sys *System) Bool(v bool) *Boolean {
	if v {
		return sys.True
	}
	return sys.False
}

func (sys *System) newBoolean(v bool) *Boolean {
	n := uint64(0)
	if v {
		n = 1
	}
	return &Boolean{base: base{sys: sys, hash: mix(mix(hashOffset, seedBoolean), n)}, v: v}
}

func (b *Boolean) Head() Expr { return b.sys.Boolean }
func (b *Boolean) Equivalent(other Expr) bool {
	o, ok := other.(*Boolean)
	return ok && b.v == o.v
}
func (b *Boolean) Value() bool    { return b.v }
func (b *Boolean) String() string { return ToString(b, FullForm) }
func (b *Boolean) Format(w *strings.Builder, f Formatter) {
	formatTo(w, b, f)
}
func (b *Boolean) withPlacement(p *Placement) Expr {
	c := *b
	c.place = p
	return &c
}

// ============================================================
// Text — string constant
// ============================================================

type Text struct {
	base
	v string
}

func (sys *System) Text(s string) *Text {
	return &Text{base: base{sys: sys, hash: hashBytes(seedText, []byte(s))}, v: s}
}

func (t *Text) Head() Expr { return t.sys.String }
func (t *Text) Equivalent(other Expr) bool {
	o, ok := other.(*Text)
	return ok && t.v == o.v
}
func (t *Text) Value() string  { return t.v }
func (t *Text) String() string { return ToString(t, FullForm) }
func (t *Text) Format(b *strings.Builder, f Formatter) {
	formatTo(b, t, f)
}
func (t *Text) withPlacement(p *Placement) Expr {
	c := *t
	c.place = p
	return &c
}

// ============================================================
// Handle — opaque host value
// ============================================================

// Handle wraps a host value. Comparable values are equivalent when they
// compare equal with ==; other values are equivalent only to the same handle.
type Handle struct {
	base
	v   any
	seq uint64
}

func (sys *System) Handle(v any) *Handle {
	h := &Handle{base: base{sys: sys}, v: v, seq: sys.handleSeq.Add(1)}
	if h.comparable() {
		h.hash = hashBytes(seedHandle, []byte(fmt.Sprintf("%T:%v", v, v)))
	} else {
		h.hash = mix(mix(hashOffset, seedHandle), h.seq)
	}
	return h
}

// comparable inspects the value, not its type: a struct with an any
// field holding a slice has a comparable type but panics under ==.
func (h *Handle) comparable() bool {
	return h.v == nil || reflect.ValueOf(h.v).Comparable()
}

func (h *Handle) Head() Expr { return h.sys.Builtins.Handle }
func (h *Handle) Equivalent(other Expr) bool {
	o, ok := other.(*Handle)
	if !ok {
		return false
	}
	if h.seq == o.seq {
		return true
	}
	return h.comparable() && o.comparable() && h.v == o.v
}
func (h *Handle) Value() any     { return h.v }
func (h *Handle) String() string { return ToString(h, FullForm) }
func (h *Handle) Format(b *strings.Builder, f Formatter) {
	formatTo(b, h, f)
}
func (h *Handle) withPlacement(p *Placement) Expr {
	c := *h
	c.place = p
	return &c
}

// ============================================================
// Public Helpers
// ============================================================

// Equivalent reports whether a and b are structurally equal. Either may be nil.
func Equivalent(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	return a.Hash() == b.Hash() && a.Equivalent(b)
}

// IsAtom reports whether e is not an invocation.
func IsAtom(e Expr) bool {
	_, ok := e.(*Invocation)
	return !ok
}

// HeadSymbol returns e's head when it is a symbol.
func HeadSymbol(e Expr) (*Symbol, bool) {
	s, ok := e.Head().(*Symbol)
	return s, ok
}
