package rewrite

import "strings"

// Attributes is a set of canonicalization and evaluation flags.
type Attributes uint16

const (
	// Flat splices nested invocations of the same head (associativity).
	Flat Attributes = 1 << iota
	// Orderless sorts arguments into canonical order (commutativity).
	Orderless
	// Listable threads the head over List arguments.
	Listable
	// UnaryIdentity replaces a one-argument invocation by its argument.
	UnaryIdentity
	// HoldFirst leaves the first argument unevaluated.
	HoldFirst
	// HoldRest leaves all but the first argument unevaluated.
	HoldRest
	// HoldSplice keeps Sequence arguments from being spliced.
	HoldSplice

	// HoldAll leaves every argument unevaluated.
	HoldAll = HoldFirst | HoldRest
)

var attributeNames = []struct {
	a    Attributes
	name string
}{
	{Flat, "Flat"},
	{Orderless, "Orderless"},
	{Listable, "Listable"},
	{UnaryIdentity, "UnaryIdentity"},
	{HoldFirst, "HoldFirst"},
	{HoldRest, "HoldRest"},
	{HoldSplice, "HoldSplice"},
}

func (a Attributes) Has(b Attributes) bool            { return a&b == b }
func (a Attributes) With(b Attributes) Attributes    { return a | b }
func (a Attributes) Without(b Attributes) Attributes { return a &^ b }

// Names lists the flags in a in declaration order. HoldAll is reported
// instead of the HoldFirst, HoldRest pair.
func (a Attributes) Names() []string {
	var out []string
	for _, n := range attributeNames {
		if n.a == HoldFirst && a.Has(HoldAll) {
			out = append(out, "HoldAll")
			continue
		}
		if n.a == HoldRest && a.Has(HoldAll) {
			continue
		}
		if a.Has(n.a) {
			out = append(out, n.name)
		}
	}
	return out
}

func (a Attributes) String() string {
	if a == 0 {
		return "{}"
	}
	return "{" + strings.Join(a.Names(), ", ") + "}"
}

// AttributeByName maps a flag name, including "HoldAll", to its value.
func AttributeByName(name string) (Attributes, bool) {
	if name == "HoldAll" {
		return HoldAll, true
	}
	for _, n := range attributeNames {
		if n.name == name {
			return n.a, true
		}
	}
	return 0, false
}
