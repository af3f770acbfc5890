// Package jsgf compiles, parses and matches grammars written in the
// JSpeech Grammar Format (JSGF). A Grammar is a named collection of Rules;
// each Rule binds a name to an Expansion, a regular-expression-like tree
// over literal words, alternatives, sequences, groupings, repetitions and
// references to other rules.
//
// Workflow:
//  1. Build or Parse an expansion tree.
//  2. Compile it back to canonical JSGF text for an external decoder.
//  3. Match a candidate utterance against it to find which rules (and
//     which tagged sub-expansions) accepted it.
package jsgf

import (
	"iter"
	"strings"
)

// Kind identifies the variant of an Expansion node. The set is closed;
// every Expansion has exactly one Kind for its lifetime.
type Kind int

const (
	// Literal matches one exact (normalized) token sequence.
	Literal Kind = iota
	// Sequence concatenates its children.
	Sequence
	// AlternativeSet matches any one of its children, tried in order.
	AlternativeSet
	// OptionalGrouping matches its single child or the empty string.
	OptionalGrouping
	// RequiredGrouping is a parenthesized sequence of children.
	RequiredGrouping
	// KleeneStar matches its single child zero or more times.
	KleeneStar
	// Repeat matches its single child one or more times.
	Repeat
	// NamedRuleRef refers to a rule by name, resolved lazily.
	NamedRuleRef
	// RuleRef is a direct, already-resolved link to a Rule.
	RuleRef
	// NullRef compiles to <NULL> and matches the empty string.
	NullRef
	// VoidRef compiles to <VOID> and never matches.
	VoidRef
	// Dictation matches one or more arbitrary tokens of free speech.
	Dictation
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "Literal"
	case Sequence:
		return "Sequence"
	case AlternativeSet:
		return "AlternativeSet"
	case OptionalGrouping:
		return "OptionalGrouping"
	case RequiredGrouping:
		return "RequiredGrouping"
	case KleeneStar:
		return "KleeneStar"
	case Repeat:
		return "Repeat"
	case NamedRuleRef:
		return "NamedRuleRef"
	case RuleRef:
		return "RuleRef"
	case NullRef:
		return "NullRef"
	case VoidRef:
		return "VoidRef"
	case Dictation:
		return "Dictation"
	default:
		return "Unknown"
	}
}

// Span is a half-open [Start, End) slice of token indices into the most
// recent input matched against an expansion.
type Span struct {
	Start, End int
}

// Len reports the number of tokens covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Expansion is a node of a rule's right-hand side tree. Every node shares
// this single struct regardless of Kind; per-kind data is stored in the
// fields that kind uses and left zero otherwise, a tagged-variant shape
// for a single match-rule sum type.
type Expansion struct {
	kind     Kind
	parent   *Expansion
	children []*Expansion
	tags     []string
	owner    *Rule

	// Literal
	text string

	// AlternativeSet: optional per-child weights, len(weights) == 0 or
	// len(weights) == len(children).
	weights []float64

	// NamedRuleRef
	refName string

	// RuleRef
	refRule *Rule

	// last successful match, nil if unmatched or stale
	match *Span

	// Repeat: per-iteration spans, most recent run only
	iterations []Span
}

// NewLiteral returns a Literal expansion. Internal whitespace is
// normalized to single spaces.
func NewLiteral(text string) *Expansion {
	return &Expansion{kind: Literal, text: normalizeWhitespace(text)}
}

// NewSequence returns a Sequence expansion concatenating children in order.
func NewSequence(children ...*Expansion) *Expansion {
	e := &Expansion{kind: Sequence}
	for _, c := range children {
		e.AppendChild(c)
	}
	return e
}

// NewAlternativeSet returns an unordered alternation over children, tried
// in declaration order during matching.
func NewAlternativeSet(children ...*Expansion) *Expansion {
	e := &Expansion{kind: AlternativeSet}
	for _, c := range children {
		e.AppendChild(c)
	}
	return e
}

// NewWeightedAlternativeSet returns an AlternativeSet with a non-negative
// weight recorded per child. Weights are preserved for compilation only;
// they do not affect matching.
func NewWeightedAlternativeSet(children []*Expansion, weights []float64) *Expansion {
	if len(children) != len(weights) {
		panic("jsgf: NewWeightedAlternativeSet: children/weights length mismatch")
	}
	e := NewAlternativeSet(children...)
	e.weights = append([]float64(nil), weights...)
	return e
}

// NewOptionalGrouping returns `[ child ]`: matches child or the empty
// string.
func NewOptionalGrouping(child *Expansion) *Expansion {
	e := &Expansion{kind: OptionalGrouping}
	e.AppendChild(child)
	return e
}

// NewRequiredGrouping returns `( children... )`, a parenthesized sequence.
// A single child is preserved, not flattened into the child itself, so
// that later mutation does not silently change precedence.
func NewRequiredGrouping(children ...*Expansion) *Expansion {
	e := &Expansion{kind: RequiredGrouping}
	for _, c := range children {
		e.AppendChild(c)
	}
	return e
}

// NewKleeneStar returns `child*`: zero or more repetitions.
func NewKleeneStar(child *Expansion) *Expansion {
	e := &Expansion{kind: KleeneStar}
	e.AppendChild(child)
	return e
}

// NewRepeat returns `child+`: one or more repetitions.
func NewRepeat(child *Expansion) *Expansion {
	e := &Expansion{kind: Repeat}
	e.AppendChild(child)
	return e
}

// NewNamedRuleRef returns a reference to a rule by name, resolved lazily
// against a Grammar or GrammarSet.
func NewNamedRuleRef(name string) *Expansion {
	return &Expansion{kind: NamedRuleRef, refName: name}
}

// NewRuleRef returns a direct, already-resolved reference to rule.
func NewRuleRef(rule *Rule) *Expansion {
	return &Expansion{kind: RuleRef, refRule: rule}
}

// NewNullRef returns <NULL>, which matches the empty string.
func NewNullRef() *Expansion {
	return &Expansion{kind: NullRef}
}

// NewVoidRef returns <VOID>, which never matches.
func NewVoidRef() *Expansion {
	return &Expansion{kind: VoidRef}
}

// NewDictation returns the dictation placeholder, matching one or more
// arbitrary tokens of free speech.
func NewDictation() *Expansion {
	return &Expansion{kind: Dictation}
}

// Kind reports the node's variant.
func (e *Expansion) Kind() Kind { return e.kind }

// Parent returns the node containing e in its child list, or nil if e is
// a root.
func (e *Expansion) Parent() *Expansion { return e.parent }

// Children returns a copy of e's child list. Mutate the tree through
// AppendChild/SetChildAt/RemoveChildAt, not by editing the returned slice.
func (e *Expansion) Children() []*Expansion {
	return append([]*Expansion(nil), e.children...)
}

// Text returns the normalized literal text; only meaningful for Literal
// nodes.
func (e *Expansion) Text() string { return e.text }

// RefName returns the referenced rule name; only meaningful for
// NamedRuleRef nodes.
func (e *Expansion) RefName() string { return e.refName }

// RefRule returns the referenced rule; only meaningful for RuleRef nodes.
func (e *Expansion) RefRule() *Rule { return e.refRule }

// Weights returns the per-child weights of an AlternativeSet, or nil if
// none were set.
func (e *Expansion) Weights() []float64 { return append([]float64(nil), e.weights...) }

// Tags returns the tags attached to e, in declaration order.
func (e *Expansion) Tags() []string { return append([]string(nil), e.tags...) }

// AddTag appends a tag to e and invalidates cached compile/matcher state.
func (e *Expansion) AddTag(tag string) {
	e.tags = append(e.tags, tag)
	e.invalidate()
}

// Match returns the [start, end) token span e covered in the most recent
// successful match that reached it, and whether it participated at all.
func (e *Expansion) Match() (Span, bool) {
	if e.match == nil {
		return Span{}, false
	}
	return *e.match, true
}

// Iterations returns the per-repetition spans recorded by a Repeat node's
// most recent match.
func (e *Expansion) Iterations() []Span {
	return append([]Span(nil), e.iterations...)
}

func (e *Expansion) clearMatch() {
	e.match = nil
	e.iterations = nil
}

func (e *Expansion) setMatch(s Span) {
	cp := s
	e.match = &cp
}

// ancestorOrSelf reports whether target appears in n's parent chain,
// including n itself.
func ancestorOrSelf(n, target *Expansion) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == target {
			return true
		}
	}
	return false
}

func setOwner(e *Expansion, owner *Rule) {
	if e == nil {
		return
	}
	e.owner = owner
	for _, c := range e.children {
		setOwner(c, owner)
	}
}

func (e *Expansion) invalidate() {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.owner != nil {
			cur.owner.invalidateCaches()
			return
		}
	}
}

// attach makes child a child of parent: a child has exactly one owner and
// parent always points back to it. Attaching a node that already has a
// parent, or that would make a node its own descendant, is a fatal error
// — the builder API is not allowed to construct a cycle.
func attach(parent, child *Expansion) {
	if child == nil {
		panic("jsgf: cannot attach nil child")
	}
	if child.parent != nil {
		panic("jsgf: child is already attached to another node")
	}
	if ancestorOrSelf(parent, child) {
		panic("jsgf: attaching child would create a cycle")
	}
	child.parent = parent
	if parent != nil {
		child.owner = parent.owner
		setOwner(child, parent.owner)
	}
}

// AppendChild adds child to the end of e's child list.
func (e *Expansion) AppendChild(child *Expansion) {
	attach(e, child)
	e.children = append(e.children, child)
	e.invalidate()
}

// RemoveChildAt detaches and returns the child at index i.
func (e *Expansion) RemoveChildAt(i int) *Expansion {
	child := e.children[i]
	e.children = append(e.children[:i:i], e.children[i+1:]...)
	child.parent = nil
	setOwner(child, nil)
	e.invalidate()
	return child
}

// SetChildAt replaces the child at index i with replacement, detaching the
// old child (its Parent becomes nil) and returning it.
func (e *Expansion) SetChildAt(i int, replacement *Expansion) *Expansion {
	old := e.children[i]
	old.parent = nil
	setOwner(old, nil)
	attach(e, replacement)
	e.children[i] = replacement
	e.invalidate()
	return old
}

// FlatMap replaces e's position in its parent's child list with
// replacement, preserving the parent linkage invariant. If e is a root
// (no parent), FlatMap simply detaches e and returns replacement as the
// new root; the caller is responsible for adopting it (e.g. via
// Rule.SetExpansion).
func (e *Expansion) FlatMap(replacement *Expansion) *Expansion {
	parent := e.parent
	if parent == nil {
		e.parent = nil
		if replacement.parent != nil {
			panic("jsgf: FlatMap replacement is already attached")
		}
		return replacement
	}
	for i, c := range parent.children {
		if c == e {
			return parent.SetChildAt(i, replacement)
		}
	}
	panic("jsgf: FlatMap: e not found in its own parent's children")
}

// Clone returns a deep copy of e and its subtree, detached from any
// parent and owner and with no recorded match state, suitable for
// reattaching under a different parent.
func (e *Expansion) Clone() *Expansion {
	if e == nil {
		return nil
	}
	c := &Expansion{
		kind:    e.kind,
		text:    e.text,
		refName: e.refName,
		refRule: e.refRule,
		tags:    append([]string(nil), e.tags...),
		weights: append([]float64(nil), e.weights...),
	}
	for _, child := range e.children {
		c.AppendChild(child.Clone())
	}
	return c
}

// All returns a pre-order depth-first iterator over e and its descendants.
func (e *Expansion) All() iter.Seq[*Expansion] {
	return func(yield func(*Expansion) bool) {
		var walk func(*Expansion) bool
		walk = func(n *Expansion) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(e)
	}
}

// Walk performs a pre-order depth-first traversal of e and its
// descendants, calling visit for each node. If visit returns false, that
// node's children are not visited (a short-circuit on that branch).
func (e *Expansion) Walk(visit func(*Expansion) bool) {
	if !visit(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(visit)
	}
}

// Filter returns a pre-order iterator over the descendants (and e itself)
// for which pred returns true.
func (e *Expansion) Filter(pred func(*Expansion) bool) iter.Seq[*Expansion] {
	return func(yield func(*Expansion) bool) {
		for n := range e.All() {
			if pred(n) {
				if !yield(n) {
					return
				}
			}
		}
	}
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
