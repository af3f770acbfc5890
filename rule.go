package jsgf

import (
	"strings"

	"github.com/rs/zerolog"
)

// Rule binds a name to an expansion tree. A Rule is public when it may be
// activated directly by an external decoder (compiled with the `public`
// keyword); private rules exist only to be referenced by other rules.
type Rule struct {
	name          string
	public        bool
	root          *Expansion
	caseSensitive *bool // nil: inherit from owning Grammar
	grammar       *Grammar
	logger        *zerolog.Logger // nil: tracing disabled

	generation    int
	compiledCache string
	compiledGen   int
	matcherCache  matcherElement
	matcherGen    int
}

// NewRule constructs a Rule named name with the given visibility and root
// expansion. The expansion must be a root (no Parent); it is adopted and
// its owner becomes this rule. An expansion that is still attached to a
// parent panics.
func NewRule(name string, public bool, root *Expansion) *Rule {
	r := &Rule{name: name, public: public}
	r.SetExpansion(root)
	return r
}

// NewPublicRule is a convenience for NewRule(name, true, root).
func NewPublicRule(name string, root *Expansion) *Rule {
	return NewRule(name, true, root)
}

// NewPrivateRule is a convenience for NewRule(name, false, root).
func NewPrivateRule(name string, root *Expansion) *Rule {
	return NewRule(name, false, root)
}

// Name returns the rule's fully-qualified name.
func (r *Rule) Name() string { return r.name }

// IsPublic reports whether the rule is declared `public`.
func (r *Rule) IsPublic() bool { return r.public }

// SetPublic changes the rule's visibility.
func (r *Rule) SetPublic(public bool) {
	r.public = public
	r.invalidateCaches()
}

// Expansion returns the rule's root expansion.
func (r *Rule) Expansion() *Expansion { return r.root }

// SetExpansion replaces the rule's root expansion, detaching the previous
// one (its Parent and owner become nil) and invalidating caches.
func (r *Rule) SetExpansion(root *Expansion) {
	if r.root != nil {
		r.root.parent = nil
		setOwner(r.root, nil)
	}
	if root != nil {
		if root.parent != nil {
			panic("jsgf: SetExpansion: expansion already attached elsewhere")
		}
		setOwner(root, r)
	}
	r.root = root
	r.invalidateCaches()
}

// Grammar returns the Grammar this rule was added to, or nil.
func (r *Rule) Grammar() *Grammar { return r.grammar }

// WithLogger attaches logger as a debug trace sink for backtracking
// decisions (alternative-set branch taken/abandoned, repeat
// extend/stop) made while matching this rule. Pass nil to disable
// tracing.
func (r *Rule) WithLogger(logger *zerolog.Logger) *Rule {
	r.logger = logger
	return r
}

// SetCaseSensitive overrides the case policy for literals under this rule.
// Passing nil reverts to inheriting the owning grammar's default.
func (r *Rule) SetCaseSensitive(sensitive *bool) {
	r.caseSensitive = sensitive
	r.invalidateCaches()
}

// EffectiveCaseSensitive resolves the case policy cascade: the rule's
// own flag if set, otherwise the owning grammar's default, otherwise
// case-insensitive.
func (r *Rule) EffectiveCaseSensitive() bool {
	if r.caseSensitive != nil {
		return *r.caseSensitive
	}
	if r.grammar != nil {
		return r.grammar.CaseSensitive()
	}
	return false
}

func (r *Rule) invalidateCaches() {
	r.generation++
}

func (r *Rule) invalidateMatcher() {
	r.matcherGen = -1
}

// Compile renders the rule as canonical JSGF: `public <name> = expansion;`
// or `<name> = expansion;`.
func (r *Rule) Compile() string {
	if r.compiledCache != "" && r.compiledGen == r.generation {
		return r.compiledCache
	}
	var b strings.Builder
	if r.public {
		b.WriteString("public ")
	}
	b.WriteString("<")
	b.WriteString(r.name)
	b.WriteString("> = ")
	b.WriteString(compileExpansion(r.root, precedenceLowest))
	b.WriteString(";")
	text := b.String()
	r.compiledCache = text
	r.compiledGen = r.generation
	return text
}

// Dependencies returns the set of rule names referenced anywhere in the
// rule's expansion tree, by name (NamedRuleRef) or by resolved object
// (RuleRef).
func (r *Rule) Dependencies() map[string]struct{} {
	deps := make(map[string]struct{})
	if r.root == nil {
		return deps
	}
	for n := range r.root.All() {
		switch n.kind {
		case NamedRuleRef:
			deps[n.refName] = struct{}{}
		case RuleRef:
			if n.refRule != nil {
				deps[n.refRule.name] = struct{}{}
			}
		}
	}
	return deps
}

// Matches reports whether speech is accepted by the rule from its very
// first token; trailing tokens beyond the match are allowed.
func (r *Rule) Matches(speech string) bool {
	ok, _, _ := r.match(speech)
	return ok
}

// FindMatchingPart matches speech against the rule and returns the
// deepest tagged or named sub-expansion that participated in the match,
// plus the unconsumed tail. ok is false if speech does not match at all.
func (r *Rule) FindMatchingPart(speech string) (node *Expansion, tail string, ok bool) {
	matched, tokens, end := r.match(speech)
	if !matched {
		return nil, "", false
	}
	tailTokens := tokens[end:]
	deepest := deepestTaggedOrNamed(r.root)
	return deepest, strings.Join(tailTokens, " "), true
}

func deepestTaggedOrNamed(e *Expansion) *Expansion {
	if e == nil {
		return nil
	}
	var best *Expansion
	bestDepth := -1
	var visit func(n *Expansion, depth int)
	visit = func(n *Expansion, depth int) {
		if _, ok := n.Match(); !ok {
			return
		}
		if (len(n.tags) > 0 || n.kind == NamedRuleRef || n.kind == RuleRef) && depth >= bestDepth {
			best, bestDepth = n, depth
		}
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(e, 0)
	if best == nil {
		return e
	}
	return best
}

// match runs the matcher against speech and reports whether it succeeded,
// the tokenized input, and the index of the first unconsumed token.
func (r *Rule) match(speech string) (ok bool, tokens []string, end int) {
	tokens = Tokenize(speech)
	m, err := r.matcherElement()
	if err != nil {
		return false, tokens, 0
	}
	resetMatchState(r.root)
	st := &matchState{tokens: tokens, rule: r, logger: r.logger}
	var finalEnd int
	terminal := cont{terminal: true, fn: func(p int) bool {
		finalEnd = p
		return true
	}}
	if m.match(st, 0, terminal) {
		return true, tokens, finalEnd
	}
	return false, tokens, 0
}

// Check eagerly compiles the rule's matcher, surfacing a MatcherBuildError
// (direct left recursion) that Matches/FindMatchingPart would otherwise
// only observe indirectly as a non-match.
func (r *Rule) Check() error {
	_, err := r.matcherElement()
	return err
}

func (r *Rule) matcherElement() (matcherElement, error) {
	if r.matcherCache != nil && r.matcherGen == r.generation {
		return r.matcherCache, nil
	}
	m, err := buildMatcher(r.root, newBuildContext(r))
	if err != nil {
		return nil, err
	}
	r.matcherCache = m
	r.matcherGen = r.generation
	return m, nil
}
