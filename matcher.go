package jsgf

import (
	"fmt"

	"github.com/rs/zerolog"
)

// stackFrame records an in-progress rule reference, used to bound indirect
// recursion: a rule may not re-enter itself at the same input position
// without having consumed at least one token.
type stackFrame struct {
	rule *Rule
	pos  int
}

// matchState is threaded through a single top-level match attempt.
type matchState struct {
	tokens []string
	rule   *Rule
	stack  []stackFrame
	logger *zerolog.Logger // optional trace sink, nil disables tracing
}

func (st *matchState) trace(event, detail string, pos int) {
	if st.logger == nil {
		return
	}
	st.logger.Debug().Str("event", event).Str("detail", detail).Int("pos", pos).Msg("jsgf matcher")
}

// cont is a matching continuation: "having reached token index pos, does
// the rest of the enclosing match succeed?" terminal is true only for the
// continuation representing the very end of a top-level match attempt
// (nothing textually follows in the tree); Dictation reads it to decide
// between scanning for the earliest anchor and consuming greedily to the
// end of input.
type cont struct {
	terminal bool
	fn       func(pos int) bool
}

// matcherElement is the compiled recognizer form of one Expansion node. A
// matcherElement's match reports whether, starting at pos, this element
// (and everything the continuation represents) can succeed; by
// construction it returns true if and only if it eventually invoked k.fn
// and received true back, so a true result is never later undone by
// backtracking — only false results cause a caller to try an alternative.
// Each implementation stamps its own node's Span exactly when it is about
// to return true, giving every node in the tree its own matched slice
// without a separate bookkeeping pass.
type matcherElement interface {
	match(st *matchState, pos int, k cont) bool
}

// resetMatchState clears match spans on every node so that after a run, a
// node's span is set if and only if it took part in that run.
func resetMatchState(root *Expansion) {
	if root == nil {
		return
	}
	root.Walk(func(n *Expansion) bool {
		n.clearMatch()
		return true
	})
}

type buildContext struct {
	owner *Rule
}

func newBuildContext(owner *Rule) *buildContext {
	return &buildContext{owner: owner}
}

// buildMatcher compiles expansion e into a matcherElement tree, rejecting
// direct left recursion at the rule's own root.
func buildMatcher(e *Expansion, ctx *buildContext) (matcherElement, error) {
	if e == nil {
		return nullElement{node: nil}, nil
	}
	if ctx.owner != nil && ctx.owner.root == e && leftmostIsSelf(e, ctx.owner) {
		return nil, &MatcherBuildError{RuleName: ctx.owner.name, Reason: "direct left recursion"}
	}
	switch e.kind {
	case Literal:
		caseSensitive := false
		if ctx.owner != nil {
			caseSensitive = ctx.owner.EffectiveCaseSensitive()
		}
		return &literalElement{node: e, words: splitWords(e.text), caseSensitive: caseSensitive}, nil
	case Sequence, RequiredGrouping:
		children := make([]matcherElement, len(e.children))
		for i, c := range e.children {
			m, err := buildMatcher(c, ctx)
			if err != nil {
				return nil, err
			}
			children[i] = m
		}
		return &seqElement{node: e, children: children}, nil
	case AlternativeSet:
		children := make([]matcherElement, len(e.children))
		for i, c := range e.children {
			m, err := buildMatcher(c, ctx)
			if err != nil {
				return nil, err
			}
			children[i] = m
		}
		return &altElement{node: e, children: children}, nil
	case OptionalGrouping:
		m, err := buildMatcher(e.children[0], ctx)
		if err != nil {
			return nil, err
		}
		return &optionalElement{node: e, child: m}, nil
	case KleeneStar:
		m, err := buildMatcher(e.children[0], ctx)
		if err != nil {
			return nil, err
		}
		return &repeatElement{node: e, child: m, min: 0}, nil
	case Repeat:
		m, err := buildMatcher(e.children[0], ctx)
		if err != nil {
			return nil, err
		}
		return &repeatElement{node: e, child: m, min: 1}, nil
	case NamedRuleRef:
		name := e.refName
		owner := ctx.owner
		return &ruleRefElement{node: e, name: name, resolve: func() *Rule {
			if owner == nil || owner.grammar == nil {
				return nil
			}
			return owner.grammar.resolveRuleName(name)
		}}, nil
	case RuleRef:
		target := e.refRule
		return &ruleRefElement{node: e, name: refName(target), resolve: func() *Rule { return target }}, nil
	case NullRef:
		return nullElement{node: e}, nil
	case VoidRef:
		return voidElement{}, nil
	case Dictation:
		return dictationElement{node: e}, nil
	default:
		return nil, &MatcherBuildError{Reason: "unknown expansion kind"}
	}
}

func refName(r *Rule) string {
	if r == nil {
		return ""
	}
	return r.name
}

// leftmostIsSelf reports whether the leftmost alternative path through e
// can be reached without consuming input and arrives directly at a
// reference to self: the signature of direct left recursion. It does not
// recurse into other rules, so indirect left recursion through another
// rule is not rejected here — that is bounded dynamically at match time
// instead, by the recursion guard in ruleRefElement.match.
func leftmostIsSelf(e *Expansion, self *Rule) bool {
	switch e.kind {
	case Sequence, RequiredGrouping:
		if len(e.children) == 0 {
			return false
		}
		return leftmostIsSelf(e.children[0], self)
	case AlternativeSet:
		for _, c := range e.children {
			if leftmostIsSelf(c, self) {
				return true
			}
		}
		return false
	case OptionalGrouping, KleeneStar, Repeat:
		return leftmostIsSelf(e.children[0], self)
	case NamedRuleRef:
		return e.refName == self.name
	case RuleRef:
		return e.refRule == self
	default:
		return false
	}
}

func splitWords(text string) []string {
	if text == "" {
		return nil
	}
	var words []string
	start := -1
	for i, r := range text {
		if r == ' ' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

type literalElement struct {
	node          *Expansion
	words         []string
	caseSensitive bool
}

func (e *literalElement) match(st *matchState, pos int, k cont) bool {
	n := len(e.words)
	if n == 0 {
		if k.fn(pos) {
			e.node.setMatch(Span{pos, pos})
			return true
		}
		return false
	}
	if pos+n > len(st.tokens) {
		return false
	}
	for i, w := range e.words {
		if !tokenEquals(w, st.tokens[pos+i], e.caseSensitive) {
			return false
		}
	}
	end := pos + n
	if k.fn(end) {
		e.node.setMatch(Span{pos, end})
		return true
	}
	return false
}

type seqElement struct {
	node     *Expansion
	children []matcherElement
}

func (e *seqElement) match(st *matchState, pos int, k cont) bool {
	if len(e.children) == 0 {
		if k.fn(pos) {
			e.node.setMatch(Span{pos, pos})
			return true
		}
		return false
	}
	var seqEnd int
	var chain func(i, p int) bool
	chain = func(i, p int) bool {
		if i == len(e.children) {
			seqEnd = p
			return k.fn(p)
		}
		last := i == len(e.children)-1
		childK := cont{terminal: k.terminal && last, fn: func(p2 int) bool {
			return chain(i+1, p2)
		}}
		return e.children[i].match(st, p, childK)
	}
	if chain(0, pos) {
		e.node.setMatch(Span{pos, seqEnd})
		return true
	}
	return false
}

type altElement struct {
	node     *Expansion
	children []matcherElement
}

func (e *altElement) match(st *matchState, pos int, k cont) bool {
	for i, c := range e.children {
		var end int
		wrapped := cont{terminal: k.terminal, fn: func(p int) bool {
			end = p
			return k.fn(p)
		}}
		if c.match(st, pos, wrapped) {
			st.trace("alt-take", fmt.Sprintf("branch=%d", i), pos)
			e.node.setMatch(Span{pos, end})
			return true
		}
		st.trace("alt-backtrack", fmt.Sprintf("branch=%d", i), pos)
	}
	return false
}

type optionalElement struct {
	node  *Expansion
	child matcherElement
}

func (e *optionalElement) match(st *matchState, pos int, k cont) bool {
	var end int
	wrapped := cont{terminal: k.terminal, fn: func(p int) bool {
		end = p
		return k.fn(p)
	}}
	if e.child.match(st, pos, wrapped) {
		e.node.setMatch(Span{pos, end})
		return true
	}
	if k.fn(pos) {
		e.node.setMatch(Span{pos, pos})
		return true
	}
	return false
}

type repeatElement struct {
	node  *Expansion
	child matcherElement
	min   int
}

func (e *repeatElement) match(st *matchState, pos int, k cont) bool {
	ok, acc, end := repeatMatch(st, e.child, pos, e.min, k, nil)
	if ok {
		e.node.setMatch(Span{pos, end})
		e.node.iterations = acc
	}
	return ok
}

// repeatMatch implements greedy-with-backtracking repetition: it first
// tries to extend with one more repetition of child, and only if that
// whole path (the repetition plus everything that must follow it) cannot
// succeed does it retreat and try stopping at the current position.
func repeatMatch(st *matchState, child matcherElement, pos int, min int, k cont, acc []Span) (bool, []Span, int) {
	var resultAcc []Span
	var resultEnd int
	extended := false
	childK := cont{fn: func(p2 int) bool {
		if p2 == pos {
			// child matched without consuming a token; repeating it again
			// can never terminate, so refuse to extend and fall through to
			// the "stop here" branch below instead.
			return false
		}
		newAcc := append(append([]Span(nil), acc...), Span{pos, p2})
		ok, finalAcc, finalEnd := repeatMatch(st, child, p2, min, k, newAcc)
		if ok {
			resultAcc, resultEnd = finalAcc, finalEnd
			extended = true
		}
		return ok
	}}
	if child.match(st, pos, childK) && extended {
		st.trace("repeat-extend", fmt.Sprintf("iterations=%d", len(resultAcc)), pos)
		return true, resultAcc, resultEnd
	}
	if len(acc) >= min && k.fn(pos) {
		st.trace("repeat-stop", fmt.Sprintf("iterations=%d", len(acc)), pos)
		return true, acc, pos
	}
	return false, nil, 0
}

type ruleRefElement struct {
	node    *Expansion
	name    string
	resolve func() *Rule
}

func (e *ruleRefElement) match(st *matchState, pos int, k cont) bool {
	target := e.resolve()
	if target == nil {
		return false
	}
	for _, fr := range st.stack {
		if fr.rule == target && fr.pos == pos {
			return false
		}
	}
	m, err := target.matcherElement()
	if err != nil {
		return false
	}
	st.stack = append(st.stack, stackFrame{target, pos})
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	var end int
	wrapped := cont{terminal: k.terminal, fn: func(p int) bool {
		end = p
		return k.fn(p)
	}}
	if m.match(st, pos, wrapped) {
		e.node.setMatch(Span{pos, end})
		return true
	}
	return false
}

type nullElement struct{ node *Expansion }

func (e nullElement) match(st *matchState, pos int, k cont) bool {
	if !k.fn(pos) {
		return false
	}
	if e.node != nil {
		e.node.setMatch(Span{pos, pos})
	}
	return true
}

type voidElement struct{ node *Expansion }

func (e voidElement) match(st *matchState, pos int, k cont) bool {
	return false
}

type dictationElement struct{ node *Expansion }

func (e dictationElement) match(st *matchState, pos int, k cont) bool {
	if pos >= len(st.tokens) {
		return false
	}
	if k.terminal {
		end := len(st.tokens)
		if !k.fn(end) {
			return false
		}
		e.node.setMatch(Span{pos, end})
		return true
	}
	for end := pos + 1; end <= len(st.tokens); end++ {
		if k.fn(end) {
			e.node.setMatch(Span{pos, end})
			return true
		}
	}
	return false
}
