// Package dictation realizes the grammar-plus-language-model workflow: a
// rule containing a Dictation placeholder is split at dictation
// boundaries into an ordered sequence of sub-rules, matched incrementally
// against utterance fragments supplied one at a time by the host
// application. It depends on the root jsgf package's Expansion/Rule/
// Grammar/Dictation types, the same layering the theme subpackage uses
// on top of the root package.
package dictation

import (
	"fmt"
	"strings"

	"github.com/drmfinlay/jsgf-go"
)

// maxVariants bounds the number of present/absent combinations
// expandDictationExpansion will enumerate for optional-wrapped dictation
// nodes. The source's own "present or absent" branching is exponential in
// the number of such nodes; in any real grammar that count is tiny, so a
// ceiling catches a pathological rule with a clear error instead of
// silently burning memory.
const maxVariants = 32

// part is one element of a split sub-rule sequence: either an ordinary
// sub-rule or a Dictation placeholder.
type part struct {
	rule      *jsgf.Rule
	dictation bool
}

// variant is one expansion of a rule's optional-wrapped-dictation
// branches, split into its ordered parts and tracking how far matching
// has advanced through them.
type variant struct {
	parts   []part
	index   int
	matched []string
}

func (v *variant) done() bool { return v.index >= len(v.parts) }

// SequenceRule wraps a rule whose expansion contains at least one
// Dictation, splitting it into sub-rules matched incrementally. Every
// optional-wrapped-dictation present/absent combination is tried in
// parallel as a separate variant, pruned as fragments fail to match.
type SequenceRule struct {
	Name     string
	Public   bool
	variants []*variant
}

// EntireMatch joins the fragments matched so far by the first variant
// that has matched any fragment (exhausted or not), space-separated, the
// same reconstruction
// invariant a non-split rule would have recorded against the
// concatenated input.
func (s *SequenceRule) EntireMatch() string {
	for _, v := range s.variants {
		if len(v.matched) > 0 {
			return strings.Join(v.matched, " ")
		}
	}
	return ""
}

// SubIndex reports the current sub-rule index of the first
// non-exhausted variant, or -1 if every variant is exhausted.
func (s *SequenceRule) SubIndex() int {
	for _, v := range s.variants {
		if !v.done() {
			return v.index
		}
	}
	return -1
}

// Exhausted reports whether every variant has advanced past its last
// sub-rule.
func (s *SequenceRule) Exhausted() bool {
	for _, v := range s.variants {
		if !v.done() {
			return false
		}
	}
	return true
}

// Reset rewinds every variant to its first sub-rule and clears
// accumulated matches, starting a fresh dictation context.
func (s *SequenceRule) Reset() {
	for _, v := range s.variants {
		v.index = 0
		v.matched = nil
	}
}

// Match tries fragment against the current sub-rule of every
// non-exhausted variant. It reports whether at least one variant
// matched; variants that fail are pruned. If advance is false this is a
// dry-run peek: no fragment is recorded and no variant's index moves.
// If advance is true, matched variants record fragment and move to
// their next sub-rule; a variant already past its last sub-rule never
// matches again (the source's "refuse further matches" behavior past
// the end of the sequence, chosen over wrapping to start since nothing
// in the contract implies a new utterance should silently restart the
// grammar mid-dictation).
func (s *SequenceRule) Match(fragment string, advance bool) bool {
	kept := s.variants[:0]
	matched := false
	for _, v := range s.variants {
		if v.done() {
			kept = append(kept, v)
			continue
		}
		p := v.parts[v.index]
		ok := false
		if p.dictation {
			ok = len(jsgf.Tokenize(fragment)) > 0
		} else {
			_, tail, m := p.rule.FindMatchingPart(fragment)
			ok = m && tail == ""
		}
		if !ok {
			continue
		}
		matched = true
		if advance {
			v.matched = append(v.matched, fragment)
			v.index++
		}
		kept = append(kept, v)
	}
	s.variants = kept
	return matched
}

// newSequenceRule splits r's expansion into the variant set described
// above.
func newSequenceRule(r *jsgf.Rule) (*SequenceRule, error) {
	trees, err := expandDictationExpansion(r.Expansion())
	if err != nil {
		return nil, err
	}
	sr := &SequenceRule{Name: r.Name(), Public: r.IsPublic()}
	for i, tree := range trees {
		parts := splitAtDictation(tree)
		vparts := make([]part, len(parts))
		for j, p := range parts {
			if p.dictation {
				vparts[j] = part{dictation: true}
				continue
			}
			name := fmt.Sprintf("%s$%d.%d", r.Name(), i, j)
			vparts[j] = part{rule: jsgf.NewRule(name, false, p.expansion)}
		}
		sr.variants = append(sr.variants, &variant{parts: vparts})
	}
	return sr, nil
}

// HasDictation reports whether e's subtree contains a Dictation node.
func HasDictation(e *jsgf.Expansion) bool {
	if e == nil {
		return false
	}
	found := false
	e.Walk(func(n *jsgf.Expansion) bool {
		if n.Kind() == jsgf.Dictation {
			found = true
			return false
		}
		return true
	})
	return found
}

// topLevelSequence returns root's top-level sequence as a flat slice,
// treating a non-Sequence root as a one-element sequence.
func topLevelSequence(root *jsgf.Expansion) []*jsgf.Expansion {
	if root.Kind() == jsgf.Sequence {
		return root.Children()
	}
	return []*jsgf.Expansion{root}
}

// expandDictationExpansion enumerates the finite set of trees arising
// from the present/absent choice of each top-level OptionalGrouping that
// contains a Dictation, per the source's optional-dictation expansion
// rule. A rule with no such optional has exactly one "variant": itself.
func expandDictationExpansion(root *jsgf.Expansion) ([]*jsgf.Expansion, error) {
	items := topLevelSequence(root)

	var branchIdx []int
	for i, item := range items {
		if item.Kind() == jsgf.OptionalGrouping && HasDictation(item) {
			branchIdx = append(branchIdx, i)
		}
	}
	if len(branchIdx) == 0 {
		return []*jsgf.Expansion{root}, nil
	}

	combos := 1 << len(branchIdx)
	if combos > maxVariants {
		return nil, fmt.Errorf("dictation: %d optional-dictation combinations exceeds ceiling of %d", combos, maxVariants)
	}

	var trees []*jsgf.Expansion
	for mask := 0; mask < combos; mask++ {
		present := make(map[int]bool, len(branchIdx))
		for bi, idx := range branchIdx {
			present[idx] = mask&(1<<bi) != 0
		}
		// Each item may be reused across every mask, and a Sequence's
		// own children are already attached to it, so every kept node
		// must be a fresh detached clone before it can be attached to
		// a new tree below.
		var kept []*jsgf.Expansion
		for i, item := range items {
			if absent, branched := present[i]; branched && !absent {
				continue
			}
			if branched {
				kept = append(kept, item.Children()[0].Clone())
				continue
			}
			kept = append(kept, item.Clone())
		}
		switch len(kept) {
		case 0:
			trees = append(trees, jsgf.NewNullRef())
		case 1:
			trees = append(trees, kept[0])
		default:
			trees = append(trees, jsgf.NewSequence(kept...))
		}
	}
	return trees, nil
}

type splitPart struct {
	expansion *jsgf.Expansion
	dictation bool
}

// splitAtDictation splits tree's top-level sequence into runs of
// consecutive non-dictation expansions and individual Dictation nodes.
func splitAtDictation(tree *jsgf.Expansion) []splitPart {
	items := topLevelSequence(tree)
	var out []splitPart
	var run []*jsgf.Expansion
	flush := func() {
		if len(run) == 0 {
			return
		}
		// run's items are still attached as tree's own children;
		// clone them before reusing in a detached sub-rule tree.
		var e *jsgf.Expansion
		if len(run) == 1 {
			e = run[0].Clone()
		} else {
			clones := make([]*jsgf.Expansion, len(run))
			for i, item := range run {
				clones[i] = item.Clone()
			}
			e = jsgf.NewSequence(clones...)
		}
		out = append(out, splitPart{expansion: e})
		run = nil
	}
	for _, item := range items {
		if item.Kind() == jsgf.Dictation {
			flush()
			out = append(out, splitPart{dictation: true})
			continue
		}
		run = append(run, item)
	}
	flush()
	if len(out) == 0 {
		out = append(out, splitPart{expansion: jsgf.NewNullRef()})
	}
	return out
}

// DictationGrammar wraps a Grammar, storing rules without dictation as-is
// and rules with dictation as SequenceRules, so the compiled form the
// external decoder sees is a pure JSGF grammar: dictation parts are
// matched entirely in the host.
type DictationGrammar struct {
	grammar   *jsgf.Grammar
	sequences map[string]*SequenceRule
}

// NewDictationGrammar wraps g, splitting every rule containing dictation
// into a SequenceRule.
func NewDictationGrammar(g *jsgf.Grammar) (*DictationGrammar, error) {
	dg := &DictationGrammar{grammar: g, sequences: make(map[string]*SequenceRule)}
	for _, r := range g.Rules() {
		if !HasDictation(r.Expansion()) {
			continue
		}
		sr, err := newSequenceRule(r)
		if err != nil {
			return nil, err
		}
		dg.sequences[r.Name()] = sr
	}
	return dg, nil
}

// Grammar returns the compiled, dictation-free grammar: rules with
// dictation are excluded since their sub-rules are synthetic and
// matched only through FindMatchingRules.
func (dg *DictationGrammar) Grammar() *jsgf.Grammar {
	out := jsgf.NewGrammar(dg.grammar.Name())
	out.SetCaseSensitive(dg.grammar.CaseSensitive())
	for _, r := range dg.grammar.Rules() {
		if _, ok := dg.sequences[r.Name()]; ok {
			continue
		}
		out.AddRule(r)
	}
	return out
}

// SequenceRules returns the grammar's dictation-bearing rules, by name.
func (dg *DictationGrammar) SequenceRules() map[string]*SequenceRule {
	return dg.sequences
}

// FindMatchingRules matches speech against every sequence rule's current
// sub-rule, advancing matched rules automatically when advance is true.
func (dg *DictationGrammar) FindMatchingRules(speech string, advance bool) []*SequenceRule {
	var out []*SequenceRule
	for _, sr := range dg.sequences {
		if sr.Match(speech, advance) {
			out = append(out, sr)
		}
	}
	return out
}
