package jsgf

import (
	"cmp"
	"iter"
	"slices"
)

// CoverageMap is a token-index→nodes structure recording, for each matched
// token position, the set of expansion nodes whose span covered it. Useful
// for debug tooling that wants to render only when the set of active nodes
// changes, e.g. highlighting which rule/tag produced each word of a match.
type CoverageMap [][]*Expansion

// NewCoverageMap returns a CoverageMap sized for an utterance of n tokens.
func NewCoverageMap(n int) CoverageMap {
	return make(CoverageMap, n)
}

// Add records n as covering every token position in its own match span.
// A node with no recorded match (it took no part in the match) is ignored.
func (cm CoverageMap) Add(n *Expansion) {
	sp, ok := n.Match()
	if !ok {
		return
	}
	for i := sp.Start; i < sp.End && i < len(cm); i++ {
		cm[i] = append(cm[i], n)
	}
}

// AddTree adds every node of root's subtree that took part in the match.
func (cm CoverageMap) AddTree(root *Expansion) {
	if root == nil {
		return
	}
	root.Walk(func(n *Expansion) bool {
		cm.Add(n)
		return true
	})
}

func compareNode(a, b *Expansion) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.text, b.text); c != 0 {
		return c
	}
	return cmp.Compare(a.refName, b.refName)
}

// Iter returns an iterator yielding (pos, nodes) whenever the active node
// set changes between adjacent token positions.
func (cm CoverageMap) Iter() iter.Seq2[int, []*Expansion] {
	return func(yield func(int, []*Expansion) bool) {
		var prev []*Expansion
		for i, cur := range cm {
			slices.SortFunc(cur, compareNode)
			if !slices.EqualFunc(prev, cur, func(a, b *Expansion) bool { return a == b }) {
				if !yield(i, cur) {
					return
				}
				prev = cur
			}
		}
	}
}
