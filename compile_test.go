package jsgf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exTree is a plain, cmp-comparable projection of an Expansion subtree,
// used to diff structure rather than just the compiled text.
type exTree struct {
	Kind     string
	Text     string
	RefName  string
	Tags     []string
	Children []exTree
}

func dumpTree(e *Expansion) exTree {
	if e == nil {
		return exTree{}
	}
	t := exTree{Kind: e.Kind().String(), Text: e.Text(), RefName: e.RefName(), Tags: e.Tags()}
	for _, c := range e.Children() {
		t.Children = append(t.Children, dumpTree(c))
	}
	return t
}

func TestCompileLiteral(t *testing.T) {
	e := NewLiteral("hello world")
	assert.Equal(t, "hello world", compileExpansion(e, precedenceLowest))
}

func TestCompileAlternativeSetParenthesizedInSequence(t *testing.T) {
	alt := NewAlternativeSet(NewLiteral("cat"), NewLiteral("dog"))
	seq := NewSequence(NewLiteral("a"), alt)
	assert.Equal(t, "a (cat | dog)", compileExpansion(seq, precedenceLowest))
}

func TestCompileWeightedAlternatives(t *testing.T) {
	alt := NewWeightedAlternativeSet([]*Expansion{NewLiteral("a"), NewLiteral("b")}, []float64{2, 1})
	assert.Equal(t, "/2/ a | /1/ b", compileExpansion(alt, precedenceLowest))
}

func TestCompileKleeneStarRequiresParensAroundSequence(t *testing.T) {
	seq := NewSequence(NewLiteral("a"), NewLiteral("b"))
	star := NewKleeneStar(seq)
	assert.Equal(t, "(a b)*", compileExpansion(star, precedenceLowest))
}

func TestCompileKleeneStarRequiresParensAroundMultiWordLiteral(t *testing.T) {
	star := NewKleeneStar(NewLiteral("go now"))
	text := compileExpansion(star, precedenceLowest)
	assert.Equal(t, "(go now)*", text)

	g := NewGrammar("g")
	require.NoError(t, g.AddRule(NewRule("r", true, star)))
	reparsed, err := ParseGrammar(g.Compile())
	require.NoError(t, err)
	r, ok := reparsed.GetRule("r")
	require.True(t, ok)
	root := r.Expansion()
	require.Equal(t, KleeneStar, root.Kind())
	grp := root.Children()[0]
	require.Equal(t, RequiredGrouping, grp.Kind())
	require.Len(t, grp.Children(), 1)
	require.Equal(t, Literal, grp.Children()[0].Kind())
	assert.Equal(t, "go now", grp.Children()[0].Text())
}

func TestCompileOptionalGrouping(t *testing.T) {
	opt := NewOptionalGrouping(NewLiteral("please"))
	assert.Equal(t, "[ please ]", compileExpansion(opt, precedenceLowest))
}

func TestCompileTags(t *testing.T) {
	lit := NewLiteral("stop")
	lit.AddTag("action")
	assert.Equal(t, "stop { action }", compileExpansion(lit, precedenceLowest))
}

func TestGrammarCompileRoundTrip(t *testing.T) {
	g := NewGrammar("weather")
	root := NewSequence(NewLiteral("what is"),
		NewOptionalGrouping(NewLiteral("the")), NewNamedRuleRef("topic"))
	require.NoError(t, g.AddRule(NewRule("query", true, root)))
	require.NoError(t, g.AddRule(NewRule("topic", false, NewAlternativeSet(NewLiteral("weather"), NewLiteral("forecast")))))

	text := g.Compile()
	reparsed, err := ParseGrammar(text)
	require.NoError(t, err)
	assert.Equal(t, text, reparsed.Compile())

	reparsedRule, ok := reparsed.GetRule("query")
	require.True(t, ok)
	if diff := cmp.Diff(dumpTree(root), dumpTree(reparsedRule.Expansion())); diff != "" {
		t.Errorf("round-tripped tree differs from original (-want +got):\n%s", diff)
	}
}
