package jsgf

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleWithLoggerTracesBacktracking(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)
	root := NewAlternativeSet(NewLiteral("cat"), NewLiteral("dog"))
	r := NewRule("pet", true, root).WithLogger(&logger)

	assert.True(t, r.Matches("dog"))
	assert.Contains(t, buf.String(), "alt-backtrack")
	assert.Contains(t, buf.String(), "alt-take")
}

func TestRuleMatchesLiteral(t *testing.T) {
	r := NewRule("greet", true, NewLiteral("hello world"))
	assert.True(t, r.Matches("hello world"))
	assert.False(t, r.Matches("hello there"))
}

func TestRuleMatchesAllowsTrailingTokens(t *testing.T) {
	r := NewRule("greet", true, NewLiteral("hello"))
	assert.True(t, r.Matches("hello world"))
}

func TestRuleMatchesOptional(t *testing.T) {
	root := NewSequence(NewLiteral("open"), NewOptionalGrouping(NewLiteral("the")), NewLiteral("door"))
	r := NewRule("open_door", true, root)
	assert.True(t, r.Matches("open the door"))
	assert.True(t, r.Matches("open door"))
	assert.True(t, r.Matches("open door now"))
}

func TestRuleMatchesAlternative(t *testing.T) {
	root := NewAlternativeSet(NewLiteral("cat"), NewLiteral("dog"))
	r := NewRule("pet", true, root)
	assert.True(t, r.Matches("cat"))
	assert.True(t, r.Matches("dog"))
	assert.False(t, r.Matches("fish"))
}

func TestRuleMatchesKleeneStarZeroOrMore(t *testing.T) {
	root := NewSequence(NewLiteral("go"), NewKleeneStar(NewLiteral("fast")))
	r := NewRule("go_fast", true, root)
	assert.True(t, r.Matches("go"))
	assert.True(t, r.Matches("go fast"))
	assert.True(t, r.Matches("go fast fast fast"))
}

func TestRuleMatchesRepeatRequiresOne(t *testing.T) {
	root := NewSequence(NewLiteral("go"), NewRepeat(NewLiteral("fast")))
	r := NewRule("go_fast", true, root)
	assert.False(t, r.Matches("go"))
	assert.True(t, r.Matches("go fast"))
}

func TestRuleMatchesNamedRuleRef(t *testing.T) {
	g := NewGrammar("test")
	require.NoError(t, g.AddRule(NewRule("pet", false, NewAlternativeSet(NewLiteral("cat"), NewLiteral("dog")))))
	root := NewSequence(NewLiteral("i"), NewLiteral("have"), NewLiteral("a"), NewNamedRuleRef("pet"))
	require.NoError(t, g.AddRule(NewRule("statement", true, root)))

	r, _ := g.GetRule("statement")
	assert.True(t, r.Matches("i have a cat"))
	assert.False(t, r.Matches("i have a fish"))
}

func TestRuleMatchesNullAndVoid(t *testing.T) {
	r := NewRule("n", true, NewSequence(NewLiteral("a"), NewNullRef(), NewLiteral("b")))
	assert.True(t, r.Matches("a b"))

	v := NewRule("v", true, NewVoidRef())
	assert.False(t, v.Matches(""))
	assert.False(t, v.Matches("anything"))
}

func TestRuleMatchesDictationGreedyAtEnd(t *testing.T) {
	root := NewSequence(NewLiteral("say"), NewDictation())
	r := NewRule("say", true, root)
	node, tail, ok := r.FindMatchingPart("say hello there friend")
	require.True(t, ok)
	assert.Equal(t, "", tail)
	assert.NotNil(t, node)
}

func TestRuleMatchesDictationStopsAtAnchor(t *testing.T) {
	root := NewSequence(NewDictation(), NewLiteral("world"))
	r := NewRule("dictation_anchor", true, root)
	ok, tokens, end := r.match("hello cruel world world")
	require.True(t, ok)
	// Dictation must stop at the *earliest* position where "world" can
	// follow, not consume greedily through the last "world".
	assert.Equal(t, 3, end)
	assert.Equal(t, []string{"hello", "cruel", "world", "world"}, tokens)
}

func TestRuleRejectsDirectLeftRecursion(t *testing.T) {
	self := NewNamedRuleRef("loop")
	root := NewSequence(self, NewLiteral("x"))
	r := NewRule("loop", true, root)
	g := NewGrammar("g")
	require.NoError(t, g.AddRule(r))
	err := r.Check()
	assert.Error(t, err)
	var buildErr *MatcherBuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestRuleCaseSensitivityCascade(t *testing.T) {
	g := NewGrammar("g")
	g.SetCaseSensitive(true)
	r := NewRule("r", true, NewLiteral("Hello"))
	require.NoError(t, g.AddRule(r))
	assert.True(t, r.Matches("Hello"))
	assert.False(t, r.Matches("hello"))

	falseVal := false
	r.SetCaseSensitive(&falseVal)
	assert.True(t, r.Matches("hello"))
}

func TestCoverageMapTracksTaggedSpans(t *testing.T) {
	verb := NewLiteral("stop")
	verb.AddTag("action")
	root := NewSequence(NewLiteral("please"), verb)
	r := NewRule("cmd", true, root)
	require.True(t, r.Matches("please stop"))

	cm := NewCoverageMap(2)
	cm.AddTree(root)
	var positions []int
	for pos := range cm.Iter() {
		positions = append(positions, pos)
	}
	assert.NotEmpty(t, positions)
}
