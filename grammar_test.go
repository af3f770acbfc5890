package jsgf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammarAddRuleDuplicateSameExpansionIsNoOp(t *testing.T) {
	g := NewGrammar("g")
	r1 := NewRule("r", true, NewLiteral("a"))
	r2 := NewRule("r", true, NewLiteral("a"))
	require.NoError(t, g.AddRule(r1))
	assert.NoError(t, g.AddRule(r2))
}

func TestGrammarAddRuleDuplicateDifferentExpansionErrors(t *testing.T) {
	g := NewGrammar("g")
	require.NoError(t, g.AddRule(NewRule("r", true, NewLiteral("a"))))
	err := g.AddRule(NewRule("r", true, NewLiteral("b")))
	assert.Error(t, err)
	var gerr *GrammarError
	assert.ErrorAs(t, err, &gerr)
}

func TestGrammarAddRuleInvalidName(t *testing.T) {
	g := NewGrammar("g")
	err := g.AddRule(NewRule("NULL", true, NewLiteral("a")))
	assert.Error(t, err)
}

func TestGrammarRemoveRule(t *testing.T) {
	g := NewGrammar("g")
	r := NewRule("r", true, NewLiteral("a"))
	require.NoError(t, g.AddRule(r))
	removed, ok := g.RemoveRule("r")
	assert.True(t, ok)
	assert.Equal(t, r, removed)
	_, ok = g.GetRule("r")
	assert.False(t, ok)
}

func TestGrammarSetResolveBindsImports(t *testing.T) {
	weather := NewGrammar("weather")
	require.NoError(t, weather.AddRule(NewRule("forecast", true, NewLiteral("sunny"))))

	main := NewGrammar("main")
	main.AddImport(Import{GrammarName: "weather", RuleName: "forecast"})
	root := NewSequence(NewLiteral("tell"), NewLiteral("me"), NewNamedRuleRef("forecast"))
	require.NoError(t, main.AddRule(NewRule("query", true, root)))

	loader := NewLoader()
	set, err := loader.Load(func(yield func(string) bool) {})
	require.Error(t, err) // no paths: empty set is reported
	set = &GrammarSet{grammars: map[string]*Grammar{"weather": weather, "main": main}}

	require.NoError(t, set.Resolve())
	r, _ := main.GetRule("query")
	assert.True(t, r.Matches("tell me sunny"))
}

func TestGrammarSetResolveUnresolvedImportErrors(t *testing.T) {
	main := NewGrammar("main")
	main.AddImport(Import{GrammarName: "missing", RuleName: "x"})
	set := &GrammarSet{grammars: map[string]*Grammar{"main": main}}
	err := set.Resolve()
	require.Error(t, err)
	var refErr *ReferenceError
	assert.ErrorAs(t, err, &refErr)
}

func TestGrammarValidateSurfacesLeftRecursion(t *testing.T) {
	g := NewGrammar("g")
	root := NewSequence(NewNamedRuleRef("r"), NewLiteral("x"))
	require.NoError(t, g.AddRule(NewRule("r", true, root)))
	err := g.Validate()
	assert.Error(t, err)
}
