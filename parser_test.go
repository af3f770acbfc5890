package jsgf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrammarBasic(t *testing.T) {
	src := `#JSGF V1.0 UTF-8 en;
grammar weather;
public <query> = what is [the] <topic>;
<topic> = weather | forecast;
`
	g, err := ParseGrammar(src)
	require.NoError(t, err)
	assert.Equal(t, "weather", g.Name())
	assert.Equal(t, "1.0", g.Version)
	r, ok := g.GetRule("query")
	require.True(t, ok)
	assert.True(t, r.IsPublic())
}

func TestParseMergesAdjacentLiterals(t *testing.T) {
	e, err := ParseExpansion("hello world")
	require.NoError(t, err)
	assert.Equal(t, Literal, e.Kind())
	assert.Equal(t, "hello world", e.Text())
}

func TestParseRequiredGroupingFlattensSequence(t *testing.T) {
	e, err := ParseExpansion("(a <b>)")
	require.NoError(t, err)
	assert.Equal(t, RequiredGrouping, e.Kind())
	require.Len(t, e.Children(), 2)
	assert.Equal(t, "a", e.Children()[0].Text())
}

func TestParseRequiredGroupingPreservesSingleChild(t *testing.T) {
	e, err := ParseExpansion("(a | b)")
	require.NoError(t, err)
	require.Equal(t, RequiredGrouping, e.Kind())
	require.Len(t, e.Children(), 1)
	assert.Equal(t, AlternativeSet, e.Children()[0].Kind())
}

func TestParseImportWildcard(t *testing.T) {
	src := `grammar a;
import <weather.*>;
public <r> = go;
`
	g, err := ParseGrammar(src)
	require.NoError(t, err)
	require.Len(t, g.ImportNames(), 1)
	assert.True(t, g.ImportNames()[0].IsWildcard())
	assert.Equal(t, "weather", g.ImportNames()[0].GrammarName)
}

func TestParseWeightedAlternatives(t *testing.T) {
	e, err := ParseExpansion("/2/ cat | /1/ dog")
	require.NoError(t, err)
	require.Equal(t, AlternativeSet, e.Kind())
	assert.Equal(t, []float64{2, 1}, e.Weights())
}

func TestParseRepeatAndKleene(t *testing.T) {
	e, err := ParseExpansion("a+ b*")
	require.NoError(t, err)
	require.Equal(t, Sequence, e.Kind())
	assert.Equal(t, Repeat, e.Children()[0].Kind())
	assert.Equal(t, KleeneStar, e.Children()[1].Kind())
}

func TestParseTagAttachesToAtom(t *testing.T) {
	e, err := ParseExpansion("stop {action}")
	require.NoError(t, err)
	assert.Equal(t, []string{"action"}, e.Tags())
}

func TestParseSpecialRuleRefs(t *testing.T) {
	e, err := ParseExpansion("<NULL>")
	require.NoError(t, err)
	assert.Equal(t, NullRef, e.Kind())

	e, err = ParseExpansion("<VOID>")
	require.NoError(t, err)
	assert.Equal(t, VoidRef, e.Kind())

	e, err = ParseExpansion("<DICTATION>")
	require.NoError(t, err)
	assert.Equal(t, Dictation, e.Kind())
}

func TestParseErrorReportsOffset(t *testing.T) {
	_, err := ParseGrammar("grammar a")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 9, perr.Offset)
}
