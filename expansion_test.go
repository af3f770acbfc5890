package jsgf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpansionParentInvariant(t *testing.T) {
	lit := NewLiteral("hello")
	seq := NewSequence(lit, NewLiteral("world"))
	assert.Equal(t, seq, lit.Parent())
	assert.Nil(t, seq.Parent())
}

func TestExpansionAppendChildReparents(t *testing.T) {
	lit := NewLiteral("hello")
	seqA := NewSequence(lit)
	seqB := NewSequence()
	seqA.RemoveChildAt(0)
	seqB.AppendChild(lit)
	assert.Equal(t, seqB, lit.Parent())
	assert.Empty(t, seqA.Children())
}

func TestExpansionAppendChildAlreadyAttachedPanics(t *testing.T) {
	lit := NewLiteral("hello")
	NewSequence(lit)
	seqB := NewSequence()
	assert.Panics(t, func() {
		seqB.AppendChild(lit)
	})
}

func TestExpansionAttachCycleFatal(t *testing.T) {
	seq := NewSequence(NewLiteral("a"))
	assert.Panics(t, func() {
		seq.AppendChild(seq)
	})
}

func TestExpansionTags(t *testing.T) {
	lit := NewLiteral("go")
	lit.AddTag("action")
	lit.AddTag("verb")
	assert.Equal(t, []string{"action", "verb"}, lit.Tags())
}

func TestExpansionClearMatchUnsetsMatch(t *testing.T) {
	lit := NewLiteral("hi")
	lit.setMatch(Span{0, 1})
	_, ok := lit.Match()
	require.True(t, ok)
	lit.clearMatch()
	_, ok = lit.Match()
	assert.False(t, ok)
}

func TestSpanLen(t *testing.T) {
	assert.Equal(t, 3, Span{2, 5}.Len())
}

func TestNewWeightedAlternativeSetLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewWeightedAlternativeSet([]*Expansion{NewLiteral("a")}, []float64{1, 2})
	})
}
