package theme

import (
	"testing"

	"github.com/drmfinlay/jsgf-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorShortAndLongForm(t *testing.T) {
	c, err := parseColor("#fff")
	require.NoError(t, err)
	r, g, b, a := c.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)

	_, err = parseColor("#1a2b3c")
	assert.NoError(t, err)

	_, err = parseColor("#zz")
	assert.Error(t, err)
}

func TestParsePaletteJSONLongestPrefixFallback(t *testing.T) {
	data := []byte(`{
		"default": {"settings": {"foreground": "#ffffff"}},
		"styles": [
			{"scope": "action", "settings": {"foreground": "#ff0000", "fontStyle": "bold"}},
			{"scope": "action.stop", "settings": {"foreground": "#00ff00"}}
		]
	}`)
	p, err := ParsePaletteJSON(data)
	require.NoError(t, err)

	style, ok := p.styleFor("action.go")
	require.True(t, ok)
	r, _, _, _ := style.Foreground.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.True(t, style.FontStyle.Has(Bold))

	style, ok = p.styleFor("action.stop")
	require.True(t, ok)
	_, g, _, _ := style.Foreground.RGBA()
	assert.Equal(t, uint32(0xffff), g)

	_, ok = p.styleFor("unknown")
	assert.False(t, ok)
}

func TestPaletteSpansWalksMatchedTags(t *testing.T) {
	verb := jsgf.NewLiteral("stop")
	verb.AddTag("action")
	root := jsgf.NewSequence(jsgf.NewLiteral("please"), verb)
	r := jsgf.NewRule("cmd", true, root)
	require.True(t, r.Matches("please stop"))

	p, err := ParsePaletteJSON([]byte(`{"styles": [{"scope": "action", "settings": {"foreground": "#ff0000"}}]}`))
	require.NoError(t, err)
	spans := p.Spans(root)
	require.Len(t, spans, 1)
	assert.Equal(t, "action", spans[0].Tag)
}
