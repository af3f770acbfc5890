package theme

import (
	"strings"

	"github.com/drmfinlay/jsgf-go"
)

// TagSpan pairs a matched tag name with the token span it covered and the
// style resolved for it. cmd/jsgfc's match --palette output prints one
// line per TagSpan with its tag and span, as plain text without the style.
type TagSpan struct {
	Tag   string
	Span  jsgf.Span
	Style TagStyle
}

func getSplitted(current map[string]TagStyle, name string) (TagStyle, bool) {
	for name != "" {
		s, ok := current[name]
		if ok {
			return s, true
		}
		i := strings.LastIndexByte(name, '.')
		if i == -1 {
			break
		}
		name = name[:i]
	}
	return TagStyle{}, false
}

func (p *Palette) styleFor(tag string) (TagStyle, bool) {
	current := p.Styles
	var last TagStyle
	found := false

	for _, part := range strings.Split(tag, ".") {
		c, ok := getSplitted(current, part)
		if !ok {
			break
		}
		last = c
		found = true
		current = c.Children
	}
	return last, found
}

// Spans walks a matched expansion tree and returns one TagSpan per tagged
// node that took part in the match, styled through the palette (falling
// back to its Default style for tags that have no specific entry).
func (p *Palette) Spans(root *jsgf.Expansion) []TagSpan {
	var out []TagSpan
	if root == nil {
		return out
	}
	root.Walk(func(n *jsgf.Expansion) bool {
		sp, ok := n.Match()
		if !ok {
			return true
		}
		for _, tag := range n.Tags() {
			style, ok := p.styleFor(tag)
			if !ok {
				style = p.TagStyle
			}
			out = append(out, TagSpan{Tag: tag, Span: sp, Style: style})
		}
		return true
	})
	return out
}
