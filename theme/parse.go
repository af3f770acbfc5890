// Package theme resolves a style for each tag a matched grammar produced,
// using the same dotted-scope-to-style lookup a syntax-highlight theme
// package uses, applied here to JSGF tags instead of TextMate scopes. It
// does no terminal rendering itself.
package theme

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// PaletteJSON is the on-disk form of a Palette, loadable as JSON or plist.
type PaletteJSON struct {
	Default TagStyleJSON   `json:"default"`
	Styles  []TagStyleJSON `json:"styles"`
}

// TagStyleJSON assigns a foreground/background/font style to one or more
// dotted tag names (Scope is a single name or a list of names).
type TagStyleJSON struct {
	Scope    any `json:"scope"`
	Settings struct {
		Foreground string `json:"foreground"`
		Background string `json:"background"`
		FontStyle  string `json:"fontStyle"`
	} `json:"settings"`
}

type FontStyle int

const (
	Bold FontStyle = 1 << iota
	Italic
	Underline
	Strikethrough
)

func (s FontStyle) Has(has FontStyle) bool {
	return s&has == has
}

// TagStyle is the style applied to a matched tag.
type TagStyle struct {
	Foreground color.Color
	Background color.Color
	Children   map[string]TagStyle
	FontStyle  FontStyle
}

// Palette maps dotted tag names to styles, falling back to less specific
// prefixes of a dotted name (so a style registered for "action" also
// applies to tags named "action.stop", "action.go", ...).
type Palette struct {
	TagStyle
	Styles map[string]TagStyle
}

func setName(dest map[string]TagStyle, scope string, style TagStyle) {
	parts := strings.Split(scope, ".")
	current := dest

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		c := current[part]
		if i == len(parts)-1 {
			c.Foreground = style.Foreground
			c.Background = style.Background
			c.FontStyle = style.FontStyle
		}
		if c.Children == nil {
			c.Children = make(map[string]TagStyle)
		}
		current[part] = c
		current = c.Children
	}
}

func parseStyle(js TagStyleJSON) (style TagStyle) {
	if js.Settings.Foreground != "" {
		if c, err := parseColor(js.Settings.Foreground); err == nil {
			style.Foreground = image.NewUniform(c)
		}
	}
	if js.Settings.Background != "" {
		if c, err := parseColor(js.Settings.Background); err == nil {
			style.Background = image.NewUniform(c)
		}
	}
	for _, field := range strings.Fields(js.Settings.FontStyle) {
		switch field {
		case "bold":
			style.FontStyle |= Bold
		case "italic":
			style.FontStyle |= Italic
		case "underline":
			style.FontStyle |= Underline
		case "strikethrough":
			style.FontStyle |= Strikethrough
		}
	}
	return
}

// ParsePaletteJSON decodes and builds a Palette from raw JSON bytes.
func ParsePaletteJSON(data []byte) (*Palette, error) {
	var j PaletteJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return ParsePalette(j), nil
}

// ParsePalette builds a Palette from its decoded JSON/plist form.
func ParsePalette(j PaletteJSON) *Palette {
	styles := make(map[string]TagStyle)
	for _, js := range j.Styles {
		style := parseStyle(js)
		switch scope := js.Scope.(type) {
		case string:
			setName(styles, scope, style)
		case []any:
			for _, name := range scope {
				if s, ok := name.(string); ok {
					setName(styles, s, style)
				}
			}
		}
	}
	return &Palette{TagStyle: parseStyle(j.Default), Styles: styles}
}

// parseColor parses a "#rgb" or "#rrggbb" hex color.
func parseColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(s, "#")
	expand := func(c byte) (byte, byte) { return c, c }
	var r, g, b [2]byte
	switch len(s) {
	case 3:
		r[0], r[1] = expand(s[0])
		g[0], g[1] = expand(s[1])
		b[0], b[1] = expand(s[2])
	case 6:
		r[0], r[1] = s[0], s[1]
		g[0], g[1] = s[2], s[3]
		b[0], b[1] = s[4], s[5]
	default:
		return nil, fmt.Errorf("theme: invalid color %q", s)
	}
	rv, err := strconv.ParseUint(string(r[:]), 16, 8)
	if err != nil {
		return nil, err
	}
	gv, err := strconv.ParseUint(string(g[:]), 16, 8)
	if err != nil {
		return nil, err
	}
	bv, err := strconv.ParseUint(string(b[:]), 16, 8)
	if err != nil {
		return nil, err
	}
	return color.RGBA{R: uint8(rv), G: uint8(gv), B: uint8(bv), A: 0xff}, nil
}
