package jsgf

import (
	"strconv"
	"strings"
)

// Precedence levels used by compileExpansion to decide when a child needs
// parenthesizing, tightest binding last: atoms > Kleene/repeat > sequence
// > alternation.
const (
	precedenceLowest   = iota // top of a rule body, or inside [ ]/( ): alternation needs no parens
	precedenceSequence        // a child of a Sequence: alternation must be parenthesized
	precedenceAtom            // a child of * or +: anything but a single atom must be parenthesized
)

// compileExpansion renders e as canonical JSGF, given the precedence
// context it appears in, and appends any tags.
func compileExpansion(e *Expansion, prec int) string {
	if e == nil {
		return ""
	}
	return appendTags(compileCore(e, prec), e.tags)
}

func appendTags(s string, tags []string) string {
	if len(tags) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(s)
	for _, t := range tags {
		b.WriteString(" { ")
		b.WriteString(t)
		b.WriteString(" }")
	}
	return b.String()
}

func compileCore(e *Expansion, prec int) string {
	switch e.kind {
	case Literal:
		if prec >= precedenceAtom && len(strings.Fields(e.text)) > 1 {
			return "(" + e.text + ")"
		}
		return e.text
	case NullRef:
		return "<NULL>"
	case VoidRef:
		return "<VOID>"
	case Dictation:
		return "<DICTATION>"
	case NamedRuleRef:
		return "<" + e.refName + ">"
	case RuleRef:
		name := ""
		if e.refRule != nil {
			name = e.refRule.name
		}
		return "<" + name + ">"
	case Sequence:
		s := joinChildren(e.children, precedenceSequence, " ")
		if prec > precedenceSequence {
			return "(" + s + ")"
		}
		return s
	case RequiredGrouping:
		return "(" + joinChildren(e.children, precedenceLowest, " ") + ")"
	case OptionalGrouping:
		return "[ " + compileExpansion(e.children[0], precedenceLowest) + " ]"
	case AlternativeSet:
		s := compileAlternatives(e)
		if prec > precedenceLowest {
			return "(" + s + ")"
		}
		return s
	case KleeneStar:
		return compileExpansion(e.children[0], precedenceAtom) + "*"
	case Repeat:
		return compileExpansion(e.children[0], precedenceAtom) + "+"
	default:
		return ""
	}
}

func joinChildren(children []*Expansion, prec int, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = compileExpansion(c, prec)
	}
	return strings.Join(parts, sep)
}

func compileAlternatives(e *Expansion) string {
	weighted := len(e.weights) == len(e.children) && len(e.children) > 0
	parts := make([]string, len(e.children))
	for i, c := range e.children {
		part := compileExpansion(c, precedenceSequence)
		if weighted {
			part = "/" + formatWeight(e.weights[i]) + "/ " + part
		}
		parts[i] = part
	}
	return strings.Join(parts, " | ")
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
