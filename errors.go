package jsgf

import "fmt"

// ParseError reports a malformed JSGF source document. Offset is a byte
// offset into the source that was being parsed, Production names the
// grammar production that failed (e.g. "expansion", "rule", "tag"), and
// Token is the text of the offending token.
type ParseError struct {
	Offset     int
	Production string
	Token      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsgf: parse error at offset %d in %s: unexpected %q", e.Offset, e.Production, e.Token)
}

// GrammarError reports a structural problem adding or removing rules and
// imports on a Grammar: a duplicate non-equal rule name, an invalid rule
// name, or removal of an import that was never added.
type GrammarError struct {
	Reason string
	Name   string
}

func (e *GrammarError) Error() string {
	if e.Name == "" {
		return "jsgf: grammar error: " + e.Reason
	}
	return fmt.Sprintf("jsgf: grammar error: %s: %q", e.Reason, e.Name)
}

// ReferenceError reports a rule reference that could not be resolved
// against a grammar and its imports.
type ReferenceError struct {
	RuleName    string
	GrammarName string
}

func (e *ReferenceError) Error() string {
	if e.GrammarName == "" {
		return fmt.Sprintf("jsgf: unresolved rule reference <%s>", e.RuleName)
	}
	return fmt.Sprintf("jsgf: unresolved rule reference <%s> in grammar %q", e.RuleName, e.GrammarName)
}

// MatcherBuildError reports that an expansion tree could not be compiled
// into a matcher element: direct left recursion, or an expansion of unknown
// kind. A reference to a rule that cannot be resolved is not a build error;
// matching through it simply fails.
type MatcherBuildError struct {
	RuleName string
	Reason   string
}

func (e *MatcherBuildError) Error() string {
	return fmt.Sprintf("jsgf: cannot build matcher for rule %q: %s", e.RuleName, e.Reason)
}
