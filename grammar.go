package jsgf

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Import is one `import <qualified.rule>;` or `import <qualified.*>;` line.
// GrammarName is the dotted grammar name; RuleName is either a bare rule
// name or "*" for a wildcard import of every public rule.
type Import struct {
	GrammarName string
	RuleName    string
}

// IsWildcard reports whether the import names every rule of its grammar.
func (i Import) IsWildcard() bool { return i.RuleName == "*" }

// String renders the import's qualified name, e.g. "weather.forecast" or
// "weather.*".
func (i Import) String() string {
	return i.GrammarName + "." + i.RuleName
}

// Grammar is an ordered, name-unique collection of Rules plus imports and
// header metadata.
type Grammar struct {
	Version  string
	Charset  string
	Language string

	name          string
	caseSensitive bool

	ruleOrder []string
	rules     map[string]*Rule

	imports []Import

	// populated by GrammarSet.Resolve; maps an imported grammar's dotted
	// name to the Grammar object itself, so resolveRuleName can look
	// through a wildcard or qualified import.
	importedGrammars map[string]*Grammar

	compiledCache string
	compiledGen   int
	generation    int
}

// NewGrammar returns an empty grammar named name with JSGF 1.0/UTF-8/en
// header defaults.
func NewGrammar(name string) *Grammar {
	return &Grammar{
		Version:  "1.0",
		Charset:  "UTF-8",
		Language: "en",
		name:     name,
		rules:    make(map[string]*Rule),
	}
}

// Name returns the grammar's dotted name.
func (g *Grammar) Name() string { return g.name }

// CaseSensitive returns the grammar's default case policy, used by rules
// that do not override it.
func (g *Grammar) CaseSensitive() bool { return g.caseSensitive }

// SetCaseSensitive changes the grammar's default case policy.
func (g *Grammar) SetCaseSensitive(sensitive bool) {
	g.caseSensitive = sensitive
	g.invalidateCaches()
}

func (g *Grammar) invalidateCaches() {
	g.generation++
	for _, r := range g.rules {
		r.invalidateCaches()
	}
}

// isValidRuleName reports whether name is an acceptable (possibly dotted)
// JSGF identifier: non-empty, no reserved characters, and not a reserved
// word.
func isValidRuleName(name string) bool {
	if name == "" {
		return false
	}
	switch name {
	case "NULL", "VOID", "public", "grammar", "import":
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return false
		}
		if strings.ContainsRune("()[]<>/|*+;={}#", r) {
			return false
		}
	}
	return true
}

// AddRule adds rule to the grammar. A rule whose name clashes with an
// existing, structurally different rule is a GrammarError; adding an
// equal rule again is a silent no-op; an invalid name is a GrammarError.
func (g *Grammar) AddRule(r *Rule) error {
	if !isValidRuleName(r.name) {
		return &GrammarError{Reason: "invalid rule name", Name: r.name}
	}
	if existing, ok := g.rules[r.name]; ok {
		if existing == r || existing.Compile() == r.Compile() {
			return nil
		}
		return &GrammarError{Reason: "duplicate rule name with different expansion", Name: r.name}
	}
	r.grammar = g
	g.rules[r.name] = r
	g.ruleOrder = append(g.ruleOrder, r.name)
	g.invalidateCaches()
	return nil
}

// RemoveRule removes the rule named name, reporting whether it was
// present.
func (g *Grammar) RemoveRule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	if !ok {
		return nil, false
	}
	delete(g.rules, name)
	for i, n := range g.ruleOrder {
		if n == name {
			g.ruleOrder = append(g.ruleOrder[:i:i], g.ruleOrder[i+1:]...)
			break
		}
	}
	r.grammar = nil
	g.invalidateCaches()
	return r, true
}

// GetRule returns the rule named name, if present.
func (g *Grammar) GetRule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// GetRulesByName resolves name against the grammar's own rules and its
// imports, returning every rule that a reference to name could mean.
func (g *Grammar) GetRulesByName(name string) []*Rule {
	var out []*Rule
	if r, ok := g.rules[name]; ok {
		out = append(out, r)
	}
	for _, imp := range g.imports {
		og, ok := g.importedGrammars[imp.GrammarName]
		if !ok {
			continue
		}
		if imp.IsWildcard() {
			if r, ok := og.rules[name]; ok {
				out = append(out, r)
			}
			continue
		}
		if imp.RuleName == name {
			if r, ok := og.rules[name]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// resolveRuleName is the matcher's single-result lookup: the grammar's own
// rule by that name, or a fully-qualified "grammar.rule" import, or a
// bare name reached through one of the grammar's imports.
func (g *Grammar) resolveRuleName(name string) *Rule {
	if r, ok := g.rules[name]; ok {
		return r
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		gname, rname := name[:idx], name[idx+1:]
		if og, ok := g.importedGrammars[gname]; ok {
			if r, ok := og.rules[rname]; ok {
				return r
			}
		}
	}
	for _, imp := range g.imports {
		og, ok := g.importedGrammars[imp.GrammarName]
		if !ok {
			continue
		}
		if imp.IsWildcard() || imp.RuleName == name {
			if r, ok := og.rules[name]; ok {
				return r
			}
		}
	}
	return nil
}

// AddImport appends imp if it is not already present.
func (g *Grammar) AddImport(imp Import) {
	for _, existing := range g.imports {
		if existing == imp {
			return
		}
	}
	g.imports = append(g.imports, imp)
	g.invalidateCaches()
}

// RemoveImport removes imp, reporting a GrammarError if it was never
// added. Go's type system already enforces "only by object, not by
// string": there is no overload accepting a raw string.
func (g *Grammar) RemoveImport(imp Import) error {
	for i, existing := range g.imports {
		if existing == imp {
			g.imports = append(g.imports[:i:i], g.imports[i+1:]...)
			g.invalidateCaches()
			return nil
		}
	}
	return &GrammarError{Reason: "no such import", Name: imp.String()}
}

// ImportNames returns the grammar's imports in declaration order.
func (g *Grammar) ImportNames() []Import {
	return append([]Import(nil), g.imports...)
}

// Rules returns the grammar's rules in declaration order.
func (g *Grammar) Rules() []*Rule {
	out := make([]*Rule, len(g.ruleOrder))
	for i, name := range g.ruleOrder {
		out[i] = g.rules[name]
	}
	return out
}

// FindMatchingRules returns every rule in the grammar that matches speech.
func (g *Grammar) FindMatchingRules(speech string) []*Rule {
	var out []*Rule
	for _, r := range g.Rules() {
		if r.Matches(speech) {
			out = append(out, r)
		}
	}
	return out
}

// Validate eagerly checks every rule for a buildable matcher (direct left
// recursion) and reports the first MatcherBuildError encountered, if any.
func (g *Grammar) Validate() error {
	for _, r := range g.Rules() {
		if err := r.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Compile renders the grammar as canonical JSGF text: header, `grammar`
// declaration, imports, then rules in declaration order.
func (g *Grammar) Compile() string {
	if g.compiledCache != "" && g.compiledGen == g.generation {
		return g.compiledCache
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#JSGF V%s %s %s;\n", g.Version, g.Charset, g.Language)
	fmt.Fprintf(&b, "grammar %s;\n", g.name)
	for _, imp := range g.imports {
		fmt.Fprintf(&b, "import <%s>;\n", imp.String())
	}
	for _, r := range g.Rules() {
		b.WriteString(r.Compile())
		b.WriteString("\n")
	}
	text := b.String()
	g.compiledCache = text
	g.compiledGen = g.generation
	return text
}

// CompileToFile writes the grammar's compiled form to path.
func (g *Grammar) CompileToFile(path string) error {
	return os.WriteFile(path, []byte(g.Compile()), 0o644)
}
