package jsgf

import (
	"strconv"
	"strings"
)

// parser is a hand-written recursive-descent parser over the JSGF token
// stream. Implemented directly rather than through a generic PEG engine
// so that failures carry an exact offset/production/token triple.
type parser struct {
	lex *lexer
	tok token
}

func newParser(src string) *parser {
	p := &parser{lex: newLexer(src)}
	p.advance()
	return p
}

func (p *parser) advance() { p.tok = p.lex.next() }

func (p *parser) errorf(production string) error {
	text := p.tok.text
	if p.tok.kind == tokEOF {
		text = "<EOF>"
	}
	return &ParseError{Offset: p.tok.offset, Production: production, Token: text}
}

func (p *parser) expect(k tokenKind, production string) (token, error) {
	if p.tok.kind != k {
		return token{}, p.errorf(production)
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *parser) atWord(text string) bool {
	return p.tok.kind == tokWord && p.tok.text == text
}

// ParseGrammar parses a full JSGF grammar document: an optional header
// line, a mandatory `grammar <name>;` declaration, zero or more imports,
// and one or more rule definitions.
func ParseGrammar(src string) (*Grammar, error) {
	p := newParser(src)
	g := NewGrammar("")

	if p.tok.kind == tokHash {
		if err := p.parseHeader(g); err != nil {
			return nil, err
		}
	}

	if !p.atWord("grammar") {
		return nil, p.errorf("grammar")
	}
	p.advance()
	nameTok, err := p.expect(tokWord, "grammar-name")
	if err != nil {
		return nil, err
	}
	g.name = nameTok.text
	if _, err := p.expect(tokSemi, "grammar"); err != nil {
		return nil, err
	}

	for p.atWord("import") {
		p.advance()
		if _, err := p.expect(tokLT, "import"); err != nil {
			return nil, err
		}
		imp, err := p.parseImportRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokGT, "import"); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemi, "import"); err != nil {
			return nil, err
		}
		g.AddImport(imp)
	}

	if p.tok.kind == tokEOF {
		return nil, p.errorf("rule")
	}
	for p.tok.kind != tokEOF {
		r, err := p.parseRuleDef()
		if err != nil {
			return nil, err
		}
		if err := g.AddRule(r); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ParseRule parses a single `[public] <name> = expansion;` definition.
func ParseRule(src string) (*Rule, error) {
	p := newParser(src)
	r, err := p.parseRuleDef()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("rule")
	}
	return r, nil
}

// ParseExpansion parses a bare expansion right-hand side with no
// surrounding `<name> = ... ;`.
func ParseExpansion(src string) (*Expansion, error) {
	p := newParser(src)
	e, err := p.parseAlternativeSet()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("expansion")
	}
	return e, nil
}

func (p *parser) parseHeader(g *Grammar) error {
	if _, err := p.expect(tokHash, "header"); err != nil {
		return err
	}
	jsgfTok, err := p.expect(tokWord, "header")
	if err != nil {
		return err
	}
	if jsgfTok.text != "JSGF" {
		return &ParseError{Offset: jsgfTok.offset, Production: "header", Token: jsgfTok.text}
	}
	var words []string
	for p.tok.kind == tokWord {
		words = append(words, p.tok.text)
		p.advance()
	}
	if _, err := p.expect(tokSemi, "header"); err != nil {
		return err
	}
	if len(words) > 0 {
		g.Version = strings.TrimPrefix(words[0], "V")
	}
	if len(words) > 1 {
		g.Charset = words[1]
	}
	if len(words) > 2 {
		g.Language = words[2]
	}
	return nil
}

// parseImportRef parses the qualified-name body of `import <...>;`: either
// a fully-qualified rule name ("grammar.rule") or a wildcard
// ("grammar.*", lexed as the word "grammar." followed by a '*' token since
// '*' is reserved).
func (p *parser) parseImportRef() (Import, error) {
	tok, err := p.expect(tokWord, "import")
	if err != nil {
		return Import{}, err
	}
	raw := tok.text
	if p.tok.kind == tokStar {
		p.advance()
		return Import{GrammarName: strings.TrimSuffix(raw, "."), RuleName: "*"}, nil
	}
	idx := strings.LastIndex(raw, ".")
	if idx < 0 {
		return Import{}, &ParseError{Offset: tok.offset, Production: "import", Token: raw}
	}
	return Import{GrammarName: raw[:idx], RuleName: raw[idx+1:]}, nil
}

func (p *parser) parseRuleDef() (*Rule, error) {
	public := false
	if p.atWord("public") {
		public = true
		p.advance()
	}
	if _, err := p.expect(tokLT, "rule"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokWord, "rule")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokGT, "rule"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEquals, "rule"); err != nil {
		return nil, err
	}
	exp, err := p.parseAlternativeSet()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "rule"); err != nil {
		return nil, err
	}
	return NewRule(nameTok.text, public, exp), nil
}

// parseAlternativeSet parses a `|`-separated list of sequences, each
// optionally preceded by a `/weight/`. A single alternative is returned
// unwrapped: one alternative is just that alternative, not a set of one.
func (p *parser) parseAlternativeSet() (*Expansion, error) {
	var children []*Expansion
	var weights []float64
	hasWeight := false
	for {
		w, wok, err := p.parseOptionalWeight()
		if err != nil {
			return nil, err
		}
		seq, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		children = append(children, seq)
		weights = append(weights, w)
		if wok {
			hasWeight = true
		}
		if p.tok.kind != tokPipe {
			break
		}
		p.advance()
	}
	if len(children) == 1 {
		return children[0], nil
	}
	if hasWeight {
		return NewWeightedAlternativeSet(children, weights), nil
	}
	return NewAlternativeSet(children...), nil
}

func (p *parser) parseOptionalWeight() (float64, bool, error) {
	if p.tok.kind != tokSlash {
		return 0, false, nil
	}
	p.advance()
	numTok, err := p.expect(tokWord, "weight")
	if err != nil {
		return 0, false, err
	}
	if _, err := p.expect(tokSlash, "weight"); err != nil {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(numTok.text, 64)
	if err != nil {
		return 0, false, &ParseError{Offset: numTok.offset, Production: "weight", Token: numTok.text}
	}
	return f, true, nil
}

func isSequenceItemStart(t token) bool {
	switch t.kind {
	case tokWord, tokLT, tokLParen, tokLBracket:
		return true
	default:
		return false
	}
}

// parseSequence parses a run of atoms. Adjacent plain (untagged, un-
// postfixed) word literals collapse into a single Literal node, since
// JSGF source text cannot otherwise distinguish "hello world" as one
// Literal from two single-word Literals in a Sequence, and a single
// merged Literal is the canonical form.
func (p *parser) parseSequence() (*Expansion, error) {
	var items []*Expansion
	for isSequenceItemStart(p.tok) {
		item, err := p.parseTaggedAtom()
		if err != nil {
			return nil, err
		}
		if item.kind == Literal && len(item.tags) == 0 && len(items) > 0 {
			if last := items[len(items)-1]; last.kind == Literal && len(last.tags) == 0 {
				last.text = last.text + " " + item.text
				continue
			}
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, p.errorf("sequence")
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return NewSequence(items...), nil
}

func (p *parser) parseTaggedAtom() (*Expansion, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokPlus {
		if p.tok.kind == tokStar {
			p.advance()
			atom = NewKleeneStar(atom)
		} else {
			p.advance()
			atom = NewRepeat(atom)
		}
	}
	for p.tok.kind == tokLBrace {
		tag, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		atom.AddTag(tag)
	}
	return atom, nil
}

func (p *parser) parseTag() (string, error) {
	if _, err := p.expect(tokLBrace, "tag"); err != nil {
		return "", err
	}
	var words []string
	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return "", p.errorf("tag")
		}
		words = append(words, p.tok.text)
		p.advance()
	}
	p.advance()
	return strings.Join(words, " "), nil
}

func (p *parser) parseAtom() (*Expansion, error) {
	switch p.tok.kind {
	case tokWord:
		word := p.tok.text
		p.advance()
		return NewLiteral(word), nil
	case tokLT:
		p.advance()
		nameTok, err := p.expect(tokWord, "rule-ref")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokGT, "rule-ref"); err != nil {
			return nil, err
		}
		switch nameTok.text {
		case "NULL":
			return NewNullRef(), nil
		case "VOID":
			return NewVoidRef(), nil
		case "DICTATION":
			return NewDictation(), nil
		default:
			return NewNamedRuleRef(nameTok.text), nil
		}
	case tokLParen:
		p.advance()
		inner, err := p.parseAlternativeSet()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "grouping"); err != nil {
			return nil, err
		}
		return wrapRequiredGrouping(inner), nil
	case tokLBracket:
		p.advance()
		inner, err := p.parseAlternativeSet()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket, "optional"); err != nil {
			return nil, err
		}
		return NewOptionalGrouping(inner), nil
	default:
		return nil, p.errorf("atom")
	}
}

// wrapRequiredGrouping builds the RequiredGrouping for a parenthesized
// expansion. A Sequence's items are lifted directly into the grouping's
// child list (both are flat concatenations); anything else becomes the
// grouping's single, unflattened child.
func wrapRequiredGrouping(inner *Expansion) *Expansion {
	if inner.kind == Sequence {
		kids := inner.children
		inner.children = nil
		grp := &Expansion{kind: RequiredGrouping, children: kids}
		for _, k := range kids {
			k.parent = grp
		}
		return grp
	}
	return NewRequiredGrouping(inner)
}
