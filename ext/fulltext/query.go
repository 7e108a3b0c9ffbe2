package fulltext

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// QueryOp is the kind of a match expression node.
type QueryOp int

const (
	QueryTerm QueryOp = iota
	QueryPrefix
	QueryPhrase
	QueryAnd
	QueryOr
	QueryNot
)

// Query is a parsed match expression.
//
//	query   := or
//	or      := and ("OR" and)*
//	and     := not (["AND"] not)*
//	not     := primary ("NOT" primary)*
//	primary := "(" or ")" | "NOT" primary | "\"" words "\"" | word ["*"]
//
// Operators are upper case; lower-case "and" is an ordinary term. A NOT
// node with one child matches every document without it.
type Query struct {
	Op       QueryOp
	Terms    []string // one for term and prefix, several for phrase
	Children []*Query
}

func (q *Query) String() string {
	switch q.Op {
	case QueryTerm:
		return q.Terms[0]
	case QueryPrefix:
		return q.Terms[0] + "*"
	case QueryPhrase:
		return `"` + strings.Join(q.Terms, " ") + `"`
	case QueryNot:
		if len(q.Children) == 1 {
			return "(NOT " + q.Children[0].String() + ")"
		}
	}
	op := map[QueryOp]string{QueryAnd: " AND ", QueryOr: " OR ", QueryNot: " NOT "}[q.Op]
	parts := make([]string, len(q.Children))
	for i, c := range q.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, op) + ")"
}

// positiveTerms lists the terms a matching document is scored and
// highlighted on. Negated branches contribute nothing.
func (q *Query) positiveTerms(emit func(term string, prefix bool)) {
	switch q.Op {
	case QueryTerm, QueryPhrase:
		for _, t := range q.Terms {
			emit(t, false)
		}
	case QueryPrefix:
		emit(q.Terms[0], true)
	case QueryAnd, QueryOr:
		for _, c := range q.Children {
			c.positiveTerms(emit)
		}
	case QueryNot:
		if len(q.Children) == 2 {
			q.Children[0].positiveTerms(emit)
		}
	}
}

type lexKind int

const (
	lexEOF lexKind = iota
	lexWord
	lexPhrase
	lexLParen
	lexRParen
	lexAnd
	lexOr
	lexNot
)

type lexeme struct {
	kind   lexKind
	text   string
	prefix bool
	pos    int
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && r != '(' && r != ')' && r != '"' && r != '*'
}

func lex(input string) ([]lexeme, error) {
	var out []lexeme
	for i := 0; i < len(input); {
		r := rune(input[i])
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '(':
			out = append(out, lexeme{kind: lexLParen, pos: i})
			i++
		case r == ')':
			out = append(out, lexeme{kind: lexRParen, pos: i})
			i++
		case r == '"':
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return nil, errors.New(errors.FLINT_EXEC, "fts: unterminated phrase at offset %d", i)
			}
			out = append(out, lexeme{kind: lexPhrase, text: input[i+1 : i+1+end], pos: i})
			i += end + 2
		case r == '*':
			return nil, errors.New(errors.FLINT_EXEC, "fts: unexpected * at offset %d", i)
		default:
			start := i
			for i < len(input) {
				r, size := utf8.DecodeRuneInString(input[i:])
				if !isWordRune(r) {
					break
				}
				i += size
			}
			word := input[start:i]
			lx := lexeme{kind: lexWord, text: word, pos: start}
			switch word {
			case "AND":
				lx.kind = lexAnd
			case "OR":
				lx.kind = lexOr
			case "NOT":
				lx.kind = lexNot
			}
			if i < len(input) && input[i] == '*' {
				if lx.kind != lexWord {
					return nil, errors.New(errors.FLINT_EXEC, "fts: %s cannot be a prefix", word)
				}
				lx.prefix = true
				i++
			}
			out = append(out, lx)
		}
	}
	return append(out, lexeme{kind: lexEOF, pos: len(input)}), nil
}

type parser struct {
	lx  []lexeme
	pos int
	tok Tokenizer
}

// ParseQuery parses a match expression, normalising words with tok.
// Words that the tokenizer drops entirely are a syntax error, as is an
// empty query.
func ParseQuery(input string, tok Tokenizer) (*Query, error) {
	lx, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{lx: lx, tok: tok}
	if p.peek().kind == lexEOF {
		return nil, errors.New(errors.FLINT_EXEC, "fts: empty query")
	}
	q, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != lexEOF {
		return nil, p.unexpected(t)
	}
	return q, nil
}

func (p *parser) peek() lexeme { return p.lx[p.pos] }
func (p *parser) next() lexeme {
	t := p.lx[p.pos]
	if t.kind != lexEOF {
		p.pos++
	}
	return t
}

func (p *parser) unexpected(t lexeme) error {
	if t.kind == lexEOF {
		return errors.New(errors.FLINT_EXEC, "fts: unexpected end of query")
	}
	return errors.New(errors.FLINT_EXEC, "fts: syntax error at offset %d", t.pos)
}

func (p *parser) parseOr() (*Query, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == lexOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Query{Op: QueryOr, Children: []*Query{left, right}}
	}
	return left, nil
}

func startsPrimary(k lexKind) bool {
	return k == lexWord || k == lexPhrase || k == lexLParen
}

func (p *parser) parseAnd() (*Query, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		switch k := p.peek().kind; {
		case k == lexAnd:
			p.next()
		case startsPrimary(k):
			// implicit AND
		default:
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Query{Op: QueryAnd, Children: []*Query{left, right}}
	}
}

func (p *parser) parseNot() (*Query, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == lexNot {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Query{Op: QueryNot, Children: []*Query{left, right}}
	}
	return left, nil
}

func (p *parser) parsePrimary() (*Query, error) {
	t := p.next()
	switch t.kind {
	case lexLParen:
		q, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if r := p.next(); r.kind != lexRParen {
			return nil, p.unexpected(r)
		}
		return q, nil
	case lexNot:
		q, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Query{Op: QueryNot, Children: []*Query{q}}, nil
	case lexPhrase:
		return p.words(t, t.text)
	case lexWord:
		if t.prefix {
			return &Query{Op: QueryPrefix, Terms: []string{p.tok.Fold(t.text)}}, nil
		}
		return p.words(t, t.text)
	}
	return nil, p.unexpected(t)
}

// words tokenizes a bare word or phrase body. A word the tokenizer splits
// ("e-mail") becomes a phrase.
func (p *parser) words(t lexeme, text string) (*Query, error) {
	toks := p.tok.Tokenize(text)
	if len(toks) == 0 {
		return nil, errors.New(errors.FLINT_EXEC, "fts: no searchable terms at offset %d", t.pos)
	}
	terms := make([]string, len(toks))
	for i, tk := range toks {
		terms[i] = tk.Term
	}
	if len(terms) == 1 && t.kind == lexWord {
		return &Query{Op: QueryTerm, Terms: terms}, nil
	}
	return &Query{Op: QueryPhrase, Terms: terms}, nil
}
