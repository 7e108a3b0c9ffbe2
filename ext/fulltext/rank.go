package fulltext

import (
	"math"
	"strings"
)

// BM25Params holds the BM25 tuning constants.
type BM25Params struct {
	K1 float64 // term frequency saturation
	B  float64 // length normalisation
}

func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// IDF is the probabilistic inverse document frequency of a term found in
// df of n documents. It is always positive.
func IDF(df, n int) float64 {
	return math.Log(1 + (float64(n-df)+0.5)/(float64(df)+0.5))
}

// Score is the BM25 contribution of one term occurring tf times in a
// document of docLen tokens.
func (p BM25Params) Score(tf, docLen int, avgLen float64, df, n int) float64 {
	if tf <= 0 || n <= 0 {
		return 0
	}
	if avgLen <= 0 {
		avgLen = 1
	}
	f := float64(tf)
	norm := f + p.K1*(1-p.B+p.B*float64(docLen)/avgLen)
	return IDF(df, n) * f * (p.K1 + 1) / norm
}

// matcher decides whether a token of highlighted text is a query hit.
type matcher struct {
	terms    map[string]bool
	prefixes []string
}

func newMatcher(q *Query) *matcher {
	m := &matcher{terms: map[string]bool{}}
	q.positiveTerms(func(t string, prefix bool) {
		if prefix {
			m.prefixes = append(m.prefixes, t)
		} else {
			m.terms[t] = true
		}
	})
	return m
}

func (m *matcher) hit(t Token) bool {
	if m.terms[t.Term] {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(t.Term, p) {
			return true
		}
	}
	return false
}

// Markup wraps query hits found in text.
type Markup struct {
	Open, Close string
	Ellipsis    string
}

func DefaultMarkup() Markup {
	return Markup{Open: "<b>", Close: "</b>", Ellipsis: "..."}
}

// Highlight returns text with every token matching q wrapped in the
// markup. Text between tokens is kept verbatim.
func Highlight(text string, q *Query, tok Tokenizer, mk Markup) string {
	toks := tok.Tokenize(text)
	return highlightRange(text, toks, 0, len(text), newMatcher(q), mk)
}

func highlightRange(text string, toks []Token, from, to int, m *matcher, mk Markup) string {
	var sb strings.Builder
	last := from
	for _, t := range toks {
		if t.Start < from || t.End > to || !m.hit(t) {
			continue
		}
		sb.WriteString(text[last:t.Start])
		sb.WriteString(mk.Open)
		sb.WriteString(text[t.Start:t.End])
		sb.WriteString(mk.Close)
		last = t.End
	}
	sb.WriteString(text[last:to])
	return sb.String()
}

// Snippet returns the window of at most n tokens holding the most hits,
// highlighted, with an ellipsis where text was cut.
func Snippet(text string, q *Query, tok Tokenizer, mk Markup, n int) string {
	toks := tok.Tokenize(text)
	if len(toks) == 0 || n <= 0 {
		return ""
	}
	m := newMatcher(q)
	hits := make([]int, len(toks)+1)
	for i, t := range toks {
		hits[i+1] = hits[i]
		if m.hit(t) {
			hits[i+1]++
		}
	}
	n = min(n, len(toks))
	best := 0
	for s := 1; s+n <= len(toks); s++ {
		if hits[s+n]-hits[s] > hits[best+n]-hits[best] {
			best = s
		}
	}
	end := best + n
	from, to := toks[best].Start, toks[end-1].End
	var sb strings.Builder
	if best > 0 {
		sb.WriteString(mk.Ellipsis)
	}
	sb.WriteString(highlightRange(text, toks[best:end], from, to, m, mk))
	if end < len(toks) {
		sb.WriteString(mk.Ellipsis)
	}
	return sb.String()
}
