package fulltext

import (
	"testing"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sqlite", "sqlite"},
		{"SQLite database", "(sqlite AND database)"},
		{"a OR b c", "(a OR (b AND c))"},
		{"a AND b OR c", "((a AND b) OR c)"},
		{"a NOT b", "(a NOT b)"},
		{"a b NOT c", "(a AND (b NOT c))"},
		{"NOT a", "(NOT a)"},
		{`"Full Text" search*`, `("full text" AND search*)`},
		{"(a OR b) AND c", "((a OR b) AND c)"},
		{"e-mail", `"e mail"`},
		{"and or", "(and AND or)"},
		{`"one"`, `"one"`},
		{"Café*", "cafe*"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuery(tt.in, Unicode61{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.String())
		})
	}
}

func TestParseQuery_Porter(t *testing.T) {
	q, err := ParseQuery("running Connect*", Porter{})
	require.NoError(t, err)
	assert.Equal(t, "(run AND connect*)", q.String())
}

func TestParseQuery_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "(a", "a)", "a OR", "AND a", `"open`, "*", "OR*", "(", "NOT", `"!!"`, "a NOT", "()"} {
		_, err := ParseQuery(in, Unicode61{})
		assert.True(t, errors.IsCode(err, errors.FLINT_EXEC), "%q: %v", in, err)
	}
}

func TestBM25(t *testing.T) {
	assert.Greater(t, IDF(1, 1), 0.0)
	assert.Greater(t, IDF(10, 10), 0.0)
	assert.Greater(t, IDF(1, 10), IDF(5, 10))

	p := DefaultBM25Params()
	assert.Zero(t, p.Score(0, 10, 10, 1, 10))
	assert.Zero(t, p.Score(1, 10, 10, 1, 0))
	assert.Greater(t, p.Score(3, 10, 10, 1, 10), p.Score(1, 10, 10, 1, 10))
	// shorter documents score higher for the same frequency
	assert.Greater(t, p.Score(1, 5, 10, 1, 10), p.Score(1, 20, 10, 1, 10))
}

func TestHighlightAndSnippet(t *testing.T) {
	mustQuery := func(s string) *Query {
		q, err := ParseQuery(s, Unicode61{})
		require.NoError(t, err)
		return q
	}
	mk := DefaultMarkup()

	assert.Equal(t, "The <b>Quick</b> fox", Highlight("The Quick fox", mustQuery("quick"), Unicode61{}, mk))
	assert.Equal(t, "<b>connection</b>, <b>connects</b>!", Highlight("connection, connects!", mustQuery("conn*"), Unicode61{}, mk))
	assert.Equal(t, "keep <b>this</b> not that", Highlight("keep this not that", mustQuery("this NOT that"), Unicode61{}, mk))

	text := "one two three four five six seven eight nine ten"
	mk = Markup{Open: "[", Close: "]", Ellipsis: ".."}
	assert.Equal(t, "..four five [six]..", Snippet(text, mustQuery("six"), Unicode61{}, mk, 3))
	assert.Equal(t, "[one] [two]..", Snippet(text, mustQuery("one OR two"), Unicode61{}, mk, 2))
	assert.Equal(t, "alpha beta", Snippet("alpha beta", mustQuery("zzz"), Unicode61{}, mk, 15))
	assert.Empty(t, Snippet("", mustQuery("zzz"), Unicode61{}, mk, 15))
}
