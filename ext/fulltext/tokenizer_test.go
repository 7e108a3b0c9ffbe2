package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terms(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Term
	}
	return out
}

func TestUnicode61_Tokenize(t *testing.T) {
	text := "Hello, World! Café 123 abc456"
	toks := Unicode61{}.Tokenize(text)
	require.Len(t, toks, 5)
	assert.Equal(t, []string{"hello", "world", "cafe", "123", "abc456"}, terms(toks))

	assert.Equal(t, Token{Term: "cafe", Start: 14, End: 19, Position: 2}, toks[2])
	for _, tk := range toks {
		assert.Equal(t, tk.Term, Unicode61{}.Fold(text[tk.Start:tk.End]))
	}
}

func TestUnicode61_Multilanguage(t *testing.T) {
	toks := Unicode61{}.Tokenize("Hello 世界 123")
	assert.Equal(t, []string{"hello", "世界", "123"}, terms(toks))
	assert.Empty(t, Unicode61{}.Tokenize(""))
	assert.Empty(t, Unicode61{}.Tokenize(" ,.;! "))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"running":     "run",
		"connections": "connect",
		"connection":  "connect",
		"caresses":    "caress",
		"ponies":      "poni",
		"agreed":      "agre",
		"hopping":     "hop",
		"motoring":    "motor",
		"relational":  "relat",
		"happy":       "happi",
		"falling":     "fall",
		"filing":      "file",
		"sky":         "sky",
		"ab":          "ab",
		"mp3":         "mp3",
		"café":        "café",
	}
	for in, want := range tests {
		assert.Equal(t, want, Stem(in), in)
	}
}

func TestPorter_Tokenize(t *testing.T) {
	toks := Porter{}.Tokenize("Running connections")
	assert.Equal(t, []string{"run", "connect"}, terms(toks))
	assert.Equal(t, 8, toks[1].Start)
	assert.Equal(t, "connections", Porter{}.Fold("Connections"))
}

func TestTokenizerByName(t *testing.T) {
	for name, want := range map[string]string{"": "unicode61", "unicode61": "unicode61", "PORTER": "porter"} {
		tok, ok := TokenizerByName(name)
		require.True(t, ok, name)
		assert.Equal(t, want, tok.Name())
	}
	_, ok := TokenizerByName("ascii")
	assert.False(t, ok)
}
