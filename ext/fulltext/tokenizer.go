package fulltext

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is one term of a tokenized text. Start and End are byte offsets
// into the source; Position counts tokens from zero.
type Token struct {
	Term     string
	Start    int
	End      int
	Position int
}

// Tokenizer splits text into normalised terms.
type Tokenizer interface {
	Name() string
	Tokenize(text string) []Token
	// Fold normalises a single query word without stemming. Prefix
	// queries use it so "connect*" still matches "connection".
	Fold(word string) string
}

// Unicode61 splits on anything that is not a letter or a number, folds
// case and strips diacritics.
type Unicode61 struct{}

func (Unicode61) Name() string { return "unicode61" }

func (Unicode61) Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, Token{
			Term:     fold(text[start:end]),
			Start:    start,
			End:      end,
			Position: len(tokens),
		})
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func (Unicode61) Fold(word string) string { return fold(word) }

func fold(word string) string {
	ascii := true
	for i := 0; i < len(word); i++ {
		if word[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToLower(word)
	}
	// transform chains hold state, so each call builds its own
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, word)
	if err != nil {
		s = word
	}
	return strings.ToLower(s)
}

// Porter is Unicode61 followed by Porter stemming of ASCII words.
type Porter struct{}

func (Porter) Name() string { return "porter" }

func (Porter) Tokenize(text string) []Token {
	tokens := Unicode61{}.Tokenize(text)
	for i := range tokens {
		tokens[i].Term = Stem(tokens[i].Term)
	}
	return tokens
}

func (Porter) Fold(word string) string { return fold(word) }

// TokenizerByName resolves "unicode61" and "porter".
func TokenizerByName(name string) (Tokenizer, bool) {
	switch strings.ToLower(name) {
	case "", "unicode61":
		return Unicode61{}, true
	case "porter":
		return Porter{}, true
	}
	return nil, false
}

// Stem applies the Porter stemming algorithm to a lower-case ASCII word.
// Other words are returned unchanged.
func Stem(word string) string {
	if len(word) <= 2 {
		return word
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return word
		}
	}
	s := &stemmer{b: []byte(word), k: len(word) - 1}
	s.step1ab()
	if s.k > 0 {
		s.step1c()
		s.step2()
		s.step3()
		s.step4()
		s.step5()
	}
	return string(s.b[:s.k+1])
}

// stemmer holds the word being stemmed in b[0..k]; j marks the end of the
// stem left by the last successful ends call.
type stemmer struct {
	b    []byte
	k, j int
}

func (s *stemmer) cons(i int) bool {
	switch s.b[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		return i == 0 || !s.cons(i-1)
	}
	return true
}

// m counts the vowel-consonant sequences in b[0..j].
func (s *stemmer) m() int {
	n, i := 0, 0
	for {
		if i > s.j {
			return n
		}
		if !s.cons(i) {
			break
		}
		i++
	}
	i++
	for {
		for {
			if i > s.j {
				return n
			}
			if s.cons(i) {
				break
			}
			i++
		}
		i++
		n++
		for {
			if i > s.j {
				return n
			}
			if !s.cons(i) {
				break
			}
			i++
		}
		i++
	}
}

func (s *stemmer) vowelInStem() bool {
	for i := 0; i <= s.j; i++ {
		if !s.cons(i) {
			return true
		}
	}
	return false
}

func (s *stemmer) doublec(i int) bool {
	return i >= 1 && s.b[i] == s.b[i-1] && s.cons(i)
}

// cvc is consonant-vowel-consonant ending at i, where the last consonant
// is not w, x or y.
func (s *stemmer) cvc(i int) bool {
	if i < 2 || !s.cons(i) || s.cons(i-1) || !s.cons(i-2) {
		return false
	}
	switch s.b[i] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func (s *stemmer) ends(suffix string) bool {
	n := len(suffix)
	if n > s.k+1 || string(s.b[s.k-n+1:s.k+1]) != suffix {
		return false
	}
	s.j = s.k - n
	return true
}

func (s *stemmer) setTo(repl string) {
	s.b = append(s.b[:s.j+1], repl...)
	s.k = len(s.b) - 1
}

func (s *stemmer) replaceIfMeasured(repl string) {
	if s.m() > 0 {
		s.setTo(repl)
	}
}

func (s *stemmer) step1ab() {
	if s.b[s.k] == 's' {
		switch {
		case s.ends("sses"):
			s.k -= 2
		case s.ends("ies"):
			s.setTo("i")
		case s.b[s.k-1] != 's':
			s.k--
		}
	}
	if s.ends("eed") {
		if s.m() > 0 {
			s.k--
		}
		return
	}
	if !(s.ends("ed") || s.ends("ing")) || !s.vowelInStem() {
		return
	}
	s.k = s.j
	switch {
	case s.ends("at"):
		s.setTo("ate")
	case s.ends("bl"):
		s.setTo("ble")
	case s.ends("iz"):
		s.setTo("ize")
	case s.doublec(s.k):
		switch s.b[s.k] {
		case 'l', 's', 'z':
		default:
			s.k--
		}
	default:
		s.j = s.k
		if s.m() == 1 && s.cvc(s.k) {
			s.setTo("e")
		}
	}
}

func (s *stemmer) step1c() {
	if s.ends("y") && s.vowelInStem() {
		s.b[s.k] = 'i'
	}
}

type rule struct{ suffix, repl string }

var step2Rules = map[byte][]rule{
	'a': {{"ational", "ate"}, {"tional", "tion"}},
	'c': {{"enci", "ence"}, {"anci", "ance"}},
	'e': {{"izer", "ize"}},
	'g': {{"logi", "log"}},
	'l': {{"bli", "ble"}, {"alli", "al"}, {"entli", "ent"}, {"eli", "e"}, {"ousli", "ous"}},
	'o': {{"ization", "ize"}, {"ation", "ate"}, {"ator", "ate"}},
	's': {{"alism", "al"}, {"iveness", "ive"}, {"fulness", "ful"}, {"ousness", "ous"}},
	't': {{"aliti", "al"}, {"iviti", "ive"}, {"biliti", "ble"}},
}

var step3Rules = map[byte][]rule{
	'e': {{"icate", "ic"}, {"ative", ""}, {"alize", "al"}},
	'i': {{"iciti", "ic"}},
	'l': {{"ical", "ic"}, {"ful", ""}},
	's': {{"ness", ""}},
}

func (s *stemmer) applyRules(rules []rule) {
	for _, r := range rules {
		if s.ends(r.suffix) {
			s.replaceIfMeasured(r.repl)
			return
		}
	}
}

func (s *stemmer) step2() { s.applyRules(step2Rules[s.b[s.k-1]]) }
func (s *stemmer) step3() { s.applyRules(step3Rules[s.b[s.k]]) }

var step4Suffixes = map[byte][]string{
	'a': {"al"},
	'c': {"ance", "ence"},
	'e': {"er"},
	'i': {"ic"},
	'l': {"able", "ible"},
	'n': {"ant", "ement", "ment", "ent"},
	'o': {"ion", "ou"},
	's': {"ism"},
	't': {"ate", "iti"},
	'u': {"ous"},
	'v': {"ive"},
	'z': {"ize"},
}

func (s *stemmer) step4() {
	matched := false
	for _, suffix := range step4Suffixes[s.b[s.k-1]] {
		if !s.ends(suffix) {
			continue
		}
		// -ion only goes after s or t
		if suffix == "ion" && (s.j < 0 || (s.b[s.j] != 's' && s.b[s.j] != 't')) {
			continue
		}
		matched = true
		break
	}
	if matched && s.m() > 1 {
		s.k = s.j
	}
}

func (s *stemmer) step5() {
	s.j = s.k
	if s.b[s.k] == 'e' {
		if a := s.m(); a > 1 || (a == 1 && !s.cvc(s.k-1)) {
			s.k--
		}
	}
	if s.b[s.k] == 'l' && s.doublec(s.k) {
		s.j = s.k
		if s.m() > 1 {
			s.k--
		}
	}
}
