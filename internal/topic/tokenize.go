package topic

import (
	"strings"
	"unicode"
)

// englishStopwords is a compact English stoplist for topic naming.
var englishStopwords = strings.Fields(`
a about above after again against all also am an and any are as at be because been before
being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how however i if in into
is it its itself just may me might more most must my myself no nor not of off on once only or
other our ours ourselves out over own paper same she should so some study such than that the
their theirs them themselves then there these they this those through thus to too under until
up upon use used using very was we were what when where which while who whom why will with
within without would you your yours yourself yourselves
`)

// Tokenizer splits text into lowercase terms and drops stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the built-in English stoplist plus
// extra.
func NewTokenizer(extra []string) *Tokenizer {
	stops := make(map[string]struct{}, len(englishStopwords)+len(extra))
	for _, w := range englishStopwords {
		stops[w] = struct{}{}
	}
	for _, w := range extra {
		stops[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize returns the terms of text in order.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.process(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func (t *Tokenizer) process(token string) string {
	word := strings.Trim(token, "-")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}
	if len(word) <= 1 || numericOnly(word) {
		return ""
	}
	if _, stop := t.stopwords[word]; stop {
		return ""
	}
	return word
}

// numericOnly keeps tokens like "gpt-4" but drops "2023" and "1-2".
func numericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
