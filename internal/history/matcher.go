package history

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxQueryLength caps the number of runes of a query that are
// compiled into a pattern.
const DefaultMaxQueryLength = 256

// Matcher tests whether a record's search text satisfies a query.
type Matcher struct {
	query string
	re    *regexp.Regexp
}

// Compile turns free text into a Matcher that requires every whitespace
// separated token to appear, case-insensitively and in order, somewhere in
// the text. Anything may sit between two tokens. An empty query matches
// every text, including the empty one.
func Compile(query string) *Matcher {
	return CompileLimit(query, DefaultMaxQueryLength)
}

// CompileLimit is Compile with an explicit rune cap. Runes past the cap
// are ignored; maxRunes <= 0 uses DefaultMaxQueryLength.
func CompileLimit(query string, maxRunes int) *Matcher {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxQueryLength
	}
	query = truncateRunes(query, maxRunes)

	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return &Matcher{query: ""}
	}

	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	// (?is): case-insensitive with Unicode folding, and '.' spans newlines.
	pattern := "(?is)" + strings.Join(quoted, ".*")
	return &Matcher{
		query: strings.Join(tokens, " "),
		re:    regexp.MustCompile(pattern),
	}
}

// Match reports whether text satisfies the compiled query.
func (m *Matcher) Match(text string) bool {
	if m.re == nil {
		return true
	}
	return m.re.MatchString(text)
}

// MatchRecord evaluates the matcher against r.SearchText.
func (m *Matcher) MatchRecord(r Record) bool {
	return m.Match(r.SearchText)
}

// Query returns the normalized query the matcher was built from.
func (m *Matcher) Query() string { return m.query }

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
