package units

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Match is a raw (number, unit token) pair found in text, before any
// catalog filtering.
type Match struct {
	Number string
	Unit   string
}

// Pattern finds numbers followed by one of a fixed set of unit tokens.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles a case-insensitive pattern for tokens.
//
// A match is an unsigned integer or decimal, optional whitespace, then one of
// the tokens, delimited by word boundaries. Alternatives are ordered longest
// first because RE2 alternation takes the leftmost alternative that matches,
// not the longest; "cu ft" must be tried before "ft" and "mm" before "m".
// Spaces inside a token match any run of whitespace.
func NewPattern(tokens []string) (*Pattern, error) {
	alts := orderTokens(tokens)
	if len(alts) == 0 {
		return &Pattern{}, nil
	}

	quoted := make([]string, len(alts))
	for i, tok := range alts {
		words := strings.Fields(tok)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		quoted[i] = strings.Join(words, `\s+`)
	}

	expr := `(?i)\b(\d+(?:\.\d+)?)\s*(` + strings.Join(quoted, "|") + `)\b`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile unit pattern: %w", err)
	}
	return &Pattern{re: re}, nil
}

// FindAll returns every match in text in order of occurrence, duplicates
// included.
func (p *Pattern) FindAll(text string) []Match {
	if p == nil || p.re == nil {
		return nil
	}
	found := p.re.FindAllStringSubmatch(text, -1)
	if len(found) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(found))
	for _, m := range found {
		matches = append(matches, Match{Number: m[1], Unit: m[2]})
	}
	return matches
}

// String returns the compiled expression.
func (p *Pattern) String() string {
	if p == nil || p.re == nil {
		return ""
	}
	return p.re.String()
}

// orderTokens folds and deduplicates tokens, then sorts them longest first
// with ties broken lexically so the expression is deterministic.
func orderTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		key := fold(tok)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(out[i]), utf8.RuneCountInString(out[j])
		if li != lj {
			return li > lj
		}
		return out[i] < out[j]
	})
	return out
}
