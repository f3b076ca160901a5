package ingredient

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// listSeparator is the character every item boundary is rewritten to.
const listSeparator = ","

// Compiled once; regexp.Regexp is safe for concurrent use.
var (
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)
	netWeightPattern     = regexp.MustCompile(`\bnet\b\s*\d+\s*[a-z]+`)
	sentencePattern      = regexp.MustCompile(`[.;\n]`)
	alternativePattern   = regexp.MustCompile(`\s+/\s+|\s*\+\s*`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	separatorPattern     = regexp.MustCompile(`\s*,\s*`)
	prefixPattern        = regexp.MustCompile(`^contains:\s*`)
	disallowedPattern    = regexp.MustCompile(`[^a-z0-9\-\s]`)
)

// Normalize converts raw label text into an ordered list of unique
// ingredient tokens. It never fails; empty or unusable input yields an
// empty, non-nil slice.
func Normalize(raw string) []string {
	text := lower(raw)

	text = parentheticalPattern.ReplaceAllString(text, " ")
	text = netWeightPattern.ReplaceAllString(text, " ")
	text = sentencePattern.ReplaceAllString(text, listSeparator)
	text = alternativePattern.ReplaceAllString(text, listSeparator)
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = separatorPattern.ReplaceAllString(text, listSeparator)

	tokens := make([]string, 0)
	seen := make(map[string]struct{})

	for _, piece := range strings.Split(text, listSeparator) {
		token := cleanPiece(piece)
		if token == "" {
			continue
		}
		token = Canonical(token)
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	return tokens
}

// cleanPiece trims one list item, drops a "contains:" prefix and strips
// everything but letters, digits, hyphens and spaces.
func cleanPiece(piece string) string {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return ""
	}
	piece = strings.TrimSpace(prefixPattern.ReplaceAllString(piece, ""))
	piece = disallowedPattern.ReplaceAllString(piece, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(piece, " "))
}

// lower lowercases text, folds combining accents and maps every Unicode
// space to an ASCII space so the patterns above see plain whitespace.
func lower(raw string) string {
	// cases.Caser and transform chains keep internal state, so build them per call.
	text := cases.Lower(language.Und).String(raw)

	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		text,
	)
	if err == nil {
		text = folded
	}

	return strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
}

// Join renders tokens as comma-separated label text, the form sent to the
// enhancement service and accepted back by Normalize.
func Join(tokens []string) string {
	return strings.Join(tokens, ", ")
}
