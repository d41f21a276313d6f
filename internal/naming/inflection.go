package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

// Inflector answers English plural questions for container names.
type Inflector interface {
	IsPlural(word string) bool
	Pluralize(word string) string
}

// EnglishInflector is the en-US inflector backed by the inflection library.
type EnglishInflector struct {
	overrides map[string]string
}

// NewEnglishInflector creates an inflector that consults overrides
// (singular -> plural) before the inflection rules.
func NewEnglishInflector(overrides map[string]string) *EnglishInflector {
	return &EnglishInflector{overrides: overrides}
}

// Pluralize converts a singular word to its plural form.
// Checks custom overrides first, then falls back to the inflection library.
func (e *EnglishInflector) Pluralize(word string) string {
	if override, ok := e.override(word); ok {
		return override
	}
	return inflection.Plural(word)
}

// IsPlural reports whether word already reads as a plural: it has a distinct
// singular form whose plural is word itself. Uncountable words are not plural.
func (e *EnglishInflector) IsPlural(word string) bool {
	for _, plural := range e.overrides {
		if plural == word {
			return true
		}
	}
	singular := inflection.Singular(word)
	if singular == word {
		return false
	}
	return e.Pluralize(singular) == word
}

// manPlurals are words ending in "man" that are not compounds of "man". The
// inflection rules would turn them into "-men" ("Human" -> "Humen").
var manPlurals = map[string]string{
	"caiman":   "caimans",
	"german":   "germans",
	"human":    "humans",
	"ottoman":  "ottomans",
	"roman":    "romans",
	"shaman":   "shamans",
	"talisman": "talismans",
}

// override consults the configured overrides, then manPlurals.
func (e *EnglishInflector) override(word string) (string, bool) {
	if v, ok := lookupPlural(e.overrides, word); ok {
		return v, true
	}
	return lookupPlural(manPlurals, word)
}

// lookupPlural looks up word as written, then lower-cased. Config loaders fold
// map keys, so a lower-cased hit is re-capitalized to match word.
func lookupPlural(plurals map[string]string, word string) (string, bool) {
	if len(plurals) == 0 {
		return "", false
	}
	if v, ok := plurals[word]; ok {
		return v, true
	}
	v, ok := plurals[strings.ToLower(word)]
	if !ok {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(v)
		return string(unicode.ToUpper(r)) + v[size:], true
	}
	return v, true
}
