package naming

import (
	"strings"
	"unicode"
)

// DefaultName converts an arbitrary raw name into a Pascal-case identifier.
// Only letters and digits survive. A character starts a new word when it is
// the first character, follows a non letter/digit, or is an upper-case letter
// directly after a lower-case one; word starts are upper-cased and everything
// else is lower-cased.
// Example: "order_line_item" -> "OrderLineItem", "fooBar" -> "FooBar", "ID" -> "Id"
func DefaultName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name))

	for i, r := range runes {
		if !isWordRune(r) {
			continue
		}
		switch {
		case i == 0 || !isWordRune(runes[i-1]):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
