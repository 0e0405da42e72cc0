package rank

import (
	"strings"
	"unicode"
)

// Tokenize splits input on any run of commas and whitespace.
// Empty tokens are never returned.
func Tokenize(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
