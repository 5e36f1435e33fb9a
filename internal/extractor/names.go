package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameSeparators = regexp.MustCompile(`[._-]`)

// DeriveName guesses a first and last name from the local part of an email
// address: "john.doe@x.com" gives ("John", "Doe"). Missing tokens yield "".
func DeriveName(email string) (first, last string) {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}

	parts := nameSeparators.Split(local, -1)
	if len(parts) > 0 {
		first = capitalize(parts[0])
	}
	if len(parts) > 1 {
		last = capitalize(parts[1])
	}
	return first, last
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}
