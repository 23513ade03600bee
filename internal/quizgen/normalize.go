package quizgen

import (
	"regexp"
	"strings"
)

// space is every Unicode whitespace character, including NEL and the
// C0 information separators. RE2 treats \s as ASCII only.
const space = `\s\v\x{85}\x{1c}-\x{1f}\p{Z}`

var (
	whitespaceRun = regexp.MustCompile(`[` + space + `]+`)
	disallowed    = regexp.MustCompile(`[^\p{L}\p{N}_` + space + `.,?:;!\-]`)
)

// Normalize collapses whitespace runs to a single space and drops every
// character other than word characters, whitespace and the punctuation
// set ". , ? : ; ! -".
func Normalize(raw string) string {
	text := whitespaceRun.ReplaceAllString(raw, " ")
	text = disallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
