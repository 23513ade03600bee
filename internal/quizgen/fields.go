package quizgen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	shortAnswerRunes = 60
	longAnswerRunes  = 100
	ellipsis         = "..."
	maxTermWords     = 2
	subjectWindow    = 5
)

// Split markers, in the priority order they are tried. These are narrower
// than the classifier cues: a sentence classified by "refers to" or "supports"
// has no split rule and produces no question.
var (
	definitionMarkers      = []string{"is a", "is an", "are a", "are an"}
	otherDefinitionMarkers = []string{"is a", "is an"}
	compositionMarkers     = []string{"contains", "consists of", "comprises", "includes"}
	functionMarkers        = []string{"is used", "are used", "enables", "allows", "provides"}
)

// definitionParts is a sentence split around its definitional marker.
type definitionParts struct {
	Term string // trimmed text before the marker
	Body string // marker plus the text after it, up to the first "."
}

// splitDefinition splits sentence on the first marker (in priority order)
// that occurs in it, matching case-insensitively.
func splitDefinition(sentence string, markers []string) (definitionParts, bool) {
	for _, m := range markers {
		sep := " " + m + " "
		i := indexFold(sentence, sep)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(sentence[i+len(sep):])
		return definitionParts{
			Term: strings.TrimSpace(sentence[:i]),
			Body: firstClause(m + " " + rest),
		}, true
	}
	return definitionParts{}, false
}

// shortTerm keeps the last two words of a term longer than that.
func shortTerm(term string) string {
	words := strings.Fields(term)
	if len(words) > maxTermWords {
		return strings.Join(words[len(words)-maxTermWords:], " ")
	}
	return term
}

// splitAfterMarker returns the lower-cased text following the first marker
// (in priority order) found in sentence, up to the next ".".
func splitAfterMarker(sentence string, markers []string) (string, bool) {
	lower := strings.ToLower(sentence)
	for _, m := range markers {
		sep := " " + m + " "
		_, after, found := strings.Cut(lower, sep)
		if !found {
			continue
		}
		clause, _, _ := strings.Cut(after, ".")
		if clause == "" {
			return "", false
		}
		return strings.TrimSpace(clause), true
	}
	return "", false
}

// subjectOf picks the first capitalized word longer than two characters among
// the first five words, falling back to the first word and then to placeholder.
func subjectOf(sentence, placeholder string) string {
	words := strings.Fields(sentence)
	for _, w := range words[:min(subjectWindow, len(words))] {
		first, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(first) && utf8.RuneCountInString(w) > 2 {
			return w
		}
	}
	if len(words) > 0 {
		return words[0]
	}
	return placeholder
}

// findYear returns the first four-digit year between 1900 and 2099.
func findYear(sentence string) (string, bool) {
	year := yearPattern.FindString(sentence)
	return year, year != ""
}

// truncate shortens s to limit runes, the last three being an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

func firstClause(s string) string {
	clause, _, _ := strings.Cut(s, ".")
	return strings.TrimSpace(clause)
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], needle) {
			return i
		}
	}
	return -1
}
