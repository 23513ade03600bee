package quizgen

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinSentences is the number of candidate sentences a document needs
// before any question is generated.
const MinSentences = 3

const (
	minSentenceRunes = 20
	minSentenceWords = 5
)

func isSentenceBreak(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Sentences yields the candidate sentences of normalized text in source order.
// Ranging over the sequence again re-scans the text and yields the same values.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for segment := range strings.FieldsFuncSeq(text, isSentenceBreak) {
			s := strings.TrimSpace(segment)
			if !isCandidate(s) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// ExtractSentences collects Sentences into a slice.
func ExtractSentences(text string) []string {
	return slices.Collect(Sentences(text))
}

func isCandidate(s string) bool {
	if utf8.RuneCountInString(s) <= minSentenceRunes {
		return false
	}
	if len(strings.Fields(s)) <= minSentenceWords {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(first)
}
