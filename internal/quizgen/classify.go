package quizgen

import (
	"regexp"
	"strings"
)

// SentenceCategory is a lexical pattern a sentence can match.
type SentenceCategory int

const (
	Uncategorized SentenceCategory = iota
	Definition
	DatedFact
	Composition
	Function
)

func (c SentenceCategory) String() string {
	switch c {
	case Definition:
		return "definition"
	case DatedFact:
		return "dated_fact"
	case Composition:
		return "composition"
	case Function:
		return "function"
	default:
		return "uncategorized"
	}
}

var (
	definitionCues  = []string{" is a ", " is an ", " are a ", " are an ", " refers to ", " defined as "}
	compositionCues = []string{" contains ", " consists of ", " comprises ", " includes "}
	functionCues    = []string{" is used ", " are used ", " enables ", " allows ", " provides ", " supports "}

	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Classification holds the sentences matching each category, in source order.
// A sentence may appear in several lists.
type Classification struct {
	Definitions  []string
	DatedFacts   []string
	Compositions []string
	Functions    []string
}

// Classify partitions sentences into the four pattern categories.
func Classify(sentences []string) Classification {
	var c Classification
	for _, s := range sentences {
		lower := strings.ToLower(s)
		if containsAny(lower, definitionCues) {
			c.Definitions = append(c.Definitions, s)
		}
		if yearPattern.MatchString(s) {
			c.DatedFacts = append(c.DatedFacts, s)
		}
		if containsAny(lower, compositionCues) {
			c.Compositions = append(c.Compositions, s)
		}
		if containsAny(lower, functionCues) {
			c.Functions = append(c.Functions, s)
		}
	}
	return c
}

// Unclassified returns the sentences absent from every category list.
func (c Classification) Unclassified(sentences []string) []string {
	seen := make(map[string]struct{})
	for _, list := range [][]string{c.Definitions, c.DatedFacts, c.Compositions, c.Functions} {
		for _, s := range list {
			seen[s] = struct{}{}
		}
	}
	var rest []string
	for _, s := range sentences {
		if _, ok := seen[s]; !ok {
			rest = append(rest, s)
		}
	}
	return rest
}

// categorize reports every category a single sentence belongs to,
// or Uncategorized when it matches none.
func categorize(sentence string) []SentenceCategory {
	c := Classify([]string{sentence})
	var cats []SentenceCategory
	if len(c.Definitions) > 0 {
		cats = append(cats, Definition)
	}
	if len(c.DatedFacts) > 0 {
		cats = append(cats, DatedFact)
	}
	if len(c.Compositions) > 0 {
		cats = append(cats, Composition)
	}
	if len(c.Functions) > 0 {
		cats = append(cats, Function)
	}
	if len(cats) == 0 {
		cats = append(cats, Uncategorized)
	}
	return cats
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
