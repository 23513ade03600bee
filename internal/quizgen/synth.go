package quizgen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/pdfquiz/internal/model"
)

const (
	distractorCount    = 3
	definitionPoolSize = 20
	maxYearOffset      = 5

	defaultSubject = "This"
	topicSubject   = "the topic"
)

var candidateYears = []int{1990, 1995, 1998, 2000, 2005, 2008, 2010, 2012, 2015, 2018, 2020}

// Generator synthesizes quiz questions from classified sentences.
// It holds no per-document state and is safe for concurrent use when its
// Rand is.
type Generator struct {
	rand      Rand
	fallbacks Fallbacks
}

// NewGenerator creates a Generator. A nil r uses the process-wide source of
// math/rand/v2; fallback lists with fewer than three entries use the defaults.
func NewGenerator(r Rand, fb Fallbacks) *Generator {
	if r == nil {
		r = globalRand{}
	}
	return &Generator{rand: r, fallbacks: fb.withDefaults()}
}

// DefinitionQuestion asks for the definition of the term a sentence defines.
func (g *Generator) DefinitionQuestion(sentence string, id int, pool []string) (model.Question, bool) {
	parts, ok := splitDefinition(sentence, definitionMarkers)
	if !ok {
		return model.Question{}, false
	}
	correct := truncate(parts.Body, shortAnswerRunes)

	var others []string
	for _, s := range pool[:min(definitionPoolSize, len(pool))] {
		if s == sentence {
			continue
		}
		if other, ok := splitDefinition(s, otherDefinitionMarkers); ok {
			others = append(others, truncate(other.Body, shortAnswerRunes))
		}
	}

	var distractors []string
	if len(others) >= distractorCount {
		distractors = sample(g.rand, others, distractorCount)
	} else {
		distractors = g.fallbacks.Definition[:distractorCount]
	}

	return g.question(id, fmt.Sprintf("What is %s?", shortTerm(parts.Term)), correct, distractors, model.CategoryDefinition), true
}

// DatedFactQuestion asks for the year mentioned in a sentence.
func (g *Generator) DatedFactQuestion(sentence string, id int, _ []string) (model.Question, bool) {
	year, ok := findYear(sentence)
	if !ok {
		return model.Question{}, false
	}
	subject := subjectOf(sentence, defaultSubject)

	prompt := fmt.Sprintf("What year is mentioned in relation to %s?", subject)
	lower := strings.ToLower(sentence)
	if strings.Contains(lower, " was ") || strings.Contains(lower, " were ") {
		prompt = fmt.Sprintf("In what year was %s developed/created/introduced?", subject)
	}

	return g.question(id, prompt, year, g.wrongYears(year), model.CategoryDatedFact), true
}

// wrongYears takes candidate years other than the correct one in list order,
// padding with years shortly after it when the list runs out.
func (g *Generator) wrongYears(year string) []string {
	correct, _ := strconv.Atoi(year)
	wrong := make([]string, 0, distractorCount)
	for _, y := range candidateYears {
		if len(wrong) == distractorCount {
			break
		}
		if y != correct {
			wrong = append(wrong, strconv.Itoa(y))
		}
	}
	for len(wrong) < distractorCount {
		wrong = append(wrong, strconv.Itoa(correct+g.rand.IntN(maxYearOffset)+1))
	}
	return wrong
}

// CompositionQuestion asks what the subject of a sentence contains.
func (g *Generator) CompositionQuestion(sentence string, id int, _ []string) (model.Question, bool) {
	components, ok := splitAfterMarker(sentence, compositionMarkers)
	if !ok {
		return model.Question{}, false
	}
	subject := subjectOf(sentence, defaultSubject)
	correct := capitalize(truncate(components, shortAnswerRunes))
	distractors := shuffled(g.rand, g.fallbacks.Composition)[:distractorCount]
	return g.question(id, fmt.Sprintf("What does %s consist of or contain?", subject), correct, distractors, model.CategoryComposition), true
}

// FunctionQuestion asks what the subject of a sentence is for.
func (g *Generator) FunctionQuestion(sentence string, id int, _ []string) (model.Question, bool) {
	purpose, ok := splitAfterMarker(sentence, functionMarkers)
	if !ok {
		return model.Question{}, false
	}
	subject := subjectOf(sentence, defaultSubject)
	correct := capitalize(truncate(purpose, shortAnswerRunes))
	distractors := shuffled(g.rand, g.fallbacks.Function)[:distractorCount]
	return g.question(id, fmt.Sprintf("What is the purpose or function of %s?", subject), correct, distractors, model.CategoryFunction), true
}

// GeneralFactQuestion asks which statement from the document is correct,
// using other sentences as distractors.
func (g *Generator) GeneralFactQuestion(sentence string, id int, pool []string) (model.Question, bool) {
	subject := subjectOf(sentence, topicSubject)

	others := slices.DeleteFunc(slices.Clone(pool), func(s string) bool { return s == sentence })
	distractors := make([]string, 0, distractorCount)
	for _, s := range sample(g.rand, others, min(distractorCount, len(pool)-1)) {
		distractors = append(distractors, truncate(s, longAnswerRunes))
	}
	for len(distractors) < distractorCount {
		distractors = append(distractors, fmt.Sprintf("This information about %s is not mentioned in the document", subject))
	}

	prompt := fmt.Sprintf("According to the document, which statement about %s is correct?", subject)
	return g.question(id, prompt, truncate(sentence, longAnswerRunes), distractors, model.CategoryGeneralFact), true
}

func (g *Generator) question(id int, prompt, correct string, distractors []string, cat model.Category) model.Question {
	options := make([]string, 0, 1+distractorCount)
	options = append(options, correct)
	options = append(options, distractors[:distractorCount]...)
	shuffle(g.rand, options)
	return model.Question{
		ID:       id,
		Prompt:   prompt,
		Options:  options,
		Correct:  correct,
		Type:     model.QuestionTypeMCQ,
		Category: cat,
	}
}
