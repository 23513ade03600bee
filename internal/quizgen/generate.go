package quizgen

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/pdfquiz/internal/model"
)

type synthesizer func(sentence string, id int, pool []string) (model.Question, bool)

// pass runs one synthesizer over one category's sentences. subject recovers
// the deduplication key from a rendered prompt.
type pass struct {
	category   SentenceCategory
	sentences  []string
	synthesize synthesizer
	subject    func(prompt string) string
}

// Generate runs the whole pipeline over raw extracted text and returns a quiz
// of at most count questions.
func (g *Generator) Generate(rawText string, count int) (*model.Quiz, error) {
	text := Normalize(rawText)
	if text == "" {
		return nil, ErrExtractionEmpty
	}

	sentences := ExtractSentences(text)
	if len(sentences) < MinSentences {
		return nil, fmt.Errorf("%w: found %d sentences, need %d", ErrInsufficientContent, len(sentences), MinSentences)
	}

	questions := g.Assemble(sentences, count)
	if len(questions) == 0 {
		return nil, ErrGenerationFailed
	}

	return &model.Quiz{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Questions: questions,
	}, nil
}

// Assemble synthesizes up to count questions from candidate sentences.
// Definitions, dated facts, compositions and functions are tried in that
// order, skipping any question whose subject was already used; remaining
// slots are filled from sentences matching no category.
func (g *Generator) Assemble(sentences []string, count int) []model.Question {
	c := Classify(sentences)
	passes := []pass{
		{Definition, c.Definitions, g.DefinitionQuestion, definitionSubject},
		{DatedFact, c.DatedFacts, g.DatedFactQuestion, datedFactSubject},
		{Composition, c.Compositions, g.CompositionQuestion, compositionSubject},
		{Function, c.Functions, g.FunctionQuestion, functionSubject},
	}

	var questions []model.Question
	used := make(map[string]struct{})
	for _, p := range passes {
		for _, s := range p.sentences {
			if len(questions) >= count {
				break
			}
			q, ok := p.synthesize(s, len(questions), sentences)
			if !ok {
				slog.Debug("no question from sentence", "category", p.category, "matched", categorize(s), "sentence", s)
				continue
			}
			subject := p.subject(q.Prompt)
			if _, dup := used[subject]; dup {
				slog.Debug("skipping duplicate subject", "category", p.category, "subject", subject)
				continue
			}
			questions = append(questions, q)
			used[subject] = struct{}{}
		}
	}

	if len(questions) < count {
		for _, s := range c.Unclassified(sentences) {
			if len(questions) >= count {
				break
			}
			if q, ok := g.GeneralFactQuestion(s, len(questions), sentences); ok {
				questions = append(questions, q)
			}
		}
	}

	if len(questions) > count {
		questions = questions[:max(count, 0)]
	}

	slog.Debug("assembled questions",
		"sentences", len(sentences),
		"definitions", len(c.Definitions),
		"dated_facts", len(c.DatedFacts),
		"compositions", len(c.Compositions),
		"functions", len(c.Functions),
		"questions", len(questions),
	)
	return questions
}

func definitionSubject(prompt string) string {
	return stripAll(prompt, "What is ", "?")
}

// datedFactSubject keys on the text before " was ", so every
// "In what year was ..." prompt shares the key "In what year".
func datedFactSubject(prompt string) string {
	before, _, _ := strings.Cut(prompt, " was ")
	return stripAll(before, "In what year was ")
}

func compositionSubject(prompt string) string {
	return stripAll(prompt, "What does ", " consist of or contain?")
}

func functionSubject(prompt string) string {
	return stripAll(prompt, "What is the purpose or function of ", "?")
}

func stripAll(s string, phrases ...string) string {
	for _, p := range phrases {
		s = strings.ReplaceAll(s, p, "")
	}
	return strings.TrimSpace(s)
}
