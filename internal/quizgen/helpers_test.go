package quizgen

import (
	"slices"
	"testing"

	"github.com/pavelanni/pdfquiz/internal/model"
)

// identityRand never reorders and always draws the smallest value.
type identityRand struct{}

func (identityRand) Shuffle(int, func(i, j int)) {}

func (identityRand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func (identityRand) IntN(int) int { return 0 }

func newTestGenerator() *Generator {
	return NewGenerator(identityRand{}, Fallbacks{})
}

// checkQuestion asserts the invariants every synthesized question holds.
func checkQuestion(t *testing.T, q model.Question) {
	t.Helper()
	if len(q.Options) != 4 {
		t.Errorf("question %d %q: expected 4 options, got %d", q.ID, q.Prompt, len(q.Options))
	}
	if !slices.Contains(q.Options, q.Correct) {
		t.Errorf("question %d %q: correct answer %q not among options %q", q.ID, q.Prompt, q.Correct, q.Options)
	}
	if q.Type != model.QuestionTypeMCQ {
		t.Errorf("question %d: expected type MCQ, got %q", q.ID, q.Type)
	}
	limit := shortAnswerRunes
	if q.Category == model.CategoryGeneralFact {
		limit = longAnswerRunes
	}
	if n := len([]rune(q.Correct)); n > limit {
		t.Errorf("question %d: correct answer has %d runes, limit %d", q.ID, n, limit)
	}
}
