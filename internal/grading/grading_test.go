package grading

import (
	"reflect"
	"testing"

	"github.com/pavelanni/pdfquiz/internal/model"
)

func testQuiz(n int) model.Quiz {
	q := model.Quiz{ID: "quiz"}
	for i := range n {
		q.Questions = append(q.Questions, model.Question{
			ID:       i,
			Prompt:   "What is Go?",
			Options:  []string{"is a language", "is a database system", "is a network protocol", "is an operating system"},
			Correct:  "is a language",
			Type:     model.QuestionTypeMCQ,
			Category: model.CategoryDefinition,
		})
	}
	return q
}

func TestGrade(t *testing.T) {
	quiz := testQuiz(3)
	quiz.Questions[1].Correct = "is a database system"
	quiz.Questions[1].Category = model.CategoryGeneralFact

	got := Grade(quiz, model.AnswerSubmission{
		0: "is a language",
		1: "is a language",
	})

	if got.Score != 1 || got.Total != 3 {
		t.Fatalf("score = %d/%d, want 1/3", got.Score, got.Total)
	}
	if got.Percentage != 33.3 {
		t.Errorf("percentage = %v, want 33.3", got.Percentage)
	}

	want := []model.QuestionResult{
		{Question: "What is Go?", UserAnswer: "is a language", CorrectAnswer: "is a language", IsCorrect: true, Category: model.CategoryDefinition},
		{Question: "What is Go?", UserAnswer: "is a language", CorrectAnswer: "is a database system", IsCorrect: false, Category: model.CategoryGeneralFact},
		{Question: "What is Go?", UserAnswer: model.NotAnswered, CorrectAnswer: "is a language", IsCorrect: false, Category: model.CategoryDefinition},
	}
	if !reflect.DeepEqual(got.Results, want) {
		t.Errorf("results = %+v\nwant %+v", got.Results, want)
	}
}

func TestGradeIsIdempotent(t *testing.T) {
	quiz := testQuiz(4)
	sub := model.AnswerSubmission{0: "is a language", 2: "is a network protocol", 3: "is a language"}

	first := Grade(quiz, sub)
	second := Grade(quiz, sub)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("grading twice differs:\n%+v\n%+v", first, second)
	}
}

func TestGradeIgnoresUnknownIDs(t *testing.T) {
	quiz := testQuiz(2)
	got := Grade(quiz, model.AnswerSubmission{0: "is a language", 1: "is a language", 7: "is a language"})
	if got.Score != 2 || got.Total != 2 || len(got.Results) != 2 {
		t.Errorf("got %d/%d with %d results", got.Score, got.Total, len(got.Results))
	}
	if got.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", got.Percentage)
	}
}

func TestGradeNotAnsweredLiteral(t *testing.T) {
	quiz := testQuiz(2)
	quiz.Questions[0].Correct = model.NotAnswered
	quiz.Questions[1].Correct = model.NotAnswered

	got := Grade(quiz, model.AnswerSubmission{1: model.NotAnswered})
	if got.Results[0].IsCorrect {
		t.Error("a missing answer must never be correct")
	}
	if !got.Results[1].IsCorrect {
		t.Error("an explicit answer matching the correct option is correct")
	}
	if got.Score != 1 {
		t.Errorf("score = %d, want 1", got.Score)
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	got := Grade(model.Quiz{}, model.AnswerSubmission{0: "anything"})
	if got.Score != 0 || got.Total != 0 || got.Percentage != 0 {
		t.Errorf("got %+v, want zero result", got)
	}
	if got.Results == nil || len(got.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", got.Results)
	}
}

func TestPercentageRounding(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{0, 5, 0},
		{5, 5, 100},
		{2, 3, 66.7},
		{1, 3, 33.3},
		{1, 16, 6.2},
		{5, 16, 31.2},
		{7, 16, 43.8},
		{1, 8, 12.5},
	}
	for _, tt := range tests {
		quiz := testQuiz(tt.total)
		sub := model.AnswerSubmission{}
		for i := range tt.score {
			sub[i] = "is a language"
		}
		got := Grade(quiz, sub)
		if got.Score != tt.score {
			t.Fatalf("%d/%d: score = %d", tt.score, tt.total, got.Score)
		}
		if got.Percentage != tt.want {
			t.Errorf("%d/%d: percentage = %v, want %v", tt.score, tt.total, got.Percentage, tt.want)
		}
	}
}
