// Package grading scores answer submissions against a generated quiz.
package grading

import (
	"math"

	"github.com/pavelanni/pdfquiz/internal/model"
)

// Grade compares each submitted answer with the correct option by exact
// string equality. Questions missing from the submission are recorded as
// model.NotAnswered and count as incorrect.
//
// The percentage is rounded to one decimal place, halves to even.
func Grade(quiz model.Quiz, submission model.AnswerSubmission) model.GradeResult {
	result := model.GradeResult{
		Total:   len(quiz.Questions),
		Results: make([]model.QuestionResult, 0, len(quiz.Questions)),
	}

	for _, q := range quiz.Questions {
		answer, ok := submission[q.ID]
		if !ok {
			answer = model.NotAnswered
		}
		correct := ok && answer == q.Correct
		if correct {
			result.Score++
		}
		result.Results = append(result.Results, model.QuestionResult{
			Question:      q.Prompt,
			UserAnswer:    answer,
			CorrectAnswer: q.Correct,
			IsCorrect:     correct,
			Category:      q.Category,
		})
	}

	if result.Total > 0 {
		result.Percentage = roundTenth(float64(result.Score) / float64(result.Total) * 100)
	}
	return result
}

func roundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
