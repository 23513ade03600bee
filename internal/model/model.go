package model

import (
	"context"
	"time"
)

// Category tags a question with the sentence pattern it was built from.
type Category string

const (
	CategoryDefinition  Category = "Definition"
	CategoryDatedFact   Category = "Historical Fact"
	CategoryComposition Category = "Composition"
	CategoryFunction    Category = "Function"
	CategoryGeneralFact Category = "General Fact"
)

// QuestionTypeMCQ is the only question type the generator produces.
const QuestionTypeMCQ = "MCQ"

// NotAnswered is recorded for questions missing from a submission.
const NotAnswered = "Not answered"

// Question is a single multiple-choice question.
// Correct always equals one of Options.
type Question struct {
	ID       int      `json:"id"`
	Prompt   string   `json:"question"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
	Type     string   `json:"type"`
	Category Category `json:"category"`
}

// Quiz is an ordered list of questions generated from one document.
type Quiz struct {
	ID        string     `json:"id"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Questions []Question `json:"questions"`
}

// AnswerSubmission maps question IDs to the submitted option text.
type AnswerSubmission map[int]string

// QuestionResult holds the grading outcome for one question.
type QuestionResult struct {
	Question      string   `json:"question"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Category      Category `json:"category"`
}

// GradeResult is the outcome of grading a submission against a quiz.
type GradeResult struct {
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Results    []QuestionResult `json:"results"`
}

// QuizConfig holds runtime parameters for the web layer set via flags and config.
type QuizConfig struct {
	DefaultQuestions int   // used when the form omits num_questions
	MaxQuestions     int   // upper bound for num_questions
	MaxUploadBytes   int64 // multipart upload limit
	SessionTTL       time.Duration
	BasePath         string // URL prefix for sub-path deployments (e.g. "/quiz")
	SecureCookies    bool   // Set Secure flag on cookies (disable for local dev)
}

type sessionCtxKey struct{}

// ContextWithSessionID stores the quiz session ID in the request context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, id)
}

// SessionIDFromContext retrieves the quiz session ID from context (empty string if not set).
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
