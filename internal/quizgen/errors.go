package quizgen

import "errors"

var (
	// ErrExtractionEmpty means the document produced no usable text.
	ErrExtractionEmpty = errors.New("no extractable text")
	// ErrInsufficientContent means fewer than MinSentences candidate sentences were found.
	ErrInsufficientContent = errors.New("not enough text content to generate questions")
	// ErrGenerationFailed means no question could be synthesized.
	ErrGenerationFailed = errors.New("unable to generate questions")
)
