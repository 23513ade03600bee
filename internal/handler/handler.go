package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/pdfquiz/internal/grading"
	"github.com/pavelanni/pdfquiz/internal/handler/views"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/quizgen"
)

const (
	defaultQuestions = 5
	maxQuestions     = 50
	defaultMaxUpload = 16 << 20
)

// QuizStore keeps the current quiz of each anonymous session.
// GetQuiz returns nil, nil when the session has no live quiz.
type QuizStore interface {
	PutQuiz(sessionID string, quiz model.Quiz) error
	GetQuiz(sessionID string) (*model.Quiz, error)
	ClearQuiz(sessionID string) error
}

// Extractor turns an uploaded document into raw text.
type Extractor func(data []byte) (string, error)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   QuizStore
	gen     *quizgen.Generator
	extract Extractor
	config  model.QuizConfig
}

// New creates a new Handler. Zero config values fall back to defaults.
func New(s QuizStore, gen *quizgen.Generator, extract Extractor, cfg model.QuizConfig) (*Handler, error) {
	if s == nil || gen == nil || extract == nil {
		return nil, errors.New("handler: store, generator and extractor are required")
	}
	if cfg.DefaultQuestions <= 0 {
		cfg.DefaultQuestions = defaultQuestions
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = maxQuestions
	}
	if cfg.DefaultQuestions > cfg.MaxQuestions {
		return nil, fmt.Errorf("handler: default questions %d exceeds maximum %d", cfg.DefaultQuestions, cfg.MaxQuestions)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	return &Handler{store: s, gen: gen, extract: extract, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Handle("/static/*", h.staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Use(h.limitBody)

		r.Group(func(r chi.Router) {
			r.Use(h.csrfMiddleware)
			r.Get("/", h.handleIndex)
			r.Post("/upload", h.handleUpload)
			r.Get("/quiz", h.handleQuizPage)
			r.Post("/submit-quiz", h.handleSubmitQuiz)
			r.Get("/reset", h.handleReset)
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/quiz", h.handleAPIQuiz)
			r.Post("/grade", h.handleAPIGrade)
		})
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, "")
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.IndexPage(errMsg, h.config).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizFromUpload(r)
	if err != nil {
		status, msg := h.errorMessage(r.Context(), err)
		h.renderIndex(w, r, status, msg)
		return
	}

	if err := h.store.PutQuiz(model.SessionIDFromContext(r.Context()), *quiz); err != nil {
		slog.Error("failed to store quiz", "error", err)
		h.renderIndex(w, r, http.StatusInternalServerError, appI18n.T(r.Context(), "ErrInternal"))
		return
	}
	http.Redirect(w, r, h.path("/quiz"), http.StatusSeeOther)
}

func (h *Handler) handleQuizPage(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.currentQuiz(w, r)
	if !ok {
		return
	}
	if quiz == nil {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.QuizPage(*quiz).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.currentQuiz(w, r)
	if !ok {
		return
	}
	if quiz == nil {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}

	// The CSRF check has already parsed the form.
	sub := make(model.AnswerSubmission)
	for _, q := range quiz.Questions {
		if vs, ok := r.PostForm["q_"+strconv.Itoa(q.ID)]; ok && len(vs) > 0 {
			sub[q.ID] = vs[0]
		}
	}
	result := grading.Grade(*quiz, sub)
	slog.Info("quiz graded", "quiz_id", quiz.ID, "score", result.Score, "total", result.Total)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ResultPage(result).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearQuiz(model.SessionIDFromContext(r.Context())); err != nil {
		slog.Error("failed to clear quiz", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

// currentQuiz loads the session's quiz. It writes a 500 response and returns
// false when the store fails.
func (h *Handler) currentQuiz(w http.ResponseWriter, r *http.Request) (*model.Quiz, bool) {
	quiz, err := h.store.GetQuiz(model.SessionIDFromContext(r.Context()))
	if err != nil {
		slog.Error("failed to load quiz", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return quiz, true
}

// uploadError is a client-facing upload failure carrying its message ID.
type uploadError struct {
	status int
	msgID  string
	data   map[string]any
}

func (e *uploadError) Error() string { return e.msgID }

// quizFromUpload validates the multipart form and runs the generation
// pipeline on the uploaded file.
func (h *Handler) quizFromUpload(r *http.Request) (*model.Quiz, error) {
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		if isTooLarge(err) {
			return nil, h.tooLarge()
		}
		return nil, &uploadError{status: http.StatusBadRequest, msgID: "ErrNoFile"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, msgID: "ErrNoFile"}
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, &uploadError{status: http.StatusBadRequest, msgID: "ErrNoFileSelected"}
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return nil, &uploadError{status: http.StatusBadRequest, msgID: "ErrNotPDF"}
	}

	count, err := h.questionCount(r.FormValue("num_questions"))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			return nil, h.tooLarge()
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}

	sum := sha256.Sum256(data)
	slog.Info("received document",
		"filename", header.Filename,
		"bytes", len(data),
		"sha256", hex.EncodeToString(sum[:]),
		"questions", count,
	)
	return h.generate(r.Context(), data, header.Filename, count)
}

func (h *Handler) tooLarge() error {
	return &uploadError{
		status: http.StatusRequestEntityTooLarge,
		msgID:  "ErrFileTooLarge",
		data:   map[string]any{"MB": h.config.MaxUploadBytes >> 20},
	}
}

// questionCount parses num_questions. An empty value selects the default.
func (h *Handler) questionCount(raw string) (int, error) {
	if raw == "" {
		return h.config.DefaultQuestions, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > h.config.MaxQuestions {
		return 0, &uploadError{
			status: http.StatusBadRequest,
			msgID:  "ErrInvalidCount",
			data:   map[string]any{"Max": h.config.MaxQuestions},
		}
	}
	return n, nil
}

// generate extracts text from a document and builds a quiz from it.
// Extraction failures are logged and treated as an empty document.
func (h *Handler) generate(ctx context.Context, data []byte, source string, count int) (*model.Quiz, error) {
	text, err := h.extract(data)
	if err != nil {
		slog.Warn("text extraction failed", "filename", source, "error", err)
		text = ""
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quiz, err := h.gen.Generate(text, count)
	if err != nil {
		return nil, err
	}
	quiz.Source = source
	slog.Info("quiz generated", "quiz_id", quiz.ID, "filename", source, "questions", len(quiz.Questions))
	return quiz, nil
}

// errorMessage maps a pipeline or validation error to a status and a
// localized message.
func (h *Handler) errorMessage(ctx context.Context, err error) (int, string) {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		return ue.status, appI18n.Td(ctx, ue.msgID, ue.data)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Info("request cancelled before generation", "error", err)
		return http.StatusServiceUnavailable, appI18n.T(ctx, "ErrInternal")
	case errors.Is(err, quizgen.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity, appI18n.T(ctx, "ErrExtraction")
	case errors.Is(err, quizgen.ErrInsufficientContent):
		slog.Info("document rejected", "error", err)
		return http.StatusUnprocessableEntity, appI18n.T(ctx, "ErrInsufficientContent")
	case errors.Is(err, quizgen.ErrGenerationFailed):
		return http.StatusUnprocessableEntity, appI18n.T(ctx, "ErrGenerationFailed")
	default:
		slog.Error("quiz generation failed", "error", err)
		return http.StatusInternalServerError, appI18n.T(ctx, "ErrInternal")
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
