package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/pavelanni/pdfquiz/internal/grading"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
)

// gradeRequest is the body of POST /api/grade. Keys are question IDs.
type gradeRequest struct {
	Answers map[string]string `json:"answers"`
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// handleAPIQuiz generates a quiz from a multipart upload, stores it as the
// session's current quiz and returns it.
func (h *Handler) handleAPIQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizFromUpload(r)
	if err != nil {
		status, msg := h.errorMessage(r.Context(), err)
		writeJSON(w, status, apiError{Error: msg})
		return
	}

	if err := h.store.PutQuiz(model.SessionIDFromContext(r.Context()), *quiz); err != nil {
		slog.Error("failed to store quiz", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: appI18n.T(r.Context(), "ErrInternal")})
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// handleAPIGrade grades a JSON submission against the session's quiz.
func (h *Handler) handleAPIGrade(w http.ResponseWriter, r *http.Request) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, apiError{Error: "content type must be application/json"})
		return
	}

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isTooLarge(err) {
			_, msg := h.errorMessage(r.Context(), h.tooLarge())
			writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Error: msg})
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON: " + err.Error()})
		return
	}

	sub := make(model.AnswerSubmission, len(req.Answers))
	for key, answer := range req.Answers {
		id, err := strconv.Atoi(key)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid question id " + strconv.Quote(key)})
			return
		}
		sub[id] = answer
	}

	quiz, err := h.store.GetQuiz(model.SessionIDFromContext(r.Context()))
	if err != nil {
		slog.Error("failed to load quiz", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: appI18n.T(r.Context(), "ErrInternal")})
		return
	}
	if quiz == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: appI18n.T(r.Context(), "ErrNoQuiz")})
		return
	}

	result := grading.Grade(*quiz, sub)
	slog.Info("quiz graded", "quiz_id", quiz.ID, "score", result.Score, "total", result.Total, "via", "api")
	writeJSON(w, http.StatusOK, result)
}
