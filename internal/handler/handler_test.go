package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/quizgen"
)

const sampleText = `Python is a popular programming language for data work.
Guido van Rossum released the first version in 1991.
The standard library contains modules for files, networking and text.
Virtual environments are used to isolate project dependencies cleanly.
Many teams write their automation scripts with it every day.`

// memStore is an in-memory QuizStore.
type memStore struct {
	mu      sync.Mutex
	quizzes map[string]model.Quiz
	err     error
}

func newMemStore() *memStore {
	return &memStore{quizzes: make(map[string]model.Quiz)}
}

func (m *memStore) PutQuiz(sessionID string, quiz model.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.quizzes[sessionID] = quiz
	return nil
}

func (m *memStore) GetQuiz(sessionID string) (*model.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	q, ok := m.quizzes[sessionID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (m *memStore) ClearQuiz(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizzes, sessionID)
	return nil
}

func (m *memStore) only(t *testing.T) model.Quiz {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.quizzes) != 1 {
		t.Fatalf("expected exactly one stored quiz, got %d", len(m.quizzes))
	}
	for _, q := range m.quizzes {
		return q
	}
	return model.Quiz{}
}

// fakeExtract treats everything after the PDF magic bytes as the document text.
func fakeExtract(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", errors.New("not a pdf")
	}
	return string(data[5:]), nil
}

func pdfWith(text string) []byte {
	return []byte("%PDF-" + text)
}

func newTestServer(t *testing.T, cfg model.QuizConfig) (http.Handler, *memStore) {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	st := newMemStore()
	h, err := New(st, quizgen.NewGenerator(nil, quizgen.Fallbacks{}), fakeExtract, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	if cfg.BasePath != "" {
		r.Route(cfg.BasePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}
	return r, st
}

// browser replays cookies between requests.
type browser struct {
	t       *testing.T
	srv     http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, srv http.Handler) *browser {
	return &browser{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	b.srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) csrf() string {
	if c, ok := b.cookies[csrfCookieName]; ok {
		return c.Value
	}
	return ""
}

func (b *browser) postForm(path string, vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// upload posts a multipart form. An empty filename omits the file part.
func (b *browser) upload(path, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			b.t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			b.t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			b.t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		b.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) postJSON(path string, v any) *httptest.ResponseRecorder {
	b.t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		b.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("redirect to %q, want %q", loc, want)
	}
}

func TestIndexIssuesCookies(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)

	rec := b.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/upload"`) {
		t.Error("expected upload form")
	}
	session, ok := b.cookies[sessionCookieName]
	if !ok || !validSessionID(session.Value) {
		t.Fatalf("expected a session cookie, got %+v", session)
	}
	if !session.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if b.csrf() == "" {
		t.Error("expected a csrf cookie")
	}

	// An existing session is kept.
	rec = b.get("/")
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Errorf("session cookie reissued: %q", c.Value)
		}
	}
}

func TestUploadAndSubmit(t *testing.T) {
	srv, st := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.upload("/upload", "notes.pdf", pdfWith(sampleText), map[string]string{
		"csrf_token":    b.csrf(),
		"num_questions": "3",
	})
	assertRedirect(t, rec, "/quiz")

	quiz := st.only(t)
	if len(quiz.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(quiz.Questions))
	}
	if quiz.Source != "notes.pdf" {
		t.Errorf("expected source notes.pdf, got %q", quiz.Source)
	}

	rec = b.get("/quiz")
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz page: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{`name="q_0"`, `name="q_1"`, `name="q_2"`} {
		if !strings.Contains(body, name) {
			t.Errorf("quiz page missing %s", name)
		}
	}

	rec = b.postForm("/submit-quiz", url.Values{
		"csrf_token": {b.csrf()},
		"q_0":        {quiz.Questions[0].Correct},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	body = rec.Body.String()
	if !strings.Contains(body, "You scored 1 out of 3 (33.3%).") {
		t.Errorf("unexpected result page: %s", body)
	}
	if strings.Count(body, "<strong>Not answered</strong>") != 2 {
		t.Error("expected two unanswered questions")
	}

	// Grading does not consume the quiz.
	if rec := b.get("/quiz"); rec.Code != http.StatusOK {
		t.Errorf("quiz page after submit: %d", rec.Code)
	}
}

func TestUploadDefaultCount(t *testing.T) {
	srv, st := newTestServer(t, model.QuizConfig{DefaultQuestions: 2})
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.upload("/upload", "NOTES.PDF", pdfWith(sampleText), map[string]string{"csrf_token": b.csrf()})
	assertRedirect(t, rec, "/quiz")
	if n := len(st.only(t).Questions); n != 2 {
		t.Errorf("expected the default of 2 questions, got %d", n)
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		count    string
		status   int
		message  string
	}{
		{"no file", "", nil, "5", http.StatusBadRequest, "No file uploaded."},
		{"wrong extension", "notes.txt", pdfWith(sampleText), "5", http.StatusBadRequest, "Please upload a PDF file."},
		{"zero count", "notes.pdf", pdfWith(sampleText), "0", http.StatusBadRequest, "between 1 and 50"},
		{"count too large", "notes.pdf", pdfWith(sampleText), "51", http.StatusBadRequest, "between 1 and 50"},
		{"count not a number", "notes.pdf", pdfWith(sampleText), "five", http.StatusBadRequest, "between 1 and 50"},
		{"unreadable pdf", "notes.pdf", []byte("not really a pdf"), "5", http.StatusUnprocessableEntity, "Could not extract text"},
		{"blank pdf", "notes.pdf", pdfWith("   "), "5", http.StatusUnprocessableEntity, "Could not extract text"},
		{
			"too little text", "notes.pdf",
			pdfWith("Python is a popular programming language for data work. Short one."),
			"5", http.StatusUnprocessableEntity, "does not contain enough text",
		},
		{
			"nothing to ask", "notes.pdf",
			pdfWith("Latency refers to the delay before a transfer begins. Entropy is defined as a measure of disorder here. Bandwidth refers to the capacity of a network link."),
			"5", http.StatusUnprocessableEntity, "Could not generate any questions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := newTestServer(t, model.QuizConfig{})
			b := newBrowser(t, srv)
			b.get("/")

			rec := b.upload("/upload", tt.filename, tt.data, map[string]string{
				"csrf_token":    b.csrf(),
				"num_questions": tt.count,
			})
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("expected message %q in page", tt.message)
			}
			if !strings.Contains(rec.Body.String(), `name="csrf_token" value="`+b.csrf()+`"`) {
				t.Error("error page must carry a fresh csrf token")
			}
			if len(st.quizzes) != 0 {
				t.Error("no quiz may be stored on failure")
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	srv, st := newTestServer(t, model.QuizConfig{MaxUploadBytes: 2 << 20})
	b := newBrowser(t, srv)
	b.get("/")

	big := pdfWith(strings.Repeat("Python is a popular programming language for data work. ", 60000))
	rec := b.upload("/upload", "big.pdf", big, map[string]string{"csrf_token": b.csrf()})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The file is larger than 2 MB.") {
		t.Error("expected size message")
	}
	if len(st.quizzes) != 0 {
		t.Error("no quiz may be stored")
	}
}

func TestCSRFRequired(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.upload("/upload", "notes.pdf", pdfWith(sampleText), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("upload without token: expected 403, got %d", rec.Code)
	}

	rec = b.postForm("/submit-quiz", url.Values{"csrf_token": {"wrong"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("submit with bad token: expected 403, got %d", rec.Code)
	}

	fresh := newBrowser(t, srv)
	rec = fresh.postForm("/submit-quiz", url.Values{"csrf_token": {"anything"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("submit without cookie: expected 403, got %d", rec.Code)
	}
}

func TestNoQuizRedirects(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)

	assertRedirect(t, b.get("/quiz"), "/")

	b.get("/")
	assertRedirect(t, b.postForm("/submit-quiz", url.Values{"csrf_token": {b.csrf()}}), "/")
}

func TestReset(t *testing.T) {
	srv, st := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)
	b.get("/")
	assertRedirect(t, b.upload("/upload", "notes.pdf", pdfWith(sampleText), map[string]string{"csrf_token": b.csrf()}), "/quiz")

	assertRedirect(t, b.get("/reset"), "/")
	if len(st.quizzes) != 0 {
		t.Error("expected quiz to be cleared")
	}
	assertRedirect(t, b.get("/quiz"), "/")
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	alice := newBrowser(t, srv)
	alice.get("/")
	assertRedirect(t, alice.upload("/upload", "notes.pdf", pdfWith(sampleText), map[string]string{"csrf_token": alice.csrf()}), "/quiz")

	bob := newBrowser(t, srv)
	assertRedirect(t, bob.get("/quiz"), "/")
}

func TestStoreFailure(t *testing.T) {
	srv, st := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)
	b.get("/")
	st.err = errors.New("disk full")

	rec := b.upload("/upload", "notes.pdf", pdfWith(sampleText), map[string]string{"csrf_token": b.csrf()})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if rec := b.get("/quiz"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from quiz page, got %d", rec.Code)
	}
}

func TestAPIQuizAndGrade(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)

	rec := b.upload("/api/quiz", "notes.pdf", pdfWith(sampleText), map[string]string{"num_questions": "4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("api quiz: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
	var quiz model.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &quiz); err != nil {
		t.Fatalf("decode quiz: %v", err)
	}
	if len(quiz.Questions) != 4 || quiz.ID == "" {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	answers := make(map[string]string)
	for _, q := range quiz.Questions {
		answers[strconv.Itoa(q.ID)] = q.Correct
	}
	rec = b.postJSON("/api/grade", gradeRequest{Answers: answers})
	if rec.Code != http.StatusOK {
		t.Fatalf("api grade: %d %s", rec.Code, rec.Body.String())
	}
	var result model.GradeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Score != 4 || result.Total != 4 || result.Percentage != 100 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestAPIErrors(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)

	rec := b.upload("/api/quiz", "notes.pdf", pdfWith("  "), nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	var apiErr apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil || !strings.Contains(apiErr.Error, "Could not extract text") {
		t.Errorf("unexpected error body %q", rec.Body.String())
	}

	rec = b.postJSON("/api/grade", gradeRequest{Answers: map[string]string{"0": "x"}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("grade without quiz: expected 404, got %d", rec.Code)
	}

	rec = b.postJSON("/api/grade", gradeRequest{Answers: map[string]string{"first": "x"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/grade", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("Content-Type", "text/plain")
	if rec := b.do(req); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("plain text: expected 415, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/grade", strings.NewReader(`{"answers":`))
	req.Header.Set("Content-Type", "application/json")
	if rec := b.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("truncated json: expected 400, got %d", rec.Code)
	}
}

func TestBasePath(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{BasePath: "/pdf"})
	b := newBrowser(t, srv)

	rec := b.get("/pdf/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/pdf/upload"`) {
		t.Error("form must post under the base path")
	}
	if c := b.cookies[sessionCookieName]; c == nil || c.Path != "/pdf/" {
		t.Errorf("session cookie path: %+v", c)
	}

	assertRedirect(t, b.upload("/pdf/upload", "notes.pdf", pdfWith(sampleText), map[string]string{"csrf_token": b.csrf()}), "/pdf/quiz")
	assertRedirect(t, b.get("/pdf/reset"), "/pdf/")

	rec = b.get("/pdf/static/app.css")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".progress-bar") {
		t.Errorf("static asset under base path: %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, model.QuizConfig{})
	b := newBrowser(t, srv)

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		if rec := b.get(path); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
	if rec := b.get("/static/missing.js"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: expected 404, got %d", rec.Code)
	}
}

func TestNew(t *testing.T) {
	gen := quizgen.NewGenerator(nil, quizgen.Fallbacks{})

	if _, err := New(nil, gen, fakeExtract, model.QuizConfig{}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(newMemStore(), gen, fakeExtract, model.QuizConfig{DefaultQuestions: 20, MaxQuestions: 10}); err == nil {
		t.Error("expected error when the default exceeds the maximum")
	}

	h, err := New(newMemStore(), gen, fakeExtract, model.QuizConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.config.DefaultQuestions != 5 || h.config.MaxQuestions != 50 || h.config.MaxUploadBytes != 16<<20 {
		t.Errorf("unexpected defaults %+v", h.config)
	}
}

func TestQuestionCount(t *testing.T) {
	h := &Handler{config: model.QuizConfig{DefaultQuestions: 5, MaxQuestions: 20}}
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 5, false},
		{"1", 1, false},
		{" 12 ", 12, false},
		{"20", 20, false},
		{"21", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := h.questionCount(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("questionCount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("questionCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
