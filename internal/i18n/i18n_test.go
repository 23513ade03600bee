package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "PDF Quiz" {
		t.Errorf("T(AppTitle) = %q, want 'PDF Quiz'", got)
	}

	got = T(ctx, "GenerateQuiz")
	if got != "Generate Quiz" {
		t.Errorf("T(GenerateQuiz) = %q, want 'Generate Quiz'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Тест по PDF" {
		t.Errorf("T(AppTitle) = %q, want 'Тест по PDF'", got)
	}

	got = T(ctx, "GenerateQuiz")
	if got != "Создать тест" {
		t.Errorf("T(GenerateQuiz) = %q, want 'Создать тест'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuestionsInQuiz", 1); got != "1 question" {
		t.Errorf("Tp(QuestionsInQuiz, 1) = %q, want '1 question'", got)
	}
	if got := Tp(ctx, "QuestionsInQuiz", 5); got != "5 questions" {
		t.Errorf("Tp(QuestionsInQuiz, 5) = %q, want '5 questions'", got)
	}

	ctx = initLang(t, "ru")
	tests := map[int]string{
		1:  "1 вопрос",
		3:  "3 вопроса",
		5:  "5 вопросов",
		21: "21 вопрос",
	}
	for n, want := range tests {
		if got := Tp(ctx, "QuestionsInQuiz", n); got != want {
			t.Errorf("Tp(QuestionsInQuiz, %d) = %q, want %q", n, got, want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ScoreSummary", map[string]any{"Score": 3, "Total": 4, "Percentage": "75"})
	if got != "You scored 3 out of 4 (75%)." {
		t.Errorf("Td(ScoreSummary) = %q", got)
	}

	got = Td(ctx, "ErrFileTooLarge", map[string]any{"MB": 16})
	if got != "The file is larger than 16 MB." {
		t.Errorf("Td(ErrFileTooLarge) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "en")

	tests := []struct {
		prefs []string
		want  string
	}{
		{[]string{"ru"}, "ru"},
		{[]string{"ru-RU,ru;q=0.9,en;q=0.8"}, "ru"},
		{[]string{"en-GB"}, "en"},
		{[]string{"fr-FR"}, "en"},
		{[]string{"", "ru"}, "ru"},
		{nil, "en"},
	}
	for _, tt := range tests {
		if got := Match(tt.prefs...); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.prefs, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var gotTitle, gotLang string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = T(r.Context(), "AppTitle")
		gotLang = Lang(r.Context())
	}))

	tests := []struct {
		name      string
		url       string
		accept    string
		wantLang  string
		wantTitle string
	}{
		{"default", "/", "", "en", "PDF Quiz"},
		{"accept header", "/", "ru-RU,ru;q=0.9", "ru", "Тест по PDF"},
		{"query wins", "/?lang=en", "ru", "en", "PDF Quiz"},
		{"unsupported", "/", "de-DE", "en", "PDF Quiz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if gotLang != tt.wantLang {
				t.Errorf("Lang = %q, want %q", gotLang, tt.wantLang)
			}
			if gotTitle != tt.wantTitle {
				t.Errorf("title = %q, want %q", gotTitle, tt.wantTitle)
			}
		})
	}
}
