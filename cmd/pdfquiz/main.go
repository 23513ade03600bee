package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/pdfquiz/internal/handler"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/pdftext"
	"github.com/pavelanni/pdfquiz/internal/quizgen"
	"github.com/pavelanni/pdfquiz/internal/store"
)

//go:generate templ generate -path ../..

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfquiz",
		Short: "Generate multiple-choice quizzes from PDF documents",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `pdfquiz --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz web server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "pdfquiz.db", "SQLite database path for quiz sessions")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.Int("default-questions", 5, "Questions per quiz when the form does not choose")
	f.Int("max-questions", 50, "Largest number of questions a quiz may request")
	f.Int64("max-upload-mb", 16, "Maximum upload size in megabytes")
	f.Duration("session-ttl", store.DefaultSessionTTL, "How long a generated quiz is kept")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate FILE.pdf",
		Short: "Generate a quiz from a PDF and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.IntP("num-questions", "n", 5, "Number of questions to generate")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.Uint64("seed", 0, "Random seed for reproducible quizzes (0 = random)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PDFQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pdfquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/pdfquiz")
	v.AddConfigPath("/etc/pdfquiz")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newGenerator builds a generator with the distractor lists from the config
// file, if any.
func newGenerator(v *viper.Viper, r quizgen.Rand) (*quizgen.Generator, error) {
	var fb quizgen.Fallbacks
	if err := v.UnmarshalKey("distractors", &fb); err != nil {
		return nil, fmt.Errorf("parse distractors: %w", err)
	}
	return quizgen.NewGenerator(r, fb), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ttl := v.GetDuration("session-ttl")
	db, err := store.New(v.GetString("db"), ttl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	removed, err := db.CleanupExpired()
	if err != nil {
		return fmt.Errorf("cleanup expired sessions: %w", err)
	}
	if removed > 0 {
		slog.Info("removed expired quiz sessions", "count", removed)
	}
	active, err := db.SessionCount()
	if err != nil {
		return fmt.Errorf("count quiz sessions: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gen, err := newGenerator(v, nil)
	if err != nil {
		return err
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	quizCfg := model.QuizConfig{
		DefaultQuestions: v.GetInt("default-questions"),
		MaxQuestions:     v.GetInt("max-questions"),
		MaxUploadBytes:   v.GetInt64("max-upload-mb") << 20,
		SessionTTL:       ttl,
		BasePath:         basePath,
		SecureCookies:    v.GetBool("secure-cookies"),
	}

	h, err := handler.New(db, gen, pdftext.Extract, quizCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"default_questions", quizCfg.DefaultQuestions,
		"max_questions", quizCfg.MaxQuestions,
		"max_upload_mb", v.GetInt64("max-upload-mb"),
		"session_ttl", ttl,
		"base_path", basePath,
		"active_sessions", active,
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	var src quizgen.Rand
	if seed := v.GetUint64("seed"); seed != 0 {
		src = rand.New(rand.NewPCG(seed, seed))
	}
	gen, err := newGenerator(v, src)
	if err != nil {
		return err
	}

	path := args[0]
	text, err := pdftext.ExtractFile(path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	quiz, err := gen.Generate(text, v.GetInt("num-questions"))
	if err != nil {
		return fmt.Errorf("generate quiz from %s: %w", path, err)
	}
	quiz.Source = filepath.Base(path)
	slog.Info("generated quiz", "path", path, "questions", len(quiz.Questions))

	data, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
