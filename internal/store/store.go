package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/pdfquiz/internal/model"

	_ "modernc.org/sqlite"
)

// DefaultSessionTTL is how long a stored quiz stays readable.
const DefaultSessionTTL = 24 * time.Hour

// Store keeps one quiz per browser session in SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// New opens the database at dbPath and applies the schema.
// A non-positive ttl uses DefaultSessionTTL.
func New(dbPath string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &Store{db: db, ttl: ttl}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id TEXT PRIMARY KEY,
		quiz_id TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		question_count INTEGER NOT NULL DEFAULT 0,
		quiz_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_expires ON quiz_sessions(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewSessionID returns a random session identifier.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// PutQuiz stores quiz for the session, replacing any previous quiz and
// restarting its expiry.
func (s *Store) PutQuiz(sessionID string, quiz model.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO quiz_sessions (id, quiz_id, source, question_count, quiz_json, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET quiz_id = ?, source = ?, question_count = ?, quiz_json = ?, created_at = ?, expires_at = ?`,
		sessionID, quiz.ID, quiz.Source, len(quiz.Questions), string(data), now, now.Add(s.ttl),
		quiz.ID, quiz.Source, len(quiz.Questions), string(data), now, now.Add(s.ttl),
	)
	if err != nil {
		return err
	}
	slog.Debug("stored quiz", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return nil
}

// GetQuiz returns the session's quiz, or nil if there is none or it expired.
func (s *Store) GetQuiz(sessionID string) (*model.Quiz, error) {
	var data string
	var expiresAt time.Time
	err := s.db.QueryRow(
		`SELECT quiz_json, expires_at FROM quiz_sessions WHERE id = ?`, sessionID,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(expiresAt) {
		if err := s.ClearQuiz(sessionID); err != nil {
			slog.Warn("failed to clear expired quiz", "error", err)
		}
		return nil, nil
	}
	var quiz model.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return &quiz, nil
}

// ClearQuiz removes the session's quiz.
func (s *Store) ClearQuiz(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM quiz_sessions WHERE id = ?`, sessionID)
	return err
}

// CleanupExpired removes all expired quizzes and reports how many were removed.
func (s *Store) CleanupExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM quiz_sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SessionCount returns the number of stored quizzes, expired or not.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM quiz_sessions`).Scan(&count)
	return count, err
}
