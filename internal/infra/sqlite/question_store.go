package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"trivia-chat-service/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	answers    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'general',
	difficulty TEXT NOT NULL DEFAULT 'medium',
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS questions_category_idx ON questions(category);
`

// QuestionStore keeps the question bank in a single SQLite file. Answers are
// stored as a JSON array and created_at as unix nanoseconds.
type QuestionStore struct {
	db    *sql.DB
	clock func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*QuestionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps writes serialized and ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &QuestionStore{db: db, clock: time.Now}, nil
}

func (s *QuestionStore) Close() error {
	return s.db.Close()
}

func (s *QuestionStore) LoadAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, answers, category, difficulty, created_by, created_at
		FROM questions
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			raw     string
			created int64
		)
		if err := rows.Scan(&q.ID, &q.Text, &raw, &q.Category, &q.Difficulty, &q.CreatedBy, &created); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &q.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers of %s: %w", q.ID, err)
		}
		q.CreatedAt = time.Unix(0, created).UTC()
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *QuestionStore) Append(ctx context.Context, nq domain.NewQuestion) (domain.Question, error) {
	nq = nq.Normalize()
	answers, err := json.Marshal(nq.Answers)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal answers: %w", err)
	}
	q := domain.Question{
		ID:         uuid.NewString(),
		Text:       nq.Text,
		Answers:    nq.Answers,
		Category:   nq.Category,
		Difficulty: nq.Difficulty,
		CreatedBy:  nq.CreatedBy,
		CreatedAt:  s.clock().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, text, answers, category, difficulty, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, string(answers), q.Category, q.Difficulty, q.CreatedBy, q.CreatedAt.UnixNano())
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM questions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
