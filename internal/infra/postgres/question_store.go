package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-chat-service/internal/domain"
)

// QuestionStore persists the question bank in Postgres.
type QuestionStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool, clock: time.Now}
}

func (s *QuestionStore) LoadAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, answers, category, difficulty, created_by, created_at
		FROM questions
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			row QuestionRow
			raw []byte
		)
		if err := rows.Scan(&row.ID, &row.Text, &raw, &row.Category, &row.Difficulty, &row.CreatedBy, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &row.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers of %s: %w", row.ID, err)
		}
		questions = append(questions, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionStore) Append(ctx context.Context, nq domain.NewQuestion) (domain.Question, error) {
	nq = nq.Normalize()
	answers, err := json.Marshal(nq.Answers)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal answers: %w", err)
	}
	row := QuestionRow{
		ID:         uuid.NewString(),
		Text:       nq.Text,
		Answers:    nq.Answers,
		Category:   nq.Category,
		Difficulty: nq.Difficulty,
		CreatedBy:  nq.CreatedBy,
		CreatedAt:  s.clock().UTC(),
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO questions (id, text, answers, category, difficulty, created_by, created_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)`,
		row.ID, row.Text, string(answers), row.Category, row.Difficulty, row.CreatedBy, row.CreatedAt)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return row.toDomain(), nil
}

func (s *QuestionStore) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, COUNT(*) FROM questions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[category] = int(n)
	}
	return counts, rows.Err()
}
