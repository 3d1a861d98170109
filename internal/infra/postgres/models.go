package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"trivia-chat-service/internal/domain"
)

// QuestionRow is the bun model for the questions table. Answers are stored as
// a JSONB array so their declared order survives the round trip.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID         string    `bun:"id,pk"`
	Text       string    `bun:"text,notnull"`
	Answers    []string  `bun:"answers,type:jsonb,notnull"`
	Category   string    `bun:"category,notnull,default:'general'"`
	Difficulty string    `bun:"difficulty,notnull,default:'medium'"`
	CreatedBy  string    `bun:"created_by,notnull,default:''"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (r QuestionRow) toDomain() domain.Question {
	return domain.Question{
		ID:         r.ID,
		Text:       r.Text,
		Answers:    r.Answers,
		Category:   r.Category,
		Difficulty: r.Difficulty,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt,
	}
}
