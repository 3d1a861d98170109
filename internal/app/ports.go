package app

import (
	"context"
	"time"

	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/scheduler"
)

// SessionRepository abstracts where conversations live (in-memory, Redis-backed, etc).
type SessionRepository interface {
	GetOrCreate(conversationID string) *Conversation
	Get(conversationID string) (*Conversation, bool)
	Delete(conversationID string)
	Reset()
}

// QuestionStore is the persistent question bank.
type QuestionStore interface {
	LoadAll(ctx context.Context) ([]domain.Question, error)
	Append(ctx context.Context, q domain.NewQuestion) (domain.Question, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// ScoreBoard keeps global point totals across every conversation.
type ScoreBoard interface {
	Credit(ctx context.Context, userID, userName string) (int, error)
	TotalFor(ctx context.Context, userID string) (int, error)
	TopN(ctx context.Context, n int) ([]domain.ScoreEntry, error)
	Reset(ctx context.Context) error
}

// Notifier delivers renders produced outside a request, such as the
// auto-advance after a completed round.
type Notifier interface {
	Deliver(ctx context.Context, renders ...domain.Render) error
}

// Scheduler runs cancellable delayed jobs.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, name string, fn scheduler.Func) scheduler.Job
}

type discardNotifier struct{}

func (discardNotifier) Deliver(context.Context, ...domain.Render) error { return nil }
