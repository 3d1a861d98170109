package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
	"trivia-chat-service/internal/domain"
)

// QuestionBank is the in-memory view of the QuestionStore used for selection.
// A failed refresh keeps the previous contents.
type QuestionBank struct {
	store  QuestionStore
	logger *slog.Logger
	sf     singleflight.Group

	mu        sync.RWMutex
	questions []domain.Question
	byID      map[string]int
}

func NewQuestionBank(store QuestionStore, logger *slog.Logger) *QuestionBank {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionBank{
		store:  store,
		logger: logger,
		byID:   make(map[string]int),
	}
}

// Refresh reloads every question from the store.
func (b *QuestionBank) Refresh(ctx context.Context) error {
	_, err, _ := b.sf.Do("refresh", func() (interface{}, error) {
		questions, err := b.store.LoadAll(ctx)
		if err != nil {
			b.logger.Error("question bank refresh failed, keeping previous bank",
				slog.Int("questions", b.Len()),
				slog.Any("error", err))
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		b.replace(questions)
		return nil, nil
	})
	return err
}

func (b *QuestionBank) replace(questions []domain.Question) {
	byID := make(map[string]int, len(questions))
	kept := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" || len(q.Answers) == 0 {
			b.logger.Warn("skipping invalid question", slog.String("id", q.ID))
			continue
		}
		if _, dup := byID[q.ID]; dup {
			continue
		}
		byID[q.ID] = len(kept)
		kept = append(kept, q)
	}

	b.mu.Lock()
	b.questions = kept
	b.byID = byID
	b.mu.Unlock()
}

// EnsureSeeded refreshes the bank and, if the store holds no questions,
// appends samples and refreshes again. A failed read is logged and leaves
// the bank empty; only a failed seed write is returned.
func (b *QuestionBank) EnsureSeeded(ctx context.Context, samples []domain.NewQuestion) error {
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("question store unreadable at startup, not seeding", slog.Any("error", err))
		return nil
	}
	if b.Len() > 0 {
		return nil
	}
	b.logger.Info("question store is empty, seeding sample questions", slog.Int("samples", len(samples)))
	for _, sample := range samples {
		if _, err := b.store.Append(ctx, sample); err != nil {
			return fmt.Errorf("%w: seed question: %v", domain.ErrStoreUnavailable, err)
		}
	}
	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("reload after seeding failed", slog.Any("error", err))
	}
	return nil
}

// Append writes a question to the store and reloads the bank.
func (b *QuestionBank) Append(ctx context.Context, nq domain.NewQuestion) (domain.Question, error) {
	q, err := b.store.Append(ctx, nq.Normalize())
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: append question: %v", domain.ErrStoreUnavailable, err)
	}
	// The reload may fail, or may join a load that started before the write
	// and return the old list. Either way the new question must be selectable.
	_ = b.Refresh(ctx)
	b.mu.Lock()
	if _, ok := b.byID[q.ID]; !ok {
		b.byID[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}
	b.mu.Unlock()
	return q, nil
}

// CountByCategory reports how many stored questions each category has.
func (b *QuestionBank) CountByCategory(ctx context.Context) (map[string]int, error) {
	counts, err := b.store.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count by category: %v", domain.ErrStoreUnavailable, err)
	}
	return counts, nil
}

func (b *QuestionBank) Get(id string) (domain.Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.byID[id]
	if !ok {
		return domain.Question{}, false
	}
	return b.questions[i], true
}

// IDs returns question IDs in store order.
func (b *QuestionBank) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, len(b.questions))
	for i, q := range b.questions {
		ids[i] = q.ID
	}
	return ids
}

func (b *QuestionBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}
