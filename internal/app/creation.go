package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/scheduler"
)

const creationDelimiter = "|"

type creationKey struct {
	conversationID string
	userID         string
}

type pendingCreation struct {
	job scheduler.Job
}

// creationFlow tracks admins whose next message is a question specification.
type creationFlow struct {
	mu      sync.Mutex
	pending map[creationKey]*pendingCreation
}

func newCreationFlow() *creationFlow {
	return &creationFlow{pending: make(map[creationKey]*pendingCreation)}
}

// take removes the pending entry for key and cancels its expiry.
func (f *creationFlow) take(key creationKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[key]
	if !ok {
		return false
	}
	delete(f.pending, key)
	if p.job != nil {
		p.job.Cancel()
	}
	return true
}

// expire removes p if it is still the pending entry for key.
func (f *creationFlow) expire(key creationKey, p *pendingCreation) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[key] != p {
		return false
	}
	delete(f.pending, key)
	return true
}

func (f *creationFlow) has(key creationKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[key]
	return ok
}

func (f *creationFlow) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, p := range f.pending {
		if p.job != nil {
			p.job.Cancel()
		}
		delete(f.pending, key)
	}
}

// RequestCreate marks the admin's next message in the conversation as a
// question specification until the creation timeout elapses.
func (s *TriviaService) RequestCreate(_ context.Context, conversationID, userID string) error {
	if !s.IsAdmin(userID) {
		return domain.ErrUnauthorized
	}
	key := creationKey{conversationID: conversationID, userID: userID}
	p := &pendingCreation{}

	f := s.creation
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.pending[key]; ok && old.job != nil {
		old.job.Cancel()
	}
	f.pending[key] = p
	p.job = s.jobs.ScheduleOnce(s.opts.CreationTimeout, "creation-timeout:"+conversationID+":"+userID, func(ctx context.Context) {
		if !f.expire(key, p) {
			return
		}
		s.logger.Info("question creation timed out",
			slog.String("conversation", conversationID),
			slog.String("user", userID))
		s.deliver(ctx, s.post(conversationID, "", msgCreationTimeout))
	})
	return nil
}

// CancelCreate clears a pending creation before it expires.
func (s *TriviaService) CancelCreate(_ context.Context, conversationID, userID string) error {
	if !s.IsAdmin(userID) {
		return domain.ErrUnauthorized
	}
	if !s.creation.take(creationKey{conversationID: conversationID, userID: userID}) {
		return domain.ErrNoPendingCreation
	}
	return nil
}

// CreationPending reports whether the user's next message will be parsed as a question.
func (s *TriviaService) CreationPending(conversationID, userID string) bool {
	return s.creation.has(creationKey{conversationID: conversationID, userID: userID})
}

// CreateQuestion parses "question|answer1|answer2|..." and appends it to the
// store. Nothing is written unless the caller is an admin and the text parses.
func (s *TriviaService) CreateQuestion(ctx context.Context, userID, text string) (domain.Question, error) {
	if !s.IsAdmin(userID) {
		return domain.Question{}, domain.ErrUnauthorized
	}
	nq, err := ParseCreationSpec(text)
	if err != nil {
		return domain.Question{}, err
	}
	nq.CreatedBy = userID
	q, err := s.bank.Append(ctx, nq)
	if err != nil {
		return domain.Question{}, err
	}
	s.logger.Info("question created",
		slog.String("question", q.ID),
		slog.String("user", userID),
		slog.Int("answers", len(q.Answers)))
	return q, nil
}

// ParseCreationSpec parses "question|answer1|answer2|...". Empty answers are
// dropped; at least one must remain.
func ParseCreationSpec(text string) (domain.NewQuestion, error) {
	parts := strings.Split(text, creationDelimiter)
	if len(parts) < 2 {
		return domain.NewQuestion{}, fmt.Errorf("%w: missing %q delimiter", domain.ErrMalformedCreationSpec, creationDelimiter)
	}
	question := strings.TrimSpace(parts[0])
	if question == "" {
		return domain.NewQuestion{}, fmt.Errorf("%w: missing question", domain.ErrMalformedCreationSpec)
	}
	answers := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if a := strings.TrimSpace(part); a != "" {
			answers = append(answers, a)
		}
	}
	if len(answers) == 0 {
		return domain.NewQuestion{}, fmt.Errorf("%w: at least one answer is required", domain.ErrMalformedCreationSpec)
	}
	return domain.NewQuestion{Text: question, Answers: answers}.Normalize(), nil
}
