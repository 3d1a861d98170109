package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"trivia-chat-service/internal/domain"
)

const (
	DefaultAdvanceDelay    = 2 * time.Second
	DefaultCreationTimeout = 5 * time.Minute
	DefaultCancelKeyword   = "cancel"
	DefaultTopN            = 10
)

// Options tunes a TriviaService. Zero values fall back to the defaults above.
type Options struct {
	AdvanceDelay    time.Duration
	CreationTimeout time.Duration
	CancelKeyword   string
	Location        *time.Location
	TopN            int
	Admins          []string
	Notifier        Notifier
	Logger          *slog.Logger
	Selector        *Selector
	Now             func() time.Time
	NewMessageID    func() string
}

func (o Options) withDefaults() Options {
	if o.AdvanceDelay <= 0 {
		o.AdvanceDelay = DefaultAdvanceDelay
	}
	if o.CreationTimeout <= 0 {
		o.CreationTimeout = DefaultCreationTimeout
	}
	if o.CancelKeyword == "" {
		o.CancelKeyword = DefaultCancelKeyword
	}
	if o.Location == nil {
		o.Location = time.FixedZone("WIB", 7*60*60)
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Notifier == nil {
		o.Notifier = discardNotifier{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Selector == nil {
		o.Selector = NewSelector()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewMessageID == nil {
		o.NewMessageID = func() string { return uuid.NewString() }
	}
	return o
}

// TriviaService contains the round state machine and the inbound dispatch
// built on top of it.
type TriviaService struct {
	sessions SessionRepository
	bank     *QuestionBank
	scores   ScoreBoard
	jobs     Scheduler
	opts     Options
	logger   *slog.Logger
	admins   map[string]struct{}
	creation *creationFlow
}

func NewTriviaService(sessions SessionRepository, bank *QuestionBank, scores ScoreBoard, jobs Scheduler, opts Options) *TriviaService {
	opts = opts.withDefaults()
	admins := make(map[string]struct{}, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = struct{}{}
	}
	return &TriviaService{
		sessions: sessions,
		bank:     bank,
		scores:   scores,
		jobs:     jobs,
		opts:     opts,
		logger:   opts.Logger,
		admins:   admins,
		creation: newCreationFlow(),
	}
}

// StartResult describes a freshly installed round.
type StartResult struct {
	Round    domain.RoundSnapshot
	DidReset bool
}

// SubmitResult describes the outcome of a text submission.
type SubmitResult struct {
	Credited bool
	Credit   domain.Credit
	Total    int
	Round    domain.RoundSnapshot
}

// IsAdmin reports whether userID may use admin-only actions.
func (s *TriviaService) IsAdmin(userID string) bool {
	_, ok := s.admins[userID]
	return ok
}

// Start installs a new round. An incomplete round is left untouched and
// ErrRoundInProgress is returned; a complete one is archived and replaced.
func (s *TriviaService) Start(ctx context.Context, conversationID string) (StartResult, error) {
	conv := s.sessions.GetOrCreate(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if r := conv.round; r != nil {
		if !r.complete() {
			return StartResult{}, domain.ErrRoundInProgress
		}
		conv.archiveLocked()
	}
	return s.nextRoundLocked(ctx, conv)
}

// Advance marks the current question as shown and moves to the next one,
// whether or not the current round is complete.
func (s *TriviaService) Advance(ctx context.Context, conversationID string) (StartResult, error) {
	conv, ok := s.sessions.Get(conversationID)
	if !ok {
		return StartResult{}, domain.ErrNoActiveRound
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if conv.round == nil {
		return StartResult{}, domain.ErrNoActiveRound
	}
	conv.archiveLocked()
	return s.nextRoundLocked(ctx, conv)
}

// nextRoundLocked selects and installs the next question. On failure the
// conversation falls back to idle. An empty bank is reloaded once first, so a
// store that was unreadable at startup is picked up when it recovers.
func (s *TriviaService) nextRoundLocked(ctx context.Context, conv *Conversation) (StartResult, error) {
	if s.bank.Len() == 0 {
		_ = s.bank.Refresh(ctx)
	}
	id, didReset, err := s.opts.Selector.Next(s.bank.IDs(), conv.shown)
	if err != nil {
		conv.endLocked()
		return StartResult{}, err
	}
	q, ok := s.bank.Get(id)
	if !ok {
		conv.endLocked()
		return StartResult{}, domain.ErrEmptyBank
	}
	r := conv.installLocked(q, s.opts.NewMessageID())
	s.logger.Debug("round started",
		slog.String("conversation", conv.id),
		slog.String("question", q.ID),
		slog.Bool("cycle_reset", didReset))
	return StartResult{Round: r.snapshot(conv.id), DidReset: didReset}, nil
}

// Submit resolves a text message against the live round. Wrong answers and
// answers that were already credited are no-ops.
func (s *TriviaService) Submit(ctx context.Context, ev domain.TextEvent) (SubmitResult, error) {
	conv, ok := s.sessions.Get(ev.ConversationID)
	if !ok {
		return SubmitResult{}, domain.ErrNoActiveRound
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()

	r := conv.round
	if r == nil {
		return SubmitResult{}, domain.ErrNoActiveRound
	}
	index, ok := r.match(ev.Text)
	if !ok {
		return SubmitResult{Round: r.snapshot(conv.id)}, nil
	}

	total, err := s.scores.Credit(ctx, ev.UserID, ev.UserName)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("credit %s: %w", ev.UserID, err)
	}
	credit := r.credit(index, ev.UserID, ev.UserName, s.opts.Now())
	if r.complete() {
		s.scheduleAdvanceLocked(conv, r)
	}
	return SubmitResult{
		Credited: true,
		Credit:   credit,
		Total:    total,
		Round:    r.snapshot(conv.id),
	}, nil
}

func (s *TriviaService) scheduleAdvanceLocked(conv *Conversation, completed *Round) {
	conv.cancelAdvanceLocked()
	id := conv.id
	conv.advance = s.jobs.ScheduleOnce(s.opts.AdvanceDelay, "advance:"+id, func(ctx context.Context) {
		s.autoAdvance(ctx, id, completed)
	})
}

// autoAdvance runs after the post-completion delay. It does nothing if the
// completed round was replaced or surrendered in the meantime.
func (s *TriviaService) autoAdvance(ctx context.Context, conversationID string, completed *Round) {
	conv, ok := s.sessions.Get(conversationID)
	if !ok {
		return
	}
	res, stale, err := s.advanceCompleted(ctx, conv, completed)
	if stale {
		return
	}
	if err != nil {
		s.logger.Error("auto-advance failed, conversation is idle",
			slog.String("conversation", conversationID),
			slog.Any("error", err))
		s.deliver(ctx, s.post(conversationID, "", errorMessage(err)))
		return
	}
	s.deliver(ctx, s.roundStartRenders(conversationID, "", res)...)
}

func (s *TriviaService) advanceCompleted(ctx context.Context, conv *Conversation, completed *Round) (StartResult, bool, error) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.round != completed || !completed.complete() {
		return StartResult{}, true, nil
	}
	conv.advance = nil
	conv.archiveLocked()
	res, err := s.nextRoundLocked(ctx, conv)
	return res, false, err
}

// Surrender ends the live round and returns its question so the answers can
// be revealed. The question is not marked as shown.
func (s *TriviaService) Surrender(_ context.Context, conversationID string) (domain.Question, error) {
	conv, ok := s.sessions.Get(conversationID)
	if !ok {
		return domain.Question{}, domain.ErrNoActiveRound
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()

	r := conv.endLocked()
	if r == nil {
		return domain.Question{}, domain.ErrNoActiveRound
	}
	return r.question, nil
}

// Round returns a snapshot of the conversation's live round.
func (s *TriviaService) Round(conversationID string) (domain.RoundSnapshot, error) {
	conv, ok := s.sessions.Get(conversationID)
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrNoActiveRound
	}
	snap, ok := conv.Snapshot()
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrNoActiveRound
	}
	return snap, nil
}

// Points returns a user's global total.
func (s *TriviaService) Points(ctx context.Context, userID string) (int, error) {
	return s.scores.TotalFor(ctx, userID)
}

// TopScores returns the configured number of leading users.
func (s *TriviaService) TopScores(ctx context.Context) ([]domain.ScoreEntry, error) {
	return s.scores.TopN(ctx, s.opts.TopN)
}

// Stats returns the bank size and per-category counts from the store.
func (s *TriviaService) Stats(ctx context.Context) (int, map[string]int, error) {
	counts, err := s.bank.CountByCategory(ctx)
	if err != nil {
		return 0, nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, counts, nil
}

// Forget tears a conversation down, discarding its round and rotation state.
func (s *TriviaService) Forget(conversationID string) {
	s.sessions.Delete(conversationID)
}

// Reset clears every conversation, pending creation and score.
func (s *TriviaService) Reset(ctx context.Context) error {
	s.creation.reset()
	s.sessions.Reset()
	return s.scores.Reset(ctx)
}

func (s *TriviaService) localNow() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *TriviaService) deliver(ctx context.Context, renders ...domain.Render) {
	if len(renders) == 0 {
		return
	}
	if err := s.opts.Notifier.Deliver(ctx, renders...); err != nil {
		s.logger.Warn("render delivery failed",
			slog.String("conversation", renders[0].ConversationID),
			slog.Any("error", err))
	}
}
