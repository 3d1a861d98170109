package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
	"trivia-chat-service/internal/scheduler"
)

// manualScheduler records jobs and only runs them when the test fires them.
type manualScheduler struct {
	mu   sync.Mutex
	jobs []*manualJob
}

type manualJob struct {
	name  string
	delay time.Duration
	fn    scheduler.Func

	mu        sync.Mutex
	cancelled bool
	fired     bool
}

func (j *manualJob) Name() string { return j.name }

func (j *manualJob) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled || j.fired {
		return false
	}
	j.cancelled = true
	return true
}

func (j *manualJob) claim() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled || j.fired {
		return false
	}
	j.fired = true
	return true
}

func (m *manualScheduler) ScheduleOnce(delay time.Duration, name string, fn scheduler.Func) scheduler.Job {
	job := &manualJob{name: name, delay: delay, fn: fn}
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return job
}

// pending returns jobs that are neither cancelled nor fired.
func (m *manualScheduler) pending() []*manualJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualJob
	for _, j := range m.jobs {
		j.mu.Lock()
		live := !j.cancelled && !j.fired
		j.mu.Unlock()
		if live {
			out = append(out, j)
		}
	}
	return out
}

// fireAll runs every pending job and reports how many ran.
func (m *manualScheduler) fireAll(ctx context.Context) int {
	n := 0
	for _, j := range m.pending() {
		if j.claim() {
			j.fn(ctx)
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu      sync.Mutex
	renders []domain.Render
}

func (n *recordingNotifier) Deliver(_ context.Context, renders ...domain.Render) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.renders = append(n.renders, renders...)
	return nil
}

func (n *recordingNotifier) all() []domain.Render {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Render(nil), n.renders...)
}

type testEnv struct {
	service  *app.TriviaService
	sessions *memory.SessionStore
	store    app.QuestionStore
	bank     *app.QuestionBank
	scores   app.ScoreBoard
	jobs     *manualScheduler
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, questions ...domain.Question) *testEnv {
	t.Helper()
	return newTestEnvWith(t, memory.NewQuestionStore(questions...), memory.NewScoreBoard())
}

func newTestEnvWith(t *testing.T, store app.QuestionStore, scores app.ScoreBoard) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bank := app.NewQuestionBank(store, logger)
	if err := bank.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh bank: %v", err)
	}
	env := &testEnv{
		sessions: memory.NewSessionStore(),
		store:    store,
		bank:     bank,
		scores:   scores,
		jobs:     &manualScheduler{},
		notifier: &recordingNotifier{},
	}
	fixed := time.Date(2024, 11, 22, 3, 4, 0, 0, time.UTC)
	env.service = app.NewTriviaService(env.sessions, bank, env.scores, env.jobs, app.Options{
		Admins:   []string{"admin"},
		Notifier: env.notifier,
		Logger:   logger,
		Selector: app.NewSelectorWithSource(rand.NewSource(1)),
		Now:      func() time.Time { return fixed },
	})
	return env
}

// switchableStore is a QuestionStore whose contents and failures are set by
// the test.
type switchableStore struct {
	mu         sync.Mutex
	questions  []domain.Question
	failLoad   bool
	failAppend bool
	next       int
}

func newSwitchableStore(questions ...domain.Question) *switchableStore {
	return &switchableStore{questions: questions}
}

func (s *switchableStore) set(questions ...domain.Question) {
	s.mu.Lock()
	s.questions = questions
	s.mu.Unlock()
}

func (s *switchableStore) setFailAppend(fail bool) {
	s.mu.Lock()
	s.failAppend = fail
	s.mu.Unlock()
}

func (s *switchableStore) setFailLoad(fail bool) {
	s.mu.Lock()
	s.failLoad = fail
	s.mu.Unlock()
}

func (s *switchableStore) LoadAll(context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return nil, errors.New("connection refused")
	}
	return append([]domain.Question(nil), s.questions...), nil
}

func (s *switchableStore) Append(_ context.Context, nq domain.NewQuestion) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return domain.Question{}, errors.New("disk full")
	}
	s.next++
	q := domain.Question{ID: fmt.Sprintf("s%d", s.next), Text: nq.Text, Answers: nq.Answers, Category: nq.Category}
	s.questions = append(s.questions, q)
	return q, nil
}

func (s *switchableStore) CountByCategory(context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, q := range s.questions {
		counts[q.Category]++
	}
	return counts, nil
}

// failingScoreBoard wraps a ScoreBoard and rejects credits while fail is set.
type failingScoreBoard struct {
	*memory.ScoreBoard
	mu   sync.Mutex
	fail bool
}

func (b *failingScoreBoard) setFail(fail bool) {
	b.mu.Lock()
	b.fail = fail
	b.mu.Unlock()
}

func (b *failingScoreBoard) Credit(ctx context.Context, userID, userName string) (int, error) {
	b.mu.Lock()
	fail := b.fail
	b.mu.Unlock()
	if fail {
		return 0, errors.New("redis: connection pool timeout")
	}
	return b.ScoreBoard.Credit(ctx, userID, userName)
}

func fruitQuestion() domain.Question {
	return domain.Question{ID: "q1", Text: "Name a fruit", Answers: []string{"Apple", "Banana"}, Category: "food"}
}

func text(conv, user, name, body string) domain.TextEvent {
	return domain.TextEvent{ConversationID: conv, UserID: user, UserName: name, Text: body}
}
