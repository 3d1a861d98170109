package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
)

func TestRoundLifecycleWithAutoAdvance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())

	res, err := env.service.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if res.Round.Question.ID != "q1" || res.DidReset {
		t.Fatalf("unexpected start result %+v", res)
	}

	sub, err := env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !sub.Credited || sub.Credit.Answer != "Apple" || sub.Total != 1 {
		t.Fatalf("expected Alice to be credited for Apple, got %+v", sub)
	}

	sub, err = env.service.Submit(ctx, text("c1", "u2", "Bob", "APPLE"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if sub.Credited {
		t.Fatalf("expected duplicate answer to be ignored")
	}

	sub, err = env.service.Submit(ctx, text("c1", "u2", "Bob", "Banana"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !sub.Round.Complete {
		t.Fatalf("expected round to be complete")
	}

	pending := env.jobs.pending()
	if len(pending) != 1 {
		t.Fatalf("expected one scheduled advance, got %d", len(pending))
	}
	if pending[0].delay.Seconds() != 2 {
		t.Fatalf("expected 2s advance delay, got %s", pending[0].delay)
	}

	env.jobs.fireAll(ctx)

	renders := env.notifier.all()
	if len(renders) != 2 {
		t.Fatalf("expected reset notice and new question, got %d renders", len(renders))
	}
	if renders[0].Text != "🎉 All questions have been shown! Starting over..." {
		t.Fatalf("unexpected first render %q", renders[0].Text)
	}
	snap, err := env.service.Round("c1")
	if err != nil {
		t.Fatalf("expected a new live round: %v", err)
	}
	if len(snap.Credits) != 0 || renders[1].MessageID != snap.MessageID {
		t.Fatalf("expected a fresh round posted as %s, got %+v", snap.MessageID, renders[1])
	}

	if total, _ := env.service.Points(ctx, "u2"); total != 1 {
		t.Fatalf("expected Bob to have 1 point, got %d", total)
	}
}

func TestSurrenderRevealsAndLeavesRotationUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())

	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	q, err := env.service.Surrender(ctx, "c1")
	if err != nil {
		t.Fatalf("surrender failed: %v", err)
	}
	if len(q.Answers) != 2 {
		t.Fatalf("expected revealed answers, got %+v", q)
	}
	if _, err := env.service.Round("c1"); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected no active round, got %v", err)
	}
	conv, _ := env.sessions.Get("c1")
	if len(conv.Shown()) != 0 {
		t.Fatalf("surrender must not mark the question as shown, got %v", conv.Shown())
	}
	if !conv.IsIdle() {
		t.Fatalf("expected conversation to be idle")
	}

	sub, err := env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))
	if !errors.Is(err, domain.ErrNoActiveRound) || sub.Credited {
		t.Fatalf("expected submissions to be ignored after surrender, got %+v %v", sub, err)
	}
}

func TestSurrenderCancelsPendingAdvance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())

	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "banana"))

	if _, err := env.service.Surrender(ctx, "c1"); err != nil {
		t.Fatalf("surrender failed: %v", err)
	}
	if n := env.jobs.fireAll(ctx); n != 0 {
		t.Fatalf("expected the advance to be cancelled, %d jobs ran", n)
	}
	if len(env.notifier.all()) != 0 {
		t.Fatalf("expected nothing to be delivered")
	}
	if _, err := env.service.Round("c1"); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected idle conversation, got %v", err)
	}
}

func TestStartWhileRoundInProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())

	first, err := env.service.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))

	if _, err := env.service.Start(ctx, "c1"); !errors.Is(err, domain.ErrRoundInProgress) {
		t.Fatalf("expected ErrRoundInProgress, got %v", err)
	}
	snap, _ := env.service.Round("c1")
	if snap.MessageID != first.Round.MessageID || len(snap.Credits) != 1 {
		t.Fatalf("expected the live round to be untouched, got %+v", snap)
	}

	if _, err := env.service.Surrender(ctx, "c1"); err != nil {
		t.Fatalf("surrender failed: %v", err)
	}
	fresh, err := env.service.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("start after surrender failed: %v", err)
	}
	if fresh.Round.MessageID == first.Round.MessageID || len(fresh.Round.Credits) != 0 {
		t.Fatalf("expected a fresh round, got %+v", fresh.Round)
	}
}

func TestRotationShowsEveryQuestionBeforeRepeating(t *testing.T) {
	ctx := context.Background()
	var questions []domain.Question
	for i := 1; i <= 4; i++ {
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("q%d", i),
			Text:    fmt.Sprintf("Question %d", i),
			Answers: []string{"yes"},
		})
	}
	env := newTestEnv(t, questions...)

	seen := make(map[string]bool)
	res, err := env.service.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	seen[res.Round.Question.ID] = true
	for i := 0; i < 3; i++ {
		res, err = env.service.Advance(ctx, "c1")
		if err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if res.DidReset {
			t.Fatalf("unexpected reset after %d questions", len(seen))
		}
		if seen[res.Round.Question.ID] {
			t.Fatalf("question %s repeated before the cycle ended", res.Round.Question.ID)
		}
		seen[res.Round.Question.ID] = true
	}

	res, err = env.service.Advance(ctx, "c1")
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !res.DidReset {
		t.Fatalf("expected the cycle to reset after every question was shown")
	}
}

func TestRotationIsPerConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		domain.Question{ID: "q1", Text: "One", Answers: []string{"a"}},
		domain.Question{ID: "q2", Text: "Two", Answers: []string{"b"}},
	)

	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := env.service.Advance(ctx, "c1"); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	res, err := env.service.Start(ctx, "c2")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if res.DidReset {
		t.Fatalf("a new conversation starts with an empty shown set")
	}
	c2, _ := env.sessions.Get("c2")
	if len(c2.Shown()) != 0 {
		t.Fatalf("expected no shown questions in c2, got %v", c2.Shown())
	}
}

func TestStartWithEmptyBank(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.service.Start(context.Background(), "c1"); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
	conv, _ := env.sessions.Get("c1")
	if !conv.IsIdle() {
		t.Fatalf("expected conversation to stay idle")
	}
}

func TestAdvanceWithoutRound(t *testing.T) {
	env := newTestEnv(t, fruitQuestion())
	if _, err := env.service.Advance(context.Background(), "nobody"); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected ErrNoActiveRound, got %v", err)
	}
}

func TestScoresAccumulateAcrossConversations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())

	for _, conv := range []string{"c1", "c2"} {
		if _, err := env.service.Start(ctx, conv); err != nil {
			t.Fatalf("start %s failed: %v", conv, err)
		}
		if _, err := env.service.Submit(ctx, text(conv, "u1", "Alice", " Apple ")); err != nil {
			t.Fatalf("submit %s failed: %v", conv, err)
		}
	}
	if total, _ := env.service.Points(ctx, "u1"); total != 2 {
		t.Fatalf("expected 2 points, got %d", total)
	}
	top, err := env.service.TopScores(ctx)
	if err != nil {
		t.Fatalf("top scores failed: %v", err)
	}
	if len(top) != 1 || top[0].UserName != "Alice" || top[0].Total != 2 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}
}

func TestConcurrentSubmissionsCreditOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())
	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		credited int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.service.Submit(ctx, text("c1", fmt.Sprintf("u%d", i), "player", "apple"))
			if err != nil {
				t.Errorf("submit failed: %v", err)
				return
			}
			if res.Credited {
				mu.Lock()
				credited++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if credited != 1 {
		t.Fatalf("expected exactly one credit, got %d", credited)
	}
	snap, _ := env.service.Round("c1")
	if len(snap.Credits) != 1 {
		t.Fatalf("expected one recorded credit, got %d", len(snap.Credits))
	}
}

func TestForgetCancelsScheduledAdvance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())
	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "banana"))

	env.service.Forget("c1")
	if n := env.jobs.fireAll(ctx); n != 0 {
		t.Fatalf("expected no jobs to run after forget, got %d", n)
	}
	if _, ok := env.sessions.Get("c1"); ok {
		t.Fatalf("expected conversation to be removed")
	}
}

func TestResetClearsScores(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())
	_, _ = env.service.Start(ctx, "c1")
	_, _ = env.service.Submit(ctx, text("c1", "u1", "Alice", "apple"))

	if err := env.service.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if total, _ := env.service.Points(ctx, "u1"); total != 0 {
		t.Fatalf("expected scores to be cleared, got %d", total)
	}
	if _, err := env.service.Round("c1"); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected conversations to be cleared, got %v", err)
	}
}

func TestStatsCountsByCategory(t *testing.T) {
	env := newTestEnv(t,
		fruitQuestion(),
		domain.Question{ID: "q2", Text: "Colors", Answers: []string{"red"}, Category: "science"},
		domain.Question{ID: "q3", Text: "Planets", Answers: []string{"mars"}, Category: "science"},
	)
	total, counts, err := env.service.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if total != 3 || counts["science"] != 2 || counts["food"] != 1 {
		t.Fatalf("unexpected stats %d %v", total, counts)
	}
}

func TestFailedCreditLeavesAnswerOpen(t *testing.T) {
	ctx := context.Background()
	scores := &failingScoreBoard{ScoreBoard: memory.NewScoreBoard()}
	env := newTestEnvWith(t, memory.NewQuestionStore(fruitQuestion()), scores)

	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	scores.setFail(true)
	if _, err := env.service.Submit(ctx, text("c1", "u1", "Alice", "apple")); err == nil {
		t.Fatalf("expected the credit failure to be returned")
	}
	snap, err := env.service.Round("c1")
	if err != nil {
		t.Fatalf("round lookup failed: %v", err)
	}
	if len(snap.Credits) != 0 || snap.Complete {
		t.Fatalf("expected no credit to be recorded, got %+v", snap.Credits)
	}

	scores.setFail(false)
	sub, err := env.service.Submit(ctx, text("c1", "u2", "Bob", "Apple"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !sub.Credited || sub.Credit.UserID != "u2" || sub.Total != 1 {
		t.Fatalf("expected Bob to take the answer after recovery, got %+v", sub)
	}
	if total, _ := env.service.Points(ctx, "u1"); total != 0 {
		t.Fatalf("expected Alice to have no points, got %d", total)
	}
}

func TestAnswerIsTrimmedBeforeMatching(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, fruitQuestion())
	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sub, err := env.service.Submit(ctx, text("c1", "u1", "Alice", "  apple \t"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !sub.Credited || sub.Credit.Answer != "Apple" {
		t.Fatalf("expected padded answer to be credited, got %+v", sub)
	}
}

func TestAutoAdvanceIntoEmptyBankGoesIdle(t *testing.T) {
	ctx := context.Background()
	store := newSwitchableStore(fruitQuestion())
	env := newTestEnvWith(t, store, memory.NewScoreBoard())

	if _, err := env.service.Start(ctx, "c1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	for _, answer := range []string{"apple", "banana"} {
		if _, err := env.service.Submit(ctx, text("c1", "u1", "Alice", answer)); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	store.set()
	if err := env.bank.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if n := env.jobs.fireAll(ctx); n != 1 {
		t.Fatalf("expected one advance to run, got %d", n)
	}

	if _, err := env.service.Round("c1"); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected the conversation to be idle, got %v", err)
	}
	renders := env.notifier.all()
	if len(renders) != 1 || renders[0].Text != "❌ No questions are available right now." {
		t.Fatalf("expected an empty bank notice, got %+v", renders)
	}
}

func TestStartReloadsBankAfterStoreRecovers(t *testing.T) {
	ctx := context.Background()
	store := newSwitchableStore()
	env := newTestEnvWith(t, store, memory.NewScoreBoard())

	store.setFailLoad(true)
	if _, err := env.service.Start(ctx, "c1"); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}

	store.setFailLoad(false)
	store.set(fruitQuestion())
	res, err := env.service.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("expected start to pick up the recovered store: %v", err)
	}
	if res.Round.Question.ID != "q1" {
		t.Fatalf("unexpected question %s", res.Round.Question.ID)
	}
}
