package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-chat-service/internal/domain"
)

// ScoreBoard keeps global point totals in process memory.
type ScoreBoard struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*scoreEntry
}

type scoreEntry struct {
	userID   string
	userName string
	total    int
	// reachedAt orders users with equal totals: whoever got there first ranks higher.
	reachedAt uint64
}

func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{entries: make(map[string]*scoreEntry)}
}

func (b *ScoreBoard) Credit(_ context.Context, userID, userName string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	e, ok := b.entries[userID]
	if !ok {
		e = &scoreEntry{userID: userID}
		b.entries[userID] = e
	}
	if userName != "" {
		e.userName = userName
	}
	e.total++
	e.reachedAt = b.seq
	return e.total, nil
}

func (b *ScoreBoard) TotalFor(_ context.Context, userID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[userID]; ok {
		return e.total, nil
	}
	return 0, nil
}

func (b *ScoreBoard) TopN(_ context.Context, n int) ([]domain.ScoreEntry, error) {
	b.mu.Lock()
	ranked := make([]scoreEntry, 0, len(b.entries))
	for _, e := range b.entries {
		ranked = append(ranked, *e)
	}
	b.mu.Unlock()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].reachedAt < ranked[j].reachedAt
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]domain.ScoreEntry, len(ranked))
	for i, e := range ranked {
		out[i] = domain.ScoreEntry{UserID: e.userID, UserName: e.userName, Total: e.total}
	}
	return out, nil
}

func (b *ScoreBoard) Reset(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*scoreEntry)
	b.seq = 0
	return nil
}
