package app

import (
	"math/rand"
	"sync"
	"time"

	"trivia-chat-service/internal/domain"
)

// Selector picks the next question for a conversation, cycling through the
// bank before repeating any question.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource allows deterministic picks in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Next picks uniformly among bank IDs not in shown. When every ID has been
// shown, shown is cleared before picking and didReset is true.
func (s *Selector) Next(bank []string, shown map[string]struct{}) (string, bool, error) {
	if len(bank) == 0 {
		return "", false, domain.ErrEmptyBank
	}

	candidates := make([]string, 0, len(bank))
	for _, id := range bank {
		if _, ok := shown[id]; !ok {
			candidates = append(candidates, id)
		}
	}

	didReset := false
	if len(candidates) == 0 {
		clear(shown)
		candidates = append(candidates, bank...)
		didReset = true
	}

	s.mu.Lock()
	pick := candidates[s.rnd.Intn(len(candidates))]
	s.mu.Unlock()
	return pick, didReset, nil
}
