package domain

import (
	"strings"
	"time"
)

const (
	DefaultCategory   = "general"
	DefaultDifficulty = "medium"
)

// Question is a prompt with one or more correct answers. The order of
// Answers is the order they are rendered in.
type Question struct {
	ID         string    `json:"id" yaml:"id"`
	Text       string    `json:"text" yaml:"text"`
	Answers    []string  `json:"answers" yaml:"answers"`
	Category   string    `json:"category" yaml:"category"`
	Difficulty string    `json:"difficulty" yaml:"difficulty"`
	CreatedBy  string    `json:"createdBy,omitempty" yaml:"created_by,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at,omitempty"`
}

// MatchAnswer returns the index of the first answer, in declared order,
// that equals text case-insensitively and is not already taken.
func (q Question) MatchAnswer(text string, taken func(index int) bool) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return -1, false
	}
	for i, answer := range q.Answers {
		if !strings.EqualFold(strings.TrimSpace(answer), text) {
			continue
		}
		if taken != nil && taken(i) {
			continue
		}
		return i, true
	}
	return -1, false
}

// NewQuestion describes a question to append to the store.
type NewQuestion struct {
	Text       string
	Answers    []string
	Category   string
	Difficulty string
	CreatedBy  string
}

// Normalize fills the default category and difficulty.
func (n NewQuestion) Normalize() NewQuestion {
	if strings.TrimSpace(n.Category) == "" {
		n.Category = DefaultCategory
	}
	if strings.TrimSpace(n.Difficulty) == "" {
		n.Difficulty = DefaultDifficulty
	}
	return n
}

// Credit records who supplied a correct answer.
type Credit struct {
	Index      int       `json:"index"`
	Answer     string    `json:"answer"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	CreditedAt time.Time `json:"creditedAt"`
}

// RoundSnapshot is a read-only copy of a live round.
type RoundSnapshot struct {
	ConversationID string    `json:"conversationId"`
	Question       Question  `json:"question"`
	Credits        []Credit  `json:"credits"`
	MessageID      string    `json:"messageId"`
	StartedAt      time.Time `json:"startedAt"`
	Complete       bool      `json:"complete"`
}

// ScoreEntry is one row of the global scoreboard.
type ScoreEntry struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Total    int    `json:"total"`
}
