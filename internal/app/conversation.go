package app

import (
	"sync"
	"time"

	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/scheduler"
)

// Conversation holds the state of one chat: its live round (if any) and the
// questions already shown in the current rotation cycle. mu is held for the
// whole of a single transition so submissions resolve in arrival order.
type Conversation struct {
	id  string
	now func() time.Time

	mu      sync.Mutex
	round   *Round
	shown   map[string]struct{}
	advance scheduler.Job
	prompts []string
}

// maxOpenPrompts bounds how many unanswered conflict prompts are remembered.
const maxOpenPrompts = 16

// NewConversation is exported for infrastructure layers that create conversations.
func NewConversation(id string) *Conversation {
	return NewConversationWithClock(id, time.Now)
}

// NewConversationWithClock allows deterministic timestamps in tests.
func NewConversationWithClock(id string, now func() time.Time) *Conversation {
	return &Conversation{
		id:    id,
		now:   now,
		shown: make(map[string]struct{}),
	}
}

func (c *Conversation) ID() string { return c.id }

// Snapshot returns a copy of the live round.
func (c *Conversation) Snapshot() (domain.RoundSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.round == nil {
		return domain.RoundSnapshot{}, false
	}
	return c.round.snapshot(c.id), true
}

// Shown returns the question IDs already shown in this rotation cycle.
func (c *Conversation) Shown() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.shown))
	for id := range c.shown {
		ids = append(ids, id)
	}
	return ids
}

// IsIdle reports whether the conversation has no round and no scheduled advance.
func (c *Conversation) IsIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round == nil && c.advance == nil
}

// Close discards the live round and cancels any scheduled advance.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked()
}

// rememberPrompt records a posted conflict prompt so a later "stay" may
// delete it.
func (c *Conversation) rememberPrompt(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, messageID)
	if n := len(c.prompts); n > maxOpenPrompts {
		c.prompts = append([]string(nil), c.prompts[n-maxOpenPrompts:]...)
	}
}

// takePrompt removes messageID from the open prompts and reports whether it
// was one.
func (c *Conversation) takePrompt(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range c.prompts {
		if id == messageID {
			c.prompts = append(c.prompts[:i], c.prompts[i+1:]...)
			return true
		}
	}
	return false
}

// installLocked replaces the current round. Callers must hold mu.
func (c *Conversation) installLocked(q domain.Question, messageID string) *Round {
	c.cancelAdvanceLocked()
	c.round = newRound(q, messageID, c.now())
	return c.round
}

// archiveLocked marks the current question as shown.
func (c *Conversation) archiveLocked() {
	if c.round != nil {
		c.shown[c.round.question.ID] = struct{}{}
	}
}

// endLocked discards the current round without touching rotation state.
func (c *Conversation) endLocked() *Round {
	c.cancelAdvanceLocked()
	r := c.round
	c.round = nil
	return r
}

func (c *Conversation) cancelAdvanceLocked() {
	if c.advance != nil {
		c.advance.Cancel()
		c.advance = nil
	}
}

// Round is the live instance of one question within a conversation.
type Round struct {
	question  domain.Question
	credits   map[int]domain.Credit
	order     []int
	messageID string
	startedAt time.Time
}

func newRound(q domain.Question, messageID string, startedAt time.Time) *Round {
	return &Round{
		question:  q,
		credits:   make(map[int]domain.Credit, len(q.Answers)),
		messageID: messageID,
		startedAt: startedAt,
	}
}

func (r *Round) taken(index int) bool {
	_, ok := r.credits[index]
	return ok
}

// match returns the first uncredited answer equal to text.
func (r *Round) match(text string) (int, bool) {
	return r.question.MatchAnswer(text, r.taken)
}

func (r *Round) credit(index int, userID, userName string, at time.Time) domain.Credit {
	c := domain.Credit{
		Index:      index,
		Answer:     r.question.Answers[index],
		UserID:     userID,
		UserName:   userName,
		CreditedAt: at,
	}
	r.credits[index] = c
	r.order = append(r.order, index)
	return c
}

func (r *Round) complete() bool {
	return len(r.credits) == len(r.question.Answers)
}

func (r *Round) snapshot(conversationID string) domain.RoundSnapshot {
	credits := make([]domain.Credit, 0, len(r.order))
	for _, i := range r.order {
		credits = append(credits, r.credits[i])
	}
	return domain.RoundSnapshot{
		ConversationID: conversationID,
		Question:       r.question,
		Credits:        credits,
		MessageID:      r.messageID,
		StartedAt:      r.startedAt,
		Complete:       r.complete(),
	}
}
