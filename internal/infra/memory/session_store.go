package memory

import (
	"sync"

	"trivia-chat-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu            sync.RWMutex
	conversations map[string]*app.Conversation
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		conversations: make(map[string]*app.Conversation),
	}
}

func (s *SessionStore) GetOrCreate(conversationID string) *app.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		return conv
	}
	conv := app.NewConversation(conversationID)
	s.conversations[conversationID] = conv
	return conv
}

func (s *SessionStore) Get(conversationID string) (*app.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	return conv, ok
}

func (s *SessionStore) Delete(conversationID string) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	delete(s.conversations, conversationID)
	s.mu.Unlock()
	if ok {
		conv.Close()
	}
}

// Reset drops every conversation.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	old := s.conversations
	s.conversations = make(map[string]*app.Conversation)
	s.mu.Unlock()
	for _, conv := range old {
		conv.Close()
	}
}

// Len returns the number of tracked conversations.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
