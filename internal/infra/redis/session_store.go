package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-chat-service/internal/app"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Round state and timers stay in process; a conversation is owned by the
//     instance that receives its traffic.
//   - Redis marks conversation liveness so operators can see which chats are
//     active and for how long.
type SessionStore struct {
	client        *redis.Client
	ttl           time.Duration
	mu            sync.RWMutex
	conversations map[string]*app.Conversation
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:        client,
		ttl:           ttl,
		conversations: make(map[string]*app.Conversation),
	}
}

func (s *SessionStore) GetOrCreate(conversationID string) *app.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		s.touch(conversationID)
		return conv
	}
	conv := app.NewConversation(conversationID)
	s.conversations[conversationID] = conv
	s.touch(conversationID)
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
	if !ok {
		return
	}
	conv.Close()
	_ = s.client.Del(context.Background(), s.key(conversationID)).Err()
}

func (s *SessionStore) Reset() {
	s.mu.Lock()
	old := s.conversations
	s.conversations = make(map[string]*app.Conversation)
	s.mu.Unlock()

	keys := make([]string, 0, len(old))
	for id, conv := range old {
		conv.Close()
		keys = append(keys, s.key(id))
	}
	if len(keys) > 0 {
		_ = s.client.Del(context.Background(), keys...).Err()
	}
}

// touch is a best-effort liveness marker.
func (s *SessionStore) touch(conversationID string) {
	_ = s.client.Set(context.Background(), s.key(conversationID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
}

func (s *SessionStore) key(conversationID string) string {
	return "trivia:conversation:" + conversationID
}
