package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/domain"
)

const questionsKey = "trivia:questions"

// QuestionCache keeps the full question list in Redis (one JSON string) and
// falls back to the backing store on a miss. Appends go straight to the
// store and invalidate the cached copy.
type QuestionCache struct {
	client  *redis.Client
	backend app.QuestionStore
	ttl     time.Duration
	sf      singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, backend app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:  client,
		backend: backend,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) LoadAll(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.cached(ctx); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx); ok {
			return questions, nil
		}
		questions, err := c.backend.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, questionsKey, payload, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context) ([]domain.Question, bool) {
	payload, err := c.client.Get(ctx, questionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) Append(ctx context.Context, nq domain.NewQuestion) (domain.Question, error) {
	q, err := c.backend.Append(ctx, nq)
	if err != nil {
		return domain.Question{}, err
	}
	// best-effort invalidation; the bank keeps the new question selectable
	// even if the next refresh still sees the old list.
	_ = c.client.Del(ctx, questionsKey).Err()
	return q, nil
}

// CountByCategory is computed from the cached list.
func (c *QuestionCache) CountByCategory(ctx context.Context) (map[string]int, error) {
	questions, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, q := range questions {
		counts[q.Category]++
	}
	return counts, nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
