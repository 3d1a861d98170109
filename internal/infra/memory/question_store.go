package memory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"trivia-chat-service/internal/domain"
)

// QuestionStore is an in-memory question bank (useful for tests/demos and
// as the fallback when no database is configured).
type QuestionStore struct {
	clock func() time.Time

	mu        sync.RWMutex
	questions []domain.Question
}

func NewQuestionStore(questions ...domain.Question) *QuestionStore {
	s := &QuestionStore{clock: time.Now}
	s.questions = append(s.questions, questions...)
	return s
}

type seedFile struct {
	Questions []struct {
		Text       string   `yaml:"text"`
		Answers    []string `yaml:"answers"`
		Category   string   `yaml:"category"`
		Difficulty string   `yaml:"difficulty"`
	} `yaml:"questions"`
}

// LoadSeedFile reads questions from a YAML file of the form:
//
//	questions:
//	  - text: Name the colors of the rainbow
//	    answers: [red, orange, yellow]
//	    category: science
func LoadSeedFile(path string) ([]domain.NewQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	out := make([]domain.NewQuestion, 0, len(seed.Questions))
	for i, q := range seed.Questions {
		if q.Text == "" || len(q.Answers) == 0 {
			return nil, fmt.Errorf("seed file %s: question %d needs text and answers", path, i+1)
		}
		out = append(out, domain.NewQuestion{
			Text:       q.Text,
			Answers:    q.Answers,
			Category:   q.Category,
			Difficulty: q.Difficulty,
		}.Normalize())
	}
	return out, nil
}

func (s *QuestionStore) LoadAll(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

func (s *QuestionStore) Append(_ context.Context, nq domain.NewQuestion) (domain.Question, error) {
	nq = nq.Normalize()
	q := domain.Question{
		ID:         uuid.NewString(),
		Text:       nq.Text,
		Answers:    append([]string(nil), nq.Answers...),
		Category:   nq.Category,
		Difficulty: nq.Difficulty,
		CreatedBy:  nq.CreatedBy,
		CreatedAt:  s.clock(),
	}
	s.mu.Lock()
	s.questions = append(s.questions, q)
	s.mu.Unlock()
	return q, nil
}

func (s *QuestionStore) CountByCategory(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, q := range s.questions {
		counts[q.Category]++
	}
	return counts, nil
}
