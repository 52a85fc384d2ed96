package memory

import (
	"context"
	"strings"

	"quizbot-service/internal/domain"
)

// BankLoader fetches curated question-bank content from a backing store.
type BankLoader interface {
	LoadTopic(ctx context.Context, topic string) ([]domain.QuizItem, error)
}

// StaticBank is a BankLoader backed by an in-memory map (tests/demos, and
// the default when no database is configured).
type StaticBank struct {
	topics map[string][]domain.QuizItem
}

func NewStaticBank(topics map[string][]domain.QuizItem) *StaticBank {
	normalized := make(map[string][]domain.QuizItem, len(topics))
	for topic, items := range topics {
		normalized[strings.ToLower(topic)] = items
	}
	return &StaticBank{topics: normalized}
}

func (b *StaticBank) LoadTopic(_ context.Context, topic string) ([]domain.QuizItem, error) {
	items, ok := b.topics[strings.ToLower(topic)]
	if !ok {
		return nil, domain.ErrBankTopicNotFound
	}
	return items, nil
}
