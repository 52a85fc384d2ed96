package app

import (
	"context"
	"log"
	"strings"
	"sync"

	"quizbot-service/internal/content"
	"quizbot-service/internal/domain"
	"quizbot-service/internal/quizrun"
)

// GeneratedSource yields quiz items from the LLM generator, validating each
// payload. When generation or validation fails and a fallback source is
// configured, the slot is served from the fallback instead of being skipped.
type GeneratedSource struct {
	generator Generator
	fallback  quizrun.ItemSource
}

func NewGeneratedSource(generator Generator, fallback quizrun.ItemSource) *GeneratedSource {
	return &GeneratedSource{generator: generator, fallback: fallback}
}

func (s *GeneratedSource) NextItem(ctx context.Context, topic string) (domain.QuizItem, error) {
	raw, err := s.generator.Generate(ctx, dailyQuizPrompt(topic))
	if err != nil {
		return s.recover(ctx, topic, err)
	}
	item, err := content.ParseItem(raw, "Daily Quiz")
	if err != nil {
		return s.recover(ctx, topic, err)
	}
	return item, nil
}

func (s *GeneratedSource) recover(ctx context.Context, topic string, cause error) (domain.QuizItem, error) {
	if s.fallback == nil {
		return domain.QuizItem{}, cause
	}
	log.Printf("app: generation for %q failed (%v), falling back to question bank", topic, cause)
	return s.fallback.NextItem(ctx, topic)
}

// BankSource cycles through curated question-bank items for a topic.
type BankSource struct {
	bank QuestionBank

	mu      sync.Mutex
	cursors map[string]int
}

func NewBankSource(bank QuestionBank) *BankSource {
	return &BankSource{bank: bank, cursors: make(map[string]int)}
}

func (s *BankSource) NextItem(ctx context.Context, topic string) (domain.QuizItem, error) {
	key := strings.ToLower(strings.TrimSpace(topic))
	items, err := s.bank.Topic(ctx, key)
	if err != nil {
		return domain.QuizItem{}, err
	}
	if len(items) == 0 {
		return domain.QuizItem{}, domain.ErrBankTopicNotFound
	}

	s.mu.Lock()
	cursor := s.cursors[key]
	s.cursors[key] = cursor + 1
	s.mu.Unlock()

	return items[cursor%len(items)], nil
}
