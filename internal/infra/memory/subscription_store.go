package memory

import (
	"context"
	"sort"
	"sync"
)

// SubscriptionStore keeps per-user topic subscriptions in memory.
type SubscriptionStore struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{}
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{topics: make(map[string]map[string]struct{})}
}

func (s *SubscriptionStore) Add(_ context.Context, userID, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topics[userID] == nil {
		s.topics[userID] = make(map[string]struct{})
	}
	s.topics[userID][topic] = struct{}{}
	return nil
}

func (s *SubscriptionStore) Remove(_ context.Context, userID, topic string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[userID][topic]; !ok {
		return false, nil
	}
	delete(s.topics[userID], topic)
	return true, nil
}

func (s *SubscriptionStore) List(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]string, 0, len(s.topics[userID]))
	for topic := range s.topics[userID] {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics, nil
}
