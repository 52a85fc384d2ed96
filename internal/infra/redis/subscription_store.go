package redis

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"
)

// SubscriptionStore keeps per-user topic subscriptions as Redis sets.
type SubscriptionStore struct {
	client *redis.Client
}

func NewSubscriptionStore(client *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{client: client}
}

func (s *SubscriptionStore) Add(ctx context.Context, userID, topic string) error {
	return s.client.SAdd(ctx, s.key(userID), topic).Err()
}

func (s *SubscriptionStore) Remove(ctx context.Context, userID, topic string) (bool, error) {
	removed, err := s.client.SRem(ctx, s.key(userID), topic).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *SubscriptionStore) List(ctx context.Context, userID string) ([]string, error) {
	topics, err := s.client.SMembers(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(topics)
	return topics, nil
}

func (s *SubscriptionStore) key(userID string) string {
	return "quizbot:subs:" + userID
}
