// Package redis provides Redis-backed implementations of the process-wide
// stores (authorized identities, topic subscriptions) so they survive a
// restart of the bot process.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const authKey = "quizbot:authorized"

// AuthStore keeps authorized user ids in a Redis set. Always-authorized
// usernames still come from configuration and are checked locally.
type AuthStore struct {
	client    *redis.Client
	usernames map[string]struct{}
}

func NewAuthStore(client *redis.Client, alwaysAuthorized []string) *AuthStore {
	usernames := make(map[string]struct{}, len(alwaysAuthorized))
	for _, name := range alwaysAuthorized {
		usernames[name] = struct{}{}
	}
	return &AuthStore{client: client, usernames: usernames}
}

func (s *AuthStore) IsAuthorized(ctx context.Context, userID, username string) (bool, error) {
	if _, ok := s.usernames[username]; ok {
		return true, nil
	}
	return s.client.SIsMember(ctx, authKey, userID).Result()
}

func (s *AuthStore) Authorize(ctx context.Context, userID string) error {
	return s.client.SAdd(ctx, authKey, userID).Err()
}
