package memory

import (
	"context"
	"sync"
)

// AuthStore is an in-memory implementation of app.AuthStore. A fixed set of
// always-authorized usernames comes from configuration; user ids are added
// at runtime via the access code.
type AuthStore struct {
	mu        sync.RWMutex
	userIDs   map[string]struct{}
	usernames map[string]struct{}
}

func NewAuthStore(alwaysAuthorized []string) *AuthStore {
	usernames := make(map[string]struct{}, len(alwaysAuthorized))
	for _, name := range alwaysAuthorized {
		usernames[name] = struct{}{}
	}
	return &AuthStore{
		userIDs:   make(map[string]struct{}),
		usernames: usernames,
	}
}

func (s *AuthStore) IsAuthorized(_ context.Context, userID, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.userIDs[userID]; ok {
		return true, nil
	}
	_, ok := s.usernames[username]
	return ok, nil
}

func (s *AuthStore) Authorize(_ context.Context, userID string) error {
	s.mu.Lock()
	s.userIDs[userID] = struct{}{}
	s.mu.Unlock()
	return nil
}
