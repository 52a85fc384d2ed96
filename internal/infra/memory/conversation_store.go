package memory

import (
	"sync"

	"quizbot-service/internal/conversation"
)

// ConversationStore holds the active conversation session per scope key.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{sessions: make(map[string]*conversation.Session)}
}

func (s *ConversationStore) Get(key string) (*conversation.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

// Put installs a session for its scope, replacing any session already
// active there; re-entering a flow resets the previous one.
func (s *ConversationStore) Put(session *conversation.Session) {
	s.mu.Lock()
	s.sessions[session.Key] = session
	s.mu.Unlock()
}

func (s *ConversationStore) Delete(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}
