// Package quizrun drives a recurring quiz session: a paced, cancellable
// sequence of generated questions published as polls, with a scoring ledger
// fed by asynchronous answer events and a leaderboard at the end.
package quizrun

import (
	"sort"
	"sync"
	"time"

	"quizbot-service/internal/domain"
)

// Session holds the state of one quiz run. The poll-correlation map and the
// score map are mutated by the runner loop and by the answer handler, which
// run on different goroutines; a single mutex serializes access.
type Session struct {
	ChatID   string
	Topic    string
	Count    int
	Interval time.Duration

	mu          sync.Mutex
	active      bool
	pollCorrect map[string]int
	scores      map[string]int
}

func NewSession(chatID, topic string, count int, interval time.Duration) *Session {
	return &Session{
		ChatID:      chatID,
		Topic:       topic,
		Count:       count,
		Interval:    interval,
		active:      true,
		pollCorrect: make(map[string]int),
		scores:      make(map[string]int),
	}
}

// Active reports whether the run should continue. Checked by the runner
// before each iteration; stop requests take effect at that boundary.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stop requests cooperative cancellation of the run.
func (s *Session) Stop() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *Session) registerPoll(pollID string, correctIndex int) {
	s.mu.Lock()
	s.pollCorrect[pollID] = correctIndex
	s.mu.Unlock()
}

// RecordAnswer applies one answer event to the ledger. Events for unknown
// or already-cleared polls are ignored; a participant scores one point when
// the poll's correct index is among the chosen indices. Reports whether the
// event changed the ledger.
func (s *Session) RecordAnswer(event domain.AnswerEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	correct, ok := s.pollCorrect[event.PollID]
	if !ok {
		return false
	}
	for _, chosen := range event.OptionIndices {
		if chosen == correct {
			s.scores[event.UserID]++
			return true
		}
	}
	return false
}

// Leaderboard returns the standings sorted by score descending, ties broken
// by participant id for determinism.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(s.scores))
	for userID, score := range s.scores {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Score: score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}

// reset clears the correlation and score maps once the run is over.
func (s *Session) reset() {
	s.mu.Lock()
	s.active = false
	s.pollCorrect = make(map[string]int)
	s.scores = make(map[string]int)
	s.mu.Unlock()
}
