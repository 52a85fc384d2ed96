package quizrun

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quizbot-service/internal/content"
	"quizbot-service/internal/domain"
	"quizbot-service/internal/poll"
)

// ItemSource yields the next quiz item for a topic. Implementations wrap
// the LLM generator or a curated question bank.
type ItemSource interface {
	NextItem(ctx context.Context, topic string) (domain.QuizItem, error)
}

// Runner executes quiz sessions one at a time. Questions are published
// strictly in sequence within a run; the inter-question wait yields so stop
// requests and answer events stay responsive.
type Runner struct {
	source   ItemSource
	shuffler *content.Shuffler
	polls    *poll.Manager
	sender   poll.Transport

	mu      sync.Mutex
	current *Session
	done    chan struct{}
}

func NewRunner(source ItemSource, shuffler *content.Shuffler, polls *poll.Manager, sender poll.Transport) *Runner {
	return &Runner{source: source, shuffler: shuffler, polls: polls, sender: sender}
}

// Start launches the session's run loop on its own goroutine. Only one
// session may run at a time.
func (r *Runner) Start(ctx context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return domain.ErrQuizAlreadyRunning
	}
	r.current = session
	r.done = make(chan struct{})
	go r.run(ctx, session, r.done)
	return nil
}

// Stop requests cancellation of the running session. The in-flight
// question finishes publishing; the loop exits at the next boundary.
func (r *Runner) Stop() error {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session == nil {
		return domain.ErrNoActiveQuiz
	}
	session.Stop()
	return nil
}

// Current returns the running session, if any. Used to route answer events
// and leaderboard queries.
func (r *Runner) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// HandleAnswer feeds an answer event into the running session's ledger.
// Events arriving with no active session are dropped.
func (r *Runner) HandleAnswer(event domain.AnswerEvent) {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session == nil {
		return
	}
	session.RecordAnswer(event)
}

// Wait blocks until the current run finishes. Test helper.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) run(ctx context.Context, session *Session, done chan struct{}) {
	defer close(done)

	for i := 0; i < session.Count; i++ {
		if !session.Active() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		item, err := r.source.NextItem(ctx, session.Topic)
		if err != nil {
			// Malformed or unavailable content skips the slot, never aborts
			// the run. No poll went out, so the next slot needs no pacing.
			log.Printf("quizrun: question %d/%d for %q skipped: %v", i+1, session.Count, session.Topic, err)
			continue
		}
		item = r.shuffler.Shuffle(item)
		record, err := r.polls.Publish(ctx, session.ChatID, item.Prompt, item.Options, item.CorrectIndex)
		if err != nil {
			log.Printf("quizrun: publish for %q failed: %v", session.Topic, err)
		} else {
			session.registerPoll(record.PollID, record.CorrectIndex)
		}

		if i == session.Count-1 {
			break
		}
		select {
		case <-time.After(session.Interval):
		case <-ctx.Done():
		}
	}

	r.finish(ctx, session)
}

func (r *Runner) finish(ctx context.Context, session *Session) {
	text := RenderLeaderboard(session.Leaderboard())
	if err := r.sender.SendText(ctx, session.ChatID, text); err != nil {
		log.Printf("quizrun: leaderboard send failed: %v", err)
	}
	session.reset()

	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// RenderLeaderboard formats final standings as chat text.
func RenderLeaderboard(entries []domain.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "No correct answers were recorded."
	}
	var b strings.Builder
	b.WriteString("Daily Quiz Leaderboard:\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "User %s: %d points\n", entry.UserID, entry.Score)
	}
	return b.String()
}
