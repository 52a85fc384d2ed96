// Package poll owns the lifecycle of published polls: creation through the
// chat transport, correlation of the transport-assigned poll id with the
// correct option, and the deferred close that reveals the answer.
package poll

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quizbot-service/internal/domain"
	"quizbot-service/internal/sched"
)

// maxQuestionLen is the transport's limit on poll question text.
const maxQuestionLen = 300

// Transport is the narrow capability the bot needs from the chat system.
type Transport interface {
	SendPoll(ctx context.Context, chatID, question string, options []string, correctIndex int) (pollID string, err error)
	StopPoll(ctx context.Context, chatID, pollID string) error
	SendText(ctx context.Context, chatID, text string) error
}

// Manager publishes polls and schedules their deferred closure.
type Manager struct {
	transport Transport
	scheduler sched.Scheduler
	duration  time.Duration
	clock     func() time.Time

	mu   sync.Mutex
	open map[string]openPoll
}

type openPoll struct {
	record domain.PollRecord
	handle sched.Handle
}

func NewManager(transport Transport, scheduler sched.Scheduler, duration time.Duration) *Manager {
	return &Manager{
		transport: transport,
		scheduler: scheduler,
		duration:  duration,
		clock:     time.Now,
		open:      make(map[string]openPoll),
	}
}

// Publish sends a poll to the chat and schedules its close. On transport
// failure nothing is recorded or scheduled.
func (m *Manager) Publish(ctx context.Context, chatID, question string, options []string, correctIndex int) (domain.PollRecord, error) {
	pollID, err := m.transport.SendPoll(ctx, chatID, truncateQuestion(question), options, correctIndex)
	if err != nil {
		return domain.PollRecord{}, fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	record := domain.PollRecord{
		PollID:           pollID,
		ChatID:           chatID,
		CorrectIndex:     correctIndex,
		ScheduledCloseAt: m.clock().Add(m.duration),
	}

	handle := m.scheduler.After(m.duration, func() {
		m.handleClose(pollID)
	})

	m.mu.Lock()
	m.open[pollID] = openPoll{record: record, handle: handle}
	m.mu.Unlock()

	return record, nil
}

// handleClose fires once per poll at the scheduled time. Failure to stop
// the poll (already closed, transport down) is logged and not retried.
func (m *Manager) handleClose(pollID string) {
	m.mu.Lock()
	entry, ok := m.open[pollID]
	delete(m.open, pollID)
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.transport.StopPoll(context.Background(), entry.record.ChatID, pollID); err != nil {
		log.Printf("poll: close %s failed: %v", pollID, err)
	}
}

// OpenCount reports how many polls are awaiting closure.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func truncateQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= maxQuestionLen {
		return question
	}
	return string(runes[:maxQuestionLen])
}
