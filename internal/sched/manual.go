package sched

import (
	"sync"
	"time"
)

// Manual is a test-only Scheduler that collects tasks and fires them on
// demand instead of waiting for wall-clock time.
type Manual struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{delay: d, fn: fn}
	m.tasks = append(m.tasks, task)
	return manualHandle{m: m, task: task}
}

// Pending reports how many scheduled tasks have neither fired nor been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, task := range m.tasks {
		if !task.fired && !task.cancelled {
			count++
		}
	}
	return count
}

// Fire runs every pending task, in scheduling order.
func (m *Manual) Fire() {
	m.mu.Lock()
	var run []func()
	for _, task := range m.tasks {
		if !task.fired && !task.cancelled {
			task.fired = true
			run = append(run, task.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range run {
		fn()
	}
}

type manualHandle struct {
	m    *Manual
	task *manualTask
}

func (h manualHandle) Cancel() bool {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.task.fired || h.task.cancelled {
		return false
	}
	h.task.cancelled = true
	return true
}
