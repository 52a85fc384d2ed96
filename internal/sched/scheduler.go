// Package sched provides one-shot deferred task scheduling behind an
// interface, so poll-close timers can be driven manually in tests and
// cancelled by holders of the returned handle.
package sched

import "time"

// Scheduler schedules a function to run once after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
}

// Handle allows cancelling a scheduled task. Cancel reports whether the
// task was stopped before it ran.
type Handle interface {
	Cancel() bool
}

type timerScheduler struct{}

// New returns a Scheduler backed by time.AfterFunc.
func New() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) After(d time.Duration, fn func()) Handle {
	return timerHandle{timer: time.AfterFunc(d, fn)}
}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.timer.Stop()
}
