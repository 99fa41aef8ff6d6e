// Package sched provides the one-shot scheduler primitive that drives all
// delayed background work. Recurring jobs are built from repeated one-shot
// scheduling instead of callbacks re-invoking themselves directly.
package sched

import (
	"sync"
	"time"
)

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func())
}

// TimerScheduler schedules callbacks on real timers.
type TimerScheduler struct{}

func (TimerScheduler) ScheduleOnce(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// Manual is a scheduler for tests: it queues callbacks and only runs them
// when the test says so, making delayed state machines fully deterministic.
type Manual struct {
	mu   sync.Mutex
	jobs []job
}

type job struct {
	delay time.Duration
	fn    func()
}

func (m *Manual) ScheduleOnce(delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job{delay: delay, fn: fn})
}

// Pending reports how many callbacks are queued.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// NextDelay returns the delay of the oldest queued callback, or -1 when the
// queue is empty.
func (m *Manual) NextDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return -1
	}
	return m.jobs[0].delay
}

// RunNext runs the oldest queued callback. It reports false when nothing was
// queued.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.jobs) == 0 {
		m.mu.Unlock()
		return false
	}
	next := m.jobs[0]
	m.jobs = m.jobs[1:]
	m.mu.Unlock()

	next.fn()
	return true
}
