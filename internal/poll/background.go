package poll

import (
	"sync"
	"time"
)

// BackgroundScheduler registers a one-shot wake-up that triggers a polling
// cycle while the app is not foregrounded. Wake-ups are not guaranteed to
// recur; the engine reschedules on every wake. Hosts with an OS refresh API
// supply their own implementation.
type BackgroundScheduler interface {
	ScheduleNext(delay time.Duration)
	Cancel()
}

// TimerScheduler is the in-process default: a plain one-shot timer.
type TimerScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	wake  func()
}

func NewTimerScheduler(wake func()) *TimerScheduler {
	return &TimerScheduler{wake: wake}
}

// ScheduleNext arms the timer, replacing any pending wake-up.
func (s *TimerScheduler) ScheduleNext(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, s.wake)
}

// Cancel stops any pending wake-up.
func (s *TimerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
