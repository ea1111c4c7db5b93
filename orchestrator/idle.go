package orchestrator

import "time"

// TimerIdleScheduler defers work with a plain timer. It stands in for a
// host-provided idle hook: the delay keeps the heavy full-tier build off
// the critical path of process startup.
type TimerIdleScheduler struct {
	Delay time.Duration
}

// Schedule runs task after the configured delay, capped by timeout. The
// returned cancel func stops the timer and reports whether the task was
// prevented from firing.
func (s TimerIdleScheduler) Schedule(task func(), timeout time.Duration) func() bool {
	delay := s.Delay
	if timeout > 0 && delay > timeout {
		delay = timeout
	}
	t := time.AfterFunc(delay, task)
	return t.Stop
}

// ImmediateIdleScheduler runs tasks synchronously. Used in tests and
// refresh cycles where deferral would only add latency.
type ImmediateIdleScheduler struct{}

func (ImmediateIdleScheduler) Schedule(task func(), _ time.Duration) func() bool {
	task()
	return func() bool { return false }
}
