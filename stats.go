package contact

import (
	"time"
)

// Pass summarises one reconcile or drain pass.
type Pass struct {
	Stayed  int
	Exited  int
	Dropped int
}

// Degraded reports whether the scratch buffer overflowed during the pass.
// Dropped handles stay in the set and are revisited on the next pass.
func (p Pass) Degraded() bool {
	return p.Dropped > 0
}

func (p Pass) add(other Pass) Pass {
	p.Stayed += other.Stayed
	p.Exited += other.Exited
	p.Dropped += other.Dropped
	return p
}

type Timings struct {
	Count         int
	Latest        time.Duration
	MovingAverage time.Duration
	Min, Max      time.Duration
}

func (t Timings) Add(d time.Duration) Timings {
	t.Latest = d

	if t.Count == 0 {
		t.Min = d
		t.Max = d
		t.MovingAverage = d
	} else {
		t.Min = min(t.Min, d)
		t.Max = max(t.Max, d)
		t.MovingAverage = (95*t.MovingAverage + 5*d) / 100
	}

	t.Count += 1

	return t
}

// Stats accumulates the passes of one owner.
type Stats struct {
	Tick Timings

	Stayed         int
	Exited         int
	Dropped        int
	DegradedPasses int
}

func (s Stats) record(pass Pass) Stats {
	s.Stayed += pass.Stayed
	s.Exited += pass.Exited
	s.Dropped += pass.Dropped

	if pass.Degraded() {
		s.DegradedPasses += 1
	}

	return s
}
