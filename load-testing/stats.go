package main

import (
	"sort"
	"sync"
	"time"
)

type Result struct {
	Duration time.Duration
	Success  bool
	TimedOut bool
	Failed   bool
}

type Stats struct {
	mu        sync.Mutex
	start     time.Time
	total     int64
	success   int64
	timedOut  int64
	failed    int64
	durations []time.Duration
}

func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

func (s *Stats) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	switch {
	case r.TimedOut:
		s.timedOut++
		s.failed++
	case r.Failed:
		s.failed++
	case r.Success:
		s.success++
	}
	s.durations = append(s.durations, r.Duration)
}

// Snapshot is an immutable copy of the counters with sorted latencies.
type Snapshot struct {
	Elapsed    time.Duration
	Total      int64
	Successful int64
	TimedOut   int64
	Failed     int64
	Durations  []time.Duration
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	durations := make([]time.Duration, len(s.durations))
	copy(durations, s.durations)
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	return Snapshot{
		Elapsed:    time.Since(s.start),
		Total:      s.total,
		Successful: s.success,
		TimedOut:   s.timedOut,
		Failed:     s.failed,
		Durations:  durations,
	}
}

func (s Snapshot) RPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Total) / s.Elapsed.Seconds()
}

// Percentile returns the latency at quantile p in [0, 1].
func (s Snapshot) Percentile(p float64) time.Duration {
	if len(s.Durations) == 0 {
		return 0
	}
	i := int(float64(len(s.Durations)) * p)
	if i >= len(s.Durations) {
		i = len(s.Durations) - 1
	}
	return s.Durations[i]
}
