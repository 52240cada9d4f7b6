package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()
	for i := 1; i <= 100; i++ {
		s.Add(Result{Duration: time.Duration(i) * time.Millisecond, Success: i%10 != 0})
	}
	s.Add(Result{Duration: time.Second, TimedOut: true, Failed: true})

	snap := s.Snapshot()

	assert.Equal(t, int64(101), snap.Total)
	assert.Equal(t, int64(90), snap.Successful)
	assert.Equal(t, int64(1), snap.TimedOut)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, 51*time.Millisecond, snap.Percentile(0.5))
	assert.Equal(t, time.Second, snap.Percentile(1))
}

func TestSnapshot_PercentileEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), Snapshot{}.Percentile(0.99))
}
