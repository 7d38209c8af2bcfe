package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRollingCounterSpreadsAcrossBuckets(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	rc := NewRollingCounter(4, time.Second, start)

	rc.Add(1, start)
	rc.Add(2, start.Add(time.Second))
	rc.Add(3, start.Add(2*time.Second))

	assert.Equal(t, []uint64{0, 1, 2, 3}, rc.Snapshot(start.Add(2*time.Second)))
	assert.Equal(t, uint64(6), rc.Total(start.Add(2*time.Second)))
}

func TestRollingCounterExpiresOldBuckets(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	rc := NewRollingCounter(3, time.Second, start)

	rc.Add(5, start)
	rc.Add(1, start.Add(time.Second))
	assert.Equal(t, []uint64{1, 0, 0}, rc.Snapshot(start.Add(3*time.Second)))
	assert.Equal(t, uint64(0), rc.Total(start.Add(10*time.Second)))
}

func TestRollingCounterIgnoresClockGoingBack(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	rc := NewRollingCounter(2, time.Second, start)
	rc.Add(1, start)
	rc.Add(1, start.Add(-time.Minute))
	assert.Equal(t, uint64(2), rc.Total(start))
}

func TestRollingCounterNormalizesArguments(t *testing.T) {
	now := time.Now()
	rc := NewRollingCounter(0, 0, now)
	rc.Add(3, now)
	assert.Equal(t, []uint64{3}, rc.Snapshot(now))
}
