package store

import "time"

// RollingCounter buckets counts over a sliding window of fixed-width steps.
// start is the beginning of the head bucket's interval.
type RollingCounter struct {
	buckets []uint64
	head    int
	start   time.Time
	step    time.Duration
}

func NewRollingCounter(bucketCount int, step time.Duration, now time.Time) *RollingCounter {
	if bucketCount <= 0 {
		bucketCount = 1
	}
	if step <= 0 {
		step = time.Second
	}
	return &RollingCounter{
		buckets: make([]uint64, bucketCount),
		start:   now,
		step:    step,
	}
}

func (r *RollingCounter) Add(count uint64, now time.Time) {
	r.advance(now)
	r.buckets[r.head] += count
}

// Snapshot returns the buckets oldest first, ending with the current one.
func (r *RollingCounter) Snapshot(now time.Time) []uint64 {
	r.advance(now)
	out := make([]uint64, len(r.buckets))
	for i := range out {
		out[i] = r.buckets[(r.head+1+i)%len(r.buckets)]
	}
	return out
}

func (r *RollingCounter) Total(now time.Time) uint64 {
	r.advance(now)
	var total uint64
	for _, val := range r.buckets {
		total += val
	}
	return total
}

func (r *RollingCounter) advance(now time.Time) {
	if now.Before(r.start) {
		return
	}
	steps := int(now.Sub(r.start) / r.step)
	if steps <= 0 {
		return
	}
	if steps >= len(r.buckets) {
		for i := range r.buckets {
			r.buckets[i] = 0
		}
	} else {
		for i := 0; i < steps; i++ {
			r.head = (r.head + 1) % len(r.buckets)
			r.buckets[r.head] = 0
		}
	}
	r.start = r.start.Add(time.Duration(steps) * r.step)
}
