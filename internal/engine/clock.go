package engine

import "sync/atomic"

// Clock is the engine's logical clock. Every record and firing gets a
// sequence number from it; the total order of a flow's records is the
// order of these numbers, not wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock starts at zero; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt resumes from a known sequence number, for replay.
func NewClockAt(seq int64) *Clock {
	c := &Clock{}
	c.seq.Store(seq)
	return c
}

// Next returns the next sequence number. Safe for concurrent use.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
