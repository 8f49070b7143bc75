package vm

import "time"

// SystemClock is the production Clock backed by the host's wall clock.
type SystemClock struct{}

func (SystemClock) NowSeconds() int64 { return time.Now().Unix() }
func (SystemClock) NowMillis() int64  { return time.Now().UnixMilli() }

// FixedClock is a deterministic Clock for tests: every call returns the
// same instant.
type FixedClock struct {
	Seconds int64
	Millis  int64
}

// NewFixedClock builds a FixedClock from a single instant.
func NewFixedClock(t time.Time) FixedClock {
	return FixedClock{Seconds: t.Unix(), Millis: t.UnixMilli()}
}

func (c FixedClock) NowSeconds() int64 { return c.Seconds }
func (c FixedClock) NowMillis() int64  { return c.Millis }
