package stream

import "sync/atomic"

// CancelSignal is a level-triggered flag shared between a goroutine that
// consumes a stream and one that wants it stopped. The zero value is ready
// to use and not cancelled.
type CancelSignal struct {
	set atomic.Bool
}

// Cancel marks the signal. Safe to call from any goroutine.
func (s *CancelSignal) Cancel() {
	s.set.Store(true)
}

// Reset clears the signal before a new call starts.
func (s *CancelSignal) Reset() {
	s.set.Store(false)
}

// Cancelled reports whether Cancel was called since the last Reset.
// A nil signal is never cancelled.
func (s *CancelSignal) Cancelled() bool {
	return s != nil && s.set.Load()
}
