// Package transfer holds what one retrieval writes into: the shared byte counters read by the
// progress meter, the output sink and the body copy loop.
package transfer

import "sync/atomic"

// UnknownSize marks a body whose length was not announced.
const UnknownSize int64 = -1

// State is written only by the transfer flow. The size, chunked and delivered fields are
// individually atomic so the progress meter can read them from its own goroutine.
type State struct {
	size      atomic.Int64
	delivered atomic.Int64
	chunked   atomic.Bool

	resume bool
	offset int64
}

// NewState starts with an unknown size. offset is the number of bytes already present in the
// output when resuming.
func NewState(resume bool, offset int64) *State {
	s := &State{resume: resume && offset > 0, offset: offset}
	if !s.resume {
		s.offset = 0
	}
	s.size.Store(UnknownSize)
	return s
}

func (s *State) Size() int64 { return s.size.Load() }
func (s *State) SetSize(n int64) { s.size.Store(n) }
func (s *State) Delivered() int64 { return s.delivered.Load() }
func (s *State) Add(n int64) { s.delivered.Add(n) }
func (s *State) Chunked() bool { return s.chunked.Load() }
func (s *State) SetChunked(on bool) { s.chunked.Store(on) }
func (s *State) Resuming() bool { return s.resume }
func (s *State) Offset() int64 { return s.offset }
func (s *State) SizeKnown() bool { return s.Size() >= 0 }

// CancelResume records that the server ignored the resume request; delivery restarts at 0.
func (s *State) CancelResume() {
	s.resume = false
	s.offset = 0
}

// Reset clears what an earlier exchange announced, keeping the resume decision.
func (s *State) Reset() {
	s.size.Store(UnknownSize)
	s.chunked.Store(false)
	s.delivered.Store(0)
}

// bounded reports whether the copy loop must stop at the announced size.
func (s *State) bounded() bool {
	return s.SizeKnown() && !s.Chunked()
}
