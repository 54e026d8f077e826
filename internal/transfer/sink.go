package transfer

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/utils"
)

// Sink is the output of one retrieval: standard output or a file that is truncated, or
// appended to when resuming.
type Sink struct {
	path   string
	file   *os.File
	stdout bool
	offset int64
}

// OpenSink opens the output before any network I/O. When resume is set and the file already
// holds data, Offset reports its size.
func OpenSink(path string, resume bool) (*Sink, error) {
	if path == utils.StdoutPath {
		return &Sink{path: path, file: os.Stdout, stdout: true}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
	}
	s := &Sink{path: path, file: f}
	if resume {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
		}
		s.offset = info.Size()
	}
	return s, nil
}

func (s *Sink) Name() string { return s.path }
func (s *Sink) Offset() int64 { return s.offset }
func (s *Sink) IsStdout() bool { return s.stdout }

func (s *Sink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

// Reset reopens the file in truncate mode, used when a server refuses to resume.
func (s *Sink) Reset() error {
	s.offset = 0
	if s.stdout {
		return nil
	}
	log.Debug().Str("op", "transfer/sink").Msgf("truncating %s", s.path)
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
	}
	s.file = f
	return nil
}

func (s *Sink) Close() error {
	if s.stdout {
		return nil
	}
	if err := s.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
	}
	return nil
}

// Abort closes the sink after a failure and removes the partial file unless keep is set.
func (s *Sink) Abort(keep bool) {
	if s.stdout {
		return
	}
	s.Close()
	if keep {
		return
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("op", "transfer/sink").Err(err).Msgf("could not remove %s", s.path)
	}
}
