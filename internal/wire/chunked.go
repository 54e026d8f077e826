package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tanq16/fetchr/internal/utils"
)

// ChunkedReader unwraps a chunked transfer-coded body. It returns io.EOF as soon as the
// zero-size chunk header is read and never consumes the trailer behind it.
type ChunkedReader struct {
	r         *bufio.Reader
	remaining int64
	started   bool
	done      bool
}

func NewChunkedReader(r *bufio.Reader) *ChunkedReader {
	return &ChunkedReader{r: r}
}

func (c *ChunkedReader) Read(p []byte) (int, error) {
	if c.done {
		return 0, io.EOF
	}
	if c.remaining == 0 {
		if err := c.nextChunk(); err != nil {
			return 0, err
		}
		if c.done {
			return 0, io.EOF
		}
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if errors.Is(err, io.EOF) && c.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (c *ChunkedReader) nextChunk() error {
	if c.started {
		// terminator of the previous chunk's data
		if err := DiscardLine(c.r); err != nil {
			return unexpected(err)
		}
	}
	c.started = true
	line, truncated, err := ReadLine(c.r, LineLimit)
	if err != nil {
		return unexpected(err)
	}
	if truncated {
		if err := DiscardLine(c.r); err != nil {
			return unexpected(err)
		}
	}
	size, err := ParseChunkSize(line)
	if err != nil {
		return err
	}
	if size == 0 {
		c.done = true
		return nil
	}
	c.remaining = size
	return nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ParseChunkSize interprets the leading hexadecimal digits of a chunk-size line. Anything after
// the digits, such as chunk extensions, is ignored; a line without digits yields 0.
func ParseChunkSize(line string) (int64, error) {
	line = strings.TrimLeft(line, " \t")
	end := 0
	for end < len(line) && isHexDigit(line[end]) {
		end++
	}
	if end == 0 {
		return 0, nil
	}
	size, err := strconv.ParseInt(line[:end], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: chunk size %q", utils.ErrMalformedHeader, line[:end])
	}
	return size, nil
}

func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}
