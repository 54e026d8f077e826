package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tanq16/fetchr/internal/utils"
)

// LineLimit is the longest header, status or reply line kept in full, terminator included.
const LineLimit = 512

// Header is one decoded header line. Name is lower-cased. Truncated is set when the line did
// not fit in the line limit; Value then holds only its first part.
type Header struct {
	Name      string
	Value     string
	Truncated bool
}

type HeaderReader struct {
	r     *bufio.Reader
	limit int
}

func NewHeaderReader(r *bufio.Reader) *HeaderReader {
	return &HeaderReader{r: r, limit: LineLimit}
}

// NewHeaderReaderSize is NewHeaderReader with a custom line limit.
func NewHeaderReaderSize(r *bufio.Reader, limit int) *HeaderReader {
	if limit < 2 {
		limit = 2
	}
	return &HeaderReader{r: r, limit: limit}
}

// Next reads one header line. more is false once the blank line ending the header block (or
// the end of the stream) has been consumed.
func (hr *HeaderReader) Next() (h Header, more bool, err error) {
	line, truncated, err := ReadLine(hr.r, hr.limit)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, false, nil
		}
		return Header{}, false, fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
	}
	if strings.HasPrefix(strings.TrimLeft(line, "\r"), "\n") {
		return Header{}, false, nil
	}
	if truncated {
		if err := DiscardLine(hr.r); err != nil && !errors.Is(err, io.EOF) {
			return Header{}, false, fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
		}
	}

	end := 0
	for end < len(line) && isNameByte(line[end]) {
		end++
	}
	if end == len(line) || line[end] != ':' {
		return Header{}, false, fmt.Errorf("%w: %s", utils.ErrMalformedHeader, strings.TrimRight(line, "\r\n"))
	}
	h.Name = strings.ToLower(line[:end])

	value := strings.TrimLeft(line[end+1:], " \t")
	if cut := strings.IndexAny(value, "\r\n"); cut >= 0 {
		value = value[:cut]
	}
	h.Value = value
	h.Truncated = truncated
	return h, true, nil
}

// Drain consumes the rest of a header block.
func (hr *HeaderReader) Drain() error {
	for {
		_, more, err := hr.Next()
		if err != nil || !more {
			return err
		}
	}
}

func isNameByte(b byte) bool {
	return b == '-' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// ReadLine reads up to limit bytes or through the next '\n', whichever comes first. truncated
// is true when the limit was reached before a terminator; a '\n' sitting right after the
// limit still completes the line. A final unterminated line is returned without error;
// io.EOF is returned only when nothing was read.
func ReadLine(r *bufio.Reader, limit int) (line string, truncated bool, err error) {
	var b strings.Builder
	for b.Len() < limit {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), false, nil
			}
			return "", false, err
		}
		b.WriteByte(c)
		if c == '\n' {
			return b.String(), false, nil
		}
	}
	if next, err := r.Peek(1); err == nil && next[0] == '\n' {
		r.ReadByte()
		b.WriteByte('\n')
		return b.String(), false, nil
	}
	return b.String(), true, nil
}

// DiscardLine skips everything up to and including the next '\n'.
func DiscardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
