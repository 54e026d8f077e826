package fetchftp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tanq16/fetchr/internal/utils"
	"github.com/tanq16/fetchr/internal/wire"
)

type reply struct {
	code    int
	message string
}

// control is the command side of an FTP session.
type control struct {
	conn *wire.Conn
	log  zerolog.Logger
}

// send writes one newline-terminated command and returns the server's final reply.
func (c *control) send(command string) (reply, error) {
	if strings.HasPrefix(command, "PASS ") {
		c.log.Debug().Msg("> PASS ****")
	} else {
		c.log.Debug().Msgf("> %s", command)
	}
	if err := c.conn.Printf("%s\n", command); err != nil {
		return reply{}, fmt.Errorf("%w: sending %s: %v", utils.ErrNetworkRead, verb(command), err)
	}
	if err := c.conn.Flush(); err != nil {
		return reply{}, fmt.Errorf("%w: sending %s: %v", utils.ErrNetworkRead, verb(command), err)
	}
	return c.read()
}

// read skips continuation lines of a multi-line reply and returns the final "ddd text" line.
func (c *control) read() (reply, error) {
	r := c.conn.Reader()
	for {
		line, truncated, err := wire.ReadLine(r, wire.LineLimit)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return reply{}, utils.ErrNoResponse
			}
			return reply{}, fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
		}
		if truncated {
			if err := wire.DiscardLine(r); err != nil && !errors.Is(err, io.EOF) {
				return reply{}, fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
			}
		}
		line = strings.TrimRight(line, "\r\n")
		if rep, ok := parseReply(line); ok {
			c.log.Debug().Msgf("< %s", line)
			return rep, nil
		}
	}
}

// parseReply accepts a final reply line: three digits followed by a space or the end of line.
func parseReply(line string) (reply, bool) {
	if len(line) < 3 || !isDigit(line[0]) || !isDigit(line[1]) || !isDigit(line[2]) {
		return reply{}, false
	}
	if len(line) > 3 && line[3] != ' ' {
		return reply{}, false
	}
	rep := reply{code: int(leadingInt(line[:3]))}
	if len(line) > 4 {
		rep.message = line[4:]
	}
	return rep, true
}

func verb(command string) string {
	v, _, _ := strings.Cut(command, " ")
	return v
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

// leadingInt reads the decimal digits at the start of s after any blanks. It returns -1 when
// the value does not fit.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t")
	var n int64
	for i := 0; i < len(s) && isDigit(s[i]); i++ {
		if n > (math.MaxInt64-9)/10 {
			return -1
		}
		n = n*10 + int64(s[i]-'0')
	}
	return n
}

// parsePassivePort takes the data port from the last two comma-separated fields of a 227
// reply, high byte first.
func parsePassivePort(message string) (int, error) {
	last := strings.LastIndexByte(message, ',')
	if last < 0 {
		return 0, fmt.Errorf("no port in passive reply %q", message)
	}
	prev := strings.LastIndexByte(message[:last], ',')
	if prev < 0 {
		return 0, fmt.Errorf("no port in passive reply %q", message)
	}
	high := leadingInt(message[prev+1 : last])
	low := leadingInt(message[last+1:])
	if high < 0 || high > 255 || low < 0 || low > 255 {
		return 0, fmt.Errorf("bad port in passive reply %q", message)
	}
	port := int(high*256 + low)
	if port == 0 {
		return 0, fmt.Errorf("bad port in passive reply %q", message)
	}
	return port, nil
}
