// Package wire holds the byte-level pieces shared by the retrieval state machines: a buffered
// TCP stream, the protocol header line codec and the chunked body decoder.
package wire

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/utils"
	"golang.org/x/net/idna"
)

// Conn is one buffered, bidirectional stream to a single host and port. Writes are buffered
// until Flush.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// Dial resolves host and connects to it. There is no retry here; a failed resolution wraps
// utils.ErrNameResolution and a failed connect wraps utils.ErrConnect.
func Dial(ctx context.Context, host string, port int, timeout time.Duration) (*Conn, error) {
	addrs, err := resolve(ctx, host)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: timeout, Control: controlSocket}
	var lastErr error
	for _, ip := range addrs {
		target := net.JoinHostPort(ip, strconv.Itoa(port))
		log.Debug().Str("op", "wire/conn").Msgf("connecting to %s (%s)", target, host)
		c, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			lastErr = err
			continue
		}
		return NewConn(c), nil
	}
	return nil, fmt.Errorf("%w %s:%d: %v", utils.ErrConnect, host, port, lastErr)
}

// ReceiveBufferSize is requested for every socket so long bodies are not throttled by a small
// kernel default.
const ReceiveBufferSize = 1024 * 1024

func controlSocket(network, address string, c syscall.RawConn) error {
	return c.Control(setSocketOptions)
}

func resolve(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}
	lookup := host
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		lookup = ascii
	} else {
		log.Debug().Str("op", "wire/conn").Err(err).Msgf("using %q as given", host)
	}
	addrs, err := net.DefaultResolver.LookupHost(ctx, lookup)
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("%w %s: %v", utils.ErrNameResolution, host, err)
	}
	return addrs, nil
}

// NewConn wraps an established connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		conn: c,
		r:    bufio.NewReaderSize(c, utils.DefaultBufferSize),
		w:    bufio.NewWriter(c),
	}
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Reader exposes the read side for line-oriented decoding.
func (c *Conn) Reader() *bufio.Reader {
	return c.r
}

// Printf formats into the write buffer.
func (c *Conn) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(c.w, format, args...)
	return err
}

func (c *Conn) Flush() error {
	return c.w.Flush()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
