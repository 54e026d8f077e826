package fetchhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/address"
	"github.com/tanq16/fetchr/internal/downloaders"
	"github.com/tanq16/fetchr/internal/transfer"
	"github.com/tanq16/fetchr/internal/utils"
	"github.com/tanq16/fetchr/internal/wire"
)

// MaxAttempts bounds the connections made across a redirect chain. Attempt MaxAttempts fails
// before connecting, so at most MaxAttempts-1 exchanges take place.
const MaxAttempts = 5

type session struct {
	job    *utils.FetchJob
	target address.Address
	server address.Address
	proxy  *address.Address
	out    *transfer.Sink
	state  *transfer.State
	conn   *wire.Conn
	stop   func() bool
	log    zerolog.Logger
}

// Download drives one retrieval: request, status, headers, then either another attempt after a
// redirect or the body.
func (d *HTTPDownloader) Download(ctx context.Context, job *utils.FetchJob, out *transfer.Sink, state *transfer.State) error {
	s := &session{
		job:    job,
		target: downloaders.Target(job),
		out:    out,
		state:  state,
		log:    log.With().Str("op", "http/download").Str("job", job.ID).Logger(),
	}
	s.server = s.target
	if proxy, ok := downloaders.Proxy(job); ok {
		s.proxy = &proxy
		s.server = proxy
	}
	defer s.close()

	for attempt := 1; ; attempt++ {
		if attempt >= MaxAttempts {
			return fmt.Errorf("%w: gave up after %d attempts", utils.ErrTooManyRedirects, attempt-1)
		}
		status, err := s.exchange(ctx, attempt)
		if err != nil {
			return err
		}
		if status < 300 {
			break
		}
	}

	var body io.Reader = s.conn
	if state.Chunked() {
		body = wire.NewChunkedReader(s.conn.Reader())
	}
	s.log.Debug().Msgf("receiving body (size %d, chunked %t, resume %t)", state.Size(), state.Chunked(), state.Resuming())
	return transfer.Copy(ctx, out, body, state, transfer.NewLimiter(job.Config.RateLimit))
}

// exchange performs one request/response head on a fresh connection and returns the final
// status code. A redirect status leaves the next target in s.target and s.server.
func (s *session) exchange(ctx context.Context, attempt int) (int, error) {
	if err := s.connect(ctx); err != nil {
		return 0, err
	}
	req := request{
		target:    s.target,
		proxy:     s.proxy,
		userAgent: s.job.Config.UserAgent,
	}
	if req.userAgent == "" {
		req.userAgent = utils.ToolUserAgent
	}
	if s.state.Resuming() {
		req.offset = s.state.Offset()
	}
	s.log.Debug().Msgf("attempt %d: GET %s via %s", attempt, s.target.String(), s.server.HostPort())
	if err := req.writeTo(s.conn); err != nil {
		return 0, fmt.Errorf("%w: sending request: %v", utils.ErrNetworkRead, err)
	}

	status, line, err := s.readStatus()
	if err != nil {
		return 0, err
	}
	redirect := false
	switch {
	case status == 200:
		if s.state.Resuming() {
			s.log.Warn().Msg("server ignored the range request, fetching from the start")
			if err := s.out.Reset(); err != nil {
				return 0, err
			}
			s.state.CancelResume()
		}
	case status >= 300 && status <= 303:
		redirect = true
	case status == 206 && s.state.Resuming():
	default:
		return 0, &utils.StatusError{Code: status, Line: line}
	}

	location, err := s.readHeaders()
	if err != nil {
		return 0, err
	}
	if redirect {
		if err := s.follow(location); err != nil {
			return 0, err
		}
	}
	return status, nil
}

func (s *session) connect(ctx context.Context) error {
	s.close()
	conn, err := wire.Dial(ctx, s.server.Host, s.server.Port, s.job.Config.Timeout)
	if err != nil {
		return err
	}
	s.conn = conn
	s.stop = context.AfterFunc(ctx, func() { conn.Close() })
	return nil
}

func (s *session) close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// readStatus returns the first non-informational status. Code 0 (unparsable) and 100 have
// their headers drained and the next status line is read from the same connection.
func (s *session) readStatus() (int, string, error) {
	r := s.conn.Reader()
	for {
		line, truncated, err := wire.ReadLine(r, wire.LineLimit)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, "", utils.ErrNoResponse
			}
			return 0, "", fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
		}
		if truncated {
			if err := wire.DiscardLine(r); err != nil && !errors.Is(err, io.EOF) {
				return 0, "", fmt.Errorf("%w: %v", utils.ErrNetworkRead, err)
			}
		}
		line = strings.TrimRight(line, "\r\n")
		status := parseStatusCode(line)
		if status != 0 && status != 100 {
			s.log.Debug().Msgf("status: %s", line)
			return status, line, nil
		}
		s.log.Debug().Msgf("informational status %q, reading on", line)
		if err := wire.NewHeaderReader(r).Drain(); err != nil {
			return 0, "", err
		}
	}
}

// readHeaders consumes the header block, recording length and framing in the transfer state.
// It returns the Location value, if any.
func (s *session) readHeaders() (string, error) {
	s.state.Reset()
	hr := wire.NewHeaderReader(s.conn.Reader())
	location := ""
	for {
		h, more, err := hr.Next()
		if err != nil {
			return "", err
		}
		if !more {
			return location, nil
		}
		switch h.Name {
		case "content-length", "transfer-encoding", "location":
			if h.Truncated {
				return "", fmt.Errorf("%w: %s", utils.ErrHeaderTruncated, h.Name)
			}
		default:
			continue
		}
		switch h.Name {
		case "content-length":
			s.state.SetSize(parseLength(h.Value))
		case "transfer-encoding":
			if !strings.EqualFold(strings.TrimSpace(h.Value), "chunked") {
				return "", fmt.Errorf("%w: server wants to do %s transfer encoding", utils.ErrUnsupportedEncoding, h.Value)
			}
			s.state.SetChunked(true)
		case "location":
			location = h.Value
		}
	}
}

// follow derives the next target from a Location value. A path-absolute value stays on the
// same host; anything else must be a full address and, without a proxy, becomes the new
// connection target too.
func (s *session) follow(location string) error {
	switch {
	case location == "":
		s.log.Debug().Msg("redirect without location, retrying the same target")
	case strings.HasPrefix(location, "/"):
		s.target = s.target.WithPath(location[1:])
		if s.proxy == nil {
			s.server = s.target
		}
	default:
		next, err := address.Parse(location)
		if err != nil {
			return fmt.Errorf("redirect to %s: %w", location, err)
		}
		if next.IsFTP() && s.proxy == nil {
			return fmt.Errorf("%w: redirect to %s needs an ftp proxy", utils.ErrUnsupportedScheme, next.String())
		}
		s.target = next
		if s.proxy == nil {
			s.server = next
		}
	}
	s.log.Debug().Msgf("redirected to %s", s.target.String())
	return nil
}
