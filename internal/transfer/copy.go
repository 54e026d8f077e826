package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tanq16/fetchr/internal/utils"
	"golang.org/x/time/rate"
)

// NewLimiter returns a byte rate limiter, or nil when bytesPerSec is not positive.
func NewLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(min(bytesPerSec, utils.DefaultBufferSize))
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// Copy moves the body from src to dst. Each read is written out before the next one and
// counted in state. A body with a known size and no chunked framing is never read past that
// size; ending short of it is a read error.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, state *State, limiter *rate.Limiter) error {
	buf := make([]byte, utils.DefaultBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		want := len(buf)
		if state.bounded() {
			remaining := state.Size() - state.Delivered()
			if remaining <= 0 {
				return nil
			}
			want = int(min(int64(want), remaining))
		}
		if limiter != nil {
			want = min(want, limiter.Burst())
		}

		n, readErr := src.Read(buf[:want])
		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return err
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("%w: %v", utils.ErrOutputWrite, err)
			}
			state.Add(int64(n))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if state.bounded() && state.Delivered() < state.Size() {
					return fmt.Errorf("%w: connection closed after %d of %d bytes", utils.ErrNetworkRead, state.Delivered(), state.Size())
				}
				return nil
			}
			return fmt.Errorf("%w: %w", utils.ErrNetworkRead, readErr)
		}
	}
}
