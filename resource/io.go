package resource

import (
	"context"
	"io"
)

// RateLimitedReader throttles reads through the controller's IO limit.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	c   *Controller
}

// NewRateLimitedReader wraps r.
func NewRateLimitedReader(ctx context.Context, r io.Reader, c *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, c: c}
}

func (l *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.c.AcquireIO(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// RateLimitedWriter throttles writes through the controller's IO limit.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

// NewRateLimitedWriter wraps w.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, c *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, c: c}
}

func (l *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := l.c.AcquireIO(l.ctx, len(p)); err != nil {
		return 0, err
	}
	return l.w.Write(p)
}
