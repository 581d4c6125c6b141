package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// One slot per whole percentage plus the final 100, so reporting never blocks on a slow reader.
const progressBuffer = 101

type uploadTask struct {
	progress chan float64
	done     chan struct{}
	cancel   context.CancelFunc

	reportMu sync.Mutex
	last     float64

	mu  sync.Mutex
	url string
	err error
}

func newUploadTask(cancel context.CancelFunc) *uploadTask {
	return &uploadTask{
		progress: make(chan float64, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
		last:     -1,
	}
}

func (t *uploadTask) Progress() <-chan float64 {
	return t.progress
}

func (t *uploadTask) Wait() (string, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url, t.err
}

func (t *uploadTask) Cancel() {
	t.cancel()
}

// sentFunc converts transferred bytes into a percentage of size. 100 is reserved for a
// stored object, and an unknown size reports nothing before it.
func (t *uploadTask) sentFunc(size int64) func(int64) {
	return func(sent int64) {
		if size <= 0 {
			return
		}
		pct := float64(sent * 100 / size)
		if pct > 99 {
			pct = 99
		}
		t.report(pct)
	}
}

// run copies src into w. count is non-nil when w does not report its own transfer
// progress, in which case bytes copied into w are counted instead.
func (t *uploadTask) run(ctx context.Context, w objectWriter, src io.Reader, count func(int64), finish func() (string, error)) {
	defer close(t.done)
	defer close(t.progress)

	cw := &countingWriter{ctx: ctx, w: w, sent: count}
	if _, err := io.Copy(cw, src); err != nil {
		_ = w.Close()
		t.fail(fmt.Errorf("failed to copy file to GCS: %w", err))
		return
	}
	if err := w.Close(); err != nil {
		t.fail(fmt.Errorf("failed to close writer: %w", err))
		return
	}

	url, err := finish()
	if err != nil {
		t.fail(err)
		return
	}

	t.report(100)
	t.mu.Lock()
	t.url = url
	t.mu.Unlock()
}

func (t *uploadTask) fail(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// report only emits whole percentages above the last one sent. The SDK calls it from
// its upload goroutine.
func (t *uploadTask) report(pct float64) {
	t.reportMu.Lock()
	defer t.reportMu.Unlock()

	if pct > 100 {
		pct = 100
	}
	if pct <= t.last {
		return
	}
	t.last = pct
	t.progress <- pct
}

type countingWriter struct {
	ctx     context.Context
	w       io.Writer
	written int64
	sent    func(int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := c.w.Write(p)
	c.written += int64(n)
	if c.sent != nil {
		c.sent(c.written)
	}
	return n, err
}
