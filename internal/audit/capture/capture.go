package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

const (
	viewportWidth  = 1280
	viewportHeight = 800
	jpegQuality    = 60

	// DefaultTimeout bounds navigation plus extraction for one capture.
	DefaultTimeout = 30 * time.Second

	// networkQuietWindow is how long the network must stay silent after
	// the load event before the page counts as settled.
	networkQuietWindow = 500 * time.Millisecond
)

// Result is one captured page: a compressed visual snapshot plus the
// bounded structural text extracted from the DOM.
type Result struct {
	Snapshot []byte
	Content  domain.PageContent
}

// Engine drives an isolated headless Chrome session per capture.
type Engine struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewEngine creates a capture engine. A non-positive timeout falls back
// to DefaultTimeout.
func NewEngine(timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{timeout: timeout, logger: logger}
}

// Capture loads url in a fresh browser session, waits for network
// quiescence, takes one JPEG snapshot of the fixed viewport, and
// extracts the structural content. The session is released on every
// exit path.
func (e *Engine) Capture(ctx context.Context, url string) (*Result, error) {
	start := time.Now()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, e.timeout)
	defer cancelRun()

	waiter := newIdleWaiter(networkQuietWindow)

	var snapshot []byte
	var content domain.PageContent

	err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.ActionFunc(func(ctx context.Context) error {
			waiter.listen(ctx)
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.ActionFunc(waiter.wait),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, err := page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(jpegQuality).
				Do(ctx)
			if err != nil {
				return err
			}
			snapshot = data
			return nil
		}),
		chromedp.Evaluate(extractScript, &content),
	)
	if err != nil {
		return nil, &domain.CaptureError{
			URL:     url,
			Timeout: errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
	}

	normalizeContent(&content)

	e.logger.Info("Page captured",
		slog.String("url", url),
		slog.Int("snapshot_bytes", len(snapshot)),
		slog.Int("headings", len(content.Headings)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Result{Snapshot: snapshot, Content: content}, nil
}

// idleWaiter tracks in-flight network requests and reports when the
// page has been quiet for a full window.
type idleWaiter struct {
	mu       sync.Mutex
	window   time.Duration
	inflight map[network.RequestID]struct{}
	timer    *time.Timer
	idle     chan struct{}
	once     sync.Once
}

func newIdleWaiter(window time.Duration) *idleWaiter {
	return &idleWaiter{
		window:   window,
		inflight: make(map[network.RequestID]struct{}),
		idle:     make(chan struct{}),
	}
}

// listen must be registered before navigation starts so no request is
// missed.
func (w *idleWaiter) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			w.mu.Lock()
			w.inflight[e.RequestID] = struct{}{}
			if w.timer != nil {
				w.timer.Stop()
				w.timer = nil
			}
			w.mu.Unlock()
		case *network.EventLoadingFinished:
			w.requestDone(e.RequestID)
		case *network.EventLoadingFailed:
			w.requestDone(e.RequestID)
		}
	})
}

func (w *idleWaiter) requestDone(id network.RequestID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.inflight, id)
	if len(w.inflight) == 0 {
		w.armLocked()
	}
}

func (w *idleWaiter) armLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, func() {
		w.once.Do(func() { close(w.idle) })
	})
}

// wait blocks until the network has been quiet for the configured
// window or the run context expires.
func (w *idleWaiter) wait(ctx context.Context) error {
	w.mu.Lock()
	if len(w.inflight) == 0 && w.timer == nil {
		w.armLocked()
	}
	w.mu.Unlock()

	select {
	case <-w.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
