// Package browser drives one logical browser tab through chromedp: action
// primitives, state capture, and the retry/validation rules a replayed
// Plan is executed under.
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"pagewatch.dev/core/internal/model"
)

// screenshotQuality is the JPEG compression quality used for every
// screenshot this package captures, viewport or full-page.
const screenshotQuality = 80

// captureScreenshotJPEG captures the current viewport as JPEG at
// screenshotQuality. Unlike chromedp.CaptureScreenshot, which leaves CDP's
// format default (PNG) in place, this forces JPEG so the data URI
// encodeScreenshot produces is never mislabeled.
func captureScreenshotJPEG(buf *[]byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(screenshotQuality)).
			Do(ctx)
		if err != nil {
			return err
		}
		*buf = data
		return nil
	})
}

// Config configures a Session's underlying browser tab.
type Config struct {
	Headless         bool
	Viewport         model.Viewport
	UserAgent        string
	Headers          map[string]string
	DefaultTimeoutMs int
}

func (c Config) defaultTimeout() time.Duration {
	if c.DefaultTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// Session is one logical tab. Start is idempotent: a second call against an
// already-started session reuses the existing tab rather than opening a
// new one.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	cfg     Config
	started bool
}

// NewSession returns an unstarted Session.
func NewSession() *Session {
	return &Session{}
}

// Start launches the tab, or is a no-op if this Session is already started.
func (s *Session) Start(ctx context.Context, cfg Config) error {
	if s.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return model.NewBrowserExecutionError("failed to start browser tab", "", err)
	}

	s.allocCtx, s.allocCancel = allocCtx, allocCancel
	s.ctx, s.cancel = tabCtx, tabCancel
	s.cfg = cfg
	s.started = true
	return nil
}

// Stop releases the tab, context, and underlying browser process. It must
// run on every exit path, including panics and timeouts, so callers defer
// it immediately after a successful Start.
func (s *Session) Stop() error {
	if !s.started {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.started = false
	return nil
}

// CurrentURL returns the tab's current address.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(s.withTimeout(ctx), chromedp.Location(&url)); err != nil {
		return "", model.NewBrowserExecutionError("failed to read current url", "", err)
	}
	return url, nil
}

// Viewport reports the viewport this Session was started with.
func (s *Session) Viewport() model.Viewport {
	return s.cfg.Viewport
}

// CaptureState snapshots the page for the InteractiveAgent: URL, a
// body-preferred DOM bounded to DOMByteLimit, a JPEG screenshot, viewport,
// and capture time. A capture failure never aborts the caller: it yields a
// partial BrowserState with CaptureError set so the interactive loop can
// proceed on the next step rather than unwind.
func (s *Session) CaptureState(ctx context.Context, includeScreenshot bool) (model.BrowserState, error) {
	runCtx := s.withTimeout(ctx)

	state := model.BrowserState{
		Viewport:   s.cfg.Viewport,
		CapturedAt: now(),
	}

	var rawDOM string
	var url string
	if err := chromedp.Run(runCtx,
		chromedp.Location(&url),
		chromedp.OuterHTML("body", &rawDOM, chromedp.ByQuery),
	); err != nil {
		state.CaptureError = model.NewBrowserExecutionError("failed to capture page state", "", err).Error()
		return state, nil
	}

	state.URL = url
	state.DOM = truncateDOM(rawDOM)

	if includeScreenshot {
		var buf []byte
		if err := chromedp.Run(runCtx, captureScreenshotJPEG(&buf)); err == nil {
			state.Screenshot = encodeScreenshot(buf)
		}
	}

	return state, nil
}

// PageText returns the page's visible text with scripts and styles
// stripped, sanitized and bounded to PageTextByteLimit.
func (s *Session) PageText(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(s.withTimeout(ctx), chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", model.NewBrowserExecutionError("failed to read page text", "", err)
	}
	return sanitizeText(html), nil
}

// withTimeout derives a run context from the tab's own context (the one
// chromedp.Run must be called with) bounded by the configured default
// step timeout. The caller-supplied ctx is not used directly since
// chromedp actions are bound to the tab's allocator context, but its
// cancellation still ends the run promptly: a watcher goroutine cancels
// the run context as soon as ctx is done.
func (s *Session) withTimeout(ctx context.Context) context.Context {
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.defaultTimeout())
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()
	return runCtx
}

func encodeScreenshot(buf []byte) string {
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(buf))
}

func now() time.Time {
	return time.Now()
}
