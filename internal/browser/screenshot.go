// internal/browser/screenshot.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// screenshotTimeout is longer than operationTimeout; full page captures of a
// WebGL canvas are slow on software rendering.
const screenshotTimeout = 45 * time.Second

func (s *Session) capture(ctx context.Context, what string, action chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(ctx, screenshotTimeout)
	defer cancel()
	if err := s.RunActions(opCtx, action); err != nil {
		if opCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("%s screenshot timed out after %s", what, screenshotTimeout)
		}
		return fmt.Errorf("%s screenshot failed: %w", what, err)
	}
	return nil
}

// FullScreenshot captures the entire scrollable page as PNG.
func (s *Session) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 keeps the lossless PNG encoding.
	if err := s.capture(ctx, "full page", chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ViewportScreenshot captures the visible viewport as PNG.
func (s *Session) ViewportScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	action := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	})
	if err := s.capture(ctx, "viewport", action); err != nil {
		return nil, err
	}
	return buf, nil
}

// ElementScreenshot captures the first match of selector as PNG.
func (s *Session) ElementScreenshot(ctx context.Context, selector string) ([]byte, error) {
	if _, err := s.Query(ctx, selector); err != nil {
		return nil, err
	}
	var buf []byte
	if err := s.capture(ctx, "element "+selector, chromedp.Screenshot(selector, &buf, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return buf, nil
}
