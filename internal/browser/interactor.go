// internal/browser/interactor.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultNavigationTimeout = 60 * time.Second

// Navigate loads url and waits for the body to be ready. It is bounded by the
// configured navigation timeout and every failure wraps ErrNavigation.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating.", zap.String("url", url))

	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("%w: %s did not load within %s", ErrNavigation, url, navTimeout)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, ErrSessionClosed) {
			return fmt.Errorf("%w: navigation to %s canceled: %w", ErrNavigation, url, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	if wait := s.cfg.PostLoadWait; wait > 0 {
		s.logger.Debug("Post load wait.", zap.Duration("wait", wait))
		if err := s.RunActions(ctx, chromedp.Sleep(wait)); err != nil {
			return fmt.Errorf("%w: post load wait interrupted: %w", ErrNavigation, err)
		}
	}

	s.logger.Info("Navigation complete.", zap.String("url", url))
	return nil
}

// Select sets the value of a control and dispatches input and change events,
// as a programmatic value change fires neither.
func (s *Session) Select(ctx context.Context, selector, value string) error {
	s.logger.Debug("Selecting value.", zap.String("selector", selector), zap.String("value", value))

	script := fmt.Sprintf(`(function(selector, value) {
		const el = document.querySelector(selector);
		if (!el) { return 'missing'; }
		if (el.tagName === 'SELECT' && !Array.from(el.options).some(function(o) { return o.value === value; })) {
			return 'no-option';
		}
		el.value = value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return 'ok';
	})(%s, %s)`, jsonEncode(selector), jsonEncode(value))

	opCtx, cancel := withOperationTimeout(ctx)
	defer cancel()

	var result string
	if err := s.RunActions(opCtx, chromedp.Evaluate(script, &result, evalOptions)); err != nil {
		return fmt.Errorf("select %q on %q failed: %w", value, selector, err)
	}
	switch result {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	default:
		return fmt.Errorf("%w: option %q in %s", ErrNotFound, value, selector)
	}
}

// Click dispatches a mouse click on the first match of selector. An absent
// element fails fast with ErrNotFound instead of waiting for it to appear.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking.", zap.String("selector", selector))

	if _, err := s.Query(ctx, selector); err != nil {
		return err
	}

	opCtx, cancel := withOperationTimeout(ctx)
	defer cancel()

	err := s.RunActions(opCtx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		if opCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("click on %q timed out after %s (element not visible?): %w", selector, operationTimeout, opCtx.Err())
		}
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// SetViewport overrides the device metrics of the tab.
func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	opCtx, cancel := withOperationTimeout(ctx)
	defer cancel()
	if err := s.RunActions(opCtx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false)); err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", width, height, err)
	}
	return nil
}
