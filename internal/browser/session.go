// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/config"
)

// operationTimeout bounds a single observer or interactor call.
const operationTimeout = 15 * time.Second

// Session is the single browser tab of a run. It implements the observer,
// interactor and screenshot surfaces over chromedp.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	allocCancel context.CancelFunc

	cfg    config.BrowserConfig
	logger *zap.Logger

	onClose   func()
	closeOnce sync.Once
	closed    chan struct{}
}

var _ schemas.SessionContext = (*Session)(nil)

func newSession(
	ctx context.Context,
	cancel context.CancelFunc,
	allocCancel context.CancelFunc,
	cfg config.BrowserConfig,
	logger *zap.Logger,
) *Session {
	id := uuid.New().String()
	return &Session{
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.With(zap.String("session_id", id)),
		closed:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Close cancels the tab and allocator contexts, waiting for the browser
// process to exit or for ctx to end. Subsequent calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.logger.Debug("Closing browser session.")

		done := make(chan error, 1)
		go func() {
			// The tab is the first of its allocator, so Cancel closes the
			// whole browser gracefully and waits for it.
			err := chromedp.Cancel(s.ctx)
			s.allocCancel()
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				closeErr = fmt.Errorf("failed to stop browser cleanly: %w", err)
			}
		case <-ctx.Done():
			closeErr = fmt.Errorf("timed out stopping browser: %w", ctx.Err())
		}

		// Idempotent; forces the process down if Cancel did not finish.
		s.cancel()
		s.allocCancel()

		if s.onClose != nil {
			s.onClose()
		}
	})
	return closeErr
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// RunActions runs chromedp actions against the tab, cancelled when either the
// session or ctx ends. The session context carries the CDP target, so the
// operation context only contributes its deadline and cancellation.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		// Prefer the caller's view of why the operation stopped.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return ErrSessionClosed
		}
	}
	return err
}

// withOperationTimeout derives the per call context used by observers and interactors.
func withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, operationTimeout)
}
