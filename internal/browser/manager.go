// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/craftcheck/internal/config"
)

const (
	defaultLaunchTimeout = 60 * time.Second
	shutdownGracePeriod  = 15 * time.Second
)

// Manager owns the single browser process of a run. It hands out at most one
// Session at a time and tears the browser down when that session is released.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	// sem has a weight of one; holding it means a session is live.
	sem *semaphore.Weighted

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager. No browser is started until Acquire.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
		sem:    semaphore.NewWeighted(1),
	}
}

// launchFlags lists the command line switches passed to Chrome, keyed by
// switch name without the leading dashes.
func launchFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":               cfg.Headless,
		"no-sandbox":             true,
		"disable-setuid-sandbox": true,
		"disable-dev-shm-usage":  true,
		"disable-gpu":            true,
		"hide-scrollbars":        true,
		"window-size":            fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height),
	}

	// Extra args from config, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			flags[key] = value
		} else {
			flags[key] = true
		}
	}
	return flags
}

// allocatorOptions builds the exec allocator options for cfg.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range launchFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Acquire launches the browser, opens one tab and applies the viewport. A
// second Acquire while a session is live fails with ErrSessionBusy. Launch
// failures wrap ErrLaunch and leave no process behind.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if !m.sem.TryAcquire(1) {
		return nil, ErrSessionBusy
	}

	session, err := m.launch(ctx)
	if err != nil {
		m.sem.Release(1)
		return nil, err
	}

	m.mu.Lock()
	m.active = session
	m.mu.Unlock()
	return session, nil
}

func (m *Manager) launch(ctx context.Context) (*Session, error) {
	m.logger.Info("Launching browser.",
		zap.Bool("headless", m.cfg.Headless),
		zap.Int("viewport_width", m.cfg.Viewport.Width),
		zap.Int("viewport_height", m.cfg.Viewport.Height),
	)

	// The browser lives until Release, not until the caller's context ends,
	// so the error-state capture still works after an interrupt.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(m.cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			m.logger.Debug("cdp: " + fmt.Sprintf(format, args...))
		}),
	)

	cleanup := func() {
		tabCancel()
		allocCancel()
	}

	timeout := m.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}

	// The first Run starts the process. It is bound to tabCtx, so the timeout
	// is enforced from outside rather than by deriving a deadline context.
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx, emulation.SetDeviceMetricsOverride(
			int64(m.cfg.Viewport.Width), int64(m.cfg.Viewport.Height), 1, false,
		))
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
		}
	case <-timer.C:
		cleanup()
		<-done
		return nil, fmt.Errorf("%w: browser did not respond within %s", ErrLaunch, timeout)
	case <-ctx.Done():
		cleanup()
		<-done
		return nil, fmt.Errorf("%w: %v", ErrLaunch, ctx.Err())
	}

	s := newSession(tabCtx, tabCancel, allocCancel, m.cfg, m.logger)
	s.onClose = func() {
		m.mu.Lock()
		if m.active == s {
			m.active = nil
		}
		m.mu.Unlock()
		m.sem.Release(1)
		m.logger.Debug("Session released.", zap.String("session_id", s.ID()))
	}

	m.logger.Info("Browser launched.", zap.String("session_id", s.ID()))
	return s, nil
}

// Release closes the session and kills the browser process. It is safe to call
// more than once and with a nil session.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		m.logger.Warn("Error while closing browser session.", zap.String("session_id", s.ID()), zap.Error(err))
	}
}

// Active returns the live session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown releases the live session, if any.
func (m *Manager) Shutdown() {
	m.Release(m.Active())
}
