// File: internal/wait/poller.go
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/craftcheck/internal/config"
)

// ErrTimedOut is returned when a condition does not hold before its bound.
var ErrTimedOut = errors.New("condition timed out")

// Predicate reports whether a condition currently holds. An error is treated
// as "not yet" and kept as the last observed cause.
type Predicate func(ctx context.Context) (bool, error)

// Condition is a predicate with its bound and polling interval.
type Condition struct {
	Name     string
	Check    Predicate
	Timeout  time.Duration
	Interval time.Duration
}

// Until evaluates c.Check immediately and then at most once per c.Interval
// until it returns true, c.Timeout elapses, or ctx is done. A timeout is
// reported as ErrTimedOut, wrapping the last predicate error if there was one.
func Until(ctx context.Context, c Condition) error {
	if c.Check == nil {
		return fmt.Errorf("condition %q has no predicate", c.Name)
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		return fmt.Errorf("condition %q needs a positive timeout and interval", c.Name)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(c.Interval), 1)
	var lastErr error
	attempts := 0

	for {
		// The first token is available immediately. Wait returns early once the
		// next token would land past the deadline.
		if err := limiter.Wait(waitCtx); err != nil {
			return timeoutOrCancel(ctx, c, attempts, lastErr)
		}

		attempts++
		ok, err := c.Check(waitCtx)
		if err != nil {
			lastErr = err
		} else if ok {
			return nil
		}

		if waitCtx.Err() != nil {
			return timeoutOrCancel(ctx, c, attempts, lastErr)
		}
	}
}

func timeoutOrCancel(parent context.Context, c Condition, attempts int, lastErr error) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("waiting for %s: %w", c.Name, err)
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %s not met after %s (%d checks): %w", ErrTimedOut, c.Name, c.Timeout, attempts, lastErr)
	}
	return fmt.Errorf("%w: %s not met after %s (%d checks)", ErrTimedOut, c.Name, c.Timeout, attempts)
}

// Settle blocks for d unless ctx ends first. It is the fallback for states that
// expose no observable signal.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poller binds Until and Settle to the configured timing policy.
type Poller struct {
	timing config.TimingConfig
	logger *zap.Logger
}

// NewPoller creates a Poller for the given timing policy.
func NewPoller(timing config.TimingConfig, logger *zap.Logger) *Poller {
	return &Poller{timing: timing, logger: logger.Named("poller")}
}

// Timing returns the policy the poller was built with.
func (p *Poller) Timing() config.TimingConfig {
	return p.timing
}

// Until waits for check using the policy poll interval.
func (p *Poller) Until(ctx context.Context, name string, timeout time.Duration, check Predicate) error {
	start := time.Now()
	err := Until(ctx, Condition{
		Name:     name,
		Check:    check,
		Timeout:  timeout,
		Interval: p.timing.PollInterval,
	})
	if err != nil {
		p.logger.Debug("Condition not met.", zap.String("condition", name), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return err
	}
	p.logger.Debug("Condition met.", zap.String("condition", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Settle sleeps for d.
func (p *Poller) Settle(ctx context.Context, reason string, d time.Duration) error {
	p.logger.Debug("Settling.", zap.String("reason", reason), zap.Duration("delay", d))
	return Settle(ctx, d)
}

// SettleOrWait waits for marker when one is given, bounded by timeout, and
// otherwise falls back to a fixed delay of d.
func (p *Poller) SettleOrWait(ctx context.Context, reason string, d, timeout time.Duration, marker Predicate) error {
	if marker == nil {
		return p.Settle(ctx, reason, d)
	}
	return p.Until(ctx, reason, timeout, marker)
}
