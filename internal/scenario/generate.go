// internal/scenario/generate.go
package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/internal/wait"
)

// selectType picks a furniture type and waits for the form to update.
func selectType(ctx context.Context, env *Env, furnitureType string) error {
	if err := env.Page.Select(ctx, env.Contract.FurnitureType, furnitureType); err != nil {
		return fmt.Errorf("selecting furniture type %s: %w", furnitureType, err)
	}
	return env.Poller.Settle(ctx, "type selection", env.Timing().SelectSettle)
}

// generate runs the trigger and wait flow for one furniture type: select,
// click the generate control, watch its label leave and return to the idle
// text, then let the 3D view render.
func generate(ctx context.Context, env *Env, furnitureType string) error {
	if err := selectType(ctx, env, furnitureType); err != nil {
		return err
	}

	c := env.Contract
	timing := env.Timing()
	label := func(ctx context.Context) (string, error) {
		return env.Text(ctx, c.GenerateButton)
	}

	env.Logger.Info("Triggering generation.", zap.String("type", furnitureType))
	if err := env.Page.Click(ctx, c.GenerateButton); err != nil {
		return fmt.Errorf("clicking %s: %w", c.GenerateButton, err)
	}

	// The busy label can be shorter lived than one poll, so not seeing it is
	// only recorded.
	var busyLabel string
	err := env.Poller.Until(ctx, "generate control busy", timing.BusyGrace, func(ctx context.Context) (bool, error) {
		text, err := label(ctx)
		if err != nil {
			return false, err
		}
		busyLabel = text
		return text != c.IdleLabel, nil
	})
	switch {
	case err == nil:
		env.Observe("busy_label."+furnitureType, busyLabel)
	case errors.Is(err, wait.ErrTimedOut):
		env.Warn("busy_label."+furnitureType, fmt.Sprintf("label stayed %q for %s", c.IdleLabel, timing.BusyGrace))
	default:
		return err
	}

	err = env.Poller.Until(ctx, "generation of "+furnitureType, timing.GenerationTimeout, func(ctx context.Context) (bool, error) {
		text, err := label(ctx)
		if err != nil {
			return false, err
		}
		return text == c.IdleLabel, nil
	})
	if err != nil {
		return fmt.Errorf("generation of %s did not complete: %w", furnitureType, err)
	}

	if err := renderSettle(ctx, env, "render "+furnitureType); err != nil {
		return err
	}
	env.GeneratedType = furnitureType
	return nil
}

// renderSettle waits for the 3D view. With a render_ready selector in the
// contract it is a real condition; otherwise a fixed delay.
func renderSettle(ctx context.Context, env *Env, reason string) error {
	timing := env.Timing()
	var marker wait.Predicate
	if sel := env.Contract.RenderReady; sel != "" {
		marker = func(ctx context.Context) (bool, error) {
			_, err := env.Page.Query(ctx, sel)
			if IsNotFound(err) {
				return false, nil
			}
			return err == nil, err
		}
	}
	if err := env.Poller.SettleOrWait(ctx, reason, timing.RenderSettle, timing.RenderTimeout, marker); err != nil {
		return fmt.Errorf("%s: %w", reason, err)
	}
	return nil
}
