// internal/scenario/env.go
package scenario

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/artifacts"
	"github.com/xkilldash9x/craftcheck/internal/browser"
	"github.com/xkilldash9x/craftcheck/internal/config"
	"github.com/xkilldash9x/craftcheck/internal/contract"
	"github.com/xkilldash9x/craftcheck/internal/reporting"
	"github.com/xkilldash9x/craftcheck/internal/wait"
)

// Page is everything a step may do to the browser tab.
type Page interface {
	schemas.Observer
	schemas.Interactor
	schemas.ScreenshotTaker
}

// Env is handed to every step. Besides the shared collaborators it carries
// the state that earlier steps leave for later ones.
type Env struct {
	Page     Page
	Contract contract.Contract
	Poller   *wait.Poller
	Scenario config.ScenarioConfig
	Logger   *zap.Logger

	// GeneratedType is the furniture type of the most recent generation.
	GeneratedType string
	// ViewerVisible records whether the 3D viewer toggle showed up after
	// the baseline generation. The view toggle step only runs when true.
	ViewerVisible bool
	// Options are the furniture types offered by the page.
	Options []schemas.Option

	rec  *recorder
	step string
}

// Timing is shorthand for the poller's policy.
func (e *Env) Timing() config.TimingConfig {
	return e.Poller.Timing()
}

// Observe records a fact about the page.
func (e *Env) Observe(key string, value interface{}) {
	e.rec.observe(e.step, key, value, false)
}

// Warn records a fact that deviates from what the application should do.
// It never fails the step.
func (e *Env) Warn(key string, value interface{}) {
	e.rec.observe(e.step, key, value, true)
}

// Capture writes a screenshot checkpoint. selector only applies to element scope.
func (e *Env) Capture(ctx context.Context, name string, scope schemas.ArtifactScope, selector string) error {
	_, err := e.rec.capture(ctx, e.Page, e.step, name, scope, selector)
	return err
}

// Text returns the trimmed text of the first match of selector.
func (e *Env) Text(ctx context.Context, selector string) (string, error) {
	el, err := e.Page.Query(ctx, selector)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(el.Text), nil
}

// IsNotFound reports whether err means an element was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, browser.ErrNotFound)
}

// recorder collects observations and artifacts for the outcome and forwards
// them to the reporter.
type recorder struct {
	capturer *artifacts.Capturer
	reporter reporting.Reporter
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	observations []schemas.Observation
	artifacts    []schemas.Artifact
}

func (r *recorder) observe(step, key string, value interface{}, warning bool) {
	obs := schemas.Observation{Step: step, Key: key, Value: value, Warning: warning, At: r.now().UTC()}
	r.mu.Lock()
	r.observations = append(r.observations, obs)
	r.mu.Unlock()
	if err := r.reporter.Observed(obs); err != nil {
		r.logger.Warn("Reporter failed to record observation.", zap.String("key", key), zap.Error(err))
	}
}

func (r *recorder) capture(ctx context.Context, src schemas.ScreenshotTaker, step, name string, scope schemas.ArtifactScope, selector string) (schemas.Artifact, error) {
	artifact, err := r.capturer.Capture(ctx, src, step, name, scope, selector)
	if err != nil {
		return schemas.Artifact{}, err
	}
	r.mu.Lock()
	r.artifacts = append(r.artifacts, artifact)
	r.mu.Unlock()
	if err := r.reporter.Captured(artifact); err != nil {
		r.logger.Warn("Reporter failed to record artifact.", zap.String("name", artifact.Name), zap.Error(err))
	}
	return artifact, nil
}

func (r *recorder) snapshot() ([]schemas.Observation, []schemas.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obs := make([]schemas.Observation, len(r.observations))
	copy(obs, r.observations)
	arts := make([]schemas.Artifact, len(r.artifacts))
	copy(arts, r.artifacts)
	return obs, arts
}
