// internal/scenario/sequencer.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/artifacts"
	"github.com/xkilldash9x/craftcheck/internal/config"
	"github.com/xkilldash9x/craftcheck/internal/contract"
	"github.com/xkilldash9x/craftcheck/internal/reporting"
	"github.com/xkilldash9x/craftcheck/internal/wait"
)

// errorStateTimeout bounds the diagnostic capture taken after a failure.
const errorStateTimeout = 60 * time.Second

// Step is one ordered unit of the scenario. Run returns nil to let the
// sequencer move on; any error fails the run. Returning Skip(...) ends the
// step without failing.
type Step struct {
	Name string
	Run  func(ctx context.Context, env *Env) error
}

// Options wires a Sequencer to its collaborators.
type Options struct {
	TargetURL string
	Viewport  schemas.Viewport
	Contract  contract.Contract
	Scenario  config.ScenarioConfig
	Poller    *wait.Poller
	Capturer  *artifacts.Capturer
	Reporter  reporting.Reporter
	Logger    *zap.Logger
}

// Sequencer drives a run through Pending, Running(i), and then Completed or
// Failed. It runs exactly once.
type Sequencer struct {
	id     string
	page   Page
	steps  []Step
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	status  schemas.RunStatus
	current int
	outcome *schemas.Outcome
}

// NewSequencer validates the wiring and returns a sequencer in the Pending state.
func NewSequencer(page Page, steps []Step, opts Options) (*Sequencer, error) {
	if page == nil {
		return nil, errors.New("sequencer requires a page")
	}
	if len(steps) == 0 {
		return nil, errors.New("sequencer requires at least one step")
	}
	seen := make(map[string]bool, len(steps))
	for i, st := range steps {
		if st.Name == "" || st.Run == nil {
			return nil, fmt.Errorf("step %d must have a name and a run function", i+1)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("duplicate step name %q", st.Name)
		}
		seen[st.Name] = true
	}
	if opts.TargetURL == "" {
		return nil, errors.New("sequencer requires a target url")
	}
	if opts.Poller == nil || opts.Capturer == nil {
		return nil, errors.New("sequencer requires a poller and a capturer")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Reporter == nil {
		opts.Reporter = reporting.Nop{}
	}

	return &Sequencer{
		id:     uuid.New().String(),
		page:   page,
		steps:  steps,
		opts:   opts,
		logger: opts.Logger.Named("sequencer"),
		now:    time.Now,
		status: schemas.RunPending,
	}, nil
}

// ID returns the run identifier.
func (s *Sequencer) ID() string {
	return s.id
}

// State returns the run status and the 1-based index of the running (or
// failed) step; 0 before the first step.
func (s *Sequencer) State() (schemas.RunStatus, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.current
}

func (s *Sequencer) transition(status schemas.RunStatus, current int) {
	s.mu.Lock()
	s.status = status
	s.current = current
	s.mu.Unlock()
}

// Run navigates to the target and executes every step in order. The first
// failing step ends the run, after a full page error-state screenshot. Run
// always returns an outcome; calling it again returns the first outcome.
func (s *Sequencer) Run(ctx context.Context) *schemas.Outcome {
	s.mu.Lock()
	if s.status != schemas.RunPending {
		out := s.outcome
		s.mu.Unlock()
		if out == nil {
			return &schemas.Outcome{RunID: s.id, Status: schemas.RunFailed, Error: ErrAlreadyRun.Error(), Cause: ErrAlreadyRun}
		}
		return out
	}
	s.status = schemas.RunRunning
	s.mu.Unlock()

	rec := &recorder{
		capturer: s.opts.Capturer,
		reporter: s.opts.Reporter,
		logger:   s.logger,
		now:      s.now,
	}
	env := &Env{
		Page:     s.page,
		Contract: s.opts.Contract,
		Poller:   s.opts.Poller,
		Scenario: s.opts.Scenario,
		Logger:   s.logger,
		rec:      rec,
	}

	start := s.now()
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	s.report("run started", func(r reporting.Reporter) error {
		return r.RunStarted(schemas.RunInfo{
			ID:          s.id,
			TargetURL:   s.opts.TargetURL,
			Viewport:    s.opts.Viewport,
			ArtifactDir: s.opts.Capturer.Dir(),
			Steps:       names,
			StartedAt:   start.UTC(),
		})
	})

	results, failure := s.execute(ctx, env)

	outcome := &schemas.Outcome{
		RunID:     s.id,
		Status:    schemas.RunCompleted,
		Steps:     results,
		StartedAt: start.UTC(),
	}
	if failure != nil {
		outcome.Status = schemas.RunFailed
		outcome.FailedStep = failure.Step
		outcome.Error = failure.Error()
		outcome.Cause = failure
		s.captureErrorState(ctx, rec, failure)
		s.transition(schemas.RunFailed, failure.Index)
	} else {
		s.transition(schemas.RunCompleted, len(s.steps))
	}

	outcome.Observations, outcome.Artifacts = rec.snapshot()
	outcome.FinishedAt = s.now().UTC()

	if _, err := s.opts.Capturer.WriteManifest(s.id); err != nil {
		s.logger.Warn("Failed to write artifact manifest.", zap.Error(err))
	}
	s.report("run finished", func(r reporting.Reporter) error { return r.RunFinished(outcome) })

	s.mu.Lock()
	s.outcome = outcome
	s.mu.Unlock()
	return outcome
}

// execute runs navigation and then each step. A panic anywhere below is
// recovered here and attributed to the step that was running.
func (s *Sequencer) execute(ctx context.Context, env *Env) (results []schemas.StepResult, failure *StepError) {
	index, name := 0, schemas.NavigateStepName
	stepStart := s.now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in step.",
				zap.String("step", name),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			failure = &StepError{Step: name, Index: index, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
			results = s.finishStep(results, index, name, stepStart, failure)
			results = s.skipRemaining(results, index)
		}
	}()

	env.step = name
	s.report("step started", func(r reporting.Reporter) error { return r.StepStarted(index, name) })
	s.logger.Info("Navigating to target.", zap.String("url", s.opts.TargetURL))
	if err := s.page.Navigate(ctx, s.opts.TargetURL); err != nil {
		failure = &StepError{Step: name, Index: index, Err: err}
		results = s.finishStep(results, index, name, stepStart, failure)
		return s.skipRemaining(results, index), failure
	}
	results = s.finishStep(results, index, name, stepStart, nil)

	for i, st := range s.steps {
		index, name = i+1, st.Name
		stepStart = s.now()
		env.step = name
		s.transition(schemas.RunRunning, index)
		s.report("step started", func(r reporting.Reporter) error { return r.StepStarted(index, name) })

		err := ctx.Err()
		if err == nil {
			err = st.Run(ctx, env)
		}

		if err != nil && errors.Is(err, errSkipped) {
			s.logger.Info("Step skipped.", zap.String("step", name), zap.String("reason", err.Error()))
			results = s.recordResult(results, schemas.StepResult{
				Index:     index,
				Name:      name,
				Status:    schemas.StepSkipped,
				StartedAt: stepStart.UTC(),
				Duration:  s.now().Sub(stepStart),
				Error:     err.Error(),
			})
			continue
		}
		if err != nil {
			failure = &StepError{Step: name, Index: index, Err: err}
			results = s.finishStep(results, index, name, stepStart, failure)
			return s.skipRemaining(results, index), failure
		}
		results = s.finishStep(results, index, name, stepStart, nil)
	}
	return results, nil
}

func (s *Sequencer) finishStep(results []schemas.StepResult, index int, name string, start time.Time, failure *StepError) []schemas.StepResult {
	res := schemas.StepResult{
		Index:     index,
		Name:      name,
		Status:    schemas.StepPassed,
		StartedAt: start.UTC(),
		Duration:  s.now().Sub(start),
	}
	if failure != nil {
		res.Status = schemas.StepFailed
		res.Error = failure.Err.Error()
	}
	return s.recordResult(results, res)
}

func (s *Sequencer) recordResult(results []schemas.StepResult, res schemas.StepResult) []schemas.StepResult {
	s.report("step finished", func(r reporting.Reporter) error { return r.StepFinished(res) })
	return append(results, res)
}

// skipRemaining marks every step after index as skipped. Nothing is reported
// for them since they never started.
func (s *Sequencer) skipRemaining(results []schemas.StepResult, index int) []schemas.StepResult {
	for i := index; i < len(s.steps); i++ {
		results = append(results, schemas.StepResult{
			Index:  i + 1,
			Name:   s.steps[i].Name,
			Status: schemas.StepSkipped,
		})
	}
	return results
}

// captureErrorState takes the error-state screenshot. It runs even when ctx
// has been cancelled, and its own failure is only logged so it can never
// replace the cause of the run failure.
func (s *Sequencer) captureErrorState(ctx context.Context, rec *recorder, failure *StepError) {
	s.logger.Error("Run failed, capturing error state.",
		zap.String("step", failure.Step),
		zap.Int("index", failure.Index),
		zap.Error(failure.Err),
	)

	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorStateTimeout)
	defer cancel()

	if _, err := rec.capture(captureCtx, s.page, failure.Step, artifacts.ErrorState, schemas.ScopeFullPage, ""); err != nil {
		s.logger.Warn("Failed to capture error state screenshot.", zap.Error(err))
		rec.observe(failure.Step, "error_state_capture", err.Error(), true)
	}
}

func (s *Sequencer) report(event string, fn func(reporting.Reporter) error) {
	if err := fn(s.opts.Reporter); err != nil {
		s.logger.Warn("Reporter error.", zap.String("event", event), zap.Error(err))
	}
}
