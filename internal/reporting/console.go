// internal/reporting/console.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

const summaryRule = "=================================================="

// ConsoleReporter narrates the run through the logger and prints a summary
// table when the run finishes.
type ConsoleReporter struct {
	logger *zap.Logger
	out    io.Writer

	mu   sync.Mutex
	info schemas.RunInfo
}

// NewConsoleReporter creates a ConsoleReporter writing its table to out.
func NewConsoleReporter(logger *zap.Logger, out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{logger: logger.Named("report"), out: out}
}

func (c *ConsoleReporter) RunStarted(info schemas.RunInfo) error {
	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	c.logger.Info("Starting UI verification run.",
		zap.String("run_id", info.ID),
		zap.String("target", info.TargetURL),
		zap.Int("viewport_width", info.Viewport.Width),
		zap.Int("viewport_height", info.Viewport.Height),
		zap.String("artifacts", info.ArtifactDir),
		zap.Int("steps", len(info.Steps)),
	)
	return nil
}

func (c *ConsoleReporter) StepStarted(index int, name string) error {
	c.logger.Info("Step started.", zap.Int("step", index), zap.String("name", name))
	return nil
}

func (c *ConsoleReporter) Observed(obs schemas.Observation) error {
	fields := []zap.Field{zap.String("step", obs.Step), zap.String("key", obs.Key), zap.Any("value", obs.Value)}
	if obs.Warning {
		c.logger.Warn("Observation deviates from expected behavior.", fields...)
		return nil
	}
	c.logger.Info("Observed.", fields...)
	return nil
}

func (c *ConsoleReporter) Captured(artifact schemas.Artifact) error {
	c.logger.Debug("Artifact recorded.",
		zap.String("step", artifact.Step),
		zap.String("name", artifact.Name),
		zap.String("scope", string(artifact.Scope)),
	)
	return nil
}

func (c *ConsoleReporter) StepFinished(result schemas.StepResult) error {
	fields := []zap.Field{
		zap.Int("step", result.Index),
		zap.String("name", result.Name),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration),
	}
	if result.Status == schemas.StepFailed {
		c.logger.Error("Step failed.", append(fields, zap.String("error", result.Error))...)
		return nil
	}
	c.logger.Info("Step finished.", fields...)
	return nil
}

func (c *ConsoleReporter) RunFinished(outcome *schemas.Outcome) error {
	if outcome.Completed() {
		c.logger.Info("All steps completed.",
			zap.String("run_id", outcome.RunID),
			zap.Int("artifacts", len(outcome.Artifacts)),
			zap.Int("warnings", len(outcome.Warnings())),
		)
	} else {
		c.logger.Error("Run failed.",
			zap.String("run_id", outcome.RunID),
			zap.String("failed_step", outcome.FailedStep),
			zap.String("error", outcome.Error),
		)
	}
	return c.writeSummary(outcome)
}

func (c *ConsoleReporter) writeSummary(outcome *schemas.Outcome) error {
	c.mu.Lock()
	dir := c.info.ArtifactDir
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("\n" + summaryRule + "\nUI Verification Summary\n" + summaryRule + "\n")
	passed := 0
	for _, step := range outcome.Steps {
		if step.Status == schemas.StepPassed {
			passed++
		}
		line := fmt.Sprintf("%-7s | %-16s | %8s", step.Status, step.Name, step.Duration.Round(time.Millisecond))
		if step.Error != "" {
			line += " | " + step.Error
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(summaryRule + "\n")
	fmt.Fprintf(&b, "Status: %s (%d/%d steps passed)\n", outcome.Status, passed, len(outcome.Steps))
	if !outcome.Completed() && outcome.FailedStep != "" {
		fmt.Fprintf(&b, "Failed at: %s\n", outcome.FailedStep)
	}
	for _, w := range outcome.Warnings() {
		fmt.Fprintf(&b, "Warning: [%s] %s = %v\n", w.Step, w.Key, w.Value)
	}
	fmt.Fprintf(&b, "Screenshots: %d saved to %s\n", len(outcome.Artifacts), dir)

	if _, err := io.WriteString(c.out, b.String()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
