// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

// Reporter receives the lifecycle events of a run. Implementations must not
// influence the run; callers log returned errors and carry on.
type Reporter interface {
	RunStarted(info schemas.RunInfo) error
	StepStarted(index int, name string) error
	Observed(obs schemas.Observation) error
	Captured(artifact schemas.Artifact) error
	StepFinished(result schemas.StepResult) error
	RunFinished(outcome *schemas.Outcome) error
}

// Supported report formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options carries the sinks the reporters write to.
type Options struct {
	Logger *zap.Logger
	// Out receives the console summary table; nil means stdout.
	Out io.Writer
	// Fs and Dir locate summary.json.
	Fs  afero.Fs
	Dir string
}

// New creates a reporter for each requested format and fans out to all of
// them.
func New(formats []string, opts Options) (Reporter, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var reporters []Reporter
	seen := make(map[string]bool)
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if seen[format] {
			continue
		}
		seen[format] = true

		switch format {
		case FormatConsole:
			reporters = append(reporters, NewConsoleReporter(opts.Logger, opts.Out))
		case FormatJSON:
			if opts.Fs == nil || opts.Dir == "" {
				return nil, fmt.Errorf("json reporter requires an output directory")
			}
			reporters = append(reporters, NewJSONReporter(opts.Fs, opts.Dir))
		default:
			return nil, fmt.Errorf("unsupported report format: %s", format)
		}
	}
	if len(reporters) == 0 {
		return nil, fmt.Errorf("at least one report format is required")
	}
	if len(reporters) == 1 {
		return reporters[0], nil
	}
	return Multi(reporters...), nil
}

type multiReporter []Reporter

// Multi forwards every event to each reporter in order. All reporters see
// every event even when one of them fails.
func Multi(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

func (m multiReporter) each(fn func(Reporter) error) error {
	var err error
	for _, r := range m {
		err = multierr.Append(err, fn(r))
	}
	return err
}

func (m multiReporter) RunStarted(info schemas.RunInfo) error {
	return m.each(func(r Reporter) error { return r.RunStarted(info) })
}

func (m multiReporter) StepStarted(index int, name string) error {
	return m.each(func(r Reporter) error { return r.StepStarted(index, name) })
}

func (m multiReporter) Observed(obs schemas.Observation) error {
	return m.each(func(r Reporter) error { return r.Observed(obs) })
}

func (m multiReporter) Captured(artifact schemas.Artifact) error {
	return m.each(func(r Reporter) error { return r.Captured(artifact) })
}

func (m multiReporter) StepFinished(result schemas.StepResult) error {
	return m.each(func(r Reporter) error { return r.StepFinished(result) })
}

func (m multiReporter) RunFinished(outcome *schemas.Outcome) error {
	return m.each(func(r Reporter) error { return r.RunFinished(outcome) })
}

// Nop discards every event.
type Nop struct{}

func (Nop) RunStarted(schemas.RunInfo) error { return nil }
func (Nop) StepStarted(int, string) error { return nil }
func (Nop) Observed(schemas.Observation) error { return nil }
func (Nop) Captured(schemas.Artifact) error { return nil }
func (Nop) StepFinished(schemas.StepResult) error { return nil }
func (Nop) RunFinished(*schemas.Outcome) error { return nil }
