// internal/reporting/json.go
package reporting

import (
	"fmt"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SummaryFile is written into the artifact directory when the run ends.
const SummaryFile = "summary.json"

// Summary is the document written by JSONReporter.
type Summary struct {
	Run     schemas.RunInfo  `json:"run"`
	Outcome *schemas.Outcome `json:"outcome"`
}

// JSONReporter buffers run information and writes summary.json once the run
// has finished.
type JSONReporter struct {
	fs  afero.Fs
	dir string

	mu   sync.Mutex
	info schemas.RunInfo
}

// NewJSONReporter creates a JSONReporter writing into dir on fs.
func NewJSONReporter(fs afero.Fs, dir string) *JSONReporter {
	return &JSONReporter{fs: fs, dir: dir}
}

// Path returns the location of the summary file.
func (j *JSONReporter) Path() string {
	return filepath.Join(j.dir, SummaryFile)
}

func (j *JSONReporter) RunStarted(info schemas.RunInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.info = info
	return nil
}

func (j *JSONReporter) StepStarted(int, string) error { return nil }
func (j *JSONReporter) Observed(schemas.Observation) error { return nil }
func (j *JSONReporter) Captured(schemas.Artifact) error { return nil }
func (j *JSONReporter) StepFinished(schemas.StepResult) error { return nil }

// RunFinished writes the summary. The outcome already carries every step,
// observation and artifact.
func (j *JSONReporter) RunFinished(outcome *schemas.Outcome) error {
	j.mu.Lock()
	summary := Summary{Run: j.info, Outcome: outcome}
	j.mu.Unlock()

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	if err := j.fs.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory %s: %w", j.dir, err)
	}
	if err := afero.WriteFile(j.fs, j.Path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary %s: %w", j.Path(), err)
	}
	return nil
}
