package schemas

import (
	"time"
)

// RunStatus is the state of a verification run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// StepStatus is the result of a single step.
type StepStatus string

const (
	StepPassed  StepStatus = "PASSED"
	StepFailed  StepStatus = "FAILED"
	StepSkipped StepStatus = "SKIPPED"
)

// ArtifactScope describes what region of the page a screenshot covers.
type ArtifactScope string

const (
	ScopeFullPage ArtifactScope = "full-page"
	ScopeViewport ArtifactScope = "viewport"
	ScopeElement  ArtifactScope = "element"
)

// NavigateStepName attributes failures that happen before the first step.
const NavigateStepName = "navigate"

// -- Run Schemas --

// Viewport is the fixed window size of the run.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	ID          string    `json:"id"`
	TargetURL   string    `json:"target_url"`
	Viewport    Viewport  `json:"viewport"`
	ArtifactDir string    `json:"artifact_dir"`
	Steps       []string  `json:"steps"`
	StartedAt   time.Time `json:"started_at"`
}

// Artifact is a screenshot written during the run. Artifacts are append-only.
type Artifact struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Scope      ArtifactScope `json:"scope"`
	Selector   string        `json:"selector,omitempty"`
	Step       string        `json:"step,omitempty"`
	Bytes      int           `json:"bytes"`
	CapturedAt time.Time     `json:"captured_at"`
}

// Observation is a soft fact recorded by a step. Observations never change
// control flow.
type Observation struct {
	Step  string      `json:"step"`
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	// Warning marks an observation that deviates from the expected application behavior.
	Warning bool      `json:"warning,omitempty"`
	At      time.Time `json:"at"`
}

// Option is one choice of a select control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Dimensions are the three numeric fields read after a type selection.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DownloadLink is an artifact URL exposed by the application.
type DownloadLink struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	MatchesType bool   `json:"matches_type"`
}

// StepResult records how one step ended.
type StepResult struct {
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Status    StepStatus    `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Outcome is the terminal result of a run: Completed, or Failed at a named
// step with its cause.
type Outcome struct {
	RunID        string        `json:"run_id"`
	Status       RunStatus     `json:"status"`
	FailedStep   string        `json:"failed_step,omitempty"`
	Error        string        `json:"error,omitempty"`
	Cause        error         `json:"-"`
	Steps        []StepResult  `json:"steps"`
	Observations []Observation `json:"observations"`
	Artifacts    []Artifact    `json:"artifacts"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// Completed reports whether every step passed.
func (o *Outcome) Completed() bool {
	return o != nil && o.Status == RunCompleted
}

// Warnings returns the observations flagged as deviations.
func (o *Outcome) Warnings() []Observation {
	var out []Observation
	for _, obs := range o.Observations {
		if obs.Warning {
			out = append(out, obs)
		}
	}
	return out
}
