package schemas_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

// TestConstants pins the values written into summary.json and manifest.json.
func TestConstants(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		constant string
		expected string
	}{
		{"RunPending", string(schemas.RunPending), "PENDING"},
		{"RunRunning", string(schemas.RunRunning), "RUNNING"},
		{"RunCompleted", string(schemas.RunCompleted), "COMPLETED"},
		{"RunFailed", string(schemas.RunFailed), "FAILED"},
		{"StepPassed", string(schemas.StepPassed), "PASSED"},
		{"StepFailed", string(schemas.StepFailed), "FAILED"},
		{"StepSkipped", string(schemas.StepSkipped), "SKIPPED"},
		{"ScopeFullPage", string(schemas.ScopeFullPage), "full-page"},
		{"ScopeViewport", string(schemas.ScopeViewport), "viewport"},
		{"ScopeElement", string(schemas.ScopeElement), "element"},
		{"NavigateStepName", schemas.NavigateStepName, "navigate"},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.constant)
		})
	}
}

// TestStructJSONTags guards the field names consumers of summary.json rely on.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Outcome",
			structRef: schemas.Outcome{},
			expectedTags: map[string]string{
				"RunID":        "run_id",
				"Status":       "status",
				"FailedStep":   "failed_step,omitempty",
				"Error":        "error,omitempty",
				"Cause":        "-",
				"Steps":        "steps",
				"Observations": "observations",
				"Artifacts":    "artifacts",
			},
		},
		{
			name:      "Artifact",
			structRef: schemas.Artifact{},
			expectedTags: map[string]string{
				"Name":     "name",
				"Path":     "path",
				"Scope":    "scope",
				"Selector": "selector,omitempty",
				"Step":     "step,omitempty",
			},
		},
		{
			name:      "Observation",
			structRef: schemas.Observation{},
			expectedTags: map[string]string{
				"Step":    "step",
				"Key":     "key",
				"Value":   "value",
				"Warning": "warning,omitempty",
			},
		},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			for fieldName, expectedTag := range tt.expectedTags {
				field, found := structType.FieldByName(fieldName)
				require.True(t, found, "Field '%s' not found in struct '%s'", fieldName, tt.name)
				assert.Equal(t, expectedTag, field.Tag.Get("json"), "JSON tag mismatch for field '%s.%s'", tt.name, fieldName)
			}
		})
	}
}

func TestRunStatusTerminal(t *testing.T) {
	assert.False(t, schemas.RunPending.Terminal())
	assert.False(t, schemas.RunRunning.Terminal())
	assert.True(t, schemas.RunCompleted.Terminal())
	assert.True(t, schemas.RunFailed.Terminal())
}

func TestOutcome(t *testing.T) {
	var nilOutcome *schemas.Outcome
	assert.False(t, nilOutcome.Completed())

	o := &schemas.Outcome{
		Status: schemas.RunCompleted,
		Observations: []schemas.Observation{
			{Step: "layout", Key: "layout.fits", Value: false, Warning: true},
			{Step: "layout", Key: "layout", Value: "ok"},
		},
	}
	assert.True(t, o.Completed())
	require.Len(t, o.Warnings(), 1)
	assert.Equal(t, "layout.fits", o.Warnings()[0].Key)
}

func TestLayout(t *testing.T) {
	l := schemas.Layout{
		ViewportWidth: 1920,
		Panes: []schemas.Pane{
			{Selector: ".left-pane", Width: 480, Present: true},
			{Selector: ".middle-pane", Width: 864, Present: true},
			{Selector: ".right-pane", Width: 576, Present: true},
		},
	}
	assert.Equal(t, 1920, l.PaneTotal())
	assert.True(t, l.Fits())
	assert.Equal(t, 864, l.Width(".middle-pane"))
	assert.Zero(t, l.Width(".missing"))

	l.Panes[2].Width = 600
	assert.False(t, l.Fits())
}

func TestElementHidden(t *testing.T) {
	assert.True(t, schemas.Element{Display: "none"}.Hidden())
	assert.False(t, schemas.Element{Display: "block"}.Hidden())
	assert.False(t, schemas.Element{}.Hidden(), "no inline display means visible")
}
