// internal/scenario/errors.go
package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrAssertion marks a fatal check on page state that did not hold.
	ErrAssertion = errors.New("assertion failed")
	// ErrPanic marks a step that panicked.
	ErrPanic = errors.New("step panicked")
	// ErrAlreadyRun is returned when a sequencer is asked to run twice.
	ErrAlreadyRun = errors.New("sequencer has already run")

	errSkipped = errors.New("step skipped")
)

// StepError attributes a failure to the step it happened in. Index 0 is the
// navigation that precedes the first step.
type StepError struct {
	Step  string
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// assertionf builds an ErrAssertion with a formatted explanation.
func assertionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

// Skip ends the current step without failing the run. The step is reported
// as skipped with reason.
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", errSkipped, reason)
}
