package tripflow

import (
	"fmt"
)

// StageError wraps an error thrown by a stage handler. Stage errors are
// recorded in the planning state and never escape the executor: the run
// continues with the next stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// InitializationError indicates the initial planning state could not be
// constructed, e.g. from a malformed request. The run aborts immediately with
// no stages attempted.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed: %s", e.Err.Error())
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates a checkpoint or audit write failed. It is
// surfaced as a warning alongside the computed result rather than masking a
// successful plan.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %s", e.Op, e.Err.Error())
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
