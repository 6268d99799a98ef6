package qkernel

import (
	"errors"
	"fmt"
)

// DimensionMismatchError reports a feature vector whose length disagrees
// with the configured qubit count. It is fatal: the input is malformed and
// is never padded or truncated.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d features, got %d", e.Want, e.Got)
}

// NoAvailableBackendError reports that no candidate device passed the
// capacity/operational filter. The condition is retryable by re-polling,
// but the pipeline performs no automatic retry.
type NoAvailableBackendError struct {
	MinQubits  int
	Candidates int
}

func (e *NoAvailableBackendError) Error() string {
	return fmt.Sprintf("no available backend: none of %d candidates are operational with >= %d qubits",
		e.Candidates, e.MinQubits)
}

// ExecutionFailedError reports a batch that was rejected, disconnected, or
// timed out mid-flight. Received counts the distributions that had arrived
// before the failure; they are reported but never exposed, so the caller
// either observes the whole batch or none of it.
type ExecutionFailedError struct {
	Batch    string
	Received int
	Expected int
	Err      error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution failed for batch %s (%d/%d results received): %v",
		e.Batch, e.Received, e.Expected, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// IsRetryable reports whether err represents a condition the caller may
// reasonably resubmit or re-poll. Dimension mismatches are not retryable;
// the input itself is wrong.
func IsRetryable(err error) bool {
	var dim *DimensionMismatchError
	return err != nil && !errors.As(err, &dim)
}
