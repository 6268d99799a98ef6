package qkernel

import (
	"fmt"
	"math"

	"github.com/rs/xid"
)

// ExecutionBatch is an ordered sequence of circuits submitted together.
// Ordering is preserved end-to-end: results are positionally matched back
// to the circuits that produced them.
type ExecutionBatch struct {
	ID       string
	Circuits []Circuit
}

// NewExecutionBatch wraps circuits in a batch with a fresh identifier.
func NewExecutionBatch(circuits []Circuit) ExecutionBatch {
	return ExecutionBatch{ID: xid.New().String(), Circuits: circuits}
}

// Len returns the number of circuits in the batch.
func (b ExecutionBatch) Len() int { return len(b.Circuits) }

// slice returns a sub-batch over [from, to) that keeps the parent ID, so
// chunked submissions remain attributable to one logical batch.
func (b ExecutionBatch) slice(from, to int) ExecutionBatch {
	return ExecutionBatch{ID: b.ID, Circuits: b.Circuits[from:to]}
}

/*
OutcomeDistribution holds the measurement statistics for one executed
circuit: occurrence counts under finite shots, or exact probabilities from
a statevector backend. Exactly one of the two maps is populated.
*/
type OutcomeDistribution struct {
	Counts map[string]int
	Probs  map[string]float64
	Shots  int
}

// Exact reports whether the distribution carries exact probabilities.
func (d OutcomeDistribution) Exact() bool { return d.Probs != nil }

// Probability returns the estimated probability of one outcome key. An
// absent key estimates to zero, the plain frequency estimator.
func (d OutcomeDistribution) Probability(key string) float64 {
	if d.Exact() {
		return d.Probs[key]
	}
	if d.Shots == 0 {
		return 0
	}
	return float64(d.Counts[key]) / float64(d.Shots)
}

// Validate checks the distribution invariants: counts sum to the shot
// count, or probabilities sum to 1 within tolerance.
func (d OutcomeDistribution) Validate(tol float64) error {
	if d.Exact() {
		total := 0.0
		for _, p := range d.Probs {
			total += p
		}
		if math.Abs(total-1) > tol {
			return fmt.Errorf("probabilities sum to %g, want 1 within %g", total, tol)
		}
		return nil
	}
	total := 0
	for _, c := range d.Counts {
		total += c
	}
	if total != d.Shots {
		return fmt.Errorf("counts sum to %d, want %d shots", total, d.Shots)
	}
	return nil
}
