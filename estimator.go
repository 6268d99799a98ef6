package qkernel

import (
	"context"
	"fmt"
	"log"
	"math"
)

/*
KernelEstimator turns pairs of feature vectors into a Gram matrix of
fidelity estimates. For every ordered pair it builds one overlap-test
circuit, dispatches the full cross product as a single (internally
chunked) batch, and reads each fidelity off as the observed probability of
the all-zero outcome string.

Identical pairs inside one call are not deduplicated and nothing is cached
across calls; with finite shots each entry carries statistical error of
roughly sqrt(p(1-p)/shots), and choosing shots for the target precision is
the caller's job.
*/
type KernelEstimator struct {
	builder    *FidelityCircuitBuilder
	dispatcher *Dispatcher
}

// NewKernelEstimator creates an estimator over one feature map and one
// resolved dispatcher.
func NewKernelEstimator(fm *FeatureMap, d *Dispatcher) *KernelEstimator {
	return &KernelEstimator{
		builder:    NewFidelityCircuitBuilder(fm),
		dispatcher: d,
	}
}

/*
Estimate returns the |X1| x |X2| matrix of pairwise fidelity estimates.
Circuits are built in row-major order (X1 outer, X2 inner) and results are
reshaped back in the same order, so entry (i, j) always corresponds to the
pair (X1[i], X2[j]). Every entry is clipped into [0, 1]; out-of-range raw
estimates are logged and counted as numeric anomalies but do not fail the
call.
*/
func (e *KernelEstimator) Estimate(ctx context.Context, x1, x2 []FeatureVector, shots int) (*KernelMatrix, error) {
	if len(x1) == 0 || len(x2) == 0 {
		return nil, fmt.Errorf("kernel estimation needs non-empty sample sets, got %d x %d", len(x1), len(x2))
	}

	circuits := make([]Circuit, 0, len(x1)*len(x2))
	for _, x := range x1 {
		for _, y := range x2 {
			c, err := e.builder.Build(x, y)
			if err != nil {
				return nil, err
			}
			circuits = append(circuits, c)
		}
	}

	results, err := e.dispatcher.Dispatch(ctx, NewExecutionBatch(circuits), shots)
	if err != nil {
		return nil, err
	}

	zero := AllZeroKey(e.builder.Qubits())
	data := make([]float64, len(results))
	for i, dist := range results {
		data[i] = dist.Probability(zero)
	}

	k := NewKernelMatrix(len(x1), len(x2), data)
	e.clipWithAdvisory(k)
	return k, nil
}

/*
EstimateSymmetric computes Estimate(X, X) at roughly half the circuit
count by exploiting symmetry: fidelity is symmetric in its arguments, so
only the upper triangle is executed and each off-diagonal estimate is
mirrored. Diagonal entries are still measured rather than assumed to be 1,
so backend noise stays visible.
*/
func (e *KernelEstimator) EstimateSymmetric(ctx context.Context, x []FeatureVector, shots int) (*KernelMatrix, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("kernel estimation needs a non-empty sample set")
	}

	type slot struct{ row, col int }

	circuits := make([]Circuit, 0, len(x)*(len(x)+1)/2)
	slots := make([]slot, 0, cap(circuits))
	for i := range x {
		for j := i; j < len(x); j++ {
			c, err := e.builder.Build(x[i], x[j])
			if err != nil {
				return nil, err
			}
			circuits = append(circuits, c)
			slots = append(slots, slot{row: i, col: j})
		}
	}

	results, err := e.dispatcher.Dispatch(ctx, NewExecutionBatch(circuits), shots)
	if err != nil {
		return nil, err
	}

	zero := AllZeroKey(e.builder.Qubits())
	k := NewKernelMatrix(len(x), len(x), nil)
	for i, dist := range results {
		p := dist.Probability(zero)
		k.Set(slots[i].row, slots[i].col, p)
		k.Set(slots[i].col, slots[i].row, p)
	}

	e.clipWithAdvisory(k)
	return k, nil
}

func (e *KernelEstimator) clipWithAdvisory(k *KernelMatrix) {
	if clipped := k.Clip(); clipped > 0 {
		e.dispatcher.Metrics().recordAnomalies(int64(clipped))
		log.Printf("kernel estimate: clipped %d entries outside [0,1]", clipped)
	}
}

// ShotNoise returns the binomial standard error sqrt(p(1-p)/shots) of a
// fidelity point estimate p under the given shot count. Exposed so callers
// can budget shots instead of the estimator silently collapsing noise into
// point values.
func ShotNoise(p float64, shots int) float64 {
	if shots <= 0 {
		return 0
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return math.Sqrt(p * (1 - p) / float64(shots))
}
