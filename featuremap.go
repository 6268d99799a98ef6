package qkernel

import "math"

// FeatureVector is an ordered sequence of real-valued features. Its length
// must equal the qubit count of the feature map it is bound to.
type FeatureVector []float64

/*
FeatureMap deterministically maps feature vectors onto state-preparation
programs. The template is fixed at construction: one layer of Hadamards and
single-qubit RZ rotations by twice each feature value, followed by pairwise
ZZ entangling terms whose angles are products of the two participating
features. The same template is used for every call, so state overlap is
well-defined across samples.
*/
type FeatureMap struct {
	qubits int
	reps   int
}

// NewFeatureMap creates a feature map over the given number of qubits with
// the template repeated reps times. reps < 1 is coerced to 1.
func NewFeatureMap(qubits, reps int) *FeatureMap {
	if reps < 1 {
		reps = 1
	}
	return &FeatureMap{qubits: qubits, reps: reps}
}

// Qubits returns the encoding dimensionality.
func (fm *FeatureMap) Qubits() int { return fm.qubits }

// Program returns the immutable encoding program owned by this map.
func (fm *FeatureMap) Program() EncodingProgram {
	return EncodingProgram{qubits: fm.qubits, reps: fm.reps}
}

// Encode binds a feature vector to the map's program, returning the bound
// state-preparation circuit. Fails fast with DimensionMismatchError before
// any backend is involved.
func (fm *FeatureMap) Encode(x FeatureVector) (Circuit, error) {
	return fm.Program().Bind(x)
}

/*
EncodingProgram is the parameterised description of the state preparation.
It holds no per-sample state; Bind instantiates it with concrete feature
values, yielding a transient bound circuit.
*/
type EncodingProgram struct {
	qubits int
	reps   int
}

// Qubits returns the register width the program prepares.
func (p EncodingProgram) Qubits() int { return p.qubits }

// Bind instantiates the program with a concrete feature vector. Pure: the
// same vector always yields an identical circuit.
func (p EncodingProgram) Bind(x FeatureVector) (Circuit, error) {
	if len(x) != p.qubits {
		return Circuit{}, &DimensionMismatchError{Want: p.qubits, Got: len(x)}
	}

	c := NewCircuit(p.qubits)
	for rep := 0; rep < p.reps; rep++ {
		for i := 0; i < p.qubits; i++ {
			c = c.Append(hadamard(i), rotation(GateRZ, i, 2*x[i]))
		}
		// ZZ interaction terms, one per unordered qubit pair. The CX
		// conjugation turns the RZ on the target into exp(-i θ/2 Z⊗Z).
		for i := 0; i < p.qubits; i++ {
			for j := i + 1; j < p.qubits; j++ {
				theta := 2 * (math.Pi - x[i]) * (math.Pi - x[j])
				c = c.Append(cnot(i, j), rotation(GateRZ, j, theta), cnot(i, j))
			}
		}
	}
	return c, nil
}

/*
FidelityCircuitBuilder composes overlap-test circuits: prepare the state
for x, apply the inverse preparation for y, measure every qubit. For equal
inputs the ideal all-zero outcome probability is exactly 1, which anchors
the estimator's correctness.
*/
type FidelityCircuitBuilder struct {
	program EncodingProgram
}

// NewFidelityCircuitBuilder creates a builder over the map's program.
func NewFidelityCircuitBuilder(fm *FeatureMap) *FidelityCircuitBuilder {
	return &FidelityCircuitBuilder{program: fm.Program()}
}

// Qubits returns the register width of the circuits the builder produces.
func (b *FidelityCircuitBuilder) Qubits() int { return b.program.qubits }

// Build returns a fresh fidelity circuit for the ordered pair (x, y).
// Distinct pairs never share a circuit value, even when x == y.
func (b *FidelityCircuitBuilder) Build(x, y FeatureVector) (Circuit, error) {
	forward, err := b.program.Bind(x)
	if err != nil {
		return Circuit{}, err
	}
	backward, err := b.program.Bind(y)
	if err != nil {
		return Circuit{}, err
	}
	return forward.Compose(backward.Inverse()).MeasureAll(), nil
}
