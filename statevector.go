package qkernel

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
)

/*
Statevector holds the dense complex amplitudes of an n-qubit register.
Qubit 0 maps to the least-significant bit of the amplitude index; outcome
keys render the register MSB-first, so qubit n-1 appears leftmost.
*/
type Statevector struct {
	qubits int
	amps   []complex128
}

// NewStatevector prepares |0...0> over the given number of qubits.
func NewStatevector(qubits int) *Statevector {
	sv := &Statevector{
		qubits: qubits,
		amps:   make([]complex128, 1<<qubits),
	}
	sv.amps[0] = 1
	return sv
}

// Qubits returns the register width.
func (sv *Statevector) Qubits() int { return sv.qubits }

// Run applies every gate of the circuit in order.
func (sv *Statevector) Run(c Circuit) error {
	if c.Qubits() != sv.qubits {
		return fmt.Errorf("circuit register width %d does not match statevector width %d",
			c.Qubits(), sv.qubits)
	}
	for _, g := range c.Gates() {
		if err := sv.apply(g); err != nil {
			return err
		}
	}
	return nil
}

func (sv *Statevector) apply(g Gate) error {
	switch g.Name {
	case GateH:
		sv.applySingle(g.Qubits[0], hMatrix())
	case GateRX:
		sv.applySingle(g.Qubits[0], rxMatrix(g.Theta))
	case GateRY:
		sv.applySingle(g.Qubits[0], ryMatrix(g.Theta))
	case GateRZ:
		sv.applySingle(g.Qubits[0], rzMatrix(g.Theta))
	case GateCX:
		sv.applyCX(g.Qubits[0], g.Qubits[1])
	case GateCZ:
		sv.applyCZ(g.Qubits[0], g.Qubits[1])
	default:
		return fmt.Errorf("unsupported gate %q", g.Name)
	}
	return nil
}

// applySingle applies a 2x2 unitary to one qubit across all amplitude pairs.
func (sv *Statevector) applySingle(qubit int, u [2][2]complex128) {
	mask := 1 << qubit
	for i := range sv.amps {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a0, a1 := sv.amps[i], sv.amps[j]
		sv.amps[i] = u[0][0]*a0 + u[0][1]*a1
		sv.amps[j] = u[1][0]*a0 + u[1][1]*a1
	}
}

func (sv *Statevector) applyCX(control, target int) {
	cMask := 1 << control
	tMask := 1 << target
	for i := range sv.amps {
		if i&cMask != 0 && i&tMask == 0 {
			j := i | tMask
			sv.amps[i], sv.amps[j] = sv.amps[j], sv.amps[i]
		}
	}
}

func (sv *Statevector) applyCZ(control, target int) {
	cMask := 1 << control
	tMask := 1 << target
	for i := range sv.amps {
		if i&cMask != 0 && i&tMask != 0 {
			sv.amps[i] = -sv.amps[i]
		}
	}
}

// Probability returns the exact probability of measuring the basis state
// with the given amplitude index.
func (sv *Statevector) Probability(index int) float64 {
	if index < 0 || index >= len(sv.amps) {
		return 0
	}
	m := cmplx.Abs(sv.amps[index])
	return m * m
}

// Probabilities returns the full outcome distribution, keyed by MSB-first
// bitstrings. Entries below numerical noise are omitted.
func (sv *Statevector) Probabilities() map[string]float64 {
	const floor = 1e-15
	probs := make(map[string]float64)
	for i := range sv.amps {
		if p := sv.Probability(i); p > floor {
			probs[sv.key(i)] = p
		}
	}
	return probs
}

/*
Sample draws shot measurement outcomes from the current state using the
cumulative-probability collapse: a uniform draw walks the cumulative
distribution and collapses to the first state whose running total covers it.
*/
func (sv *Statevector) Sample(shots int, rng *rand.Rand) map[string]int {
	cumulative := make([]float64, len(sv.amps))
	total := 0.0
	for i := range sv.amps {
		total += sv.Probability(i)
		cumulative[i] = total
	}

	counts := make(map[string]int)
	for s := 0; s < shots; s++ {
		r := rng.Float64() * total
		idx := len(sv.amps) - 1
		for i, threshold := range cumulative {
			if r <= threshold {
				idx = i
				break
			}
		}
		counts[sv.key(idx)]++
	}
	return counts
}

// key renders an amplitude index as an MSB-first bitstring.
func (sv *Statevector) key(index int) string {
	buf := make([]byte, sv.qubits)
	for q := 0; q < sv.qubits; q++ {
		if index&(1<<q) != 0 {
			buf[sv.qubits-1-q] = '1'
		} else {
			buf[sv.qubits-1-q] = '0'
		}
	}
	return string(buf)
}

// AllZeroKey returns the outcome key for the all-zero basis state of an
// n-qubit register.
func AllZeroKey(qubits int) string {
	buf := make([]byte, qubits)
	for i := range buf {
		buf[i] = '0'
	}
	return string(buf)
}

func hMatrix() [2][2]complex128 {
	s := complex(1/math.Sqrt2, 0)
	return [2][2]complex128{{s, s}, {s, -s}}
}

func rxMatrix(theta float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return [2][2]complex128{{c, s}, {s, c}}
}

func ryMatrix(theta float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return [2][2]complex128{{c, -s}, {s, c}}
}

func rzMatrix(theta float64) [2][2]complex128 {
	return [2][2]complex128{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}
