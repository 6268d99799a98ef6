package qkernel

/*
Circuit is an immutable sequence of gates over a fixed qubit register,
optionally terminated by a full measurement into a same-sized classical
register. All composition methods return new circuit values; nothing is
mutated in place, so circuits built for a batch can be constructed and
executed concurrently without aliasing.
*/
type Circuit struct {
	qubits   int
	gates    []Gate
	measured bool
}

// NewCircuit creates an empty circuit over the given number of qubits.
func NewCircuit(qubits int) Circuit {
	return Circuit{qubits: qubits}
}

// Qubits returns the register width.
func (c Circuit) Qubits() int { return c.qubits }

// Measured reports whether the circuit ends in a full measurement.
func (c Circuit) Measured() bool { return c.measured }

// Depth returns the number of gates. A crude proxy for true circuit depth,
// but sufficient for capacity checks and optimizer accounting.
func (c Circuit) Depth() int { return len(c.gates) }

// Gates returns a copy of the gate sequence.
func (c Circuit) Gates() []Gate {
	out := make([]Gate, len(c.gates))
	for i, g := range c.gates {
		out[i] = g.clone()
	}
	return out
}

// Append returns a new circuit with the given gates added at the end.
func (c Circuit) Append(gates ...Gate) Circuit {
	out := c.copyGates(len(c.gates) + len(gates))
	for _, g := range gates {
		out.gates = append(out.gates, g.clone())
	}
	return out
}

// Compose returns a new circuit running c first and then other. Both
// circuits must share the same register width.
func (c Circuit) Compose(other Circuit) Circuit {
	out := c.copyGates(len(c.gates) + len(other.gates))
	for _, g := range other.gates {
		out.gates = append(out.gates, g.clone())
	}
	return out
}

// Inverse returns the structural inverse: every gate replaced by its
// dagger, in reflected order. Measurement flags do not survive inversion.
func (c Circuit) Inverse() Circuit {
	out := Circuit{qubits: c.qubits, gates: make([]Gate, 0, len(c.gates))}
	for i := len(c.gates) - 1; i >= 0; i-- {
		out.gates = append(out.gates, c.gates[i].Dagger())
	}
	return out
}

// MeasureAll returns a new circuit terminated by a full measurement of
// every qubit into a same-sized outcome register.
func (c Circuit) MeasureAll() Circuit {
	out := c.copyGates(len(c.gates))
	out.measured = true
	return out
}

func (c Circuit) copyGates(capacity int) Circuit {
	out := Circuit{qubits: c.qubits, measured: c.measured}
	out.gates = make([]Gate, 0, capacity)
	for _, g := range c.gates {
		out.gates = append(out.gates, g.clone())
	}
	return out
}
