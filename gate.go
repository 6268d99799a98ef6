package qkernel

import "fmt"

// GateName identifies an elementary operation in the native set.
type GateName string

const (
	GateH  GateName = "h"
	GateRX GateName = "rx"
	GateRY GateName = "ry"
	GateRZ GateName = "rz"
	GateCX GateName = "cx"
	GateCZ GateName = "cz"
)

// Gate is one elementary operation: a name, the qubits it acts on, and an
// optional rotation angle. Gates are value types; circuits copy them rather
// than share them.
type Gate struct {
	Name   GateName
	Qubits []int
	Theta  float64
}

func rotation(name GateName, qubit int, theta float64) Gate {
	return Gate{Name: name, Qubits: []int{qubit}, Theta: theta}
}

func hadamard(qubit int) Gate {
	return Gate{Name: GateH, Qubits: []int{qubit}}
}

func cnot(control, target int) Gate {
	return Gate{Name: GateCX, Qubits: []int{control, target}}
}

// Dagger returns the inverse of the gate. H, CX and CZ are self-inverse;
// rotations invert by negating the angle.
func (g Gate) Dagger() Gate {
	inv := g.clone()
	switch g.Name {
	case GateRX, GateRY, GateRZ:
		inv.Theta = -g.Theta
	}
	return inv
}

func (g Gate) clone() Gate {
	qubits := make([]int, len(g.Qubits))
	copy(qubits, g.Qubits)
	return Gate{Name: g.Name, Qubits: qubits, Theta: g.Theta}
}

func (g Gate) String() string {
	switch g.Name {
	case GateRX, GateRY, GateRZ:
		return fmt.Sprintf("%s(%g) %v", g.Name, g.Theta, g.Qubits)
	default:
		return fmt.Sprintf("%s %v", g.Name, g.Qubits)
	}
}

// isRotation reports whether the gate carries a continuous parameter.
func (g Gate) isRotation() bool {
	switch g.Name {
	case GateRX, GateRY, GateRZ:
		return true
	}
	return false
}

// equalInverse reports whether applying b directly after a is the identity.
// Used by the optimizer's cancellation pass.
func equalInverse(a, b Gate) bool {
	if a.Name != b.Name || len(a.Qubits) != len(b.Qubits) {
		return false
	}
	for i := range a.Qubits {
		if a.Qubits[i] != b.Qubits[i] {
			return false
		}
	}
	if a.isRotation() {
		return a.Theta == -b.Theta
	}
	// Self-inverse gates cancel when repeated on the same qubits.
	return true
}
