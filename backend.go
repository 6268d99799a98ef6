package qkernel

import (
	"context"
	"sort"
)

/*
Backend is a compute target that executes circuit batches and returns
measurement outcome distributions in submission order. A backend is
resolved once per pipeline run, before any circuits are built, and held
for the duration of the run. Unless a backend documents concurrent-job
support, treat it as a resource requiring serialized access.
*/
type Backend interface {
	// Name identifies the backend for logging and artifact naming.
	Name() string

	// Qubits returns the register capacity.
	Qubits() int

	// Operational reports whether the backend currently accepts jobs.
	Operational() bool

	// PendingJobs returns the current queue length. Simulators report 0.
	PendingJobs() int

	// IsSimulator reports whether outcomes are exact rather than sampled.
	IsSimulator() bool

	// MaxBatchSize returns the largest batch the backend accepts in one
	// submission, or 0 for unlimited.
	MaxBatchSize() int

	// Execute runs an ordered batch with the given shot count and returns
	// one distribution per circuit, in submission order. Simulators may
	// ignore shots and return exact probabilities. Execute either returns
	// a full result set or an error; partial results are never returned.
	Execute(ctx context.Context, batch ExecutionBatch, shots int) ([]OutcomeDistribution, error)
}

// Provider lists candidate backends, typically by querying a remote
// account or a local registry.
type Provider interface {
	Backends(ctx context.Context) ([]Backend, error)
}

/*
LeastBusy filters candidates to operational backends with at least
minQubits qubits and returns the one with the fewest pending jobs. Ties
break on name so selection is deterministic. Returns
NoAvailableBackendError when nothing qualifies; the caller decides whether
to re-poll or fall back to simulation.
*/
func LeastBusy(candidates []Backend, minQubits int) (Backend, error) {
	qualified := make([]Backend, 0, len(candidates))
	for _, b := range candidates {
		if b.Operational() && b.Qubits() >= minQubits {
			qualified = append(qualified, b)
		}
	}
	if len(qualified) == 0 {
		return nil, &NoAvailableBackendError{MinQubits: minQubits, Candidates: len(candidates)}
	}

	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].PendingJobs() != qualified[j].PendingJobs() {
			return qualified[i].PendingJobs() < qualified[j].PendingJobs()
		}
		return qualified[i].Name() < qualified[j].Name()
	})
	return qualified[0], nil
}

// Registry is an in-process Provider over statically registered backends.
type Registry struct {
	backends map[string]Backend
	order    []string
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend under its own name, replacing any previous
// registration with that name.
func (r *Registry) Register(b Backend) {
	if _, exists := r.backends[b.Name()]; !exists {
		r.order = append(r.order, b.Name())
	}
	r.backends[b.Name()] = b
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Backends implements Provider, returning backends in registration order.
func (r *Registry) Backends(ctx context.Context) ([]Backend, error) {
	out := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.backends[name])
	}
	return out, nil
}
