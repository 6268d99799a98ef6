package qkernel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
)

/*
Simulator is an in-process statevector Backend. In exact mode it returns
full outcome probability distributions and ignores the shot count; in
sampling mode it draws finite-shot counts from the exact distribution,
which is useful for rehearsing hardware estimation without queue time.

Batches fan out across a fixed set of workers. Results land in a
positionally indexed slice, so parallel execution cannot reorder them.
*/
type Simulator struct {
	name    string
	qubits  int
	workers int
	seed    uint64
	sample  bool
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSampling makes the simulator draw finite-shot counts, seeded for
// reproducibility, instead of returning exact probabilities.
func WithSampling(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.sample = true
		s.seed = seed
	}
}

// WithWorkers sets the number of concurrent circuit evaluations per batch.
func WithWorkers(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSimulator creates a statevector simulator with the given register
// capacity.
func NewSimulator(qubits int, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		name:    "statevector-sim",
		qubits:  qubits,
		workers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Name() string      { return s.name }
func (s *Simulator) Qubits() int       { return s.qubits }
func (s *Simulator) Operational() bool { return true }
func (s *Simulator) PendingJobs() int  { return 0 }
func (s *Simulator) IsSimulator() bool { return !s.sample }
func (s *Simulator) MaxBatchSize() int { return 0 }

// Execute simulates every circuit in the batch and returns one
// distribution per circuit, in submission order. Either all circuits
// succeed or an error is returned with no results.
func (s *Simulator) Execute(ctx context.Context, batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
	for i, c := range batch.Circuits {
		if c.Qubits() > s.qubits {
			return nil, fmt.Errorf("circuit %d needs %d qubits, simulator has %d", i, c.Qubits(), s.qubits)
		}
	}

	results := make([]OutcomeDistribution, batch.Len())
	errs := make([]error, batch.Len())
	indices := make(chan int)

	var wg sync.WaitGroup
	workers := s.workers
	if workers > batch.Len() {
		workers = batch.Len()
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i], errs[i] = s.runOne(batch.Circuits[i], i, shots)
			}
		}()
	}

feed:
	for i := range batch.Circuits {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
	}
	return results, nil
}

func (s *Simulator) runOne(c Circuit, index, shots int) (OutcomeDistribution, error) {
	sv := NewStatevector(c.Qubits())
	if err := sv.Run(c); err != nil {
		return OutcomeDistribution{}, err
	}

	if !s.sample {
		return OutcomeDistribution{Probs: sv.Probabilities()}, nil
	}

	if shots <= 0 {
		return OutcomeDistribution{}, fmt.Errorf("sampling mode requires a positive shot count, got %d", shots)
	}
	// Per-circuit stream keyed on the batch index keeps sampling
	// reproducible regardless of worker interleaving.
	rng := rand.New(rand.NewPCG(s.seed, uint64(index)))
	return OutcomeDistribution{
		Counts: sv.Sample(shots, rng),
		Shots:  shots,
	}, nil
}
