package qkernel

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Dispatcher owns the path between built circuits and a resolved Backend:
it lowers circuits into backend-executable form at a configured
optimization level, splits oversized batches into ordered chunks, gates
submissions through a rate limiter, and stitches the per-chunk results
back into one positionally matched sequence.

A dispatcher holds exactly one backend for its lifetime; swapping compute
targets mid-run is deliberately impossible.
*/
type Dispatcher struct {
	backend Backend
	level   int
	limiter *RateLimiter
	metrics *Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithOptimizationLevel sets the circuit optimization intensity (0-2).
func WithOptimizationLevel(level int) DispatcherOption {
	return func(d *Dispatcher) {
		if level >= 0 && level <= 2 {
			d.level = level
		}
	}
}

// WithRateLimiter gates chunk submissions through the given limiter.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) { d.limiter = rl }
}

// WithMetrics attaches a metrics collector to the dispatcher.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher bound to one backend.
func NewDispatcher(backend Backend, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		level:   1,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend returns the compute target the dispatcher is bound to.
func (d *Dispatcher) Backend() Backend { return d.backend }

// Metrics returns the dispatcher's metrics collector.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

/*
Optimize transforms a circuit into an equivalent, backend-executable form.
Level 0 leaves the circuit untouched, level 1 drops rotations whose angle
is numerically zero, level 2 additionally cancels adjacent inverse gate
pairs until a fixpoint. Every pass is run to fixpoint, so applying
Optimize twice yields the same executable form.
*/
func (d *Dispatcher) Optimize(c Circuit) Circuit {
	if d.level == 0 {
		return c
	}

	gates := c.Gates()
	gates = dropNullRotations(gates)
	if d.level >= 2 {
		for {
			reduced, changed := cancelAdjacentInverses(gates)
			gates = reduced
			if !changed {
				break
			}
			gates = dropNullRotations(gates)
		}
	}

	out := NewCircuit(c.Qubits()).Append(gates...)
	if c.Measured() {
		out = out.MeasureAll()
	}
	return out
}

const nullAngle = 1e-12

func dropNullRotations(gates []Gate) []Gate {
	out := gates[:0]
	for _, g := range gates {
		if g.isRotation() && math.Abs(g.Theta) < nullAngle {
			continue
		}
		out = append(out, g)
	}
	return out
}

func cancelAdjacentInverses(gates []Gate) ([]Gate, bool) {
	out := make([]Gate, 0, len(gates))
	changed := false
	for i := 0; i < len(gates); i++ {
		if i+1 < len(gates) && equalInverse(gates[i], gates[i+1]) {
			i++ // Skip both gates of the cancelling pair.
			changed = true
			continue
		}
		out = append(out, gates[i])
	}
	return out, changed
}

/*
Dispatch optimizes and executes an ordered batch, returning one outcome
distribution per circuit in submission order. The batch is chunked to the
backend's maximum submission size; chunk boundaries never reorder results.
Failures surface as ExecutionFailedError with no partial results: the
caller either consumes the whole batch or resubmits it.
*/
func (d *Dispatcher) Dispatch(ctx context.Context, batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
	d.metrics.recordBatch()

	optimized := make([]Circuit, batch.Len())
	for i, c := range batch.Circuits {
		optimized[i] = d.Optimize(c)
	}
	prepared := ExecutionBatch{ID: batch.ID, Circuits: optimized}

	chunk := d.backend.MaxBatchSize()
	if chunk <= 0 || chunk > prepared.Len() {
		chunk = prepared.Len()
	}

	results := make([]OutcomeDistribution, 0, prepared.Len())
	for from := 0; from < prepared.Len(); from += chunk {
		to := min(from+chunk, prepared.Len())

		waitStart := time.Now()
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				d.metrics.recordFailure()
				return nil, &ExecutionFailedError{
					Batch:    batch.ID,
					Received: len(results),
					Expected: prepared.Len(),
					Err:      err,
				}
			}
		}
		queueWait := time.Since(waitStart)

		execStart := time.Now()
		chunkResults, err := d.backend.Execute(ctx, prepared.slice(from, to), shots)
		if err != nil {
			d.metrics.recordFailure()
			return nil, &ExecutionFailedError{
				Batch:    batch.ID,
				Received: len(results),
				Expected: prepared.Len(),
				Err:      err,
			}
		}
		if len(chunkResults) != to-from {
			d.metrics.recordFailure()
			return nil, &ExecutionFailedError{
				Batch:    batch.ID,
				Received: len(results) + len(chunkResults),
				Expected: prepared.Len(),
				Err:      fmt.Errorf("backend returned %d results for a chunk of %d", len(chunkResults), to-from),
			}
		}
		d.metrics.recordChunk(to-from, queueWait, time.Since(execStart))

		for i, dist := range chunkResults {
			if err := dist.Validate(1e-9); err != nil {
				log.Printf("batch %s circuit %d: suspect distribution: %v", batch.ID, from+i, err)
			}
		}
		results = append(results, chunkResults...)
	}

	errnie.Info(
		"dispatched batch %s: %d circuits on %s",
		batch.ID, prepared.Len(), d.backend.Name(),
	)
	return results, nil
}
