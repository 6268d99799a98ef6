package qkernel

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOptimize(t *testing.T) {
	Convey("Given circuits with redundant structure", t, func() {
		backend := &fakeBackend{name: "fake", qubits: 2, operational: true}

		Convey("Level 0 should leave circuits untouched", func() {
			d := NewDispatcher(backend, WithOptimizationLevel(0))
			c := NewCircuit(2).Append(rotation(GateRZ, 0, 0), hadamard(0))
			So(d.Optimize(c).Depth(), ShouldEqual, 2)
		})

		Convey("Level 1 should drop numerically-zero rotations", func() {
			d := NewDispatcher(backend, WithOptimizationLevel(1))
			c := NewCircuit(2).Append(
				rotation(GateRZ, 0, 0),
				hadamard(0),
				rotation(GateRY, 1, 0.5),
			)
			opt := d.Optimize(c)
			So(opt.Depth(), ShouldEqual, 2)
			So(opt.Gates()[0].Name, ShouldEqual, GateH)
		})

		Convey("Level 2 should cancel adjacent inverse pairs to a fixpoint", func() {
			d := NewDispatcher(backend, WithOptimizationLevel(2))
			// H RZ(θ) RZ(-θ) H collapses entirely once the inner pair
			// cancels and exposes the outer pair.
			c := NewCircuit(2).Append(
				hadamard(0),
				rotation(GateRZ, 0, 0.5),
				rotation(GateRZ, 0, -0.5),
				hadamard(0),
				cnot(0, 1),
			)
			opt := d.Optimize(c)
			So(opt.Depth(), ShouldEqual, 1)
			So(opt.Gates()[0].Name, ShouldEqual, GateCX)
		})

		Convey("Optimization should be idempotent at every level", func() {
			for level := 0; level <= 2; level++ {
				d := NewDispatcher(backend, WithOptimizationLevel(level))
				c := NewCircuit(2).Append(
					hadamard(0),
					hadamard(0),
					rotation(GateRZ, 1, 0),
					cnot(0, 1),
				).MeasureAll()

				once := d.Optimize(c)
				twice := d.Optimize(once)
				So(twice.Depth(), ShouldEqual, once.Depth())
				So(twice.Measured(), ShouldEqual, once.Measured())

				og, tg := once.Gates(), twice.Gates()
				for i := range og {
					So(tg[i].Name, ShouldEqual, og[i].Name)
					So(tg[i].Theta, ShouldEqual, og[i].Theta)
				}
			}
		})

		Convey("Optimization should preserve circuit semantics", func() {
			d := NewDispatcher(backend, WithOptimizationLevel(2))
			c := NewCircuit(2).Append(
				hadamard(0),
				rotation(GateRZ, 0, 0.3),
				rotation(GateRZ, 0, -0.3),
				rotation(GateRY, 1, 0.8),
				cnot(0, 1),
			)

			before := NewStatevector(2)
			So(before.Run(c), ShouldBeNil)
			after := NewStatevector(2)
			So(after.Run(d.Optimize(c)), ShouldBeNil)

			for i := 0; i < 4; i++ {
				So(after.Probability(i), ShouldAlmostEqual, before.Probability(i), 1e-12)
			}
		})
	})
}

func TestDispatchChunking(t *testing.T) {
	Convey("Given a backend with a max batch size of 2", t, func() {
		backend := &fakeBackend{name: "chunky", qubits: 1, operational: true, maxBatch: 2}
		backend.execute = func(batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
			out := make([]OutcomeDistribution, batch.Len())
			for i, c := range batch.Circuits {
				// Tag each result with the circuit's gate count so
				// ordering is observable across chunk boundaries.
				out[i] = OutcomeDistribution{
					Counts: map[string]int{"0": c.Depth()},
					Shots:  c.Depth(),
				}
			}
			return out, nil
		}
		d := NewDispatcher(backend, WithOptimizationLevel(0))

		Convey("A 5-circuit batch should be split without reordering", func() {
			circuits := make([]Circuit, 5)
			for i := range circuits {
				c := NewCircuit(1)
				for g := 0; g <= i; g++ {
					c = c.Append(hadamard(0))
				}
				circuits[i] = c.MeasureAll()
			}

			results, err := d.Dispatch(context.Background(), NewExecutionBatch(circuits), 100)
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 5)
			So(backend.executed, ShouldResemble, []int{2, 2, 1})
			for i, dist := range results {
				So(dist.Counts["0"], ShouldEqual, i+1)
			}

			So(d.Metrics().ChunksSubmitted, ShouldEqual, 3)
			So(d.Metrics().CircuitsExecuted, ShouldEqual, 5)
		})
	})
}

func TestDispatchFailure(t *testing.T) {
	Convey("Given a backend that fails mid-batch", t, func() {
		calls := 0
		backend := &fakeBackend{name: "flaky", qubits: 1, operational: true, maxBatch: 2}
		backend.execute = func(batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
			calls++
			if calls > 1 {
				return nil, fmt.Errorf("device disconnected")
			}
			out := make([]OutcomeDistribution, batch.Len())
			for i := range out {
				out[i] = OutcomeDistribution{Counts: map[string]int{"0": shots}, Shots: shots}
			}
			return out, nil
		}
		d := NewDispatcher(backend, WithOptimizationLevel(0))

		Convey("The caller should observe ExecutionFailed with no partial results", func() {
			circuits := make([]Circuit, 4)
			for i := range circuits {
				circuits[i] = NewCircuit(1).Append(hadamard(0)).MeasureAll()
			}

			results, err := d.Dispatch(context.Background(), NewExecutionBatch(circuits), 64)
			So(results, ShouldBeNil)
			So(err, ShouldNotBeNil)

			var fail *ExecutionFailedError
			So(errors.As(err, &fail), ShouldBeTrue)
			So(fail.Received, ShouldEqual, 2)
			So(fail.Expected, ShouldEqual, 4)
			So(d.Metrics().ExecutionFailures, ShouldEqual, 1)
		})
	})

	Convey("Given a backend that truncates its result set", t, func() {
		backend := &fakeBackend{name: "short", qubits: 1, operational: true}
		backend.execute = func(batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
			return []OutcomeDistribution{{Counts: map[string]int{"0": shots}, Shots: shots}}, nil
		}
		d := NewDispatcher(backend, WithOptimizationLevel(0))

		Convey("The truncation should surface as ExecutionFailed", func() {
			circuits := []Circuit{
				NewCircuit(1).MeasureAll(),
				NewCircuit(1).MeasureAll(),
			}
			_, err := d.Dispatch(context.Background(), NewExecutionBatch(circuits), 64)

			var fail *ExecutionFailedError
			So(errors.As(err, &fail), ShouldBeTrue)
		})
	})
}

func TestDispatchRateLimiting(t *testing.T) {
	Convey("Given a dispatcher with a one-token bucket", t, func() {
		backend := &fakeBackend{name: "limited", qubits: 1, operational: true, maxBatch: 1}
		limiter := NewRateLimiter(1, 50*time.Millisecond)
		d := NewDispatcher(backend, WithOptimizationLevel(0), WithRateLimiter(limiter))

		Convey("Chunk submissions should be paced by the limiter", func() {
			circuits := []Circuit{
				NewCircuit(1).MeasureAll(),
				NewCircuit(1).MeasureAll(),
				NewCircuit(1).MeasureAll(),
			}

			start := time.Now()
			results, err := d.Dispatch(context.Background(), NewExecutionBatch(circuits), 16)
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 3)
			// Two of the three chunks had to wait for a refill.
			So(time.Since(start), ShouldBeGreaterThan, 50*time.Millisecond)
		})
	})
}
