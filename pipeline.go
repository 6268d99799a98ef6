package qkernel

import (
	"context"
	"fmt"
	"log"

	"github.com/theapemachine/errnie"
)

/*
Pipeline wires the full flow: resolve a backend once, estimate the
symmetric train kernel and the test-versus-train cross kernel, train the
classifier on the former and score it on the latter. The backend is an
explicit collaborator fixed at construction, never a shared global, so
substituting simulator, hardware, or a test double is a constructor
argument away.
*/
type Pipeline struct {
	config     *Config
	featureMap *FeatureMap
	dispatcher *Dispatcher
	estimator  *KernelEstimator
	classifier Classifier
}

// Result is the outcome of one pipeline run.
type Result struct {
	Backend     string
	TrainKernel *KernelMatrix
	TestKernel  *KernelMatrix
	Accuracy    float64
	HeatmapPath string
}

// NewPipeline builds a pipeline on an already-resolved backend.
func NewPipeline(backend Backend, qubits int, config *Config) *Pipeline {
	if config == nil {
		config = NewConfig()
	}

	opts := []DispatcherOption{WithOptimizationLevel(config.OptimizationLevel)}
	if config.SubmissionBurst > 0 && config.SubmissionInterval > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(config.SubmissionBurst, config.SubmissionInterval)))
	}

	fm := NewFeatureMap(qubits, config.FeatureMapReps)
	dispatcher := NewDispatcher(backend, opts...)

	return &Pipeline{
		config:     config,
		featureMap: fm,
		dispatcher: dispatcher,
		estimator:  NewKernelEstimator(fm, dispatcher),
		classifier: NewKernelPerceptron(config.ClassifierEpochs),
	}
}

/*
ResolveBackend selects a backend from the provider: operational, at least
minQubits qubits, least busy. Selection happens once per run, before any
circuit is built; NoAvailableBackendError is surfaced to the caller, who
may re-poll or fall back to a Simulator.
*/
func ResolveBackend(ctx context.Context, provider Provider, minQubits int) (Backend, error) {
	candidates, err := provider.Backends(ctx)
	if err != nil {
		return nil, fmt.Errorf("query provider: %w", err)
	}

	backend, err := LeastBusy(candidates, minQubits)
	if err != nil {
		return nil, err
	}

	errnie.Info(
		"resolved backend %s: %d qubits, %d pending jobs",
		backend.Name(), backend.Qubits(), backend.PendingJobs(),
	)
	return backend, nil
}

// Estimator exposes the pipeline's kernel estimator.
func (p *Pipeline) Estimator() *KernelEstimator { return p.estimator }

// Metrics exposes the dispatch metrics for this run.
func (p *Pipeline) Metrics() *Metrics { return p.dispatcher.Metrics() }

// Run estimates both kernels, fits the classifier, and scores it. Input
// vectors must all match the configured dimensionality; mismatches fail
// before any backend call.
func (p *Pipeline) Run(ctx context.Context, train, test []FeatureVector, trainLabels, testLabels []int) (*Result, error) {
	if len(train) != len(trainLabels) {
		return nil, fmt.Errorf("got %d training labels for %d samples", len(trainLabels), len(train))
	}
	if len(test) != len(testLabels) {
		return nil, fmt.Errorf("got %d test labels for %d samples", len(testLabels), len(test))
	}

	trainKernel, err := p.estimator.EstimateSymmetric(ctx, train, p.config.Shots)
	if err != nil {
		return nil, fmt.Errorf("train kernel: %w", err)
	}

	testKernel, err := p.estimator.Estimate(ctx, test, train, p.config.Shots)
	if err != nil {
		return nil, fmt.Errorf("test kernel: %w", err)
	}

	if err := p.classifier.Fit(trainKernel, trainLabels); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	accuracy, err := p.classifier.Score(testKernel, testLabels)
	if err != nil {
		return nil, fmt.Errorf("score classifier: %w", err)
	}

	result := &Result{
		Backend:     p.dispatcher.Backend().Name(),
		TrainKernel: trainKernel,
		TestKernel:  testKernel,
		Accuracy:    accuracy,
	}

	if p.config.RenderHeatmaps {
		path := TrainingHeatmapPath(p.featureMap.Qubits(), p.dispatcher.Backend())
		if err := RenderHeatmap(trainKernel, "train kernel", path); err != nil {
			// Rendering is a side artifact; estimation results stand.
			log.Printf("heatmap render failed: %v", err)
		} else {
			result.HeatmapPath = path
		}
	}

	errnie.Info("pipeline run complete: accuracy %.4f on %s", accuracy, result.Backend)
	return result, nil
}
