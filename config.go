package qkernel

import "time"

// Config carries the knobs for one pipeline run.
type Config struct {
	// Shots is the measurement repetition count for sampled backends.
	// Exact simulators ignore it.
	Shots int

	// OptimizationLevel sets circuit lowering intensity (0-2).
	OptimizationLevel int

	// FeatureMapReps repeats the encoding template.
	FeatureMapReps int

	// ClassifierEpochs bounds the bundled perceptron's training passes.
	ClassifierEpochs int

	// SubmissionBurst and SubmissionInterval configure the token bucket
	// gating chunk submissions. A zero burst disables rate limiting.
	SubmissionBurst    int
	SubmissionInterval time.Duration

	// RenderHeatmaps writes the training kernel image after estimation.
	RenderHeatmaps bool
}

func NewConfig() *Config {
	return &Config{
		Shots:              1024,
		OptimizationLevel:  1,
		FeatureMapReps:     1,
		ClassifierEpochs:   25,
		SubmissionBurst:    4,
		SubmissionInterval: time.Second,
	}
}
