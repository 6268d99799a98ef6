package qkernel

import "fmt"

/*
Classifier consumes precomputed kernel matrices. Fit receives the square
train-versus-train Gram matrix; Score receives a cross matrix whose rows
are evaluation samples and whose columns line up with the training set
Fit saw. Implementations must treat K as opaque real data: hardware-noise
kernels may be indefinite, and not every classical solver tolerates that
(the bundled perceptron does).
*/
type Classifier interface {
	Fit(k *KernelMatrix, labels []int) error
	Score(k *KernelMatrix, labels []int) (float64, error)
}

/*
KernelPerceptron is a dual-form perceptron for binary classification. It
needs nothing beyond kernel evaluations, which makes it a convenient
default consumer for estimated Gram matrices. Labels may be {0, 1} or
{-1, +1}; they are normalized to signs internally.
*/
type KernelPerceptron struct {
	epochs int
	alphas []float64
	signs  []float64
	fitted bool
}

// NewKernelPerceptron creates a perceptron trained for the given number of
// passes over the training set.
func NewKernelPerceptron(epochs int) *KernelPerceptron {
	if epochs < 1 {
		epochs = 10
	}
	return &KernelPerceptron{epochs: epochs}
}

// Fit trains on a square Gram matrix and its label vector.
func (kp *KernelPerceptron) Fit(k *KernelMatrix, labels []int) error {
	rows, cols := k.Dims()
	if rows != cols {
		return fmt.Errorf("training kernel must be square, got %dx%d", rows, cols)
	}
	if len(labels) != rows {
		return fmt.Errorf("got %d labels for %d samples", len(labels), rows)
	}

	signs, err := normalizeLabels(labels)
	if err != nil {
		return err
	}

	alphas := make([]float64, rows)
	for epoch := 0; epoch < kp.epochs; epoch++ {
		mistakes := 0
		for i := 0; i < rows; i++ {
			activation := 0.0
			for j := 0; j < rows; j++ {
				activation += alphas[j] * signs[j] * k.At(i, j)
			}
			if signs[i]*activation <= 0 {
				alphas[i]++
				mistakes++
			}
		}
		if mistakes == 0 {
			break
		}
	}

	kp.alphas = alphas
	kp.signs = signs
	kp.fitted = true
	return nil
}

// Score returns the accuracy on a cross kernel whose columns correspond to
// the training samples Fit saw.
func (kp *KernelPerceptron) Score(k *KernelMatrix, labels []int) (float64, error) {
	if !kp.fitted {
		return 0, fmt.Errorf("classifier has not been fitted")
	}
	rows, cols := k.Dims()
	if cols != len(kp.alphas) {
		return 0, fmt.Errorf("cross kernel has %d columns, trained on %d samples", cols, len(kp.alphas))
	}
	if len(labels) != rows {
		return 0, fmt.Errorf("got %d labels for %d samples", len(labels), rows)
	}

	truth, err := normalizeLabels(labels)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < rows; i++ {
		activation := 0.0
		for j := 0; j < cols; j++ {
			activation += kp.alphas[j] * kp.signs[j] * k.At(i, j)
		}
		predicted := 1.0
		if activation < 0 {
			predicted = -1.0
		}
		if predicted == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

func normalizeLabels(labels []int) ([]float64, error) {
	signs := make([]float64, len(labels))
	for i, y := range labels {
		switch y {
		case 1:
			signs[i] = 1
		case 0, -1:
			signs[i] = -1
		default:
			return nil, fmt.Errorf("label %d at index %d: want binary labels", y, i)
		}
	}
	return signs, nil
}
