package qkernel

import (
	"gonum.org/v1/gonum/mat"
)

/*
KernelMatrix is a dense Gram matrix of pairwise fidelity estimates. Entry
(i, j) is the estimated overlap between sample i of the row set and sample
j of the column set. Entries are expected to lie in [0, 1]; Clip absorbs
shot-noise or floating-point excursions outside that range.
*/
type KernelMatrix struct {
	m *mat.Dense
}

// NewKernelMatrix builds a rows x cols matrix from row-major data. A nil
// data slice allocates a zeroed matrix.
func NewKernelMatrix(rows, cols int, data []float64) *KernelMatrix {
	return &KernelMatrix{m: mat.NewDense(rows, cols, data)}
}

// Dims returns the matrix dimensions.
func (k *KernelMatrix) Dims() (rows, cols int) { return k.m.Dims() }

// At returns entry (i, j).
func (k *KernelMatrix) At(i, j int) float64 { return k.m.At(i, j) }

// Set assigns entry (i, j).
func (k *KernelMatrix) Set(i, j int, v float64) { k.m.Set(i, j, v) }

// Dense exposes the underlying gonum matrix for classical consumers.
func (k *KernelMatrix) Dense() *mat.Dense { return k.m }

// Clip forces every entry into [0, 1] and returns how many entries had to
// be moved. A nonzero return signals an estimation-quality problem worth
// investigating (too few shots, mis-specified circuit).
func (k *KernelMatrix) Clip() int {
	rows, cols := k.m.Dims()
	clipped := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := k.m.At(i, j)
			switch {
			case v < 0:
				k.m.Set(i, j, 0)
				clipped++
			case v > 1:
				k.m.Set(i, j, 1)
				clipped++
			}
		}
	}
	return clipped
}

// Symmetrize replaces the matrix with (K + Kᵀ)/2. Only valid for square
// matrices; rectangular cross kernels are left alone.
func (k *KernelMatrix) Symmetrize() {
	rows, cols := k.m.Dims()
	if rows != cols {
		return
	}
	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			v := (k.m.At(i, j) + k.m.At(j, i)) / 2
			k.m.Set(i, j, v)
			k.m.Set(j, i, v)
		}
	}
}

// MaxAsymmetry returns the largest |K[i][j] - K[j][i]| of a square matrix,
// or 0 for rectangular ones. Useful as an estimation-noise diagnostic.
func (k *KernelMatrix) MaxAsymmetry() float64 {
	rows, cols := k.m.Dims()
	if rows != cols {
		return 0
	}
	worst := 0.0
	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			if d := abs(k.m.At(i, j) - k.m.At(j, i)); d > worst {
				worst = d
			}
		}
	}
	return worst
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
