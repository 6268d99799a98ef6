package qkernel

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// kernelGrid adapts a KernelMatrix to the plotter grid interface. Row 0
// is drawn at the top so the image reads like the printed matrix.
type kernelGrid struct {
	k *KernelMatrix
}

func (g kernelGrid) Dims() (c, r int) {
	rows, cols := g.k.Dims()
	return cols, rows
}

func (g kernelGrid) Z(c, r int) float64 {
	rows, _ := g.k.Dims()
	return g.k.At(rows-1-r, c)
}

func (g kernelGrid) X(c int) float64 { return float64(c) }
func (g kernelGrid) Y(r int) float64 { return float64(r) }

// RenderHeatmap writes the kernel matrix as a heatmap image to path.
func RenderHeatmap(k *KernelMatrix, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "sample"

	hm := plotter.NewHeatMap(kernelGrid{k: k}, palette.Heat(16, 1))
	hm.Min = 0
	hm.Max = 1
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return nil
}

// TrainingHeatmapPath returns the fixed artifact name for a training
// kernel rendered from an n-qubit encoding. Exact simulators keep their
// name as the suffix; any backend sampling real shots files under the
// fixed "hardware" suffix.
func TrainingHeatmapPath(qubits int, backend Backend) string {
	suffix := backend.Name()
	if !backend.IsSimulator() {
		suffix = "hardware"
	}
	return fmt.Sprintf("kernel_train_n%d_%s.png", qubits, suffix)
}
