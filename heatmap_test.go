package qkernel

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTrainingHeatmapPath(t *testing.T) {
	Convey("Given the artifact naming convention", t, func() {
		Convey("Exact simulators should keep their name as the suffix", func() {
			So(TrainingHeatmapPath(5, NewSimulator(5)), ShouldEqual, "kernel_train_n5_statevector-sim.png")
		})

		Convey("Shot-sampling backends should file under the hardware suffix", func() {
			So(TrainingHeatmapPath(3, &fakeBackend{name: "eagle", qubits: 3}), ShouldEqual, "kernel_train_n3_hardware.png")
			So(TrainingHeatmapPath(2, NewSimulator(2, WithSampling(1))), ShouldEqual, "kernel_train_n2_hardware.png")
		})
	})
}

func TestRenderHeatmap(t *testing.T) {
	Convey("Given an estimated kernel matrix", t, func() {
		k := NewKernelMatrix(3, 3, []float64{
			1.0, 0.6, 0.2,
			0.6, 1.0, 0.4,
			0.2, 0.4, 1.0,
		})

		Convey("It should render to a non-empty PNG", func() {
			path := filepath.Join(t.TempDir(), "kernel.png")
			So(RenderHeatmap(k, "train kernel", path), ShouldBeNil)

			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Size(), ShouldBeGreaterThan, 0)
		})

		Convey("An unwritable path should surface an error", func() {
			err := RenderHeatmap(k, "train kernel", filepath.Join(t.TempDir(), "missing", "kernel.png"))
			So(err, ShouldNotBeNil)
		})
	})
}
