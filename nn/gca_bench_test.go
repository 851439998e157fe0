package nn

import (
	"testing"

	"mednca/device"
	"mednca/utils"
)

func benchmarkStep(b *testing.B, kind device.Kind, size int) {
	cfg := utils.DefaultConfig()
	g, err := NewGCA(cfg)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := g.To(device.On(kind)); err != nil {
		b.Fatal(err)
	}
	x := randomGrid(1, 1, cfg.NChannels, size, size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Step(x); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStepCPU(b *testing.B)  { benchmarkStep(b, device.CPU, 32) }
func BenchmarkStepBLAS(b *testing.B) { benchmarkStep(b, device.BLAS, 32) }
func BenchmarkStepCKKS(b *testing.B) { benchmarkStep(b, device.CKKS, 16) }
