// gca: run a growing neural cellular automaton on a random grid
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"mednca/device"
	"mednca/nn"
	"mednca/tensor"
	"mednca/utils"

	"golang.org/x/exp/rand"
)

var (
	configFile = flag.String("config", "", "Model config JSON file")
	nChannels  = flag.Int("n", 16, "Total state channels")
	hidden     = flag.Int("hidden", 128, "Hidden width of the update network")
	inputCh    = flag.Int("input", 3, "Reserved input channels")
	dropout    = flag.Float64("dropout", 0.5, "Dropout probability on the update")
	deviceName = flag.String("device", "cpu", "Placement: cpu, blas or ckks")
	logN       = flag.Int("logN", 13, "Ring dimension log2 for ckks")
	seed       = flag.Uint64("seed", 42, "Seed for weights and dropout")
	size       = flag.String("size", "32", "Grid size, HxW or a single side")
	batch      = flag.Int("batch", 1, "Batch size")
	steps      = flag.Int("steps", 8, "Rollout steps")
	noPad      = flag.Bool("nopad", false, "Disable circular padding, the grid shrinks each step")
	eval       = flag.Bool("eval", false, "Evaluation mode, disables dropout")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 Neural Cellular Automaton                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	h, w, err := utils.ParseGrid(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	kind, err := device.Parse(cfg.Device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	start := time.Now()
	model, err := nn.NewGCA(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building model: %v\n", err)
		os.Exit(1)
	}
	model.Stats = stats
	stats.ModelInitTime = time.Since(start)

	if _, err := model.To(device.On(kind)); err != nil {
		fmt.Fprintf(os.Stderr, "Error moving model to %s: %v\n", kind, err)
		os.Exit(1)
	}
	if *eval {
		model.Eval()
	}

	fmt.Printf("\nModel: n=%d hidden=%d input=%d dropout=%.2f\n",
		cfg.NChannels, cfg.HiddenChannels, cfg.InputChannels, cfg.DropoutP)
	fmt.Printf("Parameters: %d\n", model.NumParameters())
	fmt.Printf("Placement: %s (levels per step: %d)\n", model.Placement(), model.Levels())
	fmt.Printf("Mode: %s\n", modeName(model.Training()))

	grid := seedGrid(cfg, *batch, h, w)
	fmt.Printf("Grid: %v\n", grid.Shape)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("\nRunning %d steps...\n", *steps)
	state := grid
	for i := 0; i < *steps; i++ {
		stepStart := time.Now()
		state, err = model.Rollout(ctx, state, 1, !*noPad)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		utils.Logf("  step %d: shape=%v max|x|=%.6g (%v)", i+1, state.Shape, state.MaxAbs(), time.Since(stepStart))
	}

	reserved, err := tensor.SliceChannels(grid, 0, cfg.InputChannels)
	if err == nil && !*noPad {
		kept, _ := tensor.SliceChannels(state, 0, cfg.InputChannels)
		if diff, err := tensor.MaxAbsDiff(reserved, kept); err == nil {
			fmt.Printf("\nReserved channel drift: %.3g\n", diff)
		}
	}
	fmt.Printf("Final shape: %v\n", state.Shape)
	fmt.Printf("Final max|x|: %.6g\n", state.MaxAbs())

	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(stats)
}

// buildConfig starts from the config file (or the defaults) and applies only
// the flags given on the command line.
func buildConfig() (utils.Config, error) {
	cfg := utils.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = utils.LoadConfig(*configFile)
		if err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			cfg.NChannels = *nChannels
		case "hidden":
			cfg.HiddenChannels = *hidden
		case "input":
			cfg.InputChannels = *inputCh
		case "dropout":
			cfg.DropoutP = *dropout
		case "device":
			cfg.Device = *deviceName
		case "logN":
			cfg.LogN = *logN
		case "seed":
			cfg.Seed = *seed
		}
	})
	return cfg, utils.ValidateConfig(&cfg)
}

// seedGrid fills the reserved channels with uniform noise in [0, 1) and
// leaves the hidden channels at zero.
func seedGrid(cfg utils.Config, b, h, w int) *tensor.Tensor {
	grid := tensor.New(b, cfg.NChannels, h, w)
	rng := rand.New(rand.NewSource(cfg.Seed + 2))
	for n := 0; n < b; n++ {
		for c := 0; c < cfg.InputChannels; c++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					grid.Set(rng.Float64(), n, c, y, x)
				}
			}
		}
	}
	return grid
}

func modeName(training bool) string {
	if training {
		return "training (dropout active)"
	}
	return "eval"
}
