package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints a line to Output when Verbose is set.
func Logf(format string, args ...any) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// TimingStats holds timing information for the phases of an update step
type TimingStats struct {
	TotalTime      time.Duration
	ModelInitTime  time.Duration
	HEInitTime     time.Duration
	RelocateTime   time.Duration
	PerceptionTime time.Duration
	DeltaTime      time.Duration
	UpdateTime     time.Duration
	Steps          int
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose {
		return
	}
	steps := stats.Steps
	if steps == 0 {
		steps = 1
	}
	stepTime := stats.PerceptionTime + stats.DeltaTime + stats.UpdateTime
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Steps completed: %d\n", stats.Steps)
	fmt.Fprintf(Output, "Average time per step: %v\n", stepTime/time.Duration(steps))
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, percent(stats.ModelInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  HE initialization: %v (%.1f%%)\n", stats.HEInitTime, percent(stats.HEInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Relocation: %v (%.1f%%)\n", stats.RelocateTime, percent(stats.RelocateTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Perception: %v (%.1f%%)\n", stats.PerceptionTime, percent(stats.PerceptionTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Update network: %v (%.1f%%)\n", stats.DeltaTime, percent(stats.DeltaTime, stats.TotalTime))
	fmt.Fprintf(Output, "  State update: %v (%.1f%%)\n", stats.UpdateTime, percent(stats.UpdateTime, stats.TotalTime))
	fmt.Fprintln(Output, "\nPer-step averages:")
	fmt.Fprintf(Output, "  Perception: %v\n", stats.PerceptionTime/time.Duration(steps))
	fmt.Fprintf(Output, "  Update network: %v\n", stats.DeltaTime/time.Duration(steps))
	fmt.Fprintf(Output, "  State update: %v\n", stats.UpdateTime/time.Duration(steps))
}

func percent(part, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
