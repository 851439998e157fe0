package nn

import (
	"context"
	"fmt"
	"time"

	"mednca/core/ckkswrapper"
	"mednca/device"
	"mednca/nn/layers"
	"mednca/tensor"
	"mednca/utils"

	"golang.org/x/exp/rand"
)

// GCA is a Growing Cellular Automaton. One step perceives every cell through
// fixed gradient filters, runs the perception vector through a per-cell
// update network and adds the result to the hidden channels.
//
// Channels [0, InputChannels) are reserved and pass through a step
// unchanged; channels [InputChannels, NChannels) receive the update.
type GCA struct {
	cfg utils.Config

	// Filters are the fixed Sobel-x, Sobel-y and identity kernels.
	Filters *FilterBank

	// Update network: 1x1 conv (3N -> hidden, bias) -> ReLU ->
	// 1x1 conv (hidden -> N-input, no bias) -> dropout.
	LayerA  *layers.Conv2D
	Act     *layers.ReLU
	LayerB  *layers.Conv2D
	Dropout *layers.Dropout
	update  *Sequential

	placement device.Placement
	training  bool

	// Stats, when set, accumulates per-phase timings of every Forward.
	Stats *utils.TimingStats
}

// NewGCA builds a model on the host placement, in training mode, with the
// learnable parameters drawn from N(0, cfg.InitStd²).
func NewGCA(cfg utils.Config) (*GCA, error) {
	if err := utils.ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	layerA, err := layers.NewConv2D(3*cfg.NChannels, cfg.HiddenChannels, true)
	if err != nil {
		return nil, fmt.Errorf("%w: layer A: %v", ErrInvalidConfig, err)
	}
	layerB, err := layers.NewConv2D(cfg.HiddenChannels, cfg.HiddenStateChannels(), false)
	if err != nil {
		return nil, fmt.Errorf("%w: layer B: %v", ErrInvalidConfig, err)
	}
	drop, err := layers.NewDropout(cfg.DropoutP, rand.NewSource(cfg.Seed+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	src := rand.NewSource(cfg.Seed)
	layers.InitNormal(layerA.W, 0, cfg.InitStd, src)
	layers.InitNormal(layerA.B, 0, cfg.InitStd, src)
	layers.InitNormal(layerB.W, 0, cfg.InitStd, src)

	g := &GCA{
		cfg:       cfg,
		Filters:   NewFilterBank(),
		LayerA:    layerA,
		Act:       layers.NewReLU(),
		LayerB:    layerB,
		Dropout:   drop,
		placement: device.Host,
		training:  true,
	}
	g.update = &Sequential{Layers: []Module{g.LayerA, g.Act, g.LayerB, g.Dropout}}
	return g, nil
}

// Config returns the configuration the model was built with.
func (g *GCA) Config() utils.Config { return g.cfg }

// Placement reports where the model lives.
func (g *GCA) Placement() device.Placement { return g.placement }

// Layers returns the update network.
func (g *GCA) Layers() *Sequential { return g.update }

// Levels is the CKKS depth one step consumes.
func (g *GCA) Levels() int { return g.update.Levels() }

// NumParameters counts the learnable values.
func (g *GCA) NumParameters() int {
	return g.LayerA.NumParameters() + g.LayerB.NumParameters()
}

// To relocates the update network and the fixed filters in one operation and
// returns the model for chaining. A ckks placement without a context gets a
// fresh one built from the configured ring degree. On failure the model is
// moved back to its previous placement.
func (g *GCA) To(p device.Placement) (*GCA, error) {
	if p.Kind == device.CKKS && p.HE == nil {
		if g.placement.Kind == device.CKKS {
			p.HE = g.placement.HE
		} else {
			start := time.Now()
			he, err := ckkswrapper.NewHeContextE(g.cfg.LogN)
			if err != nil {
				return nil, err
			}
			if g.Stats != nil {
				g.Stats.HEInitTime += time.Since(start)
			}
			p.HE = he
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	prev := g.placement
	if err := g.relocate(p); err != nil {
		_ = g.relocate(prev)
		return nil, fmt.Errorf("relocate to %s: %w", p, err)
	}
	g.placement = p
	if g.Stats != nil {
		g.Stats.RelocateTime += time.Since(start)
	}
	return g, nil
}

func (g *GCA) relocate(p device.Placement) error {
	if err := g.update.To(p); err != nil {
		return err
	}
	return g.Filters.To(p)
}

// Train switches dropout on.
func (g *GCA) Train() *GCA {
	g.training = true
	g.update.SetTraining(true)
	return g
}

// Eval switches dropout off.
func (g *GCA) Eval() *GCA {
	g.training = false
	g.update.SetTraining(false)
	return g
}

// Training reports the current mode.
func (g *GCA) Training() bool { return g.training }

// checkPlacement fails if any part of the model has drifted from the
// model's placement, e.g. after relocating a single layer directly.
func (g *GCA) checkPlacement() error {
	if err := g.update.CheckPlacement(g.placement); err != nil {
		return err
	}
	return g.Filters.CheckPlacement(g.placement)
}

// ComputePerception builds the (B, 3N, H', W') perception grid
// [state, grad_x, grad_y].
//
// With pad, the grid is wrapped circularly by one cell before filtering and
// H', W' equal the input size. Without pad, the input is taken as already
// padded: it is filtered as is and H', W' are two smaller.
func (g *GCA) ComputePerception(x *tensor.Tensor, pad bool) (*tensor.Tensor, error) {
	processed := x
	if pad {
		var err error
		if processed, err = tensor.PadCircular(x, 1); err != nil {
			return nil, err
		}
	}

	state, err := g.Filters.Identity.Forward(processed)
	if err != nil {
		return nil, err
	}
	gradX, err := g.Filters.SobelX.Forward(processed)
	if err != nil {
		return nil, err
	}
	gradY, err := g.Filters.SobelY.Forward(processed)
	if err != nil {
		return nil, err
	}
	return tensor.ConcatChannels(state, gradX, gradY)
}

// ComputeDelta runs the update network on a perception grid and returns the
// (B, N-input, H, W) change for the hidden channels.
func (g *GCA) ComputeDelta(perception *tensor.Tensor) (*tensor.Tensor, error) {
	return g.update.Forward(perception)
}

// Forward computes one automaton step. The result is a new tensor; x is not
// modified.
func (g *GCA) Forward(x *tensor.Tensor, pad bool) (*tensor.Tensor, error) {
	if err := g.checkPlacement(); err != nil {
		return nil, err
	}
	_, c, _, _, err := x.Dims4()
	if err != nil {
		return nil, err
	}
	if c != g.cfg.NChannels {
		return nil, fmt.Errorf("grid has %d channels, model expects %d: %w", c, g.cfg.NChannels, tensor.ErrShapeMismatch)
	}

	t0 := time.Now()
	perception, err := g.ComputePerception(x, pad)
	if err != nil {
		return nil, fmt.Errorf("perception: %w", err)
	}
	output, err := tensor.SliceChannels(perception, 0, g.cfg.NChannels)
	if err != nil {
		return nil, err
	}

	t1 := time.Now()
	delta, err := g.ComputeDelta(perception)
	if err != nil {
		return nil, fmt.Errorf("update network: %w", err)
	}

	t2 := time.Now()
	if err := tensor.AddChannels(output, delta, g.cfg.InputChannels); err != nil {
		return nil, fmt.Errorf("state update: %w", err)
	}

	if g.Stats != nil {
		g.Stats.PerceptionTime += t1.Sub(t0)
		g.Stats.DeltaTime += t2.Sub(t1)
		g.Stats.UpdateTime += time.Since(t2)
		g.Stats.Steps++
	}
	return output, nil
}

// Step is Forward with circular padding.
func (g *GCA) Step(x *tensor.Tensor) (*tensor.Tensor, error) {
	return g.Forward(x, true)
}

// Rollout applies steps Forward calls, feeding each output back in. ctx is
// checked before every step. Without pad each step shrinks the grid by two
// cells per axis.
func (g *GCA) Rollout(ctx context.Context, x *tensor.Tensor, steps int, pad bool) (*tensor.Tensor, error) {
	if steps < 0 {
		return nil, fmt.Errorf("negative step count %d", steps)
	}
	state := x.Clone()
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rollout stopped after %d steps: %w", i, err)
		}
		next, err := g.Forward(state, pad)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		state = next
	}
	return state, nil
}
