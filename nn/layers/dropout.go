package layers

import (
	"fmt"

	"mednca/device"
	"mednca/tensor"

	"golang.org/x/exp/rand"
)

// Dropout zeroes each element with probability P while training and scales
// the survivors by 1/(1-P), so the expected value is unchanged. In eval mode
// it is the identity.
type Dropout struct {
	P         float64
	training  bool
	rng       *rand.Rand
	placement device.Placement
}

// NewDropout creates a dropout layer in training mode drawing from src.
func NewDropout(p float64, src rand.Source) (*Dropout, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("dropout probability must be in [0, 1], got %v", p)
	}
	return &Dropout{P: p, training: true, rng: rand.New(src), placement: device.Host}, nil
}

// SetTraining switches between training and eval behaviour.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Training reports the current mode.
func (d *Dropout) Training() bool { return d.training }

func (d *Dropout) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if !d.training || d.P == 0 {
		return x.Clone(), nil
	}
	y := tensor.New(x.Shape...)
	if d.P == 1 {
		return y, nil
	}
	scale := 1 / (1 - d.P)
	for i, v := range x.Data {
		if d.rng.Float64() >= d.P {
			y.Data[i] = v * scale
		}
	}
	return y, nil
}

func (d *Dropout) To(p device.Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.placement = p
	return nil
}

func (d *Dropout) Placement() device.Placement { return d.placement }

func (d *Dropout) Levels() int { return 0 }

func (d *Dropout) Tag() string { return fmt.Sprintf("Dropout(p=%g)", d.P) }
