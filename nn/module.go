package nn

import (
	"fmt"

	"mednca/device"
	"mednca/tensor"
)

// Module defines a single layer/unit in the network.
type Module interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	// To relocates the module's parameters and constants.
	To(p device.Placement) error
	Placement() device.Placement
	// Levels is the CKKS multiplicative depth the module consumes.
	Levels() int
}

// trainable is implemented by modules whose behaviour depends on the mode.
type trainable interface {
	SetTraining(bool)
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := x
	for i, layer := range s.Layers {
		var err error
		out, err = layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return out, nil
}

// To relocates every layer.
func (s *Sequential) To(p device.Placement) error {
	for i, layer := range s.Layers {
		if err := layer.To(p); err != nil {
			return fmt.Errorf("relocate layer %d: %w", i, err)
		}
	}
	return nil
}

// Placement is the placement of the first layer, or Host when empty.
func (s *Sequential) Placement() device.Placement {
	if len(s.Layers) == 0 {
		return device.Host
	}
	return s.Layers[0].Placement()
}

// CheckPlacement returns ErrDeviceMismatch if any layer is not on p.
func (s *Sequential) CheckPlacement(p device.Placement) error {
	for i, layer := range s.Layers {
		if !layer.Placement().Same(p) {
			return fmt.Errorf("layer %d on %s, want %s: %w", i, layer.Placement(), p, ErrDeviceMismatch)
		}
	}
	return nil
}

// SetTraining propagates the mode to every layer that has one.
func (s *Sequential) SetTraining(training bool) {
	for _, layer := range s.Layers {
		if t, ok := layer.(trainable); ok {
			t.SetTraining(training)
		}
	}
}

// Levels sums Levels() of all layers.
func (s *Sequential) Levels() int {
	sum := 0
	for _, layer := range s.Layers {
		sum += layer.Levels()
	}
	return sum
}
