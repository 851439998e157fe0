package nn

import (
	"fmt"

	"mednca/device"
	"mednca/nn/layers"
)

// FilterBank holds the three fixed perception kernels of one model. The
// kernels are constants, but they belong to the model instance and are
// relocated together with its parameters.
type FilterBank struct {
	SobelX   *layers.Depthwise
	SobelY   *layers.Depthwise
	Identity *layers.Depthwise
}

// NewFilterBank builds the Sobel-x, Sobel-y and identity filters.
func NewFilterBank() *FilterBank {
	return &FilterBank{
		SobelX:   layers.NewDepthwise(layers.SobelX),
		SobelY:   layers.NewDepthwise(layers.SobelY),
		Identity: layers.NewDepthwise(layers.Identity),
	}
}

func (f *FilterBank) all() []*layers.Depthwise {
	return []*layers.Depthwise{f.SobelX, f.SobelY, f.Identity}
}

// To relocates all three kernels.
func (f *FilterBank) To(p device.Placement) error {
	for _, k := range f.all() {
		if err := k.To(p); err != nil {
			return err
		}
	}
	return nil
}

// CheckPlacement returns ErrDeviceMismatch if any kernel is not on p.
func (f *FilterBank) CheckPlacement(p device.Placement) error {
	for _, k := range f.all() {
		if !k.Placement().Same(p) {
			return fmt.Errorf("%s on %s, want %s: %w", k.Tag(), k.Placement(), p, ErrDeviceMismatch)
		}
	}
	return nil
}
