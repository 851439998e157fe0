package layers

import (
	"mednca/device"
	"mednca/tensor"
)

// ReLU applies max(0, v) element-wise. On every placement it runs on
// plaintext values: the ckks placement decrypts at the end of each pointwise
// layer, so the nonlinearity never sees ciphertexts.
type ReLU struct {
	placement device.Placement
}

// NewReLU creates a ReLU on the host placement.
func NewReLU() *ReLU {
	return &ReLU{placement: device.Host}
}

func (r *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	y := tensor.New(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			y.Data[i] = v
		}
	}
	return y, nil
}

func (r *ReLU) To(p device.Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.placement = p
	return nil
}

func (r *ReLU) Placement() device.Placement { return r.placement }

func (r *ReLU) Levels() int { return 0 }

func (r *ReLU) Tag() string { return "ReLU" }
