package layers

import (
	"fmt"

	"mednca/device"
	"mednca/tensor"
)

// Kernel3 is a fixed 3x3 correlation kernel, indexed [dy][dx].
type Kernel3 [3][3]float64

// T returns the transpose.
func (k Kernel3) T() Kernel3 {
	var t Kernel3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = k[j][i]
		}
	}
	return t
}

var (
	SobelX   = Kernel3{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	SobelY   = SobelX.T()
	Identity = Kernel3{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}
)

// Depthwise filters every channel independently with the same fixed kernel
// (groups = channels, stride 1, no padding), so a (B, C, H, W) input yields
// (B, C, H-2, W-2). The kernel is not learnable.
type Depthwise struct {
	kernel    Kernel3
	placement device.Placement
}

// NewDepthwise creates a depthwise filter on the host placement.
func NewDepthwise(k Kernel3) *Depthwise {
	return &Depthwise{kernel: k, placement: device.Host}
}

// Kernel returns a copy of the filter coefficients.
func (d *Depthwise) Kernel() Kernel3 { return d.kernel }

func (d *Depthwise) To(p device.Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.placement = p
	return nil
}

func (d *Depthwise) Placement() device.Placement { return d.placement }

func (d *Depthwise) Levels() int { return 0 }

// Forward correlates each channel plane with the kernel.
func (d *Depthwise) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	b, c, h, w, err := x.Dims4()
	if err != nil {
		return nil, err
	}
	oh, ow := h-2, w-2
	if oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("depthwise 3x3 on %dx%d grid: %w", h, w, tensor.ErrShapeMismatch)
	}
	out := tensor.New(b, c, oh, ow)
	k := d.kernel
	for plane := 0; plane < b*c; plane++ {
		src := x.Data[plane*h*w : (plane+1)*h*w]
		dst := out.Data[plane*oh*ow : (plane+1)*oh*ow]
		for y := 0; y < oh; y++ {
			for xx := 0; xx < ow; xx++ {
				sum := 0.0
				for dy := 0; dy < 3; dy++ {
					row := src[(y+dy)*w+xx:]
					sum += k[dy][0]*row[0] + k[dy][1]*row[1] + k[dy][2]*row[2]
				}
				dst[y*ow+xx] = sum
			}
		}
	}
	return out, nil
}

func (d *Depthwise) Tag() string {
	return fmt.Sprintf("Depthwise(%v)", d.kernel)
}
