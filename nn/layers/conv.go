package layers

import (
	"fmt"

	"mednca/core/ckkswrapper"
	"mednca/device"
	"mednca/tensor"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"gonum.org/v1/gonum/mat"
)

// Conv2D is a pointwise (1x1) convolution: every cell's channel vector is
// mapped by the same dense matrix, independently of its position. It runs on
// any placement.
type Conv2D struct {
	inChan, outChan int

	// Plaintext parameters
	W *tensor.Tensor // weights: [outChan, inChan, 1, 1]
	B *tensor.Tensor // bias: [outChan], nil when the layer has no bias

	placement device.Placement

	// blas view of W, shares W.Data
	wMat *mat.Dense
	// ckks evaluator
	serverKit *ckkswrapper.ServerKit
}

// NewConv2D creates a 1x1 convolution mapping inChan to outChan channels.
// Parameters start at zero; see InitNormal.
func NewConv2D(inChan, outChan int, bias bool) (*Conv2D, error) {
	if inChan <= 0 || outChan <= 0 {
		return nil, fmt.Errorf("conv2d %d->%d: channel counts must be positive: %w", inChan, outChan, tensor.ErrShapeMismatch)
	}
	c := &Conv2D{
		inChan:    inChan,
		outChan:   outChan,
		W:         tensor.New(outChan, inChan, 1, 1),
		placement: device.Host,
	}
	if bias {
		c.B = tensor.New(outChan)
	}
	return c, nil
}

// InChannels is the expected input channel count.
func (c *Conv2D) InChannels() int { return c.inChan }

// OutChannels is the produced channel count.
func (c *Conv2D) OutChannels() int { return c.outChan }

// NumParameters counts weights and biases.
func (c *Conv2D) NumParameters() int {
	n := c.W.Size()
	if c.B != nil {
		n += c.B.Size()
	}
	return n
}

// To relocates the layer. Moving to ckks generates the layer's evaluator.
func (c *Conv2D) To(p device.Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.wMat, c.serverKit = nil, nil
	switch p.Kind {
	case device.BLAS:
		c.wMat = mat.NewDense(c.outChan, c.inChan, c.W.Data)
	case device.CKKS:
		c.serverKit = p.HE.GenServerKit(nil)
	}
	c.placement = p
	return nil
}

// Placement reports where the layer currently lives.
func (c *Conv2D) Placement() device.Placement { return c.placement }

// Levels is the multiplicative depth consumed on the ckks placement.
func (c *Conv2D) Levels() int {
	if c.placement.Kind == device.CKKS {
		return 1
	}
	return 0
}

// Forward applies the convolution to a (batch, inChan, H, W) tensor.
func (c *Conv2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	b, ch, h, w, err := x.Dims4()
	if err != nil {
		return nil, err
	}
	if ch != c.inChan {
		return nil, fmt.Errorf("conv2d expects %d input channels, got %d: %w", c.inChan, ch, tensor.ErrShapeMismatch)
	}
	out := tensor.New(b, c.outChan, h, w)
	if h*w == 0 || b == 0 {
		return out, nil
	}

	switch c.placement.Kind {
	case device.BLAS:
		c.forwardBLAS(x, out)
		return out, nil
	case device.CKKS:
		if err := c.forwardHE(x, out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		c.forwardPlain(x, out)
		return out, nil
	}
}

func (c *Conv2D) forwardPlain(x, out *tensor.Tensor) {
	batchSize, plane := x.Shape[0], x.Shape[2]*x.Shape[3]
	for b := 0; b < batchSize; b++ {
		in := x.Data[b*c.inChan*plane : (b+1)*c.inChan*plane]
		for oc := 0; oc < c.outChan; oc++ {
			dst := out.Data[(b*c.outChan+oc)*plane : (b*c.outChan+oc+1)*plane]
			row := c.W.Data[oc*c.inChan : (oc+1)*c.inChan]
			for p := 0; p < plane; p++ {
				sum := 0.0
				if c.B != nil {
					sum = c.B.Data[oc]
				}
				for ic, wv := range row {
					sum += wv * in[ic*plane+p]
				}
				dst[p] = sum
			}
		}
	}
}

// forwardBLAS computes Y = W·X per batch element, X viewed as an
// (inChan, H*W) matrix over the input's own storage.
func (c *Conv2D) forwardBLAS(x, out *tensor.Tensor) {
	batchSize, plane := x.Shape[0], x.Shape[2]*x.Shape[3]
	for b := 0; b < batchSize; b++ {
		xm := mat.NewDense(c.inChan, plane, x.Data[b*c.inChan*plane:(b+1)*c.inChan*plane])
		ym := mat.NewDense(c.outChan, plane, out.Data[b*c.outChan*plane:(b+1)*c.outChan*plane])
		ym.Mul(c.wMat, xm)
		if c.B == nil {
			continue
		}
		for oc := 0; oc < c.outChan; oc++ {
			bias := c.B.Data[oc]
			row := ym.RawRowView(oc)
			for i := range row {
				row[i] += bias
			}
		}
	}
}

// forwardHE encrypts each (batch, channel) plane in slot-sized chunks,
// accumulates W[oc][ic]·ct[ic] with plaintext scalar products, adds the bias,
// rescales once and decrypts.
func (c *Conv2D) forwardHE(x, out *tensor.Tensor) error {
	he := c.placement.HE
	eval := c.serverKit.Evaluator
	batchSize, plane := x.Shape[0], x.Shape[2]*x.Shape[3]
	slots := he.Slots()

	for b := 0; b < batchSize; b++ {
		for start := 0; start < plane; start += slots {
			end := start + slots
			if end > plane {
				end = plane
			}

			inCTs := make([]*rlwe.Ciphertext, c.inChan)
			for ic := 0; ic < c.inChan; ic++ {
				off := (b*c.inChan + ic) * plane
				ct, err := he.EncryptFloats(x.Data[off+start : off+end])
				if err != nil {
					return fmt.Errorf("conv2d encrypt channel %d: %w", ic, err)
				}
				inCTs[ic] = ct
			}

			for oc := 0; oc < c.outChan; oc++ {
				var acc *rlwe.Ciphertext
				for ic, ct := range inCTs {
					prod, err := eval.MulNew(ct, c.W.Data[oc*c.inChan+ic])
					if err != nil {
						return fmt.Errorf("multiplication failed: %w", err)
					}
					if acc == nil {
						acc = prod
						continue
					}
					if err := eval.Add(acc, prod, acc); err != nil {
						return fmt.Errorf("addition failed: %w", err)
					}
				}
				if c.B != nil {
					if err := eval.Add(acc, c.B.Data[oc], acc); err != nil {
						return fmt.Errorf("bias addition failed: %w", err)
					}
				}
				if err := eval.Rescale(acc, acc); err != nil {
					return fmt.Errorf("rescaling failed: %w", err)
				}

				vals, err := he.DecryptFloats(acc, end-start)
				if err != nil {
					return fmt.Errorf("conv2d decrypt channel %d: %w", oc, err)
				}
				off := (b*c.outChan + oc) * plane
				copy(out.Data[off+start:off+end], vals)
			}
		}
	}
	return nil
}

// Tag names the layer for diagnostics.
func (c *Conv2D) Tag() string {
	bias := ""
	if c.B == nil {
		bias = ", no bias"
	}
	return fmt.Sprintf("Conv2D(%d->%d, 1x1%s)", c.inChan, c.outChan, bias)
}
