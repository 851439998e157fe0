package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Grid helpers operate on 4-D tensors laid out as (batch, channels, height, width).

// PadCircular wraps the spatial borders of t by p cells on every side, giving
// the grid a toroidal topology: padded[y][x] = t[(y-p) mod H][(x-p) mod W].
func PadCircular(t *Tensor, p int) (*Tensor, error) {
	b, c, h, w, err := t.Dims4()
	if err != nil {
		return nil, err
	}
	if p < 0 || (p > 0 && (p > h || p > w)) {
		return nil, fmt.Errorf("circular pad %d on %dx%d grid: %w", p, h, w, ErrShapeMismatch)
	}
	ph, pw := h+2*p, w+2*p
	out := New(b, c, ph, pw)
	for plane := 0; plane < b*c; plane++ {
		src := t.Data[plane*h*w : (plane+1)*h*w]
		dst := out.Data[plane*ph*pw : (plane+1)*ph*pw]
		for y := 0; y < ph; y++ {
			sy := mod(y-p, h)
			row := src[sy*w : (sy+1)*w]
			for x := 0; x < pw; x++ {
				dst[y*pw+x] = row[mod(x-p, w)]
			}
		}
	}
	return out, nil
}

// CropInterior drops a border of p cells from every spatial side.
func CropInterior(t *Tensor, p int) (*Tensor, error) {
	b, c, h, w, err := t.Dims4()
	if err != nil {
		return nil, err
	}
	oh, ow := h-2*p, w-2*p
	if p < 0 || oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("crop %d from %dx%d grid: %w", p, h, w, ErrShapeMismatch)
	}
	out := New(b, c, oh, ow)
	for plane := 0; plane < b*c; plane++ {
		src := t.Data[plane*h*w : (plane+1)*h*w]
		dst := out.Data[plane*oh*ow : (plane+1)*oh*ow]
		for y := 0; y < oh; y++ {
			copy(dst[y*ow:(y+1)*ow], src[(y+p)*w+p:(y+p)*w+p+ow])
		}
	}
	return out, nil
}

// ConcatChannels stacks tensors along the channel axis. All inputs must share
// batch and spatial dimensions.
func ConcatChannels(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("concat of zero tensors: %w", ErrShapeMismatch)
	}
	b, _, h, w, err := ts[0].Dims4()
	if err != nil {
		return nil, err
	}
	total := 0
	for _, t := range ts {
		tb, tc, th, tw, err := t.Dims4()
		if err != nil {
			return nil, err
		}
		if tb != b || th != h || tw != w {
			return nil, fmt.Errorf("concat %v with %v: %w", ts[0].Shape, t.Shape, ErrShapeMismatch)
		}
		total += tc
	}

	plane := h * w
	out := New(b, total, h, w)
	for n := 0; n < b; n++ {
		off := n * total * plane
		for _, t := range ts {
			tc := t.Shape[1]
			src := t.Data[n*tc*plane : (n+1)*tc*plane]
			copy(out.Data[off:off+len(src)], src)
			off += len(src)
		}
	}
	return out, nil
}

// SliceChannels copies channels [from, to) into a new tensor.
func SliceChannels(t *Tensor, from, to int) (*Tensor, error) {
	b, c, h, w, err := t.Dims4()
	if err != nil {
		return nil, err
	}
	if from < 0 || to > c || from > to {
		return nil, fmt.Errorf("channel slice [%d:%d] of %d channels: %w", from, to, c, ErrShapeMismatch)
	}
	plane := h * w
	n := to - from
	out := New(b, n, h, w)
	for i := 0; i < b; i++ {
		copy(out.Data[i*n*plane:(i+1)*n*plane], t.Data[(i*c+from)*plane:(i*c+to)*plane])
	}
	return out, nil
}

// AddChannels adds delta into dst's channels starting at offset, in place.
// delta must match dst's batch and spatial dimensions and fit exactly into
// the channels [offset, channels(dst)).
func AddChannels(dst, delta *Tensor, offset int) error {
	b, c, h, w, err := dst.Dims4()
	if err != nil {
		return err
	}
	db, dc, dh, dw, err := delta.Dims4()
	if err != nil {
		return err
	}
	if db != b || dh != h || dw != w || offset < 0 || offset+dc != c {
		return fmt.Errorf("add %v into channels [%d:] of %v: %w", delta.Shape, offset, dst.Shape, ErrShapeMismatch)
	}
	plane := h * w
	for i := 0; i < b; i++ {
		d := dst.Data[(i*c+offset)*plane : (i+1)*c*plane]
		s := delta.Data[i*dc*plane : (i+1)*dc*plane]
		floats.Add(d, s)
	}
	return nil
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
