package tensor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned (wrapped) by every operation whose operands
// do not have compatible shapes.
var ErrShapeMismatch = errors.New("shape mismatch")

var inf = math.Inf(1)

// Tensor is a simple n-D array backed by a flat []float64 in row-major order.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a zero Tensor of given shape (product of dims = len(Data)).
func New(shape ...int) *Tensor {
	total := 1
	for _, d := range shape {
		total *= d
	}
	return &Tensor{
		Data:  make([]float64, total),
		Shape: append([]int(nil), shape...),
	}
}

// FromData wraps a copy of data in a Tensor of the given shape.
func FromData(data []float64, shape ...int) (*Tensor, error) {
	total := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension in %v: %w", shape, ErrShapeMismatch)
		}
		total *= d
	}
	if total != len(data) {
		return nil, fmt.Errorf("%d values do not fill shape %v: %w", len(data), shape, ErrShapeMismatch)
	}
	return &Tensor{
		Data:  append([]float64(nil), data...),
		Shape: append([]int(nil), shape...),
	}, nil
}

// Full allocates a Tensor of given shape with every element set to v.
func Full(v float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Data:  append([]float64(nil), t.Data...),
		Shape: append([]int(nil), t.Shape...),
	}
}

// Size is the number of elements.
func (t *Tensor) Size() int { return len(t.Data) }

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Tensor) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Dims4 returns the dimensions of a 4-D (batch, channels, height, width) tensor.
func (t *Tensor) Dims4() (b, c, h, w int, err error) {
	if len(t.Shape) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected 4-D tensor, got shape %v: %w", t.Shape, ErrShapeMismatch)
	}
	return t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3], nil
}

// Add returns a+b (same shape), or error if shapes differ.
func Add(a, b *Tensor) (*Tensor, error) {
	if !SameShape(a, b) {
		return nil, fmt.Errorf("add %v and %v: %w", a.Shape, b.Shape, ErrShapeMismatch)
	}
	out := New(a.Shape...)
	floats.AddTo(out.Data, a.Data, b.Data)
	return out, nil
}

// MaxAbsDiff returns the largest element-wise |a-b|.
func MaxAbsDiff(a, b *Tensor) (float64, error) {
	if !SameShape(a, b) {
		return 0, fmt.Errorf("compare %v and %v: %w", a.Shape, b.Shape, ErrShapeMismatch)
	}
	if len(a.Data) == 0 {
		return 0, nil
	}
	return floats.Distance(a.Data, b.Data, inf), nil
}

// MaxAbs returns the largest |v| over all elements.
func (t *Tensor) MaxAbs() float64 {
	if len(t.Data) == 0 {
		return 0
	}
	return floats.Norm(t.Data, inf)
}

// At returns the element at the given indices.
// For a 4D tensor [a, b, c, d], At(i, j, k, l) returns the element at position [i][j][k][l].
func (t *Tensor) At(indices ...int) float64 {
	return t.Data[t.offset("At", indices)]
}

// Set sets the element at the given indices to the given value.
func (t *Tensor) Set(value float64, indices ...int) {
	t.Data[t.offset("Set", indices)] = value
}

func (t *Tensor) offset(op string, indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("%s: expected %d indices, got %d", op, len(t.Shape), len(indices)))
	}

	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("%s: index %d out of bounds for dimension %d (shape: %v)", op, indices[i], i, t.Shape))
		}
		idx += indices[i] * stride
		stride *= t.Shape[i]
	}
	return idx
}
