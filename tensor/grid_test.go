package tensor

import (
	"errors"
	"testing"
)

func seq(shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.Data {
		t.Data[i] = float64(i)
	}
	return t
}

func TestPadCircularWraps(t *testing.T) {
	x := seq(1, 1, 3, 3) // 0..8
	p, err := PadCircular(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Shape[2] != 5 || p.Shape[3] != 5 {
		t.Fatalf("unexpected padded shape %v", p.Shape)
	}
	// corners wrap to the opposite corner
	if p.At(0, 0, 0, 0) != 8 || p.At(0, 0, 4, 4) != 0 || p.At(0, 0, 0, 4) != 6 || p.At(0, 0, 4, 0) != 2 {
		t.Fatalf("corner wrap incorrect: %v", p.Data)
	}
	// interior is the original grid
	for y := 0; y < 3; y++ {
		for xx := 0; xx < 3; xx++ {
			if p.At(0, 0, y+1, xx+1) != x.At(0, 0, y, xx) {
				t.Fatalf("interior mismatch at %d,%d", y, xx)
			}
		}
	}
}

func TestCropInteriorUndoesPad(t *testing.T) {
	x := seq(2, 3, 4, 5)
	p, err := PadCircular(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	c, err := CropInterior(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	d, err := MaxAbsDiff(x, c)
	if err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Fatalf("crop(pad(x)) != x, diff %f", d)
	}
	if _, err := CropInterior(New(1, 1, 2, 2), 1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for empty interior, got %v", err)
	}
}

func TestConcatAndSliceChannels(t *testing.T) {
	a := Full(1, 2, 1, 2, 2)
	b := Full(2, 2, 2, 2, 2)
	c, err := ConcatChannels(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if c.Shape[1] != 3 {
		t.Fatalf("expected 3 channels, got %v", c.Shape)
	}
	if c.At(1, 0, 1, 1) != 1 || c.At(1, 2, 0, 0) != 2 {
		t.Fatalf("concat placed channels incorrectly")
	}
	s, err := SliceChannels(c, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := MaxAbsDiff(s, b)
	if d != 0 {
		t.Fatalf("slice did not recover second operand")
	}
	if _, err := ConcatChannels(a, New(2, 1, 3, 3)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestAddChannels(t *testing.T) {
	dst := New(2, 4, 2, 2)
	delta := Full(0.5, 2, 3, 2, 2)
	if err := AddChannels(dst, delta, 1); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 2; n++ {
		if dst.At(n, 0, 0, 0) != 0 {
			t.Fatalf("reserved channel modified")
		}
		if dst.At(n, 3, 1, 1) != 0.5 {
			t.Fatalf("hidden channel not updated")
		}
	}
	if err := AddChannels(dst, delta, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for overflowing delta, got %v", err)
	}
}
