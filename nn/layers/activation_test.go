package layers

import (
	"testing"

	"mednca/tensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestReLU(t *testing.T) {
	x, err := tensor.FromData([]float64{-1, 0, 3, -0.5}, 1, 1, 2, 2)
	require.NoError(t, err)
	y, err := NewReLU().Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 3, 0}, y.Data)
	assert.Equal(t, -1.0, x.Data[0], "input must not be modified")
}

func TestDropout_EvalIsIdentity(t *testing.T) {
	d, err := NewDropout(0.5, rand.NewSource(1))
	require.NoError(t, err)
	assert.True(t, d.Training())
	d.SetTraining(false)

	x := tensor.Full(3, 1, 2, 4, 4)
	y, err := d.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, x.Data, y.Data)
}

func TestDropout_TrainingMasksAndScales(t *testing.T) {
	d, err := NewDropout(0.5, rand.NewSource(2))
	require.NoError(t, err)

	x := tensor.Full(1.5, 1, 1, 100, 100)
	y, err := d.Forward(x)
	require.NoError(t, err)

	dropped := 0
	for _, v := range y.Data {
		switch v {
		case 0:
			dropped++
		case 3:
		default:
			t.Fatalf("unexpected value %f, want 0 or 3", v)
		}
	}
	assert.InDelta(t, 5000, dropped, 300)
}

func TestDropout_Bounds(t *testing.T) {
	_, err := NewDropout(1.5, rand.NewSource(1))
	assert.Error(t, err)

	d, err := NewDropout(1, rand.NewSource(1))
	require.NoError(t, err)
	y, err := d.Forward(tensor.Full(2, 1, 1, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, y.MaxAbs())
}
