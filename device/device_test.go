package device

import (
	"testing"

	"mednca/core/ckkswrapper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	k, err := Parse(" BLAS ")
	require.NoError(t, err)
	assert.Equal(t, BLAS, k)

	k, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, CPU, k)

	_, err = Parse("cuda")
	assert.Error(t, err)
}

func TestPlacementValidate(t *testing.T) {
	assert.NoError(t, Host.Validate())
	assert.NoError(t, On(BLAS).Validate())
	assert.ErrorIs(t, On(CKKS).Validate(), ErrNoHEContext)
	assert.Error(t, Placement{Kind: "tpu"}.Validate())
}

func TestPlacementSame(t *testing.T) {
	assert.True(t, Host.Same(On(CPU)))
	assert.False(t, Host.Same(On(BLAS)))

	h1 := ckkswrapper.NewHeContext()
	h2 := ckkswrapper.NewHeContext()
	assert.True(t, Encrypted(h1).Same(Encrypted(h1)))
	assert.False(t, Encrypted(h1).Same(Encrypted(h2)))
	assert.Equal(t, "ckks(logN=13)", Encrypted(h1).String())
}
