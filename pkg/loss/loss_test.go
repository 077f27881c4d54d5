package loss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosgajdos/deepnet/pkg/matrix"
)

func TestMSE(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	yhat := matrix.New(1, 2)
	yhat.Set(0, 0, 3)
	yhat.Set(0, 1, 5)
	y := matrix.New(1, 2)
	y.Set(0, 0, 1)
	y.Set(0, 1, 1)

	errOut := matrix.New(1, 2)
	fn := Resolve(MSE)
	got, err := fn(yhat, y, errOut)
	require.NoError(err)

	assert.Equal(2.0, errOut.At(0, 0))
	assert.Equal(4.0, errOut.At(0, 1))
	assert.InDelta(10.0, got, 1e-9) // (4 + 16) / 2
}

func TestNonePassesErrorThrough(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	yhat := matrix.New(1, 2) // ignored by None
	y := matrix.New(1, 2)
	y.Set(0, 0, -1)
	y.Set(0, 1, 3)

	errOut := matrix.New(1, 2)
	fn := Resolve(None)
	got, err := fn(yhat, y, errOut)
	require.NoError(err)

	assert.Equal(-1.0, errOut.At(0, 0))
	assert.Equal(3.0, errOut.At(0, 1))
	assert.InDelta(1.0, got, 1e-9) // (-1 + 3) / 2
}

func TestUnknownKindResolvesToNone(t *testing.T) {
	assert := assert.New(t)

	fn := Resolve(Kind(99))
	yhat := matrix.New(1, 1)
	y := matrix.New(1, 1)
	y.Set(0, 0, 7)
	errOut := matrix.New(1, 1)
	got, err := fn(yhat, y, errOut)
	assert.NoError(err)
	assert.Equal(7.0, errOut.At(0, 0))
	assert.Equal(7.0, got)
}

func TestShapeMismatchPropagates(t *testing.T) {
	assert := assert.New(t)

	yhat := matrix.New(1, 2)
	y := matrix.New(1, 2)
	errOut := matrix.New(2, 2)
	_, err := Resolve(MSE)(yhat, y, errOut)
	assert.Error(err)
}
