package neural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/matrix"
)

func TestNewLayerShapes(t *testing.T) {
	assert := assert.New(t)

	l := newLayer(3, 4, 2, activation.ReLU)
	r, c := l.Weights().Dims()
	assert.Equal(4, r)
	assert.Equal(3, c)
	r, c = l.Biases().Dims()
	assert.Equal(4, r)
	assert.Equal(2, c)
	r, c = l.GradWeights().Dims()
	assert.Equal(4, r)
	assert.Equal(3, c)
}

func TestLayerCloneIsIndependent(t *testing.T) {
	assert := assert.New(t)

	l := newLayer(2, 2, 2, activation.Sigmoid)
	l.weights.Set(0, 0, 1.5)
	clone := l.clone()
	clone.weights.Set(0, 0, -2.0)
	assert.Equal(1.5, l.weights.At(0, 0))
	assert.Equal(-2.0, clone.weights.At(0, 0))
}

func TestLayerCopyFromLeavesScratchAlone(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	src := newLayer(2, 2, 2, activation.Sigmoid)
	src.weights.Set(0, 0, 9)
	src.biases.Set(0, 0, 7)

	dst := newLayer(2, 2, 2, activation.Sigmoid)
	dst.output.Set(0, 0, 3)
	require.NoError(dst.copyFrom(src))

	assert.Equal(9.0, dst.weights.At(0, 0))
	assert.Equal(7.0, dst.biases.At(0, 0))
	assert.Equal(3.0, dst.output.At(0, 0), "copyFrom must not touch scratch buffers")
}

func TestLayerActivateAndDerivative(t *testing.T) {
	assert := assert.New(t)

	l := newLayer(1, 1, 1, activation.ReLU)
	assert.Equal(0.0, l.activate(0, 0, -1))
	assert.Equal(2.0, l.activate(0, 0, 2))
	assert.Equal(1.0, l.derivative(0, 0, 2))
}

func TestLayerDestroyPoisonsBuffers(t *testing.T) {
	assert := assert.New(t)

	l := newLayer(1, 1, 1, activation.Linear)
	l.destroy()
	assert.Panics(func() { l.weights.At(0, 0) })
	var _ *matrix.Matrix = l.weights
}
