package optim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosgajdos/deepnet/neural"
	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/loss"
	"github.com/milosgajdos/deepnet/pkg/matrix"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

func trainedMLP(t *testing.T) *neural.MLP {
	t.Helper()
	m, err := neural.New(3, 2, 1, []int{4}, activation.ReLU, activation.Linear, 5, rng.New(1))
	require.NoError(t, err)
	x := matrix.New(5, 3)
	matrix.Randomize(x, rng.New(2), -1, 1)
	_, err = m.Feedforward(x)
	require.NoError(t, err)
	y := matrix.New(5, 2)
	matrix.Randomize(y, rng.New(3), -1, 1)
	_, err = m.Backpropagate(y, loss.MSE)
	require.NoError(t, err)
	return m
}

func TestStepMovesWeightsAndBiases(t *testing.T) {
	assert := assert.New(t)

	m := trainedMLP(t)
	a := New(m)

	beforeW := matrix.Clone(m.Layers()[0].Weights())
	beforeB := matrix.Clone(m.Layers()[0].Biases())
	a.Step(m)

	assert.NotEqual(beforeW.Data(), m.Layers()[0].Weights().Data())
	assert.NotEqual(beforeB.Data(), m.Layers()[0].Biases().Data())
}

func TestStepIncrementsCounter(t *testing.T) {
	assert := assert.New(t)

	m := trainedMLP(t)
	a := New(m)
	a.Step(m)
	a.Step(m)
	assert.Equal(2, a.t)
}

func TestResetZeroesMoments(t *testing.T) {
	assert := assert.New(t)

	m := trainedMLP(t)
	a := New(m)
	a.Step(m)
	a.Reset()

	assert.Equal(0, a.t)
	assert.Equal(a.beta1, a.beta1t)
	for _, mo := range a.layers {
		for _, v := range mo.mw.Data() {
			assert.Equal(0.0, v)
		}
	}
}

func TestUpdateBiasesReproducesEpsilonDefect(t *testing.T) {
	assert := assert.New(t)

	b := matrix.New(1, 1)
	b.Set(0, 0, 1.0)
	grad := matrix.New(1, 1)
	grad.Set(0, 0, 2.0)
	m := matrix.New(1, 1)
	v := matrix.New(1, 1)

	alpha, beta1, beta2, epsilon := DefaultAlpha, DefaultBeta1, DefaultBeta2, DefaultEpsilon
	beta1t, beta2t := beta1, beta2

	updateBiases(b, grad, m, v, alpha, beta1, beta2, epsilon, beta1t, beta2t)

	wantM := (1 - beta1) * 2.0
	wantV := (1 - beta2) * 4.0
	mHat := wantM / (1 - beta1t)
	vHat := wantV / (1 - beta2t)
	buggy := 1.0 - alpha*(mHat/math.Sqrt(vHat)+epsilon)
	correct := 1.0 - alpha*(mHat/(math.Sqrt(vHat)+epsilon))

	assert.InDelta(buggy, b.At(0, 0), 1e-12)
	assert.NotEqual(correct, b.At(0, 0))
}

func TestUpdateWeightsAppliesEpsilonCorrectly(t *testing.T) {
	assert := assert.New(t)

	w := matrix.New(1, 1)
	w.Set(0, 0, 1.0)
	grad := matrix.New(1, 1)
	grad.Set(0, 0, 2.0)
	m := matrix.New(1, 1)
	v := matrix.New(1, 1)

	alpha, beta1, beta2, epsilon := DefaultAlpha, DefaultBeta1, DefaultBeta2, DefaultEpsilon
	beta1t, beta2t := beta1, beta2

	updateWeights(w, grad, m, v, alpha, beta1, beta2, epsilon, beta1t, beta2t)

	wantM := (1 - beta1) * 2.0
	wantV := (1 - beta2) * 4.0
	mHat := wantM / (1 - beta1t)
	vHat := wantV / (1 - beta2t)
	correct := 1.0 - alpha*(mHat/(math.Sqrt(vHat)+epsilon))

	assert.InDelta(correct, w.At(0, 0), 1e-12)
}
