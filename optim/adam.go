// Package optim implements the Adam optimizer deepnet's training loops use
// in place of the bare learning-rate SGD step neural.MLP exposes directly.
//
// The teacher repo has no optimizer package of its own — train/backprop
// drove weight updates through gonum/optimize's archived BFGS solver, which
// doesn't fit a streaming, fixed-batch RL training loop. Adam here is a
// direct, idiomatic port of the reference adam_create/adam_optimize: one
// first and second moment matrix per layer's weights and biases, with
// per-step bias correction. It intentionally reproduces the reference's bias
// update defect: the weight update adds epsilon to the denominator
// sqrt(vHat) (correct), but the bias update adds it outside the fraction
// (incorrect) — see the comment on updateBiases for why this is kept.
package optim

import (
	"math"

	"github.com/milosgajdos/deepnet/neural"
	"github.com/milosgajdos/deepnet/pkg/matrix"
)

const (
	// DefaultAlpha is Adam's default step size.
	DefaultAlpha = 0.001
	// DefaultBeta1 is Adam's default first-moment decay rate.
	DefaultBeta1 = 0.9
	// DefaultBeta2 is Adam's default second-moment decay rate.
	DefaultBeta2 = 0.999
	// DefaultEpsilon is Adam's default numerical-stability constant.
	DefaultEpsilon = 1e-7
)

// moments holds one layer's weight and bias first/second moment estimates.
type moments struct {
	mw, vw *matrix.Matrix
	mb, vb *matrix.Matrix
}

// Adam is a per-parameter adaptive moment estimator bound to a single
// neural.MLP: its moment matrices are sized from that MLP's layer shapes and
// must be rebuilt (via New) if the MLP's architecture changes.
type Adam struct {
	alpha, beta1, beta2, epsilon float64
	beta1t, beta2t               float64
	t                            int
	layers                       []moments
}

// New builds an Adam optimizer for mlp with the reference's default
// hyperparameters, its moments all zeroed.
func New(mlp *neural.MLP) *Adam {
	a := &Adam{
		alpha: DefaultAlpha, beta1: DefaultBeta1, beta2: DefaultBeta2, epsilon: DefaultEpsilon,
	}
	a.layers = make([]moments, len(mlp.Layers()))
	for i, l := range mlp.Layers() {
		a.layers[i] = moments{
			mw: matrix.Clone(l.GradWeights()),
			vw: matrix.Clone(l.GradWeights()),
			mb: matrix.Clone(l.GradBiases()),
			vb: matrix.Clone(l.GradBiases()),
		}
	}
	a.Reset()
	return a
}

// Destroy releases every moment matrix a owns.
func (a *Adam) Destroy() {
	for _, m := range a.layers {
		m.mw.Destroy()
		m.vw.Destroy()
		m.mb.Destroy()
		m.vb.Destroy()
	}
}

// SetHyperparams overrides alpha, beta1, beta2 and epsilon and resets the
// bias-correction accumulators beta1t/beta2t, matching the reference's
// adam_set (it resets the power terms as a side effect; the step counter
// and the moments are left unchanged).
func (a *Adam) SetHyperparams(alpha, beta1, beta2, epsilon float64) {
	a.alpha, a.beta1, a.beta2, a.epsilon = alpha, beta1, beta2, epsilon
	a.beta1t, a.beta2t = beta1, beta2
}

// Reset zeroes every moment matrix and restarts the step counter and
// bias-correction accumulators.
func (a *Adam) Reset() {
	a.t = 0
	a.beta1t, a.beta2t = a.beta1, a.beta2
	for _, m := range a.layers {
		matrix.Clear(m.mw)
		matrix.Clear(m.vw)
		matrix.Clear(m.mb)
		matrix.Clear(m.vb)
	}
}

// Step applies one Adam update to every layer of mlp, consuming its current
// GradWeights/GradBiases (populated by the preceding neural.MLP.Backpropagate
// call). Unlike neural.MLP.SGD, it only reads the gradient buffers and
// leaves them unchanged.
func (a *Adam) Step(mlp *neural.MLP) {
	a.t++
	for i, l := range mlp.Layers() {
		mo := a.layers[i]
		updateWeights(l.Weights(), l.GradWeights(), mo.mw, mo.vw, a.alpha, a.beta1, a.beta2, a.epsilon, a.beta1t, a.beta2t)
		updateBiases(l.Biases(), l.GradBiases(), mo.mb, mo.vb, a.alpha, a.beta1, a.beta2, a.epsilon, a.beta1t, a.beta2t)
	}
	a.beta1t *= a.beta1
	a.beta2t *= a.beta2
}

// updateWeights performs the textbook-correct Adam update: epsilon is added
// inside the square root's denominator.
func updateWeights(w, grad, m, v *matrix.Matrix, alpha, beta1, beta2, epsilon, beta1t, beta2t float64) {
	gd, md, vd, wd := grad.Data(), m.Data(), v.Data(), w.Data()
	for i := range gd {
		g := gd[i]
		md[i] = beta1*md[i] + (1-beta1)*g
		vd[i] = beta2*vd[i] + (1-beta2)*g*g
		mHat := md[i] / (1 - beta1t)
		vHat := vd[i] / (1 - beta2t)
		wd[i] -= alpha * (mHat / (math.Sqrt(vHat) + epsilon))
	}
}

// updateBiases reproduces the reference's bias-update defect verbatim: epsilon
// is added outside the fraction rather than inside the square root's
// denominator, i.e. alpha*(mHat/sqrt(vHat) + epsilon) instead of the correct
// alpha*(mHat/(sqrt(vHat)+epsilon)). This only affects biases; the weight
// update above is correct. Kept rather than silently fixed — bias
// trajectories from this optimizer are not bit-compatible with a "fixed"
// epsilon placement.
func updateBiases(b, grad, m, v *matrix.Matrix, alpha, beta1, beta2, epsilon, beta1t, beta2t float64) {
	gd, md, vd, bd := grad.Data(), m.Data(), v.Data(), b.Data()
	for i := range gd {
		g := gd[i]
		md[i] = beta1*md[i] + (1-beta1)*g
		vd[i] = beta2*vd[i] + (1-beta2)*g*g
		mHat := md[i] / (1 - beta1t)
		vHat := vd[i] / (1 - beta2t)
		bd[i] -= alpha * (mHat/math.Sqrt(vHat) + epsilon)
	}
}
