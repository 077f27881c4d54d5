// Package neural implements the feed-forward multi-layer perceptron that
// both the saddle-point regression demo and the DDPG actor/critic train on.
//
// The teacher's neural.Layer (milosgajdos-go-neural/neural/layer.go) wraps a
// single weights matrix plus a string-keyed activations table and works in
// the classifier convention of one example per row. This package keeps the
// Layer/MLP split and the gonum-backed weights matrix, but the batch
// convention is the reference implementation's: weights are (out x in), and
// a layer's own output, error and gradient buffers are preallocated once at
// construction and reused for every Feedforward/Backpropagate call, matching
// the reference's no-allocation-during-training discipline and avoiding
// matrix.Clone on every step.
package neural

import (
	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/matrix"
)

// Layer holds one layer's weights and the scratch buffers its forward and
// backward passes write into. out is the layer's width, in is the previous
// layer's width (or the network's input width for layer 0), batch is the
// number of examples processed per step.
type Layer struct {
	out, in, batch int
	kind           activation.Kind

	// weights is (out x in); biases and output are (out x batch), matching
	// the layer's column-major internal convention.
	weights *matrix.Matrix
	biases  *matrix.Matrix
	output  *matrix.Matrix

	// errors and deltas are (batch x out), the row-major convention the
	// backward pass propagates them in.
	errors *matrix.Matrix
	deltas *matrix.Matrix

	gradWeights *matrix.Matrix
	gradBiases  *matrix.Matrix
}

func newLayer(in, out, batch int, kind activation.Kind) *Layer {
	return &Layer{
		out: out, in: in, batch: batch, kind: kind,
		weights:     matrix.New(out, in),
		biases:      matrix.New(out, batch),
		output:      matrix.New(out, batch),
		errors:      matrix.New(batch, out),
		deltas:      matrix.New(batch, out),
		gradWeights: matrix.New(out, in),
		gradBiases:  matrix.New(out, batch),
	}
}

func (l *Layer) destroy() {
	l.weights.Destroy()
	l.biases.Destroy()
	l.output.Destroy()
	l.errors.Destroy()
	l.deltas.Destroy()
	l.gradWeights.Destroy()
	l.gradBiases.Destroy()
}

func (l *Layer) clone() *Layer {
	return &Layer{
		out: l.out, in: l.in, batch: l.batch, kind: l.kind,
		weights:     matrix.Clone(l.weights),
		biases:      matrix.Clone(l.biases),
		output:      matrix.Clone(l.output),
		errors:      matrix.Clone(l.errors),
		deltas:      matrix.Clone(l.deltas),
		gradWeights: matrix.Clone(l.gradWeights),
		gradBiases:  matrix.Clone(l.gradBiases),
	}
}

// copyFrom overwrites l's weights and biases with src's. It does not touch
// the scratch buffers (output, errors, deltas, gradients): those are
// recomputed on the next Feedforward/Backpropagate.
func (l *Layer) copyFrom(src *Layer) error {
	if err := matrix.Copy(l.weights, src.weights); err != nil {
		return err
	}
	return matrix.Copy(l.biases, src.biases)
}

func (l *Layer) activate(_, _ int, v float64) float64 {
	return activation.Activate(l.kind, v)
}

func (l *Layer) derivative(_, _ int, v float64) float64 {
	return activation.Derivative(l.kind, v)
}

// Weights returns the layer's (out x in) weights matrix. The returned
// Matrix is a borrow; optim mutates it directly during a gradient step.
func (l *Layer) Weights() *matrix.Matrix { return l.weights }

// Biases returns the layer's (out x batch) biases matrix.
func (l *Layer) Biases() *matrix.Matrix { return l.biases }

// GradWeights returns the layer's (out x in) weight gradient, populated by
// the most recent Backpropagate call.
func (l *Layer) GradWeights() *matrix.Matrix { return l.gradWeights }

// GradBiases returns the layer's (out x batch) bias gradient, populated by
// the most recent Backpropagate call.
func (l *Layer) GradBiases() *matrix.Matrix { return l.gradBiases }
