package neural

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/loss"
	"github.com/milosgajdos/deepnet/pkg/matrix"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

// MLP is a fully-connected feed-forward network: depth+1 Layers, the last
// being the output layer. Its public Feedforward/Backpropagate interface is
// row-major batch-first (B x features), matching spec's public matrix
// convention; internally each Layer works column-major (features x B), so
// every forward/backward step transposes at the boundary, exactly as the
// reference mlp_feedforward/mlp_backpropagate do.
type MLP struct {
	depth, batch          int
	inputSize, outputSize int
	layers                []*Layer

	input       *matrix.Matrix // inputSize x batch
	inputErrors *matrix.Matrix // batch x inputSize
	output      *matrix.Matrix // batch x outputSize
}

// New builds an MLP with the given input/output widths, hidden layer sizes
// (len(hidden) must equal depth), a shared activation for every hidden layer
// and a separate activation for the output layer, and the fixed batch size
// every Feedforward/Backpropagate call must use. Weights are Glorot-uniform
// initialized from src.
func New(inputSize, outputSize, depth int, hidden []int, hiddenKind, outputKind activation.Kind, batch int, src *rng.Source) (*MLP, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("neural: input and output sizes must be positive, got %d, %d", inputSize, outputSize)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("neural: batch size must be positive, got %d", batch)
	}
	if depth < 0 || depth != len(hidden) {
		return nil, fmt.Errorf("neural: depth %d does not match %d hidden layer sizes", depth, len(hidden))
	}

	layers := make([]*Layer, depth+1)
	in := inputSize
	for i := 0; i < depth; i++ {
		if hidden[i] <= 0 {
			return nil, fmt.Errorf("neural: hidden layer %d size must be positive, got %d", i, hidden[i])
		}
		layers[i] = newLayer(in, hidden[i], batch, hiddenKind)
		in = hidden[i]
	}
	layers[depth] = newLayer(in, outputSize, batch, outputKind)

	m := &MLP{
		depth: depth, batch: batch,
		inputSize: inputSize, outputSize: outputSize,
		layers:      layers,
		input:       matrix.New(inputSize, batch),
		inputErrors: matrix.New(batch, inputSize),
		output:      matrix.New(batch, outputSize),
	}
	m.Initialize(src)
	return m, nil
}

// Initialize re-draws every layer's weights from a Glorot-uniform
// distribution, limit = sqrt(6 / (fan_in + fan_out)), and clears every
// scratch buffer (biases, outputs, errors, deltas, gradients), matching the
// reference's mlp_initialize.
func (m *MLP) Initialize(src *rng.Source) {
	for _, l := range m.layers {
		limit := math.Sqrt(6.0 / float64(l.in+l.out))
		matrix.Randomize(l.weights, src, -limit, limit)
		matrix.Clear(l.biases)
		matrix.Clear(l.output)
		matrix.Clear(l.errors)
		matrix.Clear(l.deltas)
		matrix.Clear(l.gradWeights)
		matrix.Clear(l.gradBiases)
	}
	matrix.Clear(m.input)
	matrix.Clear(m.inputErrors)
	matrix.Clear(m.output)
}

// Destroy releases every buffer owned by m, including every layer's. m must
// not be used afterwards.
func (m *MLP) Destroy() {
	for _, l := range m.layers {
		l.destroy()
	}
	m.input.Destroy()
	m.inputErrors.Destroy()
	m.output.Destroy()
}

// Clone deep-copies m, including every scratch buffer, matching the
// reference's mlp_clone. It is used to build DDPG's target networks.
func (m *MLP) Clone() *MLP {
	layers := make([]*Layer, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l.clone()
	}
	return &MLP{
		depth: m.depth, batch: m.batch,
		inputSize: m.inputSize, outputSize: m.outputSize,
		layers:      layers,
		input:       matrix.Clone(m.input),
		inputErrors: matrix.Clone(m.inputErrors),
		output:      matrix.Clone(m.output),
	}
}

// CopyFrom overwrites dst's weights and biases with src's. Both must share
// identical architecture (depth, batch, and every layer's shape). This is a
// hard structural copy, not a Polyak average, matching the reference's
// mlp_copy / ddpg_update_target_networks.
func (m *MLP) CopyFrom(src *MLP) error {
	if m.depth != src.depth || m.batch != src.batch || m.inputSize != src.inputSize || m.outputSize != src.outputSize {
		return fmt.Errorf("neural: CopyFrom: architecture mismatch")
	}
	for i := range m.layers {
		if err := m.layers[i].copyFrom(src.layers[i]); err != nil {
			return err
		}
	}
	return nil
}

// Feedforward runs one forward pass over x (batch x inputSize) and returns
// the network's output (batch x outputSize). The returned Matrix is a
// borrow owned by m; it is overwritten by the next Feedforward call.
func (m *MLP) Feedforward(x *matrix.Matrix) (*matrix.Matrix, error) {
	if err := matrix.Transpose(x, m.input); err != nil {
		return nil, err
	}

	prev := m.input
	for _, l := range m.layers {
		if err := matrix.Dot(l.weights, prev, l.output); err != nil {
			return nil, err
		}
		if err := matrix.Add(l.output, l.biases); err != nil {
			return nil, err
		}
		matrix.Apply(l.output, l.activate)
		prev = l.output
	}

	if err := matrix.Transpose(prev, m.output); err != nil {
		return nil, err
	}
	return m.output, nil
}

// Backpropagate runs backward from m's most recent Feedforward output
// against target y (batch x outputSize), computing every layer's gradient
// and m's input-error gradient, and returns the scalar loss. lossKind
// selects the output-layer loss: loss.None treats y as an already-computed
// output error (used by DDPG's critic-through-actor chaining), loss.MSE
// computes mean squared error against a true target.
func (m *MLP) Backpropagate(y *matrix.Matrix, lossKind loss.Kind) (float64, error) {
	out := m.layers[m.depth]
	lossFn := loss.Resolve(lossKind)
	lossVal, err := lossFn(m.output, y, out.errors)
	if err != nil {
		return 0, err
	}

	if err := matrix.Copy(out.deltas, m.output); err != nil {
		return 0, err
	}
	matrix.Apply(out.deltas, out.derivative)
	if m.depth > 0 {
		if err := matrix.Odot(out.deltas, out.errors); err != nil {
			return 0, err
		}
	}

	for i := m.depth - 1; i >= 0; i-- {
		next, cur := m.layers[i+1], m.layers[i]
		if err := matrix.Dot(next.deltas, next.weights, cur.errors); err != nil {
			return 0, err
		}
		if err := matrix.Transpose(cur.output, cur.deltas); err != nil {
			return 0, err
		}
		matrix.Apply(cur.deltas, cur.derivative)
		if err := matrix.Odot(cur.deltas, cur.errors); err != nil {
			return 0, err
		}
	}

	first := m.layers[0]
	if err := matrix.Dot(first.deltas, first.weights, m.inputErrors); err != nil {
		return 0, err
	}

	prev := m.input
	for _, l := range m.layers {
		if err := matrix.DotTranspose(prev, l.deltas, l.gradWeights); err != nil {
			return 0, err
		}
		matrix.Divide(l.gradWeights, float64(m.batch))

		if err := matrix.SumRowsTranspose(l.deltas, l.gradBiases); err != nil {
			return 0, err
		}
		matrix.Divide(l.gradBiases, float64(m.batch))

		prev = l.output
	}

	return lossVal, nil
}

// InputErrors returns the gradient of the loss with respect to m's input
// (batch x inputSize), populated by the most recent Backpropagate call. DDPG
// uses this to chain the critic's error back into the actor's output error.
// The returned Matrix is a borrow.
func (m *MLP) InputErrors() *matrix.Matrix { return m.inputErrors }

// Output returns m's most recent Feedforward result (batch x outputSize).
// The returned Matrix is a borrow.
func (m *MLP) Output() *matrix.Matrix { return m.output }

// Layers returns m's layers in order, layer 0 first. Callers (optim.Adam)
// use this to size and index per-layer moment buffers; they must not retain
// the slice past a Destroy.
func (m *MLP) Layers() []*Layer { return m.layers }

// Depth returns the number of hidden layers (the total layer count is
// Depth()+1).
func (m *MLP) Depth() int { return m.depth }

// Batch returns the fixed batch size m was constructed with.
func (m *MLP) Batch() int { return m.batch }

// SGD performs one plain gradient-descent step: every layer's weights and
// biases are updated in place as w -= lr*gradWeights, b -= lr*gradBiases.
// It mutates the gradient buffers themselves as a side effect (scaling them
// by lr), matching the reference's mlp_sgd; callers must not reuse a
// gradient after calling SGD without running Backpropagate again.
func (m *MLP) SGD(lr float64) {
	for _, l := range m.layers {
		matrix.Multiply(l.gradWeights, lr)
		matrix.Subtract(l.weights, l.gradWeights)
		matrix.Multiply(l.gradBiases, lr)
		matrix.Subtract(l.biases, l.gradBiases)
	}
}

// SGDClip is SGD with the weight gradient of every layer rescaled to have
// Frobenius norm at most clipNorm before the update. Bias gradients are not
// clipped, matching the reference's mlp_sgd_clip.
func (m *MLP) SGDClip(lr, clipNorm float64) {
	for _, l := range m.layers {
		clipGradient(l.gradWeights, clipNorm)
		matrix.Multiply(l.gradWeights, lr)
		matrix.Subtract(l.weights, l.gradWeights)
		matrix.Multiply(l.gradBiases, lr)
		matrix.Subtract(l.biases, l.gradBiases)
	}
}

func clipGradient(g *matrix.Matrix, clipNorm float64) {
	norm := matrix.FrobeniusNorm(g)
	if norm > clipNorm {
		matrix.Multiply(g, clipNorm/norm)
	}
}

// WriteWeights serializes every layer's weights and biases, in layer order,
// using matrix.Write's binary format.
func (m *MLP) WriteWeights(w io.Writer) error {
	for _, l := range m.layers {
		if err := matrix.Write(l.weights, w); err != nil {
			return err
		}
		if err := matrix.Write(l.biases, w); err != nil {
			return err
		}
	}
	return nil
}

// ReadWeights overwrites m's weights and biases, in layer order, from a
// stream written by WriteWeights. Each matrix's shape is validated against
// the corresponding layer's existing shape; a mismatch returns a
// *matrix.ShapeError. Layers read before the mismatch keep their newly read
// values: the read is not rolled back.
func (m *MLP) ReadWeights(r io.Reader) error {
	for _, l := range m.layers {
		w, err := matrix.Read(r)
		if err != nil {
			return err
		}
		err = matrix.Copy(l.weights, w)
		w.Destroy()
		if err != nil {
			return err
		}
		b, err := matrix.Read(r)
		if err != nil {
			return err
		}
		err = matrix.Copy(l.biases, b)
		b.Destroy()
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveWeights writes m's weights to a file at path via WriteWeights.
func (m *MLP) SaveWeights(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.WriteWeights(f)
}

// LoadWeights reads weights previously written with SaveWeights into m.
func (m *MLP) LoadWeights(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.ReadWeights(f)
}
