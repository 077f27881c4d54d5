// Package loss provides the scalar loss functions MLP.Backpropagate uses to
// turn a target matrix into an output-layer error matrix, mirroring the
// teacher's neural.Cost interface (milosgajdos-go-neural/neural/cost.go) but
// over the two variants spec.md §4.3 actually requires: mean-squared-error
// and the "none" pass-through that lets a caller (DDPG's critic step) inject
// an already-computed error signal instead of a true target.
package loss

import "github.com/milosgajdos/deepnet/pkg/matrix"

// Kind identifies a loss variant.
type Kind int

const (
	// None treats y as an already-computed error and copies it straight
	// into errOut; it is not "no loss" but error-pass-through, per the
	// tagged-variant guidance in spec.md §9.
	None Kind = iota
	// MSE is the mean squared error loss.
	MSE
)

// Func computes an error matrix errOut (same shape as yhat and y) and
// returns the scalar loss value.
type Func func(yhat, y, errOut *matrix.Matrix) (float64, error)

// Resolve returns the Func for kind. Unknown kinds resolve to None.
func Resolve(kind Kind) Func {
	switch kind {
	case MSE:
		return mse
	default:
		return none
	}
}

func none(yhat, y, errOut *matrix.Matrix) (float64, error) {
	if err := matrix.Copy(errOut, y); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range errOut.Data() {
		sum += v
	}
	return sum / float64(len(errOut.Data())), nil
}

func mse(yhat, y, errOut *matrix.Matrix) (float64, error) {
	if err := matrix.Difference(yhat, y, errOut); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range errOut.Data() {
		sum += v * v
	}
	return sum / float64(len(errOut.Data())), nil
}
