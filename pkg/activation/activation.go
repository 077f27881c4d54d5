// Package activation provides the pointwise activation functions and their
// derivatives used by neural network layers, mirroring the teacher's
// matrix.SigmoidMx/TanhMx/ReluMx table (milosgajdos-go-neural/pkg/matrix/functions.go)
// but expressed as a closed, tagged enumeration per the Design Notes in
// spec.md §9 rather than a map of string keys to function pointers.
//
// Every derivative is expressed on the activation's own *output* y = f(x),
// not on x, so a layer never needs to retain its pre-activation values.
package activation

import "math"

// Kind identifies one of the four supported activation functions. Unknown
// values resolve to Linear, matching the reference's getActivationFunction
// default case.
type Kind int

const (
	Linear Kind = iota
	Sigmoid
	Tanh
	ReLU
)

func (k Kind) String() string {
	switch k {
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case ReLU:
		return "relu"
	default:
		return "linear"
	}
}

// Func is a pointwise scalar function, f(x) for an activation or f'(y) for
// a derivative.
type Func func(float64) float64

// Activate applies the activation function named by kind to x.
func Activate(kind Kind, x float64) float64 {
	switch kind {
	case Sigmoid:
		return sigmoid(x)
	case Tanh:
		return math.Tanh(x)
	case ReLU:
		if x >= 0 {
			return x
		}
		return 0
	default:
		return x
	}
}

// Derivative applies the derivative of the activation named by kind,
// evaluated at the activation's own output y (not at the pre-activation
// input).
func Derivative(kind Kind, y float64) float64 {
	switch kind {
	case Sigmoid:
		return y * (1 - y)
	case Tanh:
		return 1 - y*y
	case ReLU:
		if y > 0 {
			return 1
		}
		return 0
	default:
		return 1
	}
}

// sigmoid mirrors the reference's activation_sigmoid exactly, including its
// negative branch: "1.0 - (1.0 / 1 + exp(x))" parses as (1.0/1) + exp(x),
// so the branch evaluates to -exp(x) rather than the correct sigmoid value.
// Potential defects to preserve or flag (spec.md §9) calls this out by name;
// it is kept verbatim here rather than silently corrected. Use Tanh for any
// test that exercises negative inputs meaningfully.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	return 1.0 - (1.0/1 + math.Exp(x))
}

// ParseKind maps a manifest activation name to its Kind. It is the
// validating counterpart to String, used by pkg/config.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "linear", "":
		return Linear, true
	case "sigmoid":
		return Sigmoid, true
	case "tanh":
		return Tanh, true
	case "relu":
		return ReLU, true
	default:
		return Linear, false
	}
}
