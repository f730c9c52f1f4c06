package rnn

import (
	"math"
)

const (
	machineEpsilon     = 2.2e-16
	machineEpsilonSqrt = 1e-8 // math.Sqrt(machineEpsilon)
)

// An Activation identifies the function an Array applies in place to its
// values at the end of a forward pass.
type Activation int

const (
	Identity Activation = iota
	Tanh
	Sigmoid
	ReLU
)

func Sigmoidf(x float64) float64 {
	return 1.0 / (1 + math.Exp(-x))
}

// At evaluates the activation at x.
func (a Activation) At(x float64) float64 {
	switch a {
	case Identity:
		return x
	case Tanh:
		return math.Tanh(x)
	case Sigmoid:
		return Sigmoidf(x)
	case ReLU:
		return math.Max(0, x)
	}
	panic("rnn: unknown activation")
}

// DerivActivated returns the derivative of the activation expressed in terms
// of the already activated value y, e.g. tanh' = 1 - y*y.
func (a Activation) DerivActivated(y float64) float64 {
	switch a {
	case Identity:
		return 1
	case Tanh:
		return 1 - y*y
	case Sigmoid:
		return y * (1 - y)
	case ReLU:
		if y > 0 {
			return 1
		}
		return 0
	}
	panic("rnn: unknown activation")
}

func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case Tanh:
		return "tanh"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	}
	return "unknown"
}

// MakeTensor2 allocates an n by m matrix of zeros.
func MakeTensor2(n, m int) [][]float64 {
	t := make([][]float64, n)
	for i := 0; i < len(t); i++ {
		t[i] = make([]float64, m)
	}
	return t
}
