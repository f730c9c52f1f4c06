package rnn

import (
	"fmt"
)

// An Array couples a value vector with an optional activation function, the
// pre-activation snapshot the backward pass needs, and a gradient buffer.
// Arrays back every layer input, output and gate inside a timestep.
type Array struct {
	Values []float64
	// NotActivated holds the values as they were before Activate. It is nil
	// unless an activation function is set.
	NotActivated []float64
	Errors       []float64

	act       Activation
	hasAct    bool
	activated bool
}

// NewArray returns an Array of size n with no activation function.
func NewArray(n int) *Array {
	return &Array{
		Values: make([]float64, n),
		Errors: make([]float64, n),
	}
}

// NewActArray returns an Array of size n whose values are mapped through act
// by Activate.
func NewActArray(n int, act Activation) *Array {
	a := NewArray(n)
	a.act = act
	a.hasAct = true
	a.NotActivated = make([]float64, n)
	return a
}

func (a *Array) Size() int {
	return len(a.Values)
}

// SetValues copies v into the array, replacing previous contents.
func (a *Array) SetValues(v []float64) {
	if len(v) != len(a.Values) {
		panic(fmt.Sprintf("rnn: set %d values on array of size %d", len(v), len(a.Values)))
	}
	copy(a.Values, v)
	a.activated = false
}

// Activate snapshots the current values into NotActivated and maps Values
// through the activation in place. It must be called exactly once per forward
// pass; a second call panics.
func (a *Array) Activate() {
	if !a.hasAct {
		return
	}
	if a.activated {
		panic("rnn: Activate called twice on the same array")
	}
	copy(a.NotActivated, a.Values)
	for i, v := range a.Values {
		a.Values[i] = a.act.At(v)
	}
	a.activated = true
}

// Deriv returns the activation derivative at position i, computed from the
// activated value.
func (a *Array) Deriv(i int) float64 {
	if !a.hasAct {
		return 1
	}
	return a.act.DerivActivated(a.Values[i])
}
