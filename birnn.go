package rnn

import (
	"fmt"

	"github.com/gonum/floats"
)

// A BiRNN reads the same input sequence with two processors, one
// left-to-right and one right-to-left, and concatenates their outputs per
// timestep. The two networks must share the input size; their output sizes
// may differ.
type BiRNN struct {
	l2r, r2l *Processor
}

func NewBiRNN(l2r, r2l *Network) *BiRNN {
	if l2r.InputSize != r2l.InputSize {
		panic(fmt.Sprintf("rnn: bidirectional halves with input sizes %d and %d", l2r.InputSize, r2l.InputSize))
	}
	return &BiRNN{
		l2r: NewProcessor(l2r),
		r2l: NewProcessor(r2l),
	}
}

// Left and Right expose the two halves, e.g. for reading ParamsErrors.
func (b *BiRNN) Left() *Processor  { return b.l2r }
func (b *BiRNN) Right() *Processor { return b.r2l }

// Forward runs both directions and returns one concatenated output per
// timestep: the left-to-right output for timestep t followed by the
// right-to-left output for the same position.
func (b *BiRNN) Forward(xs [][]float64) [][]float64 {
	b.l2r.Forward(xs)
	b.r2l.Forward(reverse(xs))
	fwd := b.l2r.OutputSequence(false)
	bwd := b.r2l.OutputSequence(false)
	out := make([][]float64, len(xs))
	for t := range out {
		o := make([]float64, 0, len(fwd[t])+len(bwd[0]))
		o = append(o, fwd[t]...)
		o = append(o, bwd[len(bwd)-1-t]...)
		out[t] = o
	}
	return out
}

// Backward splits each concatenated error vector between the two halves and
// runs both backward passes, the right-to-left one over the reversed errors.
func (b *BiRNN) Backward(errs [][]float64, propagateToInput bool) {
	nl := b.l2r.Network().OutputSize()
	nr := b.r2l.Network().OutputSize()
	left := make([][]float64, len(errs))
	right := make([][]float64, len(errs))
	for t, e := range errs {
		if len(e) != nl+nr {
			panic(fmt.Sprintf("rnn: bidirectional error of size %d, want %d", len(e), nl+nr))
		}
		left[t] = e[:nl]
		right[len(errs)-1-t] = e[nl:]
	}
	b.l2r.Backward(left, propagateToInput)
	b.r2l.Backward(right, propagateToInput)
}

// InputErrors sums the gradients both directions propagated into each input.
// The rows are freshly allocated.
func (b *BiRNN) InputErrors() [][]float64 {
	fwd := b.l2r.InputErrors(false)
	bwd := b.r2l.InputErrors(false)
	out := make([][]float64, len(fwd))
	for t := range out {
		e := append([]float64(nil), fwd[t]...)
		floats.Add(e, bwd[len(bwd)-1-t])
		out[t] = e
	}
	return out
}

func reverse(xs [][]float64) [][]float64 {
	r := make([][]float64, len(xs))
	for i, x := range xs {
		r[len(xs)-1-i] = x
	}
	return r
}
