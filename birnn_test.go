package rnn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birnnNets(t *testing.T) (*Network, *Network) {
	t.Helper()
	l2r := NewNetwork(3, LayerConfig{Size: 2, Activation: Tanh, Connection: SimpleRecurrent})
	r2l := NewNetwork(3, LayerConfig{Size: 3, Activation: Tanh, Connection: GRU})
	rng := rand.New(rand.NewSource(113))
	for _, net := range []*Network{l2r, r2l} {
		net.EachUnit(func(_ int, u *ParamUnit) {
			u.Arrays(func(_ string, data []float64) {
				for i := range data {
					data[i] = 0.8 * (2*rng.Float64() - 1)
				}
			})
		})
	}
	return l2r, r2l
}

func TestBiRNNForwardConcat(t *testing.T) {
	l2r, r2l := birnnNets(t)
	xs := randomSeq(rand.New(rand.NewSource(114)), 4, 3)

	b := NewBiRNN(l2r, r2l)
	out := b.Forward(xs)
	require.Len(t, out, 4)

	fwd := NewProcessor(l2r)
	fwd.Forward(xs)
	fwdOut := fwd.OutputSequence(true)

	bwd := NewProcessor(r2l)
	bwd.Forward(reverse(xs))
	bwdOut := bwd.OutputSequence(true)

	for ti := range out {
		require.Len(t, out[ti], 5)
		assert.Equal(t, fwdOut[ti], out[ti][:2], "left half at t=%d", ti)
		assert.Equal(t, bwdOut[len(xs)-1-ti], out[ti][2:], "right half at t=%d", ti)
	}
}

func TestBiRNNInputSizeMismatch(t *testing.T) {
	a := NewNetwork(3, LayerConfig{Size: 2, Activation: Tanh, Connection: SimpleRecurrent})
	c := NewNetwork(4, LayerConfig{Size: 2, Activation: Tanh, Connection: SimpleRecurrent})
	require.Panics(t, func() { NewBiRNN(a, c) })
}

func TestBiRNNErrorSizeMismatch(t *testing.T) {
	l2r, r2l := birnnNets(t)
	b := NewBiRNN(l2r, r2l)
	xs := randomSeq(rand.New(rand.NewSource(115)), 3, 3)
	b.Forward(xs)
	errs := [][]float64{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}}
	require.Panics(t, func() { b.Backward(errs, false) })
}

func TestBiRNNInputGradients(t *testing.T) {
	l2r, r2l := birnnNets(t)
	xs := randomSeq(rand.New(rand.NewSource(116)), 4, 3)
	ys := randomSeq(rand.New(rand.NewSource(117)), 4, 5)

	b := NewBiRNN(l2r, r2l)

	loss := func() float64 { return seqLoss(b.Forward(xs), ys) }
	loss0 := loss()

	out := b.Forward(xs)
	errs := make([][]float64, len(ys))
	for ti := range ys {
		e := make([]float64, len(ys[ti]))
		for i := range e {
			e[i] = out[ti][i] - ys[ti][i]
		}
		errs[ti] = e
	}
	b.Backward(errs, true)
	inErrs := b.InputErrors()

	for ti := range xs {
		for j := range xs[ti] {
			x := xs[ti][j]
			h := machineEpsilonSqrt * math.Max(math.Abs(x), 1)
			xs[ti][j] = x + h
			numeric := (loss() - loss0) / h
			xs[ti][j] = x
			if d := relDiff(inErrs[ti][j], numeric); d > 1e-5 {
				t.Errorf("wrong input gradient at t=%d i=%d expected %f, got %f", ti, j, numeric, inErrs[ti][j])
			}
		}
	}
}
