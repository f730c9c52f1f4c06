package rnn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSGD(t *testing.T) {
	s := NewSGD(0.1)
	params := []float64{1, -2}
	s.Update(params, []float64{0.5, 0.25})
	assert.InDelta(t, 0.95, params[0], 1e-12)
	assert.InDelta(t, -2.025, params[1], 1e-12)
}

func TestSGDDecay(t *testing.T) {
	s := NewSGDDecay(0.1, 1)
	require.Equal(t, 0.1, s.Rate())
	NewEpoch(s)
	assert.InDelta(t, 0.05, s.Rate(), 1e-12)
	NewEpoch(s)
	assert.InDelta(t, 0.1/3, s.Rate(), 1e-12)
}

func TestMomentum(t *testing.T) {
	o := NewMomentum(0.1, 0.9)
	params := []float64{1}
	g := []float64{0.5}
	o.Update(params, g)
	assert.InDelta(t, 0.95, params[0], 1e-12)
	o.Update(params, g)
	// v = 0.9*(-0.05) - 0.05
	assert.InDelta(t, 0.855, params[0], 1e-12)
}

func TestAdaGrad(t *testing.T) {
	o := NewAdaGrad(0.1)
	params := []float64{1}
	o.Update(params, []float64{0.5})
	want := 1 - 0.1*0.5/(0.5+o.Eps)
	assert.InDelta(t, want, params[0], 1e-12)
}

func TestRMSProp(t *testing.T) {
	o := NewRMSProp(0.1, 0.9)
	params := []float64{1}
	o.Update(params, []float64{0.5})
	want := 1 - 0.1*0.5/(math.Sqrt(0.1*0.5*0.5)+o.Eps)
	assert.InDelta(t, want, params[0], 1e-12)
}

func TestAdam(t *testing.T) {
	o := NewAdam(0.001)
	params := []float64{1}
	o.Update(params, []float64{0.5})
	// With bias correction the first step is lr * g / (|g| + eps).
	want := 1 - 0.001*0.5/(0.5+o.Eps)
	assert.InDelta(t, want, params[0], 1e-9)
}

func TestAdamStatePerArray(t *testing.T) {
	o := NewAdam(0.001)
	a := []float64{1}
	b := []float64{1}
	o.Update(a, []float64{0.5})
	o.Update(b, []float64{-0.5})
	assert.InDelta(t, a[0]-1, -(b[0]-1), 1e-12, "opposite gradients move opposite ways")
	NewBatch(o)
	o.Update(a, []float64{0.5})
	assert.Less(t, a[0], b[0])
}

func TestSchedulerHooksAreOptional(t *testing.T) {
	o := NewMomentum(0.1, 0.9)
	require.NotPanics(t, func() {
		NewEpoch(o)
		NewBatch(o)
		NewExample(o)
	})
}

func TestUpdateNetwork(t *testing.T) {
	net := randomNet(t, LSTM, 83)
	before := make(map[*ParamUnit]*ParamUnit)
	net.EachUnit(func(_ int, u *ParamUnit) { before[u] = u.Copy() })

	p := NewProcessor(net)
	xs := randomSeq(rand.New(rand.NewSource(84)), 3, 3)
	ys := randomSeq(rand.New(rand.NewSource(85)), 3, 2)
	p.Forward(xs)
	p.Backward(outputErrors(p, ys), false)
	grads := p.ParamsErrors()

	UpdateNetwork(NewSGD(0.1), net, grads)

	for li, units := range net.Params {
		for ui, u := range units {
			old := before[u]
			_, ds := unitArrays(u)
			_, olds := unitArrays(old)
			_, gs := unitArrays(grads[li][ui])
			for ai := range ds {
				for i := range ds[ai] {
					assert.InDelta(t, olds[ai][i]-0.1*gs[ai][i], ds[ai][i], 1e-12)
				}
			}
		}
	}
}
