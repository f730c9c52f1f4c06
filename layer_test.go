package rnn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Recording must not perturb the computation: the recorded pass and the plain
// pass produce bit-identical outputs.
func TestForwardRecordingMatchesForward(t *testing.T) {
	net := randomNet(t, SimpleRecurrent, 19)
	xs := randomSeq(rand.New(rand.NewSource(7)), 3, 3)

	plain := NewSequence(net)
	recorded := NewSequence(net)
	for _, x := range xs {
		pst := plain.Add(x)
		rst := recorded.Add(x)
		for li := range pst.layers {
			pst.Layer(li).Forward()
			rst.Layer(li).ForwardRecording(net.NewGrads()[li])
		}
		require.Equal(t, pst.Output().Values, rst.Output().Values)
	}
}

// Each recorded entry is one source's share of the preactivation: the row sum
// of the weight contributions plus the bias reproduces NotActivated.
func TestRecordedContributionsSumToPreactivation(t *testing.T) {
	net := randomNet(t, SimpleRecurrent, 23)
	xs := randomSeq(rand.New(rand.NewSource(11)), 2, 3)

	seq := NewSequence(net)
	for ti, x := range xs {
		st := seq.Add(x)
		grads := net.NewGrads()
		for li := range st.layers {
			st.Layer(li).ForwardRecording(grads[li])
		}
		c := grads[0][0]
		out := st.Layer(0).Output()
		for i := 0; i < c.W.Rows; i++ {
			sum := c.B[i]
			for j := 0; j < c.W.Cols; j++ {
				sum += c.W.Data[i*c.W.Stride+j]
			}
			for j := 0; j < c.WRec.Cols; j++ {
				sum += c.WRec.Data[i*c.WRec.Stride+j]
			}
			assert.InDelta(t, out.NotActivated[i], sum, 1e-12, "t=%d row %d", ti, i)
		}
	}
}

func TestRecordedContributionValues(t *testing.T) {
	net := fixtureNet()
	seq := NewSequence(net)
	st := seq.Add(fixtureInputs[0])
	grads := net.NewGrads()
	st.Layer(0).ForwardRecording(grads[0])

	u := net.Params[0][0]
	c := grads[0][0]
	for i := 0; i < u.W.Rows; i++ {
		for j := 0; j < u.W.Cols; j++ {
			want := u.W.Data[i*u.W.Stride+j] * fixtureInputs[0][j]
			assert.Equal(t, want, c.W.Data[i*c.W.Stride+j], "entry (%d,%d)", i, j)
		}
	}
	assert.Equal(t, u.B, c.B)
}

func TestOutputGradShapeMismatch(t *testing.T) {
	net := fixtureNet()
	p := NewProcessor(net)
	p.Forward(fixtureInputs)
	l := p.Sequence().At(0).Layer(0)
	require.Panics(t, func() {
		l.Backward([]float64{1, 2, 3}, net.NewGrads()[0], false)
	})
}
