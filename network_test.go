package rnn

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkRoundtrip(t *testing.T) {
	net := NewNetwork(3,
		LayerConfig{Size: 4, Activation: Tanh, Connection: LSTM},
		LayerConfig{Size: 3, Activation: Sigmoid, Connection: DeltaRNN},
		LayerConfig{Size: 2, Activation: Identity, Connection: Feedforward},
	)
	rng := rand.New(rand.NewSource(107))
	net.EachUnit(func(_ int, u *ParamUnit) {
		u.Arrays(func(_ string, data []float64) {
			for i := range data {
				data[i] = 2*rng.Float64() - 1
			}
		})
	})

	var buf bytes.Buffer
	require.NoError(t, net.WriteTo(&buf))
	got, err := ReadNetworkFrom(&buf)
	require.NoError(t, err)

	require.Equal(t, net.InputSize, got.InputSize)
	require.Equal(t, net.Layers, got.Layers)
	require.Equal(t, net.Params, got.Params)

	xs := randomSeq(rng, 3, 3)
	require.Equal(t, NewProcessor(net).Forward(xs), NewProcessor(got).Forward(xs),
		"the restored network computes identically")
}

func TestReadNetworkFromGarbage(t *testing.T) {
	_, err := ReadNetworkFrom(bytes.NewBufferString("not a network"))
	require.Error(t, err)
}

func TestNewNetworkValidation(t *testing.T) {
	require.Panics(t, func() { NewNetwork(0, LayerConfig{Size: 2}) })
	require.Panics(t, func() { NewNetwork(3) })
	require.Panics(t, func() { NewNetwork(3, LayerConfig{Size: 0}) })
	require.Panics(t, func() { NewNetwork(3, LayerConfig{Size: 2, Connection: Connection(99)}) })
}

func TestNewNetworkDeltaVectors(t *testing.T) {
	net := NewNetwork(3, LayerConfig{Size: 2, Activation: Tanh, Connection: DeltaRNN})
	units := net.Params[0]
	require.Len(t, units, 6)
	assert.Nil(t, units[deltaUnit].B)
	for _, idx := range []int{deltaAlpha, deltaBeta1, deltaBeta2} {
		assert.Equal(t, []float64{1, 1}, units[idx].B, units[idx].Name)
	}
	for _, idx := range []int{deltaCandBias, deltaPartBias} {
		assert.Equal(t, []float64{0, 0}, units[idx].B, units[idx].Name)
	}
}

func TestInitRandom(t *testing.T) {
	net := NewNetwork(3,
		LayerConfig{Size: 4, Activation: Tanh, Connection: GRU},
		LayerConfig{Size: 2, Activation: Tanh, Connection: Feedforward},
	)
	net.InitRandom(rand.New(rand.NewSource(109)))

	nonzero := 0
	net.EachUnit(func(_ int, u *ParamUnit) {
		if u.W != nil {
			for _, v := range u.W.Data {
				if v != 0 {
					nonzero++
				}
			}
		}
		if u.B != nil {
			for i, v := range u.B {
				assert.Zero(t, v, "bias %s[%d] must stay zero", u.Name, i)
			}
		}
	})
	assert.NotZero(t, nonzero, "weights must be randomized")
}
