package rnn

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"math/rand"
)

// A Connection selects the cell algorithm of a layer.
type Connection int

const (
	Feedforward Connection = iota
	SimpleRecurrent
	LSTM
	GRU
	CFN
	DeltaRNN
)

func (c Connection) String() string {
	switch c {
	case Feedforward:
		return "feedforward"
	case SimpleRecurrent:
		return "simple"
	case LSTM:
		return "lstm"
	case GRU:
		return "gru"
	case CFN:
		return "cfn"
	case DeltaRNN:
		return "deltarnn"
	}
	return "unknown"
}

// A LayerConfig describes one layer of the network. The list of configs is
// consumed once, at construction, to allocate the parameter units.
type LayerConfig struct {
	Size        int
	Activation  Activation
	Connection  Connection
	Dropout     float64
	SparseInput bool
}

// A Network owns the layer configuration and one set of ParamUnits per layer
// index. The units are tied: every timestep of every processor over this
// network reads the same arrays.
type Network struct {
	InputSize int
	Layers    []LayerConfig
	Params    [][]*ParamUnit
}

// Gate order inside each parameter set.
const (
	lstmInGate = iota
	lstmOutGate
	lstmForGate
	lstmCand
)

const (
	gruResGate = iota
	gruPartGate
	gruCand
)

const (
	cfnInGate = iota
	cfnForGate
	cfnCand
)

const (
	deltaUnit = iota
	deltaCandBias
	deltaPartBias
	deltaAlpha
	deltaBeta1
	deltaBeta2
)

// NewNetwork allocates the parameter units for the given layer stack. All
// weights start at zero except the DeltaRNN alpha and beta vectors, which
// start at one.
func NewNetwork(inputSize int, layers ...LayerConfig) *Network {
	if inputSize <= 0 || len(layers) == 0 {
		panic("rnn: network needs an input size and at least one layer")
	}
	n := &Network{
		InputSize: inputSize,
		Layers:    layers,
		Params:    make([][]*ParamUnit, len(layers)),
	}
	in := inputSize
	for li, cfg := range layers {
		if cfg.Size <= 0 {
			panic(fmt.Sprintf("rnn: layer %d has size %d", li, cfg.Size))
		}
		out := cfg.Size
		switch cfg.Connection {
		case Feedforward:
			n.Params[li] = []*ParamUnit{NewParamUnit("unit", out, in, false)}
		case SimpleRecurrent:
			n.Params[li] = []*ParamUnit{NewParamUnit("unit", out, in, true)}
		case LSTM:
			n.Params[li] = []*ParamUnit{
				NewParamUnit("inGate", out, in, true),
				NewParamUnit("outGate", out, in, true),
				NewParamUnit("forGate", out, in, true),
				NewParamUnit("candidate", out, in, true),
			}
		case GRU:
			n.Params[li] = []*ParamUnit{
				NewParamUnit("resetGate", out, in, true),
				NewParamUnit("partitionGate", out, in, true),
				NewParamUnit("candidate", out, in, true),
			}
		case CFN:
			n.Params[li] = []*ParamUnit{
				NewParamUnit("inGate", out, in, true),
				NewParamUnit("forGate", out, in, true),
				NewParamUnit("candidate", out, in, false),
			}
		case DeltaRNN:
			u := NewParamUnit("unit", out, in, true)
			u.B = nil // the two biases live in their own vector units
			n.Params[li] = []*ParamUnit{
				u,
				NewVectorUnit("candBias", out),
				NewVectorUnit("partBias", out),
				NewVectorUnit("alpha", out),
				NewVectorUnit("beta1", out),
				NewVectorUnit("beta2", out),
			}
			for _, name := range []int{deltaAlpha, deltaBeta1, deltaBeta2} {
				b := n.Params[li][name].B
				for i := range b {
					b[i] = 1
				}
			}
		default:
			panic(fmt.Sprintf("rnn: unknown connection %d in layer %d", cfg.Connection, li))
		}
		in = out
	}
	return n
}

// OutputSize returns the size of the top layer.
func (n *Network) OutputSize() int {
	return n.Layers[len(n.Layers)-1].Size
}

// NewGrads allocates a zeroed gradient structure shaped like the network's
// parameters. Callers own the result; the engine never writes gradients into
// the parameter units themselves.
func (n *Network) NewGrads() [][]*ParamUnit {
	g := make([][]*ParamUnit, len(n.Params))
	for li, units := range n.Params {
		g[li] = make([]*ParamUnit, len(units))
		for ui, u := range units {
			g[li][ui] = u.CloneZero()
		}
	}
	return g
}

// EachUnit visits every parameter unit of the network in layer order.
func (n *Network) EachUnit(f func(layer int, u *ParamUnit)) {
	for li, units := range n.Params {
		for _, u := range units {
			f(li, u)
		}
	}
}

// InitRandom fills every weight matrix with Glorot-style uniform noise.
// Biases and the DeltaRNN vectors keep their construction values.
func (n *Network) InitRandom(rng *rand.Rand) {
	n.EachUnit(func(_ int, u *ParamUnit) {
		if u.W != nil {
			limit := math.Sqrt(6 / float64(u.W.Rows+u.W.Cols))
			for i := range u.W.Data {
				u.W.Data[i] = (2*rng.Float64() - 1) * limit
			}
		}
		if u.WRec != nil {
			limit := math.Sqrt(6 / float64(u.WRec.Rows+u.WRec.Cols))
			for i := range u.WRec.Data {
				u.WRec.Data[i] = (2*rng.Float64() - 1) * limit
			}
		}
	})
}

type unitPayload struct {
	Name       string
	Rows, Cols int
	W          []float64
	RecRows    int
	WRec       []float64
	B          []float64
}

type networkPayload struct {
	InputSize int
	Layers    []LayerConfig
	Units     [][]unitPayload
}

// WriteTo serializes the configuration and every parameter unit to w as an
// opaque byte stream.
func (n *Network) WriteTo(w io.Writer) error {
	p := networkPayload{
		InputSize: n.InputSize,
		Layers:    n.Layers,
		Units:     make([][]unitPayload, len(n.Params)),
	}
	for li, units := range n.Params {
		for _, u := range units {
			up := unitPayload{Name: u.Name, B: u.B}
			if u.W != nil {
				up.Rows, up.Cols, up.W = u.W.Rows, u.W.Cols, u.W.Data
			}
			if u.WRec != nil {
				up.RecRows, up.WRec = u.WRec.Rows, u.WRec.Data
			}
			p.Units[li] = append(p.Units[li], up)
		}
	}
	if err := gob.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("rnn: encoding network: %w", err)
	}
	return nil
}

// ReadNetworkFrom deserializes a network previously written by WriteTo.
func ReadNetworkFrom(r io.Reader) (*Network, error) {
	var p networkPayload
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("rnn: decoding network: %w", err)
	}
	n := NewNetwork(p.InputSize, p.Layers...)
	for li, units := range n.Params {
		if li >= len(p.Units) || len(p.Units[li]) != len(units) {
			return nil, fmt.Errorf("rnn: layer %d holds %d units, stream has a different shape", li, len(units))
		}
		for ui, u := range units {
			up := p.Units[li][ui]
			if u.W != nil {
				if len(up.W) != len(u.W.Data) {
					return nil, fmt.Errorf("rnn: unit %q weight size mismatch", u.Name)
				}
				copy(u.W.Data, up.W)
			}
			if u.WRec != nil {
				if len(up.WRec) != len(u.WRec.Data) {
					return nil, fmt.Errorf("rnn: unit %q recurrent weight size mismatch", u.Name)
				}
				copy(u.WRec.Data, up.WRec)
			}
			if u.B != nil {
				if len(up.B) != len(u.B) {
					return nil, fmt.Errorf("rnn: unit %q bias size mismatch", u.Name)
				}
				copy(u.B, up.B)
			}
		}
	}
	return n, nil
}
