package rnn

import (
	"fmt"
)

// A State is the full stack of layer instantiations for one timestep.
type State struct {
	layers []Layer
}

// Layer returns the instantiation at the given layer index.
func (s *State) Layer(i int) Layer {
	return s.layers[i]
}

// Output returns the top layer's output array.
func (s *State) Output() *Array {
	return s.layers[len(s.layers)-1].Output()
}

// Input returns the bottom layer's input array.
func (s *State) Input() *Array {
	return s.layers[0].Input()
}

// A Sequence is the ordered, growable arena of per-timestep States. It only
// grows during a forward pass and empties when a new sequence begins. States
// reach their neighbours exclusively through index lookups into the arena,
// never through references to each other, so Reset simply drops the arena.
type Sequence struct {
	net    *Network
	states []*State
}

func NewSequence(net *Network) *Sequence {
	return &Sequence{net: net}
}

func (s *Sequence) Len() int {
	return len(s.states)
}

func (s *Sequence) LastIndex() int {
	return len(s.states) - 1
}

// At returns the State at timestep t. Requesting a timestep outside the
// current bounds is caller misuse and panics.
func (s *Sequence) At(t int) *State {
	if t < 0 || t >= len(s.states) {
		panic(fmt.Sprintf("rnn: timestep %d outside sequence of length %d", t, len(s.states)))
	}
	return s.states[t]
}

// Reset empties the arena.
func (s *Sequence) Reset() {
	s.states = s.states[:0]
}

// Add appends a fresh State for input x: one newly built layer stack bound to
// the network's shared parameter units. Within the stack each layer's input
// array is the previous layer's output array.
func (s *Sequence) Add(x []float64) *State {
	if len(x) != s.net.InputSize {
		panic(fmt.Sprintf("rnn: input of size %d for a network with input size %d", len(x), s.net.InputSize))
	}
	t := len(s.states)
	st := &State{layers: make([]Layer, len(s.net.Layers))}
	s.states = append(s.states, st)
	in := NewArray(len(x))
	in.SetValues(x)
	for li, cfg := range s.net.Layers {
		l := newLayer(cfg, s.net.Params[li], in, window{seq: s, t: t, layer: li})
		st.layers[li] = l
		in = l.Output()
	}
	return st
}

// A window gives a layer instantiation access to the same layer index at the
// adjacent timesteps. Lookups go through the Sequence arena by index; at the
// sequence boundary they yield nil.
type window struct {
	seq   *Sequence
	t     int
	layer int
}

func (w window) previous() Layer {
	if w.seq == nil || w.t <= 0 {
		return nil
	}
	return w.seq.states[w.t-1].layers[w.layer]
}

func (w window) next() Layer {
	if w.seq == nil || w.t >= len(w.seq.states)-1 {
		return nil
	}
	return w.seq.states[w.t+1].layers[w.layer]
}
