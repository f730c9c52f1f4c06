package rnn

import (
	"fmt"
)

type procMode int

const (
	procIdle procMode = iota
	procForwarding
	procForwarded
	procBackwarding
	procBackwarded
)

// A Processor drives one network over one sequence at a time: forward over
// the inputs, backpropagation through time over the output errors, and access
// to the outputs, the propagated input errors and the averaged parameter
// gradients. A processor must not be driven by more than one logical flow at
// once; independent sequences get independent processors (see ProcessorPool).
type Processor struct {
	id   int
	net  *Network
	seq  *Sequence
	acc  *Accumulator
	mode procMode
}

func NewProcessor(net *Network) *Processor {
	return &Processor{
		net: net,
		seq: NewSequence(net),
		acc: NewAccumulator(net),
	}
}

// ID returns the stable identifier assigned by the owning pool, or zero.
func (p *Processor) ID() int {
	return p.id
}

func (p *Processor) Network() *Network {
	return p.net
}

// Forward runs the whole input sequence and returns a copy of the final
// output. It is equivalent to calling ForwardStep with first=true on the
// first element and first=false on the rest.
func (p *Processor) Forward(xs [][]float64) []float64 {
	if len(xs) == 0 {
		panic("rnn: forward over an empty sequence")
	}
	var out []float64
	for i, x := range xs {
		out = p.ForwardStep(x, i == 0)
	}
	return out
}

// ForwardStep appends one timestep. first signals the start of a new
// sequence and resets the internal sequence and accumulator; it is an
// explicit signal, never inferred. The returned slice is a copy.
func (p *Processor) ForwardStep(x []float64, first bool) []float64 {
	if first {
		p.seq.Reset()
		p.acc.Reset()
	} else if p.mode != procForwarded || p.seq.Len() == 0 {
		panic("rnn: ForwardStep continuing a sequence that was never started")
	}
	p.mode = procForwarding
	st := p.seq.Add(x)
	for _, l := range st.layers {
		l.Forward()
	}
	p.mode = procForwarded
	out := make([]float64, st.Output().Size())
	copy(out, st.Output().Values)
	return out
}

// Backward replays the sequence in strict reverse order. For each timestep it
// runs the layer stack's backward with that step's output errors, collecting
// the parameter gradients of every timestep into a fresh caller-owned buffer
// and summing them into the accumulator; afterwards the accumulator holds the
// time-averaged gradients. The full forward pass must have completed first,
// and errs must hold exactly one error vector per timestep.
func (p *Processor) Backward(errs [][]float64, propagateToInput bool) {
	if p.mode != procForwarded {
		panic("rnn: Backward without a completed forward pass")
	}
	if len(errs) != p.seq.Len() {
		panic(fmt.Sprintf("rnn: %d error vectors for a sequence of length %d", len(errs), p.seq.Len()))
	}
	p.mode = procBackwarding
	top := len(p.net.Layers) - 1
	for t := p.seq.LastIndex(); t >= 0; t-- {
		st := p.seq.At(t)
		grads := p.net.NewGrads()
		for li := top; li >= 0; li-- {
			e := errs[t]
			if li < top {
				e = st.layers[li+1].Input().Errors
			}
			prop := li > 0 || propagateToInput
			st.layers[li].Backward(e, grads[li], prop)
		}
		p.acc.Accumulate(grads)
	}
	p.acc.Average()
	p.mode = procBackwarded
}

// BackwardLast is the single-output convenience form: the true error is
// supplied only at the last timestep and a zero vector everywhere else.
func (p *Processor) BackwardLast(err []float64, propagateToInput bool) {
	errs := make([][]float64, p.seq.Len())
	zeroes := make([]float64, len(err))
	for t := range errs {
		errs[t] = zeroes
	}
	if len(errs) > 0 {
		errs[len(errs)-1] = err
	}
	p.Backward(errs, propagateToInput)
}

// OutputSequence returns the output of every timestep. With copyOut false the
// rows are live views into internal state, invalidated by the next forward or
// backward call.
func (p *Processor) OutputSequence(copyOut bool) [][]float64 {
	out := make([][]float64, p.seq.Len())
	for t := range out {
		v := p.seq.At(t).Output().Values
		if copyOut {
			out[t] = append([]float64(nil), v...)
		} else {
			out[t] = v
		}
	}
	return out
}

// InputErrors returns the gradient propagated into every timestep's input.
// Meaningful after Backward with propagateToInput true. The copyOut flag
// behaves as in OutputSequence.
func (p *Processor) InputErrors(copyOut bool) [][]float64 {
	out := make([][]float64, p.seq.Len())
	for t := range out {
		v := p.seq.At(t).Input().Errors
		if copyOut {
			out[t] = append([]float64(nil), v...)
		} else {
			out[t] = v
		}
	}
	return out
}

// ParamsErrors returns the time-averaged parameter gradients, one parameter
// set per layer index. It is a live view into the accumulator.
func (p *Processor) ParamsErrors() [][]*ParamUnit {
	return p.acc.Grads()
}

// Sequence exposes the internal state store.
func (p *Processor) Sequence() *Sequence {
	return p.seq
}

func (p *Processor) reset() {
	p.seq.Reset()
	p.acc.Reset()
	p.mode = procIdle
}
