package rnn

import (
	"fmt"

	"github.com/gonum/floats"
)

// A Layer is one timestep's instantiation of a network layer. It owns its
// gate and output Arrays but only references the shared ParamUnits of its
// layer index; the previous and next timestep's instantiations are reachable
// through the window.
//
// Backward writes the parameter gradients into grads, a caller-owned
// structure shaped like the layer's ParamUnits. If propagateToInput is true
// the gradient with respect to the input is written into Input().Errors.
// When a previous timestep exists, the gradient destined for its output is
// staged on that previous instantiation and picked up when its own Backward
// runs.
type Layer interface {
	Forward()
	// ForwardRecording is Forward plus the recording of the unactivated
	// per-source contribution of each weight matrix into contribs. The
	// computed output is identical to Forward's.
	ForwardRecording(contribs []*ParamUnit)
	Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool)
	Input() *Array
	Output() *Array
}

type layerBase struct {
	in, out *Array
	params  []*ParamUnit
	win     window
	// recErr accumulates the gradient the following timestep propagates into
	// this timestep's output.
	recErr []float64
}

func newLayerBase(in *Array, out *Array, params []*ParamUnit, win window) layerBase {
	return layerBase{
		in:     in,
		out:    out,
		params: params,
		win:    win,
		recErr: make([]float64, out.Size()),
	}
}

func (b *layerBase) Input() *Array  { return b.in }
func (b *layerBase) Output() *Array { return b.out }

// outputGrad combines the caller-supplied output errors with the recurrent
// gradient staged by the following timestep. A shape mismatch is a contract
// violation and panics.
func (b *layerBase) outputGrad(outputErrors []float64) []float64 {
	if len(outputErrors) != b.out.Size() {
		panic(fmt.Sprintf("rnn: %d output errors for a layer of size %d", len(outputErrors), b.out.Size()))
	}
	g := make([]float64, len(outputErrors))
	copy(g, outputErrors)
	floats.Add(g, b.recErr)
	return g
}

// gateForward fills dst with W x + WRec yPrev + B and activates it. A nil
// yPrev drops the recurrent term.
func gateForward(dst *Array, u *ParamUnit, x, yPrev []float64) {
	if u.B != nil {
		copy(dst.Values, u.B)
		addMulVec(u.W, x, dst.Values)
	} else {
		mulVec(u.W, x, dst.Values)
	}
	if u.WRec != nil && yPrev != nil {
		addMulVec(u.WRec, yPrev, dst.Values)
	}
	dst.Activate()
}

// newLayer instantiates the cell variant cfg names, bound to the shared
// params and to win for adjacent-timestep lookups.
func newLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) Layer {
	switch cfg.Connection {
	case Feedforward:
		return newFFLayer(cfg, params, in, win)
	case SimpleRecurrent:
		return newSimpleLayer(cfg, params, in, win)
	case LSTM:
		return newLSTMLayer(cfg, params, in, win)
	case GRU:
		return newGRULayer(cfg, params, in, win)
	case CFN:
		return newCFNLayer(cfg, params, in, win)
	case DeltaRNN:
		return newDeltaLayer(cfg, params, in, win)
	}
	panic(fmt.Sprintf("rnn: unknown connection %d", cfg.Connection))
}

// ffLayer is the stateless transform y = f(W x + b).
type ffLayer struct {
	layerBase
}

func newFFLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *ffLayer {
	return &ffLayer{
		layerBase: newLayerBase(in, NewActArray(cfg.Size, cfg.Activation), params, win),
	}
}

func (l *ffLayer) Forward() {
	gateForward(l.out, l.params[0], l.in.Values, nil)
}

func (l *ffLayer) ForwardRecording(contribs []*ParamUnit) {
	recordContribs(contribs, l.params, l.in.Values, nil)
	l.Forward()
}

func (l *ffLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	d := make([]float64, len(g))
	for i := range g {
		d[i] = g[i] * l.out.Deriv(i)
	}
	rank1(grads[0].W, d, l.in.Values)
	floats.Add(grads[0].B, d)
	if propagateToInput {
		zero(l.in.Errors)
		addMulVecT(l.params[0].W, d, l.in.Errors)
	}
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}
