package rnn

import (
	"github.com/gonum/floats"
)

// simpleLayer is the plain recurrent cell y = f(W x + WRec yPrev + b). The
// recurrent term is omitted at the first timestep.
type simpleLayer struct {
	layerBase
}

func newSimpleLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *simpleLayer {
	return &simpleLayer{
		layerBase: newLayerBase(in, NewActArray(cfg.Size, cfg.Activation), params, win),
	}
}

func (l *simpleLayer) prev() *simpleLayer {
	if p := l.win.previous(); p != nil {
		return p.(*simpleLayer)
	}
	return nil
}

func (l *simpleLayer) Forward() {
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	gateForward(l.out, l.params[0], l.in.Values, yPrev)
}

func (l *simpleLayer) ForwardRecording(contribs []*ParamUnit) {
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	recordContribs(contribs, l.params, l.in.Values, yPrev)
	gateForward(l.out, l.params[0], l.in.Values, yPrev)
}

func (l *simpleLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	d := make([]float64, len(g))
	for i := range g {
		d[i] = g[i] * l.out.Deriv(i)
	}
	u := l.params[0]
	rank1(grads[0].W, d, l.in.Values)
	floats.Add(grads[0].B, d)
	if p := l.prev(); p != nil {
		rank1(grads[0].WRec, d, p.out.Values)
		addMulVecT(u.WRec, d, p.recErr)
	}
	if propagateToInput {
		zero(l.in.Errors)
		addMulVecT(u.W, d, l.in.Errors)
	}
}
