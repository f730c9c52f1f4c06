package rnn

import (
	"github.com/gonum/floats"
)

// cfnLayer implements the chaos-free network cell. Two sigmoid gates blend a
// memoryless candidate with the activated previous output:
//
//	inG  = sigmoid(Wi x + Ui yPrev + bi)
//	forG = sigmoid(Wf x + Uf yPrev + bf)
//	cand = f(Wc x + bc)
//	y    = inG * cand + forG * f(yPrev)
//
// The candidate has no recurrent transform; at the first timestep the forget
// branch drops out entirely.
type cfnLayer struct {
	layerBase
	inG, forG, cand *Array
	actPrev         *Array // f(yPrev)
}

func newCFNLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *cfnLayer {
	n := cfg.Size
	return &cfnLayer{
		layerBase: newLayerBase(in, NewArray(n), params, win),
		inG:       NewActArray(n, Sigmoid),
		forG:      NewActArray(n, Sigmoid),
		cand:      NewActArray(n, cfg.Activation),
		actPrev:   NewActArray(n, cfg.Activation),
	}
}

func (l *cfnLayer) prev() *cfnLayer {
	if p := l.win.previous(); p != nil {
		return p.(*cfnLayer)
	}
	return nil
}

func (l *cfnLayer) Forward() {
	x := l.in.Values
	p := l.prev()
	var yPrev []float64
	if p != nil {
		yPrev = p.out.Values
	}
	gateForward(l.inG, l.params[cfnInGate], x, yPrev)
	gateForward(l.forG, l.params[cfnForGate], x, yPrev)
	gateForward(l.cand, l.params[cfnCand], x, nil)
	for i := range l.out.Values {
		l.out.Values[i] = l.inG.Values[i] * l.cand.Values[i]
	}
	if p != nil {
		l.actPrev.SetValues(yPrev)
		l.actPrev.Activate()
		for i := range l.out.Values {
			l.out.Values[i] += l.forG.Values[i] * l.actPrev.Values[i]
		}
	}
}

func (l *cfnLayer) ForwardRecording(contribs []*ParamUnit) {
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	recordContribs(contribs, l.params, l.in.Values, yPrev)
	l.Forward()
}

func (l *cfnLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	p := l.prev()
	x := l.in.Values
	n := len(g)

	var yPrev []float64
	if p != nil {
		yPrev = p.out.Values
	}
	dIn := make([]float64, n)
	dFor := make([]float64, n)
	dCand := make([]float64, n)
	for i := 0; i < n; i++ {
		dIn[i] = g[i] * l.cand.Values[i] * l.inG.Deriv(i)
		if p != nil {
			dFor[i] = g[i] * l.actPrev.Values[i] * l.forG.Deriv(i)
		}
		dCand[i] = g[i] * l.inG.Values[i] * l.cand.Deriv(i)
	}

	rank1(grads[cfnInGate].W, dIn, x)
	rank1(grads[cfnForGate].W, dFor, x)
	rank1(grads[cfnCand].W, dCand, x)
	floats.Add(grads[cfnInGate].B, dIn)
	floats.Add(grads[cfnForGate].B, dFor)
	floats.Add(grads[cfnCand].B, dCand)
	if p != nil {
		rank1(grads[cfnInGate].WRec, dIn, yPrev)
		rank1(grads[cfnForGate].WRec, dFor, yPrev)

		addMulVecT(l.params[cfnInGate].WRec, dIn, p.recErr)
		addMulVecT(l.params[cfnForGate].WRec, dFor, p.recErr)
		for i := 0; i < n; i++ {
			p.recErr[i] += g[i] * l.forG.Values[i] * l.actPrev.Deriv(i)
		}
	}
	if propagateToInput {
		zero(l.in.Errors)
		addMulVecT(l.params[cfnInGate].W, dIn, l.in.Errors)
		addMulVecT(l.params[cfnForGate].W, dFor, l.in.Errors)
		addMulVecT(l.params[cfnCand].W, dCand, l.in.Errors)
	}
}
