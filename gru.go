package rnn

import (
	"github.com/gonum/floats"
)

// gruLayer implements the GRU cell with a reset gate, a partition (update)
// gate and a candidate:
//
//	res  = sigmoid(Wr x + Ur yPrev + br)
//	part = sigmoid(Wp x + Up yPrev + bp)
//	cand = f(Wc x + Uc (res * yPrev) + bc)
//	y    = part * cand + (1 - part) * yPrev
//
// At the first timestep yPrev is absent: the reset path and the (1 - part)
// term drop out and y = part * cand.
type gruLayer struct {
	layerBase
	res, part, cand *Array
	resPrev         []float64 // res * yPrev, input of the candidate's recurrent transform
}

func newGRULayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *gruLayer {
	n := cfg.Size
	return &gruLayer{
		layerBase: newLayerBase(in, NewArray(n), params, win),
		res:       NewActArray(n, Sigmoid),
		part:      NewActArray(n, Sigmoid),
		cand:      NewActArray(n, cfg.Activation),
		resPrev:   make([]float64, n),
	}
}

func (l *gruLayer) prev() *gruLayer {
	if p := l.win.previous(); p != nil {
		return p.(*gruLayer)
	}
	return nil
}

func (l *gruLayer) Forward() {
	x := l.in.Values
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	gateForward(l.res, l.params[gruResGate], x, yPrev)
	gateForward(l.part, l.params[gruPartGate], x, yPrev)
	if yPrev != nil {
		floats.MulTo(l.resPrev, l.res.Values, yPrev)
		gateForward(l.cand, l.params[gruCand], x, l.resPrev)
	} else {
		gateForward(l.cand, l.params[gruCand], x, nil)
	}
	for i := range l.out.Values {
		l.out.Values[i] = l.part.Values[i] * l.cand.Values[i]
		if yPrev != nil {
			l.out.Values[i] += (1 - l.part.Values[i]) * yPrev[i]
		}
	}
}

func (l *gruLayer) ForwardRecording(contribs []*ParamUnit) {
	// Recording needs the reset gate, so it happens after the forward pass;
	// the contributions are pure functions of the already computed state.
	l.Forward()
	x := l.in.Values
	var yPrev, candPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
		// The candidate's recurrent input is the reset-scaled previous output.
		candPrev = l.resPrev
	}
	recordContribs(contribs[:gruCand], l.params[:gruCand], x, yPrev)
	recordContribs(contribs[gruCand:], l.params[gruCand:], x, candPrev)
}

func (l *gruLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	p := l.prev()
	x := l.in.Values
	n := len(g)

	var yPrev []float64
	if p != nil {
		yPrev = p.out.Values
	}
	dRes := make([]float64, n)
	dPart := make([]float64, n)
	dCand := make([]float64, n)
	ucd := make([]float64, n) // Uc transposed times dCand
	for i := 0; i < n; i++ {
		yp := 0.0
		if yPrev != nil {
			yp = yPrev[i]
		}
		dPart[i] = g[i] * (l.cand.Values[i] - yp) * l.part.Deriv(i)
		dCand[i] = g[i] * l.part.Values[i] * l.cand.Deriv(i)
	}
	if p != nil {
		addMulVecT(l.params[gruCand].WRec, dCand, ucd)
		for i := 0; i < n; i++ {
			dRes[i] = ucd[i] * yPrev[i] * l.res.Deriv(i)
		}
	}

	rank1(grads[gruResGate].W, dRes, x)
	rank1(grads[gruPartGate].W, dPart, x)
	rank1(grads[gruCand].W, dCand, x)
	floats.Add(grads[gruResGate].B, dRes)
	floats.Add(grads[gruPartGate].B, dPart)
	floats.Add(grads[gruCand].B, dCand)
	if p != nil {
		rank1(grads[gruResGate].WRec, dRes, yPrev)
		rank1(grads[gruPartGate].WRec, dPart, yPrev)
		rank1(grads[gruCand].WRec, dCand, l.resPrev)

		addMulVecT(l.params[gruResGate].WRec, dRes, p.recErr)
		addMulVecT(l.params[gruPartGate].WRec, dPart, p.recErr)
		for i := 0; i < n; i++ {
			p.recErr[i] += g[i]*(1-l.part.Values[i]) + l.res.Values[i]*ucd[i]
		}
	}
	if propagateToInput {
		zero(l.in.Errors)
		addMulVecT(l.params[gruResGate].W, dRes, l.in.Errors)
		addMulVecT(l.params[gruPartGate].W, dPart, l.in.Errors)
		addMulVecT(l.params[gruCand].W, dCand, l.in.Errors)
	}
}
