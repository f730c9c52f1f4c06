package rnn

import (
	"github.com/gonum/floats"
)

// lstmLayer implements the canonical LSTM cell. The three sigmoid gates and
// the candidate each read the input and the previous output through their own
// gate unit:
//
//	cell = inG * cand + forG * cellPrev
//	y    = outG * f(cell)
//
// where f is the layer activation. At the first timestep the previous output
// and cell are absent and their contributions drop out.
type lstmLayer struct {
	layerBase
	inG, outG, forG *Array
	cand            *Array
	cell            []float64
	cellAct         *Array
	// cellRecErr accumulates the cell-state gradient the following timestep
	// propagates back through its forget gate.
	cellRecErr []float64
}

func newLSTMLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *lstmLayer {
	n := cfg.Size
	return &lstmLayer{
		layerBase:  newLayerBase(in, NewArray(n), params, win),
		inG:        NewActArray(n, Sigmoid),
		outG:       NewActArray(n, Sigmoid),
		forG:       NewActArray(n, Sigmoid),
		cand:       NewActArray(n, cfg.Activation),
		cell:       make([]float64, n),
		cellAct:    NewActArray(n, cfg.Activation),
		cellRecErr: make([]float64, n),
	}
}

func (l *lstmLayer) prev() *lstmLayer {
	if p := l.win.previous(); p != nil {
		return p.(*lstmLayer)
	}
	return nil
}

func (l *lstmLayer) Forward() {
	x := l.in.Values
	var yPrev, cellPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
		cellPrev = p.cell
	}
	gateForward(l.inG, l.params[lstmInGate], x, yPrev)
	gateForward(l.outG, l.params[lstmOutGate], x, yPrev)
	gateForward(l.forG, l.params[lstmForGate], x, yPrev)
	gateForward(l.cand, l.params[lstmCand], x, yPrev)
	for i := range l.cell {
		l.cell[i] = l.inG.Values[i] * l.cand.Values[i]
		if cellPrev != nil {
			l.cell[i] += l.forG.Values[i] * cellPrev[i]
		}
	}
	l.cellAct.SetValues(l.cell)
	l.cellAct.Activate()
	for i := range l.out.Values {
		l.out.Values[i] = l.outG.Values[i] * l.cellAct.Values[i]
	}
}

func (l *lstmLayer) ForwardRecording(contribs []*ParamUnit) {
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	recordContribs(contribs, l.params, l.in.Values, yPrev)
	l.Forward()
}

func (l *lstmLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	p := l.prev()
	x := l.in.Values
	n := len(g)

	gCell := make([]float64, n)
	dIn := make([]float64, n)
	dOut := make([]float64, n)
	dFor := make([]float64, n)
	dCand := make([]float64, n)
	for i := 0; i < n; i++ {
		gCell[i] = g[i]*l.outG.Values[i]*l.cellAct.Deriv(i) + l.cellRecErr[i]
		dOut[i] = g[i] * l.cellAct.Values[i] * l.outG.Deriv(i)
		dIn[i] = gCell[i] * l.cand.Values[i] * l.inG.Deriv(i)
		if p != nil {
			dFor[i] = gCell[i] * p.cell[i] * l.forG.Deriv(i)
		}
		dCand[i] = gCell[i] * l.inG.Values[i] * l.cand.Deriv(i)
	}

	if propagateToInput {
		zero(l.in.Errors)
	}
	deltas := [][]float64{
		lstmInGate:  dIn,
		lstmOutGate: dOut,
		lstmForGate: dFor,
		lstmCand:    dCand,
	}
	for k, d := range deltas {
		rank1(grads[k].W, d, x)
		floats.Add(grads[k].B, d)
		if p != nil {
			rank1(grads[k].WRec, d, p.out.Values)
			addMulVecT(l.params[k].WRec, d, p.recErr)
		}
		if propagateToInput {
			addMulVecT(l.params[k].W, d, l.in.Errors)
		}
	}
	if p != nil {
		for i := 0; i < n; i++ {
			p.cellRecErr[i] += gCell[i] * l.forG.Values[i]
		}
	}
}
