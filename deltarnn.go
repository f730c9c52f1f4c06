package rnn

// deltaLayer implements the DeltaRNN cell. One weight matrix pair feeds both
// the candidate and the partition:
//
//	wx   = W x
//	wRec = WRec yPrev
//	cand = f(beta1*wx + beta2*wRec + alpha*wx*wRec + bc)
//	part = sigmoid(wx + bp)
//	y    = part * cand + (1 - part) * yPrev
//
// alpha, beta1 and beta2 are learned per-element vectors. At the first
// timestep the recurrent products and the (1 - part) term drop out.
type deltaLayer struct {
	layerBase
	wx, wRec   []float64
	cand, part *Array
}

func newDeltaLayer(cfg LayerConfig, params []*ParamUnit, in *Array, win window) *deltaLayer {
	n := cfg.Size
	return &deltaLayer{
		layerBase: newLayerBase(in, NewArray(n), params, win),
		wx:        make([]float64, n),
		wRec:      make([]float64, n),
		cand:      NewActArray(n, cfg.Activation),
		part:      NewActArray(n, Sigmoid),
	}
}

func (l *deltaLayer) prev() *deltaLayer {
	if p := l.win.previous(); p != nil {
		return p.(*deltaLayer)
	}
	return nil
}

func (l *deltaLayer) Forward() {
	x := l.in.Values
	p := l.prev()
	u := l.params[deltaUnit]
	alpha := l.params[deltaAlpha].B
	beta1 := l.params[deltaBeta1].B
	beta2 := l.params[deltaBeta2].B
	bc := l.params[deltaCandBias].B
	bp := l.params[deltaPartBias].B

	mulVec(u.W, x, l.wx)
	var yPrev []float64
	if p != nil {
		yPrev = p.out.Values
		mulVec(u.WRec, yPrev, l.wRec)
	} else {
		zero(l.wRec)
	}
	for i := range l.cand.Values {
		l.cand.Values[i] = beta1[i]*l.wx[i] + beta2[i]*l.wRec[i] + alpha[i]*l.wx[i]*l.wRec[i] + bc[i]
		l.part.Values[i] = l.wx[i] + bp[i]
	}
	l.cand.Activate()
	l.part.Activate()
	for i := range l.out.Values {
		l.out.Values[i] = l.part.Values[i] * l.cand.Values[i]
		if p != nil {
			l.out.Values[i] += (1 - l.part.Values[i]) * yPrev[i]
		}
	}
}

func (l *deltaLayer) ForwardRecording(contribs []*ParamUnit) {
	var yPrev []float64
	if p := l.prev(); p != nil {
		yPrev = p.out.Values
	}
	recordContribs(contribs, l.params, l.in.Values, yPrev)
	l.Forward()
}

func (l *deltaLayer) Backward(outputErrors []float64, grads []*ParamUnit, propagateToInput bool) {
	g := l.outputGrad(outputErrors)
	p := l.prev()
	x := l.in.Values
	n := len(g)

	u := l.params[deltaUnit]
	alpha := l.params[deltaAlpha].B
	beta1 := l.params[deltaBeta1].B
	beta2 := l.params[deltaBeta2].B

	dPart := make([]float64, n)
	dCand := make([]float64, n)
	dWx := make([]float64, n)
	dWRec := make([]float64, n)
	for i := 0; i < n; i++ {
		yp := 0.0
		if p != nil {
			yp = p.out.Values[i]
		}
		dPart[i] = g[i] * (l.cand.Values[i] - yp) * l.part.Deriv(i)
		dCand[i] = g[i] * l.part.Values[i] * l.cand.Deriv(i)

		grads[deltaAlpha].B[i] += dCand[i] * l.wx[i] * l.wRec[i]
		grads[deltaBeta1].B[i] += dCand[i] * l.wx[i]
		grads[deltaBeta2].B[i] += dCand[i] * l.wRec[i]
		grads[deltaCandBias].B[i] += dCand[i]
		grads[deltaPartBias].B[i] += dPart[i]

		dWx[i] = dCand[i]*(beta1[i]+alpha[i]*l.wRec[i]) + dPart[i]
		dWRec[i] = dCand[i] * (beta2[i] + alpha[i]*l.wx[i])
	}

	rank1(grads[deltaUnit].W, dWx, x)
	if p != nil {
		rank1(grads[deltaUnit].WRec, dWRec, p.out.Values)
		addMulVecT(u.WRec, dWRec, p.recErr)
		for i := 0; i < n; i++ {
			p.recErr[i] += g[i] * (1 - l.part.Values[i])
		}
	}
	if propagateToInput {
		zero(l.in.Errors)
		addMulVecT(u.W, dWx, l.in.Errors)
	}
}
