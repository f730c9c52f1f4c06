package rnn

import (
	"math"

	"github.com/gonum/floats"
)

// An Updater mutates a parameter array in place given its gradient array.
// Implementations carry their own per-array state (momentum, moment
// estimates) keyed by the parameter array's identity.
type Updater interface {
	Update(params, grads []float64)
}

// Optional scheduling capabilities an Updater may implement. Strategies
// without a capability are simply not notified.
type EpochScheduler interface{ NewEpoch() }
type BatchScheduler interface{ NewBatch() }
type ExampleScheduler interface{ NewExample() }

// NewEpoch notifies u of an epoch boundary if it cares.
func NewEpoch(u Updater) {
	if s, ok := u.(EpochScheduler); ok {
		s.NewEpoch()
	}
}

// NewBatch notifies u of a batch boundary if it cares.
func NewBatch(u Updater) {
	if s, ok := u.(BatchScheduler); ok {
		s.NewBatch()
	}
}

// NewExample notifies u of an example boundary if it cares.
func NewExample(u Updater) {
	if s, ok := u.(ExampleScheduler); ok {
		s.NewExample()
	}
}

// UpdateNetwork applies u to every parameter array of net with the matching
// gradient array of grads, which must be shaped like net's parameters (the
// structure ParamsErrors returns).
func UpdateNetwork(u Updater, net *Network, grads [][]*ParamUnit) {
	for li, units := range net.Params {
		for ui, unit := range units {
			g := grads[li][ui]
			if unit.W != nil {
				u.Update(unit.W.Data, g.W.Data)
			}
			if unit.WRec != nil {
				u.Update(unit.WRec.Data, g.WRec.Data)
			}
			if unit.B != nil {
				u.Update(unit.B, g.B)
			}
		}
	}
}

// SGD is plain gradient descent with an optional hyperbolic learning-rate
// decay applied per epoch: lr = LR / (1 + Decay*epochs).
type SGD struct {
	LR    float64
	Decay float64

	epochs int
	lr     float64
}

func NewSGD(lr float64) *SGD {
	return &SGD{LR: lr, lr: lr}
}

func NewSGDDecay(lr, decay float64) *SGD {
	return &SGD{LR: lr, Decay: decay, lr: lr}
}

func (s *SGD) Update(params, grads []float64) {
	floats.AddScaled(params, -s.lr, grads)
}

func (s *SGD) NewEpoch() {
	s.epochs++
	if s.Decay > 0 {
		s.lr = s.LR / (1 + s.Decay*float64(s.epochs))
	}
}

// Rate returns the learning rate currently in effect.
func (s *SGD) Rate() float64 {
	return s.lr
}

// Momentum is gradient descent with classical momentum.
type Momentum struct {
	LR float64
	M  float64

	velocity map[*float64][]float64
}

func NewMomentum(lr, m float64) *Momentum {
	return &Momentum{LR: lr, M: m, velocity: make(map[*float64][]float64)}
}

func (o *Momentum) Update(params, grads []float64) {
	v := o.state(params)
	for i := range params {
		v[i] = o.M*v[i] - o.LR*grads[i]
		params[i] += v[i]
	}
}

func (o *Momentum) state(params []float64) []float64 {
	k := &params[0]
	v, ok := o.velocity[k]
	if !ok {
		v = make([]float64, len(params))
		o.velocity[k] = v
	}
	return v
}

// AdaGrad scales each coordinate by the inverse root of its accumulated
// squared gradient.
type AdaGrad struct {
	LR  float64
	Eps float64

	sums map[*float64][]float64
}

func NewAdaGrad(lr float64) *AdaGrad {
	return &AdaGrad{LR: lr, Eps: 1e-8, sums: make(map[*float64][]float64)}
}

func (o *AdaGrad) Update(params, grads []float64) {
	k := &params[0]
	s, ok := o.sums[k]
	if !ok {
		s = make([]float64, len(params))
		o.sums[k] = s
	}
	for i := range params {
		s[i] += grads[i] * grads[i]
		params[i] -= o.LR * grads[i] / (math.Sqrt(s[i]) + o.Eps)
	}
}

// RMSProp keeps an exponential moving average of squared gradients.
type RMSProp struct {
	LR    float64
	Decay float64
	Eps   float64

	avg map[*float64][]float64
}

func NewRMSProp(lr, decay float64) *RMSProp {
	return &RMSProp{LR: lr, Decay: decay, Eps: 1e-8, avg: make(map[*float64][]float64)}
}

func (o *RMSProp) Update(params, grads []float64) {
	k := &params[0]
	n, ok := o.avg[k]
	if !ok {
		n = make([]float64, len(params))
		o.avg[k] = n
	}
	for i := range params {
		g := grads[i]
		n[i] = o.Decay*n[i] + (1-o.Decay)*g*g
		params[i] -= o.LR * g / (math.Sqrt(n[i]) + o.Eps)
	}
}

// Adam keeps bias-corrected first and second moment estimates per parameter
// array. The correction exponent advances once per update cycle, signalled
// through the batch hook.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t int
	m map[*float64][]float64
	v map[*float64][]float64
}

func NewAdam(lr float64) *Adam {
	return &Adam{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		m:     make(map[*float64][]float64),
		v:     make(map[*float64][]float64),
	}
}

func (o *Adam) Update(params, grads []float64) {
	if o.t == 0 {
		o.t = 1
	}
	k := &params[0]
	m, ok := o.m[k]
	if !ok {
		m = make([]float64, len(params))
		o.m[k] = m
		o.v[k] = make([]float64, len(params))
	}
	v := o.v[k]
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for i := range params {
		g := grads[i]
		m[i] = o.Beta1*m[i] + (1-o.Beta1)*g
		v[i] = o.Beta2*v[i] + (1-o.Beta2)*g*g
		params[i] -= o.LR * (m[i] / c1) / (math.Sqrt(v[i]/c2) + o.Eps)
	}
}

// NewBatch advances the bias-correction timestep.
func (o *Adam) NewBatch() {
	o.t++
}
