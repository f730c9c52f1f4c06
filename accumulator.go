package rnn

import (
	"fmt"
)

// An Accumulator sums structured parameter gradients and produces their
// average. One accumulator serves one processor; accumulation has a single
// logical owner and needs no locking.
type Accumulator struct {
	grads [][]*ParamUnit
	count int
}

func NewAccumulator(net *Network) *Accumulator {
	return &Accumulator{grads: net.NewGrads()}
}

// Count reports the number of Accumulate calls since the last reset.
func (a *Accumulator) Count() int {
	return a.count
}

// Grads exposes the accumulated gradient structure, one parameter set per
// layer index. It is a live view: the next Accumulate, Average or Reset
// changes it.
func (a *Accumulator) Grads() [][]*ParamUnit {
	return a.grads
}

// Accumulate elementwise-sums g into the running totals.
func (a *Accumulator) Accumulate(g [][]*ParamUnit) {
	if len(g) != len(a.grads) {
		panic(fmt.Sprintf("rnn: accumulating %d layers into %d", len(g), len(a.grads)))
	}
	for li := range g {
		for ui := range g[li] {
			a.grads[li][ui].Add(g[li][ui])
		}
	}
	a.count++
}

// Average divides every summed array by the number of accumulations. It must
// be called with at least one accumulated gradient, and only once per cycle:
// a second call would divide again. Callers reset between uses.
func (a *Accumulator) Average() {
	if a.count == 0 {
		panic("rnn: averaging an empty accumulator")
	}
	c := 1 / float64(a.count)
	for _, units := range a.grads {
		for _, u := range units {
			u.Scale(c)
		}
	}
}

// Reset zeroes the sums and the count.
func (a *Accumulator) Reset() {
	for _, units := range a.grads {
		for _, u := range units {
			u.Zero()
		}
	}
	a.count = 0
}
