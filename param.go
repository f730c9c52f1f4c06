package rnn

import (
	"fmt"

	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
	"github.com/gonum/floats"
)

// A ParamUnit is a named group of trainable arrays describing one linear
// transform inside a layer: input weights, optional recurrent weights and an
// optional bias. Each unit is allocated once per network and shared read-only
// by every timestep; gradients are written into separate units of the same
// shape, never into the unit itself.
type ParamUnit struct {
	Name string
	W    *blas64.General
	WRec *blas64.General
	B    []float64
}

// NewParamUnit allocates a zeroed out-by-in gate unit. If recurrent is true
// the unit also carries an out-by-out recurrent weight matrix.
func NewParamUnit(name string, out, in int, recurrent bool) *ParamUnit {
	u := &ParamUnit{
		Name: name,
		W:    newGeneral(out, in),
		B:    make([]float64, out),
	}
	if recurrent {
		u.WRec = newGeneral(out, out)
	}
	return u
}

// NewVectorUnit allocates a unit holding a single learned vector of size out,
// with no weight matrices. Used for per-element parameters such as the
// DeltaRNN alpha and beta vectors.
func NewVectorUnit(name string, out int) *ParamUnit {
	return &ParamUnit{
		Name: name,
		B:    make([]float64, out),
	}
}

func newGeneral(r, c int) *blas64.General {
	return &blas64.General{
		Rows:   r,
		Cols:   c,
		Stride: c,
		Data:   make([]float64, r*c),
	}
}

// Size returns the output dimension of the unit.
func (u *ParamUnit) Size() int {
	if u.W != nil {
		return u.W.Rows
	}
	return len(u.B)
}

// CloneZero returns a new unit of the same shape with all arrays zeroed.
// This is the allocation used for per-timestep gradient buffers.
func (u *ParamUnit) CloneZero() *ParamUnit {
	c := &ParamUnit{Name: u.Name}
	if u.W != nil {
		c.W = newGeneral(u.W.Rows, u.W.Cols)
	}
	if u.WRec != nil {
		c.WRec = newGeneral(u.WRec.Rows, u.WRec.Cols)
	}
	if u.B != nil {
		c.B = make([]float64, len(u.B))
	}
	return c
}

// Copy returns a deep copy of the unit.
func (u *ParamUnit) Copy() *ParamUnit {
	c := u.CloneZero()
	c.Add(u)
	return c
}

// Zero resets every array of the unit in place.
func (u *ParamUnit) Zero() {
	u.Arrays(func(_ string, data []float64) {
		for i := range data {
			data[i] = 0
		}
	})
}

// Add sums v into u elementwise. The two units must share a shape.
func (u *ParamUnit) Add(v *ParamUnit) {
	if (u.W == nil) != (v.W == nil) || (u.WRec == nil) != (v.WRec == nil) || len(u.B) != len(v.B) {
		panic(fmt.Sprintf("rnn: adding mismatched units %q and %q", u.Name, v.Name))
	}
	if u.W != nil {
		floats.Add(u.W.Data, v.W.Data)
	}
	if u.WRec != nil {
		floats.Add(u.WRec.Data, v.WRec.Data)
	}
	if u.B != nil {
		floats.Add(u.B, v.B)
	}
}

// Scale multiplies every array of the unit by c.
func (u *ParamUnit) Scale(c float64) {
	u.Arrays(func(_ string, data []float64) {
		floats.Scale(c, data)
	})
}

// Arrays calls f once for each array the unit owns.
func (u *ParamUnit) Arrays(f func(name string, data []float64)) {
	if u.W != nil {
		f("weights", u.W.Data)
	}
	if u.WRec != nil {
		f("recurrentWeights", u.WRec.Data)
	}
	if u.B != nil {
		f("biases", u.B)
	}
}

// mulVec computes dst = A x.
func mulVec(a *blas64.General, x, dst []float64) {
	blas64.Gemv(blas.NoTrans, 1, *a, vec(x), 0, vec(dst))
}

// addMulVec accumulates A x into dst.
func addMulVec(a *blas64.General, x, dst []float64) {
	blas64.Gemv(blas.NoTrans, 1, *a, vec(x), 1, vec(dst))
}

// addMulVecT accumulates A transposed times x into dst.
func addMulVecT(a *blas64.General, x, dst []float64) {
	blas64.Gemv(blas.Trans, 1, *a, vec(x), 1, vec(dst))
}

// rank1 accumulates the outer product of d and x into a. This is the
// gradient of a weight matrix for output delta d and input x.
func rank1(a *blas64.General, d, x []float64) {
	blas64.Ger(1, vec(d), vec(x), *a)
}

func vec(x []float64) blas64.Vector {
	return blas64.Vector{Inc: 1, Data: x}
}

// recordContribs writes the unactivated per-source contribution of every
// weight matrix of units into contribs, which mirrors their shape: the input
// weight entry (i, j) becomes W[i][j]*x[j], the recurrent entry becomes
// WRec[i][j]*yPrev[j], and biases are copied through. It leaves the forward
// computation itself untouched.
func recordContribs(contribs, units []*ParamUnit, x, yPrev []float64) {
	if len(contribs) != len(units) {
		panic(fmt.Sprintf("rnn: %d contribution buffers for %d units", len(contribs), len(units)))
	}
	for k, u := range units {
		c := contribs[k]
		if u.W != nil {
			for i := 0; i < u.W.Rows; i++ {
				row := u.W.Data[i*u.W.Stride : i*u.W.Stride+u.W.Cols]
				dst := c.W.Data[i*c.W.Stride : i*c.W.Stride+c.W.Cols]
				for j, w := range row {
					dst[j] = w * x[j]
				}
			}
		}
		if u.WRec != nil {
			for i := 0; i < u.WRec.Rows; i++ {
				row := u.WRec.Data[i*u.WRec.Stride : i*u.WRec.Stride+u.WRec.Cols]
				dst := c.WRec.Data[i*c.WRec.Stride : i*c.WRec.Stride+c.WRec.Cols]
				for j, w := range row {
					if yPrev == nil {
						dst[j] = 0
					} else {
						dst[j] = w * yPrev[j]
					}
				}
			}
		}
		if u.B != nil {
			copy(c.B, u.B)
		}
	}
}
