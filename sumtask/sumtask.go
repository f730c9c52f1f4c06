// Package sumtask generates toy sequences for exercising recurrent cells:
// the target at each timestep is the squashed running sum of the inputs, so
// a cell must carry state across time to predict it.
package sumtask

import (
	"math"
	"math/rand"

	"rnn"
)

// GenSeq returns a random input sequence of the given length and vector size
// together with its per-timestep targets. The target is the tanh of the sum
// of every input component seen so far, scaled by the vector size.
func GenSeq(rng *rand.Rand, length, size int) (x, y [][]float64) {
	x = rnn.MakeTensor2(length, size)
	y = make([][]float64, length)
	sum := 0.0
	for t := 0; t < length; t++ {
		for j := range x[t] {
			x[t][j] = 2*rng.Float64() - 1
			sum += x[t][j] / float64(size)
		}
		y[t] = []float64{math.Tanh(sum)}
	}
	return x, y
}

// Loss is the mean squared error between predictions and targets.
func Loss(pred, y [][]float64) float64 {
	var sum float64
	var n int
	for t := range y {
		for i := range y[t] {
			d := pred[t][i] - y[t][i]
			sum += d * d
			n++
		}
	}
	return sum / float64(n)
}
