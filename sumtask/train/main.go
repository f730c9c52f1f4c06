package main

import (
	"flag"
	"math/rand"
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"

	"rnn"
	"rnn/sumtask"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	cell       = flag.String("cell", "lstm", "recurrent cell: simple, lstm, gru, cfn, deltarnn")
	hidden     = flag.Int("hidden", 20, "hidden layer size")
	size       = flag.Int("size", 4, "input vector size")
	lr         = flag.Float64("lr", 0.001, "learning rate")
	seed       = flag.Int64("seed", 8, "random seed")
	steps      = flag.Int("steps", 100000, "training examples")
)

func main() {
	flag.Parse()
	log := logrus.New()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	rng := rand.New(rand.NewSource(*seed))
	log.WithFields(logrus.Fields{"seed": *seed, "cell": *cell, "hidden": *hidden}).Info("training")

	net := rnn.NewNetwork(*size,
		rnn.LayerConfig{Size: *hidden, Activation: rnn.Tanh, Connection: connection(*cell)},
		rnn.LayerConfig{Size: 1, Activation: rnn.Tanh, Connection: rnn.Feedforward},
	)
	net.InitRandom(rng)
	proc := rnn.NewProcessor(net)
	opt := rnn.NewAdam(*lr)

	recent := 0.0
	for i := 1; i <= *steps; i++ {
		x, y := sumtask.GenSeq(rng, rng.Intn(20)+2, *size)
		proc.Forward(x)
		pred := proc.OutputSequence(false)
		errs := make([][]float64, len(y))
		for t := range y {
			errs[t] = []float64{pred[t][0] - y[t][0]}
		}
		recent += sumtask.Loss(pred, y)
		proc.Backward(errs, false)
		rnn.UpdateNetwork(opt, net, proc.ParamsErrors())
		rnn.NewBatch(opt)
		rnn.NewExample(opt)

		if i%1000 == 0 {
			log.WithFields(logrus.Fields{"step": i, "mse": recent / 1000}).Info("progress")
			recent = 0
		}
	}
}

func connection(name string) rnn.Connection {
	switch name {
	case "simple":
		return rnn.SimpleRecurrent
	case "lstm":
		return rnn.LSTM
	case "gru":
		return rnn.GRU
	case "cfn":
		return rnn.CFN
	case "deltarnn":
		return rnn.DeltaRNN
	}
	logrus.Fatalf("unknown cell %q", name)
	return 0
}
