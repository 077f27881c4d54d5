// Command saddle trains a small MLP to regress the saddle function
// z = x^2 - y^2 over random samples in [-1,1]^2, logging training loss to a
// CSV file as it goes.
//
// It follows the teacher's cmd/bprop layout (flag-configured hyperparameters,
// plain stdlib logging, no subcommands) but trains a regression MLP with
// Adam instead of running BFGS over a CSV-loaded classification dataset.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/milosgajdos/deepnet/neural"
	"github.com/milosgajdos/deepnet/optim"
	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/loss"
	"github.com/milosgajdos/deepnet/pkg/matrix"
	"github.com/milosgajdos/deepnet/pkg/metrics"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

var (
	hidden  int
	batch   int
	steps   int
	lr      float64
	seed    int64
	logPath string
)

func init() {
	flag.IntVar(&hidden, "hidden", 64, "hidden layer width")
	flag.IntVar(&batch, "batch", 32, "training batch size")
	flag.IntVar(&steps, "steps", 2000, "number of training steps")
	flag.Float64Var(&lr, "lr", 0.001, "Adam learning rate")
	flag.Int64Var(&seed, "seed", 1, "RNG seed")
	flag.StringVar(&logPath, "log", "saddle.csv", "path to write training metrics CSV")
}

func saddle(x, y float64) float64 {
	return x*x - y*y
}

func main() {
	flag.Parse()
	rng.Init(seed)
	src := rng.Default()

	mlp, err := neural.New(2, 1, 1, []int{hidden}, activation.ReLU, activation.Linear, batch, src)
	if err != nil {
		log.Fatalf("saddle: could not build network: %s", err)
	}
	defer mlp.Destroy()

	adam := optim.New(mlp)
	defer adam.Destroy()
	adam.SetHyperparams(lr, optim.DefaultBeta1, optim.DefaultBeta2, optim.DefaultEpsilon)

	rec, err := metrics.NewRecorder(logPath, []string{"step", "loss"})
	if err != nil {
		log.Fatalf("saddle: could not open metrics log: %s", err)
	}
	defer rec.Close()

	x := matrix.New(batch, 2)
	y := matrix.New(batch, 1)

	runID := metrics.RunID()
	log.Printf("saddle[%s]: training %d steps, batch=%d, hidden=%d, lr=%g", runID, steps, batch, hidden, lr)

	for step := 0; step < steps; step++ {
		matrix.Randomize(x, src, -1, 1)
		for i := 0; i < batch; i++ {
			row := x.Row(i)
			y.Set(i, 0, saddle(row[0], row[1]))
		}

		if _, err := mlp.Feedforward(x); err != nil {
			log.Fatalf("saddle: feedforward: %s", err)
		}
		lossVal, err := mlp.Backpropagate(y, loss.MSE)
		if err != nil {
			log.Fatalf("saddle: backpropagate: %s", err)
		}
		adam.Step(mlp)

		if err := rec.Record(float64(step), lossVal); err != nil {
			log.Fatalf("saddle: recording metrics: %s", err)
		}
		if step%100 == 0 {
			log.Printf("saddle[%s]: step=%d loss=%g", runID, step, lossVal)
		}
	}

	if err := mlp.SaveWeights("saddle.weights"); err != nil {
		log.Printf("saddle[%s]: could not save weights: %s", runID, err)
		os.Exit(1)
	}
	log.Printf("saddle[%s]: done, weights written to saddle.weights", runID)
}
