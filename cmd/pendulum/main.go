// Command pendulum trains a DDPG agent to swing up and balance a simulated
// inverted pendulum, logging per-episode reward to a CSV file.
//
// Hyperparameters mirror the reference's ddpg example defaults: a
// two-dimensional state, one-dimensional action, small exploration noise,
// two 128/64-wide hidden layers for both actor and critic, a 100000-entry
// replay memory and batch size 32.
package main

import (
	"flag"
	"log"

	"github.com/milosgajdos/deepnet/agent"
	"github.com/milosgajdos/deepnet/pkg/metrics"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

var (
	episodes     int
	stepsPerEpis int
	warmup       int
	targetEvery  int
	gamma        float64
	seed         int64
	logPath      string
	policyPath   string
)

func init() {
	flag.IntVar(&episodes, "episodes", 100, "number of training episodes")
	flag.IntVar(&stepsPerEpis, "steps", 200, "environment steps per episode")
	flag.IntVar(&warmup, "warmup", 5, "episodes of pure exploration before training starts")
	flag.IntVar(&targetEvery, "target-every", 10, "episodes between target network hard syncs")
	flag.Float64Var(&gamma, "gamma", 0.99, "discount factor")
	flag.Int64Var(&seed, "seed", 1, "RNG seed")
	flag.StringVar(&logPath, "log", "pendulum.csv", "path to write per-episode reward CSV")
	flag.StringVar(&policyPath, "policy", "pendulum.policy", "path to write the trained actor/critic weights")
}

func main() {
	flag.Parse()
	rng.Init(seed)
	src := rng.Default()

	const stateSize, actionSize = 2, 1
	noise := []float64{0.01}
	actorHidden := []int{128, 64}
	criticHidden := []int{128, 64}
	const memorySize, batch = 100000, 32

	d, err := agent.New(stateSize, actionSize, noise, actorHidden, criticHidden, memorySize, batch, src)
	if err != nil {
		log.Fatalf("pendulum: could not build agent: %s", err)
	}
	defer d.Destroy()

	env := newPendulum(src)

	rec, err := metrics.NewRecorder(logPath, []string{"episode", "reward"})
	if err != nil {
		log.Fatalf("pendulum: could not open metrics log: %s", err)
	}
	defer rec.Close()

	runID := metrics.RunID()
	log.Printf("pendulum[%s]: warmup=%d episodes, training=%d episodes, steps/episode=%d", runID, warmup, episodes, stepsPerEpis)

	for ep := 0; ep < warmup+episodes; ep++ {
		training := ep >= warmup
		d.NewEpisode()
		state := env.reset()

		var episodeReward float64
		for step := 0; step < stepsPerEpis; step++ {
			action, err := d.Action(state)
			if err != nil {
				log.Fatalf("pendulum: action: %s", err)
			}
			next, reward, done := env.step(action)
			d.Observe(action, reward, next, done)
			episodeReward += reward
			state = next

			if training {
				if err := d.Train(gamma); err != nil {
					log.Fatalf("pendulum: train: %s", err)
				}
			}
			if done {
				break
			}
		}

		if training && (ep-warmup)%targetEvery == 0 {
			if err := d.UpdateTargetNetworks(); err != nil {
				log.Fatalf("pendulum: updating target networks: %s", err)
			}
		}

		if err := rec.Record(float64(ep), episodeReward); err != nil {
			log.Fatalf("pendulum: recording metrics: %s", err)
		}
		if ep%10 == 0 {
			phase := "warmup"
			if training {
				phase = "train"
			}
			log.Printf("pendulum[%s]: episode=%d phase=%s reward=%.2f", runID, ep, phase, episodeReward)
		}
	}

	if err := d.SavePolicy(policyPath); err != nil {
		log.Fatalf("pendulum: could not save policy: %s", err)
	}
	log.Printf("pendulum[%s]: done, policy written to %s", runID, policyPath)
}
