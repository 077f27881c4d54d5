package agent

import (
	"fmt"
	"io"
	"os"

	"github.com/milosgajdos/deepnet/neural"
	"github.com/milosgajdos/deepnet/optim"
	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/loss"
	"github.com/milosgajdos/deepnet/pkg/matrix"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

// DDPG is a Deep Deterministic Policy Gradient agent: an actor MLP mapping
// state to action, a critic MLP estimating action-value from
// (action, state), hard-copied target networks of both, Adam optimizers
// for both, and a replay Memory sampled to build each training step's
// batch.
//
// This is grounded directly on the reference ddpg_create/ddpg_train; the
// actor always uses ReLU hidden layers with a tanh output (actions bounded
// to [-1,1]) and the critic always uses ReLU hidden layers with a linear
// output (an unbounded value estimate), matching the reference's fixed
// activation choices rather than exposing them as configuration.
type DDPG struct {
	stateSize, actionSize, batch int
	noise                        []float64
	src                          *rng.Source

	actor, critic             *neural.MLP
	actorTarget, criticTarget *neural.MLP
	actorAdam, criticAdam     *optim.Adam

	memory *Memory

	actorInput   *matrix.Matrix // batch x stateSize
	criticInput  *matrix.Matrix // batch x (actionSize+stateSize)
	actorErrors  *matrix.Matrix // batch x actionSize
	criticErrors *matrix.Matrix // batch x 1
}

// New builds a DDPG agent. noise, if non-nil, must have length actionSize:
// noise[i] is the half-width of the uniform exploration noise Action adds to
// the actor's i-th output before clipping to [-1,1]; pass nil to disable
// exploration (used for evaluation/rollout after training).
func New(stateSize, actionSize int, noise []float64, actorHidden, criticHidden []int, memorySize, batch int, src *rng.Source) (*DDPG, error) {
	if noise != nil && len(noise) != actionSize {
		return nil, fmt.Errorf("agent: noise must have length %d, got %d", actionSize, len(noise))
	}

	actor, err := neural.New(stateSize, actionSize, len(actorHidden), actorHidden, activation.ReLU, activation.Tanh, batch, src)
	if err != nil {
		return nil, fmt.Errorf("agent: actor: %w", err)
	}
	critic, err := neural.New(actionSize+stateSize, 1, len(criticHidden), criticHidden, activation.ReLU, activation.Linear, batch, src)
	if err != nil {
		return nil, fmt.Errorf("agent: critic: %w", err)
	}

	d := &DDPG{
		stateSize: stateSize, actionSize: actionSize, batch: batch,
		noise: noise, src: src,
		actor: actor, critic: critic,
		actorTarget:  actor.Clone(),
		criticTarget: critic.Clone(),
		memory:       NewMemory(stateSize, actionSize, memorySize),
		actorInput:   matrix.New(batch, stateSize),
		criticInput:  matrix.New(batch, actionSize+stateSize),
		actorErrors:  matrix.New(batch, actionSize),
		criticErrors: matrix.New(batch, 1),
	}
	d.actorAdam = optim.New(actor)
	d.criticAdam = optim.New(critic)
	return d, nil
}

// Destroy releases every network, optimizer, memory and scratch buffer d
// owns.
func (d *DDPG) Destroy() {
	d.actor.Destroy()
	d.critic.Destroy()
	d.actorTarget.Destroy()
	d.criticTarget.Destroy()
	d.actorAdam.Destroy()
	d.criticAdam.Destroy()
	d.memory.Destroy()
	d.actorInput.Destroy()
	d.criticInput.Destroy()
	d.actorErrors.Destroy()
	d.criticErrors.Destroy()
}

// Action runs the actor on state, adds exploration noise if configured, and
// returns the resulting action clipped to [-1,1]. Only row 0 of the actor's
// batch input is populated; the remaining rows feed forward as zeros and
// are discarded, matching the reference's batch-of-one action-selection
// trick rather than a dedicated single-example forward path.
func (d *DDPG) Action(state []float64) ([]float64, error) {
	matrix.Clear(d.actorInput)
	copy(d.actorInput.Row(0), state)

	out, err := d.actor.Feedforward(d.actorInput)
	if err != nil {
		return nil, err
	}

	action := make([]float64, d.actionSize)
	copy(action, out.Row(0))
	if d.noise != nil {
		for i := range action {
			action[i] += d.src.Float64(-d.noise[i], d.noise[i])
			if action[i] > 1 {
				action[i] = 1
			} else if action[i] < -1 {
				action[i] = -1
			}
		}
	}
	return action, nil
}

// Observe records one environment transition into the replay memory. See
// Memory.Observe for the "first call after NewEpisode only primes" rule.
func (d *DDPG) Observe(action []float64, reward float64, state []float64, terminal bool) {
	d.memory.Observe(action, reward, state, terminal)
}

// NewEpisode resets the replay memory's previous-state primer for a new
// episode.
func (d *DDPG) NewEpisode() {
	d.memory.NewEpisode()
}

// Train runs one actor and critic gradient step against a batch sampled
// uniformly at random (with replacement) from replay memory. It is a no-op
// returning nil if fewer than Batch transitions have been recorded yet.
func (d *DDPG) Train(gamma float64) error {
	if d.memory.Len() < d.batch {
		return nil
	}
	idxs := d.memory.Sample(d.batch, d.src)

	if err := d.trainActor(idxs); err != nil {
		return err
	}
	return d.trainCritic(idxs, gamma)
}

// trainActor maximizes the critic's value estimate of the actor's own
// proposed action by backpropagating a constant -1 "error" through the
// critic (loss.None: flat gradient ascent on the critic's output) and
// chaining the critic's input-error gradient for the action columns back
// into the actor as its output error.
func (d *DDPG) trainActor(idxs []int) error {
	for i, row := range idxs {
		copy(d.actorInput.Row(i), d.memory.PrevState(row))
	}
	proposed, err := d.actor.Feedforward(d.actorInput)
	if err != nil {
		return err
	}
	for i := range idxs {
		copy(d.criticInput.Row(i)[:d.actionSize], proposed.Row(i))
		copy(d.criticInput.Row(i)[d.actionSize:], d.actorInput.Row(i))
	}
	if _, err := d.critic.Feedforward(d.criticInput); err != nil {
		return err
	}
	matrix.Fill(d.criticErrors, -1)
	if _, err := d.critic.Backpropagate(d.criticErrors, loss.None); err != nil {
		return err
	}

	ie := d.critic.InputErrors()
	for i := range idxs {
		copy(d.actorErrors.Row(i), ie.Row(i)[:d.actionSize])
	}
	if _, err := d.actor.Backpropagate(d.actorErrors, loss.None); err != nil {
		return err
	}
	d.actorAdam.Step(d.actor)
	return nil
}

// trainCritic regresses the critic towards the one-step TD target
// reward + gamma*Q_target(nextState, actorTarget(nextState)), or towards
// zero at a terminal transition (the reward is not used there).
func (d *DDPG) trainCritic(idxs []int, gamma float64) error {
	for i, row := range idxs {
		copy(d.criticInput.Row(i)[:d.actionSize], d.memory.Action(row))
		copy(d.criticInput.Row(i)[d.actionSize:], d.memory.PrevState(row))
	}
	criticOutput, err := d.critic.Feedforward(d.criticInput)
	if err != nil {
		return err
	}
	criticOutput = matrix.Clone(criticOutput)
	defer criticOutput.Destroy()

	for i, row := range idxs {
		copy(d.actorInput.Row(i), d.memory.NextState(row))
	}
	actorTargetOut, err := d.actorTarget.Feedforward(d.actorInput)
	if err != nil {
		return err
	}
	for i := range idxs {
		copy(d.criticInput.Row(i)[:d.actionSize], actorTargetOut.Row(i))
		copy(d.criticInput.Row(i)[d.actionSize:], d.actorInput.Row(i))
	}
	criticTargetOut, err := d.criticTarget.Feedforward(d.criticInput)
	if err != nil {
		return err
	}

	for i, row := range idxs {
		reward := d.memory.Reward(row)
		if d.memory.Terminal(row) {
			d.criticErrors.Set(i, 0, criticOutput.At(i, 0))
		} else {
			target := reward + gamma*criticTargetOut.At(i, 0)
			d.criticErrors.Set(i, 0, criticOutput.At(i, 0)-target)
		}
	}
	if _, err := d.critic.Backpropagate(d.criticErrors, loss.None); err != nil {
		return err
	}
	d.criticAdam.Step(d.critic)
	return nil
}

// UpdateTargetNetworks hard-copies the actor and critic's current weights
// into their target networks. DDPG as specified uses this periodic hard
// sync rather than Polyak-averaged soft updates.
func (d *DDPG) UpdateTargetNetworks() error {
	if err := d.actorTarget.CopyFrom(d.actor); err != nil {
		return err
	}
	return d.criticTarget.CopyFrom(d.critic)
}

// SavePolicy writes the actor's and critic's weights, in that order, to a
// single file at path. Target networks and replay memory are not persisted.
func (d *DDPG) SavePolicy(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.writePolicy(f)
}

func (d *DDPG) writePolicy(w io.Writer) error {
	if err := d.actor.WriteWeights(w); err != nil {
		return err
	}
	return d.critic.WriteWeights(w)
}

// LoadPolicy reads weights previously written by SavePolicy into the actor
// and critic. Target networks are left untouched; call UpdateTargetNetworks
// afterwards to sync them too.
func (d *DDPG) LoadPolicy(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := d.actor.ReadWeights(f); err != nil {
		return err
	}
	return d.critic.ReadWeights(f)
}
