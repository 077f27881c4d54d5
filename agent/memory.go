// Package agent implements the DDPG reinforcement-learning agent: a replay
// memory ring buffer plus an actor/critic pair of neural.MLPs trained
// against it.
//
// Neither the teacher nor any other pack repo has a replay buffer; this one
// is grounded directly on the reference's ddpg_create/ddpg_observe, which
// store every transition as one row of a single matrix rather than as a
// slice of structs, so sampling a training batch is a row-gather over an
// already-allocated backing array instead of a slice of pointers.
package agent

import (
	"github.com/milosgajdos/deepnet/pkg/matrix"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

// Memory is a fixed-capacity ring buffer of DDPG transitions. Each row
// packs (prevState, action, reward, nextState, terminal) into one matrix
// row: columns [0,stateSize) are the state the action was taken from,
// [stateSize,stateSize+actionSize) are the action, the next column is the
// reward, the following stateSize columns are the resulting state, and the
// final column is a 0/1 terminal flag.
type Memory struct {
	stateSize, actionSize int
	capacity              int
	rows                  *matrix.Matrix

	idx  int
	used int

	lastState      []float64
	lastStateValid bool
}

// NewMemory allocates a ring buffer with room for capacity transitions.
func NewMemory(stateSize, actionSize, capacity int) *Memory {
	return &Memory{
		stateSize: stateSize, actionSize: actionSize, capacity: capacity,
		rows:      matrix.New(capacity, actionSize+2*stateSize+2),
		lastState: make([]float64, stateSize),
	}
}

// Destroy releases the buffer's backing matrix.
func (m *Memory) Destroy() {
	m.rows.Destroy()
}

// Len returns the number of valid transitions currently stored, capped at
// capacity.
func (m *Memory) Len() int { return m.used }

func (m *Memory) col(name string) (lo, hi int) {
	s, a := m.stateSize, m.actionSize
	switch name {
	case "prevState":
		return 0, s
	case "action":
		return s, s + a
	case "reward":
		return s + a, s + a + 1
	case "nextState":
		return s + a + 1, 2*s + a + 1
	case "terminal":
		return 2*s + a + 1, 2*s + a + 2
	}
	panic("agent: unknown memory column " + name)
}

// Observe records one environment step. The first call after construction
// or after NewEpisode only primes the buffer's notion of "previous state"
// and writes no transition, matching the reference's lastStateValid gate: a
// transition needs both a before-state and an after-state, and the very
// first observation of an episode has no before-state yet.
func (m *Memory) Observe(action []float64, reward float64, state []float64, terminal bool) {
	if !m.lastStateValid {
		copy(m.lastState, state)
		m.lastStateValid = true
		return
	}

	lo, hi := m.col("prevState")
	copy(m.rows.Row(m.idx)[lo:hi], m.lastState)
	lo, hi = m.col("action")
	copy(m.rows.Row(m.idx)[lo:hi], action)
	lo, _ = m.col("reward")
	m.rows.Row(m.idx)[lo] = reward
	lo, hi = m.col("nextState")
	copy(m.rows.Row(m.idx)[lo:hi], state)
	lo, _ = m.col("terminal")
	if terminal {
		m.rows.Row(m.idx)[lo] = 1.0
	} else {
		m.rows.Row(m.idx)[lo] = 0.0
	}

	copy(m.lastState, state)
	m.idx = (m.idx + 1) % m.capacity
	if m.used < m.capacity {
		m.used++
	}
}

// NewEpisode clears the "previous state" primer so the next Observe call is
// treated as the start of a fresh episode rather than a continuation.
func (m *Memory) NewEpisode() {
	m.lastStateValid = false
}

// Sample draws n transition indices uniformly at random, with replacement,
// from the currently populated rows. Before any transition has been recorded
// every draw is 0, an unwritten row; callers (DDPG.Train) are expected to
// check Len() against their batch size first.
func (m *Memory) Sample(n int, src *rng.Source) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = src.Int(0, m.used-1)
	}
	return idxs
}

// PrevState returns the prevState slice of the given sampled row.
func (m *Memory) PrevState(row int) []float64 {
	lo, hi := m.col("prevState")
	return m.rows.Row(row)[lo:hi]
}

// Action returns the action slice of the given sampled row.
func (m *Memory) Action(row int) []float64 {
	lo, hi := m.col("action")
	return m.rows.Row(row)[lo:hi]
}

// Reward returns the scalar reward of the given sampled row.
func (m *Memory) Reward(row int) float64 {
	lo, _ := m.col("reward")
	return m.rows.Row(row)[lo]
}

// NextState returns the nextState slice of the given sampled row.
func (m *Memory) NextState(row int) []float64 {
	lo, hi := m.col("nextState")
	return m.rows.Row(row)[lo:hi]
}

// Terminal reports whether the given sampled row's transition ended its
// episode.
func (m *Memory) Terminal(row int) bool {
	lo, _ := m.col("terminal")
	return m.rows.Row(row)[lo] > 0
}
