package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/milosgajdos/deepnet/pkg/rng"
)

func TestFirstObserveOnlyPrimes(t *testing.T) {
	assert := assert.New(t)

	m := NewMemory(2, 1, 10)
	m.Observe([]float64{0.5}, 1.0, []float64{1, 2}, false)
	assert.Equal(0, m.Len())
}

func TestObserveWritesTransition(t *testing.T) {
	assert := assert.New(t)

	m := NewMemory(2, 1, 10)
	m.Observe(nil, 0, []float64{1, 2}, false) // primes lastState
	m.Observe([]float64{0.5}, 1.0, []float64{3, 4}, true)

	assert.Equal(1, m.Len())
	assert.Equal([]float64{1, 2}, m.PrevState(0))
	assert.Equal([]float64{0.5}, m.Action(0))
	assert.Equal(1.0, m.Reward(0))
	assert.Equal([]float64{3, 4}, m.NextState(0))
	assert.True(m.Terminal(0))
}

func TestRingBufferWrapsAndCapsUsed(t *testing.T) {
	assert := assert.New(t)

	m := NewMemory(1, 1, 3)
	m.Observe(nil, 0, []float64{0}, false)
	for i := 1; i <= 5; i++ {
		m.Observe([]float64{float64(i)}, float64(i), []float64{float64(i)}, false)
	}

	assert.Equal(3, m.Len())
	// after 5 writes into a 3-slot ring, the oldest two are overwritten;
	// row 0 (index (4-1) % 3) holds the 4th write (action=4).
	assert.Equal([]float64{4}, m.Action(0))
}

func TestNewEpisodeRePrimes(t *testing.T) {
	assert := assert.New(t)

	m := NewMemory(1, 1, 10)
	m.Observe(nil, 0, []float64{1}, false)
	m.Observe([]float64{0.1}, 1, []float64{2}, true)
	assert.Equal(1, m.Len())

	m.NewEpisode()
	m.Observe(nil, 0, []float64{9}, false) // primes again, no write
	assert.Equal(1, m.Len())
}

func TestSampleWithinBounds(t *testing.T) {
	assert := assert.New(t)

	m := NewMemory(1, 1, 5)
	m.Observe(nil, 0, []float64{0}, false)
	for i := 0; i < 4; i++ {
		m.Observe([]float64{float64(i)}, 0, []float64{float64(i)}, false)
	}

	src := rng.New(1)
	idxs := m.Sample(20, src)
	for _, idx := range idxs {
		assert.True(idx >= 0 && idx < m.Len())
	}
}
