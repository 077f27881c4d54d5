package agent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosgajdos/deepnet/pkg/rng"
)

func newTestDDPG(t *testing.T, noise []float64) *DDPG {
	t.Helper()
	d, err := New(2, 1, noise, []int{8}, []int{8}, 50, 4, rng.New(1))
	require.NoError(t, err)
	return d
}

func TestActionIsBoundedAndShaped(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d := newTestDDPG(t, []float64{0.5})
	action, err := d.Action([]float64{0.1, -0.2})
	require.NoError(err)
	require.Len(action, 1)
	assert.True(action[0] >= -1 && action[0] <= 1)
}

func TestActionWithoutNoiseIsDeterministic(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d := newTestDDPG(t, nil)
	a1, err := d.Action([]float64{0.3, 0.4})
	require.NoError(err)
	a2, err := d.Action([]float64{0.3, 0.4})
	require.NoError(err)
	assert.Equal(a1, a2)
}

func TestNewRejectsMismatchedNoiseLength(t *testing.T) {
	assert := assert.New(t)

	_, err := New(2, 2, []float64{0.1}, []int{4}, []int{4}, 10, 2, rng.New(1))
	assert.Error(err)
}

func TestTrainNoOpBelowBatchSize(t *testing.T) {
	require := require.New(t)

	d := newTestDDPG(t, nil)
	d.Observe(nil, 0, []float64{0, 0}, false) // primes only
	d.Observe([]float64{0.1}, 1.0, []float64{0.1, 0.1}, false)

	before := append([]float64(nil), d.actor.Layers()[0].Weights().Data()...)
	require.NoError(d.Train(0.99))
	after := d.actor.Layers()[0].Weights().Data()
	for i := range before {
		require.Equal(before[i], after[i])
	}
}

func TestTrainUpdatesWeightsOnceBatchFilled(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d := newTestDDPG(t, nil)
	d.Observe(nil, 0, []float64{0, 0}, false)
	for i := 0; i < 6; i++ {
		s := []float64{float64(i) * 0.1, -float64(i) * 0.1}
		d.Observe([]float64{0.05 * float64(i)}, 1.0, s, i == 5)
	}

	before := append([]float64(nil), d.actor.Layers()[0].Weights().Data()...)
	require.NoError(d.Train(0.99))
	after := d.actor.Layers()[0].Weights().Data()

	changed := false
	for i := range before {
		if before[i] != after[i] {
			changed = true
			break
		}
	}
	assert.True(changed)
}

func TestUpdateTargetNetworksSyncsWeights(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d := newTestDDPG(t, nil)
	d.Observe(nil, 0, []float64{0, 0}, false)
	for i := 0; i < 6; i++ {
		s := []float64{float64(i) * 0.1, -float64(i) * 0.1}
		d.Observe([]float64{0.05 * float64(i)}, 1.0, s, false)
	}
	require.NoError(d.Train(0.99))

	assert.NotEqual(d.actor.Layers()[0].Weights().Data(), d.actorTarget.Layers()[0].Weights().Data())
	require.NoError(d.UpdateTargetNetworks())
	assert.Equal(d.actor.Layers()[0].Weights().Data(), d.actorTarget.Layers()[0].Weights().Data())
	assert.Equal(d.critic.Layers()[0].Weights().Data(), d.criticTarget.Layers()[0].Weights().Data())
}

func TestSaveLoadPolicyRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d := newTestDDPG(t, nil)
	path := filepath.Join(t.TempDir(), "policy.bin")
	require.NoError(d.SavePolicy(path))

	other := newTestDDPG(t, nil)
	require.NoError(other.LoadPolicy(path))

	assert.Equal(d.actor.Layers()[0].Weights().Data(), other.actor.Layers()[0].Weights().Data())
	assert.Equal(d.critic.Layers()[0].Weights().Data(), other.critic.Layers()[0].Weights().Data())
}

func TestNewEpisodeRePrimesMemory(t *testing.T) {
	assert := assert.New(t)

	d := newTestDDPG(t, nil)
	d.Observe(nil, 0, []float64{0, 0}, false)
	d.Observe([]float64{0.1}, 1, []float64{1, 1}, true)
	assert.Equal(1, d.memory.Len())

	d.NewEpisode()
	d.Observe(nil, 0, []float64{9, 9}, false)
	assert.Equal(1, d.memory.Len())
}
