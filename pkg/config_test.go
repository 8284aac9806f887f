package brain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfiguration(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"verbosity": 2,
		"store_backend": "memory",
		"subject": "cousteau",
		"session_date": "2021-03-18",
		"condition_order": [3, 1, 2],
		"normalize": true,
		"soft_factor": 5
	}`
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)
	assert.Equal(t, 2, config.Verbosity)
	assert.Equal(t, MemoryBackend, config.StoreBackend)
	assert.Equal(t, testSession, SessionKey{Subject: config.Subject, SessionDate: config.SessionDate})
	assert.Equal(t, []int{3, 1, 2}, config.ConditionOrder)
	assert.True(t, config.Normalize)
	assert.Equal(t, 5.0, config.SoftFactor)

	// unset fields keep their defaults
	assert.Equal(t, 1, config.NumWorkers)
	assert.Equal(t, 3306, config.Port)
	assert.Equal(t, 1000.0, config.SampleRate)
	assert.Equal(t, []string{"neuron_psth"}, config.Attributes)
	assert.False(t, config.GoodTrialsOnly)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	filename := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(filename, []byte("{"), 0o644))
	_, err = LoadConfiguration(filename)
	assert.Error(t, err)
}

func TestLoadSourceFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "source.json")
	content := `{
		"sessions": [{"subject": "cousteau", "session_date": "2021-03-18", "ephys_sample_rate": 30000, "behavior_sample_rate": 1000}],
		"neurons": [{"subject": "cousteau", "session_date": "2021-03-18", "neuron_id": 2, "spike_indices": [5, 9]}],
		"filters": [{"filter_params_id": 1, "filter_kind": "gaussian", "sigma": 0.025}]
	}`
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

	source, err := LoadSourceFile(filename)
	require.NoError(t, err)
	session, err := source.Session(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, 30000.0, session.EphysSampleRate)

	spikes, err := source.SpikeIndices(context.Background(), NeuronKey{SessionKey: testSession, NeuronID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9}, spikes)

	_, err = source.SpikeIndices(context.Background(), NeuronKey{SessionKey: testSession, NeuronID: 3})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, GaussianFilter, source.FilterList[0].Kind)
}
