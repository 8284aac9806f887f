package brain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samples(first int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = first + int64(i)
	}
	return out
}

// testSource has two neurons, two blocks (conditions 1 and 2) and four
// trials; trial 2 is a bad trial and trial 4 is not saved.
func testSource() *MemorySource {
	trial := func(id, block, condition int, good, save bool) Trial {
		return Trial{SessionKey: testSession, Trial: id, BlockID: block, ConditionID: condition,
			GoodTrial: good, BehaviorQualityParamsID: 1, SaveTag: save}
	}
	alignment := func(id int, first int64, n int) TrialAlignment {
		return TrialAlignment{
			TrialAlignmentKey: TrialAlignmentKey{SessionKey: testSession, Trial: id, AlignmentParamsID: 1},
			ValidAlignment:    true,
			EphysAlignment:    samples(first, n),
		}
	}
	return &MemorySource{
		SessionList: []Session{{SessionKey: testSession, EphysSampleRate: 1000, BehaviorSampleRate: 100}},
		NeuronList: []Neuron{
			{NeuronKey: NeuronKey{SessionKey: testSession, NeuronID: 1}, SpikeIndices: []int64{1050, 2030, 3100, 4100}},
			{NeuronKey: NeuronKey{SessionKey: testSession, NeuronID: 2}, SpikeIndices: []int64{}},
		},
		TrialList: []Trial{
			trial(1, 1, 1, true, true),
			trial(2, 1, 1, false, true),
			trial(3, 2, 2, true, true),
			trial(4, 2, 2, true, false),
		},
		AlignmentList: []TrialAlignment{
			alignment(1, 1000, 101),
			alignment(2, 2000, 101),
			alignment(3, 3000, 201),
			alignment(4, 4000, 201),
		},
		ConditionList: []Condition{
			{ConditionID: 1, Duration: 0.1},
			{ConditionID: 2, Duration: 0.2},
		},
		FilterList: []FilterParams{
			{FilterParamsID: 1, Kind: BoxcarFilter, Duration: 0.01},
			{FilterParamsID: 2, Kind: GaussianFilter, Sigma: 0.02},
		},
	}
}

func newTestPipeline(t *testing.T, source Source, goodTrialsOnly bool) (*Pipeline, *Store) {
	t.Helper()
	config := DefaultConfiguration()
	config.NumWorkers = 3
	config.GoodTrialsOnly = goodTrialsOnly
	store := NewStore(NewMemoryKV())
	t.Cleanup(func() {
		store.Close()
	})
	pipeline, err := NewPipeline(context.Background(), source, store, config, nil)
	require.NoError(t, err)
	return pipeline, store
}

func TestPipelinePopulate(t *testing.T) {
	ctx := context.Background()
	pipeline, store := newTestPipeline(t, testSource(), false)

	summaries, err := pipeline.Populate(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	// 2 neurons x 3 saved trials, x 2 filters, then 2 neurons x 2 blocks x 2 filters
	assert.Equal(t, 6, summaries[0].Populated)
	assert.Equal(t, 12, summaries[1].Populated)
	assert.Equal(t, 8, summaries[2].Populated)
	for _, summary := range summaries {
		assert.Zero(t, summary.Failed, summary.Errors)
	}

	raster, err := pipeline.Raster(ctx, RasterKey{SessionKey: testSession, NeuronID: 1, BlockID: 1, Trial: 2, AlignmentParamsID: 1})
	require.NoError(t, err)
	assert.Len(t, raster.Raster, 101)
	assert.True(t, raster.Raster[30])
	assert.Equal(t, 1, SpikeCount(raster.Raster))
	assert.False(t, raster.GoodTrial)
	assert.Equal(t, 1, raster.BehaviorQualityParamsID)

	rate, err := pipeline.Rate(ctx, RateKey{RasterKey: raster.Key, FilterParamsID: 1})
	require.NoError(t, err)
	assert.False(t, rate.GoodTrial)
	assert.Len(t, rate.Rate, 11)
	assert.InDelta(t, 100, rate.Rate[3], 1e-9)

	psth, err := pipeline.Psth(ctx, PsthKey{SessionKey: testSession, NeuronID: 1, BlockID: 1, FilterParamsID: 1})
	require.NoError(t, err)
	want := make([]float64, 11)
	want[3], want[5] = 50, 50
	assert.InDeltaSlice(t, want, psth.Psth, 1e-9)

	// trial 4 is not saved, so block 2 only averages trial 3
	psth, err = pipeline.Psth(ctx, PsthKey{SessionKey: testSession, NeuronID: 1, BlockID: 2, FilterParamsID: 1})
	require.NoError(t, err)
	want = make([]float64, 21)
	want[10] = 100
	assert.InDeltaSlice(t, want, psth.Psth, 1e-9)

	silent, err := pipeline.Psth(ctx, PsthKey{SessionKey: testSession, NeuronID: 2, BlockID: 2, FilterParamsID: 2})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 21), silent.Psth)

	_, err = store.Raster(ctx, RasterKey{SessionKey: testSession, NeuronID: 1, BlockID: 2, Trial: 4, AlignmentParamsID: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	// a second run finds everything populated
	summaries, err = pipeline.Populate(ctx, testSession)
	require.NoError(t, err)
	for _, summary := range summaries {
		assert.Zero(t, summary.Populated)
		assert.Zero(t, summary.Failed)
	}
}

func TestPipelineGoodTrialsOnly(t *testing.T) {
	ctx := context.Background()
	pipeline, _ := newTestPipeline(t, testSource(), true)

	_, err := pipeline.Populate(ctx, testSession)
	require.NoError(t, err)

	psth, err := pipeline.Psth(ctx, PsthKey{SessionKey: testSession, NeuronID: 1, BlockID: 1, FilterParamsID: 1})
	require.NoError(t, err)
	want := make([]float64, 11)
	want[5] = 100
	assert.InDeltaSlice(t, want, psth.Psth, 1e-9)
}

func TestPipelineAmbiguousFilter(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	source.FilterList = append(source.FilterList, FilterParams{FilterParamsID: 1, Kind: HammingFilter, Duration: 0.05})
	pipeline, _ := newTestPipeline(t, source, false)

	summaries, err := pipeline.Populate(ctx, testSession)
	require.NoError(t, err)
	// every rate with filter 1 fails, filter 2 is unaffected
	assert.Equal(t, 6, summaries[1].Failed)
	assert.Equal(t, 6, summaries[1].Populated)
	for _, err := range summaries[1].Errors {
		assert.True(t, IsConfigurationError(err))
	}
	assert.Equal(t, 4, summaries[2].Populated)
}

func TestPipelineAlignmentLengthMismatch(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	source.AlignmentList[0].EphysAlignment = samples(1000, 90)
	pipeline, _ := newTestPipeline(t, source, false)

	summaries, err := pipeline.Populate(ctx, testSession)
	require.NoError(t, err)
	// neuron 1 spikes in trial 1, neuron 2 never does and still gets zeros
	assert.Equal(t, 2, summaries[1].Failed)
	for _, err := range summaries[1].Errors {
		var mismatch *ErrLengthMismatch
		assert.True(t, errors.As(err, &mismatch))
	}
}

func TestPipelineMissingSampleRate(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	source.SessionList[0].BehaviorSampleRate = 0
	pipeline, _ := newTestPipeline(t, source, false)

	summaries, err := pipeline.Populate(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, 6, summaries[0].Populated)
	assert.Equal(t, 12, summaries[1].Failed)
	var missing *ErrMissingMetadata
	require.True(t, errors.As(summaries[1].Errors[0], &missing))
}

func TestBlockConditions(t *testing.T) {
	pipeline, _ := newTestPipeline(t, testSource(), false)
	blocks, err := pipeline.BlockConditions(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 2: 2}, blocks)

	source := testSource()
	source.TrialList[1].ConditionID = 2
	pipeline, _ = newTestPipeline(t, source, false)
	_, err = pipeline.BlockConditions(context.Background(), testSession)
	assert.Error(t, err)
}
