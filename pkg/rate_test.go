package brain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestEphysTime(t *testing.T) {
	tBeh := Condition{Duration: 0.1}.Time(100)
	require.Len(t, tBeh, 11)

	tEphys := EphysTime(tBeh, 1000)
	require.Len(t, tEphys, 101)
	assert.InDelta(t, 0, tEphys[0], 1e-12)
	assert.InDelta(t, 0.1, tEphys[100], 1e-12)
	assert.InDelta(t, 0.05, tEphys[50], 1e-12)

	assert.Equal(t, []float64{0.5}, EphysTime([]float64{0.5}, 1000))
	assert.Empty(t, EphysTime(nil, 1000))
}

func TestRebinSpikeTimes(t *testing.T) {
	tBeh := Condition{Duration: 0.1}.Time(100)

	// spikes on the behavior grid come back unchanged
	raster := RebinSpikeTimes([]float64{tBeh[0], tBeh[3], tBeh[10]}, tBeh, 100)
	want := make([]bool, len(tBeh))
	want[0], want[3], want[10] = true, true, true
	assert.Equal(t, want, raster)

	// nearest sample, half a sample before the first one is still inside
	raster = RebinSpikeTimes([]float64{-0.005, 0.024, 0.026, 0.2}, tBeh, 100)
	want = make([]bool, len(tBeh))
	want[0], want[2], want[3] = true, true, true
	assert.Equal(t, want, raster)
}

func TestEstimateRateWithoutSpikes(t *testing.T) {
	tBeh := Condition{Duration: 0.1}.Time(100)
	rate, err := EstimateRate(make([]bool, 7), tBeh, 1000, 100, Boxcar{Duration: 0.05})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, len(tBeh)), rate)
}

func TestEstimateRateLengthMismatch(t *testing.T) {
	tBeh := Condition{Duration: 0.1}.Time(100)
	raster := make([]bool, 50)
	raster[10] = true

	_, err := EstimateRate(raster, tBeh, 1000, 100, Boxcar{Duration: 0.05})
	var mismatch *ErrLengthMismatch
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 101, mismatch.Expected)
	assert.Equal(t, 50, mismatch.Found)
}

func TestEstimateRate(t *testing.T) {
	tBeh := Condition{Duration: 0.1}.Time(100)
	raster := make([]bool, 101)
	raster[50] = true

	rate, err := EstimateRate(raster, tBeh, 1000, 100, Boxcar{Duration: 0.01})
	require.NoError(t, err)
	want := make([]float64, len(tBeh))
	want[5] = 100
	assert.InDeltaSlice(t, want, rate, 1e-9)
}

func TestEstimateRateConservesSpikes(t *testing.T) {
	tBeh := Condition{Duration: 1}.Time(100)
	raster := make([]bool, 1001)
	raster[500] = true
	raster[300] = true

	rate, err := EstimateRate(raster, tBeh, 1000, 100, Gaussian{Sigma: 0.02})
	require.NoError(t, err)
	require.Len(t, rate, len(tBeh))
	// unit-sum kernel: integral of the rate is the spike count
	assert.InDelta(t, 2, floats.Sum(rate)/100, 1e-9)
	assert.Equal(t, 50, floats.MaxIdx(rate[40:60])+40)
}
