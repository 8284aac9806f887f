package population

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func grid(n int, sampleRate float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / sampleRate
	}
	return t
}

func TestRebinSameGrid(t *testing.T) {
	tt := grid(10, 100)
	raster := []float64{0, 1, 0, 0, 1, 1, 0, 0, 0, 1}
	assert.Equal(t, raster, Rebin(raster, tt, tt))
}

func TestRebinNearestSample(t *testing.T) {
	tOld := grid(11, 1000) // 0 .. 0.01
	tNew := grid(3, 200)   // 0, 0.005, 0.01
	raster := make([]float64, len(tOld))
	raster[2] = 1  // 0.002 -> 0
	raster[3] = 1  // 0.003 -> 0.005
	raster[10] = 1 // 0.01 -> 0.01

	assert.Equal(t, []float64{1, 1, 1}, Rebin(raster, tOld, tNew))

	raster = make([]float64, len(tOld))
	raster[7] = 1 // 0.007 -> 0.005
	raster[8] = 1 // 0.008 -> 0.01
	assert.Equal(t, []float64{0, 1, 1}, Rebin(raster, tOld, tNew))
}

func TestRebinOutsideRange(t *testing.T) {
	// nearest-bin edges are unbounded, so early and late spikes land on
	// the first and last samples
	tOld := []float64{-1, 5}
	tNew := grid(3, 1)
	assert.Equal(t, []float64{1, 0, 1}, Rebin([]float64{1, 1}, tOld, tNew))
}

func TestInterp(t *testing.T) {
	tOld := []float64{0, 1, 2}
	values := []float64{0, 10, 30}
	got := Interp([]float64{-1, 0, 0.5, 1, 1.25, 2, 3}, tOld, values)
	assert.InDeltaSlice(t, []float64{0, 0, 5, 10, 15, 30, 30}, got, 1e-12)
}

func TestResample(t *testing.T) {
	tOld := grid(5, 10)
	tNew := grid(9, 20)

	boolean := Resample(BoolSeries([]bool{false, true, false, false, true}), tOld, tNew)
	assert.True(t, boolean.Boolean)
	assert.Equal(t, []float64{0, 0, 1, 0, 0, 0, 0, 0, 1}, boolean.Values)

	continuous := Resample(FloatSeries([]float64{0, 1, 2, 3, 4}), tOld, tNew)
	assert.False(t, continuous.Boolean)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}, continuous.Values, 1e-12)
}

func TestInterpShortInput(t *testing.T) {
	tNew := []float64{-1, 0, 1}
	for _, v := range Interp(tNew, nil, nil) {
		assert.True(t, math.IsNaN(v))
	}
	assert.Equal(t, []float64{7, 7, 7}, Interp(tNew, []float64{0.5}, []float64{7}))
	for _, v := range Interp(tNew, []float64{0, 1}, []float64{1}) {
		assert.True(t, math.IsNaN(v))
	}
}
