package population

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// digitize mirrors brain.Digitize, which this package cannot import.
func digitize(x float64, edges []float64) int {
	return sort.Search(len(edges), func(i int) bool {
		return edges[i] > x
	})
}

// Rebin moves the true samples of a raster sampled at tOld to the nearest
// sample of tNew. Bin edges are the midpoints between consecutive samples
// of tNew, extended to -Inf and +Inf; a spike exactly on a midpoint goes to
// the later sample.
func Rebin(raster []float64, tOld []float64, tNew []float64) []float64 {
	out := make([]float64, len(tNew))
	if len(tNew) == 0 {
		return out
	}
	edges := make([]float64, len(tNew)+1)
	edges[0] = math.Inf(-1)
	for i := 0; i < len(tNew)-1; i++ {
		edges[i+1] = (tNew[i] + tNew[i+1]) / 2
	}
	edges[len(tNew)] = math.Inf(1)

	for i, v := range raster {
		if v == 0 || i >= len(tOld) {
			continue
		}
		bin := digitize(tOld[i], edges) - 1
		if bin >= 0 && bin < len(out) {
			out[bin] = 1
		}
	}
	return out
}

// Interp linearly interpolates the samples (tOld, values) at tNew. Points
// outside the range of tOld take the value of the nearest end.
func Interp(tNew []float64, tOld []float64, values []float64) []float64 {
	out := make([]float64, len(tNew))
	switch {
	case len(tOld) == 0 || len(values) != len(tOld):
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	case len(tOld) == 1:
		for i := range out {
			out[i] = values[0]
		}
		return out
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(tOld, values); err != nil {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i, t := range tNew {
		out[i] = pl.Predict(t)
	}
	return out
}

// Resample moves a series from tOld to tNew.
func Resample(series Series, tOld []float64, tNew []float64) Series {
	if series.Boolean {
		return Series{Values: Rebin(series.Values, tOld, tNew), Boolean: true}
	}
	return Series{Values: Interp(tNew, tOld, series.Values)}
}
