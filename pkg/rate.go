package brain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EphysTime returns the ephys time base spanning the behavior time vector:
// 1+round(fsEphys*ptp(tBeh)) evenly spaced samples from tBeh[0] to
// tBeh[len-1].
func EphysTime(tBeh []float64, fsEphys float64) []float64 {
	if len(tBeh) == 0 {
		return []float64{}
	}
	first, last := tBeh[0], tBeh[len(tBeh)-1]
	n := 1 + int(math.Round(fsEphys*(floats.Max(tBeh)-floats.Min(tBeh))))
	if n < 2 {
		return []float64{first}
	}
	return floats.Span(make([]float64, n), first, last)
}

// RebinSpikeTimes marks the behavior samples nearest to each spike time.
// Bin edges sit half a behavior sample before each sample of tBeh, with
// two trailing edges after the last sample; spikes outside the bins are
// dropped.
func RebinSpikeTimes(spikeTimes []float64, tBeh []float64, fsBeh float64) []bool {
	raster := make([]bool, len(tBeh))
	if len(tBeh) == 0 {
		return raster
	}
	half := 1 / (2 * fsBeh)
	last := tBeh[len(tBeh)-1]
	edges := make([]float64, len(tBeh)+2)
	for i, t := range tBeh {
		edges[i] = t - half
	}
	edges[len(tBeh)] = last + 1/fsBeh - half
	edges[len(tBeh)+1] = last + 2/fsBeh - half

	for _, t := range spikeTimes {
		bin := Digitize(t, edges) - 1
		if bin >= 0 && bin < len(tBeh) {
			raster[bin] = true
		}
	}
	return raster
}

// EstimateRate converts an ephys-aligned spike raster into a firing rate in
// spikes/s on the behavior time base tBeh. The raster is projected on the
// ephys time base, rebinned onto tBeh, filtered at the behavior rate and
// scaled by it. A raster without spikes gives an all-zero rate.
func EstimateRate(raster []bool, tBeh []float64, fsEphys float64, fsBeh float64, filter Filter) ([]float64, error) {
	if SpikeCount(raster) == 0 {
		return make([]float64, len(tBeh)), nil
	}

	tEphys := EphysTime(tBeh, fsEphys)
	if len(tEphys) != len(raster) {
		return nil, &ErrLengthMismatch{What: "spike raster on ephys time base", Expected: len(tEphys), Found: len(raster)}
	}

	spikeTimes := make([]float64, 0)
	for i, spike := range raster {
		if spike {
			spikeTimes = append(spikeTimes, tEphys[i])
		}
	}
	rebinned := RebinSpikeTimes(spikeTimes, tBeh, fsBeh)

	signal := make([]float64, len(rebinned))
	for i, spike := range rebinned {
		if spike {
			signal[i] = 1
		}
	}
	rate := filter.Filter(signal, fsBeh)
	floats.Scale(fsBeh, rate)
	return rate, nil
}
