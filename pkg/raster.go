package brain

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Digitize returns the index i such that edges[i-1] <= x < edges[i], for
// monotonically increasing edges. Values below the first edge give 0 and
// values at or above the last edge give len(edges). A value equal to an
// edge therefore belongs to the bin starting at that edge.
func Digitize[T constraints.Float](x T, edges []T) int {
	return sort.Search(len(edges), func(i int) bool {
		return edges[i] > x
	})
}

// BuildSpikeRaster marks the alignment samples containing a spike.
//
// Bin i spans [alignment[i]-0.5, alignment[i+1]-0.5), so integer spike
// indices land centered in their bin; the last bin ends at
// alignment[L-1]+0.5. Spikes outside the trial are dropped. The result
// always has len(alignment) entries.
func BuildSpikeRaster(alignment []int64, spikeIndices []int64) []bool {
	raster := make([]bool, len(alignment))
	if len(alignment) == 0 {
		return raster
	}

	edges := make([]float64, len(alignment)+2)
	for i, a := range alignment {
		edges[i] = float64(a) - 0.5
	}
	last := float64(alignment[len(alignment)-1])
	edges[len(alignment)] = last + 0.5
	edges[len(alignment)+1] = last + 1.5

	for _, s := range spikeIndices {
		bin := Digitize(float64(s), edges) - 1
		if bin >= 0 && bin < len(alignment) {
			raster[bin] = true
		}
	}
	return raster
}

// SpikeCount returns the number of true samples of a raster.
func SpikeCount(raster []bool) int {
	n := 0
	for _, spike := range raster {
		if spike {
			n++
		}
	}
	return n
}
