package brain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitize(t *testing.T) {
	edges := []float64{0, 1, 2}
	tests := []struct {
		x    float64
		want int
	}{
		{-1, 0},
		{0, 1},
		{0.5, 1},
		{1, 2},
		{1.999, 2},
		{2, 3},
		{5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Digitize(tt.x, edges), "x=%g", tt.x)
	}
}

func TestBuildSpikeRaster(t *testing.T) {
	tests := []struct {
		name      string
		alignment []int64
		spikes    []int64
		want      []bool
	}{
		{
			name:      "contiguous alignment",
			alignment: []int64{10, 11, 12, 13, 14},
			spikes:    []int64{9, 10, 12, 14, 15, 100},
			want:      []bool{true, false, true, false, true},
		},
		{
			name:      "strided alignment",
			alignment: []int64{0, 2, 4},
			spikes:    []int64{1, 3},
			want:      []bool{true, true, false},
		},
		{
			name:      "last sample",
			alignment: []int64{0, 2, 4},
			spikes:    []int64{4, 5},
			want:      []bool{false, false, true},
		},
		{
			name:      "no spikes",
			alignment: []int64{0, 1, 2},
			spikes:    nil,
			want:      []bool{false, false, false},
		},
		{
			name:      "empty alignment",
			alignment: []int64{},
			spikes:    []int64{1, 2},
			want:      []bool{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raster := BuildSpikeRaster(tt.alignment, tt.spikes)
			assert.Equal(t, tt.want, raster)
			assert.Len(t, raster, len(tt.alignment))
			assert.LessOrEqual(t, SpikeCount(raster), len(tt.spikes))
		})
	}
}
