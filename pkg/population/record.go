// Package population assembles per-trial or per-unit attribute records into
// a regular tensor: population members on one axis and the concatenated
// time vectors of every condition on the other.
package population

// Series is one attribute of a record. Boolean series (spike rasters) are
// rebinned when resampled, continuous series are interpolated.
type Series struct {
	Values  []float64
	Boolean bool
}

func BoolSeries(raster []bool) Series {
	values := make([]float64, len(raster))
	for i, spike := range raster {
		if spike {
			values[i] = 1
		}
	}
	return Series{Values: values, Boolean: true}
}

func FloatSeries(values []float64) Series {
	return Series{Values: values}
}

// Record holds the attributes of one population member in one condition,
// sampled at SampleRate. A zero SampleRate means the configured default.
type Record struct {
	Member      int
	ConditionID int
	SampleRate  float64
	Attributes  map[string]Series
}

// ConditionTimer generates the canonical time vector of a condition at a
// sample rate.
type ConditionTimer interface {
	ConditionTime(conditionID int, sampleRate float64) ([]float64, error)
}
