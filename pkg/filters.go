package brain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

type FilterKind string

const (
	GaussianFilter FilterKind = "gaussian"
	BoxcarFilter   FilterKind = "boxcar"
	HammingFilter  FilterKind = "hamming"
)

// defaultGaussianWidth is the kernel half width, in standard deviations,
// used when the parameters leave it unset.
const defaultGaussianWidth = 4

// FilterParams is one row of the filter parameter table. Sigma and Width
// apply to gaussian filters, Duration to boxcar and hamming filters. All
// times are in seconds.
type FilterParams struct {
	FilterParamsID int        `json:"filter_params_id" db:"filter_params_id"`
	Kind           FilterKind `json:"filter_kind" db:"filter_kind"`
	Sigma          float64    `json:"sigma" db:"sigma"`
	Width          float64    `json:"width" db:"width"`
	Duration       float64    `json:"duration" db:"duration"`
}

// Filter smooths a signal sampled at sampleRate. Kernels have unit sum, so
// filtering a spike raster and scaling by the sample rate gives spikes/s.
type Filter interface {
	Kind() FilterKind
	Kernel(sampleRate float64) []float64
	Filter(signal []float64, sampleRate float64) []float64
}

type Gaussian struct {
	Sigma float64
	Width float64
}

func (g Gaussian) Kind() FilterKind { return GaussianFilter }

func (g Gaussian) Kernel(sampleRate float64) []float64 {
	width := g.Width
	if width <= 0 {
		width = defaultGaussianWidth
	}
	sigma := g.Sigma * sampleRate
	half := int(math.Ceil(width * sigma))
	kernel := make([]float64, 2*half+1)
	for i := range kernel {
		x := float64(i-half) / sigma
		kernel[i] = math.Exp(-0.5 * x * x)
	}
	return normalizeKernel(kernel)
}

func (g Gaussian) Filter(signal []float64, sampleRate float64) []float64 {
	return convolveSame(signal, g.Kernel(sampleRate))
}

type Boxcar struct {
	Duration float64
}

func (b Boxcar) Kind() FilterKind { return BoxcarFilter }

func (b Boxcar) Kernel(sampleRate float64) []float64 {
	n := kernelLength(b.Duration, sampleRate)
	kernel := make([]float64, n)
	for i := range kernel {
		kernel[i] = 1
	}
	return normalizeKernel(kernel)
}

func (b Boxcar) Filter(signal []float64, sampleRate float64) []float64 {
	return convolveSame(signal, b.Kernel(sampleRate))
}

type Hamming struct {
	Duration float64
}

func (h Hamming) Kind() FilterKind { return HammingFilter }

func (h Hamming) Kernel(sampleRate float64) []float64 {
	n := kernelLength(h.Duration, sampleRate)
	kernel := make([]float64, n)
	if n == 1 {
		kernel[0] = 1
		return kernel
	}
	for i := range kernel {
		kernel[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return normalizeKernel(kernel)
}

func (h Hamming) Filter(signal []float64, sampleRate float64) []float64 {
	return convolveSame(signal, h.Kernel(sampleRate))
}

func kernelLength(duration float64, sampleRate float64) int {
	n := int(math.Round(duration * sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

func normalizeKernel(kernel []float64) []float64 {
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// convolveSame returns the central len(signal) samples of the full
// convolution, centered like numpy's "same" mode.
func convolveSame(signal []float64, kernel []float64) []float64 {
	out := make([]float64, len(signal))
	offset := (len(kernel) - 1) / 2
	for i := range out {
		// full index of output sample i
		n := i + offset
		var sum float64
		for j, k := range kernel {
			idx := n - j
			if idx < 0 {
				break
			}
			if idx >= len(signal) {
				continue
			}
			sum += signal[idx] * k
		}
		out[i] = sum
	}
	return out
}

// NewFilter builds the filter described by a parameter row.
func NewFilter(params FilterParams) (Filter, error) {
	switch params.Kind {
	case GaussianFilter:
		if params.Sigma <= 0 {
			return nil, fmt.Errorf("gaussian filter %d: sigma must be positive, got %g", params.FilterParamsID, params.Sigma)
		}
		return Gaussian{Sigma: params.Sigma, Width: params.Width}, nil
	case BoxcarFilter:
		if params.Duration <= 0 {
			return nil, fmt.Errorf("boxcar filter %d: duration must be positive, got %g", params.FilterParamsID, params.Duration)
		}
		return Boxcar{Duration: params.Duration}, nil
	case HammingFilter:
		if params.Duration <= 0 {
			return nil, fmt.Errorf("hamming filter %d: duration must be positive, got %g", params.FilterParamsID, params.Duration)
		}
		return Hamming{Duration: params.Duration}, nil
	default:
		return nil, fmt.Errorf("filter %d: unknown filter kind %q", params.FilterParamsID, params.Kind)
	}
}

// FilterRegistry resolves filter parameter ids to filters. It is built once
// from the filter parameter table and is read-only afterwards.
type FilterRegistry struct {
	filters map[int][]Filter
}

func NewFilterRegistry(params []FilterParams) (*FilterRegistry, error) {
	registry := &FilterRegistry{filters: make(map[int][]Filter)}
	for _, p := range params {
		f, err := NewFilter(p)
		if err != nil {
			return nil, err
		}
		registry.filters[p.FilterParamsID] = append(registry.filters[p.FilterParamsID], f)
	}
	return registry, nil
}

// Lookup returns the single filter registered under id.
func (r *FilterRegistry) Lookup(id int) (Filter, error) {
	matches := r.filters[id]
	switch len(matches) {
	case 0:
		return nil, &ErrUnknownFilter{FilterParamsID: id}
	case 1:
		return matches[0], nil
	default:
		kinds := make([]FilterKind, len(matches))
		for i, f := range matches {
			kinds[i] = f.Kind()
		}
		return nil, &ErrAmbiguousFilter{FilterParamsID: id, Matches: kinds}
	}
}

// IDs returns the registered filter parameter ids in ascending order.
func (r *FilterRegistry) IDs() []int {
	ids := make([]int, 0, len(r.filters))
	for id := range r.filters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
