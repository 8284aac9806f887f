package brain

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

var errNoRates = errors.New("no rates to average")

// AveragePsth returns the elementwise mean of the rates. Every rate must
// have the same length.
func AveragePsth(rates [][]float64) ([]float64, error) {
	if len(rates) == 0 {
		return nil, errNoRates
	}
	psth := make([]float64, len(rates[0]))
	for _, rate := range rates {
		if len(rate) != len(psth) {
			return nil, &ErrLengthMismatch{What: "trial rate", Expected: len(psth), Found: len(rate)}
		}
		floats.Add(psth, rate)
	}
	floats.Scale(1/float64(len(rates)), psth)
	return psth, nil
}
