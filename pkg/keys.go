package brain

import (
	"fmt"
	"strconv"
	"strings"
)

// Store keys are "/" separated so that every level of a key is a valid
// prefix for range scans. The field order of each key puts the attributes
// used for aggregation first.

const (
	rasterTable = "raster"
	rateTable   = "rate"
	psthTable   = "psth"
)

type SessionKey struct {
	Subject     string `json:"subject" db:"subject"`
	SessionDate string `json:"session_date" db:"session_date"`
}

func (k SessionKey) String() string {
	return k.Subject + "/" + k.SessionDate
}

type NeuronKey struct {
	SessionKey
	NeuronID int `json:"neuron_id" db:"neuron_id"`
}

func (k NeuronKey) String() string {
	return fmt.Sprintf("%s/%d", k.SessionKey, k.NeuronID)
}

type TrialAlignmentKey struct {
	SessionKey
	Trial             int `json:"trial" db:"trial"`
	AlignmentParamsID int `json:"alignment_params_id" db:"alignment_params_id"`
}

func (k TrialAlignmentKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.SessionKey, k.Trial, k.AlignmentParamsID)
}

// RasterKey identifies a spike raster: neuron, behavior block and trial
// alignment.
type RasterKey struct {
	SessionKey
	NeuronID          int
	BlockID           int
	Trial             int
	AlignmentParamsID int
}

func (k RasterKey) Neuron() NeuronKey {
	return NeuronKey{SessionKey: k.SessionKey, NeuronID: k.NeuronID}
}

func (k RasterKey) TrialAlignment() TrialAlignmentKey {
	return TrialAlignmentKey{SessionKey: k.SessionKey, Trial: k.Trial, AlignmentParamsID: k.AlignmentParamsID}
}

func (k RasterKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d/%d", rasterTable, k.SessionKey, k.NeuronID, k.BlockID, k.Trial, k.AlignmentParamsID)
}

func ParseRasterKey(s string) (RasterKey, error) {
	session, ints, err := splitKey(s, rasterTable, 4)
	if err != nil {
		return RasterKey{}, err
	}
	return RasterKey{
		SessionKey:        session,
		NeuronID:          ints[0],
		BlockID:           ints[1],
		Trial:             ints[2],
		AlignmentParamsID: ints[3],
	}, nil
}

// RateKey identifies a filtered rate: a raster key plus filter parameters.
type RateKey struct {
	RasterKey
	FilterParamsID int
}

// Rates are stored under neuron/block/filter so that every rate averaged
// into one PSTH shares a prefix.
func (k RateKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d/%d/%d", rateTable, k.SessionKey, k.NeuronID, k.BlockID, k.FilterParamsID, k.Trial, k.AlignmentParamsID)
}

func (k RateKey) Psth() PsthKey {
	return PsthKey{
		SessionKey:     k.SessionKey,
		NeuronID:       k.NeuronID,
		BlockID:        k.BlockID,
		FilterParamsID: k.FilterParamsID,
	}
}

func ParseRateKey(s string) (RateKey, error) {
	session, ints, err := splitKey(s, rateTable, 5)
	if err != nil {
		return RateKey{}, err
	}
	return RateKey{
		RasterKey: RasterKey{
			SessionKey:        session,
			NeuronID:          ints[0],
			BlockID:           ints[1],
			Trial:             ints[3],
			AlignmentParamsID: ints[4],
		},
		FilterParamsID: ints[2],
	}, nil
}

// PsthKey identifies a trial-averaged rate.
type PsthKey struct {
	SessionKey
	NeuronID       int
	BlockID        int
	FilterParamsID int
}

func (k PsthKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d", psthTable, k.SessionKey, k.NeuronID, k.BlockID, k.FilterParamsID)
}

// RatePrefix is the store prefix shared by every rate averaged into k.
func (k PsthKey) RatePrefix() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d/", rateTable, k.SessionKey, k.NeuronID, k.BlockID, k.FilterParamsID)
}

func ParsePsthKey(s string) (PsthKey, error) {
	session, ints, err := splitKey(s, psthTable, 3)
	if err != nil {
		return PsthKey{}, err
	}
	return PsthKey{
		SessionKey:     session,
		NeuronID:       ints[0],
		BlockID:        ints[1],
		FilterParamsID: ints[2],
	}, nil
}

func tablePrefix(table string, session SessionKey) string {
	return table + "/" + session.String() + "/"
}

func splitKey(s string, table string, nInts int) (SessionKey, []int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3+nInts || parts[0] != table {
		return SessionKey{}, nil, fmt.Errorf("malformed %s key %q", table, s)
	}
	session := SessionKey{Subject: parts[1], SessionDate: parts[2]}
	ints := make([]int, nInts)
	for i, p := range parts[3:] {
		v, err := strconv.Atoi(p)
		if err != nil {
			return SessionKey{}, nil, fmt.Errorf("malformed %s key %q: %w", table, s, err)
		}
		ints[i] = v
	}
	return session, ints, nil
}
