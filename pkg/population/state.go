package population

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

type Config struct {
	// MemberName labels the member axis, e.g. "neuron_id".
	MemberName string
	Attributes []string
	SampleRate float64
	// DefaultSampleRate is used for records without a sample rate.
	DefaultSampleRate float64
}

// State is a trial-averaged population state. Construction keeps a private
// baseline; MeanCenter, Normalize and ReorderConditions act on a working
// copy that Reset restores. A State is not safe for concurrent use.
type State struct {
	config Config
	raw    *DataSet
	data   *DataSet
}

// New resamples every record to config.SampleRate and assembles one plane
// per attribute. Missing (member, condition) cells are NaN.
func New(records []Record, timer ConditionTimer, config Config) (*State, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("population: invalid sample rate %g", config.SampleRate)
	}
	if len(config.Attributes) == 0 {
		return nil, fmt.Errorf("population: no attributes requested")
	}
	seenName := make(map[string]bool)
	for _, name := range config.Attributes {
		if seenName[name] {
			return nil, fmt.Errorf("population: attribute %s requested more than once", name)
		}
		seenName[name] = true
	}

	members, conditions := distinctKeys(records)
	memberRow := make(map[int]int, len(members))
	for i, m := range members {
		memberRow[m] = i
	}

	times := newTimeCache(timer)
	offsets := make(map[int]int, len(conditions))
	index := make([]ConditionTime, 0)
	for _, c := range conditions {
		t, err := times.get(c, config.SampleRate)
		if err != nil {
			return nil, err
		}
		offsets[c] = len(index)
		for _, v := range t {
			index = append(index, ConditionTime{ConditionID: c, Time: v})
		}
	}
	if len(index) == 0 {
		return nil, ErrEmptyTime
	}

	data := &DataSet{
		MemberName: config.MemberName,
		Members:    members,
		Index:      index,
		names:      append([]string(nil), config.Attributes...),
		vars:       make(map[string]*mat.Dense, len(config.Attributes)),
	}
	for _, name := range config.Attributes {
		values := make([]float64, len(members)*len(index))
		for i := range values {
			values[i] = math.NaN()
		}
		data.vars[name] = mat.NewDense(len(members), len(index), values)
	}

	type cell struct{ member, condition int }
	filled := make(map[cell]bool, len(records))
	for _, rec := range records {
		c := cell{member: rec.Member, condition: rec.ConditionID}
		if filled[c] {
			return nil, &DuplicateRecordError{Member: rec.Member, ConditionID: rec.ConditionID}
		}
		filled[c] = true

		missing := make([]string, 0)
		for _, name := range config.Attributes {
			if _, ok := rec.Attributes[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, &UnknownAttributeError{Names: missing}
		}

		sampleRate := rec.SampleRate
		if sampleRate <= 0 {
			sampleRate = config.DefaultSampleRate
		}
		if sampleRate <= 0 {
			return nil, fmt.Errorf("population: member %d, condition %d has no sample rate", rec.Member, rec.ConditionID)
		}
		tNew, err := times.get(rec.ConditionID, config.SampleRate)
		if err != nil {
			return nil, err
		}
		var tOld []float64
		if sampleRate != config.SampleRate {
			tOld, err = times.get(rec.ConditionID, sampleRate)
			if err != nil {
				return nil, err
			}
		}

		row := memberRow[rec.Member]
		offset := offsets[rec.ConditionID]
		for _, name := range config.Attributes {
			series := rec.Attributes[name]
			if tOld != nil {
				if len(series.Values) != len(tOld) {
					return nil, &LengthError{Attribute: name, Member: rec.Member, ConditionID: rec.ConditionID,
						Expected: len(tOld), Found: len(series.Values)}
				}
				series = Resample(series, tOld, tNew)
			}
			if len(series.Values) != len(tNew) {
				return nil, &LengthError{Attribute: name, Member: rec.Member, ConditionID: rec.ConditionID,
					Expected: len(tNew), Found: len(series.Values)}
			}
			plane := data.vars[name]
			for j, v := range series.Values {
				plane.Set(row, offset+j, v)
			}
		}
	}

	state := &State{config: config, raw: data}
	state.Reset()
	return state, nil
}

func distinctKeys(records []Record) ([]int, []int) {
	memberSet := make(map[int]bool)
	conditionSet := make(map[int]bool)
	for _, rec := range records {
		memberSet[rec.Member] = true
		conditionSet[rec.ConditionID] = true
	}
	return sortedKeys(memberSet), sortedKeys(conditionSet)
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type timeKey struct {
	condition  int
	sampleRate float64
}

type timeCache struct {
	timer ConditionTimer
	times map[timeKey][]float64
}

func newTimeCache(timer ConditionTimer) *timeCache {
	return &timeCache{timer: timer, times: make(map[timeKey][]float64)}
}

func (c *timeCache) get(condition int, sampleRate float64) ([]float64, error) {
	key := timeKey{condition: condition, sampleRate: sampleRate}
	if t, ok := c.times[key]; ok {
		return t, nil
	}
	t, err := c.timer.ConditionTime(condition, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("population: time of condition %d at %g Hz: %w", condition, sampleRate, err)
	}
	c.times[key] = t
	return t, nil
}

func (s *State) Config() Config {
	return s.config
}

// Data returns the working data set.
func (s *State) Data() *DataSet {
	return s.data
}

// Reset discards every mutation and restores the data set built at
// construction.
func (s *State) Reset() {
	s.data = s.raw.Copy()
}

// MeanCenter subtracts from every member its mean across condition-time.
// A non-nil only restricts centering to those attributes; a non-empty
// reference centers every selected attribute by the reference attribute's
// means.
func (s *State) MeanCenter(only []string, reference string) error {
	names, err := s.selectVars(only, reference)
	if err != nil {
		return err
	}
	means := make(map[string][]float64, len(names))
	for _, name := range names {
		means[name] = rowMeans(s.data.vars[name])
	}
	for _, name := range names {
		m := means[name]
		if reference != "" {
			m = means[reference]
		}
		plane := s.data.vars[name]
		plane.Apply(func(i, j int, v float64) float64 {
			return v - m[i]
		}, plane)
	}
	return nil
}

// Normalize divides every member by softFactor plus its range across
// condition-time. only and reference select attributes as in MeanCenter.
func (s *State) Normalize(only []string, reference string, softFactor float64) error {
	names, err := s.selectVars(only, reference)
	if err != nil {
		return err
	}
	ranges := make(map[string][]float64, len(names))
	for _, name := range names {
		ranges[name] = rowRanges(s.data.vars[name])
	}
	for _, name := range names {
		r := ranges[name]
		if reference != "" {
			r = ranges[reference]
		}
		plane := s.data.vars[name]
		plane.Apply(func(i, j int, v float64) float64 {
			return v / (softFactor + r[i])
		}, plane)
	}
	return nil
}

// ReorderConditions keeps exactly the listed conditions, in the listed
// order. The time order within each condition is preserved.
func (s *State) ReorderConditions(conditionIDs []int) error {
	if len(conditionIDs) == 0 {
		return ErrNoConditions
	}
	columns := make(map[int][]int)
	for j, ct := range s.data.Index {
		columns[ct.ConditionID] = append(columns[ct.ConditionID], j)
	}

	listed := make(map[int]bool, len(conditionIDs))
	unknown := make([]int, 0)
	for _, id := range conditionIDs {
		if listed[id] {
			return &DuplicateConditionError{ID: id}
		}
		listed[id] = true
		if _, ok := columns[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return &UnknownConditionError{IDs: unknown}
	}

	selected := make([]int, 0, len(s.data.Index))
	for _, id := range conditionIDs {
		selected = append(selected, columns[id]...)
	}
	s.data = s.data.selectColumns(selected)
	return nil
}

func (s *State) selectVars(only []string, reference string) ([]string, error) {
	names := s.data.Names()
	if only != nil {
		present := make(map[string]bool, len(names))
		for _, name := range names {
			present[name] = true
		}
		requested := make(map[string]bool, len(only))
		unknown := make([]string, 0)
		for _, name := range only {
			requested[name] = true
			if !present[name] {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, &UnknownAttributeError{Names: unknown}
		}
		subset := make([]string, 0, len(only))
		for _, name := range names {
			if requested[name] {
				subset = append(subset, name)
			}
		}
		names = subset
	}
	if reference != "" {
		found := false
		for _, name := range names {
			if name == reference {
				found = true
				break
			}
		}
		if !found {
			return nil, &ReferenceAttributeError{Name: reference}
		}
	}
	return names, nil
}
