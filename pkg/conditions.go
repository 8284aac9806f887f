package brain

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// Condition describes the target force profile of a behavior condition.
// Only its timing matters here.
type Condition struct {
	ConditionID int     `json:"condition_id" db:"condition_id"`
	Duration    float64 `json:"duration" db:"duration"`
	PrePad      float64 `json:"pre_pad" db:"pre_pad"`
	PostPad     float64 `json:"post_pad" db:"post_pad"`
}

// Time returns the condition time vector sampled at sampleRate: i/fs for
// every integer i from round(-PrePad*fs) to round((Duration+PostPad)*fs).
func (c Condition) Time(sampleRate float64) []float64 {
	first := int(math.Round(-c.PrePad * sampleRate))
	last := int(math.Round((c.Duration + c.PostPad) * sampleRate))
	if last < first {
		return []float64{}
	}
	t := make([]float64, last-first+1)
	for i := range t {
		t[i] = float64(first+i) / sampleRate
	}
	return t
}

type conditionTimeKey struct {
	conditionID int
	sampleRate  float64
}

// ConditionTable generates condition time vectors and caches them per
// (condition, sample rate). It is safe for concurrent use.
type ConditionTable struct {
	mu         sync.Mutex
	conditions map[int]Condition
	times      map[conditionTimeKey][]float64
}

func NewConditionTable(conditions []Condition) (*ConditionTable, error) {
	table := &ConditionTable{
		conditions: make(map[int]Condition, len(conditions)),
		times:      make(map[conditionTimeKey][]float64),
	}
	for _, c := range conditions {
		if _, ok := table.conditions[c.ConditionID]; ok {
			return nil, fmt.Errorf("duplicate condition id %d", c.ConditionID)
		}
		table.conditions[c.ConditionID] = c
	}
	return table, nil
}

// ConditionTime returns the cached time vector of a condition. The returned
// slice is shared and must not be modified.
func (t *ConditionTable) ConditionTime(conditionID int, sampleRate float64) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %g for condition %d", sampleRate, conditionID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := conditionTimeKey{conditionID: conditionID, sampleRate: sampleRate}
	if time, ok := t.times[key]; ok {
		return time, nil
	}
	c, ok := t.conditions[conditionID]
	if !ok {
		return nil, fmt.Errorf("condition %d: %w", conditionID, ErrNotFound)
	}
	time := c.Time(sampleRate)
	t.times[key] = time
	return time, nil
}

// Conditions returns a copy of the condition definitions by id.
func (t *ConditionTable) Conditions() map[int]Condition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.conditions)
}

// Ordered returns the definitions of the listed conditions in the listed
// order, or of every condition by id when ids is empty. Unknown ids are
// reported together.
func (t *ConditionTable) Ordered(ids []int) ([]Condition, error) {
	conditions := t.Conditions()
	if len(ids) == 0 {
		ids = make([]int, 0, len(conditions))
		for id := range conditions {
			ids = append(ids, id)
		}
		sort.Ints(ids)
	}

	ordered := make([]Condition, 0, len(ids))
	unknown := make([]int, 0)
	for _, id := range ids {
		c, ok := conditions[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		ordered = append(ordered, c)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("conditions %v: %w", unknown, ErrNotFound)
	}
	return ordered, nil
}
