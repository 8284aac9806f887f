package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Session holds the recording metadata shared by every trial of a session.
type Session struct {
	SessionKey
	EphysSampleRate    float64 `json:"ephys_sample_rate" db:"ephys_sample_rate"`
	BehaviorSampleRate float64 `json:"behavior_sample_rate" db:"behavior_sample_rate"`
}

type Neuron struct {
	NeuronKey
	// SpikeIndices are ephys sample indices over the full recording.
	SpikeIndices []int64 `json:"spike_indices"`
}

// Trial carries the behavior metadata of one trial, including the quality
// tags propagated to rasters and rates.
type Trial struct {
	SessionKey
	Trial                   int  `json:"trial" db:"trial"`
	BlockID                 int  `json:"block_id" db:"block_id"`
	ConditionID             int  `json:"condition_id" db:"condition_id"`
	GoodTrial               bool `json:"good_trial" db:"good_trial"`
	BehaviorQualityParamsID int  `json:"behavior_quality_params_id" db:"behavior_quality_params_id"`
	SaveTag                 bool `json:"save_tag" db:"save_tag"`
}

// TrialAlignment maps each behavior sample of a trial to an ephys sample
// index.
type TrialAlignment struct {
	TrialAlignmentKey
	ValidAlignment bool    `json:"valid_alignment" db:"valid_alignment"`
	EphysAlignment []int64 `json:"ephys_alignment"`
}

// Source provides the upstream experimental metadata the pipeline reads.
type Source interface {
	Session(ctx context.Context, key SessionKey) (Session, error)
	Neurons(ctx context.Context, key SessionKey) ([]NeuronKey, error)
	SpikeIndices(ctx context.Context, key NeuronKey) ([]int64, error)
	Trials(ctx context.Context, key SessionKey) ([]Trial, error)
	ValidAlignments(ctx context.Context, key SessionKey) ([]TrialAlignmentKey, error)
	Alignment(ctx context.Context, key TrialAlignmentKey) (TrialAlignment, error)
	Conditions(ctx context.Context) ([]Condition, error)
	Filters(ctx context.Context) ([]FilterParams, error)
}

// MemorySource serves metadata from memory. It is filled from a JSON
// fixture when running without a database.
type MemorySource struct {
	SessionList   []Session        `json:"sessions"`
	NeuronList    []Neuron         `json:"neurons"`
	TrialList     []Trial          `json:"trials"`
	AlignmentList []TrialAlignment `json:"alignments"`
	ConditionList []Condition      `json:"conditions"`
	FilterList    []FilterParams   `json:"filters"`
}

func LoadSourceFile(filename string) (*MemorySource, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	source := &MemorySource{}
	if err := json.Unmarshal(data, source); err != nil {
		return nil, fmt.Errorf("error parsing source file %s: %w", filename, err)
	}
	return source, nil
}

func (m *MemorySource) Session(_ context.Context, key SessionKey) (Session, error) {
	for _, s := range m.SessionList {
		if s.SessionKey == key {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("session %s: %w", key, ErrNotFound)
}

func (m *MemorySource) Neurons(_ context.Context, key SessionKey) ([]NeuronKey, error) {
	keys := make([]NeuronKey, 0)
	for _, n := range m.NeuronList {
		if n.SessionKey == key {
			keys = append(keys, n.NeuronKey)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].NeuronID < keys[j].NeuronID
	})
	return keys, nil
}

func (m *MemorySource) SpikeIndices(_ context.Context, key NeuronKey) ([]int64, error) {
	for _, n := range m.NeuronList {
		if n.NeuronKey == key {
			return n.SpikeIndices, nil
		}
	}
	return nil, fmt.Errorf("neuron %s: %w", key, ErrNotFound)
}

func (m *MemorySource) Trials(_ context.Context, key SessionKey) ([]Trial, error) {
	trials := make([]Trial, 0)
	for _, t := range m.TrialList {
		if t.SessionKey == key {
			trials = append(trials, t)
		}
	}
	sort.Slice(trials, func(i, j int) bool {
		return trials[i].Trial < trials[j].Trial
	})
	return trials, nil
}

func (m *MemorySource) ValidAlignments(_ context.Context, key SessionKey) ([]TrialAlignmentKey, error) {
	keys := make([]TrialAlignmentKey, 0)
	for _, a := range m.AlignmentList {
		if a.SessionKey == key && a.ValidAlignment {
			keys = append(keys, a.TrialAlignmentKey)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Trial != keys[j].Trial {
			return keys[i].Trial < keys[j].Trial
		}
		return keys[i].AlignmentParamsID < keys[j].AlignmentParamsID
	})
	return keys, nil
}

func (m *MemorySource) Alignment(_ context.Context, key TrialAlignmentKey) (TrialAlignment, error) {
	for _, a := range m.AlignmentList {
		if a.TrialAlignmentKey == key {
			return a, nil
		}
	}
	return TrialAlignment{}, fmt.Errorf("trial alignment %s: %w", key, ErrNotFound)
}

func (m *MemorySource) Conditions(_ context.Context) ([]Condition, error) {
	return m.ConditionList, nil
}

func (m *MemorySource) Filters(_ context.Context) ([]FilterParams, error) {
	return m.FilterList, nil
}

// OpenSource opens the metadata source selected in the configuration: the
// JSON source file when running without a database, MySQL otherwise. The
// returned function releases the source.
func OpenSource(config Configuration, logger Logger) (Source, func() error, error) {
	if config.NoDB {
		source, err := LoadSourceFile(config.SourceFile)
		if err != nil {
			return nil, nil, fmt.Errorf("error reading source file: %w", err)
		}
		return source, func() error { return nil }, nil
	}
	db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.Port, config.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return NewSQLSource(db, logger, config.Verbosity), db.Close, nil
}
