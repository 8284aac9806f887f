package brain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Pipeline computes the three dependent stages (spike raster, rate, PSTH)
// for the keys of a session and memoizes every record in the store. A
// stage only considers keys whose upstream record exists, and skips keys
// that are already populated.
type Pipeline struct {
	source         Source
	store          *Store
	filters        *FilterRegistry
	conditions     *ConditionTable
	logger         Logger
	numWorkers     int
	verbosity      int
	goodTrialsOnly bool

	mu       sync.Mutex
	sessions map[SessionKey]Session
	trials   map[SessionKey]map[int]Trial
}

// NewPipeline resolves the filter registry and condition table from the
// source, so that an invalid filter definition fails here rather than in
// the middle of a stage.
func NewPipeline(ctx context.Context, source Source, store *Store, config Configuration, logger Logger) (*Pipeline, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	filterParams, err := source.Filters(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading filter parameters: %w", err)
	}
	filters, err := NewFilterRegistry(filterParams)
	if err != nil {
		return nil, fmt.Errorf("error building filter registry: %w", err)
	}
	conditions, err := source.Conditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading conditions: %w", err)
	}
	conditionTable, err := NewConditionTable(conditions)
	if err != nil {
		return nil, fmt.Errorf("error building condition table: %w", err)
	}
	return &Pipeline{
		source:         source,
		store:          store,
		filters:        filters,
		conditions:     conditionTable,
		logger:         logger,
		numWorkers:     config.NumWorkers,
		verbosity:      config.Verbosity,
		goodTrialsOnly: config.GoodTrialsOnly,
		sessions:       make(map[SessionKey]Session),
		trials:         make(map[SessionKey]map[int]Trial),
	}, nil
}

func (p *Pipeline) Filters() *FilterRegistry {
	return p.filters
}

func (p *Pipeline) Conditions() *ConditionTable {
	return p.conditions
}

func (p *Pipeline) Raster(ctx context.Context, key RasterKey) (SpikeRaster, error) {
	return p.store.Raster(ctx, key)
}

func (p *Pipeline) Rate(ctx context.Context, key RateKey) (Rate, error) {
	return p.store.Rate(ctx, key)
}

func (p *Pipeline) Psth(ctx context.Context, key PsthKey) (Psth, error) {
	return p.store.Psth(ctx, key)
}

// Populate runs the raster, rate and PSTH stages in order.
func (p *Pipeline) Populate(ctx context.Context, session SessionKey) ([]StageSummary, error) {
	runID := uuid.NewString()
	if p.verbosity > 0 {
		p.logger.Info(fmt.Sprintf("Run %s: populating session %s", runID, session), "pipeline")
	}
	stages := []func(context.Context, SessionKey) (StageSummary, error){
		p.PopulateRasters,
		p.PopulateRates,
		p.PopulatePsths,
	}
	summaries := make([]StageSummary, 0, len(stages))
	for _, populate := range stages {
		summary, err := populate(ctx, session)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
		if p.verbosity > 0 {
			p.logger.Info(fmt.Sprintf("Run %s: %s", runID, summary), "pipeline")
		}
	}
	return summaries, nil
}

func (p *Pipeline) PopulateRasters(ctx context.Context, session SessionKey) (StageSummary, error) {
	keys, err := p.RasterKeys(ctx, session)
	if err != nil {
		return StageSummary{Stage: rasterTable}, err
	}
	keys, err = pending(ctx, keys, p.store.HasRaster)
	if err != nil {
		return StageSummary{Stage: rasterTable}, err
	}
	return runStage(ctx, rasterTable, keys, p.numWorkers, p.makeRaster, p.logger, p.verbosity), nil
}

func (p *Pipeline) PopulateRates(ctx context.Context, session SessionKey) (StageSummary, error) {
	keys, err := p.RateKeys(ctx, session)
	if err != nil {
		return StageSummary{Stage: rateTable}, err
	}
	keys, err = pending(ctx, keys, p.store.HasRate)
	if err != nil {
		return StageSummary{Stage: rateTable}, err
	}
	return runStage(ctx, rateTable, keys, p.numWorkers, p.makeRate, p.logger, p.verbosity), nil
}

func (p *Pipeline) PopulatePsths(ctx context.Context, session SessionKey) (StageSummary, error) {
	keys, err := p.PsthKeys(ctx, session)
	if err != nil {
		return StageSummary{Stage: psthTable}, err
	}
	keys, err = pending(ctx, keys, p.store.HasPsth)
	if err != nil {
		return StageSummary{Stage: psthTable}, err
	}
	return runStage(ctx, psthTable, keys, p.numWorkers, p.makePsth, p.logger, p.verbosity), nil
}

func pending[K any](ctx context.Context, keys []K, has func(context.Context, K) (bool, error)) ([]K, error) {
	out := make([]K, 0, len(keys))
	for _, key := range keys {
		ok, err := has(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, key)
		}
	}
	return out, nil
}

// RasterKeys lists every neuron paired with every valid trial alignment of
// a saved trial.
func (p *Pipeline) RasterKeys(ctx context.Context, session SessionKey) ([]RasterKey, error) {
	neurons, err := p.source.Neurons(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error reading neurons of %s: %w", session, err)
	}
	trials, err := p.sessionTrials(ctx, session)
	if err != nil {
		return nil, err
	}
	alignments, err := p.source.ValidAlignments(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error reading trial alignments of %s: %w", session, err)
	}

	keys := make([]RasterKey, 0, len(neurons)*len(alignments))
	for _, neuron := range neurons {
		for _, alignment := range alignments {
			trial, ok := trials[alignment.Trial]
			if !ok || !trial.SaveTag {
				continue
			}
			keys = append(keys, RasterKey{
				SessionKey:        session,
				NeuronID:          neuron.NeuronID,
				BlockID:           trial.BlockID,
				Trial:             alignment.Trial,
				AlignmentParamsID: alignment.AlignmentParamsID,
			})
		}
	}
	return keys, nil
}

// RateKeys pairs every stored raster with every registered filter.
func (p *Pipeline) RateKeys(ctx context.Context, session SessionKey) ([]RateKey, error) {
	rasters, err := p.store.RasterKeys(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error listing rasters of %s: %w", session, err)
	}
	filterIDs := p.filters.IDs()
	keys := make([]RateKey, 0, len(rasters)*len(filterIDs))
	for _, raster := range rasters {
		for _, id := range filterIDs {
			keys = append(keys, RateKey{RasterKey: raster, FilterParamsID: id})
		}
	}
	return keys, nil
}

// PsthKeys lists the (neuron, block, filter) combinations with at least one
// qualifying stored rate.
func (p *Pipeline) PsthKeys(ctx context.Context, session SessionKey) ([]PsthKey, error) {
	rates, err := p.store.RateKeys(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error listing rates of %s: %w", session, err)
	}
	trials, err := p.sessionTrials(ctx, session)
	if err != nil {
		return nil, err
	}

	seen := make(map[PsthKey]bool)
	keys := make([]PsthKey, 0)
	for _, rate := range rates {
		trial, ok := trials[rate.Trial]
		if !ok || !trial.SaveTag {
			continue
		}
		if p.goodTrialsOnly && !trial.GoodTrial {
			continue
		}
		key := rate.Psth()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (p *Pipeline) makeRaster(ctx context.Context, key RasterKey) error {
	alignment, err := p.source.Alignment(ctx, key.TrialAlignment())
	if err != nil {
		return &ErrMissingMetadata{What: "trial alignment", Key: key.String(), Err: err}
	}
	spikeIndices, err := p.source.SpikeIndices(ctx, key.Neuron())
	if err != nil {
		return &ErrMissingMetadata{What: "spike indices", Key: key.String(), Err: err}
	}
	trial, err := p.trial(ctx, key.SessionKey, key.Trial)
	if err != nil {
		return err
	}

	raster := SpikeRaster{
		Key:                     key,
		GoodTrial:               trial.GoodTrial,
		BehaviorQualityParamsID: trial.BehaviorQualityParamsID,
		Raster:                  BuildSpikeRaster(alignment.EphysAlignment, spikeIndices),
	}
	return p.store.InsertRaster(ctx, raster)
}

func (p *Pipeline) makeRate(ctx context.Context, key RateKey) error {
	session, err := p.session(ctx, key.SessionKey)
	if err != nil {
		return err
	}
	trial, err := p.trial(ctx, key.SessionKey, key.Trial)
	if err != nil {
		return err
	}
	tBeh, err := p.conditions.ConditionTime(trial.ConditionID, session.BehaviorSampleRate)
	if err != nil {
		return &ErrMissingMetadata{What: "condition time", Key: key.String(), Err: err}
	}
	raster, err := p.store.Raster(ctx, key.RasterKey)
	if err != nil {
		return &ErrMissingMetadata{What: "spike raster", Key: key.String(), Err: err}
	}
	filter, err := p.filters.Lookup(key.FilterParamsID)
	if err != nil {
		return err
	}

	rate, err := EstimateRate(raster.Raster, tBeh, session.EphysSampleRate, session.BehaviorSampleRate, filter)
	if err != nil {
		return err
	}
	return p.store.InsertRate(ctx, Rate{
		Key:                     key,
		GoodTrial:               raster.GoodTrial,
		BehaviorQualityParamsID: raster.BehaviorQualityParamsID,
		Rate:                    rate,
	})
}

func (p *Pipeline) makePsth(ctx context.Context, key PsthKey) error {
	rates, err := p.store.PsthRates(ctx, key)
	if err != nil {
		return err
	}
	trials, err := p.sessionTrials(ctx, key.SessionKey)
	if err != nil {
		return err
	}

	values := make([][]float64, 0, len(rates))
	for _, rate := range rates {
		trial, ok := trials[rate.Key.Trial]
		if !ok || !trial.SaveTag {
			continue
		}
		if p.goodTrialsOnly && !rate.GoodTrial {
			continue
		}
		values = append(values, rate.Rate)
	}
	if len(values) == 0 {
		return &ErrMissingMetadata{What: "qualifying rates", Key: key.String()}
	}

	psth, err := AveragePsth(values)
	if err != nil {
		return err
	}
	return p.store.InsertPsth(ctx, Psth{Key: key, Psth: psth})
}

func (p *Pipeline) session(ctx context.Context, key SessionKey) (Session, error) {
	p.mu.Lock()
	session, ok := p.sessions[key]
	p.mu.Unlock()
	if ok {
		return session, nil
	}

	session, err := p.source.Session(ctx, key)
	if err != nil {
		return Session{}, &ErrMissingMetadata{What: "session sample rates", Key: key.String(), Err: err}
	}
	if session.EphysSampleRate <= 0 || session.BehaviorSampleRate <= 0 {
		return Session{}, &ErrMissingMetadata{What: "session sample rates", Key: key.String()}
	}

	p.mu.Lock()
	p.sessions[key] = session
	p.mu.Unlock()
	return session, nil
}

func (p *Pipeline) sessionTrials(ctx context.Context, key SessionKey) (map[int]Trial, error) {
	p.mu.Lock()
	trials, ok := p.trials[key]
	p.mu.Unlock()
	if ok {
		return trials, nil
	}

	list, err := p.source.Trials(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error reading trials of %s: %w", key, err)
	}
	trials = make(map[int]Trial, len(list))
	for _, t := range list {
		trials[t.Trial] = t
	}

	p.mu.Lock()
	p.trials[key] = trials
	p.mu.Unlock()
	return trials, nil
}

func (p *Pipeline) trial(ctx context.Context, session SessionKey, trialID int) (Trial, error) {
	trials, err := p.sessionTrials(ctx, session)
	if err != nil {
		return Trial{}, err
	}
	trial, ok := trials[trialID]
	if !ok {
		return Trial{}, &ErrMissingMetadata{What: "trial", Key: fmt.Sprintf("%s/%d", session, trialID), Err: ErrNotFound}
	}
	return trial, nil
}

// BlockConditions maps each behavior block of a session to its condition.
func (p *Pipeline) BlockConditions(ctx context.Context, session SessionKey) (map[int]int, error) {
	trials, err := p.sessionTrials(ctx, session)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(trials))
	for id := range trials {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	blocks := make(map[int]int)
	for _, id := range ids {
		trial := trials[id]
		condition, ok := blocks[trial.BlockID]
		if ok && condition != trial.ConditionID {
			return nil, fmt.Errorf("block %d of %s has trials of conditions %d and %d", trial.BlockID, session, condition, trial.ConditionID)
		}
		blocks[trial.BlockID] = trial.ConditionID
	}
	return blocks, nil
}

// IsConfigurationError reports whether err is a filter configuration error.
func IsConfigurationError(err error) bool {
	var unknown *ErrUnknownFilter
	var ambiguous *ErrAmbiguousFilter
	return errors.As(err, &unknown) || errors.As(err, &ambiguous)
}
