package brain

import (
	"context"
	"fmt"

	"github.com/churchlandlab/pacman_brain_go/pkg/population"
)

// PsthAttribute is the attribute name of stored PSTHs in population records.
const PsthAttribute = "neuron_psth"

// PsthRecords converts the stored PSTHs of a session computed with one
// filter into population records: one per neuron and condition, sampled at
// the behavior rate of the session.
func (p *Pipeline) PsthRecords(ctx context.Context, session SessionKey, filterParamsID int) ([]population.Record, error) {
	meta, err := p.session(ctx, session)
	if err != nil {
		return nil, err
	}
	blocks, err := p.BlockConditions(ctx, session)
	if err != nil {
		return nil, err
	}
	psths, err := p.store.Psths(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error reading psths of %s: %w", session, err)
	}

	records := make([]population.Record, 0, len(psths))
	for _, psth := range psths {
		if psth.Key.FilterParamsID != filterParamsID {
			continue
		}
		condition, ok := blocks[psth.Key.BlockID]
		if !ok {
			return nil, &ErrMissingMetadata{What: "block", Key: psth.Key.String(), Err: ErrNotFound}
		}
		records = append(records, population.Record{
			Member:      psth.Key.NeuronID,
			ConditionID: condition,
			SampleRate:  meta.BehaviorSampleRate,
			Attributes: map[string]population.Series{
				PsthAttribute: population.FloatSeries(psth.Psth),
			},
		})
	}
	if p.verbosity > 0 {
		message := fmt.Sprintf("%d psth records of %s with filter %d", len(records), session, filterParamsID)
		p.logger.Info(message, "population")
	}
	return records, nil
}
