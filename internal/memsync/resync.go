package memsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/rcliao/tutor-memory/internal/block"
	"github.com/rcliao/tutor-memory/internal/model"
)

// ResyncItem reports what happened to one learning entry.
type ResyncItem struct {
	ID      string     `json:"id" yaml:"id"`
	Matched bool       `json:"matched" yaml:"matched"`
	Skipped DropReason `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error   string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resync applies the learning entries of a memory blob to trajectories that
// already exist. It never creates rows and never touches profiles or
// concepts. When a dialog id appears more than once the last entry wins.
// The only error returned is the context's.
func (s *Syncer) Resync(ctx context.Context, blob string) ([]ResyncItem, error) {
	log := s.log.With().Str("run_id", uuid.NewString()).Str("stage", "resync").Logger()

	entries := block.Collapse(block.Parse(blob, model.KindLearning))
	items := make([]ResyncItem, 0, len(entries))
	matched := 0

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		rec, reason := ResolveLearning(e)
		if reason != "" {
			items = append(items, ResyncItem{ID: e.Header, Skipped: reason})
			log.Info().Str("header", e.Header).Str("reason", string(reason)).Msg("entry dropped")
			continue
		}

		n, err := rec.Apply(ctx, s.store)
		if err != nil {
			items = append(items, ResyncItem{ID: rec.DialogID, Error: err.Error()})
			log.Warn().Err(err).Str("key", rec.DialogID).Msg("entry write failed")
			continue
		}
		if n > 0 {
			matched++
		}
		items = append(items, ResyncItem{ID: rec.DialogID, Matched: n > 0})
	}

	log.Info().Int("entries", len(items)).Int("matched", matched).Msg("resync done")
	return items, nil
}
