package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/macrolog/internal/errors"
)

// PruneInput contains parameters for the PruneHistory operation.
type PruneInput struct {
	OlderThanDays int // required, at least 1
}

// PruneOutput contains the result of the PruneHistory operation.
type PruneOutput struct {
	Pruned  int      `json:"pruned"`
	Dates   []string `json:"dates"`
	Cutoff  string   `json:"cutoff"`
	Message string   `json:"message"`
}

// PruneHistory permanently deletes snapshots dated more than
// OlderThanDays before today. The live day is never pruned.
func PruneHistory(ctx context.Context, env Env, input PruneInput) (*PruneOutput, error) {
	if input.OlderThanDays < 1 {
		return nil, errors.NewInvalidRequest("older_than_days must be at least 1")
	}

	s, archive, err := env.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := env.Nav.Shift(s.Day(), -input.OlderThanDays)
	removed, err := archive.Prune(ctx, cutoff, s.Day())
	if err != nil {
		return nil, err
	}
	if removed == nil {
		removed = []string{}
	}

	return &PruneOutput{
		Pruned:  len(removed),
		Dates:   removed,
		Cutoff:  cutoff,
		Message: formatPruneMessage(len(removed), input.OlderThanDays),
	}, nil
}

func formatPruneMessage(count, days int) string {
	if count == 0 {
		return "No days to prune"
	}
	dayWord := "day"
	if count > 1 {
		dayWord = "days"
	}
	return fmt.Sprintf("Permanently deleted %d %s (older than %d days)", count, dayWord, days)
}
