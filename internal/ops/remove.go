package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
)

// RemoveInput contains parameters for the RemoveEntry operation.
type RemoveInput struct {
	Date string // optional; must be today when set
	ID   string
}

// RemoveOutput contains the result of the RemoveEntry operation.
type RemoveOutput struct {
	Removed bool         `json:"removed"`
	ID      string       `json:"id"`
	Totals  entry.Macros `json:"totals"`
}

// RemoveEntry deletes an entry from today's list. Removing an id that is
// not there succeeds with Removed=false.
func RemoveEntry(ctx context.Context, env Env, input RemoveInput) (*RemoveOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	s, err := env.openForWrite(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	removed, err := s.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RemoveOutput{Removed: removed, ID: id, Totals: s.Totals()}, nil
}
