package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/ledger"
)

// EditInput contains parameters for the EditEntry operation.
type EditInput struct {
	Date string // optional; must be today when set
	ID   string

	// Editable fields (nil = don't change)
	Name     *string
	Calories *int
	Protein  *int
	Carbs    *int
	Fat      *int
}

// EditEntry changes fields of an entry logged today.
func EditEntry(ctx context.Context, env Env, input EditInput) (*EntryOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	patch := ledger.Patch{
		Name:     input.Name,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
	}
	if patch.Empty() {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	s, err := env.openForWrite(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	e, err := s.Edit(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Entry: e, Totals: s.Totals()}, nil
}
