package ops

import (
	"context"

	"github.com/hpungsan/macrolog/internal/entry"
)

// AddInput contains parameters for the AddEntry operation.
type AddInput struct {
	Date     string // optional; must be today when set
	Name     string
	Calories int
	Protein  int
	Carbs    int
	Fat      int
	MealType string
}

// EntryOutput is returned by operations that produce one entry.
type EntryOutput struct {
	Entry  entry.Entry  `json:"entry"`
	Totals entry.Macros `json:"totals"`
}

// AddEntry validates and logs a food on today's list.
func AddEntry(ctx context.Context, env Env, input AddInput) (*EntryOutput, error) {
	s, err := env.openForWrite(ctx, input.Date)
	if err != nil {
		return nil, err
	}

	e, err := s.Add(ctx, entry.Candidate{
		Name: input.Name,
		Macros: entry.Macros{
			Calories: input.Calories,
			Protein:  input.Protein,
			Carbs:    input.Carbs,
			Fat:      input.Fat,
		},
		MealType: input.MealType,
	})
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Entry: e, Totals: s.Totals()}, nil
}
