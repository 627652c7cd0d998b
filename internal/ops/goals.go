package ops

import (
	"context"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/goals"
)

// GetGoals returns the daily targets, or the defaults if none were set.
func GetGoals(ctx context.Context, env Env) (*goals.Goals, error) {
	g, err := goals.Load(ctx, env.Store, env.Log, env.Metrics)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SetGoalsInput contains parameters for the SetGoals operation.
// nil leaves a target unchanged. Values below 1 are stored as 1.
type SetGoalsInput struct {
	Calories *int
	Protein  *int
	Carbs    *int
	Fat      *int
}

// SetGoals updates some or all daily targets.
func SetGoals(ctx context.Context, env Env, input SetGoalsInput) (*goals.Goals, error) {
	if input.Calories == nil && input.Protein == nil && input.Carbs == nil && input.Fat == nil {
		return nil, errors.NewInvalidRequest("at least one goal must be provided")
	}
	g, err := goals.Load(ctx, env.Store, env.Log, env.Metrics)
	if err != nil {
		return nil, err
	}
	setInt(&g.Calories, input.Calories)
	setInt(&g.Protein, input.Protein)
	setInt(&g.Carbs, input.Carbs)
	setInt(&g.Fat, input.Fat)

	saved, err := goals.Save(ctx, env.Store, g)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
