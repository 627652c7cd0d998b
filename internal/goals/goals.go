// Package goals stores the daily macro targets and measures progress
// against them.
package goals

import (
	"context"
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/metrics"
)

// Key is where goals live in the store.
const Key = "goals"

// Goals are daily targets. Every value is at least 1.
type Goals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// Defaults returns the targets used until the user sets their own.
func Defaults() Goals {
	return Goals{Calories: 2000, Protein: 150, Carbs: 250, Fat: 70}
}

// Clamp raises every value below 1 to 1.
func (g Goals) Clamp() Goals {
	g.Calories = max(g.Calories, 1)
	g.Protein = max(g.Protein, 1)
	g.Carbs = max(g.Carbs, 1)
	g.Fat = max(g.Fat, 1)
	return g
}

// Load returns the stored goals, or the defaults when none are stored or
// the stored value cannot be parsed.
func Load(ctx context.Context, store kv.Store, log logrus.FieldLogger, m *metrics.Metrics) (Goals, error) {
	data, found, err := store.Get(ctx, Key)
	if err != nil {
		return Goals{}, errors.NewInternal(err)
	}
	if !found {
		return Defaults(), nil
	}

	var g Goals
	if err := json.Unmarshal(data, &g); err != nil {
		corrupt := errors.NewStorageCorrupt(Key, err)
		logging.Component(log, "goals").WithField("code", corrupt.Code).Warn(corrupt.Message)
		m.Degraded("goals")
		return Defaults(), nil
	}
	return g.Clamp(), nil
}

// Save clamps g and persists it. The stored value is returned.
func Save(ctx context.Context, store kv.Store, g Goals) (Goals, error) {
	g = g.Clamp()
	data, err := json.Marshal(g)
	if err != nil {
		return Goals{}, errors.NewInternal(err)
	}
	if err := store.Set(ctx, Key, data); err != nil {
		return Goals{}, errors.NewInternal(err)
	}
	return g, nil
}

// MacroProgress is one row of the progress display.
type MacroProgress struct {
	Name     string `json:"name"`
	Consumed int    `json:"consumed"`
	Goal     int    `json:"goal"`
	Percent  int    `json:"percent"`
	// Bar is the filled part of a bar whose length is Goal.
	Bar int `json:"bar"`
}

// Progress compares totals with g, in calories/protein/carbs/fat order.
func Progress(totals entry.Macros, g Goals) []MacroProgress {
	return []MacroProgress{
		progress("Calories", totals.Calories, g.Calories),
		progress("Protein", totals.Protein, g.Protein),
		progress("Carbs", totals.Carbs, g.Carbs),
		progress("Fat", totals.Fat, g.Fat),
	}
}

func progress(name string, consumed, goal int) MacroProgress {
	denom := max(goal, 1)
	return MacroProgress{
		Name:     name,
		Consumed: consumed,
		Goal:     goal,
		Percent:  int(math.Round(100 * float64(consumed) / float64(denom))),
		Bar:      max(min(consumed, goal), 0),
	}
}
