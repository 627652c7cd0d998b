package ops

import (
	"context"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/goals"
	"github.com/hpungsan/macrolog/internal/sections"
)

// ViewInput contains parameters for the ViewDay operation.
type ViewInput struct {
	Date      string   // optional, default today
	Offset    int      // days to move from Date, negative = earlier
	Collapsed []string // meal sections shown folded
}

// ViewOutput is one day as the user sees it.
type ViewOutput struct {
	Date     string                `json:"date"`
	Today    string                `json:"today"`
	Live     bool                  `json:"live"`
	HasNext  bool                  `json:"has_next"`
	Prev     string                `json:"prev"`
	Next     string                `json:"next,omitempty"`
	Sections []sections.Section    `json:"sections"`
	Rows     []sections.Row        `json:"rows"`
	Totals   entry.Macros          `json:"totals"`
	Goals    goals.Goals           `json:"goals"`
	Progress []goals.MacroProgress `json:"progress"`
}

// ViewDay resolves a date to the live log or its archived snapshot and
// groups it into meal sections.
func ViewDay(ctx context.Context, env Env, input ViewInput) (*ViewOutput, error) {
	date, err := checkDate(input.Date)
	if err != nil {
		return nil, err
	}
	collapsed, err := parseMeals(input.Collapsed)
	if err != nil {
		return nil, err
	}

	s, archive, err := env.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	g, err := goals.Load(ctx, env.Store, env.Log, env.Metrics)
	if err != nil {
		return nil, err
	}

	today := s.Day()
	if date == "" {
		date = today
	}
	if input.Offset != 0 {
		date = env.Nav.Shift(date, input.Offset)
	}

	v := env.Nav.Resolve(ctx, date, s, archive)
	res := sections.Aggregate(v.Entries, entry.MealOrder, sections.Collapsed(collapsed...))
	totals := res.Totals()

	out := &ViewOutput{
		Date:     v.Date,
		Today:    today,
		Live:     v.Live,
		HasNext:  v.HasNext,
		Prev:     env.Nav.Shift(v.Date, -1),
		Sections: res.Sections,
		Rows:     res.Rows,
		Totals:   totals,
		Goals:    g,
		Progress: goals.Progress(totals, g),
	}
	if v.HasNext {
		out.Next = env.Nav.Shift(v.Date, 1)
	}
	return out, nil
}
