package ops

import (
	"context"

	"github.com/hpungsan/macrolog/internal/entry"
)

// ListDaysInput contains parameters for the ListDays operation.
type ListDaysInput struct {
	Limit  int // default 31, max 366
	Offset int
}

// DaySummary is one recorded day.
type DaySummary struct {
	Date    string       `json:"date"`
	Entries int          `json:"entries"`
	Totals  entry.Macros `json:"totals"`
	Live    bool         `json:"live"`
}

// ListDaysOutput contains the result of the ListDays operation.
type ListDaysOutput struct {
	Items      []DaySummary `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// ListDays lists recorded days, newest first.
func ListDays(ctx context.Context, env Env, input ListDaysInput) (*ListDaysOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset := max(input.Offset, 0)

	s, archive, err := env.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := archive.Dates(ctx)
	if err != nil {
		return nil, err
	}

	total := len(dates)
	items := make([]DaySummary, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(items) < limit; i-- {
		d := dates[i]
		var entries []entry.Entry
		if d == s.Day() {
			entries = s.Entries()
		} else {
			entries = archive.ReadSnapshot(ctx, d)
		}
		items = append(items, DaySummary{
			Date:    d,
			Entries: len(entries),
			Totals:  entry.Sum(entries),
			Live:    d == s.Day(),
		})
	}

	return &ListDaysOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}
