package ops

import (
	"context"

	"github.com/hpungsan/macrolog/internal/report"
)

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	Date     string `json:"date"`
	Markdown string `json:"markdown"`
}

// Report renders a day as markdown. It takes the same input as ViewDay.
func Report(ctx context.Context, env Env, input ViewInput) (*ReportOutput, error) {
	v, err := ViewDay(ctx, env, input)
	if err != nil {
		return nil, err
	}
	md := report.Markdown(report.Day{
		Date:     v.Date,
		Live:     v.Live,
		Sections: v.Sections,
		Totals:   v.Totals,
		Progress: v.Progress,
		Location: env.Nav.Location(),
	})
	return &ReportOutput{Date: v.Date, Markdown: md}, nil
}
