// Package report renders a day as markdown for the CLI, MCP and web page.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/goals"
	"github.com/hpungsan/macrolog/internal/sections"
)

// Day is everything a report shows.
type Day struct {
	Date     string
	Live     bool
	Sections []sections.Section
	Totals   entry.Macros
	Progress []goals.MacroProgress
	// Location formats entry times. nil means UTC.
	Location *time.Location
}

// Markdown renders d. Collapsed sections list only their header.
func Markdown(d Day) string {
	var b strings.Builder

	title := d.Date
	if d.Live {
		title += " (today)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "**Total:** %d kcal • P%d / C%d / F%d\n\n",
		d.Totals.Calories, d.Totals.Protein, d.Totals.Carbs, d.Totals.Fat)

	if len(d.Progress) > 0 {
		b.WriteString("| Macro | Consumed | Goal | % |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, p := range d.Progress {
			fmt.Fprintf(&b, "| %s | %d | %d | %d%% |\n", p.Name, p.Consumed, p.Goal, p.Percent)
		}
		b.WriteString("\n")
	}

	empty := true
	for _, s := range d.Sections {
		if s.Count == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "## %s\n\n", s.Header())
		if !s.Expanded {
			continue
		}
		for _, e := range s.Entries {
			fmt.Fprintf(&b, "- %s%s — %d kcal (P%d/C%d/F%d)\n",
				clock(e.CreatedAt, d.Location), escape(e.Name), e.Calories, e.Protein, e.Carbs, e.Fat)
		}
		b.WriteString("\n")
	}
	if empty {
		b.WriteString("_Nothing logged._\n")
	}
	return b.String()
}

func clock(ms int64, loc *time.Location) string {
	if ms == 0 {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("15:04") + " "
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`, "|", `\|`,
)

// escape keeps user-typed food names from being read as markdown.
func escape(s string) string {
	return mdEscaper.Replace(s)
}
