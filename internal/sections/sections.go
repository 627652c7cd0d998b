// Package sections groups a day's entries by meal for display.
package sections

import (
	"fmt"
	"sort"

	"github.com/hpungsan/macrolog/internal/entry"
)

// Expansion records which sections are collapsed. A section missing from
// the map is expanded.
type Expansion map[entry.MealType]bool

// IsExpanded reports whether key is expanded.
func (e Expansion) IsExpanded(key entry.MealType) bool {
	expanded, ok := e[key]
	return !ok || expanded
}

// Toggle returns a new Expansion with key flipped. e is not modified.
func (e Expansion) Toggle(key entry.MealType) Expansion {
	out := make(Expansion, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[key] = !e.IsExpanded(key)
	return out
}

// Collapsed builds an Expansion with the given keys collapsed.
func Collapsed(keys ...entry.MealType) Expansion {
	out := make(Expansion, len(keys))
	for _, k := range keys {
		out[k] = false
	}
	return out
}

// Section is one meal group.
type Section struct {
	Key      entry.MealType `json:"key"`
	Entries  []entry.Entry  `json:"entries"`
	Count    int            `json:"count"`
	Totals   entry.Macros   `json:"totals"`
	Expanded bool           `json:"expanded"`
}

// Header renders the one-line section label, for example
// "Breakfast (2) — 450 kcal • P30/C40/F10 ▾".
func (s Section) Header() string {
	arrow := "▸"
	if s.Expanded {
		arrow = "▾"
	}
	return fmt.Sprintf("%s (%d) — %d kcal • P%d/C%d/F%d %s",
		s.Key, s.Count, s.Totals.Calories, s.Totals.Protein, s.Totals.Carbs, s.Totals.Fat, arrow)
}

// RowKind distinguishes header rows from item rows.
type RowKind string

const (
	RowHeader RowKind = "header"
	RowItem   RowKind = "item"
)

// Row is one line of the flattened list.
type Row struct {
	Kind    RowKind        `json:"kind"`
	Section entry.MealType `json:"section"`
	Header  string         `json:"header,omitempty"`
	Entry   *entry.Entry   `json:"entry,omitempty"`
}

// Result is the aggregated view.
type Result struct {
	Sections []Section `json:"sections"`
	Rows     []Row     `json:"rows"`
}

// Aggregate groups entries into one section per element of order, in that
// order. The last element of order receives entries whose meal type is
// unset or not in order. A nil order means entry.MealOrder. Entries within a
// section are newest first; entries without a timestamp go last and keep
// their input order.
func Aggregate(entries []entry.Entry, order []entry.MealType, exp Expansion) Result {
	if len(order) == 0 {
		order = entry.MealOrder
	}
	catchAll := order[len(order)-1]

	index := make(map[entry.MealType]int, len(order))
	for i, k := range order {
		index[k] = i
	}

	buckets := make([][]entry.Entry, len(order))
	for _, e := range entries {
		i, ok := index[e.MealType]
		if !ok || e.MealType == "" {
			i = index[catchAll]
		}
		buckets[i] = append(buckets[i], e)
	}

	res := Result{Sections: make([]Section, 0, len(order))}
	for i, key := range order {
		items := buckets[i]
		SortNewestFirst(items)
		if items == nil {
			items = []entry.Entry{}
		}
		sec := Section{
			Key:      key,
			Entries:  items,
			Count:    len(items),
			Totals:   entry.Sum(items),
			Expanded: exp.IsExpanded(key),
		}
		res.Sections = append(res.Sections, sec)

		res.Rows = append(res.Rows, Row{Kind: RowHeader, Section: key, Header: sec.Header()})
		if sec.Expanded {
			for j := range items {
				res.Rows = append(res.Rows, Row{Kind: RowItem, Section: key, Entry: &items[j]})
			}
		}
	}
	return res
}

// SortNewestFirst orders entries by creation time, newest first. Entries
// without a timestamp go last and keep their relative order.
func SortNewestFirst(entries []entry.Entry) {
	sort.SliceStable(entries, func(a, b int) bool {
		return newerFirst(entries[a].CreatedAt, entries[b].CreatedAt)
	})
}

// newerFirst orders by timestamp descending with zero (unknown) last.
func newerFirst(a, b int64) bool {
	if a == 0 || b == 0 {
		return a != 0 && b == 0
	}
	return a > b
}

// Totals sums the totals of every section.
func (r Result) Totals() entry.Macros {
	var total entry.Macros
	for _, s := range r.Sections {
		total = total.Add(s.Totals)
	}
	return total
}
