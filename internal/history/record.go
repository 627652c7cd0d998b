package history

import (
	"fmt"

	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/entry"
)

// SchemaVersion is written into export headers.
const SchemaVersion = "1.0"

// Record is one line of a JSONL history export. The first line of a file
// is a header with MacrologExport set and no date.
type Record struct {
	// Header fields
	MacrologExport bool   `json:"_macrolog_export,omitempty"`
	SchemaVersion  string `json:"schema_version,omitempty"`
	ExportedAt     int64  `json:"exported_at,omitempty"`

	// Day fields
	Date    string        `json:"date,omitempty"`
	Entries []entry.Entry `json:"entries,omitempty"`
}

// Header returns the first line of an export.
func Header(exportedAt int64) Record {
	return Record{MacrologExport: true, SchemaVersion: SchemaVersion, ExportedAt: exportedAt}
}

// Check validates a day record before import. Entries are stamped with
// the record's date and meal names are canonicalized. Totals are not carried in the file, so a record
// can never disagree with itself.
func (r *Record) Check() error {
	if !day.Valid(r.Date) {
		return fmt.Errorf("invalid date %q", r.Date)
	}
	seen := make(map[string]bool, len(r.Entries))
	for i := range r.Entries {
		e := &r.Entries[i]
		if e.ID == "" {
			return fmt.Errorf("entry %d: missing id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
		meal, ok := entry.ParseMealType(string(e.MealType))
		if !ok {
			return fmt.Errorf("entry %s: unknown meal type %q", e.ID, e.MealType)
		}
		e.MealType = meal
		if err := entry.ValidateMacros(e.Name, e.Macros); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.Date = r.Date
	}
	r.Entries = entry.CloneAll(r.Entries)
	return nil
}
