package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/history"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/sections"
)

// ImportMode controls what happens when a day is already recorded.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision, nothing is written
	ImportModeReplace ImportMode = "replace" // imported day overwrites the recorded one
	ImportModeMerge   ImportMode = "merge"   // add entries whose id is not already recorded
)

// maxLine bounds one JSONL line (a whole day).
const maxLine = 16 << 20

// ImportInput contains parameters for the ImportHistory operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the ImportHistory operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	Date    string `json:"date,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type parsedDay struct {
	line   int
	record history.Record
}

// ImportHistory loads days from a JSONL export. Only days before the live
// day can be imported; the live day changes through entry operations and
// a later day would be wiped when the log rolls over into it. All accepted days
// are written in one batch.
func ImportHistory(ctx context.Context, env Env, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeMerge {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, merge")
	}
	if err := ValidatePath(input.Path, PathCheckRead, env.config(), env.ExportsDir()); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, problems := parseExportFile(file)
	out := &ImportOutput{Errors: []ImportError{}}

	// mode:error is all-or-nothing, including parse problems
	if input.Mode == ImportModeError && len(problems) > 0 {
		out.Errors = problems
		return out, nil
	}
	out.Errors = append(out.Errors, problems...)
	out.Skipped += len(problems)

	s, archive, err := env.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	recorded, err := archive.Dates(ctx)
	if err != nil {
		return nil, err
	}
	exists := make(map[string]bool, len(recorded))
	for _, d := range recorded {
		exists[d] = true
	}

	batch := kv.Batch{}
	for _, p := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}
		d := p.record.Date

		if d == s.Day() {
			if input.Mode == ImportModeError {
				return collision(p, "LIVE_DAY", "the current day cannot be imported"), nil
			}
			out.Errors = append(out.Errors, ImportError{Line: p.line, Date: d, Code: "LIVE_DAY", Message: "the current day cannot be imported"})
			out.Skipped++
			continue
		}
		if day.Before(s.Day(), d) {
			if input.Mode == ImportModeError {
				return collision(p, "FUTURE_DATE", "days after the current day cannot be imported"), nil
			}
			out.Errors = append(out.Errors, ImportError{Line: p.line, Date: d, Code: "FUTURE_DATE", Message: "days after the current day cannot be imported"})
			out.Skipped++
			continue
		}
		if _, dup := batch[history.Key(d)]; dup {
			if input.Mode == ImportModeError {
				return collision(p, "DUPLICATE_DATE", "date appears more than once in the file"), nil
			}
			out.Errors = append(out.Errors, ImportError{Line: p.line, Date: d, Code: "DUPLICATE_DATE", Message: "date appears more than once in the file"})
			out.Skipped++
			continue
		}

		entries := p.record.Entries
		if exists[d] {
			switch input.Mode {
			case ImportModeError:
				return collision(p, "DATE_COLLISION", fmt.Sprintf("day %s is already recorded", d)), nil
			case ImportModeMerge:
				entries = mergeEntries(archive.ReadSnapshot(ctx, d), entries)
			}
		}
		if err := archive.Stage(batch, d, entries); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if len(batch) > 0 {
		if err := env.Store.SetMany(ctx, batch); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	env.logger().WithFields(logrus.Fields{"path": input.Path, "imported": out.Imported, "skipped": out.Skipped}).Info("history imported")
	return out, nil
}

func collision(p parsedDay, code, msg string) *ImportOutput {
	return &ImportOutput{Errors: []ImportError{{Line: p.line, Date: p.record.Date, Code: code, Message: msg}}}
}

// mergeEntries keeps every recorded entry and adds incoming ones with new
// ids, preserving newest-first order by creation time.
func mergeEntries(recorded, incoming []entry.Entry) []entry.Entry {
	out := entry.CloneAll(recorded)
	for _, e := range incoming {
		if entry.IndexOf(out, e.ID) < 0 {
			out = append(out, e)
		}
	}
	sections.SortNewestFirst(out)
	return out
}

// parseExportFile reads day records, skipping the header line.
func parseExportFile(r io.Reader) ([]parsedDay, []ImportError) {
	var records []parsedDay
	var problems []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec history.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			problems = append(problems, ImportError{Line: lineNum, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if rec.MacrologExport {
			continue
		}
		if err := rec.Check(); err != nil {
			problems = append(problems, ImportError{Line: lineNum, Date: rec.Date, Code: "INVALID_RECORD", Message: err.Error()})
			continue
		}
		records = append(records, parsedDay{line: lineNum, record: rec})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{Line: lineNum, Code: "READ_ERROR", Message: fmt.Sprintf("failed to read file: %v", err)})
	}
	return records, problems
}
