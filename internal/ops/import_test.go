package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/history"
)

func writeImportFile(t *testing.T, env Env, lines ...string) string {
	t.Helper()
	if err := os.MkdirAll(env.ExportsDir(), 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(env.ExportsDir(), "import.jsonl")
	content := `{"_macrolog_export":true,"schema_version":"1.0","exported_at":1}` + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const (
	march1 = `{"date":"2024-03-01","entries":[{"id":"A1","name":"Toast","calories":80,"protein":3,"carbs":15,"fat":1,"created_at":1709280000000,"meal_type":"Breakfast"}]}`
	march2 = `{"date":"2024-03-02","entries":[{"id":"B1","name":"Soup","calories":200,"protein":8,"carbs":20,"fat":9,"created_at":1709366400000}]}`
)

func TestImportHistory(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	path := writeImportFile(t, env, march1, march2)

	out, err := ImportHistory(ctx, env, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("ImportHistory failed: %v", err)
	}
	if out.Imported != 2 || out.Skipped != 0 || len(out.Errors) != 0 {
		t.Fatalf("ImportHistory = %+v", out)
	}

	v, err := ViewDay(ctx, env, ViewInput{Date: "2024-03-01"})
	if err != nil {
		t.Fatalf("ViewDay failed: %v", err)
	}
	if v.Totals.Calories != 80 || v.Sections[0].Count != 1 {
		t.Errorf("imported day view = %+v", v)
	}
	snap := history.New(env.Store, nil, nil).ReadSnapshot(ctx, "2024-03-02")
	if len(snap) != 1 || snap[0].Date != "2024-03-02" {
		t.Errorf("imported entries should carry the record date: %+v", snap)
	}
}

func TestImportHistory_ModeError_AllOrNothing(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	first := writeImportFile(t, env, march1)
	if _, err := ImportHistory(ctx, env, ImportInput{Path: first}); err != nil {
		t.Fatal(err)
	}

	path := writeImportFile(t, env, march2, march1)
	out, err := ImportHistory(ctx, env, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("ImportHistory failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 1 || out.Errors[0].Code != "DATE_COLLISION" {
		t.Errorf("ImportHistory = %+v", out)
	}
	if _, found, _ := env.Store.Get(ctx, history.Key("2024-03-02")); found {
		t.Error("mode:error wrote a day despite a collision")
	}
}

func TestImportHistory_ParseErrors(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	bad := `{"date":"2024-03-03","entries":[{"id":"C1","name":"","calories":10}]}`
	path := writeImportFile(t, env, march1, "not json", bad)

	out, err := ImportHistory(ctx, env, ImportInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 0 || len(out.Errors) != 2 {
		t.Errorf("mode:error with parse errors = %+v", out)
	}

	out, err = ImportHistory(ctx, env, ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 1 || out.Skipped != 2 {
		t.Errorf("mode:replace = %+v", out)
	}
	codes := map[string]bool{}
	for _, e := range out.Errors {
		codes[e.Code] = true
	}
	if !codes["PARSE_ERROR"] || !codes["INVALID_RECORD"] {
		t.Errorf("error codes = %v", codes)
	}
}

func TestImportHistory_ReplaceAndMerge(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	archive := history.New(env.Store, nil, nil)
	if _, err := ImportHistory(ctx, env, ImportInput{Path: writeImportFile(t, env, march1)}); err != nil {
		t.Fatal(err)
	}

	other := `{"date":"2024-03-01","entries":[{"id":"A2","name":"Jam","calories":50,"created_at":1709283600000}]}`
	path := writeImportFile(t, env, other)

	if _, err := ImportHistory(ctx, env, ImportInput{Path: path, Mode: ImportModeMerge}); err != nil {
		t.Fatal(err)
	}
	snap := archive.ReadSnapshot(ctx, "2024-03-01")
	if len(snap) != 2 || snap[0].ID != "A2" || snap[1].ID != "A1" {
		t.Errorf("merged snapshot = %+v", snap)
	}

	if _, err := ImportHistory(ctx, env, ImportInput{Path: path, Mode: ImportModeReplace}); err != nil {
		t.Fatal(err)
	}
	snap = archive.ReadSnapshot(ctx, "2024-03-01")
	if len(snap) != 1 || snap[0].ID != "A2" {
		t.Errorf("replaced snapshot = %+v", snap)
	}
}

func TestImportHistory_LiveDayRejected(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	mustAdd(t, env, "Coffee", 5, "")
	today := `{"date":"2024-03-10","entries":[{"id":"T1","name":"Cake","calories":400}]}`
	path := writeImportFile(t, env, today, march1)

	out, err := ImportHistory(ctx, env, ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 1 || out.Skipped != 1 || out.Errors[0].Code != "LIVE_DAY" {
		t.Errorf("ImportHistory = %+v", out)
	}
	v, _ := ViewDay(ctx, env, ViewInput{})
	if v.Totals.Calories != 5 {
		t.Errorf("live day changed by import: %+v", v.Totals)
	}
}

func TestImportHistory_InputErrors(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	if _, err := ImportHistory(ctx, env, ImportInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no path: %v", err)
	}
	if _, err := ImportHistory(ctx, env, ImportInput{Path: "x.jsonl", Mode: "rename"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad mode: %v", err)
	}
	missing := filepath.Join(env.ExportsDir(), "missing.jsonl")
	if _, err := ImportHistory(ctx, env, ImportInput{Path: missing}); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, clock := newTestEnv(t)
	ctx := context.Background()
	seedDays(t, src, clock)
	exported, err := ExportHistory(ctx, src, ExportInput{To: "2024-03-12"})
	if err != nil {
		t.Fatal(err)
	}

	dst, dstClock := newTestEnv(t)
	dst.Config.AllowedPaths = []string{src.ExportsDir()}
	// dst's clock reads 2024-03-10, so that day is live and the rest lie ahead.
	out, err := ImportHistory(ctx, dst, ImportInput{Path: exported.Path})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 0 || out.Errors[0].Code != "LIVE_DAY" {
		t.Errorf("mode:error should refuse the file: %+v", out)
	}

	// Once dst has moved on, every exported day lies in its past. 2024-03-10
	// was live on dst and holds an empty snapshot, hence replace.
	dstClock.advance(3)
	out, err = ImportHistory(ctx, dst, ImportInput{Path: exported.Path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 3 || len(out.Errors) != 0 {
		t.Errorf("ImportHistory = %+v, want 3 days imported", out)
	}
	v, _ := ViewDay(ctx, dst, ViewInput{Date: "2024-03-12"})
	if v.Totals.Calories != 300 {
		t.Errorf("round-tripped day totals = %+v", v.Totals)
	}
}

func TestImportHistory_FutureDayRejected(t *testing.T) {
	env, clock := newTestEnv(t)
	ctx := context.Background()
	later := `{"date":"2024-03-11","entries":[{"id":"F1","name":"Pie","calories":300}]}`
	path := writeImportFile(t, env, march1, later)

	out, err := ImportHistory(ctx, env, ImportInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 0 || out.Errors[0].Code != "FUTURE_DATE" {
		t.Errorf("mode:error ImportHistory = %+v", out)
	}

	out, err = ImportHistory(ctx, env, ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 1 || out.Skipped != 1 || out.Errors[0].Date != "2024-03-11" {
		t.Errorf("replace ImportHistory = %+v", out)
	}

	clock.advance(1)
	v, _ := ViewDay(ctx, env, ViewInput{})
	if v.Date != "2024-03-11" || !v.Totals.IsZero() {
		t.Errorf("new day should start empty: %+v", v)
	}
}

func TestImportHistory_CanonicalMealNames(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	lower := `{"date":"2024-03-03","entries":[{"id":"L1","name":"Salad","calories":150,"meal_type":"lunch"},{"id":"L2","name":"Nuts","calories":90,"meal_type":" SNACK "}]}`
	path := writeImportFile(t, env, lower)

	out, err := ImportHistory(ctx, env, ImportInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if out.Imported != 1 {
		t.Fatalf("ImportHistory = %+v", out)
	}

	snap := history.New(env.Store, nil, nil).ReadSnapshot(ctx, "2024-03-03")
	if len(snap) != 2 || snap[0].MealType != "Lunch" || snap[1].MealType != "Snack" {
		t.Errorf("stored meal types = %+v", snap)
	}
	v, err := ViewDay(ctx, env, ViewInput{Date: "2024-03-03"})
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, sec := range v.Sections {
		counts[string(sec.Key)] = sec.Count
	}
	if counts["Lunch"] != 1 || counts["Snack"] != 1 || counts["Other"] != 0 {
		t.Errorf("section counts = %v", counts)
	}
}
