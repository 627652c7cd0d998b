package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/macrolog/internal/config"
	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/db"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/ops"
)

// setupTestEnv creates an Env over a temporary database. The clock reads
// 2024-03-10 10:00 UTC.
func setupTestEnv(t *testing.T) *ops.Env {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	store := kv.NewSQLite(database)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	return &ops.Env{
		Store:   store,
		Config:  config.DefaultConfig(),
		BaseDir: tmpDir,
		Nav:     day.NewNavigator(func() time.Time { return now }, time.UTC),
	}
}

// run executes the CLI and returns what it wrote to stdout.
func run(t *testing.T, env *ops.Env, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	err := newCLIApp(env).Run(append([]string{"macrolog"}, args...))
	return buf.String(), err
}

func mustRun(t *testing.T, env *ops.Env, out any, args ...string) {
	t.Helper()
	text, err := run(t, env, args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, text)
	}
}

func TestCLIAddViewEditRemove(t *testing.T) {
	env := setupTestEnv(t)

	var added ops.EntryOutput
	mustRun(t, env, &added, "add", "--calories=420", "-p", "30", "--meal=lunch", "Chicken", "wrap")
	if added.Entry.Name != "Chicken wrap" || added.Entry.MealType != "Lunch" {
		t.Errorf("added entry = %+v", added.Entry)
	}
	if added.Totals.Calories != 420 {
		t.Errorf("totals = %+v", added.Totals)
	}

	var edited ops.EntryOutput
	mustRun(t, env, &edited, "edit", "--calories=400", "--name=Wrap", added.Entry.ID)
	if edited.Entry.Name != "Wrap" || edited.Entry.Calories != 400 || edited.Entry.Protein != 30 {
		t.Errorf("edited entry = %+v", edited.Entry)
	}

	var view ops.ViewOutput
	mustRun(t, env, &view, "view", "--collapse=Lunch")
	if view.Date != "2024-03-10" || view.Totals.Calories != 400 {
		t.Errorf("view = %+v", view)
	}
	if view.Sections[1].Expanded {
		t.Error("lunch should be collapsed")
	}

	var removed ops.RemoveOutput
	mustRun(t, env, &removed, "remove", added.Entry.ID)
	if !removed.Removed || removed.Totals.Calories != 0 {
		t.Errorf("remove = %+v", removed)
	}
}

func TestCLIClearRequiresConfirmation(t *testing.T) {
	env := setupTestEnv(t)
	mustRun(t, env, nil, "add", "-c", "100", "Toast")

	if _, err := run(t, env, "clear"); err == nil {
		t.Fatal("expected error without --yes")
	}

	var out ops.ClearOutput
	mustRun(t, env, &out, "clear", "--yes")
	if out.Cleared != 1 {
		t.Errorf("cleared = %d, want 1", out.Cleared)
	}
}

func TestCLIReport(t *testing.T) {
	env := setupTestEnv(t)
	mustRun(t, env, nil, "add", "-c", "250", "--meal=Breakfast", "Yogurt")

	text, err := run(t, env, "report", "today")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.HasPrefix(text, "# 2024-03-10 (today)") || !strings.Contains(text, "Yogurt") {
		t.Errorf("report = %q", text)
	}
}

func TestCLIDaysAndGoals(t *testing.T) {
	env := setupTestEnv(t)
	mustRun(t, env, nil, "add", "-c", "250", "Yogurt")

	var days ops.ListDaysOutput
	mustRun(t, env, &days, "days", "--limit=5")
	if len(days.Items) != 1 || !days.Items[0].Live {
		t.Errorf("days = %+v", days)
	}

	var g map[string]int
	mustRun(t, env, &g, "goals")
	if g["calories"] != 2000 {
		t.Errorf("default goals = %v", g)
	}
	mustRun(t, env, &g, "goals", "--calories=1800", "--fat=60")
	if g["calories"] != 1800 || g["fat"] != 60 || g["protein"] != 150 {
		t.Errorf("updated goals = %v", g)
	}
}

func TestCLIScale(t *testing.T) {
	var out ops.ScaleOutput
	mustRun(t, nil, &out, "scale", "-c", "250", "-p", "10", "--define=slice=30", "-q", "2")
	if out.Unit.Label != "slice" || out.Macros.Calories != 150 || out.Macros.Protein != 6 {
		t.Errorf("scale = %+v", out)
	}

	if _, err := run(t, nil, "scale", "-c", "100", "--define=slice"); err == nil {
		t.Error("expected error for malformed unit")
	}
}

func TestCLIExportImportPrune(t *testing.T) {
	env := setupTestEnv(t)
	mustRun(t, env, nil, "add", "-c", "250", "Yogurt")

	exportPath := filepath.Join(env.ExportsDir(), "backup.jsonl")
	var exported ops.ExportOutput
	mustRun(t, env, &exported, "export", "--path", exportPath)
	if exported.Days != 1 || exported.Entries != 1 {
		t.Errorf("export = %+v", exported)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	var imported ops.ImportOutput
	mustRun(t, env, &imported, "import", "--path", exportPath, "--mode=replace")
	if imported.Imported != 0 || imported.Skipped != 1 {
		t.Errorf("import = %+v", imported)
	}

	var pruned ops.PruneOutput
	mustRun(t, env, &pruned, "prune", "--older-than=30d")
	if pruned.Pruned != 0 {
		t.Errorf("prune = %+v", pruned)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"add without macros", []string{"add", "Water"}, "[VALIDATION]"},
		{"add to a past day", []string{"add", "-c", "10", "--date=2024-03-09", "Tea"}, "[WRONG_DAY]"},
		{"edit unknown id", []string{"edit", "-c", "1", "nope"}, "[NOT_FOUND]"},
		{"bad prune duration", []string{"prune", "--older-than=soon"}, "[INVALID_REQUEST]"},
		{"zero prune duration", []string{"prune", "--older-than=0d"}, "[INVALID_REQUEST]"},
		{"search without lookup", []string{"search", "apple"}, "[LOOKUP_FAILED]"},
		{"bad import mode", []string{"import", "--path=x.jsonl", "--mode=rename"}, "[INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, env, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantCode) {
				t.Errorf("error = %q, want %s", err.Error(), tt.wantCode)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"90d", 90, false},
		{"0d", 0, false},
		{"7", 0, true},
		{"7w", 0, true},
		{"xd", 0, true},
		{"-3d", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseUnits(t *testing.T) {
	units, err := parseUnits([]string{"slice=30", " cup = 240 "})
	if err != nil {
		t.Fatalf("parseUnits failed: %v", err)
	}
	if len(units) != 2 || units[1].Label != "cup" || units[1].GramsPerUnit != 240 {
		t.Errorf("parseUnits = %+v", units)
	}
	for _, bad := range []string{"slice", "=30", "slice=0", "slice=abc"} {
		if _, err := parseUnits([]string{bad}); err == nil {
			t.Errorf("parseUnits(%q) expected error", bad)
		}
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"macrolog"}, expected: false},
		{name: "add command", args: []string{"macrolog", "add"}, expected: true},
		{name: "serve command", args: []string{"macrolog", "serve"}, expected: true},
		{name: "help flag", args: []string{"macrolog", "--help"}, expected: true},
		{name: "short version flag", args: []string{"macrolog", "-v"}, expected: true},
		{name: "unknown arg defaults to MCP", args: []string{"macrolog", "--unknown"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for args, want := range map[string]bool{"help": true, "--version": true, "add": false, "": false} {
		os.Args = []string{"macrolog"}
		if args != "" {
			os.Args = append(os.Args, args)
		}
		if got := isHelpOrVersion(); got != want {
			t.Errorf("isHelpOrVersion(%q) = %v, want %v", args, got, want)
		}
	}
}
