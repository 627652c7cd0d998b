package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/ops"
	"github.com/hpungsan/macrolog/internal/scale"
	"github.com/hpungsan/macrolog/internal/web"
)

// stdout is where command results go. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
// env may be nil when only help or version output is needed.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "macrolog",
		Usage:   "Daily calorie and macro log",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(env),
			editCmd(env),
			removeCmd(env),
			clearCmd(env),
			viewCmd(env),
			daysCmd(env),
			reportCmd(env),
			goalsCmd(env),
			scaleCmd(),
			searchCmd(env),
			barcodeCmd(env),
			exportCmd(env),
			importCmd(env),
			pruneCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func macroFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "calories", Aliases: []string{"c"}, Usage: "Whole kcal"},
		&cli.IntFlag{Name: "protein", Aliases: []string{"p"}, Usage: "Protein grams"},
		&cli.IntFlag{Name: "carbs", Usage: "Carb grams"},
		&cli.IntFlag{Name: "fat", Aliases: []string{"f"}, Usage: "Fat grams"},
	}
}

// addCmd creates the add command.
func addCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Log a food on today's list",
		ArgsUsage: "<name>",
		Flags: append(macroFlags(),
			&cli.StringFlag{Name: "meal", Aliases: []string{"m"}, Usage: "Breakfast|Lunch|Dinner|Snack|Other"},
			&cli.StringFlag{Name: "date", Usage: "Must be today when set (YYYY-MM-DD)"},
		),
		Action: func(c *cli.Context) error {
			output, err := ops.AddEntry(c.Context, *env, ops.AddInput{
				Date:     c.String("date"),
				Name:     strings.Join(c.Args().Slice(), " "),
				Calories: c.Int("calories"),
				Protein:  c.Int("protein"),
				Carbs:    c.Int("carbs"),
				Fat:      c.Int("fat"),
				MealType: c.String("meal"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command. Only flags that are set change.
func editCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change an entry on today's list",
		ArgsUsage: "<id>",
		Flags: append(macroFlags(),
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
		),
		Action: func(c *cli.Context) error {
			input := ops.EditInput{ID: c.Args().First()}
			if c.IsSet("name") {
				name := c.String("name")
				input.Name = &name
			}
			input.Calories = intIfSet(c, "calories")
			input.Protein = intIfSet(c, "protein")
			input.Carbs = intIfSet(c, "carbs")
			input.Fat = intIfSet(c, "fat")

			output, err := ops.EditEntry(c.Context, *env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove an entry from today's list",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.RemoveEntry(c.Context, *env, ops.RemoveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every entry from today's list",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to clear today's entries"))
			}
			output, err := ops.ClearDay(c.Context, *env, ops.ClearInput{})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func dayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Days to move, e.g. -1 for the day before"},
		&cli.StringSliceFlag{Name: "collapse", Usage: "Meal sections to fold"},
	}
}

func viewInput(c *cli.Context) ops.ViewInput {
	date := c.Args().First()
	if date == "today" {
		date = ""
	}
	return ops.ViewInput{
		Date:      date,
		Offset:    c.Int("offset"),
		Collapsed: c.StringSlice("collapse"),
	}
}

// viewCmd creates the view command.
func viewCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Show a day grouped by meal",
		ArgsUsage: "[date]",
		Flags:     dayFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.ViewDay(c.Context, *env, viewInput(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command. It prints markdown, not JSON.
func reportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Print a day as markdown",
		ArgsUsage: "[date]",
		Flags:     dayFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Report(c.Context, *env, viewInput(c))
			if err != nil {
				return outputError(err)
			}
			_, err = io.WriteString(stdout, output.Markdown)
			return err
		},
	}
}

// daysCmd creates the days command.
func daysCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "days",
		Usage: "List recorded days, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Days to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListDays(c.Context, *env, ops.ListDaysInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// goalsCmd creates the goals command. Without flags it shows the targets.
func goalsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "goals",
		Usage: "Show or set daily targets",
		Flags: macroFlags(),
		Action: func(c *cli.Context) error {
			input := ops.SetGoalsInput{
				Calories: intIfSet(c, "calories"),
				Protein:  intIfSet(c, "protein"),
				Carbs:    intIfSet(c, "carbs"),
				Fat:      intIfSet(c, "fat"),
			}
			if input == (ops.SetGoalsInput{}) {
				output, err := ops.GetGoals(c.Context, *env)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}
			output, err := ops.SetGoals(c.Context, *env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// scaleCmd creates the scale command. It needs no store.
func scaleCmd() *cli.Command {
	return &cli.Command{
		Name:  "scale",
		Usage: "Scale per-100 g nutrition to a serving",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "calories", Aliases: []string{"c"}, Usage: "kcal per 100 g"},
			&cli.Float64Flag{Name: "protein", Aliases: []string{"p"}, Usage: "Protein g per 100 g"},
			&cli.Float64Flag{Name: "carbs", Usage: "Carb g per 100 g"},
			&cli.Float64Flag{Name: "fat", Aliases: []string{"f"}, Usage: "Fat g per 100 g"},
			&cli.StringSliceFlag{Name: "define", Usage: "Extra unit as label=grams, e.g. slice=30"},
			&cli.StringFlag{Name: "unit", Aliases: []string{"u"}, Usage: "Unit label (default: gram, or the first defined unit)"},
			&cli.StringFlag{Name: "quantity", Aliases: []string{"q"}, Value: "1", Usage: "Amount of the unit"},
		},
		Action: func(c *cli.Context) error {
			units, err := parseUnits(c.StringSlice("define"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.ScaleServing(ops.ScaleInput{
				Per100g: scale.Baseline{
					Calories: floatIfSet(c, "calories"),
					Protein:  floatIfSet(c, "protein"),
					Carbs:    floatIfSet(c, "carbs"),
					Fat:      floatIfSet(c, "fat"),
				},
				Units:    units,
				Unit:     c.String("unit"),
				Quantity: c.String("quantity"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the food database",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum results"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.SearchFoods(c.Context, *env, ops.SearchFoodsInput{
				Query: strings.Join(c.Args().Slice(), " "),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// barcodeCmd creates the barcode command.
func barcodeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "barcode",
		Usage:     "Look up a packaged food by barcode",
		ArgsUsage: "<code>",
		Action: func(c *cli.Context) error {
			output, err := ops.LookupBarcode(c.Context, *env, ops.LookupBarcodeInput{Code: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export recorded days to JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output file path"},
			&cli.StringFlag{Name: "from", Usage: "First day, inclusive"},
			&cli.StringFlag{Name: "to", Usage: "Last day, inclusive"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportHistory(c.Context, *env, ops.ExportInput{
				Path: c.String("path"),
				From: c.String("from"),
				To:   c.String("to"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import days from JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Input file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|merge"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ImportHistory(c.Context, *env, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// pruneCmd creates the prune command.
func pruneCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Permanently delete old days",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Required: true, Usage: "Delete days older than N days (e.g., 90d)"},
		},
		Action: func(c *cli.Context) error {
			days, err := parseDuration(c.String("older-than"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			output, err := ops.PruneHistory(c.Context, *env, ops.PruneInput{OlderThanDays: days})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := env.Config.WebBind, env.Config.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			srv := web.NewServer(*env, Version, bind, port)
			return web.Run(srv, env.Log)
		},
	}
}

// Helper functions

// outputJSON writes result to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if macroErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", macroErr.Code, macroErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

func intIfSet(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func floatIfSet(c *cli.Context, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Float64(name)
	return &v
}

// parseUnits reads label=grams pairs.
func parseUnits(defs []string) ([]scale.Unit, error) {
	units := make([]scale.Unit, 0, len(defs))
	for _, d := range defs {
		label, grams, ok := strings.Cut(d, "=")
		g, err := strconv.ParseFloat(strings.TrimSpace(grams), 64)
		if !ok || strings.TrimSpace(label) == "" || err != nil || g <= 0 {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid unit %q, want label=grams", d))
		}
		units = append(units, scale.Unit{Label: strings.TrimSpace(label), GramsPerUnit: g})
	}
	return units, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
