package mcp

import "github.com/mark3labs/mcp-go/mcp"

var dateParam = mcp.WithString("date",
	mcp.Description("Day as YYYY-MM-DD. Defaults to today; only today can be changed."))

var mealTypes = []string{"Breakfast", "Lunch", "Dinner", "Snack", "Other"}

var entryAddToolDef = mcp.NewTool("entry_add",
	mcp.WithDescription("Log a food entry on today's log. At least one macro must be positive."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Food name")),
	mcp.WithNumber("calories", mcp.Description("Whole kcal"), mcp.Min(0)),
	mcp.WithNumber("protein", mcp.Description("Whole grams"), mcp.Min(0)),
	mcp.WithNumber("carbs", mcp.Description("Whole grams"), mcp.Min(0)),
	mcp.WithNumber("fat", mcp.Description("Whole grams"), mcp.Min(0)),
	mcp.WithString("meal_type", mcp.Description("Meal section; unset entries land in Other"), mcp.Enum(mealTypes...)),
	dateParam,
)

var entryEditToolDef = mcp.NewTool("entry_edit",
	mcp.WithDescription("Change the name or macros of an entry in today's log. Omitted fields keep their value."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithString("name"),
	mcp.WithNumber("calories", mcp.Min(0)),
	mcp.WithNumber("protein", mcp.Min(0)),
	mcp.WithNumber("carbs", mcp.Min(0)),
	mcp.WithNumber("fat", mcp.Min(0)),
	dateParam,
)

var entryRemoveToolDef = mcp.NewTool("entry_remove",
	mcp.WithDescription("Remove an entry from today's log. Removing an unknown id is not an error."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	dateParam,
	mcp.WithDestructiveHintAnnotation(true),
)

var dayClearToolDef = mcp.NewTool("day_clear",
	mcp.WithDescription("Remove every entry from today's log."),
	dateParam,
	mcp.WithDestructiveHintAnnotation(true),
)

var dayViewToolDef = mcp.NewTool("day_view",
	mcp.WithDescription("Show a day grouped into meal sections with totals and goal progress."),
	dateParam,
	mcp.WithNumber("offset", mcp.Description("Days to move from date; -1 is the day before")),
	mcp.WithArray("collapsed",
		mcp.Description("Meal sections to show folded"),
		mcp.Items(map[string]any{"type": "string", "enum": mealTypes})),
	mcp.WithReadOnlyHintAnnotation(true),
)

var dayListToolDef = mcp.NewTool("day_list",
	mcp.WithDescription("List recorded days, newest first, with entry counts and totals."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 31, max 366)")),
	mcp.WithNumber("offset", mcp.Description("Days to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var dayReportToolDef = mcp.NewTool("day_report",
	mcp.WithDescription("Render a day as Markdown."),
	dateParam,
	mcp.WithNumber("offset"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var goalsGetToolDef = mcp.NewTool("goals_get",
	mcp.WithDescription("Show the daily calorie and macro targets."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var goalsSetToolDef = mcp.NewTool("goals_set",
	mcp.WithDescription("Update daily targets. Omitted targets are unchanged; values below 1 become 1."),
	mcp.WithNumber("calories"),
	mcp.WithNumber("protein"),
	mcp.WithNumber("carbs"),
	mcp.WithNumber("fat"),
)

var servingScaleToolDef = mcp.NewTool("serving_scale",
	mcp.WithDescription("Scale per-100 g nutrition to a serving. Does not log anything."),
	mcp.WithObject("per_100g", mcp.Required(),
		mcp.Description("Nutrition per 100 g; missing values count as 0"),
		mcp.Properties(map[string]any{
			"calories": map[string]any{"type": "number"},
			"protein":  map[string]any{"type": "number"},
			"carbs":    map[string]any{"type": "number"},
			"fat":      map[string]any{"type": "number"},
		})),
	mcp.WithArray("units",
		mcp.Description("Serving units; defaults to gram and ounce"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label":          map[string]any{"type": "string"},
				"grams_per_unit": map[string]any{"type": "number"},
			},
		})),
	mcp.WithString("unit", mcp.Description("Unit label; empty picks the default unit")),
	mcp.WithString("quantity", mcp.Description("Amount of the unit; invalid or non-positive counts as 1")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var foodSearchToolDef = mcp.NewTool("food_search",
	mcp.WithDescription("Search the food database for per-100 g nutrition."),
	mcp.WithString("query", mcp.Required()),
	mcp.WithNumber("limit", mcp.Description("Max results (default 25, max 200)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var foodBarcodeToolDef = mcp.NewTool("food_barcode",
	mcp.WithDescription("Look up a packaged food by barcode."),
	mcp.WithString("code", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var historyExportToolDef = mcp.NewTool("history_export",
	mcp.WithDescription("Write recorded days to a JSONL file."),
	mcp.WithString("path", mcp.Description("Defaults to ~/.macrolog/exports/history-<timestamp>.jsonl")),
	mcp.WithString("from", mcp.Description("First day, inclusive")),
	mcp.WithString("to", mcp.Description("Last day, inclusive")),
)

var historyImportToolDef = mcp.NewTool("history_import",
	mcp.WithDescription("Load days from a JSONL export. Today's log is never overwritten."),
	mcp.WithString("path", mcp.Required()),
	mcp.WithString("mode", mcp.Enum("error", "replace", "merge"),
		mcp.Description("What to do when a day is already recorded (default error)")),
)

var historyPruneToolDef = mcp.NewTool("history_prune",
	mcp.WithDescription("Permanently delete days older than older_than_days."),
	mcp.WithNumber("older_than_days", mcp.Required(), mcp.Min(1)),
	mcp.WithDestructiveHintAnnotation(true),
)
