package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"entry_add": {
		def:     entryAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEntryAdd },
	},
	"entry_edit": {
		def:     entryEditToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEntryEdit },
	},
	"entry_remove": {
		def:     entryRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEntryRemove },
	},
	"day_clear": {
		def:     dayClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDayClear },
	},
	"day_view": {
		def:     dayViewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDayView },
	},
	"day_list": {
		def:     dayListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDayList },
	},
	"day_report": {
		def:     dayReportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDayReport },
	},
	"goals_get": {
		def:     goalsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoalsGet },
	},
	"goals_set": {
		def:     goalsSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoalsSet },
	},
	"serving_scale": {
		def:     servingScaleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleServingScale },
	},
	"food_search": {
		def:     foodSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFoodSearch },
	},
	"food_barcode": {
		def:     foodBarcodeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFoodBarcode },
	},
	"history_export": {
		def:     historyExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryExport },
	},
	"history_import": {
		def:     historyImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryImport },
	},
	"history_prune": {
		def:     historyPruneToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryPrune },
	},
}

// AllToolNames returns every tool name in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the macrolog tools registered.
// Tools listed in the config's DisabledTools are left out.
func NewServer(env ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"macrolog",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	if env.Config != nil {
		for _, name := range env.Config.DisabledTools {
			disabled[name] = true
		}
		if unknown := ValidateDisabledTools(env.Config.DisabledTools); len(unknown) > 0 {
			logging.Component(env.Log, "mcp").WithField("tools", unknown).Warn("unknown tools in disabled_tools")
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env ops.Env, version string) error {
	s := NewServer(env, version)
	return server.ServeStdio(s)
}
