package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tftdiet/tft/internal/app"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"food_search": {
		def:     foodSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFoodSearch },
	},
	"draft_show": {
		def:     draftShowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftShow },
	},
	"draft_add_food": {
		def:     draftAddFoodToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftAddFood },
	},
	"draft_remove_food": {
		def:     draftRemoveFoodToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftRemoveFood },
	},
	"draft_set_quantity": {
		def:     draftSetQuantityToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSetQuantity },
	},
	"draft_set_fields": {
		def:     draftSetFieldsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSetFields },
	},
	"draft_clear": {
		def:     draftClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftClear },
	},
	"meal_create": {
		def:     mealCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMealCreate },
	},
	"meal_list": {
		def:     mealListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMealList },
	},
	"meal_delete": {
		def:     mealDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMealDelete },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
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

// NewServer creates a new MCP server with tft tools registered.
// Tools listed in the app config's DisabledTools are excluded.
func NewServer(a *app.App, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tft",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(a)

	disabled := make(map[string]bool)
	for _, name := range a.Config.DisabledTools {
		disabled[name] = true
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
func Run(a *app.App, version string) error {
	s := NewServer(a, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
