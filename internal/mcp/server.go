package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// recentEntryLimit is the number of entries served by the recent_entries resource.
const recentEntryLimit = 20

// New creates an MCP server with all tools and resources registered. ds
// is either a Local tracker or an HTTPClient to a running wodlog server.
func New(ds DataSource, topN int, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("wodlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("wodlog training log. Look up one-rep maxes, suggest working loads, log sets, read day summaries and performance rankings, and parse whiteboard text into session entries. Weights are in kg; dates are YYYY-MM-DD."),
	)

	h := &handlers{ds: ds, topN: topN, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetOneRepMax, Handler: h.getOneRepMax},
		server.ServerTool{Tool: toolSuggestLoad, Handler: h.suggestLoad},
		server.ServerTool{Tool: toolPercentOfMax, Handler: h.percentOfMax},
		server.ServerTool{Tool: toolLogEntry, Handler: h.logEntry},
		server.ServerTool{Tool: toolGetDaySummary, Handler: h.getDaySummary},
		server.ServerTool{Tool: toolGetPerformance, Handler: h.getPerformance},
		server.ServerTool{Tool: toolParseBoard, Handler: h.parseBoard},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
		server.ServerResource{Resource: resMaxes, Handler: h.maxes},
		server.ServerResource{Resource: resRecentEntries, Handler: h.recentEntries},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds   DataSource
	topN int
	log  *slog.Logger
}

// --- Resource definitions ---

var resCatalog = mcp.NewResource(
	"wodlog://catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every known exercise with its alias, description and category (technical, strength or metcon)"),
	mcp.WithMIMEType("application/json"),
)

var resMaxes = mcp.NewResource(
	"wodlog://maxes",
	"One-Rep Maxes",
	mcp.WithResourceDescription("Current one-rep max per exercise, in kg"),
	mcp.WithMIMEType("application/json"),
)

var resRecentEntries = mcp.NewResource(
	"wodlog://recent_entries",
	"Recent Entries",
	mcp.WithResourceDescription("The most recent session log entries, newest first"),
	mcp.WithMIMEType("application/json"),
)
