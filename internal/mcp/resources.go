package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req, exercises)
}

func (h *handlers) maxes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	maxes, err := h.ds.Maxes(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req, maxes)
}

func (h *handlers) recentEntries(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.ds.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) > recentEntryLimit {
		entries = entries[:recentEntryLimit]
	}
	return jsonResource(req, entries)
}

func jsonResource(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
