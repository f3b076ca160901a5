package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nao1215/labelscan/internal/database"
	"github.com/nao1215/labelscan/internal/model"
)

// defaultListLimit caps list_scans when no limit is given.
const defaultListLimit = 20

// scanEntry is one line of a scan listing.
type scanEntry struct {
	ScanID      uuid.UUID    `json:"scan_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Source      model.Source `json:"source"`
	HealthScore int          `json:"health_score"`
	Flags       []string     `json:"flags"`
	Saved       bool         `json:"saved"`
	Notes       string       `json:"notes,omitempty"`
}

func newScanEntry(scan *model.Scan) scanEntry {
	return scanEntry{
		ScanID:      scan.ID,
		Timestamp:   scan.Timestamp,
		Source:      scan.Source,
		HealthScore: scan.Analysis.HealthScore,
		Flags:       scan.Analysis.Flags,
		Saved:       scan.Saved,
		Notes:       scan.Notes(),
	}
}

// ListScansTool handles the list_scans MCP tool.
type ListScansTool struct {
	store Store
}

// NewListScansTool creates a ListScansTool.
func NewListScansTool(store Store) *ListScansTool {
	return &ListScansTool{store: store}
}

// Definition returns the MCP tool definition for list_scans.
func (t *ListScansTool) Definition() mcp.Tool {
	return mcp.NewTool("list_scans",
		mcp.WithDescription("List recent scans, newest first. Unsaved scans older than 24 hours are removed first."),
		mcp.WithBoolean("saved_only",
			mcp.Description("Only list saved scans (default: false)"),
		),
		mcp.WithString("source",
			mcp.Description("Only list scans from this source"),
			mcp.Enum(string(model.SourceText), string(model.SourceImage)),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of scans (default: 20)"),
		),
	)
}

// Handle processes the list_scans tool call.
func (t *ListScansTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", defaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("'limit' must be positive"), nil
	}

	var source model.Source
	if raw := req.GetString("source", ""); raw != "" {
		parsed, err := model.ParseSource(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'source' must be text or image, got %q", raw)), nil
		}
		source = parsed
	}

	scans, err := t.store.ListScans(ctx, database.ListOptions{
		SavedOnly: boolArg(req, "saved_only", false),
		Source:    source,
		Limit:     limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list scans: %v", err)), nil
	}

	entries := make([]scanEntry, 0, len(scans))
	for _, scan := range scans {
		entries = append(entries, newScanEntry(scan))
	}
	return jsonResult(entries)
}

// GetScanTool handles the get_scan MCP tool.
type GetScanTool struct {
	store Store
}

// NewGetScanTool creates a GetScanTool.
func NewGetScanTool(store Store) *GetScanTool {
	return &GetScanTool{store: store}
}

// Definition returns the MCP tool definition for get_scan.
func (t *GetScanTool) Definition() mcp.Tool {
	return mcp.NewTool("get_scan",
		mcp.WithDescription("Get the full record of one scan, including the label text and every verdict."),
		mcp.WithString("scan_id",
			mcp.Required(),
			mcp.Description("Scan id as returned by analyze_ingredients or list_scans"),
		),
	)
}

// Handle processes the get_scan tool call.
func (t *GetScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := scanIDArg(req, "scan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scan, err := t.store.GetScan(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(lookupError(id, err)), nil
	}
	return jsonResult(scan)
}

// SaveScanTool handles the save_scan MCP tool.
type SaveScanTool struct {
	store Store
}

// NewSaveScanTool creates a SaveScanTool.
func NewSaveScanTool(store Store) *SaveScanTool {
	return &SaveScanTool{store: store}
}

// Definition returns the MCP tool definition for save_scan.
func (t *SaveScanTool) Definition() mcp.Tool {
	return mcp.NewTool("save_scan",
		mcp.WithDescription("Keep a scan permanently so it is never expired. Without scan_id the latest scan is saved."),
		mcp.WithString("scan_id",
			mcp.Description("Scan id (default: latest scan)"),
		),
		mcp.WithString("notes",
			mcp.Description("Notes to attach; empty keeps the existing notes"),
		),
	)
}

// Handle processes the save_scan tool call.
func (t *SaveScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var id uuid.UUID
	if req.GetString("scan_id", "") == "" {
		latest, err := t.store.GetLatestScan(ctx)
		if err != nil {
			if errors.Is(err, database.ErrScanNotFound) {
				return mcp.NewToolResultError("no scans to save"), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to load latest scan: %v", err)), nil
		}
		id = latest.ID
	} else {
		parsed, err := scanIDArg(req, "scan_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		id = parsed
	}

	if err := t.store.MarkSaved(ctx, id, req.GetString("notes", "")); err != nil {
		return mcp.NewToolResultError(lookupError(id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scan %s saved", id)), nil
}

func lookupError(id uuid.UUID, err error) string {
	if errors.Is(err, database.ErrScanNotFound) {
		return fmt.Sprintf("scan %s not found", id)
	}
	return fmt.Sprintf("failed to load scan %s: %v", id, err)
}
