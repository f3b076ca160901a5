package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/model"
	"github.com/nao1215/labelscan/internal/pipeline"
)

// AnalyzeTool handles the analyze_ingredients MCP tool.
type AnalyzeTool struct {
	store      Store
	service    *analyzer.Service
	credential string
	logger     *slog.Logger
}

// NewAnalyzeTool creates an AnalyzeTool from the server configuration.
func NewAnalyzeTool(cfg Config) *AnalyzeTool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeTool{
		store:      cfg.Store,
		service:    cfg.Service,
		credential: cfg.Credential,
		logger:     logger,
	}
}

// Definition returns the MCP tool definition for analyze_ingredients.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_ingredients",
		mcp.WithDescription(
			"Analyze a food ingredient label. Returns a 0-100 health score, a summary, "+
				"a per-ingredient classification (Healthy, Moderately Harmful, Harmful) and the flagged ingredients.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Ingredient list as printed on the label, e.g. 'Sugar, Water, Citric Acid (E330)'"),
		),
		mcp.WithBoolean("store",
			mcp.Description("Keep the scan in history for 24 hours (default: true)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Keep the scan permanently (default: false)"),
		),
		mcp.WithString("notes",
			mcp.Description("Notes attached to a saved scan"),
		),
	)
}

// analyzeResponse is the JSON body of a successful analysis.
type analyzeResponse struct {
	ScanID         uuid.UUID            `json:"scan_id"`
	Engine         model.Engine         `json:"engine"`
	FallbackReason string               `json:"fallback_reason,omitempty"`
	Stored         bool                 `json:"stored"`
	Saved          bool                 `json:"saved"`
	Ingredients    []string             `json:"cleaned_ingredients"`
	Analysis       model.AnalysisResult `json:"analysis"`
}

// Handle processes the analyze_ingredients tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	store := boolArg(req, "store", true) && t.store != nil
	save := boolArg(req, "save", false)
	if save && !store {
		return mcp.NewToolResultError("'save' needs the scan to be stored"), nil
	}

	cfg := pipeline.DefaultPipelineConfig{
		Service: t.service,
		Save:    save,
		Notes:   req.GetString("notes", ""),
		Logger:  t.logger,
	}
	if store {
		cfg.Store = t.store
	}

	report := pipeline.NewReport(pipeline.TextInput(text, t.credential))
	if err := pipeline.DefaultPipeline(cfg).Execute(ctx, report); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return jsonResult(analyzeResponse{
		ScanID:         report.Scan.ID,
		Engine:         report.Engine,
		FallbackReason: report.FallbackReason,
		Stored:         store,
		Saved:          report.Scan.Saved,
		Ingredients:    report.Scan.CleanedIngredients,
		Analysis:       report.Scan.Analysis,
	})
}
