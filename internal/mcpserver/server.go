package mcpserver

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nao1215/labelscan/internal/analyzer"
	"github.com/nao1215/labelscan/internal/database"
	"github.com/nao1215/labelscan/internal/model"
)

// ServerName is the name announced to MCP clients.
const ServerName = "labelscan"

// Store is the scan history the tools read and write.
// *database.ScanDB satisfies it.
type Store interface {
	SaveScan(ctx context.Context, scan *model.Scan) error
	GetScan(ctx context.Context, id uuid.UUID) (*model.Scan, error)
	GetLatestScan(ctx context.Context) (*model.Scan, error)
	ListScans(ctx context.Context, opts database.ListOptions) ([]*model.Scan, error)
	MarkSaved(ctx context.Context, id uuid.UUID, notes string) error
}

// Config holds the collaborators of the MCP server.
type Config struct {
	// Version is announced to clients.
	Version string

	// Store persists scans. Nil disables the history tools and storing.
	Store Store

	// Service analyzes tokens. Nil uses the rule tables only.
	Service *analyzer.Service

	// Credential selects enhanced analysis for every call when non-empty.
	Credential string

	// Logger receives tool-level logs.
	Logger *slog.Logger
}

// New creates an MCP server with the label tools registered.
func New(cfg Config) *server.MCPServer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := server.NewMCPServer(
		ServerName,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	analyze := NewAnalyzeTool(cfg)
	s.AddTool(analyze.Definition(), analyze.Handle)

	if cfg.Store != nil {
		list := NewListScansTool(cfg.Store)
		s.AddTool(list.Definition(), list.Handle)

		get := NewGetScanTool(cfg.Store)
		s.AddTool(get.Definition(), get.Handle)

		save := NewSaveScanTool(cfg.Store)
		s.AddTool(save.Definition(), save.Handle)
	}

	return s
}

// Serve runs the server over stdin and stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `labelscan analyzes food ingredient labels.

Call analyze_ingredients with the label text (for example "Sugar, Water, E102").
The result holds a 0-100 health score, a one-sentence summary, one verdict per
ingredient (Healthy, Moderately Harmful, Harmful) and the flagged ingredients.

Analyzed labels are kept for 24 hours unless saved. Use list_scans and get_scan
to look at earlier results and save_scan to keep one permanently.`
