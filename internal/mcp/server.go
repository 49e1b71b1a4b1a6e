// Package mcp exposes network conversion as a Model Context Protocol tool.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/dgallion1/dxfnet/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ConvertArgs are the arguments of the convert_network tool.
type ConvertArgs struct {
	Content   string `json:"content" jsonschema:"The drawing itself: ASCII DXF text or a GeoJSON document"`
	Format    string `json:"format" jsonschema:"Format of content: dxf or geojson"`
	Precision *int   `json:"precision,omitempty" jsonschema:"Decimal places endpoints are rounded to before comparison (default 4)"`
}

// ConvertResult is the structured output of convert_network.
type ConvertResult struct {
	JobID     string            `json:"job_id"`
	Segments  int               `json:"segments"`
	Nodes     []network.Node    `json:"nodes"`
	Branches  []network.Branch  `json:"branches"`
	Stats     network.Stats     `json:"stats"`
	Downloads map[string]string `json:"downloads"`
}

var formats = map[string]string{
	"dxf":     "drawing.dxf",
	"geojson": "drawing.geojson",
}

// Service runs tool calls through the conversion pipeline, so converted
// jobs stay downloadable over HTTP like any other.
type Service struct {
	orch *pipeline.Orchestrator
	log  *slog.Logger
}

func NewService(orch *pipeline.Orchestrator, log *slog.Logger) *Service {
	return &Service{orch: orch, log: log}
}

// Convert handles a convert_network call.
func (s *Service) Convert(ctx context.Context, req *mcp.CallToolRequest, args ConvertArgs) (*mcp.CallToolResult, ConvertResult, error) {
	filename, ok := formats[strings.ToLower(args.Format)]
	if !ok {
		return nil, ConvertResult{}, fmt.Errorf("unsupported format %q: want dxf or geojson", args.Format)
	}
	if strings.TrimSpace(args.Content) == "" {
		return nil, ConvertResult{}, fmt.Errorf("content is empty")
	}

	precision := s.orch.Converter().Options().Precision
	if args.Precision != nil {
		precision = *args.Precision
	}

	job := pipeline.NewJob(filename, []byte(args.Content), precision)
	res, err := s.orch.Run(ctx, job)
	if err != nil {
		return nil, ConvertResult{}, err
	}
	s.log.Info("mcp conversion", "job_id", job.ID, "branches", len(res.Branches))

	downloads := make(map[string]string)
	for _, name := range res.ArtifactNames() {
		downloads[name] = fmt.Sprintf("/download/%s/%s", job.ID, name)
	}
	return nil, ConvertResult{
		JobID:     job.ID,
		Segments:  res.Segments,
		Nodes:     res.Nodes.Nodes(),
		Branches:  res.Branches,
		Stats:     res.Stats,
		Downloads: downloads,
	}, nil
}

// NewServer builds the MCP server and registers its tools.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, version string) *mcp.Server {
	svc := NewService(orch, log)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "dxfnet",
		Version: version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name: "convert_network",
		Description: "Reduce a drawing of polylines to a network: numbered nodes where polylines " +
			"meet or end, and branches formed by merging chains through degree-2 nodes.",
	}, svc.Convert)

	return s
}

// Handler serves s over streamable HTTP.
func Handler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}
