// Package mcpserver exposes the extraction tools over the Model Context Protocol so an
// external agent can drive the resource builder directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

const (
	serverName = "notefhir"

	// ToolGetBundle returns the accumulated resources as a FHIR collection Bundle.
	ToolGetBundle = "get_fhir_bundle"
)

// MetadataGetBundle describes the get_fhir_bundle tool.
var MetadataGetBundle = &mcp.Tool{
	Name:        ToolGetBundle,
	Description: "Return every resource extracted so far as a FHIR collection Bundle. Optionally restrict to one resourceType.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"kind": map[string]interface{}{
				"type":        "string",
				"description": "Resource type to include",
				"enum":        []string{"Condition", "MedicationStatement", "Procedure"},
			},
		},
	},
}

// InputGetBundle is the input for the get_fhir_bundle tool.
type InputGetBundle struct {
	Kind string `json:"kind,omitempty"`
}

// OutputBuild is the structured result of an extraction tool call.
type OutputBuild struct {
	Status       string                   `json:"status"`
	Kind         entities.ResourceKind    `json:"kind"`
	Record       *entities.ResourceRecord `json:"record,omitempty"`
	Issues       []entities.FieldIssue    `json:"issues,omitempty"`
	ExportIssues []string                 `json:"export_issues,omitempty"`
}

// Server adapts the tool registry to an MCP server.
type Server struct {
	registry  *services.ToolRegistry
	resources *services.ResourceService
	exporter  services.ResourceExporter
	server    *mcp.Server
}

// New builds an MCP server with one tool per registered extraction tool plus
// get_fhir_bundle. exporter may be nil.
func New(registry *services.ToolRegistry, resources *services.ResourceService, exporter services.ResourceExporter, version string) *Server {
	s := &Server{
		registry:  registry,
		resources: resources,
		exporter:  exporter,
		server:    mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
	}

	for _, desc := range registry.Tools() {
		tool := &mcp.Tool{
			Name:        desc.Name(),
			Description: desc.Function.Description,
			InputSchema: desc.Function.Parameters,
		}
		mcp.AddTool(s.server, tool, s.buildHandler(desc.Name()))
	}
	mcp.AddTool(s.server, MetadataGetBundle, s.GetBundle)

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	observability.LoggerFromContext(ctx).Info().Int("tools", len(s.registry.Tools())+1).Msg("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) buildHandler(name string) func(context.Context, *mcp.CallToolRequest, map[string]interface{}) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]interface{}) (*mcp.CallToolResult, any, error) {
		out, err := s.Build(ctx, name, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	}
}

// Build dispatches one extraction tool call and exports the new record, if any.
func (s *Server) Build(ctx context.Context, name string, input map[string]interface{}) (OutputBuild, error) {
	args, err := json.Marshal(input)
	if err != nil {
		return OutputBuild{}, fmt.Errorf("encode arguments: %w", err)
	}

	outcome, err := s.registry.DispatchCall(ctx, entities.ToolCall{Name: name, Arguments: string(args)})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("tool", name).Msg("mcp tool call failed")
		return OutputBuild{}, err
	}

	out := OutputBuild{
		Status: outcome.Status,
		Kind:   outcome.Kind,
		Record: outcome.Record,
		Issues: outcome.Issues,
	}
	if outcome.Added() && s.exporter != nil {
		out.ExportIssues = s.exporter.Export(ctx, []*entities.ResourceRecord{outcome.Record})
	}
	return out, nil
}

// GetBundle implements the get_fhir_bundle tool.
func (s *Server) GetBundle(_ context.Context, _ *mcp.CallToolRequest, input InputGetBundle) (*mcp.CallToolResult, any, error) {
	bundle, err := s.resources.Bundle(input.Kind)
	if err != nil {
		return nil, nil, err
	}
	return nil, bundle, nil
}
