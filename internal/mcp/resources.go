package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const planURI = "blockshell://plan"

func (s *Server) registerResources() {
	// ── blockshell://plan ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		planURI,
		"Render Plan",
		mcp.WithResourceDescription("Entry route, regions, actions, windows and overlays of the live session"),
		mcp.WithMIMEType("application/json"),
	), s.handlePlanResource)
}

func (s *Server) handlePlanResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.Lock()
	plan := s.shell.Plan()
	s.mu.Unlock()

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      planURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
