package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerOverlayTools() {
	// ── toggle_overlay ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_overlay",
		mcp.WithDescription("Open an overlay if closed, close it if open"),
		mcp.WithString("overlayId", mcp.Description("Overlay block ID"), mcp.Required()),
	), s.handleToggleOverlay)

	// ── open_overlay / close_overlay ───────────────────
	s.mcp.AddTool(mcp.NewTool("open_overlay",
		mcp.WithDescription("Open an overlay and bring it to the front"),
		mcp.WithString("overlayId", mcp.Description("Overlay block ID"), mcp.Required()),
	), s.handleOpenOverlay)
	s.mcp.AddTool(mcp.NewTool("close_overlay",
		mcp.WithDescription("Close an overlay"),
		mcp.WithString("overlayId", mcp.Description("Overlay block ID"), mcp.Required()),
	), s.handleCloseOverlay)

	// ── dismiss_top_overlay ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("dismiss_top_overlay",
		mcp.WithDescription("Close the front-most open overlay, if any"),
		mcp.WithString("reason", mcp.Description("Why the overlay is dismissed, e.g. escape (optional)")),
	), s.handleDismissTopOverlay)
}

func (s *Server) handleToggleOverlay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.shell.ToggleOverlay(ctx, req.GetString("overlayId", ""))
	if err != nil {
		return nil, fmt.Errorf("toggle overlay: %w", err)
	}
	return jsonResult(o)
}

func (s *Server) handleOpenOverlay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.shell.OpenOverlay(ctx, req.GetString("overlayId", ""))
	if err != nil {
		return nil, fmt.Errorf("open overlay: %w", err)
	}
	return jsonResult(o)
}

func (s *Server) handleCloseOverlay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.shell.CloseOverlay(ctx, req.GetString("overlayId", ""))
	if err != nil {
		return nil, fmt.Errorf("close overlay: %w", err)
	}
	return jsonResult(o)
}

func (s *Server) handleDismissTopOverlay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.shell.DismissTopOverlay(ctx, req.GetString("reason", "dismiss"))
	if !ok {
		return textResult("No overlay open"), nil
	}
	return textResult(fmt.Sprintf("Overlay %s dismissed", id)), nil
}
