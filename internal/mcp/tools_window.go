package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockshell/internal/domain"
	"blockshell/internal/window"
)

func (s *Server) registerWindowTools() {
	// ── open_window ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_window",
		mcp.WithDescription("Open a window of a registered kind. Re-opening a singleton brings it to the front."),
		mcp.WithString("windowKey", mcp.Description("Registered window kind"), mcp.Required()),
		mcp.WithString("instanceId", mcp.Description("Instance ID (optional, generated if omitted)")),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses registry default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses registry default)")),
	), s.handleOpenWindow)

	// ── close_window ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_window",
		mcp.WithDescription("Close a window instance"),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
	), s.handleCloseWindow)

	// ── focus_window ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("focus_window",
		mcp.WithDescription("Bring a window to the front"),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
	), s.handleFocusWindow)

	// ── move_window ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_window",
		mcp.WithDescription("Move a window. Moving undocks it."),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveWindow)

	// ── resize_window ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_window",
		mcp.WithDescription("Resize a window. Docked windows keep their dock geometry."),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeWindow)

	// ── dock_window ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("dock_window",
		mcp.WithDescription("Dock a window to a viewport edge, or undock it"),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
		mcp.WithString("side", mcp.Description("left, right, top, bottom, or none to undock"), mcp.Required()),
	), s.handleDockWindow)

	// ── minimize_window ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("minimize_window",
		mcp.WithDescription("Minimize or restore a window"),
		mcp.WithString("instanceId", mcp.Description("Instance ID"), mcp.Required()),
		mcp.WithBoolean("minimized", mcp.Description("true to minimize, false to restore (default true)")),
	), s.handleMinimizeWindow)

	// ── set_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_viewport",
		mcp.WithDescription("Change the viewport size; every window is re-clamped"),
		mcp.WithNumber("width", mcp.Description("Viewport width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Viewport height"), mcp.Required()),
	), s.handleSetViewport)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleOpenWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	opts := window.OpenOptions{InstanceID: req.GetString("instanceId", "")}
	_, hasX := args["x"].(float64)
	_, hasY := args["y"].(float64)
	if hasX || hasY {
		opts.Position = &domain.Point{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0)}
	}
	w, hasW := args["width"].(float64)
	h, hasH := args["height"].(float64)
	if hasW && hasH {
		opts.Size = &domain.Size{Width: w, Height: h}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.OpenWindow(ctx, req.GetString("windowKey", ""), opts)
	if err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleCloseWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("instanceId", "")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.shell.CloseWindow(ctx, id); err != nil {
		return nil, fmt.Errorf("close window: %w", err)
	}
	return textResult(fmt.Sprintf("Window %s closed", id)), nil
}

func (s *Server) handleFocusWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.FocusWindow(ctx, req.GetString("instanceId", ""))
	if err != nil {
		return nil, fmt.Errorf("focus window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleMoveWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.MoveWindow(ctx, req.GetString("instanceId", ""), getFloat(args, "x", 0), getFloat(args, "y", 0))
	if err != nil {
		return nil, fmt.Errorf("move window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleResizeWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.ResizeWindow(ctx, req.GetString("instanceId", ""), getFloat(args, "width", 0), getFloat(args, "height", 0))
	if err != nil {
		return nil, fmt.Errorf("resize window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleDockWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	side := req.GetString("side", "")
	if side == "none" {
		side = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.DockWindow(ctx, req.GetString("instanceId", ""), domain.DockSide(side))
	if err != nil {
		return nil, fmt.Errorf("dock window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleMinimizeWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.shell.MinimizeWindow(ctx, req.GetString("instanceId", ""), req.GetBool("minimized", true))
	if err != nil {
		return nil, fmt.Errorf("minimize window: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleSetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	vp := domain.Size{Width: getFloat(args, "width", 0), Height: getFloat(args, "height", 0)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.shell.SetViewport(ctx, vp); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	return jsonResult(vp)
}
