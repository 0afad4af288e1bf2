package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockshell/internal/domain"
	"blockshell/internal/policy"
)

func (s *Server) registerBindingTools() {
	// ── get_plan ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_plan",
		mcp.WithDescription("Return the render plan: entry route, regions, action catalog, windows and overlays"),
	), s.handleGetPlan)

	// ── dispatch_action ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("dispatch_action",
		mcp.WithDescription("Dispatch a named action from a source block and run the matching triggered bindings"),
		mcp.WithString("sourceBlockId", mcp.Description("Block raising the action"), mcp.Required()),
		mcp.WithString("actionName", mcp.Description("Action name the bindings are triggered by"), mcp.Required()),
		mcp.WithString("payload", mcp.Description("Action payload as JSON (optional)")),
		mcp.WithString("permissions", mcp.Description("Comma-separated caller permissions (optional, defaults to the server identity)")),
		mcp.WithString("roles", mcp.Description("Comma-separated caller roles (optional, defaults to the server identity)")),
	), s.handleDispatchAction)

	// ── dispatch_catalog_action ────────────────────────
	s.mcp.AddTool(mcp.NewTool("dispatch_catalog_action",
		mcp.WithDescription("Dispatch an action from the catalog by id (blockId:interactionKey). The action's access policy is checked first."),
		mcp.WithString("actionId", mcp.Description("Catalog action id"), mcp.Required()),
		mcp.WithString("payload", mcp.Description("Payload override as JSON (optional)")),
	), s.handleDispatchCatalogAction)

	// ── apply_derived_tick ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("apply_derived_tick",
		mcp.WithDescription("Run every enabled derived binding once"),
	), s.handleApplyDerivedTick)

	// ── get_block_state ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block_state",
		mcp.WithDescription("Return the runtime state of one block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleGetBlockState)

	// ── list_workspace_sessions ────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_workspace_sessions",
		mcp.WithDescription("List stored workspace sessions, most recently seen first"),
	), s.handleListWorkspaceSessions)

	// ── reload_bundle ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reload_bundle",
		mcp.WithDescription("Re-read the bundle source, keeping block state and open windows that still apply"),
	), s.handleReloadBundle)
}

// callerFrom returns the caller named by the arguments, or the server's
// identity when none is given.
func (s *Server) callerFrom(args map[string]any) policy.Caller {
	perms, hasPerms := args["permissions"].(string)
	roles, hasRoles := args["roles"].(string)
	if !hasPerms && !hasRoles {
		return s.caller
	}
	return policy.Caller{Permissions: splitList(perms), Roles: splitList(roles)}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return jsonResult(s.shell.Plan())
}

func (s *Server) handleDispatchAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	payload, err := optionalJSON(args, "payload")
	if err != nil {
		return nil, err
	}
	caller := s.callerFrom(args)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.shell.DispatchAction(ctx, domain.DispatchRequest{
		SourceBlockID: req.GetString("sourceBlockId", ""),
		ActionName:    req.GetString("actionName", ""),
		Payload:       payload,
		Permissions:   caller.Permissions,
		Roles:         caller.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch action: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleDispatchCatalogAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	payload, err := optionalJSON(args, "payload")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.shell.DispatchCatalogAction(ctx, req.GetString("actionId", ""), s.caller, payload)
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleApplyDerivedTick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.shell.ApplyDerivedTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("derived tick: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleGetBlockState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.shell.BlockState(id)
	if !ok {
		return nil, fmt.Errorf("block %s has no state", id)
	}
	return jsonResult(st)
}

func (s *Server) handleListWorkspaceSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.shell.ListWorkspaceSessions(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(list)
}

func (s *Server) handleReloadBundle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, err := s.shell.ReloadBundle(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(sum)
}
