// Package mcp exposes the daemon's grouping and switching operations as
// MCP tools over stdio, backed by the IPC client.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabgroupd/tabgroupd/internal/ipc"
)

const (
	ServerName    = "tabgroupd"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for window grouping orchestration. Every tool
// call is forwarded to the running daemon over IPC, so the server holds
// no grouping state of its own.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server talking to the local daemon.
func NewServer() (*Server, error) {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List all manageable windows on screen with their titles, application IDs, and owning group (if any).",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_groups",
		Description: "List all tab groups with their member windows, pin states, and active tab.",
	}, s.handleListGroups)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_group",
		Description: "Group the given windows into a new tab group. Windows already in a group cannot be grouped again. Returns the new group.",
	}, s.handleCreateGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_window",
		Description: "Add an ungrouped window to an existing tab group as the last tab.",
	}, s.handleAddWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "release_window",
		Description: "Release a window from its tab group. Dissolves the group if it becomes empty.",
	}, s.handleReleaseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dissolve_group",
		Description: "Dissolve a tab group, releasing all of its windows.",
	}, s.handleDissolveGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rename_group",
		Description: "Set a tab group's display name.",
	}, s.handleRenameGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_pinned",
		Description: "Pin or unpin windows within their group. Pinned tabs stay at the front of the tab strip.",
	}, s.handleSetPinned)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Focus a window. If the window is grouped, it becomes its group's active tab.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switcher_items",
		Description: "Return the window switcher candidate list in most-recently-used order. Grouped windows appear as one entry per group.",
	}, s.handleSwitcherItems)
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if args.UngroupedOnly {
		filtered := windows[:0]
		for _, w := range windows {
			if w.GroupID == "" {
				filtered = append(filtered, w)
			}
		}
		windows = filtered
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleListGroups(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListGroupsInput) (*mcpsdk.CallToolResult, ListGroupsOutput, error) {
	groups, err := s.client.ListGroups()
	if err != nil {
		return nil, ListGroupsOutput{}, err
	}
	return nil, ListGroupsOutput{Groups: groups}, nil
}

func (s *Server) handleCreateGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateGroupInput) (*mcpsdk.CallToolResult, CreateGroupOutput, error) {
	info, err := s.client.CreateGroup(args.Windows, args.Name)
	if err != nil {
		return nil, CreateGroupOutput{}, err
	}
	return nil, CreateGroupOutput{Group: *info}, nil
}

func (s *Server) handleAddWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args AddWindowInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.AddWindow(args.GroupID, args.Window); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleReleaseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ReleaseWindowInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.ReleaseWindow(args.Window); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleDissolveGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args DissolveGroupInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.DissolveGroup(args.GroupID); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleRenameGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args RenameGroupInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.RenameGroup(args.GroupID, args.Name); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleSetPinned(_ context.Context, _ *mcpsdk.CallToolRequest, args SetPinnedInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.SetPinned(args.GroupID, args.Windows, args.Pinned); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.client.SwitchTo(args.Window); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleSwitcherItems(_ context.Context, _ *mcpsdk.CallToolRequest, _ SwitcherItemsInput) (*mcpsdk.CallToolResult, SwitcherItemsOutput, error) {
	items, err := s.client.SwitcherItems()
	if err != nil {
		return nil, SwitcherItemsOutput{}, err
	}
	return nil, SwitcherItemsOutput{Items: items}, nil
}
