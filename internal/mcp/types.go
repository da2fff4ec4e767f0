package mcp

import "github.com/tabgroupd/tabgroupd/internal/daemon"

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	UngroupedOnly bool `json:"ungrouped_only,omitempty" jsonschema:"When true, only return windows that are not part of any group"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []daemon.DesktopWindow `json:"windows"`
}

// ListGroupsInput is the input for the list_groups tool.
type ListGroupsInput struct{}

// ListGroupsOutput is the output for the list_groups tool.
type ListGroupsOutput struct {
	Groups []daemon.GroupInfo `json:"groups"`
}

// CreateGroupInput is the input for the create_group tool.
type CreateGroupInput struct {
	Windows []uint32 `json:"windows" jsonschema:"required,Window IDs to group together, in tab order"`
	Name    string   `json:"name,omitempty" jsonschema:"Optional display name for the group"`
}

// CreateGroupOutput is the output for the create_group tool.
type CreateGroupOutput struct {
	Group daemon.GroupInfo `json:"group"`
}

// AddWindowInput is the input for the add_window tool.
type AddWindowInput struct {
	GroupID string `json:"group_id" jsonschema:"required,ID of the group to extend"`
	Window  uint32 `json:"window" jsonschema:"required,Window ID to add as the last tab"`
}

// ReleaseWindowInput is the input for the release_window tool.
type ReleaseWindowInput struct {
	Window uint32 `json:"window" jsonschema:"required,Window ID to release from its group"`
}

// DissolveGroupInput is the input for the dissolve_group tool.
type DissolveGroupInput struct {
	GroupID string `json:"group_id" jsonschema:"required,ID of the group to dissolve"`
}

// RenameGroupInput is the input for the rename_group tool.
type RenameGroupInput struct {
	GroupID string `json:"group_id" jsonschema:"required,ID of the group to rename"`
	Name    string `json:"name" jsonschema:"required,New display name"`
}

// SetPinnedInput is the input for the set_pinned tool.
type SetPinnedInput struct {
	GroupID string   `json:"group_id" jsonschema:"required,ID of the owning group"`
	Windows []uint32 `json:"windows" jsonschema:"required,Window IDs to pin or unpin"`
	Pinned  bool     `json:"pinned" jsonschema:"true to pin the windows, false to unpin"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Window uint32 `json:"window" jsonschema:"required,Window ID to focus"`
}

// SwitcherItemsInput is the input for the switcher_items tool.
type SwitcherItemsInput struct{}

// SwitcherItemsOutput is the output for the switcher_items tool.
type SwitcherItemsOutput struct {
	Items []daemon.ItemInfo `json:"items"`
}

// StatusOutput is a generic acknowledgement for mutation tools.
type StatusOutput struct {
	OK bool `json:"ok"`
}
