package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/tabgroupd/tabgroupd/internal/daemon"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListGroups    CommandType = "LIST_GROUPS"
	CommandCreateGroup   CommandType = "CREATE_GROUP"
	CommandAddWindow     CommandType = "ADD_WINDOW"
	CommandReleaseWindow CommandType = "RELEASE_WINDOW"
	CommandDissolveGroup CommandType = "DISSOLVE_GROUP"
	CommandRenameGroup   CommandType = "RENAME_GROUP"
	CommandSetPinned     CommandType = "SET_PINNED"
	CommandMoveTabs      CommandType = "MOVE_TABS"
	CommandSwitchTo      CommandType = "SWITCH_TO"
	CommandSwitcherItems CommandType = "SWITCHER_ITEMS"
	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandSnapshotSave  CommandType = "SNAPSHOT_SAVE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	GroupCount    int   `json:"group_count"`
	WindowCount   int   `json:"window_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// GroupsData represents the data returned by LIST_GROUPS
type GroupsData struct {
	Groups []daemon.GroupInfo `json:"groups"`
}

// ItemsData represents the data returned by SWITCHER_ITEMS
type ItemsData struct {
	Items []daemon.ItemInfo `json:"items"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []daemon.DesktopWindow `json:"windows"`
}

// CreateGroupPayload represents the payload for CREATE_GROUP
type CreateGroupPayload struct {
	Windows []uint32 `json:"windows"`
	Name    string   `json:"name,omitempty"`
}

// WindowTargetPayload addresses one window, optionally within a group.
type WindowTargetPayload struct {
	GroupID string `json:"group_id,omitempty"`
	Window  uint32 `json:"window"`
}

// GroupTargetPayload addresses one group.
type GroupTargetPayload struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name,omitempty"`
}

// SetPinnedPayload represents the payload for SET_PINNED
type SetPinnedPayload struct {
	GroupID string   `json:"group_id"`
	Windows []uint32 `json:"windows"`
	Pinned  bool     `json:"pinned"`
}

// MoveTabsPayload represents the payload for MOVE_TABS
type MoveTabsPayload struct {
	GroupID string   `json:"group_id"`
	Windows []uint32 `json:"windows"`
	ToIndex int      `json:"to_index"`
}

// SnapshotSavePayload represents the payload for SNAPSHOT_SAVE
type SnapshotSavePayload struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
