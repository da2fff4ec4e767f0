package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/tabgroupd/tabgroupd/internal/daemon"
	"github.com/tabgroupd/tabgroupd/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) sendPayload(cmd CommandType, payload interface{}) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.sendRequest(&Request{Command: cmd, Payload: data})
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListGroups retrieves all groups.
func (c *Client) ListGroups() ([]daemon.GroupInfo, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListGroups})
	if err != nil {
		return nil, err
	}

	var data GroupsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse groups data: %w", err)
	}
	return data.Groups, nil
}

// CreateGroup groups the given windows.
func (c *Client) CreateGroup(windows []uint32, name string) (*daemon.GroupInfo, error) {
	resp, err := c.sendPayload(CommandCreateGroup, CreateGroupPayload{Windows: windows, Name: name})
	if err != nil {
		return nil, err
	}

	var info daemon.GroupInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse group data: %w", err)
	}
	return &info, nil
}

// AddWindow adds a window to an existing group.
func (c *Client) AddWindow(groupID string, window uint32) error {
	_, err := c.sendPayload(CommandAddWindow, WindowTargetPayload{GroupID: groupID, Window: window})
	return err
}

// ReleaseWindow removes a window from its group.
func (c *Client) ReleaseWindow(window uint32) error {
	_, err := c.sendPayload(CommandReleaseWindow, WindowTargetPayload{Window: window})
	return err
}

// DissolveGroup ungroups all windows of a group.
func (c *Client) DissolveGroup(groupID string) error {
	_, err := c.sendPayload(CommandDissolveGroup, GroupTargetPayload{GroupID: groupID})
	return err
}

// RenameGroup sets a group's display name.
func (c *Client) RenameGroup(groupID, name string) error {
	_, err := c.sendPayload(CommandRenameGroup, GroupTargetPayload{GroupID: groupID, Name: name})
	return err
}

// SetPinned pins or unpins windows within their group.
func (c *Client) SetPinned(groupID string, windows []uint32, pinned bool) error {
	_, err := c.sendPayload(CommandSetPinned, SetPinnedPayload{GroupID: groupID, Windows: windows, Pinned: pinned})
	return err
}

// MoveTabs moves a block of tabs within a group.
func (c *Client) MoveTabs(groupID string, windows []uint32, toIndex int) error {
	_, err := c.sendPayload(CommandMoveTabs, MoveTabsPayload{GroupID: groupID, Windows: windows, ToIndex: toIndex})
	return err
}

// SwitchTo focuses a window through the daemon.
func (c *Client) SwitchTo(window uint32) error {
	_, err := c.sendPayload(CommandSwitchTo, WindowTargetPayload{Window: window})
	return err
}

// SwitcherItems retrieves the current switcher candidate list.
func (c *Client) SwitcherItems() ([]daemon.ItemInfo, error) {
	resp, err := c.sendRequest(&Request{Command: CommandSwitcherItems})
	if err != nil {
		return nil, err
	}

	var data ItemsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse items data: %w", err)
	}
	return data.Items, nil
}

// SaveSnapshot asks the daemon to persist a group's layout under name.
func (c *Client) SaveSnapshot(groupID, name string) error {
	_, err := c.sendPayload(CommandSnapshotSave, SnapshotSavePayload{GroupID: groupID, Name: name})
	return err
}

// ListWindows retrieves all manageable windows with group annotations.
func (c *Client) ListWindows() ([]daemon.DesktopWindow, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return data.Windows, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
