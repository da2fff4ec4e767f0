package daemon

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tabgroupd/tabgroupd/internal/config"
	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
	"github.com/tabgroupd/tabgroupd/internal/recency"
	"github.com/tabgroupd/tabgroupd/internal/snapshot"
	"github.com/tabgroupd/tabgroupd/internal/switcher"
)

// GroupInfo is a read-only summary of one group for IPC and CLI output.
type GroupInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	ActiveIndex int          `json:"active_index"`
	PinnedCount int          `json:"pinned_count"`
	Windows     []WindowInfo `json:"windows"`
}

// WindowInfo is a read-only summary of one grouped window.
type WindowInfo struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	AppID     string `json:"app_id,omitempty"`
	PID       int    `json:"pid,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
	Separator bool   `json:"separator,omitempty"`
}

// ItemInfo is a read-only summary of one switcher candidate.
type ItemInfo struct {
	Kind    string   `json:"kind"` // "window" or "group"
	Title   string   `json:"title"`
	GroupID string   `json:"group_id,omitempty"`
	Windows []uint32 `json:"windows"`
	Active  uint32   `json:"active"`
}

/// Manager is the single-writer orchestrator: it owns the registry, the
// recency tracker, and the switcher session, and serializes every mutation
// behind one mutex. IPC handlers, hotkey callbacks, and X event callbacks
// all go through the Manager.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.Config
	backend  platform.Backend
	registry *group.Registry
	tracker  *recency.Tracker
	session  *switcher.Session

	startTime time.Time
}

// NewManager creates a manager and wires registry events into the recency
// tracker.
func NewManager(cfg *config.Config, backend platform.Backend) *Manager {
	m := &Manager{
		cfg:       cfg,
		backend:   backend,
		registry:  group.NewRegistry(),
		tracker:   recency.NewTracker(),
		startTime: time.Now(),
	}
	m.registry.OnEvent = m.handleRegistryEvent
	m.session = switcher.NewSession(m.commitSwitch, nil)
	return m
}

// handleRegistryEvent runs inside a registry mutation; the manager mutex
// is already held by the caller.
func (m *Manager) handleRegistryEvent(ev group.Event) {
	switch ev.Kind {
	case group.GroupDissolved:
		m.tracker.RemoveGroup(ev.Group)
		log.Printf("group %s dissolved (%d windows)", ev.Group, len(ev.Windows))
	case group.GroupCreated:
		m.tracker.RecordActivation(recency.GroupEntry(ev.Group))
		log.Printf("group %s created (%d windows)", ev.Group, len(ev.Windows))
	}
}

// commitSwitch is the switcher session's commit callback; the mutex is
// held by whichever navigation call triggered the commit.
func (m *Manager) commitSwitch(win *group.WindowRecord, subIndex int) {
	if win == nil {
		return
	}
	if err := m.backend.FocusWindow(win.ID); err != nil {
		log.Printf("failed to focus window %d: %v", win.ID, err)
	}
}

// HandleFocusChange records a focus event against the owning group and
// the global recency tracker. Called from the X event loop.
func (m *Manager) HandleFocusChange(id platform.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g := m.registry.GroupFor(id); g != nil {
		g.RecordFocus(id)
		g.SwitchToWindow(id)
		m.tracker.RecordActivation(recency.GroupWindowEntry(g.ID(), id))
		return
	}
	m.tracker.RecordActivation(recency.WindowEntry(id))
}

// HandleWindowClosed drops a closed window from its group (dissolving the
// group if emptied) and purges it from the recency tracker.
func (m *Manager) HandleWindowClosed(id platform.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeWindowLocked(id)
}

func (m *Manager) removeWindowLocked(id platform.WindowID) {
	m.registry.ReleaseWindow(id)
	m.tracker.RemoveWindow(id)
}

// SightWindow registers a window in the recency tail without bumping
// anything. Used when enumerating windows that have never been focused.
func (m *Manager) SightWindow(id platform.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry.IsWindowGrouped(id) {
		return
	}
	m.tracker.AppendIfMissing(recency.WindowEntry(id))
}

// CreateGroup groups the given windows, using the first window's current
// bounds as the group frame.
func (m *Manager) CreateGroup(ids []platform.WindowID, name string) (*GroupInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, err := m.liveWindows()
	if err != nil {
		return nil, err
	}

	records := make([]*group.WindowRecord, 0, len(ids))
	var frame platform.Rect
	for i, id := range ids {
		w, ok := live[id]
		if !ok {
			return nil, fmt.Errorf("window %d not found", id)
		}
		if i == 0 {
			frame = w.Bounds
		}
		records = append(records, group.FromPlatform(w))
	}

	g := m.registry.CreateGroup(records, frame)
	if g == nil {
		return nil, fmt.Errorf("cannot create group: empty, duplicate, or already-grouped windows")
	}
	if name != "" {
		g.SetName(name)
	}
	info := groupInfo(g)
	return &info, nil
}

// AddWindow adds a live window to an existing group.
func (m *Manager) AddWindow(groupID string, id platform.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, err := m.liveWindows()
	if err != nil {
		return err
	}
	w, ok := live[id]
	if !ok {
		return fmt.Errorf("window %d not found", id)
	}
	if !m.registry.AddWindow(group.ID(groupID), group.FromPlatform(w)) {
		return fmt.Errorf("cannot add window %d: unknown group or window already grouped", id)
	}
	return nil
}

// ReleaseWindow removes a window from whichever group owns it.
func (m *Manager) ReleaseWindow(id platform.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry.ReleaseWindow(id) == nil {
		return fmt.Errorf("window %d is not grouped", id)
	}
	return nil
}

// DissolveGroup ungroups every window of a group.
func (m *Manager) DissolveGroup(groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry.DissolveGroup(group.ID(groupID)) == nil {
		return fmt.Errorf("group %s not found", groupID)
	}
	return nil
}

// RenameGroup sets a group's display name.
func (m *Manager) RenameGroup(groupID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.registry.Group(group.ID(groupID))
	if g == nil {
		return fmt.Errorf("group %s not found", groupID)
	}
	g.SetName(name)
	return nil
}

// SetPinned pins or unpins windows within their group.
func (m *Manager) SetPinned(groupID string, ids []platform.WindowID, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.registry.Group(group.ID(groupID))
	if g == nil {
		return fmt.Errorf("group %s not found", groupID)
	}
	g.SetPinned(pinned, idSet(ids))
	return nil
}

// MoveTabs moves a block of tabs within their group.
func (m *Manager) MoveTabs(groupID string, ids []platform.WindowID, toIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.registry.Group(group.ID(groupID))
	if g == nil {
		return fmt.Errorf("group %s not found", groupID)
	}
	if !g.MoveTabs(idSet(ids), toIndex) {
		return fmt.Errorf("no listed window found in group %s", groupID)
	}
	return nil
}

// SwitchTo focuses a window, updating its group's active tab when grouped.
func (m *Manager) SwitchTo(id platform.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g := m.registry.GroupFor(id); g != nil {
		g.SwitchToWindow(id)
	}
	return m.backend.FocusWindow(id)
}

// Groups returns summaries of all groups in registration order.
func (m *Manager) Groups() []GroupInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := m.registry.Groups()
	out := make([]GroupInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupInfo(g))
	}
	return out
}

// DesktopWindow is a read-only summary of one on-screen window, grouped
// or not.
type DesktopWindow struct {
	ID      uint32 `json:"id"`
	Title   string `json:"title"`
	AppID   string `json:"app_id,omitempty"`
	AppName string `json:"app_name,omitempty"`
	PID     int    `json:"pid,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

// ListWindows enumerates all manageable windows, annotated with the
// group that owns each one.
func (m *Manager) ListWindows() ([]DesktopWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	windows, err := m.backend.ListWindows()
	if err != nil {
		return nil, err
	}
	out := make([]DesktopWindow, 0, len(windows))
	for _, w := range windows {
		dw := DesktopWindow{
			ID:      uint32(w.ID),
			Title:   w.Title,
			AppID:   w.AppID,
			AppName: w.AppName,
			PID:     w.PID,
		}
		if g := m.registry.GroupFor(w.ID); g != nil {
			dw.GroupID = string(g.ID())
		}
		out = append(out, dw)
	}
	return out, nil
}

// SwitcherItems assembles the current candidate list without opening a
// session. Used by IPC and MCP consumers.
func (m *Manager) SwitcherItems() ([]ItemInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, err := m.buildItemsLocked()
	if err != nil {
		return nil, err
	}
	out := make([]ItemInfo, 0, len(items))
	for _, it := range items {
		out = append(out, itemInfo(it))
	}
	return out, nil
}

// OpenSwitcher builds the candidate list and starts a switcher session
// with the selection already advanced one step. Returns false when fewer
// than one candidate exists.
func (m *Manager) OpenSwitcher() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.buildItemsLocked()
	if err != nil {
		log.Printf("failed to build switcher items: %v", err)
		return false
	}
	style := switcher.StyleOverlay
	if m.cfg.Switcher.Style == "list" {
		style = switcher.StyleList
	}
	if !m.session.Start(items, style, switcher.ScopeGlobal) {
		return false
	}
	m.session.Advance()
	return true
}

// AdvanceSwitcher moves the open session forward, opening it on demand.
func (m *Manager) AdvanceSwitcher() {
	m.mu.Lock()
	if m.session.Active() {
		m.session.Advance()
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.OpenSwitcher()
}

// RetreatSwitcher moves the open session backward.
func (m *Manager) RetreatSwitcher() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Retreat()
}

// CycleSwitcherGroup steps through the selected group item's members.
func (m *Manager) CycleSwitcherGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.CycleWithinGroup()
}

// CommitSwitcher resolves the open session and focuses the selection.
func (m *Manager) CommitSwitcher() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Commit()
}

// DismissSwitcher cancels the open session.
func (m *Manager) DismissSwitcher() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Dismiss()
}

// SwitcherActive reports whether a switcher session is open.
func (m *Manager) SwitcherActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Active()
}

// CycleFocusedGroup advances the focused window's group through its MRU
// cycle and focuses the next window. No-op when the focused window is
// ungrouped or the group has fewer than two cyclable windows.
func (m *Manager) CycleFocusedGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	focused, err := m.backend.ActiveWindow()
	if err != nil {
		return
	}
	g := m.registry.GroupFor(focused)
	if g == nil {
		return
	}
	idx, ok := g.NextInMRUCycle()
	if !ok {
		return
	}
	w := g.Window(idx)
	g.SwitchTo(idx)
	if err := m.backend.FocusWindow(w.ID); err != nil {
		log.Printf("failed to focus window %d: %v", w.ID, err)
	}
}

// EndFocusedGroupCycle commits an in-progress group cycle, promoting the
// landing window in the group's focus history.
func (m *Manager) EndFocusedGroupCycle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	focused, err := m.backend.ActiveWindow()
	if err != nil {
		focused = 0
	}
	for _, g := range m.registry.Groups() {
		if !g.Cycling() {
			continue
		}
		if g.Contains(focused) {
			g.EndCycle(focused)
		} else {
			g.EndCycle(0)
		}
	}
}

// PrevTabInFocusedGroup switches the focused window's group to the tab
// before the active one, wrapping.
func (m *Manager) PrevTabInFocusedGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	focused, err := m.backend.ActiveWindow()
	if err != nil {
		return
	}
	g := m.registry.GroupFor(focused)
	if g == nil || g.Count() < 2 {
		return
	}
	idx := (g.ActiveIndex() - 1 + g.Count()) % g.Count()
	g.SwitchTo(idx)
	if err := m.backend.FocusWindow(g.Window(idx).ID); err != nil {
		log.Printf("failed to focus window %d: %v", g.Window(idx).ID, err)
	}
}

// SaveSnapshot captures the given group's current layout and writes it
// to disk under the given snapshot name.
func (m *Manager) SaveSnapshot(groupID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.registry.Group(group.ID(groupID))
	if g == nil {
		return fmt.Errorf("group %s not found", groupID)
	}
	display := ""
	if d, err := m.backend.ActiveDisplay(); err == nil {
		display = d.Name
	}
	return snapshot.Write(snapshot.Capture(name, g, display))
}

// Reload swaps in a new configuration.
func (m *Manager) Reload(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	log.Println("configuration reloaded")
}

// Config returns the current configuration.
func (m *Manager) Config() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Stats returns daemon counters for status reporting.
func (m *Manager) Stats() (groups, windows int, uptime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.registry.Groups() {
		windows += g.Count()
	}
	return m.registry.Count(), windows, time.Since(m.startTime)
}

// Registry exposes the group registry for persistence consumers. Callers
// must not retain references across event-loop turns.
func (m *Manager) Registry() *group.Registry {
	return m.registry
}

// Reconcile drops records for windows that no longer exist. liveIDs is
// the current full window set.
func (m *Manager) Reconcile(liveIDs map[platform.WindowID]struct{}) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dead []platform.WindowID
	for _, g := range m.registry.Groups() {
		for _, id := range g.WindowIDs() {
			if group.IsSeparatorID(id) {
				continue
			}
			if _, live := liveIDs[id]; !live {
				dead = append(dead, id)
			}
		}
	}
	for _, e := range m.tracker.Entries() {
		if e.Kind == recency.EntryGroup {
			continue
		}
		if _, live := liveIDs[e.Window]; !live && !group.IsSeparatorID(e.Window) {
			dead = append(dead, e.Window)
		}
	}
	removed := 0
	seen := make(map[platform.WindowID]struct{})
	for _, id := range dead {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		m.removeWindowLocked(id)
		removed++
	}
	return removed
}

func (m *Manager) buildItemsLocked() ([]recency.Item, error) {
	stack, err := m.stackedWindows()
	if err != nil {
		return nil, err
	}
	split := recency.SplitOptions{
		ByPinned:    m.cfg.Switcher.SplitByPinned,
		BySeparator: m.cfg.Switcher.SplitBySeparator,
	}
	return m.tracker.BuildSwitcherItems(m.registry.Groups(), stack, split), nil
}

// stackedWindows returns live windows in front-to-back stacking order.
func (m *Manager) stackedWindows() ([]platform.Window, error) {
	live, err := m.liveWindows()
	if err != nil {
		return nil, err
	}
	order, err := m.backend.StackingOrder()
	if err != nil {
		return nil, err
	}
	out := make([]platform.Window, 0, len(order))
	for _, id := range order {
		if w, ok := live[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *Manager) liveWindows() (map[platform.WindowID]platform.Window, error) {
	windows, err := m.backend.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	out := make(map[platform.WindowID]platform.Window, len(windows))
	for _, w := range windows {
		out[w.ID] = w
	}
	return out, nil
}

func idSet(ids []platform.WindowID) map[platform.WindowID]struct{} {
	out := make(map[platform.WindowID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func groupInfo(g *group.TabGroup) GroupInfo {
	windows := g.Windows()
	infos := make([]WindowInfo, len(windows))
	for i, w := range windows {
		infos[i] = WindowInfo{
			ID:        uint32(w.ID),
			Title:     w.DisplayTitle(),
			AppID:     w.AppID,
			PID:       w.PID,
			Pinned:    w.IsPinned(),
			Separator: w.Separator,
		}
	}
	return GroupInfo{
		ID:          string(g.ID()),
		Name:        g.Name(),
		ActiveIndex: g.ActiveIndex(),
		PinnedCount: g.PinnedCount(),
		Windows:     infos,
	}
}

func itemInfo(it recency.Item) ItemInfo {
	info := ItemInfo{Title: it.Title}
	switch it.Kind {
	case recency.ItemWindow:
		info.Kind = "window"
		info.Windows = []uint32{uint32(it.Window.ID)}
		info.Active = uint32(it.Window.ID)
	case recency.ItemGroup:
		info.Kind = "group"
		info.GroupID = string(it.Group)
		for _, w := range it.Members {
			info.Windows = append(info.Windows, uint32(w.ID))
		}
		if it.ActiveWindow != nil {
			info.Active = uint32(it.ActiveWindow.ID)
		}
	}
	return info
}
