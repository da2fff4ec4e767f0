package group

import (
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// ID uniquely identifies a tab group for the lifetime of the process.
type ID string

// TabGroup owns an ordered collection of WindowRecords for one group.
//
// Invariants maintained after every mutation:
//   - pinned windows occupy a contiguous prefix, in relative order
//   - activeIndex is valid whenever the group is non-empty
//   - focusHistory holds exactly the non-separator window IDs, no duplicates
//   - window IDs are unique within the group
//
// TabGroup is a single-writer structure: the orchestration layer serializes
// all mutating calls.
type TabGroup struct {
	id          ID
	name        string
	windows     []*WindowRecord
	activeIndex int

	// focusHistory holds non-separator window IDs, most recently
	// focused first.
	focusHistory []platform.WindowID

	// Geometry is owned by the window system; the group mirrors it for
	// bookkeeping and serialization only.
	frame              platform.Rect
	tabBarSqueezeDelta int

	// MRU cycle session state. The snapshot is frozen at cycle start so
	// concurrent focus updates do not perturb an in-progress cycle.
	cycling       bool
	cycleSnapshot []platform.WindowID
	cycleCursor   int
	cycleLast     platform.WindowID
}

// NewTabGroup creates a group from one or more initial windows.
// Returns nil if the window list is empty or contains duplicate IDs.
func NewTabGroup(id ID, windows []*WindowRecord, frame platform.Rect) *TabGroup {
	if len(windows) == 0 {
		return nil
	}
	seen := make(map[platform.WindowID]struct{}, len(windows))
	for _, w := range windows {
		if w == nil {
			return nil
		}
		if _, dup := seen[w.ID]; dup {
			return nil
		}
		seen[w.ID] = struct{}{}
	}

	g := &TabGroup{
		id:      id,
		windows: append([]*WindowRecord(nil), windows...),
		frame:   frame,
	}
	g.restorePinnedPrefix()
	for _, w := range g.windows {
		if !w.Separator {
			g.focusHistory = append(g.focusHistory, w.ID)
		}
	}
	return g
}

// ID returns the group identifier.
func (g *TabGroup) ID() ID { return g.id }

// Name returns the user-set display name, if any.
func (g *TabGroup) Name() string { return g.name }

// SetName sets the group display name.
func (g *TabGroup) SetName(name string) { g.name = name }

// Count returns the number of windows (separators included).
func (g *TabGroup) Count() int { return len(g.windows) }

// Windows returns a copy of the window sequence in tab order.
func (g *TabGroup) Windows() []*WindowRecord {
	return append([]*WindowRecord(nil), g.windows...)
}

// Window returns the record at index, or nil if out of range.
func (g *TabGroup) Window(index int) *WindowRecord {
	if index < 0 || index >= len(g.windows) {
		return nil
	}
	return g.windows[index]
}

// ActiveIndex returns the index of the currently displayed tab.
func (g *TabGroup) ActiveIndex() int { return g.activeIndex }

// ActiveWindow returns the currently displayed window, or nil when empty.
func (g *TabGroup) ActiveWindow() *WindowRecord {
	return g.Window(g.activeIndex)
}

// Frame returns the mirrored on-screen frame.
func (g *TabGroup) Frame() platform.Rect { return g.frame }

// SetFrame updates the mirrored on-screen frame.
func (g *TabGroup) SetFrame(frame platform.Rect) { g.frame = frame }

// TabBarSqueezeDelta returns the mirrored tab-bar squeeze offset.
func (g *TabGroup) TabBarSqueezeDelta() int { return g.tabBarSqueezeDelta }

// SetTabBarSqueezeDelta updates the mirrored tab-bar squeeze offset.
func (g *TabGroup) SetTabBarSqueezeDelta(delta int) { g.tabBarSqueezeDelta = delta }

// PinnedCount returns the length of the pinned prefix.
func (g *TabGroup) PinnedCount() int {
	n := 0
	for _, w := range g.windows {
		if !w.IsPinned() {
			break
		}
		n++
	}
	return n
}

// IndexOf returns the index of the window with the given ID, or -1.
func (g *TabGroup) IndexOf(id platform.WindowID) int {
	for i, w := range g.windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether the group holds the given window ID.
func (g *TabGroup) Contains(id platform.WindowID) bool {
	return g.IndexOf(id) >= 0
}

// WindowIDs returns the window IDs in tab order.
func (g *TabGroup) WindowIDs() []platform.WindowID {
	ids := make([]platform.WindowID, len(g.windows))
	for i, w := range g.windows {
		ids[i] = w.ID
	}
	return ids
}

// FocusHistory returns a copy of the focus history, most recent first.
func (g *TabGroup) FocusHistory() []platform.WindowID {
	return append([]platform.WindowID(nil), g.focusHistory...)
}

// FullscreenedWindowIDs returns the IDs of fullscreened member windows.
func (g *TabGroup) FullscreenedWindowIDs() map[platform.WindowID]struct{} {
	out := make(map[platform.WindowID]struct{})
	for _, w := range g.windows {
		if w.Fullscreened {
			out[w.ID] = struct{}{}
		}
	}
	return out
}

// VisibleWindows returns all windows excluding fullscreened ones, in tab
// order. Geometry-sync consumers operate on this view.
func (g *TabGroup) VisibleWindows() []*WindowRecord {
	out := make([]*WindowRecord, 0, len(g.windows))
	for _, w := range g.windows {
		if !w.Fullscreened {
			out = append(out, w)
		}
	}
	return out
}

// AddWindow appends a window to the unpinned segment and registers it in
// the focus history. Returns false (no mutation) if the ID is already
// present.
func (g *TabGroup) AddWindow(w *WindowRecord) bool {
	if w == nil || g.Contains(w.ID) {
		return false
	}
	g.windows = append(g.windows, w)
	g.restorePinnedPrefix()
	if !w.Separator {
		g.focusHistory = append(g.focusHistory, w.ID)
	}
	return true
}

// RemoveWindowAt removes the window at index and returns it, or nil if the
// index is out of range. If the removed window was active, the tab
// immediately before it becomes active.
func (g *TabGroup) RemoveWindowAt(index int) *WindowRecord {
	if index < 0 || index >= len(g.windows) {
		return nil
	}
	removed := g.windows[index]
	g.windows = append(g.windows[:index], g.windows[index+1:]...)
	g.dropFromFocusHistory(removed.ID)

	if len(g.windows) == 0 {
		g.activeIndex = 0
		return removed
	}
	switch {
	case index == g.activeIndex:
		g.activeIndex = index - 1
	case index < g.activeIndex:
		g.activeIndex--
	}
	g.clampActive()
	return removed
}

// RemoveWindow removes the window with the given ID and returns it, or nil
// if the ID is not present.
func (g *TabGroup) RemoveWindow(id platform.WindowID) *WindowRecord {
	return g.RemoveWindowAt(g.IndexOf(id))
}

// RemoveWindows removes every window whose ID is in the set and returns the
// removed records in their original relative order. Target positions are
// computed against the original sequence so removals cannot shift under
// each other.
func (g *TabGroup) RemoveWindows(ids map[platform.WindowID]struct{}) []*WindowRecord {
	if len(ids) == 0 {
		return nil
	}

	var removed []*WindowRecord
	survivors := g.windows[:0:0]
	activeID := g.activeWindowID()

	// survivorsBeforeActive counts survivors whose original position was
	// before the active tab, so a removed active can fall back to the
	// nearest surviving tab on its left.
	survivorsBeforeActive := 0
	for i, w := range g.windows {
		if _, hit := ids[w.ID]; hit {
			removed = append(removed, w)
			g.dropFromFocusHistory(w.ID)
			continue
		}
		if i < g.activeIndex {
			survivorsBeforeActive++
		}
		survivors = append(survivors, w)
	}
	if len(removed) == 0 {
		return nil
	}
	g.windows = survivors

	if len(g.windows) == 0 {
		g.activeIndex = 0
		return removed
	}

	// Re-resolve the active tab by identity; if the active window was
	// removed, fall back to the nearest surviving tab before its
	// original position.
	if idx := g.IndexOf(activeID); idx >= 0 {
		g.activeIndex = idx
	} else if survivorsBeforeActive > 0 {
		g.activeIndex = survivorsBeforeActive - 1
	} else {
		g.activeIndex = 0
	}
	g.clampActive()
	return removed
}

// SwitchTo sets the active tab by index. Silent no-op when out of range.
func (g *TabGroup) SwitchTo(index int) bool {
	if index < 0 || index >= len(g.windows) {
		return false
	}
	g.activeIndex = index
	return true
}

// SwitchToWindow sets the active tab by window ID. Silent no-op when the
// ID is not present.
func (g *TabGroup) SwitchToWindow(id platform.WindowID) bool {
	return g.SwitchTo(g.IndexOf(id))
}

// MoveTab moves the window at from to position to, preserving the pinned
// prefix and re-resolving the active tab by identity.
func (g *TabGroup) MoveTab(from, to int) bool {
	if from < 0 || from >= len(g.windows) {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to >= len(g.windows) {
		to = len(g.windows) - 1
	}
	if from == to {
		return true
	}
	activeID := g.activeWindowID()

	w := g.windows[from]
	rest := append(g.windows[:from:from], g.windows[from+1:]...)
	g.windows = append(rest[:to:to], append([]*WindowRecord{w}, rest[to:]...)...)

	g.reresolveActive(activeID)
	g.restorePinnedPrefix()
	return true
}

// MoveTabs moves the windows with the given IDs, as one block preserving
// their relative order, so the block starts at toIndex. toIndex is clamped
// into the sequence remaining after the block is removed.
func (g *TabGroup) MoveTabs(ids map[platform.WindowID]struct{}, toIndex int) bool {
	if len(ids) == 0 {
		return false
	}
	var block []*WindowRecord
	rest := g.windows[:0:0]
	for _, w := range g.windows {
		if _, hit := ids[w.ID]; hit {
			block = append(block, w)
		} else {
			rest = append(rest, w)
		}
	}
	if len(block) == 0 {
		return false
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(rest) {
		toIndex = len(rest)
	}
	activeID := g.activeWindowID()

	g.windows = append(rest[:toIndex:toIndex], append(block, rest[toIndex:]...)...)

	g.reresolveActive(activeID)
	g.restorePinnedPrefix()
	return true
}

// PinWindow pins the window with the given ID and moves it into the pinned
// prefix. pinnedIndex is the desired position within the prefix; pass a
// negative value to append at the end of the prefix.
func (g *TabGroup) PinWindow(id platform.WindowID, pinnedIndex int) bool {
	idx := g.IndexOf(id)
	if idx < 0 {
		return false
	}
	activeID := g.activeWindowID()

	w := g.windows[idx]
	if w.PinState == PinNone {
		w.PinState = Pinned
	}
	g.windows = append(g.windows[:idx], g.windows[idx+1:]...)

	pinned := g.PinnedCount()
	if pinnedIndex < 0 || pinnedIndex > pinned {
		pinnedIndex = pinned
	}
	g.windows = append(g.windows[:pinnedIndex:pinnedIndex],
		append([]*WindowRecord{w}, g.windows[pinnedIndex:]...)...)

	g.reresolveActive(activeID)
	g.restorePinnedPrefix()
	return true
}

// UnpinWindow unpins the window with the given ID and moves it to the head
// of the unpinned segment.
func (g *TabGroup) UnpinWindow(id platform.WindowID) bool {
	idx := g.IndexOf(id)
	if idx < 0 {
		return false
	}
	w := g.windows[idx]
	if w.PinState == PinNone {
		return true
	}
	activeID := g.activeWindowID()

	w.PinState = PinNone
	g.windows = append(g.windows[:idx], g.windows[idx+1:]...)
	pinned := g.PinnedCount()
	g.windows = append(g.windows[:pinned:pinned],
		append([]*WindowRecord{w}, g.windows[pinned:]...)...)

	g.reresolveActive(activeID)
	g.restorePinnedPrefix()
	return true
}

// MovePinnedTab reorders within the pinned prefix. Indices are relative to
// the prefix.
func (g *TabGroup) MovePinnedTab(from, to int) bool {
	pinned := g.PinnedCount()
	if from < 0 || from >= pinned || to < 0 || to >= pinned {
		return false
	}
	return g.MoveTab(from, to)
}

// MoveUnpinnedTab reorders within the unpinned segment. Indices are
// relative to the segment.
func (g *TabGroup) MoveUnpinnedTab(from, to int) bool {
	pinned := g.PinnedCount()
	n := len(g.windows) - pinned
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	return g.MoveTab(pinned+from, pinned+to)
}

// SetPinned applies a pin state change to every window in the set and
// re-establishes the pinned prefix, preserving the active window identity
// across the reshuffle.
func (g *TabGroup) SetPinned(pinned bool, ids map[platform.WindowID]struct{}) {
	changed := false
	for _, w := range g.windows {
		if _, hit := ids[w.ID]; !hit {
			continue
		}
		if pinned && w.PinState == PinNone {
			w.PinState = Pinned
			changed = true
		} else if !pinned && w.PinState != PinNone {
			w.PinState = PinNone
			changed = true
		}
	}
	if changed {
		g.restorePinnedPrefix()
	}
}

// RecordFocus promotes a window to the front of the focus history.
// Separators and unknown IDs are ignored.
func (g *TabGroup) RecordFocus(id platform.WindowID) {
	idx := g.IndexOf(id)
	if idx < 0 || g.windows[idx].Separator {
		return
	}
	g.dropFromFocusHistory(id)
	g.focusHistory = append([]platform.WindowID{id}, g.focusHistory...)
}

// NextInMRUCycle advances an MRU cycle session and returns the index (in
// tab order) of the window to show next.
//
// The first call while idle snapshots the focus history (excluding
// fullscreened windows), enters the cycling state, and returns the window
// one past the most recent entry. Subsequent calls advance the cursor
// modulo the snapshot length, skipping windows that have since been
// removed. Focus updates made mid-cycle do not alter the frozen snapshot.
//
// Returns (0, false) without entering the cycling state when fewer than
// two cyclable windows exist.
func (g *TabGroup) NextInMRUCycle() (int, bool) {
	if !g.cycling {
		snapshot := g.cyclableHistory()
		if len(snapshot) < 2 {
			return 0, false
		}
		g.cycling = true
		g.cycleSnapshot = snapshot
		g.cycleCursor = 1
	} else {
		if len(g.cycleSnapshot) == 0 {
			return 0, false
		}
		g.cycleCursor = (g.cycleCursor + 1) % len(g.cycleSnapshot)
	}

	// Skip snapshot entries whose window was removed mid-cycle.
	for tries := 0; tries < len(g.cycleSnapshot); tries++ {
		id := g.cycleSnapshot[g.cycleCursor]
		if idx := g.IndexOf(id); idx >= 0 {
			g.cycleLast = id
			return idx, true
		}
		g.cycleCursor = (g.cycleCursor + 1) % len(g.cycleSnapshot)
	}
	return 0, false
}

// EndCycle exits an MRU cycle session and commits the landing window to the
// focus history. Pass the window the cycle landed on, or 0 to promote the
// window returned by the last NextInMRUCycle call. Idempotent no-op when no
// cycle is open.
func (g *TabGroup) EndCycle(landed platform.WindowID) {
	if !g.cycling {
		return
	}
	if landed == 0 {
		landed = g.cycleLast
	}
	g.cycling = false
	g.cycleSnapshot = nil
	g.cycleCursor = 0
	g.cycleLast = 0
	if landed != 0 {
		g.RecordFocus(landed)
	}
}

// Cycling reports whether an MRU cycle session is open.
func (g *TabGroup) Cycling() bool { return g.cycling }

// cyclableHistory returns the focus history restricted to windows that are
// present and not fullscreened.
func (g *TabGroup) cyclableHistory() []platform.WindowID {
	out := make([]platform.WindowID, 0, len(g.focusHistory))
	for _, id := range g.focusHistory {
		idx := g.IndexOf(id)
		if idx < 0 || g.windows[idx].Fullscreened {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (g *TabGroup) activeWindowID() platform.WindowID {
	if aw := g.ActiveWindow(); aw != nil {
		return aw.ID
	}
	return 0
}

// reresolveActive points activeIndex back at the window that was active
// before a reorder, by identity rather than numeric index.
func (g *TabGroup) reresolveActive(activeID platform.WindowID) {
	if activeID != 0 {
		if idx := g.IndexOf(activeID); idx >= 0 {
			g.activeIndex = idx
			return
		}
	}
	g.clampActive()
}

// restorePinnedPrefix stable-partitions the sequence so pinned windows form
// a contiguous prefix, preserving relative order on both sides and the
// active window's identity.
func (g *TabGroup) restorePinnedPrefix() {
	activeID := g.activeWindowID()

	pinned := g.windows[:0:0]
	unpinned := make([]*WindowRecord, 0, len(g.windows))
	for _, w := range g.windows {
		if w.IsPinned() {
			pinned = append(pinned, w)
		} else {
			unpinned = append(unpinned, w)
		}
	}
	g.windows = append(pinned, unpinned...)
	g.reresolveActive(activeID)
}

func (g *TabGroup) clampActive() {
	if len(g.windows) == 0 {
		g.activeIndex = 0
		return
	}
	if g.activeIndex < 0 {
		g.activeIndex = 0
	}
	if g.activeIndex >= len(g.windows) {
		g.activeIndex = len(g.windows) - 1
	}
}

func (g *TabGroup) dropFromFocusHistory(id platform.WindowID) {
	for i, h := range g.focusHistory {
		if h == id {
			g.focusHistory = append(g.focusHistory[:i], g.focusHistory[i+1:]...)
			return
		}
	}
}
