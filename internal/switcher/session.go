package switcher

import (
	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/recency"
)

// Style selects the switcher's presentation shape. The core only stores
// it; the rendering layer interprets it.
type Style int

const (
	StyleOverlay Style = iota
	StyleList
)

// Scope limits what a switcher invocation cycles over.
type Scope int

const (
	// ScopeGlobal cycles across all windows and groups; within-group
	// sub-cycling is available.
	ScopeGlobal Scope = iota
	// ScopeGroup cycles inside a single group only.
	ScopeGroup
)

// CommitFunc receives the resolved window and the sub-selection index
// (-1 when no sub-cycle was used) when a session commits.
type CommitFunc func(win *group.WindowRecord, subIndex int)

// DismissFunc is invoked when a session ends without a selection.
type DismissFunc func()

// Session is the ephemeral state machine behind one switcher invocation:
// inactive, started with a frozen candidate list, navigated with
// advance/retreat/select, then committed or dismissed back to inactive.
type Session struct {
	items       []recency.Item
	selected    int
	subSelected int
	style       Style
	scope       Scope
	active      bool

	// Within-group sub-cycle cursor, frozen over the selected item's
	// member order.
	subCycleItem int
	subCursor    int

	onCommit  CommitFunc
	onDismiss DismissFunc
}

// NewSession creates an inactive session with the given callbacks. Either
// callback may be nil.
func NewSession(onCommit CommitFunc, onDismiss DismissFunc) *Session {
	return &Session{
		subSelected:  -1,
		subCycleItem: -1,
		onCommit:     onCommit,
		onDismiss:    onDismiss,
	}
}

// Active reports whether a switcher interaction is in progress.
func (s *Session) Active() bool { return s.active }

// Items returns the frozen candidate list of the current invocation.
func (s *Session) Items() []recency.Item {
	return append([]recency.Item(nil), s.items...)
}

// SelectedIndex returns the current selection position.
func (s *Session) SelectedIndex() int { return s.selected }

// SubSelectedIndex returns the within-group sub-selection, or -1 when no
// sub-cycle is in progress.
func (s *Session) SubSelectedIndex() int { return s.subSelected }

// SelectedItem returns the currently selected item, or nil when inactive.
func (s *Session) SelectedItem() *recency.Item {
	if !s.active || s.selected >= len(s.items) {
		return nil
	}
	return &s.items[s.selected]
}

// Style returns the presentation style of the current invocation.
func (s *Session) Style() Style { return s.style }

// Scope returns the scope of the current invocation.
func (s *Session) Scope() Scope { return s.scope }

// Start begins a switcher interaction over the given candidate list.
// No-op returning false when items is empty: the session stays inactive.
func (s *Session) Start(items []recency.Item, style Style, scope Scope) bool {
	if len(items) == 0 {
		return false
	}
	s.items = append([]recency.Item(nil), items...)
	s.selected = 0
	s.style = style
	s.scope = scope
	s.active = true
	s.clearSubCycle()
	return true
}

// Advance moves the selection forward by one, wrapping at the end.
func (s *Session) Advance() {
	if !s.active {
		return
	}
	s.selected = (s.selected + 1) % len(s.items)
	s.clearSubCycle()
}

// Retreat moves the selection backward by one, wrapping at the start.
func (s *Session) Retreat() {
	if !s.active {
		return
	}
	s.selected = (s.selected - 1 + len(s.items)) % len(s.items)
	s.clearSubCycle()
}

// Select jumps to an explicit position. Returns false without state change
// when the index is out of range.
func (s *Session) Select(index int) bool {
	if !s.active || index < 0 || index >= len(s.items) {
		return false
	}
	s.selected = index
	s.clearSubCycle()
	return true
}

// CycleWithinGroup steps the sub-selection forward through the selected
// group item's members. Only effective in the global scope on a group item
// with more than one member; no-op otherwise.
func (s *Session) CycleWithinGroup() bool {
	return s.cycleWithin(1)
}

// CycleWithinGroupBackward steps the sub-selection backward.
func (s *Session) CycleWithinGroupBackward() bool {
	return s.cycleWithin(-1)
}

func (s *Session) cycleWithin(dir int) bool {
	if !s.active || s.scope != ScopeGlobal {
		return false
	}
	item := s.SelectedItem()
	if item == nil || item.Kind != recency.ItemGroup || len(item.Members) < 2 {
		return false
	}
	n := len(item.Members)
	if s.subCycleItem != s.selected {
		// First step of a new sub-cycle: the member order was frozen
		// when the item list was built; start one past the active
		// member.
		s.subCycleItem = s.selected
		if dir > 0 {
			s.subCursor = 1
		} else {
			s.subCursor = n - 1
		}
	} else {
		s.subCursor = (s.subCursor + dir + n) % n
	}
	s.subSelected = s.subCursor
	return true
}

// Commit resolves the current selection, fires the commit callback, and
// deactivates. When inactive or the item list is empty it behaves as
// Dismiss instead of committing nothing silently.
func (s *Session) Commit() {
	if !s.active || len(s.items) == 0 {
		s.finish(true)
		return
	}
	item := s.items[s.selected]
	var win *group.WindowRecord
	sub := -1
	switch item.Kind {
	case recency.ItemWindow:
		win = item.Window
	case recency.ItemGroup:
		if s.subSelected >= 0 && s.subSelected < len(item.Members) {
			win = item.Members[s.subSelected]
			sub = s.subSelected
		} else {
			win = item.ActiveWindow
		}
	}
	onCommit := s.onCommit
	s.reset()
	if onCommit != nil {
		onCommit(win, sub)
	}
}

// Dismiss cancels the interaction, fires the dismiss callback, and
// deactivates. Idempotent no-op when already inactive.
func (s *Session) Dismiss() {
	if !s.active {
		return
	}
	s.finish(true)
}

// finish deactivates and optionally fires the dismiss callback.
func (s *Session) finish(fireDismiss bool) {
	onDismiss := s.onDismiss
	s.reset()
	if fireDismiss && onDismiss != nil {
		onDismiss()
	}
}

func (s *Session) reset() {
	s.items = nil
	s.selected = 0
	s.active = false
	s.clearSubCycle()
}

func (s *Session) clearSubCycle() {
	s.subSelected = -1
	s.subCycleItem = -1
	s.subCursor = 0
}
