package group

import (
	"github.com/google/uuid"

	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// separatorIDBase is the start of the synthetic window ID range handed out
// for separator records. X11 resource IDs never reach this range in
// practice.
const separatorIDBase platform.WindowID = 0xF0000000

// EventKind identifies a registry lifecycle event.
type EventKind int

const (
	GroupCreated EventKind = iota
	GroupDissolved
	WindowAdded
	WindowReleased
)

// Event describes a registry mutation for interested observers (tab bar
// sync, persistence, recency bookkeeping).
type Event struct {
	Kind    EventKind
	Group   ID
	Windows []platform.WindowID
}

// Registry owns every TabGroup and enforces the exclusivity invariant: a
// window belongs to at most one group at a time.
//
// Like TabGroup, the registry is a single-writer structure; the
// orchestration layer serializes access.
type Registry struct {
	groups map[ID]*TabGroup
	order  []ID

	nextSeparator platform.WindowID

	// OnEvent, when set, is called synchronously after each registry
	// mutation. Handlers must not re-enter the registry.
	OnEvent func(Event)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:        make(map[ID]*TabGroup),
		nextSeparator: separatorIDBase,
	}
}

// CreateGroup builds a new group from the given windows and registers it.
// Returns nil without mutating anything when the window list is empty,
// contains duplicates, or any window already belongs to a group.
func (r *Registry) CreateGroup(windows []*WindowRecord, frame platform.Rect) *TabGroup {
	if len(windows) == 0 {
		return nil
	}
	for _, w := range windows {
		if w == nil || r.IsWindowGrouped(w.ID) {
			return nil
		}
	}
	g := NewTabGroup(ID(uuid.NewString()), windows, frame)
	if g == nil {
		return nil
	}
	r.groups[g.id] = g
	r.order = append(r.order, g.id)
	r.emit(Event{Kind: GroupCreated, Group: g.id, Windows: g.WindowIDs()})
	return g
}

// Group returns the group with the given ID, or nil.
func (r *Registry) Group(id ID) *TabGroup {
	return r.groups[id]
}

// Groups returns all groups in registration order.
func (r *Registry) Groups() []*TabGroup {
	out := make([]*TabGroup, 0, len(r.order))
	for _, id := range r.order {
		if g, ok := r.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Count returns the number of registered groups.
func (r *Registry) Count() int { return len(r.groups) }

// GroupFor returns the group owning the given window, or nil.
func (r *Registry) GroupFor(windowID platform.WindowID) *TabGroup {
	for _, id := range r.order {
		if g := r.groups[id]; g != nil && g.Contains(windowID) {
			return g
		}
	}
	return nil
}

// IsWindowGrouped reports whether any group owns the given window.
func (r *Registry) IsWindowGrouped(windowID platform.WindowID) bool {
	return r.GroupFor(windowID) != nil
}

// AddWindow adds a window to an existing group. Returns false when the
// group is not registered or the window already belongs to a group.
func (r *Registry) AddWindow(groupID ID, w *WindowRecord) bool {
	g, ok := r.groups[groupID]
	if !ok || w == nil {
		return false
	}
	if r.IsWindowGrouped(w.ID) {
		return false
	}
	if !g.AddWindow(w) {
		return false
	}
	r.emit(Event{Kind: WindowAdded, Group: groupID, Windows: []platform.WindowID{w.ID}})
	return true
}

// ReleaseWindow removes a window from whichever group owns it and returns
// the removed record. A group left empty is dissolved. Returns nil when no
// group owns the window.
func (r *Registry) ReleaseWindow(windowID platform.WindowID) *WindowRecord {
	g := r.GroupFor(windowID)
	if g == nil {
		return nil
	}
	removed := g.RemoveWindow(windowID)
	if removed == nil {
		return nil
	}
	r.emit(Event{Kind: WindowReleased, Group: g.id, Windows: []platform.WindowID{windowID}})
	if g.Count() == 0 {
		r.dissolve(g.id)
	}
	return removed
}

// ReleaseWindows removes every listed window from the given group in one
// batch and returns the removed records in their original relative order.
// A group left empty is dissolved.
func (r *Registry) ReleaseWindows(groupID ID, ids map[platform.WindowID]struct{}) []*WindowRecord {
	g, ok := r.groups[groupID]
	if !ok {
		return nil
	}
	removed := g.RemoveWindows(ids)
	if len(removed) == 0 {
		return nil
	}
	removedIDs := make([]platform.WindowID, len(removed))
	for i, w := range removed {
		removedIDs[i] = w.ID
	}
	r.emit(Event{Kind: WindowReleased, Group: groupID, Windows: removedIDs})
	if g.Count() == 0 {
		r.dissolve(groupID)
	}
	return removed
}

// DissolveGroup unregisters a group and returns its windows, or nil if the
// group is unknown.
func (r *Registry) DissolveGroup(id ID) []*WindowRecord {
	g, ok := r.groups[id]
	if !ok {
		return nil
	}
	windows := g.Windows()
	r.dissolve(id)
	return windows
}

// DissolveAllGroups unregisters every group, in registration order, and
// returns the total number dissolved.
func (r *Registry) DissolveAllGroups() int {
	ids := append([]ID(nil), r.order...)
	n := 0
	for _, id := range ids {
		if _, ok := r.groups[id]; ok {
			r.dissolve(id)
			n++
		}
	}
	return n
}

// NewSeparatorID allocates a synthetic window ID for a separator record
// from the reserved range.
func (r *Registry) NewSeparatorID() platform.WindowID {
	id := r.nextSeparator
	r.nextSeparator++
	return id
}

// IsSeparatorID reports whether an ID comes from the reserved separator
// range.
func IsSeparatorID(id platform.WindowID) bool {
	return id >= separatorIDBase
}

func (r *Registry) dissolve(id ID) {
	g, ok := r.groups[id]
	if !ok {
		return
	}
	delete(r.groups, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.emit(Event{Kind: GroupDissolved, Group: id, Windows: g.WindowIDs()})
}

func (r *Registry) emit(ev Event) {
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
}
