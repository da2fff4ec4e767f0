package recency

import (
	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// MaxEntries caps the recency list; exceeding it evicts from the tail.
const MaxEntries = 1024

// EntryKind tags the variant of a recency entry.
type EntryKind int

const (
	// EntryWindow is an activation of an ungrouped window.
	EntryWindow EntryKind = iota
	// EntryGroup is an activation of a group as a whole.
	EntryGroup
	// EntryGroupWindow is an activation of a specific window inside a
	// group.
	EntryGroupWindow
)

// Entry is one tagged recency record. Entries compare by exact match on
// all fields: the same window may legitimately appear both as a bare
// Window entry and inside a GroupWindow entry; consumers resolve this.
type Entry struct {
	Kind   EntryKind
	Window platform.WindowID
	Group  group.ID
}

// WindowEntry builds a bare window activation entry.
func WindowEntry(id platform.WindowID) Entry {
	return Entry{Kind: EntryWindow, Window: id}
}

// GroupEntry builds a whole-group activation entry.
func GroupEntry(id group.ID) Entry {
	return Entry{Kind: EntryGroup, Group: id}
}

// GroupWindowEntry builds a window-within-group activation entry.
func GroupWindowEntry(groupID group.ID, windowID platform.WindowID) Entry {
	return Entry{Kind: EntryGroupWindow, Group: groupID, Window: windowID}
}

// Tracker maintains the process-wide MRU list of activation events and
// assembles switcher candidate lists from it. Single-writer, like the rest
// of the model; the orchestration layer serializes access.
type Tracker struct {
	// entries is ordered most-recent first.
	entries []Entry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Entries returns a copy of the recency list, most-recent first. Exposed
// for diagnostics.
func (t *Tracker) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the current entry count.
func (t *Tracker) Len() int { return len(t.entries) }

// RecordActivation moves an entry to the front, inserting it if absent.
func (t *Tracker) RecordActivation(e Entry) {
	if i := t.indexOf(e); i >= 0 {
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
	}
	t.entries = append([]Entry{e}, t.entries...)
	t.truncate()
}

// AppendIfMissing inserts an entry at the tail only if no exact match
// exists. Existing entries are never reordered; passive sightings must not
// bump recency.
func (t *Tracker) AppendIfMissing(e Entry) {
	if t.indexOf(e) >= 0 {
		return
	}
	t.entries = append(t.entries, e)
	t.truncate()
}

// RemoveWindow purges every entry referencing the window, in any variant.
func (t *Tracker) RemoveWindow(id platform.WindowID) {
	t.filter(func(e Entry) bool {
		return !((e.Kind == EntryWindow || e.Kind == EntryGroupWindow) && e.Window == id)
	})
}

// RemoveGroup purges every entry referencing the group, in any variant.
func (t *Tracker) RemoveGroup(id group.ID) {
	t.filter(func(e Entry) bool {
		return !((e.Kind == EntryGroup || e.Kind == EntryGroupWindow) && e.Group == id)
	})
}

// MRUGroupOrder derives a most-recent-first ordering of group identifiers
// by first occurrence across Group and GroupWindow entries.
func (t *Tracker) MRUGroupOrder() []group.ID {
	seen := make(map[group.ID]struct{})
	var out []group.ID
	for _, e := range t.entries {
		if e.Kind != EntryGroup && e.Kind != EntryGroupWindow {
			continue
		}
		if _, dup := seen[e.Group]; dup {
			continue
		}
		seen[e.Group] = struct{}{}
		out = append(out, e.Group)
	}
	return out
}

func (t *Tracker) indexOf(e Entry) int {
	for i, have := range t.entries {
		if have == e {
			return i
		}
	}
	return -1
}

func (t *Tracker) filter(keep func(Entry) bool) {
	out := t.entries[:0]
	for _, e := range t.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	t.entries = out
}

func (t *Tracker) truncate() {
	if len(t.entries) > MaxEntries {
		t.entries = t.entries[:MaxEntries]
	}
}
