package recency

import (
	"sort"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// ghostTolerance is the per-edge slack, in pixels, when deciding whether an
// ungrouped window's bounds match an emitted group's frame. A match means
// the window is a hidden stacked member of that group, not a standalone
// candidate.
const ghostTolerance = 8

// ItemKind tags the variant of a switcher candidate.
type ItemKind int

const (
	// ItemWindow is a standalone ungrouped window.
	ItemWindow ItemKind = iota
	// ItemGroup is a whole group, or one segment of a split group.
	ItemGroup
)

// Item is one candidate in a switcher presentation.
type Item struct {
	Kind ItemKind

	// Window is set for ItemWindow.
	Window *group.WindowRecord

	// Group fields. Members is ordered active-first, then by recency;
	// the switcher's within-group sub-cycle walks this order.
	Group        group.ID
	Members      []*group.WindowRecord
	ActiveWindow *group.WindowRecord

	Title string
	Icons [][]byte
}

// WindowIDs returns the member window IDs of the item.
func (it Item) WindowIDs() []platform.WindowID {
	if it.Kind == ItemWindow {
		return []platform.WindowID{it.Window.ID}
	}
	ids := make([]platform.WindowID, len(it.Members))
	for i, w := range it.Members {
		ids[i] = w.ID
	}
	return ids
}

// SplitOptions controls how a single group is segmented into multiple
// candidate items.
type SplitOptions struct {
	// ByPinned puts pinned and unpinned windows in separate items.
	ByPinned bool
	// BySeparator puts each separator-delimited run in its own item.
	BySeparator bool
}

// BuildSwitcherItems assembles the ranked candidate list for a switcher
// invocation.
//
// Pass 1 walks recency entries most-recent first: an ungrouped Window entry
// becomes a standalone item, and the first Group/GroupWindow entry for a
// group emits that group (or its segments) and claims every member window.
// Pass 2 walks stackOrder front-to-back and emits leftovers: groups with
// visible members but no recency entry, and unclaimed standalone windows —
// except ghost windows whose bounds match an emitted group's frame.
//
// The result never contains the same window ID twice.
func (t *Tracker) BuildSwitcherItems(groups []*group.TabGroup, stackOrder []platform.Window, split SplitOptions) []Item {
	byWindow := make(map[platform.WindowID]platform.Window, len(stackOrder))
	for _, w := range stackOrder {
		byWindow[w.ID] = w
	}
	owner := make(map[platform.WindowID]*group.TabGroup)
	byGroup := make(map[group.ID]*group.TabGroup, len(groups))
	for _, g := range groups {
		byGroup[g.ID()] = g
		for _, id := range g.WindowIDs() {
			owner[id] = g
		}
	}

	var items []Item
	claimed := make(map[platform.WindowID]struct{})
	emitted := make(map[group.ID]struct{})
	var groupFrames []platform.Rect

	emitGroup := func(g *group.TabGroup) {
		if _, done := emitted[g.ID()]; done {
			return
		}
		emitted[g.ID()] = struct{}{}
		groupFrames = append(groupFrames, g.Frame())
		for _, id := range g.WindowIDs() {
			claimed[id] = struct{}{}
		}
		items = append(items, t.groupItems(g, split)...)
	}

	for _, e := range t.entries {
		switch e.Kind {
		case EntryWindow:
			if _, done := claimed[e.Window]; done {
				continue
			}
			if owner[e.Window] != nil {
				// Group-owned; the group's own entry covers it.
				continue
			}
			w, live := byWindow[e.Window]
			if !live {
				continue
			}
			claimed[e.Window] = struct{}{}
			items = append(items, windowItem(w))
		case EntryGroup, EntryGroupWindow:
			if g := byGroup[e.Group]; g != nil {
				emitGroup(g)
			}
		}
	}

	for _, w := range stackOrder {
		if _, done := claimed[w.ID]; done {
			continue
		}
		if g := owner[w.ID]; g != nil {
			emitGroup(g)
			continue
		}
		if isGhost(w.Bounds, groupFrames) {
			continue
		}
		claimed[w.ID] = struct{}{}
		items = append(items, windowItem(w))
	}

	return items
}

func windowItem(w platform.Window) Item {
	rec := group.FromPlatform(w)
	return Item{
		Kind:   ItemWindow,
		Window: rec,
		Title:  rec.DisplayTitle(),
	}
}

// isGhost reports whether bounds approximately equal any emitted group
// frame, within the per-edge tolerance.
func isGhost(b platform.Rect, frames []platform.Rect) bool {
	for _, f := range frames {
		if near(b.X, f.X) && near(b.Y, f.Y) &&
			near(b.X+b.Width, f.X+f.Width) && near(b.Y+b.Height, f.Y+f.Height) {
			return true
		}
	}
	return false
}

func near(a, b int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= ghostTolerance
}

// groupItems turns one group into its candidate items, applying the
// requested segmentation.
func (t *Tracker) groupItems(g *group.TabGroup, split SplitOptions) []Item {
	segments := segment(g, split)
	if len(segments) == 0 {
		return nil
	}
	if len(segments) == 1 {
		return []Item{t.segmentItem(g, segments[0])}
	}

	// Segments with their own recency entries come first, most recent
	// leading; the rest keep tab order.
	type ranked struct {
		seg  []*group.WindowRecord
		rank int
		pos  int
	}
	rankedSegs := make([]ranked, len(segments))
	for i, seg := range segments {
		rankedSegs[i] = ranked{seg: seg, rank: t.segmentRecency(g.ID(), seg), pos: i}
	}
	sort.SliceStable(rankedSegs, func(a, b int) bool {
		ra, rb := rankedSegs[a], rankedSegs[b]
		if (ra.rank >= 0) != (rb.rank >= 0) {
			return ra.rank >= 0
		}
		if ra.rank >= 0 {
			return ra.rank < rb.rank
		}
		return ra.pos < rb.pos
	})

	out := make([]Item, 0, len(rankedSegs))
	for _, rs := range rankedSegs {
		out = append(out, t.segmentItem(g, rs.seg))
	}
	return out
}

// segment partitions a group's non-separator windows per the split
// options. Always returns at least one non-empty segment for a group with
// real windows.
func segment(g *group.TabGroup, split SplitOptions) [][]*group.WindowRecord {
	windows := g.Windows()

	var partitions [][]*group.WindowRecord
	if split.ByPinned {
		var pinned, unpinned []*group.WindowRecord
		for _, w := range windows {
			if w.IsPinned() {
				pinned = append(pinned, w)
			} else {
				unpinned = append(unpinned, w)
			}
		}
		partitions = [][]*group.WindowRecord{pinned, unpinned}
	} else {
		partitions = [][]*group.WindowRecord{windows}
	}

	var segments [][]*group.WindowRecord
	for _, part := range partitions {
		if !split.BySeparator {
			if run := dropSeparators(part); len(run) > 0 {
				segments = append(segments, run)
			}
			continue
		}
		var run []*group.WindowRecord
		for _, w := range part {
			if w.Separator {
				if len(run) > 0 {
					segments = append(segments, run)
					run = nil
				}
				continue
			}
			run = append(run, w)
		}
		if len(run) > 0 {
			segments = append(segments, run)
		}
	}
	return segments
}

func dropSeparators(windows []*group.WindowRecord) []*group.WindowRecord {
	out := make([]*group.WindowRecord, 0, len(windows))
	for _, w := range windows {
		if !w.Separator {
			out = append(out, w)
		}
	}
	return out
}

// segmentRecency returns the entry index of the segment's most recently
// activated member, or -1 when no member has a GroupWindow entry.
func (t *Tracker) segmentRecency(groupID group.ID, seg []*group.WindowRecord) int {
	best := -1
	for _, w := range seg {
		if i := t.indexOf(GroupWindowEntry(groupID, w.ID)); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// segmentItem builds one ItemGroup for a segment, resolving its active
// member: the segment's most recently activated window, else the group's
// own active window if it falls in the segment, else the group focus
// history restricted to the segment, else the first member.
func (t *Tracker) segmentItem(g *group.TabGroup, seg []*group.WindowRecord) Item {
	active := t.segmentActive(g, seg)

	members := make([]*group.WindowRecord, 0, len(seg))
	members = append(members, active)
	rest := make([]*group.WindowRecord, 0, len(seg)-1)
	for _, w := range seg {
		if w != active {
			rest = append(rest, w)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return t.memberRank(g, rest[a].ID) < t.memberRank(g, rest[b].ID)
	})
	members = append(members, rest...)

	title := active.DisplayTitle()
	if title == "" {
		title = active.AppName
	}
	var icons [][]byte
	for _, w := range members {
		if len(w.Icon) > 0 {
			icons = append(icons, w.Icon)
		}
	}
	return Item{
		Kind:         ItemGroup,
		Group:        g.ID(),
		Members:      members,
		ActiveWindow: active,
		Title:        title,
		Icons:        icons,
	}
}

func (t *Tracker) segmentActive(g *group.TabGroup, seg []*group.WindowRecord) *group.WindowRecord {
	best := -1
	var winner *group.WindowRecord
	for _, w := range seg {
		if i := t.indexOf(GroupWindowEntry(g.ID(), w.ID)); i >= 0 && (best < 0 || i < best) {
			best = i
			winner = w
		}
	}
	if winner != nil {
		return winner
	}
	if aw := g.ActiveWindow(); aw != nil {
		for _, w := range seg {
			if w.ID == aw.ID {
				return w
			}
		}
	}
	for _, id := range g.FocusHistory() {
		for _, w := range seg {
			if w.ID == id {
				return w
			}
		}
	}
	return seg[0]
}

// memberRank orders a segment's non-active members: tracker recency first,
// then group focus-history position, then tab order.
func (t *Tracker) memberRank(g *group.TabGroup, id platform.WindowID) int {
	if i := t.indexOf(GroupWindowEntry(g.ID(), id)); i >= 0 {
		return i
	}
	for i, h := range g.FocusHistory() {
		if h == id {
			return MaxEntries + i
		}
	}
	return 2*MaxEntries + g.IndexOf(id)
}
