package recency

import (
	"testing"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

func testGroup(t *testing.T, id group.ID, frame platform.Rect, ids ...platform.WindowID) *group.TabGroup {
	t.Helper()
	windows := make([]*group.WindowRecord, len(ids))
	for i, wid := range ids {
		windows[i] = &group.WindowRecord{ID: wid, Title: "win", AppName: "app"}
	}
	g := group.NewTabGroup(id, windows, frame)
	if g == nil {
		t.Fatalf("NewTabGroup(%v, %v) returned nil", id, ids)
	}
	return g
}

func stackWindow(id platform.WindowID, bounds platform.Rect) platform.Window {
	return platform.Window{ID: id, Title: "win", AppName: "app", Bounds: bounds}
}

func itemWindowIDs(items []Item) [][]platform.WindowID {
	out := make([][]platform.WindowID, len(items))
	for i, it := range items {
		out[i] = it.WindowIDs()
	}
	return out
}

func checkNoDuplicateWindows(t *testing.T, items []Item) {
	t.Helper()
	seen := make(map[platform.WindowID]struct{})
	for _, it := range items {
		for _, id := range it.WindowIDs() {
			if _, dup := seen[id]; dup {
				t.Errorf("window %d appears in more than one item", id)
			}
			seen[id] = struct{}{}
		}
	}
}

func TestBuildSwitcherItems_ClaimingWalk(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{X: 0, Y: 0, Width: 800, Height: 600}, 10, 11)
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(1))
	tr.RecordActivation(GroupWindowEntry("G", 11))
	tr.RecordActivation(WindowEntry(2))
	// Most recent first: Window(2), GroupWindow(G,11), Window(1).

	stack := []platform.Window{
		stackWindow(2, platform.Rect{X: 900, Y: 0, Width: 100, Height: 100}),
		stackWindow(10, platform.Rect{}),
		stackWindow(11, platform.Rect{}),
		stackWindow(1, platform.Rect{X: 900, Y: 200, Width: 100, Height: 100}),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{})

	if len(items) != 3 {
		t.Fatalf("items = %v, want 3 items", itemWindowIDs(items))
	}
	if items[0].Kind != ItemWindow || items[0].Window.ID != 2 {
		t.Errorf("item 0 = %v, want window 2", items[0].WindowIDs())
	}
	if items[1].Kind != ItemGroup || items[1].Group != "G" {
		t.Errorf("item 1 = %v, want group G", items[1].WindowIDs())
	}
	if len(items[1].Members) != 2 {
		t.Errorf("group item claimed %d members, want 2", len(items[1].Members))
	}
	if items[2].Kind != ItemWindow || items[2].Window.ID != 1 {
		t.Errorf("item 2 = %v, want window 1", items[2].WindowIDs())
	}
	checkNoDuplicateWindows(t, items)
}

func TestBuildSwitcherItems_GroupEntryClaimsAllMembers(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{}, 10, 11, 12)
	tr := NewTracker()
	tr.RecordActivation(GroupWindowEntry("G", 11))
	// A bare Window entry for a group member must not produce a
	// standalone item.
	tr.AppendIfMissing(WindowEntry(12))

	stack := []platform.Window{stackWindow(10, platform.Rect{}), stackWindow(11, platform.Rect{}), stackWindow(12, platform.Rect{})}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{})

	if len(items) != 1 || items[0].Kind != ItemGroup {
		t.Fatalf("items = %v, want single group item", itemWindowIDs(items))
	}
	checkNoDuplicateWindows(t, items)
}

func TestBuildSwitcherItems_StackOrderFallback(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(2))
	stack := []platform.Window{
		stackWindow(1, platform.Rect{X: 0, Y: 0, Width: 100, Height: 100}),
		stackWindow(2, platform.Rect{X: 200, Y: 0, Width: 100, Height: 100}),
		stackWindow(3, platform.Rect{X: 400, Y: 0, Width: 100, Height: 100}),
	}
	items := tr.BuildSwitcherItems(nil, stack, SplitOptions{})
	if len(items) != 3 {
		t.Fatalf("items = %v, want 3", itemWindowIDs(items))
	}
	// Recency entry first, then stacking order for the rest.
	wantOrder := []platform.WindowID{2, 1, 3}
	for i, want := range wantOrder {
		if items[i].Window.ID != want {
			t.Errorf("item %d = window %d, want %d", i, items[i].Window.ID, want)
		}
	}
}

func TestBuildSwitcherItems_GroupEmittedViaStackMember(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{}, 10, 11)
	tr := NewTracker() // no recency entries at all
	stack := []platform.Window{
		stackWindow(11, platform.Rect{}),
		stackWindow(5, platform.Rect{X: 500, Y: 500, Width: 100, Height: 100}),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{})
	if len(items) != 2 {
		t.Fatalf("items = %v, want group then window", itemWindowIDs(items))
	}
	if items[0].Kind != ItemGroup || items[0].Group != "G" {
		t.Errorf("item 0 = %v, want group G (emitted via visible member)", items[0].WindowIDs())
	}
	if items[1].Kind != ItemWindow || items[1].Window.ID != 5 {
		t.Errorf("item 1 = %v, want window 5", items[1].WindowIDs())
	}
}

func TestBuildSwitcherItems_GhostFilter(t *testing.T) {
	frame := platform.Rect{X: 100, Y: 100, Width: 640, Height: 480}
	g := testGroup(t, "G", frame, 10, 11)
	tr := NewTracker()
	tr.RecordActivation(GroupWindowEntry("G", 10))

	ghostBounds := platform.Rect{X: 103, Y: 98, Width: 642, Height: 479}
	farBounds := platform.Rect{X: 400, Y: 100, Width: 640, Height: 480}
	stack := []platform.Window{
		stackWindow(10, frame),
		stackWindow(50, ghostBounds), // stacked duplicate of the group frame
		stackWindow(51, farBounds),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{})

	for _, it := range items {
		for _, id := range it.WindowIDs() {
			if id == 50 {
				t.Error("ghost window 50 emitted as standalone item")
			}
		}
	}
	if len(items) != 2 {
		t.Errorf("items = %v, want group and window 51", itemWindowIDs(items))
	}
}

func TestBuildSwitcherItems_StaleEntriesSkipped(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(99))      // window no longer exists
	tr.RecordActivation(GroupEntry("gone"))   // group dissolved
	tr.RecordActivation(WindowEntry(1))

	stack := []platform.Window{stackWindow(1, platform.Rect{})}
	items := tr.BuildSwitcherItems(nil, stack, SplitOptions{})
	if len(items) != 1 || items[0].Window.ID != 1 {
		t.Errorf("items = %v, want just window 1", itemWindowIDs(items))
	}
}

func TestBuildSwitcherItems_SplitByPinned(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{}, 1, 2, 3, 4)
	g.SetPinned(true, map[platform.WindowID]struct{}{1: {}, 2: {}})
	tr := NewTracker()
	// The unpinned segment was touched more recently than the pinned one.
	tr.RecordActivation(GroupWindowEntry("G", 1))
	tr.RecordActivation(GroupWindowEntry("G", 4))

	stack := []platform.Window{
		stackWindow(1, platform.Rect{}), stackWindow(2, platform.Rect{}),
		stackWindow(3, platform.Rect{}), stackWindow(4, platform.Rect{}),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{ByPinned: true})
	if len(items) != 2 {
		t.Fatalf("items = %v, want 2 segments", itemWindowIDs(items))
	}
	// Most recently activated segment leads.
	if items[0].ActiveWindow.ID != 4 {
		t.Errorf("segment 0 active = %d, want 4", items[0].ActiveWindow.ID)
	}
	if items[1].ActiveWindow.ID != 1 {
		t.Errorf("segment 1 active = %d, want 1", items[1].ActiveWindow.ID)
	}
	checkNoDuplicateWindows(t, items)
}

func TestBuildSwitcherItems_SplitBySeparator(t *testing.T) {
	windows := []*group.WindowRecord{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b"},
		group.NewSeparator(0xF0000000),
		{ID: 3, Title: "c"},
	}
	g := group.NewTabGroup("G", windows, platform.Rect{})
	if g == nil {
		t.Fatal("NewTabGroup returned nil")
	}
	tr := NewTracker()
	tr.RecordActivation(GroupWindowEntry("G", 3))

	stack := []platform.Window{
		stackWindow(1, platform.Rect{}), stackWindow(2, platform.Rect{}), stackWindow(3, platform.Rect{}),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{BySeparator: true})
	if len(items) != 2 {
		t.Fatalf("items = %v, want 2 separator-delimited runs", itemWindowIDs(items))
	}
	// The run with the recency entry leads; separators never appear.
	if items[0].ActiveWindow.ID != 3 || len(items[0].Members) != 1 {
		t.Errorf("segment 0 = %v active %d, want [3]", items[0].WindowIDs(), items[0].ActiveWindow.ID)
	}
	if len(items[1].Members) != 2 {
		t.Errorf("segment 1 = %v, want the [1 2] run", items[1].WindowIDs())
	}
	for _, it := range items {
		for _, m := range it.Members {
			if m.Separator {
				t.Error("separator record leaked into a switcher item")
			}
		}
	}
}

func TestBuildSwitcherItems_SegmentActiveFallsBackToGroupActive(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{}, 1, 2, 3, 4)
	g.SetPinned(true, map[platform.WindowID]struct{}{1: {}})
	g.SwitchToWindow(3)
	tr := NewTracker() // no recency entries

	stack := []platform.Window{
		stackWindow(1, platform.Rect{}), stackWindow(2, platform.Rect{}),
		stackWindow(3, platform.Rect{}), stackWindow(4, platform.Rect{}),
	}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{ByPinned: true})
	if len(items) != 2 {
		t.Fatalf("items = %v, want 2 segments", itemWindowIDs(items))
	}
	// No recency entries: segments keep tab order (pinned first) and the
	// segment holding the group's active window uses it as its active.
	if items[0].ActiveWindow.ID != 1 {
		t.Errorf("pinned segment active = %d, want 1", items[0].ActiveWindow.ID)
	}
	if items[1].ActiveWindow.ID != 3 {
		t.Errorf("unpinned segment active = %d, want group-active window 3", items[1].ActiveWindow.ID)
	}
}

func TestBuildSwitcherItems_SingleSegmentStaysWhole(t *testing.T) {
	g := testGroup(t, "G", platform.Rect{}, 1, 2)
	tr := NewTracker()
	tr.RecordActivation(GroupEntry("G"))
	stack := []platform.Window{stackWindow(1, platform.Rect{}), stackWindow(2, platform.Rect{})}
	items := tr.BuildSwitcherItems([]*group.TabGroup{g}, stack, SplitOptions{ByPinned: true, BySeparator: true})
	if len(items) != 1 {
		t.Fatalf("items = %v, want one whole-group item", itemWindowIDs(items))
	}
	if len(items[0].Members) != 2 {
		t.Errorf("members = %v, want both windows", items[0].WindowIDs())
	}
}
