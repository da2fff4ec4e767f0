package switcher

import (
	"testing"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
	"github.com/tabgroupd/tabgroupd/internal/recency"
)

func windowItem(id platform.WindowID) recency.Item {
	w := &group.WindowRecord{ID: id, Title: "win"}
	return recency.Item{Kind: recency.ItemWindow, Window: w, Title: w.Title}
}

func groupItem(id group.ID, memberIDs ...platform.WindowID) recency.Item {
	members := make([]*group.WindowRecord, len(memberIDs))
	for i, mid := range memberIDs {
		members[i] = &group.WindowRecord{ID: mid, Title: "win"}
	}
	return recency.Item{
		Kind:         recency.ItemGroup,
		Group:        id,
		Members:      members,
		ActiveWindow: members[0],
	}
}

func TestStart_EmptyItems(t *testing.T) {
	s := NewSession(nil, nil)
	if s.Start(nil, StyleOverlay, ScopeGlobal) {
		t.Error("Start with empty items should return false")
	}
	if s.Active() {
		t.Error("session active after rejected start")
	}
}

func TestAdvance_WrapsAndCommits(t *testing.T) {
	var committed *group.WindowRecord
	s := NewSession(func(w *group.WindowRecord, sub int) { committed = w }, nil)
	items := []recency.Item{windowItem(1), windowItem(2), windowItem(3)}
	if !s.Start(items, StyleOverlay, ScopeGlobal) {
		t.Fatal("Start failed")
	}
	s.Advance()
	s.Advance()
	s.Advance()
	if s.SelectedIndex() != 0 {
		t.Errorf("selectedIndex = %d after three advances over three items, want 0", s.SelectedIndex())
	}
	s.Commit()
	if committed == nil || committed.ID != 1 {
		t.Errorf("committed window = %v, want window 1", committed)
	}
	if s.Active() {
		t.Error("session still active after commit")
	}
}

func TestRetreat_Wraps(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{windowItem(1), windowItem(2)}, StyleOverlay, ScopeGlobal)
	s.Retreat()
	if s.SelectedIndex() != 1 {
		t.Errorf("selectedIndex = %d after retreat from 0, want 1 (wrapped)", s.SelectedIndex())
	}
}

func TestSelect_Bounds(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{windowItem(1), windowItem(2)}, StyleOverlay, ScopeGlobal)
	if s.Select(5) {
		t.Error("out-of-range Select should return false")
	}
	if s.SelectedIndex() != 0 {
		t.Errorf("selectedIndex = %d after rejected select, want 0", s.SelectedIndex())
	}
	if !s.Select(1) {
		t.Error("in-range Select failed")
	}
}

func TestCommit_WhenInactiveActsAsDismiss(t *testing.T) {
	commits, dismissals := 0, 0
	s := NewSession(
		func(*group.WindowRecord, int) { commits++ },
		func() { dismissals++ },
	)
	s.Commit()
	if commits != 0 || dismissals != 1 {
		t.Errorf("commits = %d, dismissals = %d, want 0 and 1", commits, dismissals)
	}
}

func TestDismiss_Idempotent(t *testing.T) {
	dismissals := 0
	s := NewSession(nil, func() { dismissals++ })
	s.Start([]recency.Item{windowItem(1)}, StyleOverlay, ScopeGlobal)
	s.Dismiss()
	s.Dismiss()
	s.Dismiss()
	if dismissals != 1 {
		t.Errorf("dismiss callback fired %d times, want 1", dismissals)
	}
}

func TestCycleWithinGroup_ScopeGating(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{groupItem("G", 1, 2, 3)}, StyleOverlay, ScopeGroup)
	if s.CycleWithinGroup() {
		t.Error("sub-cycle should be a no-op outside the global scope")
	}
	if s.SubSelectedIndex() != -1 {
		t.Errorf("subSelected = %d, want -1", s.SubSelectedIndex())
	}
}

func TestCycleWithinGroup_SingleWindowItems(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{windowItem(1), groupItem("G", 9)}, StyleOverlay, ScopeGlobal)
	if s.CycleWithinGroup() {
		t.Error("sub-cycle on a single-window item should be a no-op")
	}
	s.Advance() // single-member group
	if s.CycleWithinGroup() {
		t.Error("sub-cycle on a single-member group should be a no-op")
	}
}

func TestCycleWithinGroup_CursorAndCommit(t *testing.T) {
	var committed *group.WindowRecord
	var committedSub int
	s := NewSession(func(w *group.WindowRecord, sub int) {
		committed = w
		committedSub = sub
	}, nil)
	s.Start([]recency.Item{groupItem("G", 10, 11, 12)}, StyleOverlay, ScopeGlobal)

	// First step lands one past the active member.
	if !s.CycleWithinGroup() || s.SubSelectedIndex() != 1 {
		t.Fatalf("first sub-cycle step: subSelected = %d, want 1", s.SubSelectedIndex())
	}
	if !s.CycleWithinGroup() || s.SubSelectedIndex() != 2 {
		t.Fatalf("second step: subSelected = %d, want 2", s.SubSelectedIndex())
	}
	// Wraps.
	if !s.CycleWithinGroup() || s.SubSelectedIndex() != 0 {
		t.Fatalf("third step: subSelected = %d, want 0 (wrapped)", s.SubSelectedIndex())
	}
	s.CycleWithinGroup()
	s.Commit()
	if committed == nil || committed.ID != 11 || committedSub != 1 {
		t.Errorf("committed (%v, %d), want window 11 at sub-index 1", committed, committedSub)
	}
}

func TestCycleWithinGroupBackward_StartsAtTail(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{groupItem("G", 10, 11, 12)}, StyleOverlay, ScopeGlobal)
	if !s.CycleWithinGroupBackward() || s.SubSelectedIndex() != 2 {
		t.Errorf("backward first step: subSelected = %d, want 2", s.SubSelectedIndex())
	}
	if !s.CycleWithinGroupBackward() || s.SubSelectedIndex() != 1 {
		t.Errorf("backward second step: subSelected = %d, want 1", s.SubSelectedIndex())
	}
}

func TestNavigation_ClearsSubSelection(t *testing.T) {
	s := NewSession(nil, nil)
	s.Start([]recency.Item{groupItem("G", 10, 11), windowItem(1)}, StyleOverlay, ScopeGlobal)
	s.CycleWithinGroup()
	if s.SubSelectedIndex() == -1 {
		t.Fatal("sub-cycle did not start")
	}
	s.Advance()
	if s.SubSelectedIndex() != -1 {
		t.Errorf("subSelected = %d after Advance, want -1", s.SubSelectedIndex())
	}
}

func TestCommit_GroupWithoutSubSelection(t *testing.T) {
	var committed *group.WindowRecord
	var committedSub int
	s := NewSession(func(w *group.WindowRecord, sub int) {
		committed = w
		committedSub = sub
	}, nil)
	s.Start([]recency.Item{groupItem("G", 10, 11)}, StyleOverlay, ScopeGlobal)
	s.Commit()
	if committed == nil || committed.ID != 10 || committedSub != -1 {
		t.Errorf("committed (%v, %d), want group-active window 10 with sub -1", committed, committedSub)
	}
}
