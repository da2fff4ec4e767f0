package daemon

import (
	"testing"

	"github.com/tabgroupd/tabgroupd/internal/config"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// fakeBackend is an in-memory platform.Backend for manager tests.
type fakeBackend struct {
	windows []platform.Window
	stack   []platform.WindowID
	active  platform.WindowID
	focused []platform.WindowID
}

func (f *fakeBackend) Displays() ([]platform.Display, error)      { return nil, nil }
func (f *fakeBackend) ActiveDisplay() (platform.Display, error)   { return platform.Display{}, nil }
func (f *fakeBackend) ActiveWindow() (platform.WindowID, error)   { return f.active, nil }
func (f *fakeBackend) ListWindows() ([]platform.Window, error)    { return f.windows, nil }
func (f *fakeBackend) StackingOrder() ([]platform.WindowID, error) { return f.stack, nil }
func (f *fakeBackend) FocusWindow(id platform.WindowID) error {
	f.active = id
	f.focused = append(f.focused, id)
	return nil
}
func (f *fakeBackend) Raise(platform.WindowID) error        { return nil }
func (f *fakeBackend) Close(platform.WindowID) error        { return nil }
func (f *fakeBackend) OnFocusChange(platform.FocusFunc) error { return nil }

func newFakeBackend(ids ...platform.WindowID) *fakeBackend {
	f := &fakeBackend{}
	for i, id := range ids {
		f.windows = append(f.windows, platform.Window{
			ID:      id,
			Title:   "win",
			AppName: "app",
			Bounds:  platform.Rect{X: int(id) * 100, Width: 80, Height: 60},
		})
		f.stack = append(f.stack, ids[len(ids)-1-i])
	}
	return f
}

func newTestManager(t *testing.T, backend *fakeBackend) *Manager {
	t.Helper()
	return NewManager(config.DefaultConfig(), backend)
}

func TestCreateGroup_And_List(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	m := newTestManager(t, backend)

	info, err := m.CreateGroup([]platform.WindowID{1, 2}, "work")
	if err != nil {
		t.Fatalf("CreateGroup error: %v", err)
	}
	if info.Name != "work" || len(info.Windows) != 2 {
		t.Errorf("group info = %+v, want 2 windows named work", info)
	}

	if _, err := m.CreateGroup([]platform.WindowID{2, 3}, ""); err == nil {
		t.Error("creating a group with an already-grouped window should fail")
	}
	if _, err := m.CreateGroup([]platform.WindowID{99}, ""); err == nil {
		t.Error("creating a group with an unknown window should fail")
	}
	if groups := m.Groups(); len(groups) != 1 {
		t.Errorf("groups = %d, want 1", len(groups))
	}
}

func TestHandleFocusChange_Routing(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	m := newTestManager(t, backend)
	info, err := m.CreateGroup([]platform.WindowID{1, 2}, "")
	if err != nil {
		t.Fatal(err)
	}

	m.HandleFocusChange(2) // grouped
	m.HandleFocusChange(3) // ungrouped

	groups := m.Groups()
	if groups[0].ActiveIndex != 1 {
		t.Errorf("group activeIndex = %d after focusing window 2, want 1", groups[0].ActiveIndex)
	}

	items, err := m.SwitcherItems()
	if err != nil {
		t.Fatal(err)
	}
	// Window 3 is most recent, then the group.
	if len(items) != 2 {
		t.Fatalf("items = %+v, want 2", items)
	}
	if items[0].Kind != "window" || items[0].Active != 3 {
		t.Errorf("item 0 = %+v, want standalone window 3", items[0])
	}
	if items[1].Kind != "group" || items[1].GroupID != info.ID {
		t.Errorf("item 1 = %+v, want the group", items[1])
	}
	if items[1].Active != 2 {
		t.Errorf("group item active = %d, want most recently focused member 2", items[1].Active)
	}
}

func TestHandleWindowClosed_AutoDissolve(t *testing.T) {
	backend := newFakeBackend(1, 2)
	m := newTestManager(t, backend)
	if _, err := m.CreateGroup([]platform.WindowID{1, 2}, ""); err != nil {
		t.Fatal(err)
	}
	m.HandleWindowClosed(1)
	m.HandleWindowClosed(2)
	if groups := m.Groups(); len(groups) != 0 {
		t.Errorf("groups = %d after all members closed, want 0", len(groups))
	}
}

func TestOpenSwitcher_AdvanceAndCommit(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	m := newTestManager(t, backend)
	m.HandleFocusChange(1)
	m.HandleFocusChange(2)
	m.HandleFocusChange(3)

	// MRU: 3, 2, 1. Opening pre-advances to the second-most-recent.
	if !m.OpenSwitcher() {
		t.Fatal("OpenSwitcher failed")
	}
	if !m.SwitcherActive() {
		t.Fatal("session not active")
	}
	m.CommitSwitcher()
	if m.SwitcherActive() {
		t.Error("session still active after commit")
	}
	if backend.active != 2 {
		t.Errorf("focused window = %d after alt-tab commit, want 2", backend.active)
	}
}

func TestDismissSwitcher_NoFocusChange(t *testing.T) {
	backend := newFakeBackend(1, 2)
	m := newTestManager(t, backend)
	m.HandleFocusChange(1)
	m.HandleFocusChange(2)
	backend.focused = nil

	m.OpenSwitcher()
	m.DismissSwitcher()
	if len(backend.focused) != 0 {
		t.Errorf("dismiss focused windows %v, want none", backend.focused)
	}
}

func TestCycleFocusedGroup(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	m := newTestManager(t, backend)
	if _, err := m.CreateGroup([]platform.WindowID{1, 2, 3}, ""); err != nil {
		t.Fatal(err)
	}
	m.HandleFocusChange(1)
	m.HandleFocusChange(2)
	m.HandleFocusChange(3)
	backend.active = 3

	// History is [3 2 1]: first cycle step lands on 2.
	m.CycleFocusedGroup()
	if backend.active != 2 {
		t.Fatalf("cycled to window %d, want 2", backend.active)
	}
	m.CycleFocusedGroup()
	if backend.active != 1 {
		t.Fatalf("second step cycled to window %d, want 1", backend.active)
	}
	m.EndFocusedGroupCycle()

	// The landing window is now most recent; a fresh cycle starts from it.
	m.CycleFocusedGroup()
	if backend.active != 3 {
		t.Errorf("fresh cycle landed on %d, want 3", backend.active)
	}
}

func TestCycleFocusedGroup_UngroupedNoop(t *testing.T) {
	backend := newFakeBackend(1, 2)
	m := newTestManager(t, backend)
	backend.active = 1
	m.CycleFocusedGroup()
	if len(backend.focused) != 0 {
		t.Errorf("ungrouped cycle focused %v, want nothing", backend.focused)
	}
}

func TestReconcile_PurgesDeadWindows(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	m := newTestManager(t, backend)
	if _, err := m.CreateGroup([]platform.WindowID{1, 2}, ""); err != nil {
		t.Fatal(err)
	}
	m.HandleFocusChange(3)

	// Windows 2 and 3 vanish.
	live := map[platform.WindowID]struct{}{1: {}}
	if removed := m.Reconcile(live); removed != 2 {
		t.Fatalf("Reconcile removed %d, want 2", removed)
	}
	groups := m.Groups()
	if len(groups) != 1 || len(groups[0].Windows) != 1 {
		t.Errorf("groups = %+v, want one group with window 1", groups)
	}
	if removed := m.Reconcile(live); removed != 0 {
		t.Errorf("second Reconcile removed %d, want 0", removed)
	}
}

func TestSwitchTo_UpdatesGroupActive(t *testing.T) {
	backend := newFakeBackend(1, 2)
	m := newTestManager(t, backend)
	if _, err := m.CreateGroup([]platform.WindowID{1, 2}, ""); err != nil {
		t.Fatal(err)
	}
	if err := m.SwitchTo(2); err != nil {
		t.Fatalf("SwitchTo error: %v", err)
	}
	if backend.active != 2 {
		t.Errorf("focused = %d, want 2", backend.active)
	}
	if groups := m.Groups(); groups[0].ActiveIndex != 1 {
		t.Errorf("activeIndex = %d, want 1", groups[0].ActiveIndex)
	}
}
