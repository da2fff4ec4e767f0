package snapshot

import (
	"testing"

	"github.com/adrg/xdg"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

func useTempConfigDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

func sampleGroup(t *testing.T) *group.TabGroup {
	t.Helper()
	g := group.NewTabGroup("g1", []*group.WindowRecord{
		{ID: 1, AppID: "org.mozilla.firefox", Title: "Docs", AppName: "Firefox", PinState: group.Pinned},
		{ID: 2, AppID: "org.gnome.Terminal", Title: "~", AppName: "Terminal"},
	}, platform.Rect{X: 10, Y: 20, Width: 800, Height: 600})
	if g == nil {
		t.Fatal("NewTabGroup returned nil")
	}
	g.SetName("work")
	return g
}

func TestCapture(t *testing.T) {
	g := sampleGroup(t)
	snap := Capture("morning", g, "DP-1")
	if snap == nil {
		t.Fatal("Capture returned nil")
	}
	if snap.Name != "morning" || snap.GroupName != "work" || snap.Display != "DP-1" {
		t.Errorf("snapshot header = %+v", snap)
	}
	if len(snap.Windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(snap.Windows))
	}
	if snap.Windows[0].PinState != "pinned" {
		t.Errorf("pin state = %q, want pinned", snap.Windows[0].PinState)
	}
	if snap.Frame.Width != 800 {
		t.Errorf("frame = %+v", snap.Frame)
	}
}

func TestWriteReadListDelete(t *testing.T) {
	useTempConfigDir(t)
	snap := Capture("evening", sampleGroup(t), "")

	if err := Write(snap); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	got, err := Read("evening")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if got.GroupName != "work" || len(got.Windows) != 2 {
		t.Errorf("read back %+v", got)
	}

	names, err := List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(names) != 1 || names[0] != "evening" {
		t.Errorf("List = %v, want [evening]", names)
	}

	if err := Delete("evening"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if names, _ := List(); len(names) != 0 {
		t.Errorf("List after delete = %v, want empty", names)
	}
	if _, err := Read("evening"); err == nil {
		t.Error("Read after delete should fail")
	}
}

func TestInvalidNames(t *testing.T) {
	useTempConfigDir(t)
	for _, name := range []string{"", " ", "..", "a/b", "../escape"} {
		if err := Write(&GroupSnapshot{Name: name}); err == nil {
			t.Errorf("Write(%q) should fail", name)
		}
	}
}

func TestListMissingDirectory(t *testing.T) {
	useTempConfigDir(t)
	names, err := List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if names != nil {
		t.Errorf("List = %v, want nil", names)
	}
}

func TestMatchWindows(t *testing.T) {
	snap := &GroupSnapshot{
		Windows: []WindowSnapshot{
			{Window: 1, AppID: "org.mozilla.firefox", Title: "Docs"},
			{Separator: true},
			{Window: 2, AppID: "org.gnome.Terminal", Title: "~"},
			{Window: 3, AppID: "org.mozilla.firefox", Title: "Mail"},
		},
	}
	live := []platform.Window{
		{ID: 10, AppID: "org.gnome.Terminal", Title: "build"},
		{ID: 11, AppID: "org.mozilla.firefox", Title: "Mail"},
		{ID: 12, AppID: "org.mozilla.firefox", Title: "News"},
	}

	matches := snap.MatchWindows(live)
	// Exact title match wins first: entry 3 takes window 11, entry 0
	// falls back to the remaining firefox window. The separator gets
	// nothing.
	if matches[3] != 11 {
		t.Errorf("entry 3 matched %d, want 11", matches[3])
	}
	if matches[0] != 12 {
		t.Errorf("entry 0 matched %d, want 12", matches[0])
	}
	if matches[2] != 10 {
		t.Errorf("entry 2 matched %d, want 10", matches[2])
	}
	if _, ok := matches[1]; ok {
		t.Error("separator entry should not match")
	}
}
