package recency

import (
	"reflect"
	"testing"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

func TestRecordActivation_MoveToFront(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(10))
	tr.RecordActivation(GroupEntry("G"))
	tr.RecordActivation(WindowEntry(10))

	if tr.Len() != 2 {
		t.Fatalf("len = %d, want 2", tr.Len())
	}
	if got := tr.Entries()[0]; got != WindowEntry(10) {
		t.Errorf("head = %+v, want Window(10)", got)
	}
}

func TestRecordActivation_Idempotent(t *testing.T) {
	tr := NewTracker()
	e := GroupWindowEntry("G", 5)
	tr.RecordActivation(e)
	after := tr.Len()
	tr.RecordActivation(e)
	if tr.Len() != after {
		t.Errorf("len = %d after repeat activation, want %d", tr.Len(), after)
	}
	if tr.Entries()[0] != e {
		t.Errorf("head = %+v, want %+v", tr.Entries()[0], e)
	}
}

func TestAppendIfMissing_NeverPromotes(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(1))
	tr.RecordActivation(WindowEntry(2))
	// Window 1 sighted again passively: order must not change.
	tr.AppendIfMissing(WindowEntry(1))
	want := []Entry{WindowEntry(2), WindowEntry(1)}
	if got := tr.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	tr.AppendIfMissing(WindowEntry(3))
	if got := tr.Entries()[2]; got != WindowEntry(3) {
		t.Errorf("tail = %+v, want Window(3)", got)
	}
}

func TestCapEviction(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < MaxEntries+10; i++ {
		tr.RecordActivation(WindowEntry(platform.WindowID(i + 1)))
	}
	if tr.Len() != MaxEntries {
		t.Fatalf("len = %d, want cap %d", tr.Len(), MaxEntries)
	}
	// The oldest activations fell off the tail.
	entries := tr.Entries()
	if entries[len(entries)-1] != WindowEntry(11) {
		t.Errorf("tail = %+v, want Window(11)", entries[len(entries)-1])
	}

	tr2 := NewTracker()
	for i := 0; i < MaxEntries+10; i++ {
		tr2.AppendIfMissing(WindowEntry(platform.WindowID(i + 1)))
	}
	if tr2.Len() != MaxEntries {
		t.Errorf("AppendIfMissing len = %d, want cap %d", tr2.Len(), MaxEntries)
	}
}

func TestRemoveWindow_PurgesAllVariants(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(WindowEntry(7))
	tr.RecordActivation(GroupWindowEntry("G", 7))
	tr.RecordActivation(GroupEntry("G"))
	tr.RemoveWindow(7)
	for _, e := range tr.Entries() {
		if e.Window == 7 {
			t.Errorf("entry %+v still references window 7", e)
		}
	}
	if tr.Len() != 1 {
		t.Errorf("len = %d, want 1 (the Group entry)", tr.Len())
	}
}

func TestRemoveGroup_PurgesAllVariants(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(GroupEntry("G"))
	tr.RecordActivation(GroupWindowEntry("G", 1))
	tr.RecordActivation(GroupWindowEntry("G", 2))
	tr.RecordActivation(WindowEntry(1))
	tr.RemoveGroup("G")
	if tr.Len() != 1 {
		t.Fatalf("len = %d, want 1", tr.Len())
	}
	if tr.Entries()[0] != WindowEntry(1) {
		t.Errorf("survivor = %+v, want Window(1)", tr.Entries()[0])
	}
}

func TestMRUGroupOrder(t *testing.T) {
	tr := NewTracker()
	tr.RecordActivation(GroupWindowEntry("A", 1))
	tr.RecordActivation(WindowEntry(9))
	tr.RecordActivation(GroupEntry("B"))
	tr.RecordActivation(GroupWindowEntry("A", 2)) // promotes A
	want := []group.ID{"A", "B"}
	if got := tr.MRUGroupOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("MRUGroupOrder = %v, want %v", got, want)
	}
}
