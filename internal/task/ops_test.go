package task

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

// active builds a visible TODO task.
func active(id int, desc string) Task {
	return Task{ID: id, Status: StatusTodo, Desc: desc, Created: testNow, Visible: true}
}

func TestAddToEmptyStore(t *testing.T) {
	var l List

	got, err := l.Add(testNow, "buy milk")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	visible := got.Visible()
	if len(visible) != 1 {
		t.Fatalf("visible count: got %d, want 1", len(visible))
	}
	if visible[0].ID != 1 {
		t.Errorf("ID: got %d, want 1", visible[0].ID)
	}
	if visible[0].Done() {
		t.Error("new task should not be done")
	}
	if visible[0].Desc != "buy milk" {
		t.Errorf("Desc: got %q, want %q", visible[0].Desc, "buy milk")
	}
	if !visible[0].Visible {
		t.Error("new task should be visible")
	}
	if visible[0].Created != testNow {
		t.Errorf("Created: got %v, want %v", visible[0].Created, testNow)
	}
}

func TestAddMultiplePreservesOrder(t *testing.T) {
	l := List{active(1, "first")}

	got, err := l.Add(testNow, "second", "third")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	visible := got.Visible()
	want := []string{"first", "second", "third"}
	if len(visible) != len(want) {
		t.Fatalf("visible count: got %d, want %d", len(visible), len(want))
	}
	for i, desc := range want {
		if visible[i].Desc != desc {
			t.Errorf("task %d: got %q, want %q", i+1, visible[i].Desc, desc)
		}
		if visible[i].ID != i+1 {
			t.Errorf("task %q: got id %d, want %d", desc, visible[i].ID, i+1)
		}
	}
}

func TestAddEmptyDescription(t *testing.T) {
	var l List
	for _, desc := range []string{"", "   "} {
		if _, err := l.Add(testNow, desc); err == nil {
			t.Errorf("Add(%q): expected error", desc)
		} else {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Add(%q): got %T, want *ValidationError", desc, err)
			}
		}
	}
}

func TestRenumberInvariant(t *testing.T) {
	l := List{
		{ID: 7, Status: StatusTodo, Desc: "a", Visible: true},
		{ID: 3, Status: StatusDone, Desc: "b", Visible: false},
		{ID: 5, Status: StatusTodo, Desc: "c", Visible: true, Pinned: true},
		{ID: 9, Status: StatusTodo, Desc: "d", Visible: true},
		{ID: 2, Status: StatusTodo, Desc: "e", Visible: true, Pinned: true},
	}

	got := l.Renumber()

	// Visible ids must form 1..N_active with pinned tasks first.
	visible := got.Visible()
	if len(visible) != 4 {
		t.Fatalf("visible count: got %d, want 4", len(visible))
	}
	wantOrder := []string{"e", "c", "a", "d"} // pinned by prior id, then unpinned by prior id
	for i, desc := range wantOrder {
		if visible[i].ID != i+1 {
			t.Errorf("position %d: got id %d, want %d", i, visible[i].ID, i+1)
		}
		if visible[i].Desc != desc {
			t.Errorf("position %d: got %q, want %q", i, visible[i].Desc, desc)
		}
	}

	// Hidden rows keep unique ids past the visible range.
	ids := map[int]bool{}
	for _, tk := range got {
		if ids[tk.ID] {
			t.Errorf("duplicate id %d", tk.ID)
		}
		ids[tk.ID] = true
		if !tk.Visible && tk.ID <= 4 {
			t.Errorf("hidden row %q holds visible-range id %d", tk.Desc, tk.ID)
		}
	}
}

func TestToggleDoneIsIdempotentPair(t *testing.T) {
	l := List{active(1, "a"), active(2, "b")}

	once, err := l.ToggleDone(testNow, 1)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	first := once.mustByDesc(t, "a")
	if !first.Done() {
		t.Fatal("task should be done after first toggle")
	}
	if first.DoneDate.IsZero() {
		t.Error("done date should be stamped")
	}

	twice, err := once.ToggleDone(testNow, first.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	second := twice.mustByDesc(t, "a")
	if second.Done() {
		t.Error("task should be back to TODO after second toggle")
	}
	if !second.DoneDate.IsZero() {
		t.Error("done date should be cleared")
	}
	if !second.Visible {
		t.Error("task should be visible again")
	}
}

func TestDonePruneScenario(t *testing.T) {
	l := List{active(1, "first"), active(2, "second")}

	done, err := l.ToggleDone(testNow, 1)
	if err != nil {
		t.Fatalf("ToggleDone failed: %v", err)
	}
	pruned := done.Prune()

	visible := pruned.Visible()
	if len(visible) != 1 {
		t.Fatalf("visible count: got %d, want 1", len(visible))
	}
	if visible[0].Desc != "second" || visible[0].ID != 1 {
		t.Errorf("got %q id %d, want %q id 1", visible[0].Desc, visible[0].ID, "second")
	}

	// The pruned task still appears under dump.
	dumped := pruned.Dump()
	if len(dumped) != 2 {
		t.Fatalf("dump count: got %d, want 2", len(dumped))
	}
	hidden := pruned.mustByDesc(t, "first")
	if hidden.Visible {
		t.Error("pruned task should be hidden")
	}
}

func TestScheduleValidationAndNotFound(t *testing.T) {
	l := List{active(1, "a")}

	// Out-of-range id fails with NotFoundError and mutates nothing.
	before := append(List(nil), l...)
	if _, err := l.Schedule(mustDate(t, "2025-01-01"), 3); err == nil {
		t.Fatal("expected error for unknown id")
	} else {
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("got %T, want *NotFoundError", err)
		}
		if nf.ID != 3 {
			t.Errorf("NotFoundError.ID: got %d, want 3", nf.ID)
		}
	}
	if !reflect.DeepEqual(l, before) {
		t.Error("failed operation mutated the collection")
	}

	// With no ids the date applies to none.
	same, err := l.Schedule(mustDate(t, "2025-01-01"))
	if err != nil {
		t.Fatalf("zero-id schedule failed: %v", err)
	}
	if !same.mustByDesc(t, "a").Scheduled.IsZero() {
		t.Error("zero-id schedule should touch no rows")
	}

	got, err := l.Schedule(mustDate(t, "2025-01-01"), 1)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if got.mustByDesc(t, "a").Scheduled.String() != "2025-01-01" {
		t.Errorf("Scheduled: got %q, want 2025-01-01", got.mustByDesc(t, "a").Scheduled)
	}
	// Scheduling does not renumber.
	if got.mustByDesc(t, "a").ID != 1 {
		t.Error("schedule must not reassign ids")
	}
}

func TestSetDeadline(t *testing.T) {
	l := List{active(1, "a"), active(2, "b")}

	got, err := l.SetDeadline(mustDate(t, "2025-12-31"), 2)
	if err != nil {
		t.Fatalf("SetDeadline failed: %v", err)
	}
	if got.mustByDesc(t, "b").Deadline.String() != "2025-12-31" {
		t.Errorf("Deadline: got %q", got.mustByDesc(t, "b").Deadline)
	}
	if !got.mustByDesc(t, "a").Deadline.IsZero() {
		t.Error("unreferenced task gained a deadline")
	}
}

func TestPinToggle(t *testing.T) {
	l := List{active(1, "a"), active(2, "b")}

	pinned, err := l.Pin(2)
	if err != nil {
		t.Fatalf("Pin failed: %v", err)
	}
	if !pinned.mustByDesc(t, "b").Pinned {
		t.Fatal("task should be pinned")
	}
	// Pinning affects listing order, not ids.
	if pinned.mustByDesc(t, "b").ID != 2 {
		t.Error("pin must not reassign ids")
	}
	order := pinned.Visible()
	if order[0].Desc != "b" {
		t.Errorf("pinned task should list first, got %q", order[0].Desc)
	}

	unpinned, err := pinned.Pin(2)
	if err != nil {
		t.Fatalf("second Pin failed: %v", err)
	}
	if unpinned.mustByDesc(t, "b").Pinned {
		t.Error("second pin should toggle back")
	}
}

func TestDeleteToggleReshows(t *testing.T) {
	l := List{active(1, "a"), active(2, "b")}

	deleted, err := l.Delete(1)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(deleted.Visible()) != 1 {
		t.Fatalf("visible count after delete: got %d, want 1", len(deleted.Visible()))
	}

	// The hidden row keeps a unique storage id; deleting it again
	// re-shows it.
	hidden := deleted.mustByDesc(t, "a")
	if hidden.Visible {
		t.Fatal("deleted task should be hidden")
	}
	restored, err := deleted.Delete(hidden.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if !restored.mustByDesc(t, "a").Visible {
		t.Error("second delete should re-show the task")
	}
	if len(restored.Visible()) != 2 {
		t.Errorf("visible count after re-show: got %d, want 2", len(restored.Visible()))
	}
}

func TestPurgeRemovesPermanently(t *testing.T) {
	l := List{active(1, "a"), active(2, "b"), active(3, "c")}

	// Soft delete keeps the row under dump.
	deleted, err := l.Delete(3)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(deleted.Dump()) != 3 {
		t.Fatalf("dump after delete: got %d rows, want 3", len(deleted.Dump()))
	}

	hidden := deleted.mustByDesc(t, "c")
	purged, err := deleted.Purge(hidden.ID)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if len(purged.Dump()) != 2 {
		t.Fatalf("dump after purge: got %d rows, want 2", len(purged.Dump()))
	}
	for _, tk := range purged {
		if tk.Desc == "c" {
			t.Error("purged row still present")
		}
	}

	// Unknown storage id fails without mutating.
	if _, err := purged.Purge(99); err == nil {
		t.Error("expected NotFoundError for unknown storage id")
	}
}

func TestUpdateDescription(t *testing.T) {
	l := List{active(1, "old")}

	got, err := l.Update(1, "new")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got[0].Desc != "new" {
		t.Errorf("Desc: got %q, want %q", got[0].Desc, "new")
	}

	if _, err := l.Update(2, "x"); err == nil {
		t.Error("expected NotFoundError for unknown id")
	}
	if _, err := l.Update(1, "  "); err == nil {
		t.Error("expected ValidationError for blank description")
	}
}

func TestHiddenTasksNotAddressable(t *testing.T) {
	l := List{active(1, "a"), active(2, "b")}
	deleted, err := l.Delete(1)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	hiddenID := deleted.mustByDesc(t, "a").ID

	// Visible-addressed operations reject the hidden storage id.
	if _, err := deleted.ToggleDone(testNow, hiddenID); err == nil {
		t.Error("ToggleDone should not reach hidden rows")
	}
	if _, err := deleted.Pin(hiddenID); err == nil {
		t.Error("Pin should not reach hidden rows")
	}
	if _, err := deleted.Update(hiddenID, "x"); err == nil {
		t.Error("Update should not reach hidden rows")
	}
}

func TestFilter(t *testing.T) {
	l := List{active(1, "Buy milk"), active(2, "walk dog"), active(3, "buy bread")}
	hidden, err := l.Delete(3)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty pattern matches all visible", "", []string{"Buy milk", "walk dog"}},
		{"case insensitive", "buy", []string{"Buy milk"}},
		{"anchored", "^walk", []string{"walk dog"}},
		{"no match", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hidden.Filter(tt.pattern)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			var descs []string
			for _, tk := range got {
				descs = append(descs, tk.Desc)
			}
			if !reflect.DeepEqual(descs, tt.want) {
				t.Errorf("got %v, want %v", descs, tt.want)
			}
		})
	}

	if _, err := l.Filter("("); err == nil {
		t.Error("expected ValidationError for bad regex")
	}
}

func TestDumpr(t *testing.T) {
	l := List{active(1, "visible milk"), active(2, "other")}
	hidden, err := l.Delete(1)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := hidden.Dumpr("milk")
	if err != nil {
		t.Fatalf("Dumpr failed: %v", err)
	}
	if len(got) != 1 || got[0].Desc != "visible milk" {
		t.Fatalf("Dumpr should match hidden rows too, got %v", got)
	}
}

// mustByDesc finds the task with the given description.
func (l List) mustByDesc(t *testing.T, desc string) Task {
	t.Helper()
	for _, tk := range l {
		if tk.Desc == desc {
			return tk
		}
	}
	t.Fatalf("no task with description %q", desc)
	return Task{}
}
