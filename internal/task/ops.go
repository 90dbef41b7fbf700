package task

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
)

// List is an ordered task collection. Operations are pure: they validate
// their inputs first, then work on a copy, so a failed call never leaves
// the caller's collection partially mutated.
type List []Task

// Visible returns the visible subset in display order.
func (l List) Visible() List {
	var out List
	for _, t := range l {
		if t.Visible {
			out = append(out, t)
		}
	}
	return out.DisplayOrder()
}

// DisplayOrder returns a copy sorted for presentation: pinned tasks
// first, then ascending id.
func (l List) DisplayOrder() List {
	out := slices.Clone(l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Renumber reassigns ids after the active set changes. Rows sort
// visible-first, pinned-first, then by previous id (stable), and are
// numbered 1..N across the whole collection, so the visible subset gets
// the contiguous range 1..N_active and hidden rows stay uniquely
// addressable for dump and purge.
func (l List) Renumber() List {
	out := slices.Clone(l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Visible != out[j].Visible {
			return out[i].Visible
		}
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].ID < out[j].ID
	})
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// Filter returns the visible tasks whose description matches pattern,
// case-insensitively. An empty pattern matches everything.
func (l List) Filter(pattern string) (List, error) {
	return l.Visible().match(pattern)
}

// Dump returns every task, visible and hidden, in display order.
func (l List) Dump() List {
	return l.DisplayOrder()
}

// Dumpr returns every task, visible and hidden, whose description
// matches pattern.
func (l List) Dumpr(pattern string) (List, error) {
	return l.DisplayOrder().match(pattern)
}

func (l List) match(pattern string) (List, error) {
	if pattern == "" {
		return l, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &ValidationError{Field: "regex", Err: err}
	}
	var out List
	for _, t := range l {
		if re.MatchString(t.Desc) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Add appends one task per description and renumbers. Descriptions must
// be non-empty.
func (l List) Add(now time.Time, descs ...string) (List, error) {
	for _, desc := range descs {
		if strings.TrimSpace(desc) == "" {
			return nil, &ValidationError{Field: "description", Err: fmt.Errorf("must not be empty")}
		}
	}
	out := slices.Clone(l)
	next := 0
	for _, t := range out {
		if t.ID > next {
			next = t.ID
		}
	}
	for _, desc := range descs {
		next++
		out = append(out, Task{
			ID:      next,
			Status:  StatusTodo,
			Desc:    desc,
			Created: now,
			Visible: true,
		})
	}
	return out.Renumber(), nil
}

// Update replaces the description of the visible task holding id.
func (l List) Update(id int, desc string) (List, error) {
	if strings.TrimSpace(desc) == "" {
		return nil, &ValidationError{Field: "description", Err: fmt.Errorf("must not be empty")}
	}
	idx, err := l.visibleIndexes(id)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	out[idx[id]].Desc = desc
	return out, nil
}

// ToggleDone flips completion for each referenced visible task and
// renumbers. Completing stamps the done date; un-completing clears it
// and restores visibility for the toggled rows. Applying the operation
// twice restores the prior state.
func (l List) ToggleDone(now time.Time, ids ...int) (List, error) {
	idx, err := l.visibleIndexes(ids...)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	for _, i := range idx {
		if out[i].Done() {
			out[i].Status = StatusTodo
			out[i].DoneDate = Date{}
			out[i].Visible = true
		} else {
			out[i].Status = StatusDone
			out[i].DoneDate = DateOf(now)
		}
	}
	return out.Renumber(), nil
}

// Schedule sets the scheduled date on each referenced visible task.
// With no ids it validates only and applies to none.
func (l List) Schedule(date Date, ids ...int) (List, error) {
	idx, err := l.visibleIndexes(ids...)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	for _, i := range idx {
		out[i].Scheduled = date
	}
	return out, nil
}

// SetDeadline sets the deadline date on each referenced visible task.
// With no ids it validates only and applies to none.
func (l List) SetDeadline(date Date, ids ...int) (List, error) {
	idx, err := l.visibleIndexes(ids...)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	for _, i := range idx {
		out[i].Deadline = date
	}
	return out, nil
}

// Pin toggles the pinned flag on each referenced visible task. Pinning
// affects listing order, not the id set, so no renumbering happens.
func (l List) Pin(ids ...int) (List, error) {
	idx, err := l.visibleIndexes(ids...)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	for _, i := range idx {
		out[i].Pinned = !out[i].Pinned
	}
	return out, nil
}

// Delete toggles visibility for each referenced storage id and
// renumbers. Deleting a visible task soft-deletes it; deleting a hidden
// storage id (as shown by Dump) re-shows it.
func (l List) Delete(ids ...int) (List, error) {
	idx, err := l.storageIndexes(ids...)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	for _, i := range idx {
		out[i].Visible = !out[i].Visible
	}
	return out.Renumber(), nil
}

// Prune soft-deletes every completed task and renumbers.
func (l List) Prune() List {
	out := slices.Clone(l)
	for i := range out {
		if out[i].Done() {
			out[i].Visible = false
		}
	}
	return out.Renumber()
}

// Purge permanently removes the rows holding the referenced storage
// ids. This is the only operation that drops rows; ids are not
// reassigned so the remaining storage ids stay addressable.
func (l List) Purge(ids ...int) (List, error) {
	idx, err := l.storageIndexes(ids...)
	if err != nil {
		return nil, err
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	var out List
	for i, t := range l {
		if !drop[i] {
			out = append(out, t)
		}
	}
	return out, nil
}

// visibleIndexes maps each id to its slice index, requiring every id to
// reference a visible task. All ids are checked before any caller
// mutates, so an out-of-range id leaves the collection untouched.
func (l List) visibleIndexes(ids ...int) (map[int]int, error) {
	idx := make(map[int]int, len(ids))
	for _, id := range ids {
		found := false
		for i := range l {
			if l[i].Visible && l[i].ID == id {
				idx[id] = i
				found = true
				break
			}
		}
		if !found {
			return nil, &NotFoundError{ID: id}
		}
	}
	return idx, nil
}

// storageIndexes maps each id to its slice index over all rows, visible
// or hidden.
func (l List) storageIndexes(ids ...int) (map[int]int, error) {
	idx := make(map[int]int, len(ids))
	for _, id := range ids {
		found := false
		for i := range l {
			if l[i].ID == id {
				idx[id] = i
				found = true
				break
			}
		}
		if !found {
			return nil, &NotFoundError{ID: id}
		}
	}
	return idx, nil
}
