// Package store persists the task collection as a CSV file and loads it
// back. All disk I/O lives here: one full read at startup, one atomic
// full rewrite after a mutating command. Two racing invocations are
// last-writer-wins; the tool targets a single interactive user and does
// not lock the file.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nullus/nullus/internal/task"
)

// header is the fixed column order of the task file.
var header = []string{
	"id", "status", "desc", "scheduled", "deadline",
	"created", "is_visible", "is_pin", "done_date",
}

// createdLayout is the wire format for the creation timestamp.
const createdLayout = time.RFC3339

// Store reads and writes the task file at a fixed path.
type Store struct {
	path string
}

// New returns a store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the task file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full task collection. A missing file is created empty
// (header row only) and yields an empty collection. A malformed row is
// fatal: the store never drops or guess-fixes bad data.
func (s *Store) Load() (task.List, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, &task.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	head, err := r.Read()
	if err == io.EOF {
		// Zero-byte file, e.g. truncated by hand. Treat as empty.
		return nil, nil
	}
	if err != nil {
		return nil, &task.StorageError{Op: "load", Path: s.path, Err: err}
	}
	if !equalHeader(head) {
		return nil, &task.StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("unexpected header %q", head)}
	}

	var tasks task.List
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &task.StorageError{Op: "load", Path: s.path, Err: err}
		}
		t, err := parseRecord(record)
		if err != nil {
			return nil, &task.StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("row %d: %w", line, err)}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Save rewrites the full collection, hidden rows included. The file is
// written to a temp file in the same directory and renamed over the old
// one, so a failed write leaves the previous file intact.
func (s *Store) Save(tasks task.List) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}
	for _, t := range tasks {
		if err := w.Write(formatRecord(t)); err != nil {
			tmp.Close()
			return &task.StorageError{Op: "save", Path: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &task.StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func equalHeader(record []string) bool {
	if len(record) != len(header) {
		return false
	}
	for i, col := range header {
		if record[i] != col {
			return false
		}
	}
	return true
}

// parseRecord decodes one CSV row into a Task.
func parseRecord(record []string) (task.Task, error) {
	var t task.Task
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return t, fmt.Errorf("id %q: not an integer", record[0])
	}
	t.ID = id

	switch task.Status(record[1]) {
	case task.StatusTodo, task.StatusDone:
		t.Status = task.Status(record[1])
	default:
		return t, fmt.Errorf("status %q: want TODO or DONE", record[1])
	}

	t.Desc = record[2]

	if t.Scheduled, err = parseDateField("scheduled", record[3]); err != nil {
		return t, err
	}
	if t.Deadline, err = parseDateField("deadline", record[4]); err != nil {
		return t, err
	}

	created, err := time.Parse(createdLayout, record[5])
	if err != nil {
		return t, fmt.Errorf("created %q: %w", record[5], err)
	}
	t.Created = created

	if t.Visible, err = parseBoolField("is_visible", record[6]); err != nil {
		return t, err
	}
	if t.Pinned, err = parseBoolField("is_pin", record[7]); err != nil {
		return t, err
	}
	if t.DoneDate, err = parseDateField("done_date", record[8]); err != nil {
		return t, err
	}
	return t, nil
}

// formatRecord encodes one Task as a CSV row. encoding/csv quotes
// descriptions containing the delimiter or newlines.
func formatRecord(t task.Task) []string {
	return []string{
		strconv.Itoa(t.ID),
		string(t.Status),
		t.Desc,
		t.Scheduled.String(),
		t.Deadline.String(),
		t.Created.Format(createdLayout),
		strconv.FormatBool(t.Visible),
		strconv.FormatBool(t.Pinned),
		t.DoneDate.String(),
	}
}

func parseDateField(name, value string) (task.Date, error) {
	if value == "" {
		return task.Date{}, nil
	}
	d, err := task.ParseDate(value)
	if err != nil {
		return task.Date{}, fmt.Errorf("%s %q: %w", name, value, err)
	}
	return d, nil
}

// parseBoolField accepts only the two tokens the store writes.
func parseBoolField(name, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s %q: want true or false", name, value)
	}
}
