package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eventpass/internal/model"
)

const (
	usersFile      = "users.json"
	eventsFile     = "events.json"
	attendanceFile = "attendance.json"
)

// File persists each collection as a JSON array in its own file under a
// data directory. A missing file loads as an empty collection (first boot);
// any other read problem, including corrupt JSON, surfaces as
// model.ErrStoreUnavailable rather than being swallowed.
type File struct {
	dir string
}

// NewFile creates the data directory if needed and returns a file store.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", model.ErrStoreUnavailable, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) LoadUsers(context.Context) ([]model.User, error) {
	return readAll[model.User](f, usersFile)
}

func (f *File) ReplaceUsers(_ context.Context, users []model.User) error {
	return writeAll(f, usersFile, users)
}

func (f *File) LoadEvents(context.Context) ([]model.Event, error) {
	return readAll[model.Event](f, eventsFile)
}

func (f *File) ReplaceEvents(_ context.Context, events []model.Event) error {
	return writeAll(f, eventsFile, events)
}

func (f *File) LoadAttendance(context.Context) ([]model.AttendanceRecord, error) {
	return readAll[model.AttendanceRecord](f, attendanceFile)
}

func (f *File) ReplaceAttendance(_ context.Context, records []model.AttendanceRecord) error {
	return writeAll(f, attendanceFile, records)
}

func readAll[T any](f *File, name string) ([]T, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrStoreUnavailable, name, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", model.ErrStoreUnavailable, name, err)
	}
	return records, nil
}

// writeAll replaces a collection file via temp-file rename so a crashed
// write never leaves a half-serialized collection behind.
func writeAll[T any](f *File, name string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", model.ErrStoreUnavailable, name, err)
	}
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", model.ErrStoreUnavailable, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", model.ErrStoreUnavailable, name, err)
	}
	return nil
}
