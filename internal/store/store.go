package store

import (
	"context"
	"sync"

	"eventpass/internal/model"
)

// Store is the persistence boundary for the three record collections.
// Implementations preserve insertion order and replace collections whole;
// there are no partial updates and no cross-collection transactions.
type Store interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	ReplaceUsers(ctx context.Context, users []model.User) error
	LoadEvents(ctx context.Context) ([]model.Event, error)
	ReplaceEvents(ctx context.Context, events []model.Event) error
	LoadAttendance(ctx context.Context) ([]model.AttendanceRecord, error)
	ReplaceAttendance(ctx context.Context, records []model.AttendanceRecord) error
}

// Locks serializes load-modify-save cycles, one writer per collection at a
// time. Every mutating operation holds the collection's lock for its whole
// cycle. The event-delete cascade takes Events before Attendance; all other
// operations lock a single collection.
type Locks struct {
	Users      sync.Mutex
	Events     sync.Mutex
	Attendance sync.Mutex
}
