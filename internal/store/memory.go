package store

import (
	"context"
	"slices"
	"sync"

	"eventpass/internal/model"
)

// Memory is an in-memory Store for tests and development.
type Memory struct {
	mu         sync.RWMutex
	users      []model.User
	events     []model.Event
	attendance []model.AttendanceRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LoadUsers(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.users), nil
}

func (m *Memory) ReplaceUsers(_ context.Context, users []model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = slices.Clone(users)
	return nil
}

func (m *Memory) LoadEvents(context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events), nil
}

func (m *Memory) ReplaceEvents(_ context.Context, events []model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = slices.Clone(events)
	return nil
}

func (m *Memory) LoadAttendance(context.Context) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.attendance), nil
}

func (m *Memory) ReplaceAttendance(_ context.Context, records []model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance = slices.Clone(records)
	return nil
}
