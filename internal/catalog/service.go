package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventpass/internal/model"
	"eventpass/internal/store"
)

// Service manages event definitions and lifecycle status.
type Service struct {
	store store.Store
	locks *store.Locks
}

// New creates an event catalog over the given store.
func New(st store.Store, locks *store.Locks) *Service {
	return &Service{store: st, locks: locks}
}

// List returns all events in insertion order.
func (s *Service) List(ctx context.Context) ([]model.Event, error) {
	return s.store.LoadEvents(ctx)
}

// CreateParams carries the required event content fields.
type CreateParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// Create adds an event. All five content fields are required; status
// defaults to active.
func (s *Service) Create(ctx context.Context, p CreateParams) (model.Event, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" || p.Description == "" ||
		strings.TrimSpace(p.Date) == "" ||
		strings.TrimSpace(p.StartTime) == "" ||
		strings.TrimSpace(p.EndTime) == "" {
		return model.Event{}, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}

	s.locks.Events.Lock()
	defer s.locks.Events.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Event{}, err
	}
	evt := model.Event{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Description: p.Description,
		Date:        p.Date,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.ReplaceEvents(ctx, append(events, evt)); err != nil {
		return model.Event{}, err
	}
	return evt, nil
}

// UpdatePatch carries the mutable event fields; nil pointers leave the
// field untouched.
type UpdatePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Status      *string `json:"status"`
}

// Update applies a patch to an existing event.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch) (model.Event, error) {
	s.locks.Events.Lock()
	defer s.locks.Events.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Event{}, err
	}
	idx := -1
	for i := range events {
		if events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Event{}, model.ErrNotFound
	}

	evt := events[idx]
	if patch.Name != nil {
		evt.Name = *patch.Name
	}
	if patch.Description != nil {
		evt.Description = *patch.Description
	}
	if patch.Date != nil {
		evt.Date = *patch.Date
	}
	if patch.StartTime != nil {
		evt.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		evt.EndTime = *patch.EndTime
	}
	if patch.Status != nil {
		evt.Status = *patch.Status
	}

	events[idx] = evt
	if err := s.store.ReplaceEvents(ctx, events); err != nil {
		return model.Event{}, err
	}
	return evt, nil
}

// Delete removes an event and cascades into the attendance ledger,
// dropping every record that references it. Deleting an unknown id is not
// an error. Locks are taken Events then Attendance, the one fixed order
// used anywhere both are held.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Events.Lock()
	defer s.locks.Events.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return err
	}
	kept := events[:0]
	for _, e := range events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if err := s.store.ReplaceEvents(ctx, kept); err != nil {
		return err
	}

	s.locks.Attendance.Lock()
	defer s.locks.Attendance.Unlock()

	records, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return err
	}
	keptRecords := records[:0]
	for _, r := range records {
		if r.EventID != id {
			keptRecords = append(keptRecords, r)
		}
	}
	return s.store.ReplaceAttendance(ctx, keptRecords)
}
