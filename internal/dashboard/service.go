package dashboard

import (
	"context"

	"eventpass/internal/model"
	"eventpass/internal/store"
)

// Service derives summary counts from the three collections. Pure read.
type Service struct {
	store store.Store
}

// New creates a dashboard aggregator over the given store.
func New(st store.Store) *Service { return &Service{store: st} }

// Summary counts students by verification status plus total events and
// attendance records, as of the store contents at call time.
func (s *Service) Summary(ctx context.Context) (model.Summary, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	records, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return model.Summary{}, err
	}

	var sum model.Summary
	for _, u := range users {
		if u.Role != model.RoleStudent {
			continue
		}
		sum.TotalStudents++
		switch u.Status {
		case model.StatusPending:
			sum.PendingStudents++
		case model.StatusVerified:
			sum.VerifiedStudents++
		}
	}
	sum.TotalEvents = len(events)
	sum.TotalAttendance = len(records)
	return sum, nil
}
