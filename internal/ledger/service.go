package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventpass/internal/model"
	"eventpass/internal/store"
)

// Service manages check-in records: one per (event, student), gated on the
// student being verified.
type Service struct {
	store store.Store
	locks *store.Locks
}

// New creates an attendance ledger over the given store.
func New(st store.Store, locks *store.Locks) *Service {
	return &Service{store: st, locks: locks}
}

// List returns all attendance records in insertion order.
func (s *Service) List(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.store.LoadAttendance(ctx)
}

// Record checks a student in to an event. Checks run in a fixed order:
// required ids, duplicate pair, student existence, verification status.
// Event ids are not validated against the catalog; a record references its
// event by id only.
func (s *Service) Record(ctx context.Context, eventID, studentID string) (model.AttendanceRecord, error) {
	if eventID == "" || studentID == "" {
		return model.AttendanceRecord{}, fmt.Errorf("%w: event id and student id required", model.ErrValidation)
	}

	s.locks.Attendance.Lock()
	defer s.locks.Attendance.Unlock()

	records, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	for _, r := range records {
		if r.EventID == eventID && r.StudentID == studentID {
			return model.AttendanceRecord{}, model.ErrDuplicateAttendance
		}
	}

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	var student *model.User
	for i := range users {
		if users[i].ID == studentID {
			student = &users[i]
			break
		}
	}
	if student == nil {
		return model.AttendanceRecord{}, model.ErrStudentNotFound
	}
	if student.Status != model.StatusVerified {
		return model.AttendanceRecord{}, model.ErrNotVerified
	}

	rec := model.AttendanceRecord{
		ID:           uuid.NewString(),
		EventID:      eventID,
		StudentID:    studentID,
		StudentName:  student.FullName(),
		StudentPhoto: student.ProfilePhoto,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.store.ReplaceAttendance(ctx, append(records, rec)); err != nil {
		return model.AttendanceRecord{}, err
	}
	return rec, nil
}

// Delete removes a record. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Attendance.Lock()
	defer s.locks.Attendance.Unlock()

	records, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return s.store.ReplaceAttendance(ctx, kept)
}
