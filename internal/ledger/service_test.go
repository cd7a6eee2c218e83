package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"eventpass/internal/ledger"
	"eventpass/internal/model"
	"eventpass/internal/store"
)

func newLedger(t *testing.T) (*ledger.Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return ledger.New(st, &store.Locks{}), st
}

func seedStudent(t *testing.T, st *store.Memory, u model.User) {
	t.Helper()
	ctx := context.Background()
	users, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	require.NoError(t, st.ReplaceUsers(ctx, append(users, u)))
}

func TestRecordValidation(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, "", "s1")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Record(ctx, "e1", "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestRecordUnknownStudent(t *testing.T) {
	svc, _ := newLedger(t)

	_, err := svc.Record(context.Background(), "e1", "ghost")
	require.ErrorIs(t, err, model.ErrStudentNotFound)
}

func TestRecordGatedOnVerification(t *testing.T) {
	svc, st := newLedger(t)
	ctx := context.Background()

	seedStudent(t, st, model.User{
		ID: "s1", FirstName: "Ada", LastName: "Lovelace",
		Role: model.RoleStudent, Status: model.StatusPending,
	})

	_, err := svc.Record(ctx, "e1", "s1")
	require.ErrorIs(t, err, model.ErrNotVerified)

	// Flip the student to verified; the same call now succeeds and the
	// record snapshots the current name and photo.
	users, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	users[0].Status = model.StatusVerified
	users[0].ProfilePhoto = "https://img.example.com/ada.jpg"
	require.NoError(t, st.ReplaceUsers(ctx, users))

	rec, err := svc.Record(ctx, "e1", "s1")
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "e1", rec.EventID)
	require.Equal(t, "s1", rec.StudentID)
	require.Equal(t, "Ada Lovelace", rec.StudentName)
	require.Equal(t, "https://img.example.com/ada.jpg", rec.StudentPhoto)
	require.False(t, rec.Timestamp.IsZero())
}

func TestRecordDuplicatePair(t *testing.T) {
	svc, st := newLedger(t)
	ctx := context.Background()

	seedStudent(t, st, model.User{
		ID: "s1", FirstName: "Ada", LastName: "Lovelace",
		Role: model.RoleStudent, Status: model.StatusVerified,
	})

	_, err := svc.Record(ctx, "e1", "s1")
	require.NoError(t, err)

	_, err = svc.Record(ctx, "e1", "s1")
	require.ErrorIs(t, err, model.ErrDuplicateAttendance)

	// The store must hold exactly one record for the pair.
	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// A different event is a different pair.
	_, err = svc.Record(ctx, "e2", "s1")
	require.NoError(t, err)
}

func TestRecordDoesNotCheckEventExistence(t *testing.T) {
	svc, st := newLedger(t)
	ctx := context.Background()

	seedStudent(t, st, model.User{
		ID: "s1", FirstName: "Ada", LastName: "Lovelace",
		Role: model.RoleStudent, Status: model.StatusVerified,
	})

	// No events exist at all; the check-in still succeeds.
	rec, err := svc.Record(ctx, "no-such-event", "s1")
	require.NoError(t, err)
	require.Equal(t, "no-such-event", rec.EventID)
}

func TestSnapshotNotResynced(t *testing.T) {
	svc, st := newLedger(t)
	ctx := context.Background()

	seedStudent(t, st, model.User{
		ID: "s1", FirstName: "Ada", LastName: "Lovelace",
		Role: model.RoleStudent, Status: model.StatusVerified,
	})

	rec, err := svc.Record(ctx, "e1", "s1")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", rec.StudentName)

	// Rename the student afterwards; the stored record keeps the snapshot.
	users, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	users[0].FirstName = "Augusta"
	require.NoError(t, st.ReplaceUsers(ctx, users))

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", records[0].StudentName)
}

func TestDeleteIdempotent(t *testing.T) {
	svc, st := newLedger(t)
	ctx := context.Background()

	seedStudent(t, st, model.User{
		ID: "s1", FirstName: "Ada", LastName: "Lovelace",
		Role: model.RoleStudent, Status: model.StatusVerified,
	})
	rec, err := svc.Record(ctx, "e1", "s1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	require.NoError(t, svc.Delete(ctx, rec.ID))
	require.NoError(t, svc.Delete(ctx, "never-existed"))

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}
