package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"eventpass/internal/catalog"
	"eventpass/internal/model"
	"eventpass/internal/store"
)

func newCatalog(t *testing.T) (*catalog.Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return catalog.New(st, &store.Locks{}), st
}

func validParams() catalog.CreateParams {
	return catalog.CreateParams{
		Name:        "Tech Fest",
		Description: "Annual tech festival",
		Date:        "2026-10-01",
		StartTime:   "09:00",
		EndTime:     "17:00",
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	p := validParams()
	p.Name = "  Tech Fest  "
	evt, err := svc.Create(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, evt.ID)
	require.Equal(t, "Tech Fest", evt.Name)
	require.Equal(t, "active", evt.Status)
	require.False(t, evt.CreatedAt.IsZero())

	events, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	for _, mutate := range []func(*catalog.CreateParams){
		func(p *catalog.CreateParams) { p.Name = " " },
		func(p *catalog.CreateParams) { p.Description = "" },
		func(p *catalog.CreateParams) { p.Date = "" },
		func(p *catalog.CreateParams) { p.StartTime = "  " },
		func(p *catalog.CreateParams) { p.EndTime = "" },
	} {
		p := validParams()
		mutate(&p)
		_, err := svc.Create(ctx, p)
		require.ErrorIs(t, err, model.ErrValidation)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	evt, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	name := "Tech Fest 2026"
	status := "cancelled"
	updated, err := svc.Update(ctx, evt.ID, catalog.UpdatePatch{Name: &name, Status: &status})
	require.NoError(t, err)
	require.Equal(t, "Tech Fest 2026", updated.Name)
	require.Equal(t, "cancelled", updated.Status)
	require.Equal(t, evt.Description, updated.Description)

	_, err = svc.Update(ctx, "missing", catalog.UpdatePatch{Name: &name})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteCascadesIntoAttendance(t *testing.T) {
	svc, st := newCatalog(t)
	ctx := context.Background()

	evt, err := svc.Create(ctx, validParams())
	require.NoError(t, err)
	other, err := svc.Create(ctx, catalog.CreateParams{
		Name: "Hack Night", Description: "Evening hack", Date: "2026-10-02", StartTime: "18:00", EndTime: "22:00",
	})
	require.NoError(t, err)

	require.NoError(t, st.ReplaceAttendance(ctx, []model.AttendanceRecord{
		{ID: "a1", EventID: evt.ID, StudentID: "s1"},
		{ID: "a2", EventID: evt.ID, StudentID: "s2"},
		{ID: "a3", EventID: other.ID, StudentID: "s1"},
	}))

	require.NoError(t, svc.Delete(ctx, evt.ID))

	events, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, other.ID, events[0].ID)

	records, err := st.LoadAttendance(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a3", records[0].ID)
}

func TestDeleteIdempotent(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "never-existed"))

	evt, err := svc.Create(ctx, validParams())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, evt.ID))
	require.NoError(t, svc.Delete(ctx, evt.ID))
}
