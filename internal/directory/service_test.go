package directory_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"eventpass/internal/directory"
	"eventpass/internal/model"
	"eventpass/internal/store"
)

func newDirectory(t *testing.T) (*directory.Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return directory.New(st, &store.Locks{}, zerolog.Nop()), st
}

func TestSignup(t *testing.T) {
	svc, st := newDirectory(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, " S-100 ", " Ada ", " Lovelace ", " Ada@Example.COM ", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "S-100", user.StudentID)
	require.Equal(t, "Ada", user.FirstName)
	require.Equal(t, "Lovelace", user.LastName)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, model.RoleStudent, user.Role)
	require.Equal(t, model.StatusPending, user.Status)
	require.Empty(t, user.QRCode)
	require.Empty(t, user.PasswordHash, "signup must return a sanitized user")
	require.False(t, user.CreatedAt.IsZero())

	stored, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotEmpty(t, stored[0].PasswordHash)
	require.NotEqual(t, "secret", stored[0].PasswordHash, "password must not be stored in plaintext")
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "S-1", "   ", "Lovelace", "a@b.com", "pw")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Signup(ctx, "S-1", "Ada", "Lovelace", "a@b.com", "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "S-2", "Grace", "Hopper", "ADA@Example.com", "pw")
	require.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestSignupDuplicateStudentID(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "S-1", "Grace", "Hopper", "grace@example.com", "pw")
	require.ErrorIs(t, err, model.ErrDuplicateStudentID)
}

func TestLogin(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "secret")
	require.NoError(t, err)

	user, err := svc.Login(ctx, "ADA@Example.COM", "secret")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Empty(t, user.PasswordHash)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, err = svc.Login(ctx, "nobody@example.com", "secret")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestGetAllStripsPasswords(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	users, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Empty(t, users[0].PasswordHash)
}

func TestGetByID(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateProfileFields(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	first := "Augusta"
	photo := "https://img.example.com/ada.jpg"
	user, err := svc.Update(ctx, created.ID, directory.UpdatePatch{FirstName: &first, ProfilePhoto: &photo})
	require.NoError(t, err)
	require.Equal(t, "Augusta", user.FirstName)
	require.Equal(t, photo, user.ProfilePhoto)
	require.Equal(t, "Lovelace", user.LastName)
}

func TestUpdateWrongCurrentPasswordRejectsWholePatch(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "secret")
	require.NoError(t, err)

	first := "Augusta"
	_, err = svc.Update(ctx, created.ID, directory.UpdatePatch{
		FirstName:       &first,
		CurrentPassword: "wrong",
		NewPassword:     "newpw",
	})
	require.ErrorIs(t, err, model.ErrIncorrectPassword)

	// The profile field in the same patch must not have been applied.
	user, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada", user.FirstName)

	// And the old password still works.
	_, err = svc.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
}

func TestUpdatePasswordChange(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "secret")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, directory.UpdatePatch{
		CurrentPassword: "secret",
		NewPassword:     "rotated",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "secret")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ada@example.com", "rotated")
	require.NoError(t, err)
}

func TestDeleteIdempotent(t *testing.T) {
	svc, st := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.NoError(t, svc.Delete(ctx, created.ID))
	require.NoError(t, svc.Delete(ctx, "never-existed"))

	users, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestVerify(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.Verify(ctx, created.ID, "qr-123")
	require.NoError(t, err)
	require.Equal(t, model.StatusVerified, user.Status)
	require.Equal(t, "qr-123", user.QRCode)

	_, err = svc.Verify(ctx, "missing", "qr")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetRole(t *testing.T) {
	svc, _ := newDirectory(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "S-1", "Ada", "Lovelace", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, created.ID, "superuser")
	require.ErrorIs(t, err, model.ErrInvalidRole)

	_, err = svc.SetRole(ctx, "missing", model.RoleAdmin)
	require.ErrorIs(t, err, model.ErrNotFound)

	user, err := svc.SetRole(ctx, created.ID, model.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, user.Role)
}

func TestEnsureAdmin(t *testing.T) {
	svc, st := newDirectory(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@eventpass.local", "adminpw"))

	users, err := st.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, model.RoleAdmin, users[0].Role)
	require.NotEqual(t, "adminpw", users[0].PasswordHash)

	// A second call must not reseed.
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@eventpass.local", "adminpw"))
	users, err = st.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = svc.Login(ctx, "admin@eventpass.local", "adminpw")
	require.NoError(t, err)
}
