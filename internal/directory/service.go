package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"eventpass/internal/model"
	"eventpass/internal/store"
)

// Service manages user identity, credentials, verification status, and role.
type Service struct {
	store store.Store
	locks *store.Locks
	log   zerolog.Logger
}

// New creates a user directory over the given store.
func New(st store.Store, locks *store.Locks, log zerolog.Logger) *Service {
	return &Service{store: st, locks: locks, log: log}
}

// Signup registers a new student account in pending state. Email matching
// is case-insensitive; studentID must be unique among users that have one.
func (s *Service) Signup(ctx context.Context, studentID, firstName, lastName, email, password string) (model.User, error) {
	studentID = strings.TrimSpace(studentID)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	if studentID == "" || firstName == "" || lastName == "" || email == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}

	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return model.User{}, model.ErrDuplicateEmail
		}
		if u.StudentID != "" && u.StudentID == studentID {
			return model.User{}, model.ErrDuplicateStudentID
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleStudent,
		Status:       model.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.ReplaceUsers(ctx, append(users, user)); err != nil {
		return model.User{}, err
	}
	return user.Sanitized(), nil
}

// Login authenticates by case-insensitive email and password. Unknown email
// and wrong password return the same error so registered addresses are not
// discoverable.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: email and password required", model.ErrValidation)
	}
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return u.Sanitized(), nil
		}
	}
	return model.User{}, model.ErrInvalidCredentials
}

// GetAll returns every user with credentials stripped.
func (s *Service) GetAll(ctx context.Context) ([]model.User, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	return out, nil
}

// GetByID returns one user with credentials stripped.
func (s *Service) GetByID(ctx context.Context, id string) (model.User, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u.Sanitized(), nil
		}
	}
	return model.User{}, model.ErrNotFound
}

// UpdatePatch carries the mutable profile fields; nil pointers leave the
// field untouched. Unknown JSON keys are dropped at decode time.
type UpdatePatch struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Email        *string `json:"email"`
	ProfilePhoto *string `json:"profilePhoto"`
	StudentID    *string `json:"studentId"`

	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Update applies a profile patch. A password change requires both
// currentPassword and newPassword, and a wrong current password rejects the
// entire patch, profile fields included.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch) (model.User, error) {
	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	idx := indexByID(users, id)
	if idx < 0 {
		return model.User{}, model.ErrNotFound
	}
	u := users[idx]

	if patch.NewPassword != "" && patch.CurrentPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(patch.CurrentPassword)) != nil {
			return model.User{}, model.ErrIncorrectPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(patch.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return model.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.ProfilePhoto != nil {
		u.ProfilePhoto = *patch.ProfilePhoto
	}
	if patch.StudentID != nil {
		u.StudentID = *patch.StudentID
	}

	users[idx] = u
	if err := s.store.ReplaceUsers(ctx, users); err != nil {
		return model.User{}, err
	}
	return u.Sanitized(), nil
}

// Delete removes a user. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	return s.store.ReplaceUsers(ctx, kept)
}

// Verify marks a user verified and stores their QR code. The transition is
// one-way; verifying an already-verified user just refreshes the code.
func (s *Service) Verify(ctx context.Context, id, qrCode string) (model.User, error) {
	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	idx := indexByID(users, id)
	if idx < 0 {
		return model.User{}, model.ErrNotFound
	}
	users[idx].Status = model.StatusVerified
	users[idx].QRCode = qrCode
	if err := s.store.ReplaceUsers(ctx, users); err != nil {
		return model.User{}, err
	}
	return users[idx].Sanitized(), nil
}

// SetRole changes a user's role to admin or student.
func (s *Service) SetRole(ctx context.Context, id, role string) (model.User, error) {
	if role != model.RoleAdmin && role != model.RoleStudent {
		return model.User{}, model.ErrInvalidRole
	}

	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	idx := indexByID(users, id)
	if idx < 0 {
		return model.User{}, model.ErrNotFound
	}
	users[idx].Role = role
	if err := s.store.ReplaceUsers(ctx, users); err != nil {
		return model.User{}, err
	}
	return users[idx].Sanitized(), nil
}

// EnsureAdmin seeds a single admin account when the user collection is
// empty. With no configured password a random one is generated and logged
// once, so fixed default credentials never ship.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	s.locks.Users.Lock()
	defer s.locks.Users.Unlock()

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	generated := false
	if password == "" {
		password = uuid.NewString()
		generated = true
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		ID:           uuid.NewString(),
		FirstName:    "Admin",
		LastName:     "User",
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.ReplaceUsers(ctx, []model.User{admin}); err != nil {
		return err
	}
	if generated {
		s.log.Warn().Str("email", admin.Email).Str("password", password).
			Msg("seeded admin with a generated password; set ADMIN_PASSWORD to control it")
	} else {
		s.log.Info().Str("email", admin.Email).Msg("seeded admin account")
	}
	return nil
}

func indexByID(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
