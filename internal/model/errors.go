package model

import "errors"

// Error kinds returned by the record-keeping services. Components wrap them
// with fmt.Errorf("%w: detail", kind); the HTTP layer dispatches on errors.Is.
var (
	ErrValidation          = errors.New("missing required fields")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateStudentID  = errors.New("student id already registered")
	ErrDuplicateAttendance = errors.New("attendance already recorded")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrIncorrectPassword   = errors.New("current password incorrect")
	ErrInvalidRole         = errors.New("invalid role")
	ErrStudentNotFound     = errors.New("student not found")
	ErrNotVerified         = errors.New("student not verified")
	ErrStoreUnavailable    = errors.New("record store unavailable")
)
