package model

import "time"

// User roles and verification statuses.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"

	StatusPending  = "pending"
	StatusVerified = "verified"
)

// User is a person with system access. The password hash serializes under
// "password" with omitempty so sanitized copies drop the field entirely.
type User struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status,omitempty"`
	QRCode       string    `json:"qrCode,omitempty"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FullName joins first and last name, as snapshotted onto attendance records.
func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// Sanitized returns a copy safe to send to clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// Event is a scheduled activity. Date/StartTime/EndTime are stored as
// provided; no cross-field validation is applied.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AttendanceRecord is one student's check-in at one event. StudentName and
// StudentPhoto are point-in-time snapshots taken at check-in, never re-synced.
type AttendanceRecord struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	StudentID    string    `json:"studentId"`
	StudentName  string    `json:"studentName"`
	StudentPhoto string    `json:"studentPhoto,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Summary carries the dashboard counts.
type Summary struct {
	TotalStudents    int `json:"totalStudents"`
	PendingStudents  int `json:"pendingStudents"`
	VerifiedStudents int `json:"verifiedStudents"`
	TotalEvents      int `json:"totalEvents"`
	TotalAttendance  int `json:"totalAttendance"`
}
