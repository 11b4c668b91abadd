package persistence

import "time"

// User represents an employee account in the booking domain.
type User struct {
	ID           string
	Email        string
	FullName     string
	PhoneNumber  *string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a meeting room catalog entry.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Equipment []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking represents a single reservation stored in persistence.
type Booking struct {
	ID             string
	Title          string
	RoomID         string
	OrganizerID    string
	Start          time.Time
	End            time.Time
	Status         string
	AttendeeEmails string
	DenialReason   *string
	SeriesID       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecurringSeries represents a recurring reservation request and its rule.
type RecurringSeries struct {
	ID             string
	Title          string
	RoomID         string
	OrganizerID    string
	Frequency      string
	StartTimeOfDay string
	EndTimeOfDay   string
	FirstDate      time.Time
	EndDate        time.Time
	Status         string
	AttendeeEmails string
	DenialReason   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
