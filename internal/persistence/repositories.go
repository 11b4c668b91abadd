package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries.
type BookingFilter struct {
	RoomID       *string
	OrganizerID  *string
	SeriesID     *string
	Statuses     []string
	StartsBefore *time.Time
	EndsAfter    *time.Time
}

// BookingRepository stores single reservation entries.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	CountBookingsForRoom(ctx context.Context, roomID string) (int, error)
	CountBookingsForOrganizer(ctx context.Context, organizerID string) (int, error)
}

// SeriesFilter narrows recurring series queries.
type SeriesFilter struct {
	OrganizerID *string
	Statuses    []string
}

// SeriesRepository stores recurring reservation requests.
type SeriesRepository interface {
	CreateSeries(ctx context.Context, series RecurringSeries) error
	UpdateSeries(ctx context.Context, series RecurringSeries) error
	GetSeries(ctx context.Context, id string) (RecurringSeries, error)
	ListSeries(ctx context.Context, filter SeriesFilter) ([]RecurringSeries, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
