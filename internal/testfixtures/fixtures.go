package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
)

var (
	userCounter    uint64
	roomCounter    uint64
	bookingCounter uint64
	seriesCounter  uint64
)

var referenceTime = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*application.User)

// NewUser returns a deterministic user with optional overrides.
func NewUser(opts ...UserOption) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := application.User{
		ID:        id,
		Email:     fmt.Sprintf("%s@example.com", id),
		FullName:  fmt.Sprintf("User %03d", idx),
		Role:      application.RoleEmployee,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *application.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *application.User) { u.Email = email }
}

// WithUserRole overrides the generated role.
func WithUserRole(role application.Role) UserOption {
	return func(u *application.User) { u.Role = role }
}

// WithUserPhone sets the phone number on the fixture.
func WithUserPhone(phone string) UserOption {
	return func(u *application.User) { u.PhoneNumber = &phone }
}

// RoomOption configures a generated room fixture.
type RoomOption func(*application.Room)

// NewRoom returns a deterministic room with optional overrides.
func NewRoom(opts ...RoomOption) application.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := application.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  "Floor 3",
		Capacity:  8,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *application.Room) { r.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *application.Room) { r.Name = name }
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *application.Room) { r.Capacity = capacity }
}

// WithRoomEquipment sets the equipment list on the fixture.
func WithRoomEquipment(equipment ...string) RoomOption {
	return func(r *application.Room) { r.Equipment = equipment }
}

// BookingOption configures a generated booking fixture.
type BookingOption func(*application.Booking)

// NewBooking returns a deterministic confirmed booking one hour long,
// staggered a day ahead of the reference time, with optional overrides.
func NewBooking(opts ...BookingOption) application.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*2*time.Hour)
	booking := application.Booking{
		ID:          fmt.Sprintf("booking-%03d", idx),
		Title:       fmt.Sprintf("Meeting %03d", idx),
		RoomID:      "room-001",
		OrganizerID: "user-001",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      application.StatusConfirmed,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *application.Booking) { b.ID = id }
}

// WithBookingRoom overrides the room the booking occupies.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *application.Booking) { b.RoomID = roomID }
}

// WithBookingOrganizer overrides the organizer.
func WithBookingOrganizer(userID string) BookingOption {
	return func(b *application.Booking) { b.OrganizerID = userID }
}

// WithBookingWindow sets the start and end of the booking.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(b *application.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingStatus overrides the lifecycle status.
func WithBookingStatus(status application.BookingStatus) BookingOption {
	return func(b *application.Booking) { b.Status = status }
}

// SeriesOption configures a generated recurring series fixture.
type SeriesOption func(*application.RecurringSeries)

// NewSeries returns a deterministic weekly series pending approval, with
// optional overrides.
func NewSeries(opts ...SeriesOption) application.RecurringSeries {
	idx := atomic.AddUint64(&seriesCounter, 1)
	firstDate := referenceTime.AddDate(0, 0, 7).Truncate(24 * time.Hour)
	series := application.RecurringSeries{
		ID:          fmt.Sprintf("series-%03d", idx),
		Title:       fmt.Sprintf("Recurring %03d", idx),
		RoomID:      "room-001",
		OrganizerID: "user-001",
		Frequency:   "Weekly",
		StartTime:   "10:00",
		EndTime:     "11:00",
		FirstDate:   firstDate,
		EndDate:     firstDate.AddDate(0, 1, 0),
		Status:      application.StatusPendingApproval,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&series)
	}
	return series
}

// WithSeriesID overrides the generated series ID.
func WithSeriesID(id string) SeriesOption {
	return func(s *application.RecurringSeries) { s.ID = id }
}

// WithSeriesFrequency overrides the recurrence frequency.
func WithSeriesFrequency(frequency string) SeriesOption {
	return func(s *application.RecurringSeries) { s.Frequency = frequency }
}

// WithSeriesDates sets the first and last candidate dates.
func WithSeriesDates(first, end time.Time) SeriesOption {
	return func(s *application.RecurringSeries) {
		s.FirstDate = first
		s.EndDate = end
	}
}

// WithSeriesStatus overrides the lifecycle status.
func WithSeriesStatus(status application.BookingStatus) SeriesOption {
	return func(s *application.RecurringSeries) { s.Status = status }
}
