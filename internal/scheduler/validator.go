package scheduler

import (
	"errors"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Booking carries the fields of a reservation relevant to conflict checks.
type Booking struct {
	ID     string
	RoomID string
	Window Window
}

// ErrInvalidWindow indicates the window end does not follow its start.
var ErrInvalidWindow = errors.New("scheduler: window end must be after start")

// ErrPastWindow indicates the window starts at or before the current instant.
var ErrPastWindow = errors.New("scheduler: window starts in the past")

// ErrConflict indicates the window overlaps an existing blocking booking.
var ErrConflict = errors.New("scheduler: room already booked")

// Overlaps reports whether two half-open windows intersect. Touching
// endpoints do not overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ValidateWindow checks the temporal invariants of a candidate window
// against the supplied current instant. Checks run in order: shape first,
// then pastness.
func ValidateWindow(now time.Time, w Window) error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	if !w.Start.After(now) {
		return ErrPastWindow
	}
	return nil
}

// FindConflict returns the first existing booking in the same room whose
// window overlaps the candidate's, ignoring the booking identified by
// candidate.ID. Callers pass only blocking bookings (Confirmed or
// PendingApproval); the check itself is status-agnostic.
func FindConflict(existing []Booking, candidate Booking) (Booking, bool) {
	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if other.RoomID != candidate.RoomID {
			continue
		}
		if Overlaps(other.Window, candidate.Window) {
			return other, true
		}
	}
	return Booking{}, false
}

// Validate runs the full validator contract for a candidate booking:
// window shape, pastness, then room conflicts against the supplied
// blocking bookings.
func Validate(now time.Time, existing []Booking, candidate Booking) error {
	if err := ValidateWindow(now, candidate.Window); err != nil {
		return err
	}
	if _, found := FindConflict(existing, candidate); found {
		return ErrConflict
	}
	return nil
}
