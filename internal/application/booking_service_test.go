package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

type bookingRepoStub struct {
	store     map[string]Booking
	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
	updated   []Booking
}

func newBookingRepoStub(bookings ...Booking) *bookingRepoStub {
	stub := &bookingRepoStub{store: make(map[string]Booking)}
	for _, booking := range bookings {
		stub.store[booking.ID] = booking
	}
	return stub
}

func (s *bookingRepoStub) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if s.createErr != nil {
		return Booking{}, s.createErr
	}
	s.store[booking.ID] = booking
	return booking, nil
}

func (s *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	if s.getErr != nil {
		return Booking{}, s.getErr
	}
	booking, ok := s.store[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

func (s *bookingRepoStub) UpdateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if s.updateErr != nil {
		return Booking{}, s.updateErr
	}
	if _, ok := s.store[booking.ID]; !ok {
		return Booking{}, ErrNotFound
	}
	s.store[booking.ID] = booking
	s.updated = append(s.updated, booking)
	return booking, nil
}

func (s *bookingRepoStub) DeleteBooking(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.store[id]; !ok {
		return ErrNotFound
	}
	delete(s.store, id)
	return nil
}

func (s *bookingRepoStub) ListBookings(ctx context.Context, filter BookingRepositoryFilter) ([]Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Booking
	for _, booking := range s.store {
		if filter.RoomID != nil && booking.RoomID != *filter.RoomID {
			continue
		}
		if filter.OrganizerID != nil && booking.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.SeriesID != nil && (booking.SeriesID == nil || *booking.SeriesID != *filter.SeriesID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if booking.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.StartsBefore != nil && !booking.Start.Before(*filter.StartsBefore) {
			continue
		}
		if filter.EndsAfter != nil && !booking.End.After(*filter.EndsAfter) {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type roomCatalogStub struct {
	exists bool
	err    error
}

func (r *roomCatalogStub) RoomExists(ctx context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.exists, nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func dayAt(t *testing.T, hour int) time.Time {
	t.Helper()
	return time.Date(2025, 6, 2, hour, 0, 0, 0, time.UTC)
}

func fixedClock(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}

func newTestBookingService(repo *bookingRepoStub, rooms RoomCatalog, now time.Time) *BookingService {
	return NewBookingService(repo, rooms, NewRoomLocker(), nil, sequentialIDs("booking"), fixedClock(now))
}

func TestBookingService_CreateBooking_EmployeeEntersApprovalQueue(t *testing.T) {
	t.Parallel()

	repo := newBookingRepoStub()
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Design sync",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if booking.Status != StatusPendingApproval {
		t.Fatalf("expected PendingApproval, got %s", booking.Status)
	}
	if booking.OrganizerID != "user-1" {
		t.Fatalf("expected organizer user-1, got %s", booking.OrganizerID)
	}
}

func TestBookingService_CreateBooking_AdminIsConfirmedImmediately(t *testing.T) {
	t.Parallel()

	repo := newBookingRepoStub()
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		Input: BookingInput{
			Title:  "Board meeting",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if booking.Status != StatusConfirmed {
		t.Fatalf("expected Confirmed, got %s", booking.Status)
	}
}

func TestBookingService_CreateBooking_RejectsInvalidWindows(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		field string
	}{
		{name: "end before start", start: dayAt(t, 11), end: dayAt(t, 10), field: "window"},
		{name: "zero duration", start: dayAt(t, 10), end: dayAt(t, 10), field: "window"},
		{name: "start in the past", start: dayAt(t, 7), end: dayAt(t, 9), field: "window"},
		{name: "missing start", end: dayAt(t, 10), field: "start"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestBookingService(newBookingRepoStub(), &roomCatalogStub{exists: true}, dayAt(t, 8))
			_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
				Principal: Principal{UserID: "user-1", Role: RoleEmployee},
				Input: BookingInput{
					Title:  "Sync",
					RoomID: "room-1",
					Start:  tc.start,
					End:    tc.end,
				},
			})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s validation error, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestBookingService_CreateBooking_RejectsUnknownRoom(t *testing.T) {
	t.Parallel()

	svc := newTestBookingService(newBookingRepoStub(), &roomCatalogStub{exists: false}, dayAt(t, 8))

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Sync",
			RoomID: "room-missing",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["room_id"]; !ok {
		t.Fatalf("expected room_id validation error, got %v", vErr.FieldErrors)
	}
}

func TestBookingService_CreateBooking_ConflictAgainstConfirmed(t *testing.T) {
	t.Parallel()

	existing := Booking{
		ID:     "existing-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(existing), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Overlap",
			RoomID: "room-1",
			Start:  dayAt(t, 10).Add(30 * time.Minute),
			End:    dayAt(t, 11).Add(30 * time.Minute),
		},
	})

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookingService_CreateBooking_PendingBookingBlocksSlot(t *testing.T) {
	t.Parallel()

	existing := Booking{
		ID:     "pending-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	svc := newTestBookingService(newBookingRepoStub(existing), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Overlap",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookingService_CreateBooking_BackToBackWindowsDoNotConflict(t *testing.T) {
	t.Parallel()

	existing := Booking{
		ID:     "existing-1",
		RoomID: "room-1",
		Start:  dayAt(t, 9),
		End:    dayAt(t, 10),
		Status: StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(existing), &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Follow-up",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if booking.ID == "" {
		t.Fatal("expected a persisted booking")
	}
}

func TestBookingService_CreateBooking_CanceledBookingFreesSlot(t *testing.T) {
	t.Parallel()

	existing := Booking{
		ID:     "canceled-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusCanceled,
	}
	svc := newTestBookingService(newBookingRepoStub(existing), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: BookingInput{
			Title:  "Reclaim",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 11),
		},
	})
	if err != nil {
		t.Fatalf("expected canceled booking to free the slot, got %v", err)
	}
}

func TestBookingService_ApproveBooking_ConfirmsPending(t *testing.T) {
	t.Parallel()

	pending := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	repo := newBookingRepoStub(pending)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.ApproveBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
	if err != nil {
		t.Fatalf("ApproveBooking failed: %v", err)
	}
	if booking.Status != StatusConfirmed {
		t.Fatalf("expected Confirmed, got %s", booking.Status)
	}
}

func TestBookingService_ApproveBooking_RechecksConflicts(t *testing.T) {
	t.Parallel()

	pending := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	// A confirmed booking took the slot after the pending one was
	// submitted; confirming the pending booking would double-book the room.
	taken := Booking{
		ID:     "booking-2",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 12),
		Status: StatusConfirmed,
	}
	repo := newBookingRepoStub(pending, taken)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.ApproveBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, err := repo.GetBooking(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if stored.Status != StatusPendingApproval {
		t.Fatalf("expected the booking left pending, got %s", stored.Status)
	}
}

func TestBookingService_ApproveBooking_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestBookingService(newBookingRepoStub(), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.ApproveBooking(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "booking-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestBookingService_ApproveBooking_ExpiredWhenStartPassed(t *testing.T) {
	t.Parallel()

	stale := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	svc := newTestBookingService(newBookingRepoStub(stale), &roomCatalogStub{exists: true}, dayAt(t, 12))

	_, err := svc.ApproveBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestBookingService_ApproveBooking_RejectsNonPending(t *testing.T) {
	t.Parallel()

	for _, status := range []BookingStatus{StatusConfirmed, StatusDenied, StatusCanceled} {
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			booking := Booking{
				ID:     "booking-1",
				RoomID: "room-1",
				Start:  dayAt(t, 10),
				End:    dayAt(t, 11),
				Status: status,
			}
			svc := newTestBookingService(newBookingRepoStub(booking), &roomCatalogStub{exists: true}, dayAt(t, 8))

			_, err := svc.ApproveBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestBookingService_DenyBooking_RequiresReason(t *testing.T) {
	t.Parallel()

	pending := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	repo := newBookingRepoStub(pending)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.DenyBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1", "   ")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["reason"]; !ok {
		t.Fatalf("expected reason validation error, got %v", vErr.FieldErrors)
	}
	if got := repo.store["booking-1"].Status; got != StatusPendingApproval {
		t.Fatalf("expected booking untouched, got status %s", got)
	}
}

func TestBookingService_DenyBooking_StoresReason(t *testing.T) {
	t.Parallel()

	pending := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusPendingApproval,
	}
	svc := newTestBookingService(newBookingRepoStub(pending), &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.DenyBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1", "room reserved for maintenance")
	if err != nil {
		t.Fatalf("DenyBooking failed: %v", err)
	}
	if booking.Status != StatusDenied {
		t.Fatalf("expected Denied, got %s", booking.Status)
	}
	if booking.DenialReason == nil || *booking.DenialReason != "room reserved for maintenance" {
		t.Fatalf("expected denial reason to be stored, got %v", booking.DenialReason)
	}
}

func TestBookingService_CancelBooking_OrganizerCancelsOwnFutureBooking(t *testing.T) {
	t.Parallel()

	confirmed := Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(confirmed), &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.CancelBooking(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "booking-1")
	if err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}
	if booking.Status != StatusCanceled {
		t.Fatalf("expected Canceled, got %s", booking.Status)
	}
}

func TestBookingService_CancelBooking_RejectsForeignBooking(t *testing.T) {
	t.Parallel()

	confirmed := Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(confirmed), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.CancelBooking(context.Background(), Principal{UserID: "user-2", Role: RoleEmployee}, "booking-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestBookingService_CancelBooking_OrganizerCannotCancelStartedBooking(t *testing.T) {
	t.Parallel()

	started := Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(started), &roomCatalogStub{exists: true}, dayAt(t, 10).Add(5*time.Minute))

	_, err := svc.CancelBooking(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "booking-1")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestBookingService_CancelBooking_AdminCancelsAnyTime(t *testing.T) {
	t.Parallel()

	started := Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(started), &roomCatalogStub{exists: true}, dayAt(t, 12))

	booking, err := svc.CancelBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
	if err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}
	if booking.Status != StatusCanceled {
		t.Fatalf("expected Canceled, got %s", booking.Status)
	}
}

func TestBookingService_CancelBooking_RejectsTerminalStates(t *testing.T) {
	t.Parallel()

	denied := Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusDenied,
	}
	svc := newTestBookingService(newBookingRepoStub(denied), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.CancelBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBookingService_EditBooking_PreservesStatusAndRevalidates(t *testing.T) {
	t.Parallel()

	pending := Booking{
		ID:          "booking-1",
		Title:       "Sync",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusPendingApproval,
	}
	repo := newBookingRepoStub(pending)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	booking, err := svc.EditBooking(context.Background(), EditBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		BookingID: "booking-1",
		Input: BookingInput{
			Title:  "Sync (moved)",
			RoomID: "room-1",
			Start:  dayAt(t, 14),
			End:    dayAt(t, 15),
		},
	})
	if err != nil {
		t.Fatalf("EditBooking failed: %v", err)
	}

	if booking.Status != StatusPendingApproval {
		t.Fatalf("expected status preserved as PendingApproval, got %s", booking.Status)
	}
	if !booking.Start.Equal(dayAt(t, 14)) {
		t.Fatalf("expected start moved to 14:00, got %v", booking.Start)
	}
}

func TestBookingService_EditBooking_ForbiddenLeavesBookingUnchanged(t *testing.T) {
	t.Parallel()

	original := Booking{
		ID:          "booking-1",
		Title:       "Sync",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	repo := newBookingRepoStub(original)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.EditBooking(context.Background(), EditBookingParams{
		Principal: Principal{UserID: "user-2", Role: RoleEmployee},
		BookingID: "booking-1",
		Input: BookingInput{
			Title:  "Hijacked",
			RoomID: "room-1",
			Start:  dayAt(t, 14),
			End:    dayAt(t, 15),
		},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	stored := repo.store["booking-1"]
	if stored.Title != "Sync" || !stored.Start.Equal(dayAt(t, 10)) {
		t.Fatalf("expected booking unchanged, got %+v", stored)
	}
	if len(repo.updated) != 0 {
		t.Fatalf("expected no updates, got %d", len(repo.updated))
	}
}

func TestBookingService_EditBooking_ConflictOnNewWindow(t *testing.T) {
	t.Parallel()

	editable := Booking{
		ID:          "booking-1",
		Title:       "Sync",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	other := Booking{
		ID:     "booking-2",
		RoomID: "room-1",
		Start:  dayAt(t, 14),
		End:    dayAt(t, 15),
		Status: StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(editable, other), &roomCatalogStub{exists: true}, dayAt(t, 8))

	_, err := svc.EditBooking(context.Background(), EditBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		BookingID: "booking-1",
		Input: BookingInput{
			Title:  "Sync",
			RoomID: "room-1",
			Start:  dayAt(t, 14).Add(30 * time.Minute),
			End:    dayAt(t, 15).Add(30 * time.Minute),
		},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookingService_EditBooking_ExcludesSelfFromConflictCheck(t *testing.T) {
	t.Parallel()

	editable := Booking{
		ID:          "booking-1",
		Title:       "Sync",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Start:       dayAt(t, 10),
		End:         dayAt(t, 11),
		Status:      StatusConfirmed,
	}
	svc := newTestBookingService(newBookingRepoStub(editable), &roomCatalogStub{exists: true}, dayAt(t, 8))

	// Shrinking a booking overlaps its own stored window; that must not
	// count as a conflict.
	booking, err := svc.EditBooking(context.Background(), EditBookingParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		BookingID: "booking-1",
		Input: BookingInput{
			Title:  "Sync",
			RoomID: "room-1",
			Start:  dayAt(t, 10),
			End:    dayAt(t, 10).Add(30 * time.Minute),
		},
	})
	if err != nil {
		t.Fatalf("EditBooking failed: %v", err)
	}
	if !booking.End.Equal(dayAt(t, 10).Add(30 * time.Minute)) {
		t.Fatalf("expected shortened window, got %v", booking.End)
	}
}

func TestBookingService_DeleteBooking_AdminOnly(t *testing.T) {
	t.Parallel()

	existing := Booking{
		ID:     "booking-1",
		RoomID: "room-1",
		Start:  dayAt(t, 10),
		End:    dayAt(t, 11),
		Status: StatusCanceled,
	}
	repo := newBookingRepoStub(existing)
	svc := newTestBookingService(repo, &roomCatalogStub{exists: true}, dayAt(t, 8))

	if err := svc.DeleteBooking(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "booking-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.DeleteBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1"); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if _, ok := repo.store["booking-1"]; ok {
		t.Fatal("expected booking removed from the store")
	}
}

func TestBookingService_DeleteBooking_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestBookingService(newBookingRepoStub(), &roomCatalogStub{exists: true}, dayAt(t, 8))

	err := svc.DeleteBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
