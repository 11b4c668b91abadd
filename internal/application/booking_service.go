package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingRepositoryFilter) ([]Booking, error)
}

// BookingRepositoryFilter narrows queries issued to the booking repository.
type BookingRepositoryFilter struct {
	RoomID       *string
	OrganizerID  *string
	SeriesID     *string
	Statuses     []BookingStatus
	StartsBefore *time.Time
	EndsAfter    *time.Time
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	RoomExists(ctx context.Context, id string) (bool, error)
}

// BookingService orchestrates validation, authorization, and the approval
// state machine for single bookings.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomCatalog
	locks       *RoomLocker
	cache       *ProjectionCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, rooms RoomCatalog, locks *RoomLocker, cache *ProjectionCache, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, locks, cache, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomCatalog, locks *RoomLocker, cache *ProjectionCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		locks:       locks,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates the submission and persists it. Admin submissions
// are confirmed immediately; employee submissions enter the approval queue.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	input := params.Input
	principal := params.Principal
	logger := s.loggerWith(ctx, "CreateBooking", "principal_id", principal.UserID)

	vErr := &ValidationError{}
	validateBookingCore(input, vErr)
	validateWindow(s.now(), input.Start, input.End, vErr)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}

	if err := s.ensureRoomExists(ctx, input.RoomID); err != nil {
		return Booking{}, err
	}

	status := StatusPendingApproval
	if principal.IsAdmin() {
		status = StatusConfirmed
	}

	createdAt := s.now()
	booking := Booking{
		ID:             s.idGenerator(),
		Title:          strings.TrimSpace(input.Title),
		RoomID:         input.RoomID,
		OrganizerID:    principal.UserID,
		Start:          input.Start,
		End:            input.End,
		Status:         status,
		AttendeeEmails: strings.TrimSpace(input.AttendeeEmails),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	unlock := s.locks.Lock(booking.RoomID)
	defer unlock()

	if err := s.ensureWindowFree(ctx, booking); err != nil {
		return Booking{}, err
	}

	persisted, err := s.bookings.CreateBooking(ctx, booking)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	logger.InfoContext(ctx, "booking created", "booking_id", persisted.ID, "status", string(persisted.Status))
	return persisted, nil
}

// ApproveBooking confirms a pending booking. Admin only; approving an
// already-started pending booking fails with ErrExpired, and the conflict
// check is re-run before confirming.
func (s *BookingService) ApproveBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}
	if !principal.IsAdmin() {
		return Booking{}, ErrForbidden
	}

	existing, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	if existing.Status != StatusPendingApproval {
		return Booking{}, ErrInvalidTransition
	}
	if !isActionable(existing.Start, s.now()) {
		return Booking{}, ErrExpired
	}

	unlock := s.locks.Lock(existing.RoomID)
	defer unlock()

	// The window may have been taken since submission; confirm only a
	// still-free slot.
	if err := s.ensureWindowFree(ctx, existing); err != nil {
		return Booking{}, err
	}

	existing.Status = StatusConfirmed
	existing.UpdatedAt = s.now()

	persisted, err := s.bookings.UpdateBooking(ctx, existing)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "ApproveBooking", "principal_id", principal.UserID).
		InfoContext(ctx, "booking approved", "booking_id", persisted.ID)
	return persisted, nil
}

// DenyBooking rejects a pending booking with an audit reason. Admin only;
// a blank reason fails validation before any state change.
func (s *BookingService) DenyBooking(ctx context.Context, principal Principal, bookingID, reason string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}
	if !principal.IsAdmin() {
		return Booking{}, ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		vErr := &ValidationError{}
		vErr.add("reason", "denial reason is required")
		return Booking{}, vErr
	}

	existing, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	if existing.Status != StatusPendingApproval {
		return Booking{}, ErrInvalidTransition
	}
	if !isActionable(existing.Start, s.now()) {
		return Booking{}, ErrExpired
	}

	existing.Status = StatusDenied
	existing.DenialReason = &reason
	existing.UpdatedAt = s.now()

	persisted, err := s.bookings.UpdateBooking(ctx, existing)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "DenyBooking", "principal_id", principal.UserID).
		InfoContext(ctx, "booking denied", "booking_id", persisted.ID)
	return persisted, nil
}

// CancelBooking withdraws a booking. Admins may cancel at any time;
// organizers only while the booking has not started.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	existing, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	if !principal.IsAdmin() {
		if existing.OrganizerID != principal.UserID {
			return Booking{}, ErrForbidden
		}
		if !existing.Start.After(s.now()) {
			return Booking{}, ErrExpired
		}
	}
	if existing.Status.Terminal() {
		return Booking{}, ErrInvalidTransition
	}

	existing.Status = StatusCanceled
	existing.UpdatedAt = s.now()

	persisted, err := s.bookings.UpdateBooking(ctx, existing)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "CancelBooking", "principal_id", principal.UserID).
		InfoContext(ctx, "booking canceled", "booking_id", persisted.ID)
	return persisted, nil
}

// EditBooking replaces the mutable fields of a booking after re-running the
// validator against the new window. Status is preserved: an edited pending
// booking stays pending and an edited confirmed booking stays confirmed.
func (s *BookingService) EditBooking(ctx context.Context, params EditBookingParams) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	existing, err := s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	principal := params.Principal
	if !principal.IsAdmin() {
		if existing.OrganizerID != principal.UserID {
			return Booking{}, ErrForbidden
		}
		if !existing.Start.After(s.now()) {
			return Booking{}, ErrExpired
		}
	}
	if existing.Status.Terminal() {
		return Booking{}, ErrInvalidTransition
	}

	input := params.Input
	vErr := &ValidationError{}
	validateBookingCore(input, vErr)
	validateWindow(s.now(), input.Start, input.End, vErr)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}

	if err := s.ensureRoomExists(ctx, input.RoomID); err != nil {
		return Booking{}, err
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.RoomID = input.RoomID
	updated.Start = input.Start
	updated.End = input.End
	updated.AttendeeEmails = strings.TrimSpace(input.AttendeeEmails)
	updated.UpdatedAt = s.now()

	unlock := s.locks.Lock(updated.RoomID)
	defer unlock()

	if err := s.ensureWindowFree(ctx, updated); err != nil {
		return Booking{}, err
	}

	persisted, err := s.bookings.UpdateBooking(ctx, updated)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "EditBooking", "principal_id", principal.UserID).
		InfoContext(ctx, "booking edited", "booking_id", persisted.ID)
	return persisted, nil
}

// DeleteBooking removes a booking permanently. Admin only, irreversible,
// no state restriction.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}

	if _, err := s.bookings.GetBooking(ctx, bookingID); err != nil {
		return mapBookingRepoError(err)
	}
	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		return mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "DeleteBooking", "principal_id", principal.UserID).
		InfoContext(ctx, "booking deleted", "booking_id", bookingID)
	return nil
}

// ensureWindowFree runs the conflict check for the booking's room window,
// excluding the booking itself. Callers must hold the room lock.
func (s *BookingService) ensureWindowFree(ctx context.Context, candidate Booking) error {
	blocking, err := s.blockingBookings(ctx, candidate.RoomID, candidate.Start, candidate.End)
	if err != nil {
		return err
	}
	if _, found := scheduler.FindConflict(blocking, toSchedulerBooking(candidate)); found {
		return ErrConflict
	}
	return nil
}

func (s *BookingService) blockingBookings(ctx context.Context, roomID string, start, end time.Time) ([]scheduler.Booking, error) {
	existing, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		RoomID:       &roomID,
		Statuses:     []BookingStatus{StatusConfirmed, StatusPendingApproval},
		StartsBefore: &end,
		EndsAfter:    &start,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	converted := make([]scheduler.Booking, 0, len(existing))
	for _, booking := range existing {
		converted = append(converted, toSchedulerBooking(booking))
	}
	return converted, nil
}

func (s *BookingService) ensureRoomExists(ctx context.Context, roomID string) error {
	if s.rooms == nil {
		return nil
	}
	exists, err := s.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("room_id", "room does not exist")
	return vErr
}

func toSchedulerBooking(booking Booking) scheduler.Booking {
	return scheduler.Booking{
		ID:     booking.ID,
		RoomID: booking.RoomID,
		Window: scheduler.Window{Start: booking.Start, End: booking.End},
	}
}

// isActionable is the single past-check predicate for approval decisions:
// a pending item can only be decided while its start lies in the future.
func isActionable(start, now time.Time) bool {
	return start.After(now)
}

func validateBookingCore(input BookingInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
}

func validateWindow(now time.Time, start, end time.Time, vErr *ValidationError) {
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if start.IsZero() || end.IsZero() {
		return
	}
	err := scheduler.ValidateWindow(now, scheduler.Window{Start: start, End: end})
	switch {
	case errors.Is(err, scheduler.ErrInvalidWindow):
		vErr.add("window", "end must be after start")
	case errors.Is(err, scheduler.ErrPastWindow):
		vErr.add("window", "cannot book a past time slot")
	}
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("window", "end must be after start")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "related records are missing")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
