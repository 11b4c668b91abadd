package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/scheduler"
)

// SeriesRepository captures the persistence interactions for recurring series.
type SeriesRepository interface {
	CreateSeries(ctx context.Context, series RecurringSeries) (RecurringSeries, error)
	GetSeries(ctx context.Context, id string) (RecurringSeries, error)
	UpdateSeries(ctx context.Context, series RecurringSeries) (RecurringSeries, error)
	ListSeries(ctx context.Context, filter SeriesRepositoryFilter) ([]RecurringSeries, error)
}

// SeriesRepositoryFilter narrows queries issued to the series repository.
type SeriesRepositoryFilter struct {
	OrganizerID *string
	Statuses    []BookingStatus
}

// SeriesService orchestrates the lifecycle of recurring reservation
// requests: submission, expansion on approval, and the cancel cascade over
// materialized future bookings.
type SeriesService struct {
	series      SeriesRepository
	bookings    BookingRepository
	rooms       RoomCatalog
	locks       *RoomLocker
	cache       *ProjectionCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSeriesService wires dependencies for recurring series operations.
func NewSeriesService(series SeriesRepository, bookings BookingRepository, rooms RoomCatalog, locks *RoomLocker, cache *ProjectionCache, idGenerator func() string, now func() time.Time) *SeriesService {
	return NewSeriesServiceWithLogger(series, bookings, rooms, locks, cache, idGenerator, now, nil)
}

// NewSeriesServiceWithLogger wires dependencies with a specified logger.
func NewSeriesServiceWithLogger(series SeriesRepository, bookings BookingRepository, rooms RoomCatalog, locks *RoomLocker, cache *ProjectionCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SeriesService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SeriesService{
		series:      series,
		bookings:    bookings,
		rooms:       rooms,
		locks:       locks,
		cache:       cache,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SeriesService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SeriesService", operation, attrs...)
}

// CreateSeries validates and stores a recurring reservation request.
// Employee submissions enter the approval queue; admin submissions are
// pre-approved, so the series is stored Confirmed and its occurrences are
// materialized immediately.
func (s *SeriesService) CreateSeries(ctx context.Context, params CreateSeriesParams) (RecurringSeries, error) {
	if s == nil {
		return RecurringSeries{}, fmt.Errorf("SeriesService is nil")
	}
	if s.series == nil {
		return RecurringSeries{}, fmt.Errorf("series repository not configured")
	}

	input := params.Input
	principal := params.Principal

	vErr := &ValidationError{}
	rule, ruleOK := validateSeriesCore(input, vErr)
	if vErr.HasErrors() {
		return RecurringSeries{}, vErr
	}

	if err := s.ensureRoomExists(ctx, input.RoomID); err != nil {
		return RecurringSeries{}, err
	}

	var occurrences []recurrence.Occurrence
	if ruleOK {
		// Preview the expansion so a rule that can never produce a future
		// occurrence is rejected up front rather than parked in the queue.
		expanded, err := recurrence.Expand(rule)
		if err != nil {
			return RecurringSeries{}, fmt.Errorf("expand recurrence: %w", err)
		}
		if !anyFutureOccurrence(expanded, s.now()) {
			vErr.add("end_date", "series has no future occurrences")
			return RecurringSeries{}, vErr
		}
		occurrences = expanded
	}

	createdAt := s.now()
	series := RecurringSeries{
		ID:             s.idGenerator(),
		Title:          strings.TrimSpace(input.Title),
		RoomID:         input.RoomID,
		OrganizerID:    principal.UserID,
		Frequency:      input.Frequency,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		FirstDate:      input.FirstDate,
		EndDate:        input.EndDate,
		Status:         StatusPendingApproval,
		AttendeeEmails: strings.TrimSpace(input.AttendeeEmails),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	// Admin submissions are pre-approved: store the series Confirmed and
	// materialize its occurrences under the room lock right away.
	if principal.IsAdmin() {
		if s.bookings == nil {
			return RecurringSeries{}, fmt.Errorf("booking repository not configured")
		}
		series.Status = StatusConfirmed

		unlock := s.locks.Lock(series.RoomID)
		defer unlock()

		persisted, err := s.series.CreateSeries(ctx, series)
		if err != nil {
			return RecurringSeries{}, mapBookingRepoError(err)
		}
		created, skipped, err := s.materializeOccurrences(ctx, persisted, occurrences, createdAt)
		if err != nil {
			return RecurringSeries{}, err
		}
		s.cache.Invalidate()

		s.loggerWith(ctx, "CreateSeries", "principal_id", principal.UserID).InfoContext(ctx, "series created and expanded",
			"series_id", persisted.ID,
			"frequency", persisted.Frequency,
			"created_count", len(created),
			"skipped_count", len(skipped),
		)
		return persisted, nil
	}

	persisted, err := s.series.CreateSeries(ctx, series)
	if err != nil {
		return RecurringSeries{}, mapBookingRepoError(err)
	}

	s.loggerWith(ctx, "CreateSeries", "principal_id", principal.UserID).
		InfoContext(ctx, "series created", "series_id", persisted.ID, "frequency", persisted.Frequency)
	return persisted, nil
}

// ApproveSeries expands a pending series, validates every candidate
// occurrence, and materializes a confirmed booking per accepted candidate.
// Occurrences that fail validation are skipped and reported, not fatal:
// one conflicting occurrence among five still yields four bookings.
func (s *SeriesService) ApproveSeries(ctx context.Context, principal Principal, seriesID string) (SeriesApprovalResult, error) {
	if s == nil {
		return SeriesApprovalResult{}, fmt.Errorf("SeriesService is nil")
	}
	if s.series == nil || s.bookings == nil {
		return SeriesApprovalResult{}, fmt.Errorf("repositories not configured")
	}
	if !principal.IsAdmin() {
		return SeriesApprovalResult{}, ErrForbidden
	}

	existing, err := s.series.GetSeries(ctx, seriesID)
	if err != nil {
		return SeriesApprovalResult{}, mapBookingRepoError(err)
	}
	if existing.Status != StatusPendingApproval {
		return SeriesApprovalResult{}, ErrInvalidTransition
	}

	rule, err := seriesRule(existing)
	if err != nil {
		return SeriesApprovalResult{}, err
	}
	occurrences, err := recurrence.Expand(rule)
	if err != nil {
		return SeriesApprovalResult{}, fmt.Errorf("expand recurrence: %w", err)
	}

	now := s.now()
	if !anyFutureOccurrence(occurrences, now) {
		return SeriesApprovalResult{}, ErrExpired
	}

	unlock := s.locks.Lock(existing.RoomID)
	defer unlock()

	result := SeriesApprovalResult{}
	result.Created, result.Skipped, err = s.materializeOccurrences(ctx, existing, occurrences, now)
	if err != nil {
		return SeriesApprovalResult{}, err
	}

	existing.Status = StatusConfirmed
	existing.UpdatedAt = now
	persistedSeries, err := s.series.UpdateSeries(ctx, existing)
	if err != nil {
		return SeriesApprovalResult{}, mapBookingRepoError(err)
	}
	result.Series = persistedSeries
	s.cache.Invalidate()

	s.loggerWith(ctx, "ApproveSeries", "principal_id", principal.UserID).InfoContext(ctx, "series approved",
		"series_id", persistedSeries.ID,
		"created_count", len(result.Created),
		"skipped_count", len(result.Skipped),
	)
	return result, nil
}

// materializeOccurrences creates a confirmed member booking per accepted
// occurrence, skipping candidates that fail validation or storage. Callers
// must hold the room lock.
func (s *SeriesService) materializeOccurrences(ctx context.Context, series RecurringSeries, occurrences []recurrence.Occurrence, now time.Time) ([]Booking, []SkippedOccurrence, error) {
	blocking, err := s.blockingForRange(ctx, series.RoomID, occurrences)
	if err != nil {
		return nil, nil, err
	}

	var created []Booking
	var skipped []SkippedOccurrence
	for _, occ := range occurrences {
		seriesID := series.ID
		candidate := Booking{
			ID:             s.idGenerator(),
			Title:          series.Title,
			RoomID:         series.RoomID,
			OrganizerID:    series.OrganizerID,
			Start:          occ.Start,
			End:            occ.End,
			Status:         StatusConfirmed,
			AttendeeEmails: series.AttendeeEmails,
			SeriesID:       &seriesID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if reason, ok := s.rejectCandidate(now, blocking, candidate); ok {
			skipped = append(skipped, SkippedOccurrence{
				Start:  occ.Start,
				End:    occ.End,
				Reason: reason,
			})
			continue
		}

		persisted, err := s.bookings.CreateBooking(ctx, candidate)
		if err != nil {
			skipped = append(skipped, SkippedOccurrence{
				Start:  occ.Start,
				End:    occ.End,
				Reason: "storage rejected the occurrence",
			})
			continue
		}
		created = append(created, persisted)
		// Later occurrences must not collide with the ones just accepted.
		blocking = append(blocking, toSchedulerBooking(persisted))
	}
	return created, skipped, nil
}

func (s *SeriesService) rejectCandidate(now time.Time, blocking []scheduler.Booking, candidate Booking) (string, bool) {
	err := scheduler.Validate(now, blocking, toSchedulerBooking(candidate))
	switch {
	case errors.Is(err, scheduler.ErrPastWindow):
		return "occurrence is in the past", true
	case errors.Is(err, scheduler.ErrInvalidWindow):
		return "occurrence window is invalid", true
	case errors.Is(err, scheduler.ErrConflict):
		return "room already booked for this slot", true
	case err != nil:
		return err.Error(), true
	}
	return "", false
}

// DenySeries rejects a pending series with an audit reason. No bookings
// were materialized yet, so there is nothing to cascade.
func (s *SeriesService) DenySeries(ctx context.Context, principal Principal, seriesID, reason string) (RecurringSeries, error) {
	if s == nil {
		return RecurringSeries{}, fmt.Errorf("SeriesService is nil")
	}
	if s.series == nil {
		return RecurringSeries{}, fmt.Errorf("series repository not configured")
	}
	if !principal.IsAdmin() {
		return RecurringSeries{}, ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		vErr := &ValidationError{}
		vErr.add("reason", "denial reason is required")
		return RecurringSeries{}, vErr
	}

	existing, err := s.series.GetSeries(ctx, seriesID)
	if err != nil {
		return RecurringSeries{}, mapBookingRepoError(err)
	}
	if existing.Status != StatusPendingApproval {
		return RecurringSeries{}, ErrInvalidTransition
	}

	existing.Status = StatusDenied
	existing.DenialReason = &reason
	existing.UpdatedAt = s.now()

	persisted, err := s.series.UpdateSeries(ctx, existing)
	if err != nil {
		return RecurringSeries{}, mapBookingRepoError(err)
	}

	s.loggerWith(ctx, "DenySeries", "principal_id", principal.UserID).
		InfoContext(ctx, "series denied", "series_id", persisted.ID)
	return persisted, nil
}

// CancelSeries withdraws a series and cascades to its future member
// bookings. Occurrences that already started are left untouched.
func (s *SeriesService) CancelSeries(ctx context.Context, principal Principal, seriesID string) (RecurringSeries, error) {
	if s == nil {
		return RecurringSeries{}, fmt.Errorf("SeriesService is nil")
	}
	if s.series == nil || s.bookings == nil {
		return RecurringSeries{}, fmt.Errorf("repositories not configured")
	}

	existing, err := s.series.GetSeries(ctx, seriesID)
	if err != nil {
		return RecurringSeries{}, mapBookingRepoError(err)
	}
	if !principal.IsAdmin() && existing.OrganizerID != principal.UserID {
		return RecurringSeries{}, ErrForbidden
	}
	if existing.Status.Terminal() {
		return RecurringSeries{}, ErrInvalidTransition
	}

	now := s.now()
	members, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		SeriesID: &existing.ID,
		Statuses: []BookingStatus{StatusConfirmed, StatusPendingApproval},
	})
	if err != nil && !isNotFoundError(err) {
		return RecurringSeries{}, err
	}

	canceledMembers := 0
	for _, member := range members {
		if !member.Start.After(now) {
			continue
		}
		member.Status = StatusCanceled
		member.UpdatedAt = now
		if _, err := s.bookings.UpdateBooking(ctx, member); err != nil {
			return RecurringSeries{}, mapBookingRepoError(err)
		}
		canceledMembers++
	}

	existing.Status = StatusCanceled
	existing.UpdatedAt = now
	persisted, err := s.series.UpdateSeries(ctx, existing)
	if err != nil {
		return RecurringSeries{}, mapBookingRepoError(err)
	}
	s.cache.Invalidate()

	s.loggerWith(ctx, "CancelSeries", "principal_id", principal.UserID).InfoContext(ctx, "series canceled",
		"series_id", persisted.ID,
		"canceled_members", canceledMembers,
	)
	return persisted, nil
}

func (s *SeriesService) ensureRoomExists(ctx context.Context, roomID string) error {
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

// blockingForRange fetches the blocking bookings overlapping the full span
// of the expansion, so per-occurrence checks run against one snapshot.
func (s *SeriesService) blockingForRange(ctx context.Context, roomID string, occurrences []recurrence.Occurrence) ([]scheduler.Booking, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}
	rangeStart := occurrences[0].Start
	rangeEnd := occurrences[len(occurrences)-1].End

	existing, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		RoomID:       &roomID,
		Statuses:     []BookingStatus{StatusConfirmed, StatusPendingApproval},
		StartsBefore: &rangeEnd,
		EndsAfter:    &rangeStart,
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

func validateSeriesCore(input SeriesInput, vErr *ValidationError) (recurrence.Rule, bool) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}

	rule := recurrence.Rule{FirstDate: input.FirstDate, EndDate: input.EndDate}
	ok := true

	frequency, err := recurrence.ParseFrequency(input.Frequency)
	if err != nil {
		vErr.add("frequency", "frequency must be Daily, Weekly, or Monthly")
		ok = false
	}
	rule.Frequency = frequency

	startTime, err := recurrence.ParseTimeOfDay(input.StartTime)
	if err != nil {
		vErr.add("start_time", "start time must use HH:MM")
		ok = false
	}
	rule.StartTime = startTime

	endTime, err := recurrence.ParseTimeOfDay(input.EndTime)
	if err != nil {
		vErr.add("end_time", "end time must use HH:MM")
		ok = false
	}
	rule.EndTime = endTime

	if ok && endTime.Minutes() <= startTime.Minutes() {
		vErr.add("window", "end must be after start")
		ok = false
	}

	if input.FirstDate.IsZero() {
		vErr.add("first_date", "first occurrence date is required")
		ok = false
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "series end date is required")
		ok = false
	}

	return rule, ok
}

func seriesRule(series RecurringSeries) (recurrence.Rule, error) {
	frequency, err := recurrence.ParseFrequency(series.Frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}
	startTime, err := recurrence.ParseTimeOfDay(series.StartTime)
	if err != nil {
		return recurrence.Rule{}, err
	}
	endTime, err := recurrence.ParseTimeOfDay(series.EndTime)
	if err != nil {
		return recurrence.Rule{}, err
	}
	return recurrence.Rule{
		Frequency: frequency,
		FirstDate: series.FirstDate,
		EndDate:   series.EndDate,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

func anyFutureOccurrence(occurrences []recurrence.Occurrence, now time.Time) bool {
	for _, occ := range occurrences {
		if occ.Start.After(now) {
			return true
		}
	}
	return false
}
