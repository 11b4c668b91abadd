package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type seriesRepoStub struct {
	store     map[string]RecurringSeries
	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newSeriesRepoStub(series ...RecurringSeries) *seriesRepoStub {
	stub := &seriesRepoStub{store: make(map[string]RecurringSeries)}
	for _, item := range series {
		stub.store[item.ID] = item
	}
	return stub
}

func (s *seriesRepoStub) CreateSeries(ctx context.Context, series RecurringSeries) (RecurringSeries, error) {
	if s.createErr != nil {
		return RecurringSeries{}, s.createErr
	}
	s.store[series.ID] = series
	return series, nil
}

func (s *seriesRepoStub) GetSeries(ctx context.Context, id string) (RecurringSeries, error) {
	if s.getErr != nil {
		return RecurringSeries{}, s.getErr
	}
	series, ok := s.store[id]
	if !ok {
		return RecurringSeries{}, ErrNotFound
	}
	return series, nil
}

func (s *seriesRepoStub) UpdateSeries(ctx context.Context, series RecurringSeries) (RecurringSeries, error) {
	if s.updateErr != nil {
		return RecurringSeries{}, s.updateErr
	}
	if _, ok := s.store[series.ID]; !ok {
		return RecurringSeries{}, ErrNotFound
	}
	s.store[series.ID] = series
	return series, nil
}

func (s *seriesRepoStub) ListSeries(ctx context.Context, filter SeriesRepositoryFilter) ([]RecurringSeries, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []RecurringSeries
	for _, series := range s.store {
		if filter.OrganizerID != nil && series.OrganizerID != *filter.OrganizerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if series.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, series)
	}
	return out, nil
}

func newTestSeriesService(series *seriesRepoStub, bookings *bookingRepoStub, now time.Time) *SeriesService {
	return NewSeriesService(series, bookings, &roomCatalogStub{exists: true}, NewRoomLocker(), nil, sequentialIDs("series"), fixedClock(now))
}

func weeklySeries(id string) RecurringSeries {
	return RecurringSeries{
		ID:          id,
		Title:       "Weekly standup",
		RoomID:      "room-1",
		OrganizerID: "user-1",
		Frequency:   "Weekly",
		StartTime:   "10:00",
		EndTime:     "11:00",
		FirstDate:   time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		Status:      StatusPendingApproval,
	}
}

func TestSeriesService_CreateSeries_EmployeeEntersApprovalQueue(t *testing.T) {
	t.Parallel()

	repo := newSeriesRepoStub()
	bookings := newBookingRepoStub()
	svc := newTestSeriesService(repo, bookings, dayAt(t, 8))

	series, err := svc.CreateSeries(context.Background(), CreateSeriesParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: SeriesInput{
			Title:     "Weekly standup",
			RoomID:    "room-1",
			Frequency: "Weekly",
			StartTime: "10:00",
			EndTime:   "11:00",
			FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("CreateSeries failed: %v", err)
	}

	if series.Status != StatusPendingApproval {
		t.Fatalf("expected PendingApproval, got %s", series.Status)
	}
	if len(bookings.store) != 0 {
		t.Fatalf("expected no materialized bookings before approval, got %d", len(bookings.store))
	}
}

func TestSeriesService_CreateSeries_AdminExpandsImmediately(t *testing.T) {
	t.Parallel()

	repo := newSeriesRepoStub()
	bookings := newBookingRepoStub()
	svc := newTestSeriesService(repo, bookings, dayAt(t, 8))

	series, err := svc.CreateSeries(context.Background(), CreateSeriesParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		Input: SeriesInput{
			Title:     "Weekly standup",
			RoomID:    "room-1",
			Frequency: "Weekly",
			StartTime: "10:00",
			EndTime:   "11:00",
			FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("CreateSeries failed: %v", err)
	}

	// Admin submissions are pre-approved, mirroring single bookings: the
	// series is stored Confirmed and its occurrences exist right away.
	if series.Status != StatusConfirmed {
		t.Fatalf("expected Confirmed, got %s", series.Status)
	}
	if len(bookings.store) != 5 {
		t.Fatalf("expected 5 materialized bookings, got %d", len(bookings.store))
	}
	for _, booking := range bookings.store {
		if booking.Status != StatusConfirmed {
			t.Fatalf("expected Confirmed member, got %s", booking.Status)
		}
		if booking.SeriesID == nil || *booking.SeriesID != series.ID {
			t.Fatalf("expected member referencing %s, got %v", series.ID, booking.SeriesID)
		}
	}
}

func TestSeriesService_CreateSeries_ValidatesRule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input SeriesInput
		field string
	}{
		{
			name: "unknown frequency",
			input: SeriesInput{
				Title: "Standup", RoomID: "room-1", Frequency: "Fortnightly",
				StartTime: "10:00", EndTime: "11:00",
				FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
			},
			field: "frequency",
		},
		{
			name: "malformed start time",
			input: SeriesInput{
				Title: "Standup", RoomID: "room-1", Frequency: "Weekly",
				StartTime: "25:99", EndTime: "11:00",
				FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
			},
			field: "start_time",
		},
		{
			name: "end not after start",
			input: SeriesInput{
				Title: "Standup", RoomID: "room-1", Frequency: "Weekly",
				StartTime: "11:00", EndTime: "10:00",
				FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
			},
			field: "window",
		},
		{
			name: "missing title",
			input: SeriesInput{
				RoomID: "room-1", Frequency: "Weekly",
				StartTime: "10:00", EndTime: "11:00",
				FirstDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
			},
			field: "title",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestSeriesService(newSeriesRepoStub(), newBookingRepoStub(), dayAt(t, 8))
			_, err := svc.CreateSeries(context.Background(), CreateSeriesParams{
				Principal: Principal{UserID: "user-1", Role: RoleEmployee},
				Input:     tc.input,
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

func TestSeriesService_CreateSeries_RejectsFullyPastSeries(t *testing.T) {
	t.Parallel()

	svc := newTestSeriesService(newSeriesRepoStub(), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.CreateSeries(context.Background(), CreateSeriesParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input: SeriesInput{
			Title:     "Retro",
			RoomID:    "room-1",
			Frequency: "Weekly",
			StartTime: "10:00",
			EndTime:   "11:00",
			FirstDate: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["end_date"]; !ok {
		t.Fatalf("expected end_date validation error, got %v", vErr.FieldErrors)
	}
}

func TestSeriesService_ApproveSeries_MaterializesConfirmedBookings(t *testing.T) {
	t.Parallel()

	series := newSeriesRepoStub(weeklySeries("series-1"))
	bookings := newBookingRepoStub()
	svc := newTestSeriesService(series, bookings, dayAt(t, 8))

	result, err := svc.ApproveSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if err != nil {
		t.Fatalf("ApproveSeries failed: %v", err)
	}

	if result.Series.Status != StatusConfirmed {
		t.Fatalf("expected series Confirmed, got %s", result.Series.Status)
	}
	if len(result.Created) != 5 {
		t.Fatalf("expected 5 materialized bookings, got %d", len(result.Created))
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("expected no skips, got %v", result.Skipped)
	}
	for _, booking := range result.Created {
		if booking.Status != StatusConfirmed {
			t.Fatalf("expected Confirmed member, got %s", booking.Status)
		}
		if booking.SeriesID == nil || *booking.SeriesID != "series-1" {
			t.Fatalf("expected series back-reference, got %v", booking.SeriesID)
		}
	}
}

func TestSeriesService_ApproveSeries_SkipsConflictingOccurrence(t *testing.T) {
	t.Parallel()

	// The June 23 occurrence collides with an existing confirmed booking;
	// the other four weeks must still be materialized.
	occupied := Booking{
		ID:     "existing-1",
		RoomID: "room-1",
		Start:  time.Date(2025, 6, 23, 10, 30, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 23, 11, 30, 0, 0, time.UTC),
		Status: StatusConfirmed,
	}
	series := newSeriesRepoStub(weeklySeries("series-1"))
	svc := newTestSeriesService(series, newBookingRepoStub(occupied), dayAt(t, 8))

	result, err := svc.ApproveSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if err != nil {
		t.Fatalf("ApproveSeries failed: %v", err)
	}

	if len(result.Created) != 4 {
		t.Fatalf("expected 4 materialized bookings, got %d", len(result.Created))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped occurrence, got %d", len(result.Skipped))
	}
	skipped := result.Skipped[0]
	if !skipped.Start.Equal(time.Date(2025, 6, 23, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the June 23 occurrence skipped, got %v", skipped.Start)
	}
	if skipped.Reason == "" {
		t.Fatal("expected a skip reason")
	}
}

func TestSeriesService_ApproveSeries_SkipsPastOccurrences(t *testing.T) {
	t.Parallel()

	series := newSeriesRepoStub(weeklySeries("series-1"))
	// Approval happens after the first occurrence has started.
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	svc := newTestSeriesService(series, newBookingRepoStub(), now)

	result, err := svc.ApproveSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if err != nil {
		t.Fatalf("ApproveSeries failed: %v", err)
	}

	if len(result.Created) != 4 {
		t.Fatalf("expected 4 materialized bookings, got %d", len(result.Created))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped occurrence, got %d", len(result.Skipped))
	}
}

func TestSeriesService_ApproveSeries_ExpiredWhenNoFutureOccurrence(t *testing.T) {
	t.Parallel()

	series := newSeriesRepoStub(weeklySeries("series-1"))
	svc := newTestSeriesService(series, newBookingRepoStub(), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.ApproveSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestSeriesService_ApproveSeries_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestSeriesService(newSeriesRepoStub(weeklySeries("series-1")), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.ApproveSeries(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "series-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSeriesService_ApproveSeries_RejectsNonPending(t *testing.T) {
	t.Parallel()

	confirmed := weeklySeries("series-1")
	confirmed.Status = StatusConfirmed
	svc := newTestSeriesService(newSeriesRepoStub(confirmed), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.ApproveSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSeriesService_DenySeries_RequiresReason(t *testing.T) {
	t.Parallel()

	svc := newTestSeriesService(newSeriesRepoStub(weeklySeries("series-1")), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.DenySeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1", "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["reason"]; !ok {
		t.Fatalf("expected reason validation error, got %v", vErr.FieldErrors)
	}
}

func TestSeriesService_DenySeries_StoresReason(t *testing.T) {
	t.Parallel()

	svc := newTestSeriesService(newSeriesRepoStub(weeklySeries("series-1")), newBookingRepoStub(), dayAt(t, 8))

	series, err := svc.DenySeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1", "room under renovation")
	if err != nil {
		t.Fatalf("DenySeries failed: %v", err)
	}

	if series.Status != StatusDenied {
		t.Fatalf("expected Denied, got %s", series.Status)
	}
	if series.DenialReason == nil || *series.DenialReason != "room under renovation" {
		t.Fatalf("expected denial reason stored, got %v", series.DenialReason)
	}
}

func TestSeriesService_CancelSeries_CascadesToFutureMembers(t *testing.T) {
	t.Parallel()

	confirmed := weeklySeries("series-1")
	confirmed.Status = StatusConfirmed

	seriesID := "series-1"
	past := Booking{
		ID: "member-1", RoomID: "room-1", OrganizerID: "user-1",
		Start:  time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 9, 11, 0, 0, 0, time.UTC),
		Status: StatusConfirmed, SeriesID: &seriesID,
	}
	future := Booking{
		ID: "member-2", RoomID: "room-1", OrganizerID: "user-1",
		Start:  time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 16, 11, 0, 0, 0, time.UTC),
		Status: StatusConfirmed, SeriesID: &seriesID,
	}
	unrelated := Booking{
		ID: "solo-1", RoomID: "room-1", OrganizerID: "user-1",
		Start:  time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 6, 17, 11, 0, 0, 0, time.UTC),
		Status: StatusConfirmed,
	}

	bookings := newBookingRepoStub(past, future, unrelated)
	svc := newTestSeriesService(newSeriesRepoStub(confirmed), bookings, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	series, err := svc.CancelSeries(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "series-1")
	if err != nil {
		t.Fatalf("CancelSeries failed: %v", err)
	}

	if series.Status != StatusCanceled {
		t.Fatalf("expected series Canceled, got %s", series.Status)
	}
	if got := bookings.store["member-1"].Status; got != StatusConfirmed {
		t.Fatalf("expected past member untouched, got %s", got)
	}
	if got := bookings.store["member-2"].Status; got != StatusCanceled {
		t.Fatalf("expected future member canceled, got %s", got)
	}
	if got := bookings.store["solo-1"].Status; got != StatusConfirmed {
		t.Fatalf("expected unrelated booking untouched, got %s", got)
	}
}

func TestSeriesService_CancelSeries_RejectsForeignSeries(t *testing.T) {
	t.Parallel()

	svc := newTestSeriesService(newSeriesRepoStub(weeklySeries("series-1")), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.CancelSeries(context.Background(), Principal{UserID: "user-2", Role: RoleEmployee}, "series-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSeriesService_CancelSeries_RejectsTerminalStates(t *testing.T) {
	t.Parallel()

	denied := weeklySeries("series-1")
	denied.Status = StatusDenied
	svc := newTestSeriesService(newSeriesRepoStub(denied), newBookingRepoStub(), dayAt(t, 8))

	_, err := svc.CancelSeries(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "series-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
