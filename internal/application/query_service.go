package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/recurrence"
)

// DashboardWindow is the default calendar span served around the current
// instant when callers do not request an explicit range.
const DashboardWindow = 14 * 24 * time.Hour

// RoomResolver resolves rooms for display enrichment.
type RoomResolver interface {
	ListRooms(ctx context.Context) ([]Room, error)
}

// UserResolver resolves users for display enrichment.
type UserResolver interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// QueryService produces the read-only, role-filtered projections of the
// booking store. Enrichment resolves room and organizer names by lookup at
// read time and never mutates the underlying bookings.
type QueryService struct {
	bookings BookingRepository
	series   SeriesRepository
	rooms    RoomResolver
	users    UserResolver
	cache    *ProjectionCache
	now      func() time.Time
	logger   *slog.Logger
}

// NewQueryService wires dependencies for the projection layer.
func NewQueryService(bookings BookingRepository, series SeriesRepository, rooms RoomResolver, users UserResolver, cache *ProjectionCache, now func() time.Time) *QueryService {
	return NewQueryServiceWithLogger(bookings, series, rooms, users, cache, now, nil)
}

// NewQueryServiceWithLogger wires dependencies with a specified logger.
func NewQueryServiceWithLogger(bookings BookingRepository, series SeriesRepository, rooms RoomResolver, users UserResolver, cache *ProjectionCache, now func() time.Time, logger *slog.Logger) *QueryService {
	if now == nil {
		now = time.Now
	}
	return &QueryService{
		bookings: bookings,
		series:   series,
		rooms:    rooms,
		users:    users,
		cache:    cache,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *QueryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "QueryService", operation, attrs...)
}

// Dashboard lists the confirmed and pending bookings whose windows
// intersect the requested range, defaulting to two weeks around now, and
// optionally scoped to one room.
func (s *QueryService) Dashboard(ctx context.Context, params DashboardParams) ([]BookingView, error) {
	if s == nil {
		return nil, fmt.Errorf("QueryService is nil")
	}
	if s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	now := s.now()
	rangeStart := now.Add(-DashboardWindow)
	rangeEnd := now.Add(DashboardWindow)
	if params.RangeStart != nil {
		rangeStart = *params.RangeStart
	}
	if params.RangeEnd != nil {
		rangeEnd = *params.RangeEnd
	}

	cacheKey := buildDashboardCacheKey(rangeStart, rangeEnd, params.RoomID)
	if views, ok := s.cache.Get(cacheKey); ok {
		return views, nil
	}

	bookings, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		RoomID:       params.RoomID,
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

	views, err := s.enrich(ctx, bookings)
	if err != nil {
		return nil, err
	}
	sortViewsByStart(views, false)

	s.cache.Store(cacheKey, views)

	s.loggerWith(ctx, "Dashboard", "principal_id", params.Principal.UserID).
		InfoContext(ctx, "dashboard listed", "result_count", len(views))
	return views, nil
}

// MyBookings lists every booking organized by the caller, newest first.
func (s *QueryService) MyBookings(ctx context.Context, principal Principal) ([]BookingView, error) {
	if s == nil {
		return nil, fmt.Errorf("QueryService is nil")
	}
	if s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	organizerID := principal.UserID
	bookings, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{OrganizerID: &organizerID})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	views, err := s.enrich(ctx, bookings)
	if err != nil {
		return nil, err
	}
	sortViewsByStart(views, true)
	return views, nil
}

// ApprovalQueue lists every pending booking and pending series awaiting an
// admin decision. Items whose start has passed are tagged not actionable
// rather than hidden.
func (s *QueryService) ApprovalQueue(ctx context.Context, principal Principal) ([]ApprovalQueueItem, error) {
	if s == nil {
		return nil, fmt.Errorf("QueryService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.bookings == nil || s.series == nil {
		return nil, fmt.Errorf("repositories not configured")
	}

	roomNames, userNames, err := s.lookupTables(ctx)
	if err != nil {
		return nil, err
	}

	pendingBookings, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		Statuses: []BookingStatus{StatusPendingApproval},
	})
	if err != nil && !isNotFoundError(err) {
		return nil, err
	}

	pendingSeries, err := s.series.ListSeries(ctx, SeriesRepositoryFilter{
		Statuses: []BookingStatus{StatusPendingApproval},
	})
	if err != nil && !isNotFoundError(err) {
		return nil, err
	}

	now := s.now()
	items := make([]ApprovalQueueItem, 0, len(pendingBookings)+len(pendingSeries))

	for _, booking := range pendingBookings {
		items = append(items, ApprovalQueueItem{
			Type:           QueueItemSingle,
			ID:             booking.ID,
			Title:          booking.Title,
			RoomName:       roomNames[booking.RoomID],
			OrganizerName:  userNames[booking.OrganizerID].name,
			Start:          booking.Start,
			End:            booking.End,
			Details:        formatWindow(booking.Start, booking.End),
			Actionable:     isActionable(booking.Start, now),
			AttendeeEmails: booking.AttendeeEmails,
		})
	}

	for _, series := range pendingSeries {
		start, end := seriesQueueWindow(series)
		items = append(items, ApprovalQueueItem{
			Type:          QueueItemRecurring,
			ID:            series.ID,
			Title:         series.Title,
			RoomName:      roomNames[series.RoomID],
			OrganizerName: userNames[series.OrganizerID].name,
			Start:         start,
			End:           end,
			Details: fmt.Sprintf("%s %s-%s until %s",
				series.Frequency, series.StartTime, series.EndTime, series.EndDate.Format("2006-01-02")),
			Actionable:     end.After(now),
			AttendeeEmails: series.AttendeeEmails,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Start.Equal(items[j].Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Start.Before(items[j].Start)
	})

	s.loggerWith(ctx, "ApprovalQueue", "principal_id", principal.UserID).
		InfoContext(ctx, "approval queue listed", "result_count", len(items))
	return items, nil
}

// AllBookings lists every booking for administrators, with an optional
// case-insensitive substring search over title, room name, and organizer
// name.
func (s *QueryService) AllBookings(ctx context.Context, principal Principal, searchTerm string) ([]BookingView, error) {
	if s == nil {
		return nil, fmt.Errorf("QueryService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	bookings, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	views, err := s.enrich(ctx, bookings)
	if err != nil {
		return nil, err
	}

	if term := strings.ToLower(strings.TrimSpace(searchTerm)); term != "" {
		filtered := make([]BookingView, 0, len(views))
		for _, view := range views {
			if strings.Contains(strings.ToLower(view.Title), term) ||
				strings.Contains(strings.ToLower(view.RoomName), term) ||
				strings.Contains(strings.ToLower(view.OrganizerName), term) {
				filtered = append(filtered, view)
			}
		}
		views = filtered
	}

	sortViewsByStart(views, true)
	return views, nil
}

// ReportAggregate counts bookings grouped by status under an optional
// status and start-date range filter.
func (s *QueryService) ReportAggregate(ctx context.Context, principal Principal, filter ReportFilter) (Report, error) {
	if s == nil {
		return Report{}, fmt.Errorf("QueryService is nil")
	}
	if !principal.IsAdmin() {
		return Report{}, ErrForbidden
	}
	if s.bookings == nil {
		return Report{}, fmt.Errorf("booking repository not configured")
	}

	bookings, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{})
	if err != nil {
		if isNotFoundError(err) {
			return Report{ByStatus: map[BookingStatus]int{}}, nil
		}
		return Report{}, err
	}

	report := Report{ByStatus: make(map[BookingStatus]int)}
	for _, booking := range bookings {
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		if filter.From != nil && booking.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && booking.Start.After(*filter.To) {
			continue
		}
		report.Total++
		report.ByStatus[booking.Status]++
	}

	return report, nil
}

type userDisplay struct {
	name  string
	email string
	phone *string
}

func (s *QueryService) lookupTables(ctx context.Context) (map[string]string, map[string]userDisplay, error) {
	roomNames := make(map[string]string)
	if s.rooms != nil {
		rooms, err := s.rooms.ListRooms(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, room := range rooms {
			roomNames[room.ID] = room.Name
		}
	}

	userNames := make(map[string]userDisplay)
	if s.users != nil {
		users, err := s.users.ListUsers(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, user := range users {
			userNames[user.ID] = userDisplay{name: user.FullName, email: user.Email, phone: user.PhoneNumber}
		}
	}

	return roomNames, userNames, nil
}

func (s *QueryService) enrich(ctx context.Context, bookings []Booking) ([]BookingView, error) {
	roomNames, userNames, err := s.lookupTables(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]BookingView, 0, len(bookings))
	for _, booking := range bookings {
		display := userNames[booking.OrganizerID]
		views = append(views, BookingView{
			Booking:        booking,
			RoomName:       roomNames[booking.RoomID],
			OrganizerName:  display.name,
			OrganizerEmail: display.email,
			OrganizerPhone: display.phone,
		})
	}
	return views, nil
}

func sortViewsByStart(views []BookingView, newestFirst bool) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Start.Equal(views[j].Start) {
			return views[i].ID < views[j].ID
		}
		if newestFirst {
			return views[i].Start.After(views[j].Start)
		}
		return views[i].Start.Before(views[j].Start)
	})
}

func formatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s %s-%s",
		start.Format("2006-01-02"), start.Format("15:04"), end.Format("15:04"))
}

// seriesQueueWindow derives the first occurrence window of a series for
// queue display. Parse failures fall back to the bare first date so a
// malformed stored rule still shows up in the queue.
func seriesQueueWindow(series RecurringSeries) (time.Time, time.Time) {
	rule, err := seriesRule(series)
	if err != nil {
		return series.FirstDate, series.EndDate
	}
	occurrences, err := recurrence.Expand(rule)
	if err != nil || len(occurrences) == 0 {
		return series.FirstDate, series.EndDate
	}
	first := occurrences[0]
	last := occurrences[len(occurrences)-1]
	return first.Start, last.End
}
