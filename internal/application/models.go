package application

import "time"

// Role identifies the authorization level of a user.
type Role string

const (
	// RoleEmployee can submit and manage their own bookings.
	RoleEmployee Role = "Employee"
	// RoleAdmin governs rooms, users, and the approval queue.
	RoleAdmin Role = "Admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the Admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// BookingStatus is the lifecycle state of a booking or a recurring series.
type BookingStatus string

const (
	// StatusPendingApproval is the initial state of employee submissions.
	StatusPendingApproval BookingStatus = "PendingApproval"
	// StatusConfirmed marks an approved reservation.
	StatusConfirmed BookingStatus = "Confirmed"
	// StatusDenied marks an admin-rejected reservation. Terminal.
	StatusDenied BookingStatus = "Denied"
	// StatusCanceled marks a withdrawn reservation. Terminal.
	StatusCanceled BookingStatus = "Canceled"
)

// Terminal reports whether no further transitions are allowed from the status.
func (s BookingStatus) Terminal() bool {
	return s == StatusDenied || s == StatusCanceled
}

// Blocking reports whether a booking in this status occupies its room
// window for conflict purposes.
func (s BookingStatus) Blocking() bool {
	return s == StatusConfirmed || s == StatusPendingApproval
}

// User represents an employee account exposed by the application services.
type User struct {
	ID          string
	Email       string
	FullName    string
	PhoneNumber *string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	FullName    string
	PhoneNumber *string
	Role        Role
	Password    string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// Room represents a bookable meeting room.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Equipment []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Location  string
	Capacity  int
	Equipment []string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Booking represents a single reservation of a room for a time window.
type Booking struct {
	ID             string
	Title          string
	RoomID         string
	OrganizerID    string
	Start          time.Time
	End            time.Time
	Status         BookingStatus
	AttendeeEmails string
	DenialReason   *string
	SeriesID       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	Title          string
	RoomID         string
	Start          time.Time
	End            time.Time
	AttendeeEmails string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// EditBookingParams wraps the data required to edit an existing booking.
type EditBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// RecurringSeries represents a recurring reservation request. Approved
// series own the bookings they materialize (Booking.SeriesID back-reference).
type RecurringSeries struct {
	ID             string
	Title          string
	RoomID         string
	OrganizerID    string
	Frequency      string
	StartTime      string
	EndTime        string
	FirstDate      time.Time
	EndDate        time.Time
	Status         BookingStatus
	AttendeeEmails string
	DenialReason   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SeriesInput captures caller provided recurring series fields. StartTime
// and EndTime are wall-clock values in "HH:MM" form; FirstDate and EndDate
// carry only their date portion.
type SeriesInput struct {
	Title          string
	RoomID         string
	Frequency      string
	StartTime      string
	EndTime        string
	FirstDate      time.Time
	EndDate        time.Time
	AttendeeEmails string
}

// CreateSeriesParams wraps the data required to create a recurring series.
type CreateSeriesParams struct {
	Principal Principal
	Input     SeriesInput
}

// SkippedOccurrence records one candidate occurrence that failed validation
// during series approval, with the reason it was not materialized.
type SkippedOccurrence struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// SeriesApprovalResult enumerates the outcome of approving a series:
// materialized bookings plus the occurrences skipped per the partial
// acceptance policy. Skips are not errors.
type SeriesApprovalResult struct {
	Series  RecurringSeries
	Created []Booking
	Skipped []SkippedOccurrence
}

// BookingView is a booking enriched with display names resolved at read
// time. Enrichment never mutates the underlying booking.
type BookingView struct {
	Booking
	RoomName       string
	OrganizerName  string
	OrganizerEmail string
	OrganizerPhone *string
}

// QueueItemType distinguishes single bookings from recurring series in the
// approval queue.
type QueueItemType string

const (
	// QueueItemSingle marks a pending single booking.
	QueueItemSingle QueueItemType = "Single"
	// QueueItemRecurring marks a pending recurring series.
	QueueItemRecurring QueueItemType = "Recurring"
)

// ApprovalQueueItem is one pending entry awaiting an admin decision. The
// Actionable flag disables, but does not hide, decisions on items whose
// start has already passed.
type ApprovalQueueItem struct {
	Type           QueueItemType
	ID             string
	Title          string
	RoomName       string
	OrganizerName  string
	Start          time.Time
	End            time.Time
	Details        string
	Actionable     bool
	AttendeeEmails string
}

// DashboardParams bounds the calendar window served to the dashboard.
// When RangeStart/RangeEnd are nil, a 14-day window around now is used.
type DashboardParams struct {
	Principal  Principal
	RangeStart *time.Time
	RangeEnd   *time.Time
	RoomID     *string
}

// ReportFilter narrows the reporting aggregate.
type ReportFilter struct {
	Status *BookingStatus
	From   *time.Time
	To     *time.Time
}

// Report aggregates booking counts by status.
type Report struct {
	Total    int
	ByStatus map[BookingStatus]int
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// UserCredentials pairs a user with their stored password hash for
// authentication checks.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
