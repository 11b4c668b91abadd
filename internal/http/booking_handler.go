package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	EditBooking(ctx context.Context, params application.EditBookingParams) (application.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
}

type bookingQueryService interface {
	Dashboard(ctx context.Context, params application.DashboardParams) ([]application.BookingView, error)
	MyBookings(ctx context.Context, principal application.Principal) ([]application.BookingView, error)
}

// BookingHandler serves single-booking submission, edit, cancellation, and
// the calendar projections available to every authenticated user.
type BookingHandler struct {
	service   bookingService
	queries   bookingQueryService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, queries bookingQueryService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, queries: queries, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID, "status", string(booking.Status)).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.service.EditBooking(r.Context(), application.EditBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Cancel withdraws a booking. Organizers may cancel their own future
// bookings; administrators may cancel any booking regardless of start time.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.service.CancelBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking canceled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Dashboard serves the shared calendar view: confirmed and pending bookings
// inside the requested window, enriched with room and organizer details.
func (h *BookingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildDashboardParams(r.URL.Query(), principal)
	logger := h.log(r.Context(), "Dashboard", "principal_id", principal.UserID)

	views, err := h.queries.Dashboard(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "dashboard query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "dashboard served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingViewsResponse{Bookings: toBookingViewDTOs(views)})
}

// MyBookings serves the caller's own bookings across every status.
func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MyBookings", "principal_id", principal.UserID)

	views, err := h.queries.MyBookings(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "my-bookings query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "my bookings served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingViewsResponse{Bookings: toBookingViewDTOs(views)})
}

type bookingRequest struct {
	Title          string `json:"title"`
	RoomID         string `json:"room_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	AttendeeEmails string `json:"attendee_emails"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		Title:          strings.TrimSpace(r.Title),
		RoomID:         strings.TrimSpace(r.RoomID),
		Start:          parseTimestamp(r.Start),
		End:            parseTimestamp(r.End),
		AttendeeEmails: strings.TrimSpace(r.AttendeeEmails),
	}
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func buildDashboardParams(values url.Values, principal application.Principal) application.DashboardParams {
	params := application.DashboardParams{Principal: principal}

	if from := strings.TrimSpace(values.Get("from")); from != "" {
		if ts := parseTimestamp(from); !ts.IsZero() {
			params.RangeStart = &ts
		}
	}
	if to := strings.TrimSpace(values.Get("to")); to != "" {
		if ts := parseTimestamp(to); !ts.IsZero() {
			params.RangeEnd = &ts
		}
	}
	if roomID := strings.TrimSpace(values.Get("room_id")); roomID != "" {
		params.RoomID = &roomID
	}

	return params
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingViewsResponse struct {
	Bookings []bookingViewDTO `json:"bookings"`
}

type bookingDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RoomID         string  `json:"room_id"`
	OrganizerID    string  `json:"organizer_id"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Status         string  `json:"status"`
	AttendeeEmails string  `json:"attendee_emails,omitempty"`
	DenialReason   *string `json:"denial_reason,omitempty"`
	SeriesID       *string `json:"series_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:             booking.ID,
		Title:          booking.Title,
		RoomID:         booking.RoomID,
		OrganizerID:    booking.OrganizerID,
		Start:          booking.Start.UTC().Format(time.RFC3339Nano),
		End:            booking.End.UTC().Format(time.RFC3339Nano),
		Status:         string(booking.Status),
		AttendeeEmails: booking.AttendeeEmails,
		DenialReason:   booking.DenialReason,
		SeriesID:       booking.SeriesID,
		CreatedAt:      booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type bookingViewDTO struct {
	bookingDTO
	RoomName       string  `json:"room_name"`
	OrganizerName  string  `json:"organizer_name"`
	OrganizerEmail string  `json:"organizer_email,omitempty"`
	OrganizerPhone *string `json:"organizer_phone,omitempty"`
}

func toBookingViewDTO(view application.BookingView) bookingViewDTO {
	return bookingViewDTO{
		bookingDTO:     toBookingDTO(view.Booking),
		RoomName:       view.RoomName,
		OrganizerName:  view.OrganizerName,
		OrganizerEmail: view.OrganizerEmail,
		OrganizerPhone: view.OrganizerPhone,
	}
}

func toBookingViewDTOs(views []application.BookingView) []bookingViewDTO {
	if len(views) == 0 {
		return nil
	}
	out := make([]bookingViewDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toBookingViewDTO(view))
	}
	return out
}
