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

type approvalService interface {
	ApproveBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	DenyBooking(ctx context.Context, principal application.Principal, bookingID, reason string) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
}

type adminQueryService interface {
	ApprovalQueue(ctx context.Context, principal application.Principal) ([]application.ApprovalQueueItem, error)
	AllBookings(ctx context.Context, principal application.Principal, searchTerm string) ([]application.BookingView, error)
	ReportAggregate(ctx context.Context, principal application.Principal, filter application.ReportFilter) (application.Report, error)
}

// AdminHandler serves the administrator surfaces: the approval queue,
// single-booking decisions, hard deletes, the full booking list, and
// reporting aggregates.
type AdminHandler struct {
	bookings  approvalService
	queries   adminQueryService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(bookings approvalService, queries adminQueryService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{bookings: bookings, queries: queries, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// ApprovalQueue lists pending single bookings and recurring series,
// flagging entries whose start time has already passed as not actionable.
func (h *AdminHandler) ApprovalQueue(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ApprovalQueue", "principal_id", principal.UserID)

	items, err := h.queries.ApprovalQueue(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "approval queue query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(items)).InfoContext(r.Context(), "approval queue served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, approvalQueueResponse{Items: toQueueItemDTOs(items)})
}

func (h *AdminHandler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ApproveBooking", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.bookings.ApproveBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking approved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *AdminHandler) DenyBooking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req denialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "DenyBooking", "principal_id", principal.UserID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode denial request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "DenyBooking", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.bookings.DenyBooking(r.Context(), principal, bookingID, req.Reason)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking denial failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking denied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// DeleteBooking removes a booking record entirely, unlike cancellation
// which preserves it in the Canceled state.
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteBooking", "principal_id", principal.UserID, "booking_id", bookingID)

	if err := h.bookings.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// AllBookings lists every booking, optionally narrowed by a
// case-insensitive search over title, room name, and organizer name.
func (h *AdminHandler) AllBookings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	logger := h.log(r.Context(), "AllBookings", "principal_id", principal.UserID)

	views, err := h.queries.AllBookings(r.Context(), principal, search)
	if err != nil {
		logger.ErrorContext(r.Context(), "all-bookings query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "all bookings served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingViewsResponse{Bookings: toBookingViewDTOs(views)})
}

// Reports serves booking counts by status for the optional status and
// date-range filter.
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter := buildReportFilter(r.URL.Query())
	logger := h.log(r.Context(), "Reports", "principal_id", principal.UserID)

	report, err := h.queries.ReportAggregate(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "report query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "report served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReportDTO(report))
}

func buildReportFilter(values url.Values) application.ReportFilter {
	var filter application.ReportFilter

	if status := strings.TrimSpace(values.Get("status")); status != "" {
		parsed := application.BookingStatus(status)
		filter.Status = &parsed
	}
	if from := strings.TrimSpace(values.Get("from")); from != "" {
		if ts := parseTimestamp(from); !ts.IsZero() {
			filter.From = &ts
		}
	}
	if to := strings.TrimSpace(values.Get("to")); to != "" {
		if ts := parseTimestamp(to); !ts.IsZero() {
			filter.To = &ts
		}
	}

	return filter
}

type approvalQueueResponse struct {
	Items []queueItemDTO `json:"items"`
}

type queueItemDTO struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Title          string `json:"title"`
	RoomName       string `json:"room_name"`
	OrganizerName  string `json:"organizer_name"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Details        string `json:"details,omitempty"`
	Actionable     bool   `json:"actionable"`
	AttendeeEmails string `json:"attendee_emails,omitempty"`
}

func toQueueItemDTOs(items []application.ApprovalQueueItem) []queueItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]queueItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, queueItemDTO{
			Type:           string(item.Type),
			ID:             item.ID,
			Title:          item.Title,
			RoomName:       item.RoomName,
			OrganizerName:  item.OrganizerName,
			Start:          item.Start.UTC().Format(time.RFC3339Nano),
			End:            item.End.UTC().Format(time.RFC3339Nano),
			Details:        item.Details,
			Actionable:     item.Actionable,
			AttendeeEmails: item.AttendeeEmails,
		})
	}
	return out
}

type reportDTO struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

func toReportDTO(report application.Report) reportDTO {
	byStatus := make(map[string]int, len(report.ByStatus))
	for status, count := range report.ByStatus {
		byStatus[string(status)] = count
	}
	return reportDTO{Total: report.Total, ByStatus: byStatus}
}
