package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

type seriesService interface {
	CreateSeries(ctx context.Context, params application.CreateSeriesParams) (application.RecurringSeries, error)
	ApproveSeries(ctx context.Context, principal application.Principal, seriesID string) (application.SeriesApprovalResult, error)
	DenySeries(ctx context.Context, principal application.Principal, seriesID, reason string) (application.RecurringSeries, error)
	CancelSeries(ctx context.Context, principal application.Principal, seriesID string) (application.RecurringSeries, error)
}

// SeriesHandler serves recurring booking submission and its decision
// endpoints.
type SeriesHandler struct {
	service   seriesService
	responder responder
	logger    *slog.Logger
}

func NewSeriesHandler(service seriesService, logger *slog.Logger) *SeriesHandler {
	base := defaultLogger(logger)
	return &SeriesHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SeriesHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SeriesHandler", operation, attrs...)
}

// Create submits a recurring booking request. Employee submissions enter
// the approval queue; admin submissions are expanded and confirmed
// immediately.
func (h *SeriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode series request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	series, err := h.service.CreateSeries(r.Context(), application.CreateSeriesParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "series creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("series_id", series.ID).InfoContext(r.Context(), "recurring booking submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, seriesResponse{Series: toSeriesDTO(series)})
}

// Approve confirms a pending series and materializes its occurrences.
// Occurrences that conflict or lie in the past are skipped, not fatal.
func (h *SeriesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID := strings.TrimSpace(chi.URLParam(r, "id"))
	if seriesID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "series_id", seriesID)

	result, err := h.service.ApproveSeries(r.Context(), principal, seriesID)
	if err != nil {
		logger.ErrorContext(r.Context(), "series approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With(
		"created_count", len(result.Created),
		"skipped_count", len(result.Skipped),
	).InfoContext(r.Context(), "series approved")

	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesApprovalResponse{
		Series:  toSeriesDTO(result.Series),
		Created: toSeriesCreatedDTOs(result.Created),
		Skipped: toSkippedDTOs(result.Skipped),
	})
}

// Deny rejects a pending series. A non-blank reason is required.
func (h *SeriesHandler) Deny(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID := strings.TrimSpace(chi.URLParam(r, "id"))
	if seriesID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req denialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Deny", "principal_id", principal.UserID, "series_id", seriesID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode denial request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Deny", "principal_id", principal.UserID, "series_id", seriesID)

	series, err := h.service.DenySeries(r.Context(), principal, seriesID, req.Reason)
	if err != nil {
		logger.ErrorContext(r.Context(), "series denial failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "series denied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesResponse{Series: toSeriesDTO(series)})
}

// Cancel withdraws a series and cascades to its future materialized
// bookings.
func (h *SeriesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID := strings.TrimSpace(chi.URLParam(r, "id"))
	if seriesID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "series_id", seriesID)

	series, err := h.service.CancelSeries(r.Context(), principal, seriesID)
	if err != nil {
		logger.ErrorContext(r.Context(), "series cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "series canceled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesResponse{Series: toSeriesDTO(series)})
}

type seriesRequest struct {
	Title          string `json:"title"`
	RoomID         string `json:"room_id"`
	Frequency      string `json:"frequency"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	FirstDate      string `json:"first_date"`
	EndDate        string `json:"end_date"`
	AttendeeEmails string `json:"attendee_emails"`
}

func (r seriesRequest) toInput() application.SeriesInput {
	return application.SeriesInput{
		Title:          strings.TrimSpace(r.Title),
		RoomID:         strings.TrimSpace(r.RoomID),
		Frequency:      strings.TrimSpace(r.Frequency),
		StartTime:      strings.TrimSpace(r.StartTime),
		EndTime:        strings.TrimSpace(r.EndTime),
		FirstDate:      parseDateOnly(r.FirstDate),
		EndDate:        parseDateOnly(r.EndDate),
		AttendeeEmails: strings.TrimSpace(r.AttendeeEmails),
	}
}

func parseDateOnly(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	return time.Time{}
}

type denialRequest struct {
	Reason string `json:"reason"`
}

type seriesResponse struct {
	Series seriesDTO `json:"recurring_booking"`
}

type seriesApprovalResponse struct {
	Series  seriesDTO              `json:"recurring_booking"`
	Created []bookingDTO           `json:"created_bookings,omitempty"`
	Skipped []skippedOccurrenceDTO `json:"skipped_occurrences,omitempty"`
}

type seriesDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RoomID         string  `json:"room_id"`
	OrganizerID    string  `json:"organizer_id"`
	Frequency      string  `json:"frequency"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	FirstDate      string  `json:"first_date"`
	EndDate        string  `json:"end_date"`
	Status         string  `json:"status"`
	AttendeeEmails string  `json:"attendee_emails,omitempty"`
	DenialReason   *string `json:"denial_reason,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toSeriesDTO(series application.RecurringSeries) seriesDTO {
	return seriesDTO{
		ID:             series.ID,
		Title:          series.Title,
		RoomID:         series.RoomID,
		OrganizerID:    series.OrganizerID,
		Frequency:      series.Frequency,
		StartTime:      series.StartTime,
		EndTime:        series.EndTime,
		FirstDate:      series.FirstDate.Format("2006-01-02"),
		EndDate:        series.EndDate.Format("2006-01-02"),
		Status:         string(series.Status),
		AttendeeEmails: series.AttendeeEmails,
		DenialReason:   series.DenialReason,
		CreatedAt:      series.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      series.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSeriesCreatedDTOs(bookings []application.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

type skippedOccurrenceDTO struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

func toSkippedDTOs(skipped []application.SkippedOccurrence) []skippedOccurrenceDTO {
	if len(skipped) == 0 {
		return nil
	}
	out := make([]skippedOccurrenceDTO, 0, len(skipped))
	for _, occurrence := range skipped {
		out = append(out, skippedOccurrenceDTO{
			Start:  occurrence.Start.UTC().Format(time.RFC3339Nano),
			End:    occurrence.End.UTC().Format(time.RFC3339Nano),
			Reason: occurrence.Reason,
		})
	}
	return out
}
