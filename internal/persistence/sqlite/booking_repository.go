package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a SQLite-backed booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, title, room_id, organizer_id, start_at, end_at, status, attendee_emails, denial_reason, series_id, created_at, updated_at`

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		booking.ID,
		booking.Title,
		booking.RoomID,
		booking.OrganizerID,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Status,
		booking.AttendeeEmails,
		nullableString(booking.DenialReason),
		nullableString(booking.SeriesID),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateBooking replaces the mutable columns of an existing booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	const query = `
		UPDATE bookings
		SET title = ?, room_id = ?, start_at = ?, end_at = ?, status = ?,
		    attendee_emails = ?, denial_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		booking.Title,
		booking.RoomID,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Status,
		booking.AttendeeEmails,
		nullableString(booking.DenialReason),
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return r.scanBooking(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListBookings returns the bookings matching the filter, ordered by start
// time then ID.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`

	var conditions []string
	var args []any

	if filter.RoomID != nil {
		conditions = append(conditions, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.OrganizerID != nil {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, *filter.OrganizerID)
	}
	if filter.SeriesID != nil {
		conditions = append(conditions, "series_id = ?")
		args = append(args, *filter.SeriesID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_at < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		conditions = append(conditions, "end_at > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return bookings, nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// CountBookingsForRoom reports how many bookings reference the room.
func (r *BookingRepository) CountBookingsForRoom(ctx context.Context, roomID string) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM bookings WHERE room_id = ?", roomID)
}

// CountBookingsForOrganizer reports how many bookings the user organizes.
func (r *BookingRepository) CountBookingsForOrganizer(ctx context.Context, organizerID string) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM bookings WHERE organizer_id = ?", organizerID)
}

func (r *BookingRepository) count(ctx context.Context, query string, arg any) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, query, arg).Scan(&count); err != nil {
		return 0, mapSQLiteError(err)
	}
	return count, nil
}

func (r *BookingRepository) scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var startAt, endAt, createdAt, updatedAt string
	var denialReason, seriesID sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.Title,
		&booking.RoomID,
		&booking.OrganizerID,
		&startAt,
		&endAt,
		&booking.Status,
		&booking.AttendeeEmails,
		&denialReason,
		&seriesID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapSQLiteError(err)
	}

	if denialReason.Valid {
		booking.DenialReason = &denialReason.String
	}
	if seriesID.Valid {
		booking.SeriesID = &seriesID.String
	}
	if booking.Start, err = parseTime(startAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse start_at: %w", err)
	}
	if booking.End, err = parseTime(endAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse end_at: %w", err)
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return booking, nil
}
