package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// SeriesRepository implements persistence.SeriesRepository using SQLite.
type SeriesRepository struct {
	pool *ConnectionPool
}

// NewSeriesRepository creates a SQLite-backed recurring series repository.
func NewSeriesRepository(pool *ConnectionPool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

const seriesColumns = `id, title, room_id, organizer_id, frequency, start_time, end_time, first_date, end_date, status, attendee_emails, denial_reason, created_at, updated_at`

// dateLayout stores first_date and end_date as bare dates; the wall-clock
// component lives in start_time/end_time.
const dateLayout = "2006-01-02"

// CreateSeries inserts a new recurring series row.
func (r *SeriesRepository) CreateSeries(ctx context.Context, series persistence.RecurringSeries) error {
	query := `
		INSERT INTO recurring_series (` + seriesColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		series.ID,
		series.Title,
		series.RoomID,
		series.OrganizerID,
		series.Frequency,
		series.StartTimeOfDay,
		series.EndTimeOfDay,
		series.FirstDate.Format(dateLayout),
		series.EndDate.Format(dateLayout),
		series.Status,
		series.AttendeeEmails,
		nullableString(series.DenialReason),
		formatTime(series.CreatedAt),
		formatTime(series.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateSeries replaces the mutable columns of an existing series.
func (r *SeriesRepository) UpdateSeries(ctx context.Context, series persistence.RecurringSeries) error {
	const query = `
		UPDATE recurring_series
		SET title = ?, frequency = ?, start_time = ?, end_time = ?, first_date = ?, end_date = ?,
		    status = ?, attendee_emails = ?, denial_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		series.Title,
		series.Frequency,
		series.StartTimeOfDay,
		series.EndTimeOfDay,
		series.FirstDate.Format(dateLayout),
		series.EndDate.Format(dateLayout),
		series.Status,
		series.AttendeeEmails,
		nullableString(series.DenialReason),
		formatTime(series.UpdatedAt),
		series.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetSeries retrieves a series by ID.
func (r *SeriesRepository) GetSeries(ctx context.Context, id string) (persistence.RecurringSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM recurring_series WHERE id = ?`
	return r.scanSeries(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListSeries returns the series matching the filter, ordered by first date
// then ID.
func (r *SeriesRepository) ListSeries(ctx context.Context, filter persistence.SeriesFilter) ([]persistence.RecurringSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM recurring_series`

	var conditions []string
	var args []any

	if filter.OrganizerID != nil {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, *filter.OrganizerID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY first_date ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var series []persistence.RecurringSeries
	for rows.Next() {
		item, err := r.scanSeries(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return series, nil
}

func (r *SeriesRepository) scanSeries(row rowScanner) (persistence.RecurringSeries, error) {
	var series persistence.RecurringSeries
	var firstDate, endDate, createdAt, updatedAt string
	var denialReason sql.NullString

	err := row.Scan(
		&series.ID,
		&series.Title,
		&series.RoomID,
		&series.OrganizerID,
		&series.Frequency,
		&series.StartTimeOfDay,
		&series.EndTimeOfDay,
		&firstDate,
		&endDate,
		&series.Status,
		&series.AttendeeEmails,
		&denialReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.RecurringSeries{}, persistence.ErrNotFound
		}
		return persistence.RecurringSeries{}, mapSQLiteError(err)
	}

	if denialReason.Valid {
		series.DenialReason = &denialReason.String
	}
	if series.FirstDate, err = parseDate(firstDate); err != nil {
		return persistence.RecurringSeries{}, fmt.Errorf("parse first_date: %w", err)
	}
	if series.EndDate, err = parseDate(endDate); err != nil {
		return persistence.RecurringSeries{}, fmt.Errorf("parse end_date: %w", err)
	}
	if series.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.RecurringSeries{}, fmt.Errorf("parse created_at: %w", err)
	}
	if series.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.RecurringSeries{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return series, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}
