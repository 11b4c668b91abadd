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

// timeLayout is the stored timestamp format. RFC3339 in UTC keeps string
// comparison in SQL consistent with chronological order.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user row.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	const query = `
		INSERT INTO users (id, email, full_name, phone_number, role, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		nullableString(user.PhoneNumber),
		user.Role,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateUser replaces the mutable columns of an existing user. The stored
// password hash is left untouched unless the model carries a new one.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	query := `
		UPDATE users
		SET email = ?, full_name = ?, phone_number = ?, role = ?, updated_at = ?
		WHERE id = ?
	`
	args := []any{
		user.Email,
		user.FullName,
		nullableString(user.PhoneNumber),
		user.Role,
		formatTime(user.UpdatedAt),
		user.ID,
	}
	if user.PasswordHash != "" {
		query = `
			UPDATE users
			SET email = ?, full_name = ?, phone_number = ?, role = ?, password_hash = ?, updated_at = ?
			WHERE id = ?
		`
		args = []any{
			user.Email,
			user.FullName,
			nullableString(user.PhoneNumber),
			user.Role,
			user.PasswordHash,
			formatTime(user.UpdatedAt),
			user.ID,
		}
	}

	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	const query = `
		SELECT id, email, full_name, phone_number, role, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.pool.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	const query = `
		SELECT id, email, full_name, phone_number, role, password_hash, created_at, updated_at
		FROM users
		WHERE email = ? COLLATE NOCASE
	`
	return r.scanUser(r.pool.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

// ListUsers returns all users ordered by email then ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	const query = `
		SELECT id, email, full_name, phone_number, role, password_hash, created_at, updated_at
		FROM users
		ORDER BY email COLLATE NOCASE ASC, id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return users, nil
}

// DeleteUser removes a user by ID. A user still referenced by bookings
// fails with ErrReferenced.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		mapped := mapSQLiteError(err)
		if errors.Is(mapped, persistence.ErrForeignKeyViolation) {
			return persistence.ErrReferenced
		}
		return mapped
	}
	return requireRowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var phone sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&phone,
		&user.Role,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapSQLiteError(err)
	}

	if phone.Valid {
		user.PhoneNumber = &phone.String
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return user, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
