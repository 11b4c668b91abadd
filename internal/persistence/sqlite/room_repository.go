package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a SQLite-backed room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a new room row.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	equipment, err := encodeEquipment(room.Equipment)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO rooms (id, name, location, capacity, equipment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.pool.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Location,
		room.Capacity,
		equipment,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateRoom replaces the mutable columns of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	equipment, err := encodeEquipment(room.Equipment)
	if err != nil {
		return err
	}

	const query = `
		UPDATE rooms
		SET name = ?, location = ?, capacity = ?, equipment = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		room.Name,
		room.Location,
		room.Capacity,
		equipment,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	const query = `
		SELECT id, name, location, capacity, equipment, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`
	return r.scanRoom(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListRooms returns all rooms ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	const query = `
		SELECT id, name, location, capacity, equipment, created_at, updated_at
		FROM rooms
		ORDER BY name ASC, id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room by ID. A room still referenced by bookings or
// series fails with ErrReferenced.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		mapped := mapSQLiteError(err)
		if errors.Is(mapped, persistence.ErrForeignKeyViolation) {
			return persistence.ErrReferenced
		}
		return mapped
	}
	return requireRowsAffected(result)
}

func (r *RoomRepository) scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var equipment string
	var createdAt, updatedAt string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Location,
		&room.Capacity,
		&equipment,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapSQLiteError(err)
	}

	if room.Equipment, err = decodeEquipment(equipment); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return room, nil
}

func encodeEquipment(equipment []string) (string, error) {
	if len(equipment) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(equipment)
	if err != nil {
		return "", fmt.Errorf("encode equipment: %w", err)
	}
	return string(raw), nil
}

func decodeEquipment(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var equipment []string
	if err := json.Unmarshal([]byte(raw), &equipment); err != nil {
		return nil, fmt.Errorf("decode equipment: %w", err)
	}
	return equipment, nil
}
