package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

// The sqlite repositories speak in storage models with string statuses and
// bare-error mutations; the application services expect domain models and
// read-back returns. These adapters bridge the two without leaking one
// vocabulary into the other.

type bookingRepositoryAdapter struct {
	repo *sqlite.BookingRepository
}

func newBookingRepositoryAdapter(repo *sqlite.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingRepositoryFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		RoomID:       filter.RoomID,
		OrganizerID:  filter.OrganizerID,
		SeriesID:     filter.SeriesID,
		Statuses:     statusesToStrings(filter.Statuses),
		StartsBefore: filter.StartsBefore,
		EndsAfter:    filter.EndsAfter,
	})
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func (a *bookingRepositoryAdapter) CountBookingsForRoom(ctx context.Context, roomID string) (int, error) {
	return a.repo.CountBookingsForRoom(ctx, roomID)
}

func (a *bookingRepositoryAdapter) CountBookingsForOrganizer(ctx context.Context, organizerID string) (int, error) {
	return a.repo.CountBookingsForOrganizer(ctx, organizerID)
}

type roomRepositoryAdapter struct {
	repo *sqlite.RoomRepository
}

func newRoomRepositoryAdapter(repo *sqlite.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

// RoomExists satisfies application.RoomCatalog.
func (a *roomRepositoryAdapter) RoomExists(ctx context.Context, id string) (bool, error) {
	_, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type userRepositoryAdapter struct {
	repo *sqlite.UserRepository
}

func newUserRepositoryAdapter(repo *sqlite.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	model := toPersistenceUser(user)
	model.PasswordHash = passwordHash
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	// Blank password hash leaves the stored credential untouched.
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	stored, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	stored.PasswordHash = passwordHash
	return a.repo.UpdateUser(ctx, stored)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

// GetUserCredentialsByEmail satisfies application.CredentialStore.
func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type seriesRepositoryAdapter struct {
	repo *sqlite.SeriesRepository
}

func newSeriesRepositoryAdapter(repo *sqlite.SeriesRepository) *seriesRepositoryAdapter {
	return &seriesRepositoryAdapter{repo: repo}
}

func (a *seriesRepositoryAdapter) CreateSeries(ctx context.Context, series application.RecurringSeries) (application.RecurringSeries, error) {
	if err := a.repo.CreateSeries(ctx, toPersistenceSeries(series)); err != nil {
		return application.RecurringSeries{}, err
	}
	stored, err := a.repo.GetSeries(ctx, series.ID)
	if err != nil {
		return application.RecurringSeries{}, err
	}
	return toApplicationSeries(stored), nil
}

func (a *seriesRepositoryAdapter) GetSeries(ctx context.Context, id string) (application.RecurringSeries, error) {
	stored, err := a.repo.GetSeries(ctx, id)
	if err != nil {
		return application.RecurringSeries{}, err
	}
	return toApplicationSeries(stored), nil
}

func (a *seriesRepositoryAdapter) UpdateSeries(ctx context.Context, series application.RecurringSeries) (application.RecurringSeries, error) {
	if err := a.repo.UpdateSeries(ctx, toPersistenceSeries(series)); err != nil {
		return application.RecurringSeries{}, err
	}
	stored, err := a.repo.GetSeries(ctx, series.ID)
	if err != nil {
		return application.RecurringSeries{}, err
	}
	return toApplicationSeries(stored), nil
}

func (a *seriesRepositoryAdapter) ListSeries(ctx context.Context, filter application.SeriesRepositoryFilter) ([]application.RecurringSeries, error) {
	models, err := a.repo.ListSeries(ctx, persistence.SeriesFilter{
		OrganizerID: filter.OrganizerID,
		Statuses:    statusesToStrings(filter.Statuses),
	})
	if err != nil {
		return nil, err
	}
	series := make([]application.RecurringSeries, 0, len(models))
	for _, model := range models {
		series = append(series, toApplicationSeries(model))
	}
	return series, nil
}

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func statusesToStrings(statuses []application.BookingStatus) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:             booking.ID,
		Title:          booking.Title,
		RoomID:         booking.RoomID,
		OrganizerID:    booking.OrganizerID,
		Start:          booking.Start,
		End:            booking.End,
		Status:         string(booking.Status),
		AttendeeEmails: booking.AttendeeEmails,
		DenialReason:   booking.DenialReason,
		SeriesID:       booking.SeriesID,
		CreatedAt:      booking.CreatedAt,
		UpdatedAt:      booking.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:             model.ID,
		Title:          model.Title,
		RoomID:         model.RoomID,
		OrganizerID:    model.OrganizerID,
		Start:          model.Start,
		End:            model.End,
		Status:         application.BookingStatus(model.Status),
		AttendeeEmails: model.AttendeeEmails,
		DenialReason:   model.DenialReason,
		SeriesID:       model.SeriesID,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		Equipment: room.Equipment,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		Capacity:  model.Capacity,
		Equipment: model.Equipment,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		FullName:    model.FullName,
		PhoneNumber: model.PhoneNumber,
		Role:        application.Role(model.Role),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceSeries(series application.RecurringSeries) persistence.RecurringSeries {
	return persistence.RecurringSeries{
		ID:             series.ID,
		Title:          series.Title,
		RoomID:         series.RoomID,
		OrganizerID:    series.OrganizerID,
		Frequency:      series.Frequency,
		StartTimeOfDay: series.StartTime,
		EndTimeOfDay:   series.EndTime,
		FirstDate:      series.FirstDate,
		EndDate:        series.EndDate,
		Status:         string(series.Status),
		AttendeeEmails: series.AttendeeEmails,
		DenialReason:   series.DenialReason,
		CreatedAt:      series.CreatedAt,
		UpdatedAt:      series.UpdatedAt,
	}
}

func toApplicationSeries(model persistence.RecurringSeries) application.RecurringSeries {
	return application.RecurringSeries{
		ID:             model.ID,
		Title:          model.Title,
		RoomID:         model.RoomID,
		OrganizerID:    model.OrganizerID,
		Frequency:      model.Frequency,
		StartTime:      model.StartTimeOfDay,
		EndTime:        model.EndTimeOfDay,
		FirstDate:      model.FirstDate,
		EndDate:        model.EndDate,
		Status:         application.BookingStatus(model.Status),
		AttendeeEmails: model.AttendeeEmails,
		DenialReason:   model.DenialReason,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: model.RevokedAt,
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound)
}
