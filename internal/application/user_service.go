package application

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// UserReferenceCounter reports how many bookings a user organizes, gating
// hard deletion.
type UserReferenceCounter interface {
	CountBookingsForOrganizer(ctx context.Context, organizerID string) (int, error)
}

// PasswordHasher derives a stored credential from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for
// the user directory. Every operation is admin-gated: employee accounts are
// provisioned and governed by administrators.
type UserService struct {
	users       UserRepository
	references  UserReferenceCounter
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, references UserReferenceCounter, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, references: references, hash: hash, idGenerator: idGenerator, now: now}
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin() {
		return User{}, ErrForbidden
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	passwordHash, err := s.hash(normalized.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		FullName:    normalized.FullName,
		PhoneNumber: normalized.PhoneNumber,
		Role:        normalized.Role,
		CreatedAt:   s.now(),
	}
	user.UpdatedAt = user.CreatedAt

	if s.users == nil {
		return user, nil
	}

	persisted, err := s.users.CreateUser(ctx, user, passwordHash)
	if err != nil {
		return User{}, mapBookingRepoError(err)
	}

	return persisted, nil
}

// UpdateUser validates input and updates an existing user for
// administrators. A blank password leaves the stored credential unchanged.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin() {
		return User{}, ErrForbidden
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapBookingRepoError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	updated := existing
	updated.Email = normalized.Email
	updated.FullName = normalized.FullName
	updated.PhoneNumber = normalized.PhoneNumber
	updated.Role = normalized.Role
	updated.UpdatedAt = s.now()

	persisted, err := s.users.UpdateUser(ctx, updated)
	if err != nil {
		return User{}, mapBookingRepoError(err)
	}

	if normalized.Password != "" {
		passwordHash, err := s.hash(normalized.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, persisted.ID, passwordHash); err != nil {
			return User{}, mapBookingRepoError(err)
		}
	}

	return persisted, nil
}

// DeleteUser removes a user when requested by an administrator. Deletion
// fails with ErrConflict while the user still organizes bookings.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	if s.references != nil {
		count, err := s.references.CountBookingsForOrganizer(ctx, userID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return mapBookingRepoError(err)
	}

	return nil
}

// ListUsers returns all users for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Email, out[j].Email) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})

	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	var phone *string
	if input.PhoneNumber != nil {
		trimmed := strings.TrimSpace(*input.PhoneNumber)
		if trimmed != "" {
			phone = &trimmed
		}
	}

	return UserInput{
		Email:       email,
		FullName:    fullName,
		PhoneNumber: phone,
		Role:        input.Role,
		Password:    input.Password,
	}
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.FullName == "" {
		vErr.add("full_name", "full name is required")
	}

	if !input.Role.Valid() {
		vErr.add("role", "role must be Employee or Admin")
	}

	if passwordRequired && strings.TrimSpace(input.Password) == "" {
		vErr.add("password", "password is required")
	}

	return vErr
}
