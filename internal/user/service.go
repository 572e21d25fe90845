package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/password"
	"github.com/krailo/recipe-api/internal/validation"
)

const maxEmailLength = 254

// ErrInvalidCredentials is returned for both unknown email and wrong
// password so callers can't tell which check failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Store is the persistence contract the service needs.
type Store interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
}

// UpdateParams are the profile fields a user may change. Nil means
// "leave untouched".
type UpdateParams struct {
	Name     *string
	Password *string
}

// Service handles account creation and profile updates.
type Service struct {
	store  Store
	logger *logging.Logger
}

func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateUser validates and creates a regular account. The email domain is
// lower-cased before storage; the password is hashed and never persisted in
// plaintext.
func (s *Service) CreateUser(ctx context.Context, email, pw, name string) (*User, error) {
	return s.create(ctx, email, pw, name, false)
}

// CreateSuperuser creates an account with staff and superuser flags set.
func (s *Service) CreateSuperuser(ctx context.Context, email, pw string) (*User, error) {
	return s.create(ctx, email, pw, "", true)
}

func (s *Service) create(ctx context.Context, email, pw, name string, super bool) (*User, error) {
	verr := validation.NewError()

	if email == "" {
		verr.Add("email", "email is required")
	} else if len(email) > maxEmailLength {
		verr.Add("email", "email is too long")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "invalid email format")
	}

	if err := password.Validate(pw, email, name); err != nil {
		verr.Add("password", err.Error())
	}

	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := password.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.Create(ctx, &User{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
		IsStaff:      super,
		IsSuperuser:  super,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", newUser.ID, "superuser", super)

	return newUser, nil
}

// VerifyCredentials checks an email/password pair. Both failure modes
// collapse into ErrInvalidCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, pw string) (*User, error) {
	if email == "" || pw == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !password.Verify(existing.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}

	return existing, nil
}

// GetUser returns the account for the given id.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateUser applies a partial profile change. A new password is re-validated
// against the strength policy and replaces the stored hash.
func (s *Service) UpdateUser(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		existing.Name = *params.Name
	}

	if params.Password != nil {
		if err := password.Validate(*params.Password, existing.Email, existing.Name); err != nil {
			verr := validation.NewError()
			verr.Add("password", err.Error())
			return nil, verr
		}
		hash, err := password.Hash(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.PasswordHash = hash
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user profile updated", "user_id", id)

	return updated, nil
}
