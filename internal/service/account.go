package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/repo"
)

// dummyHash is a bcrypt digest of an unguessable throwaway value. Authenticate
// compares against it when the username is unknown so that lookups for missing
// and existing users take comparable time.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("stopfinder-dummy-credential"), bcrypt.DefaultCost)
	if err != nil {
		panic("service: generate dummy hash: " + err.Error())
	}
	return h
}()

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AccountService implements registration, login verification, and profile
// updates. Password hashing is bcrypt with the default cost.
type AccountService struct {
	users repo.UserRepo
}

// NewAccountService constructs an AccountService backed by the provided repo.
func NewAccountService(users repo.UserRepo) *AccountService {
	return &AccountService{users: users}
}

// Register validates the input and creates a new user with a hashed password.
//
// Returns domain.ErrValidation for missing fields, domain.ErrPasswordMismatch
// when the confirmation differs, and domain.ErrDuplicateUsername or
// domain.ErrDuplicateEmail when the handle or email is taken. The pre-checks
// give precise errors; the database unique constraints close the race, so a
// duplicate can never be created and the existing row is never touched.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	case strings.TrimSpace(in.Email) == "":
		return domain.User{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
	case in.Password == "":
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if in.Password != in.ConfirmPassword {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", domain.ErrPasswordMismatch)
	}

	if taken, err := s.users.UsernameExists(ctx, in.Username); err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", err)
	} else if taken {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", domain.ErrDuplicateUsername)
	}
	if taken, err := s.users.EmailExists(ctx, in.Email); err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", err)
	} else if taken {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", domain.ErrDuplicateEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.Register: %w", err)
	}
	return user, nil
}

// Authenticate verifies a username/password pair and returns the user.
// Unknown username and wrong password both return domain.ErrAuthFailed with
// no distinction between the two cases.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn a comparison anyway so the two failure paths cost the same.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return domain.User{}, domain.ErrAuthFailed
		}
		return domain.User{}, fmt.Errorf("service.AccountService.Authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrAuthFailed
	}
	return user, nil
}

// GetByID returns the user for a profile view.
func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.GetByID: %w", err)
	}
	return user, nil
}

// UpdateProfile overwrites first name, last name, and email unconditionally —
// an empty string is a valid new value, matching the form semantics. The
// password is re-hashed only when newPassword is non-blank, and the change
// rides in the same UPDATE as the profile fields: the whole operation is one
// statement, so a failure never leaves the profile changed with the old
// password or vice versa.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, email, newPassword string) (domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	var passwordHash *string
	if strings.TrimSpace(newPassword) != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, fmt.Errorf("service.AccountService.UpdateProfile: hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	user, err := s.users.UpdateProfile(ctx, domain.User{
		ID:        userID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}, passwordHash)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AccountService.UpdateProfile: %w", err)
	}
	return user, nil
}
