package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/repo"
	"github.com/stopfinder/backend/internal/service"
)

// ---- mock repos ------------------------------------------------------------

// mockUserRepo is a hand-written test double for repo.UserRepo.
type mockUserRepo struct {
	create         func(ctx context.Context, user domain.User) (domain.User, error)
	getByID        func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByUsername  func(ctx context.Context, username string) (domain.User, error)
	usernameExists func(ctx context.Context, username string) (bool, error)
	emailExists    func(ctx context.Context, email string) (bool, error)
	updateProfile  func(ctx context.Context, user domain.User, passwordHash *string) (domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return m.create(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return m.getByUsername(ctx, username)
}
func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.usernameExists != nil {
		return m.usernameExists(ctx, username)
	}
	return false, nil
}
func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExists != nil {
		return m.emailExists(ctx, email)
	}
	return false, nil
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, user domain.User, passwordHash *string) (domain.User, error) {
	return m.updateProfile(ctx, user, passwordHash)
}

// compile-time check: mockUserRepo must satisfy repo.UserRepo.
var _ repo.UserRepo = (*mockUserRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func validRegistration() service.RegisterInput {
	return service.RegisterInput{
		Username:        "marta",
		Email:           "marta@example.com",
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
	}
}

// ---- Register --------------------------------------------------------------

func TestAccountService_Register_OK(t *testing.T) {
	var created domain.User
	svc := service.NewAccountService(&mockUserRepo{
		create: func(_ context.Context, u domain.User) (domain.User, error) {
			created = u
			u.ID = uuid.New()
			return u, nil
		},
	})

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "marta", created.Username)
	assert.Equal(t, "marta@example.com", created.Email)

	// The stored hash must verify against the plaintext and never equal it.
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse battery")))
}

func TestAccountService_Register_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*service.RegisterInput)
	}{
		{"blank username", func(in *service.RegisterInput) { in.Username = "  " }},
		{"blank email", func(in *service.RegisterInput) { in.Email = "" }},
		{"blank password", func(in *service.RegisterInput) { in.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewAccountService(&mockUserRepo{
				create: func(_ context.Context, _ domain.User) (domain.User, error) {
					t.Fatal("create must not be called")
					return domain.User{}, nil
				},
			})

			in := validRegistration()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAccountService_Register_PasswordMismatch(t *testing.T) {
	svc := service.NewAccountService(&mockUserRepo{
		create: func(_ context.Context, _ domain.User) (domain.User, error) {
			t.Fatal("create must not be called")
			return domain.User{}, nil
		},
	})

	in := validRegistration()
	in.ConfirmPassword = "something else"
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrPasswordMismatch)
}

func TestAccountService_Register_DuplicateUsername(t *testing.T) {
	svc := service.NewAccountService(&mockUserRepo{
		usernameExists: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
	})

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	svc := service.NewAccountService(&mockUserRepo{
		emailExists: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
	})

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAccountService_Register_ConstraintRaceSurfacesSentinel(t *testing.T) {
	// Pre-checks pass but another registration wins between check and insert;
	// the repo reports the constraint violation as a domain sentinel.
	svc := service.NewAccountService(&mockUserRepo{
		create: func(_ context.Context, _ domain.User) (domain.User, error) {
			return domain.User{}, domain.ErrDuplicateUsername
		},
	})

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

// ---- Authenticate ----------------------------------------------------------

func TestAccountService_Authenticate_OK(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := domain.User{ID: uuid.New(), Username: "marta", PasswordHash: string(hash)}
	svc := service.NewAccountService(&mockUserRepo{
		getByUsername: func(_ context.Context, username string) (domain.User, error) {
			assert.Equal(t, "marta", username)
			return stored, nil
		},
	})

	user, err := svc.Authenticate(context.Background(), "marta", "open sesame")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
}

func TestAccountService_Authenticate_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	unknown := service.NewAccountService(&mockUserRepo{
		getByUsername: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrNotFound
		},
	})
	wrongPassword := service.NewAccountService(&mockUserRepo{
		getByUsername: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{PasswordHash: string(hash)}, nil
		},
	})

	_, errUnknown := unknown.Authenticate(context.Background(), "ghost", "whatever")
	_, errWrong := wrongPassword.Authenticate(context.Background(), "marta", "not sesame")

	// Both failure modes collapse into the same sentinel with no detail.
	assert.ErrorIs(t, errUnknown, domain.ErrAuthFailed)
	assert.ErrorIs(t, errWrong, domain.ErrAuthFailed)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

// ---- UpdateProfile ---------------------------------------------------------

func TestAccountService_UpdateProfile_OverwritesNamesAndEmail(t *testing.T) {
	userID := uuid.New()

	var updated domain.User
	var gotHash *string
	svc := service.NewAccountService(&mockUserRepo{
		updateProfile: func(_ context.Context, u domain.User, passwordHash *string) (domain.User, error) {
			updated = u
			gotHash = passwordHash
			return u, nil
		},
	})

	// Blank names are valid new values and must overwrite, not be skipped.
	_, err := svc.UpdateProfile(context.Background(), userID, "", "", "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, userID, updated.ID)
	assert.Empty(t, updated.FirstName)
	assert.Empty(t, updated.LastName)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Nil(t, gotHash, "a blank new password must not touch the stored hash")
}

func TestAccountService_UpdateProfile_RequiresEmail(t *testing.T) {
	svc := service.NewAccountService(&mockUserRepo{})

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), "A", "B", "   ", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAccountService_UpdateProfile_RehashesOnNewPassword(t *testing.T) {
	userID := uuid.New()

	var newHash *string
	svc := service.NewAccountService(&mockUserRepo{
		updateProfile: func(_ context.Context, u domain.User, passwordHash *string) (domain.User, error) {
			newHash = passwordHash
			if passwordHash != nil {
				u.PasswordHash = *passwordHash
			}
			return u, nil
		},
	})

	user, err := svc.UpdateProfile(context.Background(), userID, "A", "B", "a@example.com", "fresh secret")
	require.NoError(t, err)
	require.NotNil(t, newHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*newHash), []byte("fresh secret")))
	assert.Equal(t, *newHash, user.PasswordHash)
}

func TestAccountService_UpdateProfile_PasswordChangeRidesSingleMutation(t *testing.T) {
	// A password change must travel in the same repo call as the profile
	// overwrite. If that call fails, neither the names nor the hash may have
	// been committed — there is no second statement to fail halfway through.
	calls := 0
	svc := service.NewAccountService(&mockUserRepo{
		updateProfile: func(_ context.Context, _ domain.User, passwordHash *string) (domain.User, error) {
			calls++
			require.NotNil(t, passwordHash, "the hash must ride with the profile fields")
			return domain.User{}, errors.New("deadlock detected")
		},
	})

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), "A", "B", "a@example.com", "fresh secret")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "exactly one mutation, no partial commit possible")
}

func TestAccountService_UpdateProfile_DuplicateEmail(t *testing.T) {
	svc := service.NewAccountService(&mockUserRepo{
		updateProfile: func(_ context.Context, _ domain.User, _ *string) (domain.User, error) {
			return domain.User{}, domain.ErrDuplicateEmail
		},
	})

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), "", "", "taken@example.com", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}
