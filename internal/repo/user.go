// Package repo contains all database access logic for the stop-finder API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stopfinder/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the SQLSTATE Postgres reports when an insert or update
// hits a unique constraint.
const uniqueViolation = "23505"

// constraintErr maps a unique-violation error to a domain sentinel based on
// the constraint that fired, or returns nil when err is not a 23505.
func constraintErr(err error, byConstraint map[string]error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if sentinel, ok := byConstraint[pgErr.ConstraintName]; ok {
			return sentinel
		}
	}
	return nil
}

// UserRepo defines the persistence operations for Users.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type UserRepo interface {
	// Create inserts a new user and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	// Returns domain.ErrDuplicateUsername or domain.ErrDuplicateEmail when the
	// corresponding unique constraint fires.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a single user by its UUID primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByUsername retrieves a user by exact, case-sensitive username.
	// Returns domain.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// UsernameExists reports whether a user row with the exact username exists.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether a user row with the exact email exists.
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdateProfile overwrites first_name, last_name, and email, and — when
	// passwordHash is non-nil — the stored password hash, all in a single
	// statement so a failure leaves the row untouched. Returns the updated
	// record, domain.ErrNotFound if the user does not exist, and
	// domain.ErrDuplicateEmail if the new email is taken by another user.
	UpdateProfile(ctx context.Context, user domain.User, passwordHash *string) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

// userConstraints maps the users table's unique constraints to domain sentinels.
var userConstraints = map[string]error{
	"users_username_key": domain.ErrDuplicateUsername,
	"users_email_key":    domain.ErrDuplicateEmail,
}

// Create inserts a new user row and returns the full persisted record.
func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES (@username, @email, @password_hash, @first_name, @last_name)
		RETURNING id, username, email, password_hash, first_name, last_name, created_at, updated_at`

	args := pgx.NamedArgs{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanUser(row)
	if err != nil {
		if sentinel := constraintErr(err, userConstraints); sentinel != nil {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", sentinel)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a user by primary key.
func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `
		SELECT id, username, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetByUsername retrieves a user by exact username match.
func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `
		SELECT id, username, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE username = @username`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByUsername: %w", err)
	}
	return result, nil
}

// UsernameExists checks for an existing row with the exact username.
func (r *pgUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE username = @username)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.UserRepo.UsernameExists: %w", err)
	}
	return exists, nil
}

// EmailExists checks for an existing row with the exact email.
func (r *pgUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email = @email)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.UserRepo.EmailExists: %w", err)
	}
	return exists, nil
}

// UpdateProfile overwrites the profile fields and returns the updated record.
// Empty strings are written as-is — a blank first name is a valid overwrite.
// A nil passwordHash keeps the stored hash; COALESCE folds the optional
// password change into the same statement as the profile overwrite, so both
// commit or neither does.
func (r *pgUserRepo) UpdateProfile(ctx context.Context, user domain.User, passwordHash *string) (domain.User, error) {
	const q = `
		UPDATE users
		SET first_name    = @first_name,
		    last_name     = @last_name,
		    email         = @email,
		    password_hash = COALESCE(@password_hash, password_hash),
		    updated_at    = now()
		WHERE id = @id
		RETURNING id, username, email, password_hash, first_name, last_name, created_at, updated_at`

	args := pgx.NamedArgs{
		"id":            user.ID,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"email":         user.Email,
		"password_hash": passwordHash,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanUser(row)
	if err != nil {
		if sentinel := constraintErr(err, userConstraints); sentinel != nil {
			return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", sentinel)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", err)
	}
	return result, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)

	err := s.Scan(&id, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}

	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}
