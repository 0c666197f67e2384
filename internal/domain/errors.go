package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404 or a boolean false, depending on the
// endpoint contract.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing stop identifier, half a coordinate pair).
// Handlers surface it as a success=false payload with the message.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo inserts that lose a race against a
// concurrent insert of the same (user, stop) pair. The toggle service
// reconciles it internally; it must never reach a handler.
var ErrConflict = errors.New("duplicate favorite")

// ErrPasswordMismatch is returned by registration when the password and its
// confirmation differ. No user row is created.
var ErrPasswordMismatch = errors.New("passwords do not match")

// ErrDuplicateUsername is returned when the requested username is already
// taken (case-sensitive match against existing rows).
var ErrDuplicateUsername = errors.New("username already exists")

// ErrDuplicateEmail is returned when the requested email is already taken
// (case-sensitive match against existing rows).
var ErrDuplicateEmail = errors.New("email already exists")

// ErrAuthFailed is returned on any login failure. It deliberately carries no
// detail about whether the username or the password was wrong.
var ErrAuthFailed = errors.New("invalid username or password")
