package handler

import (
	"errors"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/middleware"
	"github.com/stopfinder/backend/internal/service"
)

// registerRequest is the POST /register body. Email uses the oapi runtime
// type so a malformed address is rejected during decoding.
type registerRequest struct {
	Username        string              `json:"username"`
	Email           openapi_types.Email `json:"email"`
	Password        string              `json:"password"`
	ConfirmPassword string              `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// userResponse is the public projection of a user. The password hash never
// appears in any response.
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Register handles POST /register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := s.accounts.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           string(req.Email),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordMismatch):
			writeFailure(w, http.StatusBadRequest, "Passwords do not match.")
		case errors.Is(err, domain.ErrDuplicateUsername):
			writeFailure(w, http.StatusConflict, "Username already exists.")
		case errors.Is(err, domain.ErrDuplicateEmail):
			writeFailure(w, http.StatusConflict, "Email already exists.")
		case errors.Is(err, domain.ErrValidation):
			writeFailure(w, http.StatusBadRequest, unwrapMessage(err))
		default:
			writeStorageError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful! Please log in.",
	})
}

// Login handles POST /login. On success it sets the session cookie and
// returns the anti-forgery token the client must echo on mutating requests.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			writeFailure(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		writeStorageError(w, err)
		return
	}

	token, sess, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	http.SetCookie(w, s.sessions.Cookie(token))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user":       toUserResponse(user),
		"csrf_token": sess.CSRFToken,
	})
}

// Logout handles POST /logout by expiring the session cookie.
// It requires no valid session: logging out twice is a harmless no-op.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetProfile handles GET /profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	user, err := s.accounts.GetByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "user not found")
			return
		}
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateProfile handles POST /update_profile. First name, last name, and
// email are overwritten with whatever was submitted — blank included — and
// the password changes only when a non-blank new one is supplied.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.accounts.UpdateProfile(r.Context(), sess.UserID,
		req.FirstName, req.LastName, req.Email, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			writeFailure(w, http.StatusConflict, "Email already exists.")
		case errors.Is(err, domain.ErrValidation):
			writeFailure(w, http.StatusBadRequest, unwrapMessage(err))
		case errors.Is(err, domain.ErrNotFound):
			writeFailure(w, http.StatusNotFound, "user not found")
		default:
			writeStorageError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(user),
	})
}
