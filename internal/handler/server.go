// Package handler implements the HTTP handlers for the stop-finder API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (account.go, favorite.go, etc.) but all share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/middleware"
	"github.com/stopfinder/backend/internal/service"
	"github.com/stopfinder/backend/internal/session"
	"github.com/stopfinder/backend/spec"
)

// AccountServicer defines the account operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type AccountServicer interface {
	Register(ctx context.Context, in service.RegisterInput) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, email, newPassword string) (domain.User, error)
}

// FavoriteServicer defines the favorites operations the handlers depend on.
type FavoriteServicer interface {
	Toggle(ctx context.Context, userID uuid.UUID, desc domain.StopDescriptor) (domain.ToggleResult, error)
	Remove(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error)
	ClearAll(ctx context.Context, userID uuid.UUID) (int64, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	Exists(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error)
	ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Favorite, int64, error)
}

// ExportServicer defines the geo projection the handlers depend on.
type ExportServicer interface {
	UserFavorites(ctx context.Context, userID uuid.UUID) (domain.FeatureCollection, error)
}

// StopFeed supplies the static bus-stop dataset.
type StopFeed interface {
	Stops() domain.FeatureCollection
}

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	accounts  AccountServicer
	favorites FavoriteServicer
	exports   ExportServicer
	feed      StopFeed
	sessions  *session.Manager
}

// NewServer constructs the Server with all its dependencies.
func NewServer(accounts AccountServicer, favorites FavoriteServicer, exports ExportServicer, feed StopFeed, sessions *session.Manager) *Server {
	return &Server{
		accounts:  accounts,
		favorites: favorites,
		exports:   exports,
		feed:      feed,
		sessions:  sessions,
	}
}

// Routes registers every endpoint on r. Protected routes sit behind the
// session gate; state-changing protected routes additionally pass the
// anti-forgery gate before any handler code runs.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/api/busstops", s.GetBusStops)

	r.Post("/register", s.Register)
	r.Post("/login", s.Login)
	r.Post("/logout", s.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireUser(s.sessions))
		r.Use(middleware.NewCSRFGuard())

		r.Get("/profile", s.GetProfile)
		r.Post("/update_profile", s.UpdateProfile)

		r.Post("/toggle_favorite", s.ToggleFavorite)
		r.Post("/remove_favorite", s.RemoveFavorite)
		r.Post("/clear_all_favorites", s.ClearAllFavorites)
		r.Get("/get_favorites_count", s.GetFavoritesCount)
		r.Get("/check_favorite/{atcoCode}", s.CheckFavorite)
		r.Get("/favorites", s.ListFavorites)
		r.Get("/api/user_favorites", s.GetUserFavorites)
	})
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI handles GET /openapi.yaml, serving the embedded API document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}

// GetBusStops handles GET /api/busstops: the static dataset, passed through.
func (s *Server) GetBusStops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Stops())
}
