package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/middleware"
)

type removeFavoriteRequest struct {
	AtcoCode string `json:"atco_code"`
}

// favoriteResponse is the JSON projection of a favorite for list responses.
// Lat/Lng stay pointers so coordinate-less favorites serialize as null.
type favoriteResponse struct {
	ID        string   `json:"id"`
	AtcoCode  string   `json:"atco_code"`
	Name      string   `json:"name,omitempty"`
	Street    string   `json:"street,omitempty"`
	Locality  string   `json:"locality,omitempty"`
	Authority string   `json:"authority,omitempty"`
	Lines     string   `json:"lines,omitempty"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	AddedAt   string   `json:"added_at"`
}

func toFavoriteResponse(f domain.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID.String(),
		AtcoCode:  f.AtcoCode,
		Name:      f.Name,
		Street:    f.Street,
		Locality:  f.Locality,
		Authority: f.Authority,
		Lines:     f.Lines,
		Lat:       f.Lat,
		Lng:       f.Lng,
		AddedAt:   f.AddedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ToggleFavorite handles POST /toggle_favorite.
// A missing atco code is a success=false payload, not an HTTP error — the
// map client treats it as a soft failure.
func (s *Server) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var desc domain.StopDescriptor
	if !decodeBody(w, r, &desc) {
		return
	}

	result, err := s.favorites.Toggle(r.Context(), sess.UserID, desc)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": unwrapMessage(err)})
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			writeFailure(w, http.StatusConflict, "Favorite changed concurrently, please retry")
			return
		}
		writeStorageError(w, err)
		return
	}

	message := "Added to favorites"
	if result.Action == domain.ToggleRemoved {
		message = "Removed from favorites"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  string(result.Action),
		"message": message,
	})
}

// RemoveFavorite handles POST /remove_favorite.
// Removing an absent favorite reports success=false without an error status.
func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var req removeFavoriteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	removed, err := s.favorites.Remove(r.Context(), sess.UserID, req.AtcoCode)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": unwrapMessage(err)})
			return
		}
		writeStorageError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Favorite not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ClearAllFavorites handles POST /clear_all_favorites.
func (s *Server) ClearAllFavorites(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	count, err := s.favorites.ClearAll(r.Context(), sess.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count_removed": count})
}

// GetFavoritesCount handles GET /get_favorites_count.
func (s *Server) GetFavoritesCount(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	count, err := s.favorites.Count(r.Context(), sess.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// CheckFavorite handles GET /check_favorite/{atcoCode}.
func (s *Server) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	exists, err := s.favorites.Exists(r.Context(), sess.UserID, chi.URLParam(r, "atcoCode"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_favorite": exists})
}

// ListFavorites handles GET /favorites.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListFavorites(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	params := domain.NewPaginationParams(
		queryInt(r, "page"),
		queryInt(r, "limit"),
	)

	favs, total, err := s.favorites.ListPaged(r.Context(), sess.UserID, params)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	data := make([]favoriteResponse, len(favs))
	for i, f := range favs {
		data[i] = toFavoriteResponse(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"page":  params.Page,
			"limit": params.Limit,
			"total": total,
		},
	})
}

// GetUserFavorites handles GET /api/user_favorites: the map-ready projection.
func (s *Server) GetUserFavorites(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	fc, err := s.exports.UserFavorites(r.Context(), sess.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// queryInt parses an integer query parameter, returning nil when absent or
// malformed so pagination falls back to its defaults.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
