// Package service contains the business logic for the stop-finder API.
// Services depend on repo interfaces and return domain types; all input
// validation and state-transition rules live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/repo"
)

// FavoriteService implements the favorites toggle and its query operations.
// Toggle is the only state machine in the application: create when absent,
// delete when present, with the database's unique constraint as the final
// arbiter under concurrency.
type FavoriteService struct {
	favorites repo.FavoriteRepo
}

// NewFavoriteService constructs a FavoriteService backed by the provided repo.
func NewFavoriteService(favorites repo.FavoriteRepo) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// Toggle flips the favorite state for (userID, descriptor.AtcoCode).
//
// The delete runs first: a single DELETE..RETURNING either removes the
// existing row (action "removed") or proves absence, in which case a new row
// is inserted (action "added"). If the insert loses a race against a
// concurrent toggle for the same pair, the repo reports domain.ErrConflict:
// the row now exists courtesy of the winner, so this call performed no
// mutation and resolves to a transient-conflict error the caller may retry.
// Deleting the winner's row instead would make two concurrent toggles on
// empty state net to zero favorites, which is not what either caller asked
// for.
//
// Two consecutive completed calls with the same input therefore always cancel
// out, and at most one row per (user, stop) exists at any observation point.
func (s *FavoriteService) Toggle(ctx context.Context, userID uuid.UUID, desc domain.StopDescriptor) (domain.ToggleResult, error) {
	if strings.TrimSpace(desc.AtcoCode) == "" {
		return domain.ToggleResult{}, fmt.Errorf("%w: atco code is required", domain.ErrValidation)
	}
	if err := validateCoordinates(desc.Lat, desc.Lng); err != nil {
		return domain.ToggleResult{}, err
	}

	deletedID, err := s.favorites.DeleteByStop(ctx, userID, desc.AtcoCode)
	if err == nil {
		return domain.ToggleResult{Action: domain.ToggleRemoved, FavoriteID: deletedID}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ToggleResult{}, fmt.Errorf("service.FavoriteService.Toggle: %w", err)
	}

	created, err := s.favorites.Insert(ctx, domain.Favorite{
		UserID:    userID,
		AtcoCode:  desc.AtcoCode,
		Name:      desc.Name,
		Street:    desc.Street,
		Locality:  desc.Locality,
		Authority: desc.Authority,
		Lines:     desc.Lines,
		Lat:       desc.Lat,
		Lng:       desc.Lng,
	})
	if err == nil {
		return domain.ToggleResult{
			Action:     domain.ToggleAdded,
			FavoriteID: created.ID,
			Favorite:   &created,
		}, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return domain.ToggleResult{}, fmt.Errorf("service.FavoriteService.Toggle: %w", err)
	}

	// A concurrent toggle inserted between our delete and insert. This call
	// changed nothing; the winner's row stands and the caller may retry.
	return domain.ToggleResult{}, fmt.Errorf("favorite changed concurrently, retry: %w", domain.ErrConflict)
}

// Remove deletes the favorite for (userID, atcoCode) if present.
// Returns false, not an error, when no such favorite exists — repeated calls
// are safe no-ops.
func (s *FavoriteService) Remove(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error) {
	if strings.TrimSpace(atcoCode) == "" {
		return false, fmt.Errorf("%w: atco code is required", domain.ErrValidation)
	}

	_, err := s.favorites.DeleteByStop(ctx, userID, atcoCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("service.FavoriteService.Remove: %w", err)
	}
	return true, nil
}

// ClearAll deletes every favorite owned by userID and returns how many went.
func (s *FavoriteService) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.favorites.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service.FavoriteService.ClearAll: %w", err)
	}
	return count, nil
}

// Count returns the number of favorites owned by userID.
func (s *FavoriteService) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.favorites.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service.FavoriteService.Count: %w", err)
	}
	return count, nil
}

// Exists reports whether (userID, atcoCode) is currently favorited.
func (s *FavoriteService) Exists(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error) {
	exists, err := s.favorites.Exists(ctx, userID, atcoCode)
	if err != nil {
		return false, fmt.Errorf("service.FavoriteService.Exists: %w", err)
	}
	return exists, nil
}

// List returns all of the user's favorites, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.FavoriteService.List: %w", err)
	}
	if favs == nil {
		return []domain.Favorite{}, nil
	}
	return favs, nil
}

// ListPaged returns one page of the user's favorites and the total count.
func (s *FavoriteService) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Favorite, int64, error) {
	favs, total, err := s.favorites.ListByUserPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FavoriteService.ListPaged: %w", err)
	}
	if favs == nil {
		favs = []domain.Favorite{}
	}
	return favs, total, nil
}

// validateCoordinates rejects half a coordinate pair and out-of-range values.
// Both nil is fine — a favorite without a location simply never appears in
// the geo export.
func validateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("%w: lat and lng must be provided together", domain.ErrValidation)
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("%w: lat must be between -90 and 90", domain.ErrValidation)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("%w: lng must be between -180 and 180", domain.ErrValidation)
	}
	return nil
}
