package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/repo"
)

// ExportService projects a user's located favorites into a GeoJSON
// FeatureCollection for map display. Favorites without coordinates are
// excluded here (and already at the SQL level) but remain visible via List.
type ExportService struct {
	favorites repo.FavoriteRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(favorites repo.FavoriteRepo) *ExportService {
	return &ExportService{favorites: favorites}
}

// UserFavorites returns one Point feature per favorite with a full
// coordinate pair. Geometry coordinates follow GeoJSON order: [lng, lat].
func (s *ExportService) UserFavorites(ctx context.Context, userID uuid.UUID) (domain.FeatureCollection, error) {
	favs, err := s.favorites.ListLocated(ctx, userID)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("service.ExportService.UserFavorites: %w", err)
	}

	fc := domain.NewFeatureCollection()
	for _, fav := range favs {
		if !fav.HasCoordinates() {
			// ListLocated filters in SQL; this guard keeps the invariant local.
			continue
		}
		geom, err := json.Marshal(domain.PointGeometry{
			Type:        "Point",
			Coordinates: [2]float64{*fav.Lng, *fav.Lat},
		})
		if err != nil {
			return domain.FeatureCollection{}, fmt.Errorf("service.ExportService.UserFavorites: marshal geometry: %w", err)
		}

		fc.Features = append(fc.Features, domain.Feature{
			Type: "Feature",
			Properties: map[string]any{
				"atco":        fav.AtcoCode,
				"name":        fav.Name,
				"street":      fav.Street,
				"locality":    fav.Locality,
				"authority":   fav.Authority,
				"lines":       fav.Lines,
				"is_favorite": true,
			},
			Geometry: geom,
		})
	}
	return fc, nil
}
