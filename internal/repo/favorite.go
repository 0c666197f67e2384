package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stopfinder/backend/internal/domain"
)

// FavoriteRepo defines the persistence operations for Favorites.
// Every operation is scoped by userID — ownership is exclusive and there is
// no cross-user access path.
//
// Each method executes exactly one SQL statement, so every mutation runs in
// its own implicit transaction: there is no partial state to roll back.
type FavoriteRepo interface {
	// Insert persists a new favorite and returns the stored record.
	// Returns domain.ErrConflict when a row for the same (user, atco) pair
	// already exists — the database unique constraint is the authority here,
	// not any prior application-level check.
	Insert(ctx context.Context, fav domain.Favorite) (domain.Favorite, error)

	// GetByStop retrieves the favorite for (userID, atcoCode).
	// Returns domain.ErrNotFound when no such row exists.
	GetByStop(ctx context.Context, userID uuid.UUID, atcoCode string) (domain.Favorite, error)

	// DeleteByStop removes the favorite for (userID, atcoCode) and returns the
	// deleted row's ID. Returns domain.ErrNotFound when no such row exists.
	DeleteByStop(ctx context.Context, userID uuid.UUID, atcoCode string) (uuid.UUID, error)

	// DeleteAllByUser removes every favorite owned by userID in one statement
	// and returns how many rows were deleted. Zero is not an error.
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListByUser returns all favorites for a user, newest first by added_at.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error)

	// ListByUserPaged returns one page of favorites (newest first) and the
	// total count of favorites the user owns.
	ListByUserPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Favorite, int64, error)

	// ListLocated returns the favorites that carry a full coordinate pair,
	// newest first. Rows without coordinates are excluded at the SQL level.
	ListLocated(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error)

	// CountByUser returns the number of favorites owned by userID.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Exists reports whether (userID, atcoCode) is favorited.
	Exists(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error)
}

// pgFavoriteRepo is the Postgres implementation of FavoriteRepo.
type pgFavoriteRepo struct {
	db db
}

// NewFavoriteRepo constructs a FavoriteRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewFavoriteRepo(db db) FavoriteRepo {
	return &pgFavoriteRepo{db: db}
}

// favoriteConstraints maps the favorites table's unique constraint to the
// conflict sentinel the toggle service reconciles on.
var favoriteConstraints = map[string]error{
	"favorites_user_id_atco_code_key": domain.ErrConflict,
}

const favoriteColumns = `id, user_id, atco_code, name, street, locality, authority, lines, lat, lng, added_at`

// Insert persists a new favorite row and returns the full stored record.
func (r *pgFavoriteRepo) Insert(ctx context.Context, fav domain.Favorite) (domain.Favorite, error) {
	const q = `
		INSERT INTO favorites (user_id, atco_code, name, street, locality, authority, lines, lat, lng)
		VALUES (@user_id, @atco_code, @name, @street, @locality, @authority, @lines, @lat, @lng)
		RETURNING ` + favoriteColumns

	args := pgx.NamedArgs{
		"user_id":   fav.UserID,
		"atco_code": fav.AtcoCode,
		"name":      fav.Name,
		"street":    fav.Street,
		"locality":  fav.Locality,
		"authority": fav.Authority,
		"lines":     fav.Lines,
		"lat":       fav.Lat, // nil becomes NULL
		"lng":       fav.Lng,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanFavorite(row)
	if err != nil {
		if sentinel := constraintErr(err, favoriteConstraints); sentinel != nil {
			return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.Insert: %w", sentinel)
		}
		return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.Insert: %w", err)
	}
	return result, nil
}

// GetByStop retrieves the favorite for one (user, stop) pair.
func (r *pgFavoriteRepo) GetByStop(ctx context.Context, userID uuid.UUID, atcoCode string) (domain.Favorite, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorites
		WHERE user_id = @user_id AND atco_code = @atco_code`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "atco_code": atcoCode})
	result, err := scanFavorite(row)
	if err != nil {
		return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.GetByStop: %w", err)
	}
	return result, nil
}

// DeleteByStop removes one favorite and reports the deleted row's ID.
// RETURNING makes lookup and delete a single atomic statement, which is what
// lets the toggle service run delete-first without a read race.
func (r *pgFavoriteRepo) DeleteByStop(ctx context.Context, userID uuid.UUID, atcoCode string) (uuid.UUID, error) {
	const q = `
		DELETE FROM favorites
		WHERE user_id = @user_id AND atco_code = @atco_code
		RETURNING id`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "atco_code": atcoCode}).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("repo.FavoriteRepo.DeleteByStop: %w", domain.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("repo.FavoriteRepo.DeleteByStop: %w", err)
	}
	return uuid.UUID(id.Bytes), nil
}

// DeleteAllByUser clears a user's favorites in one statement.
func (r *pgFavoriteRepo) DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `DELETE FROM favorites WHERE user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("repo.FavoriteRepo.DeleteAllByUser: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns all of a user's favorites, newest first.
// id DESC breaks ties between rows created in the same instant.
func (r *pgFavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorites
		WHERE user_id = @user_id
		ORDER BY added_at DESC, id DESC`

	return r.queryFavorites(ctx, "ListByUser", q, pgx.NamedArgs{"user_id": userID})
}

// ListByUserPaged returns one page of favorites plus the total count.
// The count query runs second; both are plain reads so ordering is harmless.
func (r *pgFavoriteRepo) ListByUserPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Favorite, int64, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorites
		WHERE user_id = @user_id
		ORDER BY added_at DESC, id DESC
		LIMIT @limit OFFSET @offset`

	favs, err := r.queryFavorites(ctx, "ListByUserPaged", q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}

	total, err := r.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.FavoriteRepo.ListByUserPaged: %w", err)
	}
	return favs, total, nil
}

// ListLocated returns only favorites with a full coordinate pair.
func (r *pgFavoriteRepo) ListLocated(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	const q = `
		SELECT ` + favoriteColumns + `
		FROM favorites
		WHERE user_id = @user_id
		  AND lat IS NOT NULL
		  AND lng IS NOT NULL
		ORDER BY added_at DESC, id DESC`

	return r.queryFavorites(ctx, "ListLocated", q, pgx.NamedArgs{"user_id": userID})
}

// CountByUser returns the user's favorite count.
func (r *pgFavoriteRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM favorites WHERE user_id = @user_id`

	var count int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&count); err != nil {
		return 0, fmt.Errorf("repo.FavoriteRepo.CountByUser: %w", err)
	}
	return count, nil
}

// Exists reports whether the (user, stop) pair is currently favorited.
func (r *pgFavoriteRepo) Exists(ctx context.Context, userID uuid.UUID, atcoCode string) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM favorites
			WHERE user_id = @user_id AND atco_code = @atco_code)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "atco_code": atcoCode}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.FavoriteRepo.Exists: %w", err)
	}
	return exists, nil
}

// queryFavorites runs a multi-row favorites query and scans the result set.
func (r *pgFavoriteRepo) queryFavorites(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Favorite, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.%s: %w", op, err)
	}
	defer rows.Close()

	favs := []domain.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.FavoriteRepo.%s: scan: %w", op, err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FavoriteRepo.%s: rows: %w", op, err)
	}
	return favs, nil
}

// scanFavorite maps a single database row into a domain.Favorite.
// It handles the UUID and nullable lat/lng conversions.
func scanFavorite(s scanner) (domain.Favorite, error) {
	var (
		f      domain.Favorite
		id     pgtype.UUID
		userID pgtype.UUID
		lat    pgtype.Float8
		lng    pgtype.Float8
	)

	err := s.Scan(&id, &userID, &f.AtcoCode, &f.Name, &f.Street, &f.Locality,
		&f.Authority, &f.Lines, &lat, &lng, &f.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Favorite{}, domain.ErrNotFound
		}
		return domain.Favorite{}, err
	}

	f.ID = uuid.UUID(id.Bytes)
	f.UserID = uuid.UUID(userID.Bytes)
	if lat.Valid {
		v := lat.Float64
		f.Lat = &v
	}
	if lng.Valid {
		v := lng.Float64
		f.Lng = &v
	}

	return f, nil
}
