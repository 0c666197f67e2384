package repo_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopfinder/backend/internal/domain"
	"github.com/stopfinder/backend/internal/repo"
	"github.com/stopfinder/backend/internal/service"
	"github.com/stopfinder/backend/testutil"
)

// These tests exercise the toggle under real concurrency, so they run against
// the pool directly — a transaction would serialize the racers. Cleanup relies
// on deleting the user, which cascades to their favorites.

// TestFavoriteRepo_ConcurrentInsert_OneWinsOneConflicts proves the database
// constraint is the authority: of two simultaneous inserts for the same
// (user, stop) pair, exactly one succeeds and the other reports ErrConflict.
// At no point do two rows exist.
func TestFavoriteRepo_ConcurrentInsert_OneWinsOneConflicts(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	users := repo.NewUserRepo(pool)
	favorites := repo.NewFavoriteRepo(pool)

	user, err := users.Create(ctx, userFixture())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	})

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			_, errs[i] = favorites.Insert(ctx, favoriteFixture(user.ID, "race-stop"))
		}(i)
	}
	start.Done()
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one insert must win")
	assert.Equal(t, 1, conflicts, "the loser must see a conflict")

	count, err := favorites.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// TestFavoriteService_ConcurrentToggle_StateStaysConsistent runs two
// simultaneous toggles on empty state through the full service. Depending on
// the interleaving the second racer either finds the winner's row and removes
// it, or its insert hits the unique constraint and it backs off with a
// retryable conflict. Both outcomes are legal; what must always hold is that
// the surviving row count equals the net of the completed toggles and never
// exceeds one.
func TestFavoriteService_ConcurrentToggle_StateStaysConsistent(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	users := repo.NewUserRepo(pool)
	favorites := repo.NewFavoriteRepo(pool)
	svc := service.NewFavoriteService(favorites)

	user, err := users.Create(ctx, userFixture())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	})

	desc := domain.StopDescriptor{AtcoCode: "race-toggle-stop", Name: "Race Corner"}

	const racers = 2
	results := make([]domain.ToggleResult, racers)
	errs := make([]error, racers)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			results[i], errs[i] = svc.Toggle(ctx, user.ID, desc)
		}(i)
	}
	start.Done()
	wg.Wait()

	var adds, removes, conflicts int
	for i := range errs {
		switch {
		case errs[i] == nil && results[i].Action == domain.ToggleAdded:
			adds++
		case errs[i] == nil && results[i].Action == domain.ToggleRemoved:
			removes++
		case errors.Is(errs[i], domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("toggle %d: unexpected outcome: %v", i, errs[i])
		}
	}

	// At least one racer must have added; the other either removed that row
	// or conflicted and left it alone.
	assert.Equal(t, 1, adds, "exactly one call must report added")
	assert.Equal(t, 1, removes+conflicts, "the other call removes or backs off")

	count, err := favorites.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, adds-removes, count, "row count must match the net of completed toggles")
}

// TestFavoriteService_ThreeToggles_OddCountLeavesOneRow drives three serial
// toggles and confirms the odd total flips state on: the toggle is not a
// one-shot idempotent operation, every call mutates.
func TestFavoriteService_ThreeToggles_OddCountLeavesOneRow(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	users := repo.NewUserRepo(pool)
	favorites := repo.NewFavoriteRepo(pool)
	svc := service.NewFavoriteService(favorites)

	user, err := users.Create(ctx, userFixture())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	})

	desc := domain.StopDescriptor{AtcoCode: "odd-stop"}

	wantActions := []domain.ToggleAction{domain.ToggleAdded, domain.ToggleRemoved, domain.ToggleAdded}
	for i, want := range wantActions {
		result, err := svc.Toggle(ctx, user.ID, desc)
		require.NoError(t, err, "toggle %d", i)
		assert.Equal(t, want, result.Action, "toggle %d", i)
	}

	exists, err := favorites.Exists(ctx, user.ID, "odd-stop")
	require.NoError(t, err)
	assert.True(t, exists)
}
