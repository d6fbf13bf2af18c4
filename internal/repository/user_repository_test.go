package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

func candidateIDs(users []db.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestGetByID_LoadsAssociations(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	now := time.Now().UTC().Truncate(time.Millisecond)
	seedUser(t, gdb, "u1", now)
	require.NoError(t, gdb.Create(&db.Photo{ID: "p1", UserID: "u1", URL: "https://cdn.test/p1.jpg", SortOrder: 0}).Error)
	require.NoError(t, gdb.Create(&db.Preference{UserID: "u1", MinAge: 20, MaxAge: 30, DistanceKm: 25}).Error)

	user, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, user.Photos, 1)
	require.NotNil(t, user.Preference)
	assert.Equal(t, 25, user.Preference.DistanceKm)

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTouchLastActive(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, gdb, "u1", created)

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastActive(ctx, "u1", stamp))

	var user db.User
	require.NoError(t, gdb.First(&user, "id = ?", "u1").Error)
	assert.True(t, user.LastActiveAt.Equal(stamp))
}

func TestFindCandidates_ExcludesRequesterAndDecided(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, id := range []string{"me", "liked", "passed", "fresh"} {
		seedUser(t, gdb, id, now)
	}

	users, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		ExcludeIDs:  []string{"liked", "passed"},
		Limit:       10,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fresh"}, candidateIDs(users))
}

func TestFindCandidates_BirthdayBoundsInclusive(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	now := time.Now().UTC().Truncate(time.Millisecond)
	seedUser(t, gdb, "me", now)
	from := time.Date(1995, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2000, 3, 10, 0, 0, 0, 0, time.UTC)

	mkUser := func(id string, birthday time.Time) {
		require.NoError(t, gdb.Create(&db.User{
			ID:           id,
			Email:        id + "@test.com",
			Name:         id,
			Gender:       db.GenderOther,
			Birthday:     birthday,
			LastActiveAt: now,
			CreatedAt:    now,
		}).Error)
	}
	mkUser("on_from", from)
	mkUser("on_to", to)
	mkUser("too_old", from.AddDate(0, 0, -1))
	mkUser("too_young", to.AddDate(0, 0, 1))

	users, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID:  "me",
		BirthdayFrom: &from,
		BirthdayTo:   &to,
		Limit:        10,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"on_from", "on_to"}, candidateIDs(users))
}

func TestFindCandidates_GenderAndActiveSince(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	now := time.Now().UTC().Truncate(time.Millisecond)
	seedUser(t, gdb, "me", now)

	mkUser := func(id, gender string, lastActive time.Time) {
		require.NoError(t, gdb.Create(&db.User{
			ID:           id,
			Email:        id + "@test.com",
			Name:         id,
			Gender:       gender,
			Birthday:     now.AddDate(-25, 0, 0),
			LastActiveAt: lastActive,
			CreatedAt:    now,
		}).Error)
	}
	mkUser("online_f", db.GenderFemale, now)
	mkUser("stale_f", db.GenderFemale, now.Add(-time.Hour))
	mkUser("online_m", db.GenderMale, now)
	// exactly on the boundary counts as active
	cutoff := now.Add(-5 * time.Minute)
	mkUser("boundary_f", db.GenderFemale, cutoff)

	female := db.GenderFemale
	users, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		Gender:      &female,
		ActiveSince: &cutoff,
		Limit:       10,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"online_f", "boundary_f"}, candidateIDs(users))
}

func TestFindCandidates_CursorSeek(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, gdb, "me", base)
	for i := 0; i < 5; i++ {
		seedUser(t, gdb, fmt.Sprintf("c%d", i), base.Add(time.Duration(i)*time.Hour))
	}

	page1, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		Limit:       2,
	})
	require.NoError(t, err)
	// newest first
	require.Equal(t, []string{"c4", "c3"}, candidateIDs(page1))

	page2, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		CursorID:    "c3",
		Limit:       2,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c2", "c1"}, candidateIDs(page2))

	page3, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		CursorID:    "c1",
		Limit:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c0"}, candidateIDs(page3))
}

func TestFindCandidates_CursorTiebreakOnEqualCreatedAt(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, gdb, "me", at)
	for _, id := range []string{"a", "b", "c"} {
		seedUser(t, gdb, id, at)
	}

	page1, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		Limit:       2,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, candidateIDs(page1))

	page2, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		CursorID:    "b",
		Limit:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, candidateIDs(page2))
}

func TestFindCandidates_InvalidCursor(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedUser(t, gdb, "me", time.Now().UTC())

	_, err := repo.FindCandidates(ctx, repository.CandidateFilter{
		RequesterID: "me",
		CursorID:    "never-existed",
		Limit:       10,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidCursor)
}

func TestCandidateFilter_Validate(t *testing.T) {
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(-5, 0, 0)

	assert.Error(t, repository.CandidateFilter{Limit: 10}.Validate())
	assert.Error(t, repository.CandidateFilter{RequesterID: "me"}.Validate())
	assert.Error(t, repository.CandidateFilter{
		RequesterID:  "me",
		Limit:        10,
		BirthdayFrom: &from,
		BirthdayTo:   &to,
	}.Validate())
	assert.NoError(t, repository.CandidateFilter{RequesterID: "me", Limit: 10}.Validate())
}
