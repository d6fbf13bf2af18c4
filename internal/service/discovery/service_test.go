package discovery_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/cache"
	"github.com/kindredapp/kindred-backend/internal/clock"
	"github.com/kindredapp/kindred-backend/internal/config"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/profile"
	"github.com/kindredapp/kindred-backend/internal/repository"
	"github.com/kindredapp/kindred-backend/internal/service/discovery"
)

// feedNow is the fixed instant every discovery test runs at.
var feedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Delhi, the origin all test distances are measured from.
const (
	originLat = 28.6
	originLng = 77.2
)

func setupService(t *testing.T) (*discovery.Service, *gorm.DB, *app.AppContext) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rdb := cache.NewRedisCache(cfg)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return feedNow },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&db.User{}, &db.Photo{}, &db.Preference{},
		&db.Like{}, &db.Pass{},
		&db.Match{}, &db.MatchParticipant{},
	))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, rdb, logger, clock.NewFixed(feedNow))
	return discovery.NewService(appCtx), gdb, appCtx
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

// baseUser builds an online 25-year-old at the origin. Tests tweak fields
// before inserting.
func baseUser(id string, createdAt time.Time) *db.User {
	return &db.User{
		ID:           id,
		Email:        id + "@test.com",
		Name:         id,
		Gender:       db.GenderOther,
		Birthday:     feedNow.AddDate(-25, 0, 0),
		Lat:          ptrF(originLat),
		Lng:          ptrF(originLng),
		LastActiveAt: feedNow,
		CreatedAt:    createdAt,
	}
}

func insertUser(t *testing.T, gdb *gorm.DB, u *db.User) {
	t.Helper()
	require.NoError(t, gdb.Create(u).Error)
}

func insertRequester(t *testing.T, gdb *gorm.DB, pref *db.Preference) {
	t.Helper()
	insertUser(t, gdb, baseUser("me", feedNow.Add(-24*time.Hour)))
	if pref != nil {
		pref.UserID = "me"
		require.NoError(t, gdb.Create(pref).Error)
	}
}

func feedIDs(profiles []profile.Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGetFeed_AgeDistanceAndOnline(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, &db.Preference{MinAge: 18, MaxAge: 30, DistanceKm: 50})

	// ~49 km north of the origin, age 25, online → passes every filter
	near := baseUser("near", feedNow.Add(-time.Hour))
	near.Lat = ptrF(originLat + 0.44)
	insertUser(t, gdb, near)

	// ~105 km away → beyond the 50 km preference
	far := baseUser("far", feedNow.Add(-2*time.Hour))
	far.Lat = ptrF(originLat + 0.95)
	insertUser(t, gdb, far)

	// right age bound edges: exactly 18 passes, over 30 does not
	young := baseUser("young", feedNow.Add(-3*time.Hour))
	young.Birthday = feedNow.AddDate(-18, 0, 0)
	insertUser(t, gdb, young)

	old := baseUser("old", feedNow.Add(-4*time.Hour))
	old.Birthday = feedNow.AddDate(-31, 0, 0)
	insertUser(t, gdb, old)

	profiles, next, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"near", "young"}, feedIDs(profiles))
	assert.NotNil(t, next)

	for _, p := range profiles {
		assert.NotEqual(t, "me", p.ID)
		assert.True(t, p.IsOnline)
		if p.ID == "near" {
			assert.Equal(t, 25, p.Age)
		}
	}
}

func TestGetFeed_GenderPreference(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	female := db.GenderFemale
	insertRequester(t, gdb, &db.Preference{MinAge: 18, MaxAge: 40, Gender: &female})

	wanted := baseUser("wanted", feedNow.Add(-time.Hour))
	wanted.Gender = db.GenderFemale
	insertUser(t, gdb, wanted)

	other := baseUser("other", feedNow.Add(-2*time.Hour))
	other.Gender = db.GenderMale
	insertUser(t, gdb, other)

	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"wanted"}, feedIDs(profiles))
}

func TestGetFeed_ExcludesSwipedUntilRewind(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)
	insertUser(t, gdb, baseUser("candidate", feedNow.Add(-time.Hour)))

	interactions := repository.NewInteractionRepository(gdb)
	pass, err := interactions.CreatePass(ctx, "me", "candidate")
	require.NoError(t, err)

	profiles, next, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.Nil(t, next)

	// rewinding the pass puts the candidate back into the feed
	deleted, err := interactions.DeletePassByID(ctx, pass.ID, "me")
	require.NoError(t, err)
	require.True(t, deleted)

	profiles, _, err = svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"candidate"}, feedIDs(profiles))
}

func TestGetFeed_DistanceBoundIsInclusive(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)

	// one degree of latitude is ~111.19 km; bound at 112 includes it,
	// bound at 111 does not
	candidate := baseUser("oneDegree", feedNow.Add(-time.Hour))
	candidate.Lat = ptrF(originLat + 1)
	insertUser(t, gdb, candidate)

	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{DistanceKm: ptrI(112)})
	require.NoError(t, err)
	assert.Equal(t, []string{"oneDegree"}, feedIDs(profiles))

	profiles, _, err = svc.GetFeed(ctx, "me", discovery.FeedParams{DistanceKm: ptrI(111)})
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestGetFeed_NoLocationCandidateSkippedUnderBound(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)

	unlocated := baseUser("unlocated", feedNow.Add(-time.Hour))
	unlocated.Lat, unlocated.Lng = nil, nil
	insertUser(t, gdb, unlocated)

	// no bound → everyone passes
	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"unlocated"}, feedIDs(profiles))

	// bounded feed can't measure them → dropped
	profiles, _, err = svc.GetFeed(ctx, "me", discovery.FeedParams{DistanceKm: ptrI(500)})
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestGetFeed_PreferenceBoundWithoutOriginStillExcludesUnlocated(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	// requester has a 50 km preference but no stored location and sends no
	// live reading
	me := baseUser("me", feedNow.Add(-24*time.Hour))
	me.Lat, me.Lng = nil, nil
	insertUser(t, gdb, me)
	require.NoError(t, gdb.Create(&db.Preference{UserID: "me", MinAge: 18, MaxAge: 40, DistanceKm: 50}).Error)

	unlocated := baseUser("unlocated", feedNow.Add(-time.Hour))
	unlocated.Lat, unlocated.Lng = nil, nil
	insertUser(t, gdb, unlocated)

	insertUser(t, gdb, baseUser("located", feedNow.Add(-2*time.Hour)))

	// the bound still excludes the unmeasurable; located candidates pass
	// because there is no origin to measure them from
	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"located"}, feedIDs(profiles))
}

func TestGetFeed_LiveLocationOverride(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)

	candidate := baseUser("nearMumbai", feedNow.Add(-time.Hour))
	candidate.Lat, candidate.Lng = ptrF(19.1), ptrF(72.9)
	insertUser(t, gdb, candidate)

	// measured from the stored Delhi location they are ~1150 km out
	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{DistanceKm: ptrI(100)})
	require.NoError(t, err)
	assert.Empty(t, profiles)

	// a live reading near Mumbai brings them inside the bound
	profiles, _, err = svc.GetFeed(ctx, "me", discovery.FeedParams{
		DistanceKm: ptrI(100),
		Location:   &profile.Location{Lat: 19.0, Lng: 72.8},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nearMumbai"}, feedIDs(profiles))
}

func TestGetFeed_OnlyOnline(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)

	insertUser(t, gdb, baseUser("active", feedNow.Add(-time.Hour)))

	stale := baseUser("stale", feedNow.Add(-2*time.Hour))
	stale.LastActiveAt = feedNow.Add(-10 * time.Minute)
	insertUser(t, gdb, stale)

	profiles, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{OnlyOnline: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"active"}, feedIDs(profiles))

	profiles, _, err = svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"active", "stale"}, feedIDs(profiles))
}

func TestGetFeed_CursorPagination(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)
	for i := 0; i < 5; i++ {
		insertUser(t, gdb, baseUser(fmt.Sprintf("c%d", i), feedNow.Add(-time.Duration(10-i)*time.Hour)))
	}

	page1, next, err := svc.GetFeed(ctx, "me", discovery.FeedParams{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"c4", "c3"}, feedIDs(page1))
	require.NotNil(t, next)

	page2, next2, err := svc.GetFeed(ctx, "me", discovery.FeedParams{Limit: 2, Cursor: *next})
	require.NoError(t, err)
	require.Equal(t, []string{"c2", "c1"}, feedIDs(page2))
	require.NotNil(t, next2)

	page3, next3, err := svc.GetFeed(ctx, "me", discovery.FeedParams{Limit: 2, Cursor: *next2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c0"}, feedIDs(page3))
	assert.NotNil(t, next3)

	page4, next4, err := svc.GetFeed(ctx, "me", discovery.FeedParams{Limit: 2, Cursor: *next3})
	require.NoError(t, err)
	assert.Empty(t, page4)
	assert.Nil(t, next4)
}

func TestGetFeed_InvalidCursor(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)

	_, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{Cursor: "not-base64!!"})
	require.Error(t, err)
	assert.Equal(t, svcErr.CodeInvalidArgument, svcErr.CodeOf(err))
}

func TestGetFeed_TouchesRequesterActivity(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	insertRequester(t, gdb, nil)
	require.NoError(t, gdb.Model(&db.User{}).Where("id = ?", "me").
		Update("last_active_at", feedNow.Add(-48*time.Hour)).Error)

	_, _, err := svc.GetFeed(ctx, "me", discovery.FeedParams{})
	require.NoError(t, err)

	var me db.User
	require.NoError(t, gdb.First(&me, "id = ?", "me").Error)
	assert.True(t, me.LastActiveAt.Equal(feedNow))
}

func TestGetFeed_UnknownRequester(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, _, err := svc.GetFeed(ctx, "ghost", discovery.FeedParams{})
	require.Error(t, err)
	assert.Equal(t, svcErr.CodeNotFound, svcErr.CodeOf(err))
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, gdb, _ := setupService(t)

	u := baseUser("u1", feedNow.Add(-time.Hour))
	insertUser(t, gdb, u)
	require.NoError(t, gdb.Create(&db.Photo{ID: "p2", UserID: "u1", URL: "https://cdn.test/2.jpg", SortOrder: 1}).Error)
	require.NoError(t, gdb.Create(&db.Photo{ID: "p1", UserID: "u1", URL: "https://cdn.test/1.jpg", SortOrder: 0}).Error)

	p, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, p.Age)
	assert.True(t, p.IsOnline)
	assert.Equal(t, []string{"https://cdn.test/1.jpg", "https://cdn.test/2.jpg"}, p.Photos)

	_, err = svc.GetProfile(ctx, "ghost")
	require.Error(t, err)
	assert.Equal(t, svcErr.CodeNotFound, svcErr.CodeOf(err))
}
