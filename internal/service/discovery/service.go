package discovery

import (
	"context"
	"time"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/geo"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/presence"
	"github.com/kindredapp/kindred-backend/internal/profile"
	"github.com/kindredapp/kindred-backend/internal/repository"
	"github.com/kindredapp/kindred-backend/internal/utils/pagination"
)

const (
	// DefaultLimit is the feed page size when the caller doesn't ask for one.
	DefaultLimit = 10
	// MaxLimit caps a single feed page.
	MaxLimit = 50
)

// FeedParams carries the per-request overrides for one feed fetch. All
// fields are optional; zero values mean "use the requester's stored
// preferences".
type FeedParams struct {
	Limit      int
	Cursor     string
	DistanceKm *int
	OnlyOnline bool
	// Location is the caller's live GPS reading. When present it takes
	// priority over the stored profile location as the distance origin.
	Location *profile.Location
}

// Service implements the candidate selector: filtered, cursor-paginated
// discovery feeds plus direct profile lookups.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	interactions *repository.InteractionRepository
}

// NewService creates the discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
	}
}

// GetFeed returns one page of eligible candidates for the requester.
//
// Behavior:
//  1. Touches the requester's lastActiveAt — every feed fetch counts as
//     activity.
//  2. Loads requester + preference; NotFound if the requester is missing.
//  3. Excludes everyone already liked or passed (no re-surfacing without a
//     rewind), and the requester itself.
//  4. Preference age bounds become an inclusive birthday range; preferred
//     gender becomes an equality filter.
//  5. only_online keeps candidates active within the last 5 minutes.
//  6. The page is fetched newest-first with an exclusive seek cursor, then
//     distance-filtered in memory: origin is the live location override
//     when present, else the stored location; candidates without a stored
//     location never pass a distance bound. Post-fetch filtering means a
//     page may carry fewer than limit rows even when more distant eligible
//     candidates exist further down the unfiltered order — accepted
//     trade-off, not a bug.
//  7. Survivors are projected; the next cursor is the id of the last
//     returned candidate, nil when the page is empty.
func (s *Service) GetFeed(ctx context.Context, requesterID string, p FeedParams) ([]profile.Profile, *string, error) {
	s.appCtx.Logger.Debug("GetFeed called", "requester", requesterID, "limit", p.Limit, "cursor", p.Cursor)

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	now := s.appCtx.Clock.Now()

	if err := s.users.TouchLastActive(ctx, requesterID, now); err != nil {
		return nil, nil, svcErr.Map(err)
	}

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}

	filter, err := s.buildFilter(ctx, requester, p, limit, now)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := s.users.FindCandidates(ctx, filter)
	if err != nil {
		if svcErr.Is(err, repository.ErrInvalidCursor) {
			return nil, nil, svcErr.InvalidArgument("unknown pagination cursor")
		}
		return nil, nil, svcErr.Map(err)
	}

	candidates = s.applyDistanceBound(requester, p, candidates)

	profiles := make([]profile.Profile, 0, len(candidates))
	for i := range candidates {
		profiles = append(profiles, profile.Project(&candidates[i], now))
	}

	var nextCursor *string
	if len(profiles) > 0 {
		token, err := pagination.Encode(pagination.Cursor{LastID: profiles[len(profiles)-1].ID})
		if err != nil {
			return nil, nil, svcErr.Map(err)
		}
		nextCursor = &token
	}

	metrics.RecordFeedPage(len(profiles))
	s.appCtx.Logger.Debug("GetFeed result", "requester", requesterID, "candidates", len(profiles))

	return profiles, nextCursor, nil
}

// GetProfile returns the visible profile for one user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	p := profile.Project(user, s.appCtx.Clock.Now())
	return &p, nil
}

// buildFilter assembles the immutable criteria set for one feed query.
func (s *Service) buildFilter(
	ctx context.Context,
	requester *db.User,
	p FeedParams,
	limit int,
	now time.Time,
) (repository.CandidateFilter, error) {
	liked, err := s.interactions.LikedUserIDs(ctx, requester.ID)
	if err != nil {
		return repository.CandidateFilter{}, svcErr.Map(err)
	}
	passed, err := s.interactions.PassedUserIDs(ctx, requester.ID)
	if err != nil {
		return repository.CandidateFilter{}, svcErr.Map(err)
	}

	cursor, err := pagination.Decode(p.Cursor)
	if err != nil {
		return repository.CandidateFilter{}, svcErr.InvalidArgument("invalid pagination cursor")
	}

	filter := repository.CandidateFilter{
		RequesterID: requester.ID,
		ExcludeIDs:  append(liked, passed...),
		CursorID:    cursor.LastID,
		Limit:       limit,
	}

	if pref := requester.Preference; pref != nil {
		// [minAge,maxAge] inclusive → birthday range [today-maxAge, today-minAge]
		// inclusive; a candidate turning exactly minAge today is included.
		from := now.AddDate(-pref.MaxAge, 0, 0)
		to := now.AddDate(-pref.MinAge, 0, 0)
		filter.BirthdayFrom = &from
		filter.BirthdayTo = &to

		if pref.Gender != nil {
			filter.Gender = pref.Gender
		}
	}

	if p.OnlyOnline {
		since := now.Add(-presence.OnlineWindow)
		filter.ActiveSince = &since
	}

	if err := filter.Validate(); err != nil {
		return repository.CandidateFilter{}, svcErr.InvalidArgument(err.Error())
	}
	return filter, nil
}

// applyDistanceBound drops candidates beyond the effective distance bound.
// The bound is the per-request override when given, else the stored
// preference. An active bound always excludes candidates without a stored
// location; when the requester has no origin (no live reading, no stored
// location) that exclusion is all the bound can do, and located candidates
// pass unmeasured.
func (s *Service) applyDistanceBound(requester *db.User, p FeedParams, candidates []db.User) []db.User {
	bound := 0
	if p.DistanceKm != nil {
		bound = *p.DistanceKm
	} else if requester.Preference != nil {
		bound = requester.Preference.DistanceKm
	}
	if bound <= 0 {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.HasLocation() {
			kept = append(kept, c)
		}
	}
	candidates = kept

	var origin profile.Location
	switch {
	case p.Location != nil:
		origin = *p.Location
	case requester.HasLocation():
		origin = profile.Location{Lat: *requester.Lat, Lng: *requester.Lng}
	default:
		return candidates
	}

	kept = candidates[:0]
	for _, c := range candidates {
		d := geo.DistanceKm(origin.Lat, origin.Lng, *c.Lat, *c.Lng)
		if d <= float64(bound) {
			kept = append(kept, c)
		}
	}
	return kept
}
