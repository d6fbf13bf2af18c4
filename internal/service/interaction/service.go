package interaction

import (
	"context"
	"time"

	"github.com/kindredapp/kindred-backend/internal/app"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/profile"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// TokenKind distinguishes which edge an interaction token names.
type TokenKind string

const (
	KindLike TokenKind = "LIKE"
	KindPass TokenKind = "PASS"
)

// Token is the opaque reference returned after a like/pass. A subsequent
// Rewind targets the exact row through it without re-deriving anything.
// Ephemeral: not persisted beyond the row it names.
type Token struct {
	Kind TokenKind `json:"kind"`
	ID   string    `json:"id"`
}

// MatchView is one live match from the caller's point of view.
type MatchView struct {
	MatchID   string          `json:"match_id"`
	MatchedAt time.Time       `json:"matched_at"`
	User      profile.Profile `json:"user"`
}

// Service implements the interaction ledger: the like/pass/match/rewind/
// unmatch state machine plus the liked-you listings built on it.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	interactions *repository.InteractionRepository
	matches      *repository.MatchRepository
}

// NewService creates the interaction service with dependencies from
// AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
	}
}

// Like records a like from → to and detects a mutual like.
//
// Behavior:
//   - Self-likes are rejected; a missing target is NotFound.
//   - Touches from's lastActiveAt.
//   - A duplicate like (retry, double-tap) is treated as already in the
//     desired state: the existing row's token comes back, no new edge.
//   - If the reverse like exists the pair is matched. Match creation is
//     guarded by the unordered pair's uniqueness — two users liking each
//     other in the same instant still yield exactly one match.
//   - Returns the rewind token and whether the pair is now matched.
func (s *Service) Like(ctx context.Context, fromID, toID string) (Token, bool, error) {
	s.appCtx.Logger.Debug("Like called", "from", fromID, "to", toID)

	if err := s.checkPair(ctx, fromID, toID); err != nil {
		return Token{}, false, err
	}

	now := s.appCtx.Clock.Now()
	if err := s.users.TouchLastActive(ctx, fromID, now); err != nil {
		return Token{}, false, svcErr.Map(err)
	}

	like, err := s.interactions.CreateLike(ctx, fromID, toID)
	if mapped := svcErr.Map(err); mapped != nil {
		if svcErr.CodeOf(mapped) != svcErr.CodeConstraintViolation {
			return Token{}, false, mapped
		}
		// already liked; report the existing state
		existing, gerr := s.interactions.GetLike(ctx, fromID, toID)
		if gerr != nil {
			return Token{}, false, svcErr.Map(gerr)
		}
		matched, merr := s.isMatched(ctx, fromID, toID)
		if merr != nil {
			return Token{}, false, merr
		}
		return Token{Kind: KindLike, ID: existing.ID}, matched, nil
	}

	metrics.RecordSwipe("like")

	mutual, err := s.interactions.HasLike(ctx, toID, fromID)
	if err != nil {
		return Token{}, false, svcErr.Map(err)
	}

	if !mutual {
		// one-way like → the recipient gains an actionable liker
		key := s.appCtx.RedisCache.KeyForLikeCount(toID)
		if _, cerr := s.appCtx.RedisCache.Incr(ctx, key); cerr != nil {
			s.appCtx.Logger.Warn("like count incr failed", "user", toID, "err", cerr)
		}
		return Token{Kind: KindLike, ID: like.ID}, false, nil
	}

	match, created, err := s.matches.CreateForPair(ctx, fromID, toID)
	if err != nil {
		return Token{}, false, svcErr.Map(err)
	}
	if created {
		metrics.RecordMatch()
		s.appCtx.Logger.Info("match created", "match", match.ID, "users", match.PairKey)
	}

	return Token{Kind: KindLike, ID: like.ID}, true, nil
}

// Pass records a pass from → to. Passes never match; a duplicate pass
// returns the existing row's token.
func (s *Service) Pass(ctx context.Context, fromID, toID string) (Token, error) {
	s.appCtx.Logger.Debug("Pass called", "from", fromID, "to", toID)

	if err := s.checkPair(ctx, fromID, toID); err != nil {
		return Token{}, err
	}

	now := s.appCtx.Clock.Now()
	if err := s.users.TouchLastActive(ctx, fromID, now); err != nil {
		return Token{}, svcErr.Map(err)
	}

	pass, err := s.interactions.CreatePass(ctx, fromID, toID)
	if mapped := svcErr.Map(err); mapped != nil {
		if svcErr.CodeOf(mapped) != svcErr.CodeConstraintViolation {
			return Token{}, mapped
		}
		existing, gerr := s.interactions.GetPass(ctx, fromID, toID)
		if gerr != nil {
			return Token{}, svcErr.Map(gerr)
		}
		return Token{Kind: KindPass, ID: existing.ID}, nil
	}

	metrics.RecordSwipe("pass")

	// passing someone who liked us makes their like non-actionable
	if likedMe, lerr := s.interactions.HasLike(ctx, toID, fromID); lerr == nil && likedMe {
		key := s.appCtx.RedisCache.KeyForLikeCount(fromID)
		if _, cerr := s.appCtx.RedisCache.Decr(ctx, key); cerr != nil {
			s.appCtx.Logger.Warn("like count decr failed", "user", fromID, "err", cerr)
		}
	}

	return Token{Kind: KindPass, ID: pass.ID}, nil
}

// Rewind undoes the caller's like or pass named by the token.
//
// Idempotent by design: a token whose row is already gone returns false,
// never an error. This is the only way a previously swiped candidate
// becomes eligible for the caller's feed again.
func (s *Service) Rewind(ctx context.Context, userID string, tok Token) (bool, error) {
	s.appCtx.Logger.Debug("Rewind called", "user", userID, "kind", tok.Kind, "id", tok.ID)

	if tok.ID == "" {
		return false, svcErr.InvalidArgument("token id required")
	}

	now := s.appCtx.Clock.Now()
	if err := s.users.TouchLastActive(ctx, userID, now); err != nil {
		return false, svcErr.Map(err)
	}

	switch tok.Kind {
	case KindLike:
		like, deleted, err := s.interactions.DeleteLikeByID(ctx, tok.ID, userID)
		if err != nil {
			return false, svcErr.Map(err)
		}
		if deleted {
			metrics.RecordRewind("like")
			key := s.appCtx.RedisCache.KeyForLikeCount(like.ToUserID)
			if _, cerr := s.appCtx.RedisCache.Decr(ctx, key); cerr != nil {
				s.appCtx.Logger.Warn("like count decr failed", "user", like.ToUserID, "err", cerr)
			}
		}
		return deleted, nil

	case KindPass:
		deleted, err := s.interactions.DeletePassByID(ctx, tok.ID, userID)
		if err != nil {
			return false, svcErr.Map(err)
		}
		if deleted {
			metrics.RecordRewind("pass")
		}
		return deleted, nil

	default:
		return false, svcErr.InvalidArgument("token kind must be LIKE or PASS")
	}
}

// Unmatch dissolves the match between the caller and another user.
//
// One transactional unit deletes the mutual like pair, both participant
// rows and the match itself — ending a match must not leave stale likes
// that would re-trigger it on the next mutual check, and both users become
// discoverable to each other again. Returns false when no match exists.
func (s *Service) Unmatch(ctx context.Context, userID, otherID string) (bool, error) {
	s.appCtx.Logger.Debug("Unmatch called", "user", userID, "other", otherID)

	if userID == otherID {
		return false, svcErr.InvalidArgument("cannot unmatch yourself")
	}

	dissolved, err := s.matches.Dissolve(ctx, userID, otherID)
	if err != nil {
		return false, svcErr.Map(err)
	}
	if dissolved {
		metrics.RecordUnmatch()
		s.appCtx.Logger.Info("match dissolved", "user", userID, "other", otherID)
	}
	return dissolved, nil
}

// ListLikedMe returns a page of users who liked the caller and are still
// actionable (not yet liked back, not passed).
func (s *Service) ListLikedMe(ctx context.Context, userID string, paginationToken *string, limit int) ([]profile.Profile, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	likers, nextToken, err := s.interactions.ListLikers(ctx, userID, paginationToken, limit)
	if err != nil {
		if svcErr.Is(err, repository.ErrInvalidCursor) {
			return nil, nil, svcErr.InvalidArgument("unknown pagination cursor")
		}
		return nil, nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock.Now()
	profiles := make([]profile.Profile, 0, len(likers))
	for i := range likers {
		profiles = append(profiles, profile.Project(&likers[i], now))
	}
	return profiles, nextToken, nil
}

// CountLikedMe returns how many actionable likers the caller has.
// Cache-first strategy:
//  1. Attempts the cached count (likes:count:<id>), refreshing its TTL.
//  2. On miss, falls back to the database and repopulates the cache.
func (s *Service) CountLikedMe(ctx context.Context, userID string) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
	}

	count, err := s.interactions.CountLikers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	if cerr := s.appCtx.RedisCache.SetLikeCount(ctx, userID, count); cerr != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user", userID, "err", cerr)
	}
	return count, nil
}

// ListMatches returns the caller's live matches, newest first, with the
// other participant projected.
func (s *Service) ListMatches(ctx context.Context, userID string) ([]MatchView, error) {
	matched, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.appCtx.Clock.Now()
	out := make([]MatchView, 0, len(matched))
	for i := range matched {
		out = append(out, MatchView{
			MatchID:   matched[i].MatchID,
			MatchedAt: matched[i].MatchedAt,
			User:      profile.Project(&matched[i].User, now),
		})
	}
	return out, nil
}

// checkPair validates a directed interaction's endpoints: distinct users,
// and the target must exist.
func (s *Service) checkPair(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return svcErr.InvalidArgument("cannot swipe on yourself")
	}
	if toID == "" {
		return svcErr.InvalidArgument("target user id required")
	}
	exists, err := s.users.Exists(ctx, toID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("target user not found")
	}
	return nil
}

// isMatched reports whether a live match exists for the pair.
func (s *Service) isMatched(ctx context.Context, a, b string) (bool, error) {
	_, err := s.matches.FindForPair(ctx, a, b)
	if err == nil {
		return true, nil
	}
	if svcErr.CodeOf(svcErr.Map(err)) == svcErr.CodeNotFound {
		return false, nil
	}
	return false, svcErr.Map(err)
}
