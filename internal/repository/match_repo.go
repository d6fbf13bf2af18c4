package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// MatchRepository provides data access for matches and their participants.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB
// connection (or transaction).
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// MatchedUser is one live match from a user's point of view.
type MatchedUser struct {
	MatchID   string
	MatchedAt time.Time
	User      db.User
}

// CreateForPair creates the match for an unordered user pair, or returns the
// existing one.
//
// Check-then-act under a uniqueness guarantee: the transaction re-checks the
// pair key immediately before insert, and the unique index on pair_key
// catches the remaining window — when both directions of a mutual like race
// here, the loser's insert fails with a duplicate key and the winner's row
// is fetched instead. Exactly one match per pair, always.
func (r *MatchRepository) CreateForPair(ctx context.Context, userA, userB string) (*db.Match, bool, error) {
	key := db.PairKey(userA, userB)

	var match *db.Match
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.Match
		err := tx.Preload("Participants").First(&existing, "pair_key = ?", key).Error
		if err == nil {
			match = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		fresh := db.Match{
			ID:      uuid.NewString(),
			PairKey: key,
			Participants: []db.MatchParticipant{
				{UserID: userA},
				{UserID: userB},
			},
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		match = &fresh
		created = true
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race; the other direction created it
		var existing db.Match
		if ferr := r.db.WithContext(ctx).
			Preload("Participants").
			First(&existing, "pair_key = ?", key).Error; ferr != nil {
			return nil, false, ferr
		}
		return &existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return match, created, nil
}

// FindForPair returns the live match for an unordered pair, or
// gorm.ErrRecordNotFound.
func (r *MatchRepository) FindForPair(ctx context.Context, userA, userB string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&match, "pair_key = ?", db.PairKey(userA, userB)).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForUser returns every live match the user participates in, newest
// first, with the other participant's full user row loaded.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string) ([]MatchedUser, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN match_participants mp ON mp.match_id = matches.id AND mp.user_id = ?", userID).
		Order("matches.created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	otherIDs := make([]string, 0, len(matches))
	otherByMatch := make(map[string]string, len(matches))
	for _, m := range matches {
		for _, p := range m.Participants {
			if p.UserID != userID {
				otherIDs = append(otherIDs, p.UserID)
				otherByMatch[m.ID] = p.UserID
			}
		}
	}

	var users []db.User
	if err := r.db.WithContext(ctx).
		Preload("Photos").
		Preload("Preference").
		Find(&users, "id IN ?", otherIDs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]MatchedUser, 0, len(matches))
	for _, m := range matches {
		u, ok := byID[otherByMatch[m.ID]]
		if !ok {
			continue // participant row without a user row; skip rather than fail
		}
		out = append(out, MatchedUser{MatchID: m.ID, MatchedAt: m.CreatedAt, User: u})
	}
	return out, nil
}

// Dissolve removes the match between two users along with the mutual like
// pair that formed it.
//
// All four deletions — both directed likes, both participant rows, the
// match row — run in one transaction; a failure anywhere rolls everything
// back so no orphaned participant or stale like survives. Deleting the
// likes is what stops the pair from instantly re-matching on the next
// mutual-like check, and it also returns both users to each other's feeds.
func (r *MatchRepository) Dissolve(ctx context.Context, userA, userB string) (bool, error) {
	dissolved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match db.Match
		err := tx.First(&match, "pair_key = ?", db.PairKey(userA, userB)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		if err := tx.Where(
			"(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA,
		).Delete(&db.Like{}).Error; err != nil {
			return err
		}

		if err := tx.Where("match_id = ?", match.ID).Delete(&db.MatchParticipant{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&db.Match{}, "id = ?", match.ID).Error; err != nil {
			return err
		}

		dissolved = true
		return nil
	})
	return dissolved, err
}
