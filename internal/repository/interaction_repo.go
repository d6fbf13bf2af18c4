package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/utils/pagination"
)

// InteractionRepository provides data access for the directed Like and Pass
// edges between users.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB
// connection (or transaction).
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// CreateLike inserts a like from → to.
//
// The unique (from_user_id, to_user_id) index makes this safe to retry: a
// second insert for the same direction fails with gorm.ErrDuplicatedKey
// instead of creating a second row.
func (r *InteractionRepository) CreateLike(ctx context.Context, fromID, toID string) (*db.Like, error) {
	like := db.Like{ID: uuid.NewString(), FromUserID: fromID, ToUserID: toID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

// GetLike fetches the like for one direction, if any.
func (r *InteractionRepository) GetLike(ctx context.Context, fromID, toID string) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		First(&like, "from_user_id = ? AND to_user_id = ?", fromID, toID).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// HasLike checks whether from has liked to. Used for the mutual-like check.
func (r *InteractionRepository) HasLike(ctx context.Context, fromID, toID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Count(&count).Error
	return count > 0, err
}

// DeleteLikeByID removes the caller's like row named by a rewind token.
//
// Behavior:
//   - Scoped to fromID so a token can only rewind its owner's swipe.
//   - A missing row is not an error: (nil, false, nil).
//   - Returns the deleted row so callers can adjust the recipient's cached
//     liked-you count.
func (r *InteractionRepository) DeleteLikeByID(ctx context.Context, id, fromID string) (*db.Like, bool, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		First(&like, "id = ? AND from_user_id = ?", id, fromID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	res := r.db.WithContext(ctx).Delete(&db.Like{}, "id = ?", like.ID)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &like, res.RowsAffected > 0, nil
}

// CreatePass inserts a pass from → to, under the same uniqueness rule as
// CreateLike.
func (r *InteractionRepository) CreatePass(ctx context.Context, fromID, toID string) (*db.Pass, error) {
	pass := db.Pass{ID: uuid.NewString(), FromUserID: fromID, ToUserID: toID}
	if err := r.db.WithContext(ctx).Create(&pass).Error; err != nil {
		return nil, err
	}
	return &pass, nil
}

// GetPass fetches the pass for one direction, if any.
func (r *InteractionRepository) GetPass(ctx context.Context, fromID, toID string) (*db.Pass, error) {
	var pass db.Pass
	err := r.db.WithContext(ctx).
		First(&pass, "from_user_id = ? AND to_user_id = ?", fromID, toID).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// DeletePassByID removes the caller's pass row named by a rewind token.
// Missing rows are a no-op, same as DeleteLikeByID.
func (r *InteractionRepository) DeletePassByID(ctx context.Context, id, fromID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Delete(&db.Pass{}, "id = ? AND from_user_id = ?", id, fromID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LikedUserIDs returns every user the given user has liked. Together with
// PassedUserIDs this is the feed exclusion set: a candidate already swiped
// on is never re-surfaced without a rewind.
func (r *InteractionRepository) LikedUserIDs(ctx context.Context, fromID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ?", fromID).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// PassedUserIDs returns every user the given user has passed on.
func (r *InteractionRepository) PassedUserIDs(ctx context.Context, fromID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Pass{}).
		Where("from_user_id = ?", fromID).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// ListLikers returns users who liked the given user and are still
// actionable.
//
// Behavior:
//   - Excludes likers the user already liked back (which covers matched
//     pairs, since like rows survive match creation).
//   - Excludes likers the user explicitly passed.
//   - Ordered by the like's created_at DESC, liker id DESC.
//   - Cursor-based pagination: limit+1 fetch, next token carries the last
//     returned liker id.
//
// Example:
//
//	repo.ListLikers(ctx, userID, nil, 20)
func (r *InteractionRepository) ListLikers(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]db.User, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Preload("Photos").
		Preload("Preference").
		Joins("JOIN likes l ON l.from_user_id = users.id").
		Where("l.to_user_id = ?", userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM likes lb
			WHERE lb.from_user_id = ? AND lb.to_user_id = users.id
		)`, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM passes p
			WHERE p.from_user_id = ? AND p.to_user_id = users.id
		)`, userID).
		Order("l.created_at DESC, users.id DESC").
		Limit(limit + 1)

	if cursor.LastID != "" {
		var last db.Like
		err := r.db.WithContext(ctx).
			First(&last, "from_user_id = ? AND to_user_id = ?", cursor.LastID, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCursor
		} else if err != nil {
			return nil, nil, err
		}
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND users.id < ?))",
			last.CreatedAt, last.CreatedAt, cursor.LastID,
		)
	}

	var likers []db.User
	if err := query.Find(&likers).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(likers) > limit {
		likers = likers[:limit]
		token, _ := pagination.Encode(pagination.Cursor{LastID: likers[len(likers)-1].ID})
		nextToken = &token
	}

	return likers, nextToken, nil
}

// CountLikers counts actionable likers, with the same exclusions as
// ListLikers so the badge number always matches the list.
func (r *InteractionRepository) CountLikers(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("to_user_id = ?", userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM likes lb
			WHERE lb.from_user_id = ? AND lb.to_user_id = likes.from_user_id
		)`, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM passes p
			WHERE p.from_user_id = ? AND p.to_user_id = likes.from_user_id
		)`, userID).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
