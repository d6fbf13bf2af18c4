package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// ErrInvalidCursor is returned when a pagination cursor names a row that
// does not exist (or never did). The service layer maps it to a bad-request
// response.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// CandidateFilter is the immutable criteria set for one feed query, built
// once per call and validated before use.
//
// Fields:
//   - RequesterID: never returned in its own feed.
//   - ExcludeIDs: users already liked or passed by the requester.
//   - BirthdayFrom/BirthdayTo: inclusive bounds translated from the
//     requester's [minAge,maxAge] preference.
//   - Gender: equality filter when the preference names one.
//   - ActiveSince: inclusive lower bound on last_active_at (online filter).
//   - CursorID: exclusive seek cursor, the last id of the previous page.
//   - Limit: page size.
type CandidateFilter struct {
	RequesterID  string
	ExcludeIDs   []string
	BirthdayFrom *time.Time
	BirthdayTo   *time.Time
	Gender       *string
	ActiveSince  *time.Time
	CursorID     string
	Limit        int
}

// Validate rejects criteria that could never produce a sane query.
func (f CandidateFilter) Validate() error {
	if f.RequesterID == "" {
		return errors.New("candidate filter: requester id required")
	}
	if f.Limit <= 0 {
		return errors.New("candidate filter: limit must be positive")
	}
	if f.BirthdayFrom != nil && f.BirthdayTo != nil && f.BirthdayFrom.After(*f.BirthdayTo) {
		return errors.New("candidate filter: birthday range inverted")
	}
	return nil
}

// UserRepository provides data access for user rows.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID loads a user with photos and preference. gorm.ErrRecordNotFound
// passes through for the error mapper.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Preload("Photos").
		Preload("Preference").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row exists without loading it.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// TouchLastActive stamps the user's last activity. Every feed fetch and
// every swipe counts as activity.
func (r *UserRepository) TouchLastActive(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("last_active_at", now).Error
}

// FindCandidates runs one filtered, paginated feed query.
//
// Behavior:
//   - Applies the whole CandidateFilter as a database predicate except for
//     distance, which is post-filtered in memory by the caller.
//   - Ordered by created_at DESC, id DESC (newest profiles first, id as the
//     stable tiebreak).
//   - The cursor row itself is skipped: seek pagination strictly past
//     (created_at, id) of the cursor row, never an offset.
//
// Example:
//
//	repo.FindCandidates(ctx, CandidateFilter{RequesterID: id, Limit: 10})
func (r *UserRepository) FindCandidates(ctx context.Context, f CandidateFilter) ([]db.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Preload("Photos").
		Preload("Preference").
		Where("id <> ?", f.RequesterID)

	if len(f.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", f.ExcludeIDs)
	}
	if f.BirthdayFrom != nil {
		query = query.Where("birthday >= ?", *f.BirthdayFrom)
	}
	if f.BirthdayTo != nil {
		query = query.Where("birthday <= ?", *f.BirthdayTo)
	}
	if f.Gender != nil {
		query = query.Where("gender = ?", *f.Gender)
	}
	if f.ActiveSince != nil {
		query = query.Where("last_active_at >= ?", *f.ActiveSince)
	}

	if f.CursorID != "" {
		var cur db.User
		err := r.db.WithContext(ctx).
			Select("id", "created_at").
			First(&cur, "id = ?", f.CursorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCursor
		} else if err != nil {
			return nil, err
		}
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			cur.CreatedAt, cur.CreatedAt, cur.ID,
		)
	}

	var users []db.User
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(f.Limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
