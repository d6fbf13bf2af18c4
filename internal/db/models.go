package db

import (
	"strings"
	"time"
)

// Declared genders. Stored as-is; preference matching is plain equality.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// User is a member profile. Ids are issued by the external auth system and
// treated as opaque stable strings. Age is never stored — it is derived from
// Birthday at projection time.
//
// Location is optional (Lat/Lng both nil until the client reports one); a
// user without a location is excluded from any distance-bounded feed.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	Name         string    `gorm:"size:128;not null"`
	Bio          string    `gorm:"size:512"`
	Gender       string    `gorm:"size:16;not null"`
	Birthday     time.Time `gorm:"not null"`
	Lat          *float64
	Lng          *float64
	LastActiveAt time.Time `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_users_created_id,priority:1,sort:desc"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Photos     []Photo     `gorm:"foreignKey:UserID"`
	Preference *Preference `gorm:"foreignKey:UserID"`
}

// HasLocation reports whether the user has a stored coordinate.
func (u *User) HasLocation() bool { return u.Lat != nil && u.Lng != nil }

// Photo is one profile image. Only URLs are exposed externally, ordered by
// SortOrder ascending.
type Photo struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	URL       string    `gorm:"size:512;not null"`
	PublicID  string    `gorm:"size:64"`
	SortOrder int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Preference holds a user's discovery filters. One row per user, created
// lazily at registration or profile edit. Age bounds are inclusive; a nil
// Gender means any.
type Preference struct {
	UserID     string `gorm:"primaryKey;size:36"`
	MinAge     int    `gorm:"not null"`
	MaxAge     int    `gorm:"not null"`
	DistanceKm int    `gorm:"not null"`
	Gender     *string `gorm:"size:16"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Like is a directed like edge.
//
// Indexes:
//   - unique (from_user_id, to_user_id): one like per direction, and the
//     conflict target that makes retried likes safe.
//   - (to_user_id, created_at): "who liked me" listings.
type Like struct {
	ID         string    `gorm:"primaryKey;size:36"`
	FromUserID string    `gorm:"size:36;not null;uniqueIndex:idx_likes_from_to,priority:1"`
	ToUserID   string    `gorm:"size:36;not null;uniqueIndex:idx_likes_from_to,priority:2;index:idx_likes_to_created,priority:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_likes_to_created,priority:2,sort:desc"`
}

// Pass is a directed pass edge. Same uniqueness rule as Like.
type Pass struct {
	ID         string    `gorm:"primaryKey;size:36"`
	FromUserID string    `gorm:"size:36;not null;uniqueIndex:idx_passes_from_to,priority:1"`
	ToUserID   string    `gorm:"size:36;not null;uniqueIndex:idx_passes_from_to,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Match is an undirected relationship between exactly two users, realized
// as a Match row owning two MatchParticipant rows.
//
// PairKey is the sorted "lowID:highID" form of the pair; its unique index
// is what guarantees at most one live match per unordered pair even when
// both directions detect the mutual like concurrently.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	PairKey   string    `gorm:"size:80;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Participants []MatchParticipant `gorm:"foreignKey:MatchID"`
}

// MatchParticipant links one user into a match.
type MatchParticipant struct {
	MatchID   string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PairKey builds the order-independent key for a user pair.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}
