package profile

import (
	"sort"
	"time"

	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/presence"
)

// daysPerYear keeps leap years in the age calculation.
const daysPerYear = 365.25

// Location is a lat/lng pair as exposed to callers.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PreferenceView mirrors a stored preference row for API responses.
type PreferenceView struct {
	MinAge     int     `json:"min_age"`
	MaxAge     int     `json:"max_age"`
	DistanceKm int     `json:"distance_km"`
	Gender     *string `json:"gender,omitempty"`
}

// Profile is the externally visible shape of a user: derived age, online
// flag, ordered photo URLs. Never the raw storage row.
type Profile struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Bio          string          `json:"bio,omitempty"`
	Gender       string          `json:"gender"`
	Age          int             `json:"age"`
	Photos       []string        `json:"photos"`
	Location     Location        `json:"location"`
	IsOnline     bool            `json:"is_online"`
	LastActiveAt time.Time       `json:"last_active_at"`
	CreatedAt    time.Time       `json:"created_at"`
	Preference   *PreferenceView `json:"preferences,omitempty"`
}

// Project maps a stored user row (with photos and preference loaded) into
// its visible profile at the given instant.
//
// Behavior:
//   - age = floor((now − birthday) / 365.25 days); age is always derived,
//     never stored.
//   - photos sorted by SortOrder ascending, URLs only.
//   - missing location defaults to {0,0} rather than failing.
//   - online flag per presence.IsOnline (future timestamps are offline).
//
// Pure mapping: no side effects, always succeeds on a valid row.
func Project(u *db.User, now time.Time) Profile {
	photos := make([]db.Photo, len(u.Photos))
	copy(photos, u.Photos)
	sort.SliceStable(photos, func(i, j int) bool { return photos[i].SortOrder < photos[j].SortOrder })

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		urls = append(urls, p.URL)
	}

	loc := Location{}
	if u.HasLocation() {
		loc = Location{Lat: *u.Lat, Lng: *u.Lng}
	}

	p := Profile{
		ID:           u.ID,
		Name:         u.Name,
		Bio:          u.Bio,
		Gender:       u.Gender,
		Age:          Age(u.Birthday, now),
		Photos:       urls,
		Location:     loc,
		IsOnline:     presence.IsOnline(u.LastActiveAt, now),
		LastActiveAt: u.LastActiveAt,
		CreatedAt:    u.CreatedAt,
	}

	if u.Preference != nil {
		p.Preference = &PreferenceView{
			MinAge:     u.Preference.MinAge,
			MaxAge:     u.Preference.MaxAge,
			DistanceKm: u.Preference.DistanceKm,
			Gender:     u.Preference.Gender,
		}
	}

	return p
}

// Age derives whole years from a birthday using a 365.25-day year.
func Age(birthday, now time.Time) int {
	if birthday.IsZero() || birthday.After(now) {
		return 0
	}
	days := now.Sub(birthday).Hours() / 24
	return int(days / daysPerYear)
}
