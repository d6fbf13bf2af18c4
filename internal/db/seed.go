package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo profiles and
// interactions.
//
// Behavior:
//  1. Clears all engine tables.
//  2. Creates 20 users (mixed genders, ages 18–35) clustered around one
//     city so distance-bounded feeds return results, each with a photo and
//     stored preferences.
//  3. Generates likes/passes (~70% likes); every third mutual pair is
//     completed into a match (reciprocal like + match row), matching the
//     policy that like rows survive match creation.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"match_participants", "matches", "likes", "passes", "photos", "preferences", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	genders := []string{GenderMale, GenderFemale, GenderOther}
	now := time.Now().UTC()

	var users []User
	for i := 1; i <= 20; i++ {
		gender := genders[i%len(genders)]
		age := 18 + r.Intn(18) // 18..35
		lat := 28.5 + r.Float64()*0.2
		lng := 77.1 + r.Float64()*0.2
		prefGender := genders[r.Intn(2)]

		user := User{
			ID:           uuid.NewString(),
			Email:        fmt.Sprintf("user%d@example.com", i),
			Name:         fmt.Sprintf("User %d", i),
			Bio:          "Here for the good conversations.",
			Gender:       gender,
			Birthday:     now.AddDate(-age, 0, -r.Intn(300)),
			Lat:          &lat,
			Lng:          &lng,
			LastActiveAt: now.Add(-time.Duration(r.Intn(500)) * time.Minute),
			Photos: []Photo{
				{
					ID:        uuid.NewString(),
					URL:       fmt.Sprintf("https://cdn.example.com/avatars/%d.jpg", i),
					PublicID:  uuid.NewString(),
					SortOrder: 0,
				},
			},
			Preference: &Preference{
				MinAge:     18,
				MaxAge:     35,
				DistanceKm: 5 + r.Intn(26),
				Gender:     &prefGender,
			},
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users.", len(users))

	counter := 0
	for _, actor := range users {
		for j := 0; j < 8; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			liked := r.Intn(100) < 70
			mutual := liked && counter%3 == 0

			if liked {
				like := Like{ID: uuid.NewString(), FromUserID: actor.ID, ToUserID: target.ID}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
			} else {
				pass := Pass{ID: uuid.NewString(), FromUserID: actor.ID, ToUserID: target.ID}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pass).Error; err != nil {
					return fmt.Errorf("failed to seed pass: %w", err)
				}
			}

			if mutual {
				recip := Like{ID: uuid.NewString(), FromUserID: target.ID, ToUserID: actor.ID}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&recip).Error; err != nil {
					return fmt.Errorf("failed to seed reciprocal like: %w", err)
				}
				match := Match{
					ID:      uuid.NewString(),
					PairKey: PairKey(actor.ID, target.ID),
					Participants: []MatchParticipant{
						{UserID: actor.ID},
						{UserID: target.ID},
					},
				}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}

			counter++
		}
	}

	return nil
}
