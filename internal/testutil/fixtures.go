package testutil

import (
	"fmt"

	"events-client/internal/models"
)

// TestUser is an account known to the fake API
type TestUser struct {
	Password string
	Profile  models.RawUser
}

// TestFixtures provides common test data
type TestFixtures struct {
	Users  []TestUser
	Events []models.RawEvent
}

// Fixture credentials
const (
	TestEmail    = "alice@example.com"
	TestPassword = "correct-horse"
	AdminEmail   = "admin@example.com"
)

// NewTestFixtures creates a new set of test fixtures: two users and twelve
// July 2025 events spread over the categories, two of them private.
func NewTestFixtures() *TestFixtures {
	categories := []models.Category{
		models.CategoryClubbing, models.CategoryRave, models.CategoryBirthday,
		models.CategoryWedding, models.CategoryFood, models.CategorySport,
	}

	events := make([]models.RawEvent, 0, 12)
	for i := 0; i < 12; i++ {
		day := 1 + i*2
		b := NewRawEventBuilder().
			WithID(fmt.Sprintf("evt-%02d", i+1)).
			WithTitle(fmt.Sprintf("Event %02d", i+1)).
			WithDates(fmt.Sprintf("2025-07-%02d", day), fmt.Sprintf("2025-07-%02d", day+i%2)).
			WithType(categories[i%len(categories)]).
			WithPhotos(fmt.Sprintf("event-%02d.jpg", i+1))
		if i%5 == 4 {
			b.WithVisibility(models.VisibilityPrivate)
		}
		events = append(events, b.Build())
	}

	return &TestFixtures{
		Users: []TestUser{
			{
				Password: TestPassword,
				Profile: models.RawUser{
					ID:    "user-1",
					Name:  "Alice",
					Email: TestEmail,
					Role:  models.RoleUser,
				},
			},
			{
				Password: TestPassword,
				Profile: models.RawUser{
					ID:    "user-2",
					Name:  "Admin",
					Email: AdminEmail,
					Role:  models.RoleAdmin,
				},
			},
		},
		Events: events,
	}
}
