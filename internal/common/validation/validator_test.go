package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-client/internal/common/errors"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type listFlags struct {
	Category   string `json:"category" validate:"category"`
	Visibility string `json:"visibility" validate:"visibility"`
	From       string `json:"from" validate:"iso_date"`
	Page       int    `json:"page" validate:"min=1"`
}

func TestStruct(t *testing.T) {
	v := New()

	t.Run("valid credentials", func(t *testing.T) {
		assert.NoError(t, v.Struct(credentials{Email: "a@example.com", Password: "x"}))
	})

	t.Run("single failure uses json name", func(t *testing.T) {
		err := v.Struct(credentials{Email: "not-an-email", Password: "x"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
		assert.Equal(t, "email must be a valid email address", errors.UserMessage(err))
	})

	t.Run("multiple failures are joined", func(t *testing.T) {
		err := v.Struct(credentials{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email is required")
		assert.Contains(t, err.Error(), "password is required")
	})
}

func TestCustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		flags listFlags
		field string
	}{
		{"valid", listFlags{Category: "All", Visibility: "public", From: "2025-07-01", Page: 1}, ""},
		{"empty optional", listFlags{Page: 1}, ""},
		{"category case-insensitive", listFlags{Category: "RAVE", Page: 1}, ""},
		{"unknown category", listFlags{Category: "karaoke", Page: 1}, "category"},
		{"unknown visibility", listFlags{Visibility: "friends", Page: 1}, "visibility"},
		{"impossible date", listFlags{From: "2025-02-30", Page: 1}, "from"},
		{"page zero", listFlags{Page: 0}, "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := v.Fields(tt.flags)
			if tt.field == "" {
				assert.Empty(t, fields)
				return
			}
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestVarCronSchedule(t *testing.T) {
	v := Default()

	assert.NoError(t, v.Var("@every 30s", "cron_schedule"))
	assert.NoError(t, v.Var("*/5 * * * *", "cron_schedule"))

	err := v.Var("every minute", "cron_schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid cron schedule")
}

func TestVarMonth(t *testing.T) {
	v := Default()

	assert.NoError(t, v.Var("2025-07", "month"))
	assert.NoError(t, v.Var("", "month"))

	err := v.Var("July 2025", "month")
	require.Error(t, err)
	assert.Equal(t, "value must be a month in YYYY-MM form", errors.UserMessage(err))
}
