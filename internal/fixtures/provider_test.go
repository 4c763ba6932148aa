package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-client/internal/calendar"
	"events-client/internal/mapper"
	"events-client/internal/models"
)

func newProvider() (*Static, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC))
	return NewStatic(mock, mapper.New(mapper.Config{APIOrigin: "https://api.example.com"}, nil)), mock
}

func TestNotifications(t *testing.T) {
	p, mock := newProvider()
	ctx := context.Background()

	all, err := p.Notifications(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, len(notificationSeeds))

	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "newest first")
	}
	assert.Equal(t, mock.Now().Add(-time.Hour), all[0].CreatedAt)

	_, err = uuid.Parse(all[0].ID)
	assert.NoError(t, err)

	again, err := p.Notifications(ctx, 2)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, all[0].ID, again[0].ID, "ids are stable")

	unread, err := p.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)
}

func TestSampleEvents(t *testing.T) {
	p, _ := newProvider()

	sample, err := p.SampleEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, sample, len(eventSeeds))

	for _, ev := range sample {
		assert.False(t, ev.Degraded(), "fixture %q should map cleanly: %v", ev.Title, ev.Issues)
		assert.Equal(t, mapper.DefaultPlaceholder, ev.BannerURL)
	}

	assert.Equal(t, "2025-07-15", sample[0].StartDate.String())
	assert.Equal(t, 15.0, sample[0].Price)
	assert.Equal(t, models.VisibilityPrivate, sample[2].Visibility)

	// the rave runs overnight into the next day
	idx := calendar.Bucket(sample)
	assert.True(t, idx.HasEvents(models.MustParseDate("2025-07-17")))
	assert.True(t, idx.HasEvents(models.MustParseDate("2025-07-18")))
}

func TestCanceledContext(t *testing.T) {
	p, _ := newProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Notifications(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.SampleEvents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
