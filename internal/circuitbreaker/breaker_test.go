package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "events-client/internal/common/errors"
	"events-client/internal/common/logging"
)

func testConfig() Config {
	return Config{
		MaxFailures:           2,
		Timeout:               50 * time.Millisecond,
		MaxConcurrentRequests: 1,
		Interval:              time.Minute,
	}
}

func TestBreaker_OpensOnServerFailures(t *testing.T) {
	cb := New("api", testConfig(), logging.NewNopLogger())
	assert.Equal(t, StateClosed, cb.State())

	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), func() error {
			return apperrors.ServerError("upstream down").WithStatus(503)
		})
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error {
		t.Fatal("should not be called while open")
		return nil
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	assert.Equal(t, apperrors.MsgNetwork, apperrors.UserMessage(err))
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	cb := New("api", testConfig(), logging.NewNopLogger())

	clientErrors := []error{
		apperrors.SessionExpiredError(nil),
		apperrors.PermissionError(""),
		apperrors.ValidationError("bad page"),
		apperrors.ServerError("conflict").WithStatus(409),
		context.Canceled,
	}
	for _, clientErr := range clientErrors {
		for i := 0; i < 3; i++ {
			_ = cb.Execute(context.Background(), func() error { return clientErr })
		}
		assert.Equal(t, StateClosed, cb.State(), clientErr.Error())
	}
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New("api", testConfig(), logging.NewNopLogger())

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func() error {
			return apperrors.NetworkError(errors.New("connection refused"))
		})
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_CanceledContext(t *testing.T) {
	cb := New("api", testConfig(), logging.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func() error {
		t.Fatal("should not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfigUsesDefaults(t *testing.T) {
	cb := New("api", Config{}, logging.NewNopLogger())
	assert.Equal(t, "api", cb.Name())
	assert.Equal(t, StateClosed, cb.State())
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, DefaultConfig().Validate())
}
