package verification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Issue(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) Consume(ctx context.Context, phone, code string) (bool, error) {
	args := m.Called(ctx, phone, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) CheckRateLimit(ctx context.Context, phone string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, phone, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverLedger(t *testing.T) {
	primary := new(mockLedger)
	fallback := new(mockLedger)
	logger := zerolog.New(io.Discard)
	ledger := NewFailoverLedger(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Issue", ctx, "+79000000001").Return("1234", nil).Once()

		code, err := ledger.Issue(ctx, "+79000000001")
		assert.NoError(t, err)
		assert.Equal(t, "1234", code)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Issue", ctx, "+79000000002").Return("", errors.New("fail")).Once()
		fallback.On("Issue", ctx, "+79000000002").Return("5678", nil).Once()

		code, err := ledger.Issue(ctx, "+79000000002")
		assert.NoError(t, err)
		assert.Equal(t, "5678", code)
		assert.True(t, ledger.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		ledger.isDown.Store(true)
		ledger.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Issue", ctx, "+79000000003").Return("9999", nil).Once()

		code, err := ledger.Issue(ctx, "+79000000003")
		assert.NoError(t, err)
		assert.Equal(t, "9999", code)
		assert.False(t, ledger.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		ledger.isDown.Store(true)
		ledger.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Issue", ctx, "+79000000004").Return("", errors.New("still fail")).Once()
		fallback.On("Issue", ctx, "+79000000004").Return("4321", nil).Once()

		code, err := ledger.Issue(ctx, "+79000000004")
		assert.NoError(t, err)
		assert.Equal(t, "4321", code)
		assert.True(t, ledger.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ConsumeFailover", func(t *testing.T) {
		ledger.isDown.Store(false)
		primary.On("Consume", ctx, "+79000000005", "1111").Return(false, errors.New("fail")).Once()
		fallback.On("Consume", ctx, "+79000000005", "1111").Return(true, nil).Once()

		ok, err := ledger.Consume(ctx, "+79000000005", "1111")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, ledger.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RateLimitAlreadyDown", func(t *testing.T) {
		ledger.isDown.Store(true)
		fallback.On("CheckRateLimit", ctx, "+79000000006", 3, time.Minute).Return(true, nil).Once()

		allowed, err := ledger.CheckRateLimit(ctx, "+79000000006", 3, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
