package verification

import (
	"context"
	"sync/atomic"
	"time"

	"zapis/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLedger переключается на запасное хранилище при отказе
// основного и пробует восстановиться не чаще раза в минуту.
type FailoverLedger struct {
	primary   domain.CodeLedger
	fallback  domain.CodeLedger
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverLedger(primary, fallback domain.CodeLedger, logger *zerolog.Logger) *FailoverLedger {
	return &FailoverLedger{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverLedger) Issue(ctx context.Context, phone string) (string, error) {
	if !f.isDown.Load() {
		code, err := f.primary.Issue(ctx, phone)
		if err == nil {
			return code, nil
		}
		f.logger.Error().Err(err).Msg("Primary code ledger failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	// Пробуем вернуться на основное хранилище через минуту
	if f.isDown.Load() && time.Since(f.lastCheck) > time.Minute {
		code, err := f.primary.Issue(ctx, phone)
		if err == nil {
			f.isDown.Store(false)
			return code, nil
		}
		f.lastCheck = time.Now()
	}

	return f.fallback.Issue(ctx, phone)
}

func (f *FailoverLedger) Consume(ctx context.Context, phone, code string) (bool, error) {
	if !f.isDown.Load() {
		ok, err := f.primary.Consume(ctx, phone, code)
		if err == nil {
			return ok, nil
		}
		f.logger.Error().Err(err).Msg("Primary code ledger failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	return f.fallback.Consume(ctx, phone, code)
}

func (f *FailoverLedger) CheckRateLimit(ctx context.Context, phone string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		allowed, err := f.primary.CheckRateLimit(ctx, phone, limit, window)
		if err == nil {
			return allowed, nil
		}
		f.logger.Error().Err(err).Msg("Primary code ledger failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	return f.fallback.CheckRateLimit(ctx, phone, limit, window)
}
