// Package booking implements the public booking protocol and the
// facade the HTTP layer talks to. The protocol is a single-use state
// machine per attempt: INIT -> CODE_SENT -> VERIFIED -> COMMITTED,
// with FAILED reachable from every non-terminal state.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/domain"
	"zapis/internal/models"
	"zapis/internal/schedule"
	"zapis/internal/timeutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type State string

const (
	StateInit      State = "INIT"
	StateCodeSent  State = "CODE_SENT"
	StateVerified  State = "VERIFIED"
	StateCommitted State = "COMMITTED"
	StateFailed    State = "FAILED"
)

// Coordinator drives one booking attempt for one phone number. HTTP
// requests are stateless, so an attempt that already has a code in the
// ledger is resumed in CODE_SENT rather than replayed from INIT.
type Coordinator struct {
	repo   domain.Repository
	ledger domain.CodeLedger
	sms    domain.SMSSender
	cfg    config.BookingConfig
	loc    *time.Location
	logger *zerolog.Logger

	phone string
	state State
}

func NewAttempt(repo domain.Repository, ledger domain.CodeLedger, sms domain.SMSSender, cfg config.BookingConfig, loc *time.Location, logger *zerolog.Logger, phone string) *Coordinator {
	return &Coordinator{
		repo:   repo,
		ledger: ledger,
		sms:    sms,
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		phone:  phone,
		state:  StateInit,
	}
}

// ResumeAttempt picks up an attempt whose code was issued by an earlier
// request.
func ResumeAttempt(repo domain.Repository, ledger domain.CodeLedger, sms domain.SMSSender, cfg config.BookingConfig, loc *time.Location, logger *zerolog.Logger, phone string) *Coordinator {
	c := NewAttempt(repo, ledger, sms, cfg, loc, logger, phone)
	c.state = StateCodeSent
	return c
}

func (c *Coordinator) State() State { return c.state }

// SendCode issues a verification code and dispatches it. A dispatch
// failure is terminal for the attempt: the issued code stays in the
// ledger but the client never saw it, so a fresh attempt reissues.
func (c *Coordinator) SendCode(ctx context.Context) error {
	if c.state != StateInit {
		return fmt.Errorf("%w: sendCode from %s", ErrProtocolState, c.state)
	}

	code, err := c.ledger.Issue(ctx, c.phone)
	if err != nil {
		c.state = StateFailed
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	if err := c.sms.SendCode(ctx, c.phone, code); err != nil {
		c.state = StateFailed
		c.logger.Error().Err(err).Str("phone", c.phone).Msg("SMS dispatch failed")
		return ErrUnreachableChannel
	}

	c.state = StateCodeSent
	return nil
}

// Verify consumes the code on success. A mismatch leaves the attempt in
// CODE_SENT so the caller may retry without a new code.
func (c *Coordinator) Verify(ctx context.Context, code string) error {
	if c.state != StateCodeSent {
		return fmt.Errorf("%w: verify from %s", ErrProtocolState, c.state)
	}

	ok, err := c.ledger.Consume(ctx, c.phone, code)
	if err != nil {
		return fmt.Errorf("failed to check verification code: %w", err)
	}
	if !ok {
		return ErrInvalidOrExpiredCode
	}

	c.state = StateVerified
	return nil
}

// Commit books the slot. The client is resolved or created by phone,
// duration and price are snapshotted from the service, and the insert
// re-checks overlaps inside a transaction, so a lost race surfaces as
// ErrSlotNoLongerAvailable instead of a double booking.
func (c *Coordinator) Commit(ctx context.Context, serviceID int64, startsAt time.Time, notes string) (*models.Appointment, error) {
	if c.state != StateVerified {
		return nil, fmt.Errorf("%w: commit from %s", ErrProtocolState, c.state)
	}

	svc, err := c.resolveService(ctx, serviceID)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}

	if err := c.validateSlot(ctx, startsAt); err != nil {
		c.state = StateFailed
		return nil, err
	}

	client, err := c.resolveClient(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}

	appt := &models.Appointment{
		PublicID:        uuid.New().String(),
		ClientID:        client.ID,
		ClientName:      client.Name,
		Phone:           client.Phone,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		StartsAt:        startsAt,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		Status:          models.StatusScheduled,
		Notes:           notes,
	}

	if err := c.repo.CreateAppointmentGuarded(ctx, appt); err != nil {
		c.state = StateFailed
		if errors.Is(err, database.ErrSlotTaken) {
			return nil, ErrSlotNoLongerAvailable
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	c.state = StateCommitted
	return appt, nil
}

func (c *Coordinator) resolveService(ctx context.Context, serviceID int64) (*models.Service, error) {
	svc, err := c.repo.GetServiceByID(ctx, serviceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnknownService
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if !svc.IsActive {
		return nil, ErrUnknownService
	}
	return svc, nil
}

// validateSlot re-derives the offered slots for the date and rejects
// anything outside the schedule or the booking window before any
// write. Overlap against existing appointments is checked inside the
// insert transaction, not here.
func (c *Coordinator) validateSlot(ctx context.Context, startsAt time.Time) error {
	now := time.Now().In(c.loc)
	if startsAt.Before(now) {
		return ErrPastSlot
	}
	if c.cfg.MaxAdvanceDays > 0 && startsAt.After(now.AddDate(0, 0, c.cfg.MaxAdvanceDays)) {
		return ErrDateTooFar
	}

	local := startsAt.In(c.loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)

	day, err := resolveDay(ctx, c.repo, date)
	if err != nil {
		return err
	}

	minute := timeutil.MinuteOfDay(local)
	offered := false
	for _, slot := range schedule.GenerateSlots(day, c.cfg.GranularityMinutes, 0) {
		if slot == minute {
			offered = true
			break
		}
	}
	if !offered {
		return ErrSlotNotOffered
	}

	return nil
}

func (c *Coordinator) resolveClient(ctx context.Context) (*models.Client, error) {
	client, err := c.repo.GetClientByPhone(ctx, c.phone)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	client = &models.Client{
		Name:  models.ProvisionalClientName,
		Phone: c.phone,
	}
	if err := c.repo.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// resolveDay loads the effective schedule for a date: the exception, if
// present, supersedes the weekday entry verbatim.
func resolveDay(ctx context.Context, repo domain.Repository, date time.Time) (models.DaySchedule, error) {
	exc, err := repo.GetException(ctx, date.Format(models.DateLayout))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return models.DaySchedule{}, fmt.Errorf("failed to get exception: %w", err)
	}

	var weekly models.WeeklySchedule
	if exc == nil {
		weekly, err = repo.GetWeeklySchedule(ctx)
		if err != nil {
			return models.DaySchedule{}, fmt.Errorf("failed to get weekly schedule: %w", err)
		}
	}

	return schedule.ResolveDay(weekly, exc, timeutil.Weekday(date)), nil
}
