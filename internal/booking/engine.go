package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/domain"
	"zapis/internal/events"
	"zapis/internal/metrics"
	"zapis/internal/models"
	"zapis/internal/schedule"
	"zapis/internal/timeutil"

	"github.com/rs/zerolog"
)

// Slot is one bookable start time offered to a client.
type Slot struct {
	StartsAt time.Time `json:"starts_at"`
	Clock    string    `json:"clock"`
}

// Engine is the application facade: slot listing, the verified public
// booking flow, and the staff-side schedule and appointment operations.
type Engine struct {
	repo     domain.Repository
	ledger   domain.CodeLedger
	sms      domain.SMSSender
	eventBus domain.EventPublisher
	syncer   domain.SyncEnqueuer
	cfg      config.BookingConfig
	loc      *time.Location
	logger   *zerolog.Logger
}

func NewEngine(repo domain.Repository, ledger domain.CodeLedger, sms domain.SMSSender, eventBus domain.EventPublisher, syncer domain.SyncEnqueuer, cfg config.BookingConfig, loc *time.Location, logger *zerolog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		repo:     repo,
		ledger:   ledger,
		sms:      sms,
		eventBus: eventBus,
		syncer:   syncer,
		cfg:      cfg,
		loc:      loc,
		logger:   logger,
	}
}

// ListAvailableSlots returns the offered start times for a date and
// service: schedule candidates minus everything the service duration
// would collide with. For today, past candidates are dropped.
func (e *Engine) ListAvailableSlots(ctx context.Context, date string, serviceID int64) ([]Slot, error) {
	svc, err := e.resolveService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	day, err := timeutil.ParseDate(date, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	now := time.Now().In(e.loc)
	if day.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)) {
		return nil, ErrPastSlot
	}
	if e.cfg.MaxAdvanceDays > 0 && day.After(now.AddDate(0, 0, e.cfg.MaxAdvanceDays)) {
		return nil, ErrDateTooFar
	}

	metrics.IncSlotsRequested()

	daySchedule, err := resolveDay(ctx, e.repo, day)
	if err != nil {
		return nil, err
	}

	notBefore := 0
	if timeutil.SameDate(day, now) {
		notBefore = timeutil.MinuteOfDay(now) + 1
	}

	candidates := schedule.GenerateSlots(daySchedule, e.cfg.GranularityMinutes, notBefore)
	if len(candidates) == 0 {
		return []Slot{}, nil
	}

	appts, err := e.repo.GetAppointmentsForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	slots := make([]Slot, 0, len(candidates))
	for _, minute := range candidates {
		start := timeutil.At(day, minute, e.loc)
		if schedule.HasConflict(start, svc.DurationMinutes, appts) {
			continue
		}
		slots = append(slots, Slot{StartsAt: start, Clock: models.FormatClock(minute)})
	}

	return slots, nil
}

// SendVerificationCode starts a booking attempt: throttle per phone,
// issue a code, dispatch it over SMS.
func (e *Engine) SendVerificationCode(ctx context.Context, phone string) error {
	allowed, err := e.ledger.CheckRateLimit(ctx, phone, e.cfg.SendLimit, e.cfg.SendWindow())
	if err != nil {
		return fmt.Errorf("failed to check send limit: %w", err)
	}
	if !allowed {
		return ErrRateLimited
	}

	attempt := NewAttempt(e.repo, e.ledger, e.sms, e.cfg, e.loc, e.logger, phone)
	if err := attempt.SendCode(ctx); err != nil {
		return err
	}

	metrics.IncCodeIssued()
	e.logger.Info().Str("phone", phone).Msg("verification code sent")
	return nil
}

// VerifyAndBook finishes a booking attempt: consume the code, then
// commit the appointment. date is the business-local calendar date,
// slot the HH:MM start.
func (e *Engine) VerifyAndBook(ctx context.Context, phone, code string, serviceID int64, date, slot, notes string) (*models.Appointment, error) {
	day, err := timeutil.ParseDate(date, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	minute, err := models.ParseClock(slot)
	if err != nil {
		return nil, fmt.Errorf("invalid slot %q: %w", slot, err)
	}

	attempt := ResumeAttempt(e.repo, e.ledger, e.sms, e.cfg, e.loc, e.logger, phone)
	if err := attempt.Verify(ctx, code); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			metrics.IncCodeConsumed("rejected")
		}
		return nil, err
	}
	metrics.IncCodeConsumed("ok")

	appt, err := attempt.Commit(ctx, serviceID, timeutil.At(day, minute, e.loc), notes)
	if err != nil {
		if errors.Is(err, ErrSlotNoLongerAvailable) {
			metrics.IncBooking("conflict")
		} else {
			metrics.IncBooking("error")
		}
		return nil, err
	}
	metrics.IncBooking("committed")

	e.publishEvent(events.EventAppointmentBooked, appt, "public")
	e.enqueueUpsert(ctx, appt)

	e.logger.Info().
		Int64("appointment_id", appt.ID).
		Str("service", appt.ServiceName).
		Time("starts_at", appt.StartsAt).
		Msg("appointment booked")
	return appt, nil
}

// CreateAppointment books a slot on behalf of staff, without the
// verification protocol. The same schedule and overlap rules apply.
func (e *Engine) CreateAppointment(ctx context.Context, phone string, serviceID int64, date, slot, notes string) (*models.Appointment, error) {
	day, err := timeutil.ParseDate(date, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	minute, err := models.ParseClock(slot)
	if err != nil {
		return nil, fmt.Errorf("invalid slot %q: %w", slot, err)
	}

	attempt := NewAttempt(e.repo, e.ledger, e.sms, e.cfg, e.loc, e.logger, phone)
	attempt.state = StateVerified

	appt, err := attempt.Commit(ctx, serviceID, timeutil.At(day, minute, e.loc), notes)
	if err != nil {
		return nil, err
	}

	e.publishEvent(events.EventAppointmentBooked, appt, "staff")
	e.enqueueUpsert(ctx, appt)
	return appt, nil
}

// UpdateAppointmentStatus transitions an appointment with optimistic
// locking and fans the change out to subscribers and the sheet sync.
func (e *Engine) UpdateAppointmentStatus(ctx context.Context, id, version int64, status string) (*models.Appointment, error) {
	if err := e.repo.UpdateAppointmentStatusWithVersion(ctx, id, version, status); err != nil {
		return nil, err
	}

	appt, err := e.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.StatusCancelled:
		e.publishEvent(events.EventAppointmentCancelled, appt, "staff")
	case models.StatusCompleted:
		e.publishEvent(events.EventAppointmentCompleted, appt, "staff")
	case models.StatusPaid:
		e.publishEvent(events.EventAppointmentPaid, appt, "staff")
	}

	if e.syncer != nil {
		if err := e.syncer.EnqueueStatusUpdate(ctx, appt.ID, status); err != nil {
			e.logger.Error().Err(err).Int64("appointment_id", appt.ID).Msg("failed to enqueue status sync")
		}
	}

	return appt, nil
}

// GetAppointments returns appointments in the inclusive date range
// [from, to], both business-local calendar dates.
func (e *Engine) GetAppointments(ctx context.Context, from, to string) ([]models.Appointment, error) {
	start, err := timeutil.ParseDate(from, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", from, err)
	}
	end, err := timeutil.ParseDate(to, e.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s before start %s", to, from)
	}

	return e.repo.GetAppointmentsByRange(ctx, start, end.AddDate(0, 0, 1))
}

func (e *Engine) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	return e.repo.GetAppointment(ctx, id)
}

func (e *Engine) GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error) {
	return e.repo.GetWeeklySchedule(ctx)
}

func (e *Engine) UpsertWeekday(ctx context.Context, weekday int, day models.DaySchedule) error {
	return e.repo.UpsertWeekday(ctx, weekday, day)
}

func (e *Engine) GetException(ctx context.Context, date string) (*models.ScheduleException, error) {
	return e.repo.GetException(ctx, date)
}

func (e *Engine) UpsertException(ctx context.Context, exc *models.ScheduleException) error {
	return e.repo.UpsertException(ctx, exc)
}

// UpsertExceptionRange materializes one exception record for each day
// in the inclusive [from, to] range.
func (e *Engine) UpsertExceptionRange(ctx context.Context, from, to string, day models.DaySchedule) (int, error) {
	start, err := timeutil.ParseDate(from, e.loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", from, err)
	}
	end, err := timeutil.ParseDate(to, e.loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", to, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("range end %s before start %s", to, from)
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		exc := &models.ScheduleException{
			Date:        d.Format(models.DateLayout),
			DaySchedule: day,
		}
		if err := e.repo.UpsertException(ctx, exc); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (e *Engine) DeleteException(ctx context.Context, date string) error {
	return e.repo.DeleteException(ctx, date)
}

func (e *Engine) ListExceptions(ctx context.Context, from, to string) ([]models.ScheduleException, error) {
	return e.repo.ListExceptions(ctx, from, to)
}

func (e *Engine) GetActiveServices(ctx context.Context) ([]models.Service, error) {
	return e.repo.GetActiveServices(ctx)
}

func (e *Engine) resolveService(ctx context.Context, serviceID int64) (*models.Service, error) {
	svc, err := e.repo.GetServiceByID(ctx, serviceID)
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

func (e *Engine) publishEvent(eventType string, appt *models.Appointment, source string) {
	if e.eventBus == nil {
		return
	}
	payload := events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		PublicID:      appt.PublicID,
		ClientName:    appt.ClientName,
		Phone:         appt.Phone,
		ServiceID:     appt.ServiceID,
		ServiceName:   appt.ServiceName,
		StartsAt:      appt.StartsAt,
		Duration:      appt.DurationMinutes,
		Status:        appt.Status,
		Source:        source,
	}
	if err := e.eventBus.PublishJSON(eventType, payload); err != nil {
		e.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func (e *Engine) enqueueUpsert(ctx context.Context, appt *models.Appointment) {
	if e.syncer == nil {
		return
	}
	if err := e.syncer.EnqueueUpsert(ctx, appt); err != nil {
		e.logger.Error().Err(err).Int64("appointment_id", appt.ID).Msg("failed to enqueue sheet sync")
	}
}
