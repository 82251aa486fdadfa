package domain

import (
	"context"
	"time"

	"zapis/internal/models"
)

// Repository is the storage port for the scheduling engine. The sqlite
// implementation lives in internal/database.
type Repository interface {
	// Recurring weekly schedule
	GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error)
	UpsertWeekday(ctx context.Context, weekday int, day models.DaySchedule) error

	// Date-keyed exceptions
	GetException(ctx context.Context, date string) (*models.ScheduleException, error)
	UpsertException(ctx context.Context, exc *models.ScheduleException) error
	DeleteException(ctx context.Context, date string) error
	ListExceptions(ctx context.Context, from, to string) ([]models.ScheduleException, error)

	// Appointments
	CreateAppointmentGuarded(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	GetAppointmentsForDay(ctx context.Context, date time.Time) ([]models.Appointment, error)
	GetAppointmentsByRange(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	UpdateAppointmentStatusWithVersion(ctx context.Context, id, version int64, status string) error

	// Clients
	GetClientByPhone(ctx context.Context, phone string) (*models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error

	// Service catalog (read-mostly reference data)
	GetServiceByID(ctx context.Context, id int64) (*models.Service, error)
	GetActiveServices(ctx context.Context) ([]models.Service, error)
}

// CodeLedger is the verification-credential store: short-lived
// (phone, code) tuples with TTL and single-use consumption. It carries
// no business semantics.
type CodeLedger interface {
	Issue(ctx context.Context, phone string) (string, error)
	Consume(ctx context.Context, phone, code string) (bool, error)
	CheckRateLimit(ctx context.Context, phone string, limit int, window time.Duration) (bool, error)
}

// SMSSender dispatches a verification code to a phone. Fire-and-forget:
// no delivery confirmation is modeled, only the submit outcome.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// EventPublisher fans out domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors appointments into the owner's spreadsheet.
type SheetsWriter interface {
	UpsertAppointment(ctx context.Context, appt *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status string) error
	ReplaceAppointmentsSheet(ctx context.Context, appts []models.Appointment) error
}

// SyncEnqueuer schedules sheet-sync work without blocking the caller.
type SyncEnqueuer interface {
	EnqueueUpsert(ctx context.Context, appt *models.Appointment) error
	EnqueueStatusUpdate(ctx context.Context, appointmentID int64, status string) error
}
