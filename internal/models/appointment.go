package models

import "time"

type Appointment struct {
	ID              int64     `json:"id"`
	PublicID        string    `json:"public_id"`
	ClientID        int64     `json:"client_id"`
	ClientName      string    `json:"client_name"`
	Phone           string    `json:"phone"`
	ServiceID       int64     `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"` // snapshot from the service at booking time
	PriceCents      int64     `json:"price_cents"`      // snapshot from the service at booking time
	Status          string    `json:"status"`           // scheduled, completed, paid, cancelled
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// EndsAt returns the exclusive end of the appointment interval.
func (a *Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}
