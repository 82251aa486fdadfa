package models

import "time"

type Service struct {
	ID              int64     `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Description     string    `json:"description" yaml:"description"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	PriceCents      int64     `json:"price_cents" yaml:"price_cents"`
	SortOrder       int64     `json:"sort_order" yaml:"sort_order"`
	IsActive        bool      `json:"is_active" yaml:"is_active"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"-"`
}
