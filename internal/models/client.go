package models

import "time"

// Client is a minimal identity keyed by phone number. Clients created by
// the public booking flow get a provisional display name until staff
// edits it.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
