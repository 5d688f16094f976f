package models

import "time"

// Profile groups accounts (e.g. "Volunteer", "Coordinator"). Every account
// belongs to exactly one profile.
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category is a filter dimension for requests.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
