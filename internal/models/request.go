package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a help request.
type Status string

// Status constants
const (
	StatusDraft     Status = "draft"
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusOpen, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus parses a status case-insensitively.
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

// CanTransitionTo reports whether a request may move from s to next.
// The lifecycle only moves forward: draft -> open -> completed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return s.Valid()
	}
	switch s {
	case StatusDraft:
		return next == StatusOpen
	case StatusOpen:
		return next == StatusCompleted
	default:
		return false
	}
}

// Request is a help request published by a PIN account.
type Request struct {
	ID             int64     `json:"id"`
	PinID          int64     `json:"pin_id"`
	CategoryID     int64     `json:"category_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         Status    `json:"status"`
	ViewCount      int64     `json:"view_count"`
	ShortlistCount int64     `json:"shortlist_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Non-DB field, populated via JOIN for display
	CategoryName string `json:"category_name,omitempty"`
}

// IsOwnedBy returns true if accountID created the request.
func (r *Request) IsOwnedBy(accountID int64) bool {
	return r.PinID == accountID
}

// IsCompleted returns true once the request reached its final state.
func (r *Request) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// RequestFilter narrows request searches. Nil pointers mean "any".
type RequestFilter struct {
	PinID      *int64
	Title      string // case-insensitive substring
	Status     *Status
	CategoryID *int64
	From       *time.Time // created_at >= From
	To         *time.Time // created_at < To
	Page       PageRequest
}

// StatusCounts maps each status to a number of requests.
type StatusCounts map[Status]int

// Total sums every status.
func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
