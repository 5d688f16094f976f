package models

import "time"

// Shortlist is a reviewer's bookmark of a request, unique per (reviewer, request).
type Shortlist struct {
	ID        int64     `json:"id"`
	CSRID     int64     `json:"csr_id"`
	RequestID int64     `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortlistFilter narrows a reviewer's shortlist.
type ShortlistFilter struct {
	CSRID      int64
	CategoryID *int64
	Page       PageRequest
}

// MatchRecord is an append-only record of a completed reviewer/request pairing.
type MatchRecord struct {
	ID         int64     `json:"id"`
	CSRID      int64     `json:"csr_id"`
	RequestID  int64     `json:"request_id"`
	CategoryID int64     `json:"category_id"`
	MatchedAt  time.Time `json:"matched_at"`

	// Non-DB fields, populated via JOIN for display
	RequestTitle string `json:"request_title,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	PinID        int64  `json:"pin_id,omitempty"`
	CSRName      string `json:"csr_name,omitempty"`
}

// MatchFilter narrows match history. Exactly one of CSRID or PinID scopes it.
type MatchFilter struct {
	CSRID      *int64
	PinID      *int64
	CategoryID *int64
	From       *time.Time // matched_at >= From
	To         *time.Time // matched_at < To
	Page       PageRequest
}

// ReviewerStats holds the CSR dashboard counters.
type ReviewerStats struct {
	OpenRequests int `json:"open_requests_count"`
	Shortlisted  int `json:"shortlist_count"`
	Matches      int `json:"matches_count"`
}
