package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the turn queue
type RequestType string

const (
	// RequestTypeTurn is a player-initiated turn
	RequestTypeTurn RequestType = "turn"

	// RequestTypeHint is a system-generated narration hint, produced by a
	// scene transition and consumed by the next turn's prompt
	RequestTypeHint RequestType = "hint"
)

// Request is a unified entry in the turn queue
type Request struct {
	RequestID  string      `json:"request_id"`
	Type       RequestType `json:"type"`
	CampaignID uuid.UUID   `json:"campaign_id"`

	// Turn-specific fields
	Message    string `json:"message,omitempty"`
	TurnNumber int    `json:"turn_number,omitempty"`

	// Hint-specific fields
	Hint string `json:"hint,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
