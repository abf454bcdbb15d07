package webhooks

import (
	"time"

	"github.com/google/uuid"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Anchor-Signature"

// EventHeader carries the event type.
const EventHeader = "X-Anchor-Event"

// Target is a configured webhook receiver.
type Target struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"-"` // HMAC key; never echoed
}

// Delivery records the outcome of a single delivery attempt.
type Delivery struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	URL          string    `json:"url"`
	StatusCode   int       `json:"status_code"`
	Attempt      int       `json:"attempt"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message"`
	DeliveredAt  time.Time `json:"delivered_at"`
}
