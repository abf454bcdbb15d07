// Package notify carries Anchored notifications from the anchor service to
// downstream observers through an in-process queue.
//
// The service publishes exactly one event per newly anchored digest. The Bus
// decouples it from consumers: sinks run on the Bus goroutine, so a slow
// webhook never holds the registry writer.
package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

// EventAnchored is the only event type emitted by the registry.
const EventAnchored = "anchor.anchored"

// Event is the Anchored notification.
type Event struct {
	ID         uuid.UUID     `json:"id"`
	Type       string        `json:"type"`
	Submitter  string        `json:"submitter"`
	DataHash   digest.Digest `json:"data_hash"`
	Ordinal    uint64        `json:"ordinal"`
	ObservedAt time.Time     `json:"observed_at"`
}

// NewAnchoredEvent builds the notification for rec.
func NewAnchoredEvent(rec model.Record) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventAnchored,
		Submitter:  rec.Submitter,
		DataHash:   rec.Hash,
		Ordinal:    rec.Ordinal,
		ObservedAt: rec.ObservedAt,
	}
}
