package contracts

import (
	"time"

	"github.com/google/uuid"
)

// Envelope carries the cross-cutting headers shared by every broker message.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // trace id propagated across services
	Producer      string    `json:"producer,omitempty"`       // producing service, e.g. "tracking-service"
	SentAt        time.Time `json:"sent_at,omitempty"`        // UTC send time
}

// NewEnvelope stamps a fresh envelope for the given producer.
func NewEnvelope(producer string) Envelope {
	return Envelope{
		CorrelationID: uuid.NewString(),
		Producer:      producer,
		SentAt:        time.Now().UTC(),
	}
}

// GeoPoint is the wire form of a coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
