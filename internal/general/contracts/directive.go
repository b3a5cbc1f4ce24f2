package contracts

// DirectiveMessage asks the tracking service to push an event to live
// connections on behalf of another service.
// Routing key: "tracking.directive.{scope}" on ExchangeTrackingTopic,
// consumed from QueueTrackingDirectives.
type DirectiveMessage struct {
	Scope    string         `json:"scope"` // user|organization|broadcast
	TargetID string         `json:"target_id,omitempty"`
	Event    string         `json:"event"`
	Payload  map[string]any `json:"payload,omitempty"`
	Envelope
}
