package contracts

// Broker topology names, declared by the rabbitmq package on connect and
// shared here so publishers and consumers agree on one vocabulary.
const (
	// exchanges
	ExchangeLocationFanout = "location_fanout"
	ExchangeTrackingTopic  = "tracking_topic"
	ExchangeEmergencyTopic = "emergency_topic"

	// queues
	QueueTrackingDirectives = "tracking_directives"
)

// Routing key prefixes. The braces document the suffix publishers append.
const (
	RouteTrackingStatusPrefix    = "tracking.status."    // {user_id}
	RouteTrackingDirectivePrefix = "tracking.directive." // {scope}
	RouteEmergencyPrefix         = "emergency."          // {priority}
)
