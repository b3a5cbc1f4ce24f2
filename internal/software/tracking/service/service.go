package service

import (
	"context"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/rabbitmq"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// trackingService holds all dependencies required by the Tracking service.
// The hub owns the live state; this layer adapts it for HTTP and the broker.
type trackingService struct {
	logger   *logger.Logger
	hub      *realtime.Hub
	jwtMgr   *jwt.Manager
	rabbitmq *rabbitmq.Client
	prefetch int
}

// NewTrackingService constructs the service with required dependencies.
// prefetch bounds unacked deliveries on consumer channels.
func NewTrackingService(
	logger *logger.Logger,
	hub *realtime.Hub,
	jwtMgr *jwt.Manager,
	mq *rabbitmq.Client,
	prefetch int,
) ports.TrackingService {
	if prefetch <= 0 {
		prefetch = 10
	}
	return &trackingService{
		logger:   logger,
		hub:      hub,
		jwtMgr:   jwtMgr,
		rabbitmq: mq,
		prefetch: prefetch,
	}
}

// Health reports liveness plus the hub's live counters.
func (service *trackingService) Health(_ context.Context) ports.HealthResult {
	return ports.HealthResult{
		Status:    "healthy",
		Service:   "tracking-service",
		Timestamp: time.Now().UTC(),
		Stats:     service.hub.Stats(),
	}
}
