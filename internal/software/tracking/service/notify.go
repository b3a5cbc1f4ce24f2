package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// Notify pushes an arbitrary event to live connections on behalf of an
// admin or another service. Scope decides the audience; the delivered count
// reflects connections, not users.
func (service *trackingService) Notify(ctx context.Context, in ports.NotifyInput) (ports.NotifyResult, error) {
	scope := strings.ToLower(strings.TrimSpace(in.Scope))
	event := strings.TrimSpace(in.Event)
	target := strings.TrimSpace(in.TargetID)

	if event == "" {
		return ports.NotifyResult{}, fmt.Errorf("%w: event is required", ports.ErrInvalidInput)
	}

	var delivered int
	switch scope {
	case "user":
		if target == "" {
			return ports.NotifyResult{}, fmt.Errorf("%w: target_id is required for scope user", ports.ErrInvalidInput)
		}
		delivered = service.hub.SendToUser(ctx, target, event, in.Payload)
	case "organization":
		if target == "" {
			return ports.NotifyResult{}, fmt.Errorf("%w: target_id is required for scope organization", ports.ErrInvalidInput)
		}
		delivered = service.hub.SendToOrganization(ctx, target, event, in.Payload)
	case "broadcast":
		delivered = service.hub.BroadcastAll(ctx, event, in.Payload)
	default:
		return ports.NotifyResult{}, fmt.Errorf("%w: scope must be user, organization or broadcast", ports.ErrInvalidInput)
	}

	service.logger.Info(ctx, "notify_dispatched", "Pushed event to live connections", map[string]any{
		"scope":     scope,
		"event":     event,
		"delivered": delivered,
	})

	return ports.NotifyResult{
		Scope:     scope,
		Delivered: delivered,
		Message:   "notification dispatched",
	}, nil
}
