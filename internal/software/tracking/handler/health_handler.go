package handler

import (
	"net/http"
)

// ----- Handler: GET /tracking/health -----

// handleHealth returns liveness plus the hub's live counters.
func (handler *TrackingHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	w.Header().Set("Cache-Control", "no-store")
	handler.jsonResponse(ctx, w, http.StatusOK, handler.svc.Health(ctx))
}
