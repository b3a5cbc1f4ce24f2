package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type notifyRequest struct {
	Scope    string         `json:"scope"` // user | organization | broadcast
	TargetID string         `json:"target_id"`
	Event    string         `json:"event"`
	Payload  map[string]any `json:"payload"`
}

// ----- Handler: POST /admin/notify -----

func (handler *TrackingHTTPHandler) handleNotify(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	// limit body size
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// decode strictly
	var req notifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	// obtain the JWT claims
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// admins push inside their own organization; broadcast stays SUPER_ADMIN
	scope := strings.ToLower(strings.TrimSpace(req.Scope))
	if claims.Role.IsAdmin() {
		if scope == "broadcast" {
			handler.httpError(ctx, w, http.StatusForbidden, "broadcast requires SUPER_ADMIN", errors.New("scope violation"))
			return
		}
		if scope == "organization" && strings.TrimSpace(req.TargetID) != claims.OrganizationID {
			handler.httpError(ctx, w, http.StatusForbidden, "organization mismatch", errors.New("org scope violation"))
			return
		}
	}

	result, err := handler.svc.Notify(ctx, ports.NotifyInput{
		Scope:    req.Scope,
		TargetID: req.TargetID,
		Event:    req.Event,
		Payload:  req.Payload,
	})
	if err != nil {
		handler.serviceError(ctx, w, "failed to dispatch notification", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
