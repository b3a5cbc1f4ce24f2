package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/websocket"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// TrackingHTTPHandler adapts HTTP requests to the TrackingService.
type TrackingHTTPHandler struct {
	svc       ports.TrackingService
	logger    *logger.Logger
	auth      *jwt.Manager
	websocket *websocket.Server
}

// NewTrackingHTTPHandler wires an HTTP handler around the TrackingService.
func NewTrackingHTTPHandler(
	svc ports.TrackingService,
	logger *logger.Logger,
	auth *jwt.Manager,
	ws *websocket.Server,
) *TrackingHTTPHandler {
	return &TrackingHTTPHandler{svc: svc, logger: logger, auth: auth, websocket: ws}
}

// RegisterRoutes mounts tracking endpoints on the provided mux.
func (handler *TrackingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	// WebSocket authenticates in-band, no middleware
	mux.HandleFunc("GET /ws/tracking", handler.websocket.HandleTracking)

	mux.HandleFunc("GET /orgs/{org_id}/tracking/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin, user.RoleSuperAdmin)(handler.handleOrgActiveUsers),
	)
	mux.HandleFunc("GET /tracking/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleSuperAdmin)(handler.handleAllActiveUsers),
	)
	mux.HandleFunc("GET /tracking/users/{user_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin, user.RoleSuperAdmin)(handler.handleUserLive),
	)
	mux.HandleFunc("POST /admin/notify",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin, user.RoleSuperAdmin)(handler.handleNotify),
	)

	mux.HandleFunc("GET /tracking/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

// ----- general helpers -----

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *TrackingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *TrackingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps service failures onto HTTP statuses.
func (handler *TrackingHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidInput):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ports.ErrUserNotConnected):
		handler.httpError(ctx, w, http.StatusNotFound, "user not connected", err)
	default:
		// distinguish DB failures from the rest
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
			return
		}
		handler.httpError(ctx, w, http.StatusInternalServerError, msg, err)
	}
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *TrackingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
