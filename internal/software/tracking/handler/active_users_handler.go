package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
)

// --- Handler: GET /orgs/{org_id}/tracking/active ---

func (handler *TrackingHTTPHandler) handleOrgActiveUsers(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "org_id is required", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// admins are scoped to their own organization
	if claims.Role.IsAdmin() && claims.OrganizationID != orgID {
		handler.httpError(ctx, w, http.StatusForbidden, "organization mismatch", errors.New("org scope violation"))
		return
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := handler.svc.ActiveUsers(ctxWithTimeout, orgID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, "failed to fetch active users", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, result)
}

// --- Handler: GET /tracking/active ---

func (handler *TrackingHTTPHandler) handleAllActiveUsers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := handler.svc.AllActiveUsers(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, "failed to fetch active users", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, result)
}

// --- Handler: GET /tracking/users/{user_id} ---

func (handler *TrackingHTTPHandler) handleUserLive(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row, err := handler.svc.UserLive(ctxWithTimeout, userID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, "failed to fetch user state", err)
		return
	}

	// cross-organization lookups by admins read as absent
	if claims.Role.IsAdmin() && row.OrganizationID != claims.OrganizationID {
		handler.httpError(ctxWithTimeout, w, http.StatusNotFound, "user not connected", errors.New("org scope violation"))
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, row)
}
