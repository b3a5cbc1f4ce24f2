package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

type tokenRequest struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
}

// ----- Handler: POST /tokens -----

// handleCreateToken generates JWT tokens for testing
func (handler *TrackingHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	result, err := handler.svc.MintToken(ctx, ports.MintTokenInput{
		UserID:         req.UserID,
		Email:          req.Email,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		handler.serviceError(ctx, w, "Failed to generate token", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, tokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		UserID:    strings.TrimSpace(req.UserID),
		Role:      strings.ToUpper(strings.TrimSpace(req.Role)),
	})
}
