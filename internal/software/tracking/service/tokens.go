package service

import (
	"context"
	"fmt"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// MintToken issues a signed access token for development and testing.
func (service *trackingService) MintToken(ctx context.Context, in ports.MintTokenInput) (ports.MintTokenResult, error) {
	role, err := user.ParseRole(in.Role)
	if err != nil {
		return ports.MintTokenResult{}, fmt.Errorf("%w: %s", ports.ErrInvalidInput, err)
	}

	ident, err := user.NewIdentity(in.UserID, in.Email, role, in.OrganizationID)
	if err != nil {
		return ports.MintTokenResult{}, fmt.Errorf("%w: %s", ports.ErrInvalidInput, err)
	}

	token, claims, err := service.jwtMgr.IssueUserToken(ident)
	if err != nil {
		return ports.MintTokenResult{}, err
	}

	service.logger.Info(ctx, "token_minted", "Issued development token", map[string]any{
		"user_id": ident.UserID,
		"role":    role.String(),
	})

	return ports.MintTokenResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
