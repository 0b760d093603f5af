package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jasperwreed/campus-market/internal/models"
)

// Me returns the user the token belongs to. 401/403 responses match ErrUnauthorized.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var payload struct {
		ID          flexID `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		IsAdmin     bool   `json:"is_admin"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/auth/me",
		token:  token,
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	return &models.User{
		ID:          string(payload.ID),
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		IsAdmin:     payload.IsAdmin,
	}, nil
}
