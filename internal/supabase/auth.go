package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// AuthVerifier validates bearer tokens remotely against Supabase Auth. Used
// when no JWT secret is configured for local verification.
type AuthVerifier struct {
	client *supabase.Client
}

func NewAuthVerifier(client *supabase.Client) *AuthVerifier {
	return &AuthVerifier{client: client}
}

func (a *AuthVerifier) Verify(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user, err := a.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.ID == uuid.Nil {
		return "", fmt.Errorf("token does not belong to a user")
	}
	return user.ID.String(), nil
}
