package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{
		client: client,
	}
}

// VerifyToken validates a Firebase ID token and returns the caller's UID.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// GetDisplayName resolves the display name stored on the Firebase user
// record, falling back to the email local part.
func (a *AuthClient) GetDisplayName(ctx context.Context, uid string) (string, error) {
	user, err := a.client.GetUser(ctx, uid)
	if err != nil {
		return "", err
	}

	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.Email, nil
}
