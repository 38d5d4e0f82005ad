package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fridge/backend/internal/domain"
)

// AuthClient verifies bearer tokens against the Supabase identity
// provider. Verification itself is delegated entirely: this client only
// relays the provider's verdict.
type AuthClient struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
}

// NewAuthClient creates an identity-provider client.
func NewAuthClient(baseURL, anonKey string) *AuthClient {
	return &AuthClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		anonKey: anonKey,
	}
}

// userPayload is the provider's GET /auth/v1/user response.
type userPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

// VerifyToken asks the provider who the token belongs to. Returns
// domain.ErrUnauthorized for rejected tokens and a wrapped error for
// provider outages.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (*domain.AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.anonKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("auth provider status %d: %s", resp.StatusCode, string(body))
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if payload.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	return &domain.AuthUser{
		ID:    payload.ID,
		Email: payload.Email,
		Name:  payload.UserMetadata.Name,
	}, nil
}

// UpdateEmail changes the account email using the caller's own token.
// The provider sends its verification email as a side effect.
func (a *AuthClient) UpdateEmail(ctx context.Context, token, newEmail string) error {
	body, err := json.Marshal(map[string]string{"email": newEmail})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.baseURL+"/auth/v1/user", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: auth provider status %d: %s", domain.ErrInvalidRequest, resp.StatusCode, string(respBody))
	}
}
