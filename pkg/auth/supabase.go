package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseConfig configures verification against a Supabase Auth project.
type SupabaseConfig struct {
	// URL is the project URL, e.g. "https://abcd.supabase.co".
	URL string

	// AnonKey is the project's public anon key, sent as the "apikey" header.
	AnonKey string

	// Timeout bounds a single introspection call. Default: 10 seconds.
	Timeout time.Duration
}

// Validate checks if the configuration is valid.
func (c *SupabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("provider url is required")
	}
	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid provider url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("provider url must use http or https scheme, got: %s", parsedURL.Scheme)
	}
	if c.AnonKey == "" {
		return fmt.Errorf("anon key is required")
	}
	return nil
}

// issuer returns the token issuer of the project.
func (c *SupabaseConfig) issuer() string {
	return strings.TrimRight(c.URL, "/") + "/auth/v1"
}

// SupabaseVerifier verifies tokens by asking Supabase Auth for the user the
// token belongs to ("get user for token").
type SupabaseVerifier struct {
	config *SupabaseConfig
	client *http.Client
}

var _ Verifier = (*SupabaseVerifier)(nil)

// NewSupabaseVerifier creates a token-introspection verifier. If httpClient
// is nil a client with the configured timeout is used.
func NewSupabaseVerifier(cfg *SupabaseConfig, httpClient *http.Client) (*SupabaseVerifier, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supabase config: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &SupabaseVerifier{
		config: cfg,
		client: httpClient,
	}, nil
}

// supabaseUser is the subset of the Supabase user object we read.
type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verify implements Verifier.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	endpoint := v.config.issuer() + "/user"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", v.config.AnonKey)
	req.Header.Set("Authorization", bearerPrefix+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach auth provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("auth provider returned status %d: %w",
			resp.StatusCode, ErrInvalidToken)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth provider returned no user: %w", ErrInvalidToken)
	}

	return &Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}
