// Package auth resolves bearer tokens to principals and checks tenant ownership.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supabase-community/gotrue-go"
	supabase "github.com/supabase-community/supabase-go"
)

var (
	// ErrUnauthenticated is returned for a missing or rejected token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the principal does not own the tenant.
	ErrForbidden = errors.New("forbidden")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

// Authenticator resolves a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// OwnershipChecker reports whether userID owns tenantID.
type OwnershipChecker interface {
	TenantOwnedBy(ctx context.Context, tenantID, userID string) (bool, error)
}

// Authorize checks that p owns tenantID.
func Authorize(ctx context.Context, owners OwnershipChecker, p *Principal, tenantID string) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrForbidden)
	}
	owned, err := owners.TenantOwnedBy(ctx, tenantID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to check tenant ownership: %w", err)
	}
	if !owned {
		return ErrForbidden
	}
	return nil
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SupabaseAuthenticator validates access tokens against Supabase GoTrue.
type SupabaseAuthenticator struct {
	client gotrue.Client
}

// NewSupabaseAuthenticator creates an authenticator for the project at url.
func NewSupabaseAuthenticator(url, anonKey string) (*SupabaseAuthenticator, error) {
	if url == "" || anonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set")
	}
	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &SupabaseAuthenticator{client: client.Auth}, nil
}

func (a *SupabaseAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := a.client.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &Principal{UserID: user.ID.String(), Email: user.Email}, nil
}

// StaticAuthenticator maps fixed tokens to user ids. For local development.
type StaticAuthenticator struct {
	tokens map[string]string
}

// NewStaticAuthenticator creates an authenticator from token to user id pairs.
func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	userID, ok := a.tokens[token]
	if token == "" || !ok {
		return nil, ErrUnauthenticated
	}
	return &Principal{UserID: userID}, nil
}
