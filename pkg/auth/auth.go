package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/specfleet/foreman/pkg/config"
)

// VerificationTokenHeader carries the shared secret in token mode
const VerificationTokenHeader = "x-goog-pubsub-verification-token"

// ErrUnauthorized is returned when no authentication method succeeds
var ErrUnauthorized = errors.New("unauthorized")

// Claims are the identity assertions checked in identity_token mode
type Claims struct {
	Audience string
	Issuer   string
	Email    string
}

// TokenVerifier verifies a bearer identity token and returns its claims.
// Signature verification happens at the transport edge and is injected here;
// the service only consumes the boolean outcome plus claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Authenticator applies the configured edge authentication predicate
type Authenticator struct {
	mode     config.AuthMode
	token    string
	verifier TokenVerifier

	expectedAudience string
	expectedIssuer   string
	expectedEmail    string
}

// New builds an Authenticator from configuration. The verifier is only
// consulted in identity_token mode and may be nil otherwise.
func New(cfg *config.Config, verifier TokenVerifier) *Authenticator {
	return &Authenticator{
		mode:             cfg.AuthMode,
		token:            cfg.VerificationToken,
		verifier:         verifier,
		expectedAudience: cfg.ExpectedAudience,
		expectedIssuer:   cfg.ExpectedIssuer,
		expectedEmail:    cfg.ExpectedServiceAccountEmail,
	}
}

// Authenticate checks the request against the configured mode. It returns
// nil when the request is authenticated and ErrUnauthorized (wrapped with a
// reason) otherwise. The reason never contains secret material.
func (a *Authenticator) Authenticate(r *http.Request) error {
	switch a.mode {
	case config.AuthModeNone:
		return nil
	case config.AuthModeToken:
		return a.checkSharedToken(r)
	case config.AuthModeIdentityToken:
		return a.checkIdentityToken(r)
	default:
		return fmt.Errorf("%w: unknown auth mode %q", ErrUnauthorized, a.mode)
	}
}

func (a *Authenticator) checkSharedToken(r *http.Request) error {
	provided := r.Header.Get(VerificationTokenHeader)
	if provided == "" {
		return fmt.Errorf("%w: missing verification token", ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(a.token)) != 1 {
		return fmt.Errorf("%w: invalid verification token", ErrUnauthorized)
	}
	return nil
}

func (a *Authenticator) checkIdentityToken(r *http.Request) error {
	if a.verifier == nil {
		return fmt.Errorf("%w: identity token verifier not configured", ErrUnauthorized)
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return fmt.Errorf("%w: missing Authorization header", ErrUnauthorized)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return fmt.Errorf("%w: malformed Authorization header", ErrUnauthorized)
	}

	claims, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		return fmt.Errorf("%w: token verification failed", ErrUnauthorized)
	}

	if claims.Audience != a.expectedAudience {
		return fmt.Errorf("%w: unexpected audience", ErrUnauthorized)
	}
	if a.expectedIssuer != "" && claims.Issuer != a.expectedIssuer {
		return fmt.Errorf("%w: unexpected issuer", ErrUnauthorized)
	}
	if a.expectedEmail != "" && claims.Email != a.expectedEmail {
		return fmt.Errorf("%w: unexpected service account", ErrUnauthorized)
	}
	return nil
}
