// Package jwt provides the verified bearer-token authenticator used by the
// "custom" auth mode. Tokens are HS256 JWTs signed with a shared secret, as
// issued by the platform's frontend session layer.
//
// Verification runs a fixed cascade: missing header, scheme check,
// development bypass tokens, secret presence, signature and claims. The
// lenient branches are controlled purely by Config so the whole policy is
// visible here.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/debug"
)

const bearerPrefix = "Bearer "

// Config holds the verified authenticator configuration.
type Config struct {
	// Secret is the shared HMAC-SHA256 signing secret.
	Secret string

	// AllowAnonymous admits requests without an Authorization header as an
	// unauthenticated anonymous identity.
	AllowAnonymous bool

	// Development enables the lenient fallbacks for a missing secret and
	// for tokens that fail verification. Ignored when Production is set.
	Development bool

	// Production disables every leniency branch, including the
	// development bypass tokens.
	Production bool

	// RequireExpiration rejects tokens without an exp claim.
	RequireExpiration bool

	// Leeway is the clock skew tolerated for exp/nbf checks.
	Leeway time.Duration

	// TimeFunc overrides the clock used for claim validation (tests).
	TimeFunc func() time.Time
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	config Config
	parser *jwtlib.Parser
}

// New creates a verified authenticator with the given configuration.
func New(cfg Config) *Authenticator {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithJSONNumber(),
		jwtlib.WithLeeway(cfg.Leeway),
	}
	if cfg.RequireExpiration {
		opts = append(opts, jwtlib.WithExpirationRequired())
	}
	if cfg.TimeFunc != nil {
		opts = append(opts, jwtlib.WithTimeFunc(cfg.TimeFunc))
	}

	return &Authenticator{
		config: cfg,
		parser: jwtlib.NewParser(opts...),
	}
}

// lenient reports whether the development fallbacks may be used.
func (a *Authenticator) lenient() bool {
	return a.config.Development && !a.config.Production
}

// Authenticate resolves the caller from the Authorization header.
//
// Outcomes, first match wins:
//   - no header: anonymous (unauthenticated) if allowed, else CredentialMissing
//   - no "Bearer " scheme: CredentialMalformed
//   - "anonymous" or "noop-<id>" outside production: dev identity, no verification
//   - no secret: dev identity when lenient, else ConfigurationError
//   - valid token: verified identity, IdentityMissing without an identity claim
//   - expired token: CredentialExpired
//   - other verification failure: dev identity when lenient, else CredentialInvalid
//   - unexpected failure: InternalError
func (a *Authenticator) Authenticate(_ context.Context, headers auth.Headers) (*auth.Identity, error) {
	header := headers.Authorization()
	if header == "" {
		if a.config.AllowAnonymous {
			debug.Log(debug.Auth, "no authorization header, admitting anonymous caller")
			return anonymousIdentity(), nil
		}
		return nil, auth.CredentialMissing()
	}

	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, auth.CredentialMalformed()
	}

	token := strings.TrimPrefix(header, bearerPrefix)

	if !a.config.Production {
		if subject, ok := bypassSubject(token); ok {
			debug.Log(debug.Auth, "development bypass token accepted", "subject", subject)
			return &auth.Identity{
				Subject:         subject,
				DisplayName:     fmt.Sprintf("Dev User (%s)", subject),
				IsAuthenticated: true,
			}, nil
		}
	}

	if a.config.Secret == "" {
		if a.lenient() {
			slog.Warn("signing secret not configured, using development identity")
			return &auth.Identity{
				Subject:         "dev-user",
				DisplayName:     "Development User",
				IsAuthenticated: true,
			}, nil
		}
		slog.Error("signing secret not configured")
		return nil, auth.NotConfigured()
	}

	debug.Log(debug.Auth, "verifying bearer token", debug.TokenAttr(token))

	claims, err := a.verify(token)
	if err == nil {
		return identityFromClaims(claims)
	}

	var ae *auth.Error
	if errors.As(err, &ae) {
		return nil, ae
	}

	if errors.Is(err, jwtlib.ErrTokenExpired) {
		return nil, auth.CredentialExpired(err)
	}

	if isValidationError(err) {
		if a.lenient() {
			slog.Warn("invalid token accepted in development mode", "error", err)
			return &auth.Identity{
				Subject:         "dev-user-invalid-token",
				DisplayName:     "Dev User (Invalid Token)",
				IsAuthenticated: true,
				Metadata:        map[string]string{"dev_fallback": "invalid_token"},
			}, nil
		}
		return nil, auth.CredentialInvalid(err)
	}

	return nil, auth.AuthenticationSystemError(err)
}

// verify checks the signature and registered claims of token. A panic in
// the verification path is reported as an authentication system error.
func (a *Authenticator) verify(token string) (claims jwtlib.MapClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = auth.AuthenticationSystemError(fmt.Errorf("panic during token verification: %v", r))
		}
	}()

	claims = jwtlib.MapClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return []byte(a.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token not valid", jwtlib.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// validationErrors are the library errors that mean the token itself is
// bad, as opposed to a failure of the verifier.
var validationErrors = []error{
	jwtlib.ErrTokenMalformed,
	jwtlib.ErrTokenUnverifiable,
	jwtlib.ErrTokenSignatureInvalid,
	jwtlib.ErrTokenRequiredClaimMissing,
	jwtlib.ErrTokenInvalidAudience,
	jwtlib.ErrTokenUsedBeforeIssued,
	jwtlib.ErrTokenInvalidIssuer,
	jwtlib.ErrTokenInvalidSubject,
	jwtlib.ErrTokenNotValidYet,
	jwtlib.ErrTokenInvalidId,
	jwtlib.ErrTokenInvalidClaims,
	jwtlib.ErrInvalidType,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// bypassSubject recognizes the development bypass tokens "anonymous" and
// "noop-<subject>". The subject is the text after the first dash, or
// "anonymous" when there is none.
func bypassSubject(token string) (string, bool) {
	if token != "anonymous" && !strings.HasPrefix(token, "noop-") {
		return "", false
	}
	_, suffix, found := strings.Cut(token, "-")
	if !found || suffix == "" {
		return "anonymous", true
	}
	return suffix, true
}

func anonymousIdentity() *auth.Identity {
	return &auth.Identity{
		Subject:     "anonymous",
		DisplayName: "Anonymous User",
	}
}
