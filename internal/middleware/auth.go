package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ErrInvalidToken is returned for tokens that fail validation or carry no
// subject
var ErrInvalidToken = errors.New("invalid token")

type subjectKey struct{}

// ClaimsValidator is satisfied by *validator.Validator
type ClaimsValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware guards the local view API with Auth0 bearer tokens. Only the
// token subject is kept: the household itself is authorised by the remote
// API through the service token.
type AuthMiddleware struct {
	validator ClaimsValidator
}

// NewAuthMiddleware validates RS256 tokens issued by the Auth0 tenant domain
// for audience
func NewAuthMiddleware(domain, audience string) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}
	return NewAuthMiddlewareWithValidator(v), nil
}

// NewAuthMiddlewareWithValidator wraps an existing validator
func NewAuthMiddlewareWithValidator(v ClaimsValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// ValidateToken returns the subject of a valid token. It also serves the
// view socket, which receives its token as a query parameter.
func (m *AuthMiddleware) ValidateToken(ctx context.Context, token string) (string, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return "", ErrInvalidToken
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return "", ErrInvalidToken
	}
	return validated.RegisteredClaims.Subject, nil
}

// Authenticate returns an Echo middleware that requires a bearer token. A nil
// AuthMiddleware lets every request through, for local use without Auth0.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			subject, err := m.ValidateToken(c.Request().Context(), token)
			if err != nil {
				return unauthorizedError(c, "Invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), subjectKey{}, subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetSubject returns the authenticated user, empty when auth is off
func GetSubject(c echo.Context) string {
	sub, _ := c.Request().Context().Value(subjectKey{}).(string)
	return sub
}
