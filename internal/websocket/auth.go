package websocket

import "context"

// TokenValidator resolves the token a view sends when opening the socket to
// its subject. *middleware.AuthMiddleware implements it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (subject string, err error)
}
