package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const tokenKey contextKey = "auth-token"

const bearerPrefix = "Bearer "

// WithToken returns a context carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token extracts the bearer token placed in the context by authMiddleware.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)

	return token, ok
}

// bearerToken pulls the credential out of the Authorization header. A
// missing header, wrong scheme, or empty credential is an error; the token
// is otherwise opaque here and resolved against the identity store by the
// handlers.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	if !strings.HasPrefix(header, bearerPrefix) {
		return "", fmt.Errorf("authorization header is not a bearer credential")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", fmt.Errorf("empty bearer token")
	}

	return token, nil
}
