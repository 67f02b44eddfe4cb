// Package auth authenticates API callers by static bearer token and puts the
// caller's actor name in the request context.
package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// Authenticator maps bearer tokens to actor names.
type Authenticator struct {
	tokens map[string]string
}

// New copies tokens (token to actor). An empty table rejects every request.
func New(tokens map[string]string) *Authenticator {
	copied := make(map[string]string, len(tokens))
	for token, actor := range tokens {
		copied[token] = actor
	}
	return &Authenticator{tokens: copied}
}

// Authenticate returns the actor for the request's bearer token.
func (a *Authenticator) Authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, presented, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return "", false
	}

	// Compare against every token so timing does not depend on which matched.
	var actor string
	for token, name := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1 {
			actor = name
		}
	}
	return actor, actor != ""
}

// Middleware rejects unauthenticated requests through onDenied, or a plain
// 401 when onDenied is nil.
func (a *Authenticator) Middleware(onDenied func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := a.Authenticate(r)
			if !ok {
				slog.WarnContext(r.Context(), "Rejected unauthenticated request",
					"method", r.Method,
					"path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="rentledger"`)
				if onDenied != nil {
					onDenied(w, r)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the authenticated actor, or "" when there is none.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(contextKey{}).(string)
	return actor
}
