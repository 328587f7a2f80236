package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/community-hub/internal/domain"
	jwtinfra "github.com/community-hub/internal/infrastructure/jwt"
)

type contextKey string

const actorKey contextKey = "actor"

// Dev-mode actor headers.
const (
	HeaderActorID     = "X-Actor-Id"
	HeaderActorName   = "X-Actor-Name"
	HeaderActorRole   = "X-Actor-Role"
	HeaderActorAvatar = "X-Actor-Avatar"
)

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Auth validates the Bearer JWT and stores the actor it names in the context.
// Browsers cannot set headers on websocket upgrades, so a token query
// parameter is accepted as a fallback.
func Auth(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Actor())))
		})
	}
}

// HeaderActor trusts the X-Actor-* headers. Only for development, where no
// signing keys are configured.
func HeaderActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := domain.Actor{
			ID:          strings.TrimSpace(r.Header.Get(HeaderActorID)),
			DisplayName: strings.TrimSpace(r.Header.Get(HeaderActorName)),
			Role:        domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))),
			Avatar:      r.Header.Get(HeaderActorAvatar),
		}
		if a.ID == "" || !a.Role.Valid() {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid actor headers")
			return
		}
		if a.DisplayName == "" {
			a.DisplayName = a.ID
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext extracts the authenticated actor from the request context.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey).(domain.Actor)
	return a, ok
}
