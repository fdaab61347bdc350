package middleware

import (
	"net/http"
	"strings"

	"github.com/shiplogix/logistics-backend/api/responses"
	pkgAuth "github.com/shiplogix/logistics-backend/pkg/auth"
	"github.com/shiplogix/logistics-backend/pkg/config"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

// Identify resolves the optional bearer token into an actor. Requests without
// an Authorization header pass through anonymously; a header that is present
// but invalid is rejected.
func Identify(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	verifier := pkgAuth.NewVerifier(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := pkgAuth.ParseBearer(raw)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed authorization header"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.UserID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
