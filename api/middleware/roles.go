package middleware

import (
	"net/http"

	"github.com/shiplogix/logistics-backend/api/responses"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

// RequireRole allows the request through when the actor holds one of roles.
// Anonymous callers get 401, authenticated callers without the role get 403.
func RequireRole(logg *logger.Logger, roles ...enums.MemberRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !actor.HasRole(roles...) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required").
					WithDetails(map[string]any{"allowed_roles": roles}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
