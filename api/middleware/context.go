package middleware

import (
	"context"

	"github.com/shiplogix/logistics-backend/pkg/types"
)

type contextKey string

const ctxActor contextKey = "actor"

// WithActor stores the resolved caller on the context.
func WithActor(ctx context.Context, actor *types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the caller identified by Identify, or nil for an
// anonymous request.
func ActorFromContext(ctx context.Context) *types.Actor {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxActor).(*types.Actor); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) string {
	if id := ActorFromContext(ctx).UserIDPtr(); id != nil {
		return id.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if actor := ActorFromContext(ctx); actor != nil {
		return string(actor.Role)
	}
	return ""
}
