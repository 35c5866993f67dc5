package activity

import (
	"context"
	"strings"
)

// Actor identifies who a preference change is attributed to. IDs are
// expected to be UUID strings when events are forwarded to go-users.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// IsZero reports whether no identity is set.
func (a Actor) IsZero() bool {
	return strings.TrimSpace(a.ActorID) == "" &&
		strings.TrimSpace(a.UserID) == "" &&
		strings.TrimSpace(a.TenantID) == ""
}

type actorKey struct{}

// ContextWithActor attributes changes made with ctx to actor.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by ContextWithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.IsZero() {
		return Actor{}, false
	}
	return actor, true
}
