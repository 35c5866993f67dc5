package activity

import (
	"context"
	"testing"
)

func TestActorFromContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatalf("expected no actor on a bare context")
	}

	ctx := ContextWithActor(context.Background(), Actor{ActorID: "a", TenantID: "t"})
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ActorID != "a" || actor.TenantID != "t" {
		t.Fatalf("unexpected actor %+v (ok=%v)", actor, ok)
	}

	if _, ok := ActorFromContext(ContextWithActor(ctx, Actor{UserID: "  "})); ok {
		t.Fatalf("expected blank actor to be ignored")
	}
}
