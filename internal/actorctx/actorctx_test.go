package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/authcore/internal/domain/user"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), user.Identity{ID: 3, Name: "bob", Email: "bob@example.com"})

	id, ok := IdentityFrom(ctx)
	if !ok || id.Email != "bob@example.com" {
		t.Fatalf("expected identity, got %+v ok=%v", id, ok)
	}

	uid, ok := UserIDFrom(ctx)
	if !ok || uid != 3 {
		t.Fatalf("expected user id 3, got %d", uid)
	}
}

func TestIdentityMissing(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}

	if _, ok := UserIDFrom(WithIdentity(context.Background(), user.Identity{})); ok {
		t.Fatalf("zero identity must not count as authenticated")
	}
}
