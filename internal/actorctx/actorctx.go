// Package actorctx carries the authenticated identity of the current
// operation on its context.
package actorctx

import (
	"context"

	"github.com/geocoder89/authcore/internal/domain/user"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(user.Identity)

	return v, ok && v.ID > 0
}

// UserIDFrom returns the acting user id, if any.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := IdentityFrom(ctx)
	return id.ID, ok
}
