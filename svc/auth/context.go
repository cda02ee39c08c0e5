package auth

import (
	"context"

	"github.com/t333watch/t333watch/svc/user"
)

type userContextKey struct{}

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the user stored by RequireUser or OptionalUser.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(user.User)
	return u, ok
}
