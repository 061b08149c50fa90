package identity

import "context"

// ctxUserKey is the context key type for the authenticated user id.
type ctxUserKey struct{}

// WithUser stores the authenticated user id on ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

// UserFrom returns the authenticated user id, or "" for guests.
func UserFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserKey{}).(string)
	return id
}
