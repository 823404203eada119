package actorctx

import (
	"context"

	"github.com/geocoder89/todohub/internal/domain/user"
)

type ctxKey string

const (
	keyUser      ctxKey = "actor_user"
	keyRequestID ctxKey = "request_id"
)

// WithUser attaches the user the authorization middleware resolved.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, keyUser, u)
}

func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(keyUser).(user.User)

	return u, ok && u.ID != 0
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	u, ok := UserFrom(ctx)
	return u.ID, ok
}

// WithRequestID carries the request id past gin into code that only sees a
// context.Context, such as the slog handler.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(keyRequestID).(string)
	return id, ok && id != ""
}
