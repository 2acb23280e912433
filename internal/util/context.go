package util

import "context"

type actorKey struct{}

// WithActor 记录发起请求的用户，审计日志从这里取操作人
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func ActorFrom(ctx context.Context) *uint {
	id, ok := ctx.Value(actorKey{}).(uint)
	if !ok || id == 0 {
		return nil
	}
	return &id
}
