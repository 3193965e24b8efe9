// Package authctx carries the authenticated principal through a request context.
package authctx

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const (
	userIDKey ctxKey = "ap.userID"
	methodKey ctxKey = "ap.authMethod"
)

// Method names how a request was authenticated.
type Method string

const (
	MethodBearer Method = "bearer"
	MethodAPIKey Method = "api_key"
)

// WithUserID stores authenticated user ID in context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches user ID from context.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// WithMethod records the authentication method used for the request.
func WithMethod(ctx context.Context, m Method) context.Context {
	return context.WithValue(ctx, methodKey, m)
}

// MethodFromCtx returns the authentication method, or "" for anonymous requests.
func MethodFromCtx(ctx context.Context) Method {
	m, _ := ctx.Value(methodKey).(Method)
	return m
}
