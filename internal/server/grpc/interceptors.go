package grpcserver

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/authctx"
	"github.com/and161185/agent-pass/internal/metrics"
)

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		// metadata only, never payloads
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remoteIP(ctx)),
		)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// MetricsUnary records call counts and latency per method.
func MetricsUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		metrics.GRPCRequestTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		metrics.GRPCRequestDurationSeconds.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// TokenVerifier resolves a session token to its user.
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// APIKeyResolver resolves an account API key to its owner.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, apiKey string) (uuid.UUID, error)
}

// publicMethods do not require credentials.
var publicMethods = map[string]bool{
	vaultv1.MethodSignUp: true,
	vaultv1.MethodSignIn: true,
}

// AuthUnary authenticates vault calls with "authorization: Bearer <jwt>" or
// "x-api-key: <key>" metadata and stores the user id in the context. Bearer wins
// when both are present. Calls to other services (health) pass through.
func AuthUnary(tokens TokenVerifier, keys APIKeyResolver) grpc.UnaryServerInterceptor {
	prefix := "/" + vaultv1.ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) || publicMethods[info.FullMethod] {
			return next(ctx, req)
		}
		if tok, err := bearerTokenFromMD(ctx); err == nil {
			id, err := tokens.Authenticate(ctx, tok)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "invalid token")
			}
			ctx = authctx.WithMethod(authctx.WithUserID(ctx, id), authctx.MethodBearer)
			return next(ctx, req)
		}
		if key, err := apiKeyFromMD(ctx); err == nil {
			id, err := keys.ResolveAPIKey(ctx, key)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "invalid api key")
			}
			ctx = authctx.WithMethod(authctx.WithUserID(ctx, id), authctx.MethodAPIKey)
			return next(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
}

func remoteIP(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}

func apiKeyFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("x-api-key") {
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", errors.New("no api key")
}
