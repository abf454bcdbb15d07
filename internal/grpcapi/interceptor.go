package grpcapi

import (
	"context"
	"strings"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/identity"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SubmitterMetadataKey carries the submitter in open mode.
const SubmitterMetadataKey = "x-submitter"

type submitterKey struct{}

var writeMethods = map[string]bool{
	methodAnchorSingle: true,
	methodAnchorRoot:   true,
	methodAnchorBatch:  true,
}

// WithSubmitter returns a context carrying the authenticated submitter.
func WithSubmitter(ctx context.Context, submitter string) context.Context {
	return context.WithValue(ctx, submitterKey{}, submitter)
}

// SubmitterFromContext returns the submitter set by AuthInterceptor, or "".
func SubmitterFromContext(ctx context.Context) string {
	s, _ := ctx.Value(submitterKey{}).(string)
	return s
}

// AuthInterceptor establishes the submitter for write methods, mirroring
// identity.RequireSubmitter: a bearer token in the authorization metadata
// when tokens is set, otherwise the x-submitter metadata value.
func AuthInterceptor(tokens *identity.TokenIssuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !writeMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)

		if tokens == nil {
			submitter := strings.TrimSpace(first(md, SubmitterMetadataKey))
			if submitter == "" {
				return nil, status.Error(codes.Unauthenticated, SubmitterMetadataKey+" metadata required")
			}
			return handler(WithSubmitter(ctx, submitter), req)
		}

		authHeader := first(md, "authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return nil, status.Error(codes.Unauthenticated, "Bearer submitter token required")
		}
		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid submitter token: "+err.Error())
		}
		return handler(WithSubmitter(ctx, claims.Submitter()), req)
	}
}

// LoggingInterceptor returns a gRPC unary server interceptor that logs each call.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

func first(md metadata.MD, key string) string {
	if vs := md.Get(key); len(vs) > 0 {
		return vs[0]
	}
	return ""
}
