// Package grpc provides the gRPC transport layer for the personal details service.
//
// The service is described by a hand-written ServiceDesc whose messages are
// well-known types (Empty and Struct), so no code generation step is needed.
// Struct keys are the same field ids the HTTP API uses.
package grpc

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/privatedetails/internal/auth"
	"github.com/mvaleed/privatedetails/internal/form"
	"github.com/mvaleed/privatedetails/internal/service"
	"github.com/mvaleed/privatedetails/internal/transport/request"
)

// Dependencies are what the handlers call into.
type Dependencies struct {
	Details  *service.PersonalDetailsService
	Sessions *form.Sessions
	Inputs   *request.Validator
	JWT      *auth.JWTManager
}

// Server wraps the gRPC server with dependencies
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewServer creates a new gRPC server with all handlers registered
func NewServer(deps Dependencies, logger *slog.Logger) *Server {
	s := &Server{
		health:     health.NewServer(),
		jwtManager: deps.JWT,
		logger:     logger,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
			s.authInterceptor,
		),
	)

	RegisterPersonalDetailsServer(grpcServer, newPersonalDetailsHandler(deps))
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(PersonalDetailsServiceName, healthpb.HealthCheckResponse_SERVING)

	s.grpcServer = grpcServer
	return s
}

// Serve starts the gRPC server on the given listener
func (s *Server) Serve(listener net.Listener) error {
	return s.grpcServer.Serve(listener)
}

// GracefulStop gracefully stops the gRPC server
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// loggingInterceptor logs all incoming requests
func (s *Server) loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info("gRPC request",
		slog.String("method", info.FullMethod),
		slog.String("code", status.Code(err).String()),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil && status.Code(err) == codes.Internal {
		s.logger.Error("gRPC request failed",
			slog.String("method", info.FullMethod),
			slog.String("error", err.Error()),
		)
	}

	return resp, err
}

// recoveryInterceptor recovers from panics
func (s *Server) recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gRPC panic recovered",
				"method", info.FullMethod,
				"panic", r,
			)
			err = status.Error(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}

// authInterceptor validates JWT tokens for protected endpoints
func (s *Server) authInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if isPublicMethod(info.FullMethod) {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	tokens := md.Get("authorization")
	if len(tokens) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	token := strings.TrimPrefix(tokens[0], "Bearer ")

	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, claimsKey{}, claims)

	return handler(ctx, req)
}

// claimsKey is the context key for JWT claims
type claimsKey struct{}

// ClaimsFromContext extracts JWT claims from the context
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// isPublicMethod returns true if the method doesn't require authentication
func isPublicMethod(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}
