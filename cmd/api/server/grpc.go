package server

import (
	grpcadapter "user-api-service/internal/adapter/grpc"
	"user-api-service/internal/adapter/grpc/middleware"
	"user-api-service/pkg/logger"

	"google.golang.org/grpc"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(service *grpcadapter.UserServiceServer, rateLimiter *middleware.RateLimiter) *grpc.Server {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	service.Register(grpcServer)

	return grpcServer
}
