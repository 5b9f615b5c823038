package server

import (
	"net/http"
	"time"

	ginhandler "user-api-service/internal/adapter/gin/handler"
	ginrouter "user-api-service/internal/adapter/gin/router"
	grpcmiddleware "user-api-service/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	serviceName string,
	production bool,
	addr string,
	l *zap.Logger,
) *http.Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handler, rateLimiter, serviceName, l)

	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.String("swagger", "/swagger/index.html"),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
