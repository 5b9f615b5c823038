package router

import (
	"net/http"

	"user-api-service/api/swagger"
	"user-api-service/internal/adapter/gin/handler"
	"user-api-service/internal/adapter/gin/middleware"
	grpcmiddleware "user-api-service/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// DocPath is where the OpenAPI document is served.
const DocPath = "/openapi/user.swagger.json"

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	serviceName string,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Logger wraps Recovery so recovered panics still get an access log entry.
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	router.GET(DocPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", swagger.Document)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(DocPath))))

	users := router.Group("/api/users", middleware.RateLimiter(rateLimiter))
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
