package handler

import (
	"net/http"
	"strconv"

	"user-api-service/internal/usecase/user"
	pkgerrors "user-api-service/pkg/errors"
	"user-api-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// UserHandler handles HTTP requests for the /api/users resource.
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest is the body accepted by create and update. There is no id
// field: ids are assigned by the store and taken from the path on update.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i := range resp.Users {
		users[i] = toResponse(&resp.Users[i])
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, pkgerrors.NewValidationError("body", err.Error()))
		return
	}

	created, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(created))
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// UpdateUser handles PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, pkgerrors.NewValidationError("body", err.Error()))
		return
	}

	u, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// DeleteUser handles DELETE /api/users/:id. Success has an empty body.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// pathID parses the :id path parameter, writing a 400 response on failure.
func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.handleError(c, pkgerrors.NewValidationError("id", "User ID must be a valid number"))
		return 0, false
	}
	return id, true
}

// handleError maps an error to a status through its gRPC code. Errors without
// a code are reported as internal errors without leaking their text.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	code := pkgerrors.Code(err)
	httpStatus := runtime.HTTPStatusFromCode(code)
	log := logger.WithContext(c.Request.Context(), h.log)

	resp := ErrorResponse{Error: errorKind(code), Message: err.Error()}
	switch code {
	case codes.NotFound, codes.InvalidArgument:
		log.Warn("request failed", zap.Int("status", httpStatus), zap.Error(err))
	default:
		log.Error("request failed", zap.Int("status", httpStatus), zap.Error(err))
		resp.Message = "An internal error occurred"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(httpStatus, resp)
}

func errorKind(code codes.Code) string {
	switch code {
	case codes.NotFound:
		return "not_found"
	case codes.InvalidArgument:
		return "invalid_input"
	default:
		return "internal_error"
	}
}
