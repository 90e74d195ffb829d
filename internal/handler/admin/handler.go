package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/warrantywise/warranty-api/internal/handler"
	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
	"github.com/warrantywise/warranty-api/internal/service/admin"
)

type Handler struct {
	service admin.Service
}

func NewHandler(service admin.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	routes := r.Group("/admin")
	{
		routes.GET("/stats", h.PlatformStats)
		routes.GET("/reminders", h.ReminderStats)
		routes.GET("/users", h.ListUsers)
		routes.PATCH("/users/:id/status", h.UpdateUserStatus)
		routes.DELETE("/users/:id", h.DeleteUser)
	}
}

func (h *Handler) PlatformStats(c *gin.Context) {
	stats, err := h.service.PlatformStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to fetch platform stats"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) ReminderStats(c *gin.Context) {
	stats, err := h.service.ReminderStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to fetch reminder stats"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"count": len(users),
		"users": users,
	}))
}

func (h *Handler) UpdateUserStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	var req model.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.SetUserActive(c.Request.Context(), id, *req.IsActive); err != nil {
		respondServiceError(c, err)
		return
	}

	message := "user suspended successfully"
	if *req.IsActive {
		message = "user activated successfully"
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": message}))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "user and related data deleted successfully"}))
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, admin.ErrProtectedUser):
		// Admin accounts are reported as absent, mirroring the lookup path.
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("user not found"))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
	}
}
