package warranty

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/warrantywise/warranty-api/internal/handler"
	"github.com/warrantywise/warranty-api/internal/middleware"
	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/internal/repository"
	"github.com/warrantywise/warranty-api/internal/service/warranty"
)

type Handler struct {
	service warranty.Service
}

func NewHandler(service warranty.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	warranties := r.Group("/warranties")
	{
		warranties.POST("", h.Create)
		warranties.GET("", h.List)
		warranties.GET("/:id", h.Get)
		warranties.PUT("/:id", h.Update)
		warranties.DELETE("/:id", h.Delete)
		warranties.POST("/:id/invoice", h.AttachInvoice)
	}
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req model.CreateWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	w, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, warranty.ErrInvalidDates) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create warranty"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(w))
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	warranties, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list warranties"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(warranties))
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid warranty ID"))
		return
	}

	w, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(w))
}

func (h *Handler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid warranty ID"))
		return
	}

	var req model.UpdateWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	w, err := h.service.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		if errors.Is(err, warranty.ErrInvalidDates) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(w))
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid warranty ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": true}))
}

func (h *Handler) AttachInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid warranty ID"))
		return
	}

	var req model.AttachInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	w, err := h.service.AttachInvoice(c.Request.Context(), userID, id, req.InvoiceURL)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(w))
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		c.Abort()
		return uuid.Nil, false
	}
	return userID, true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("warranty not found"))
	case errors.Is(err, warranty.ErrNotOwner):
		// Hide existence of other users' warranties.
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("warranty not found"))
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, handler.NewErrorResponse("warranty was modified concurrently, retry with fresh data"))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
	}
}
