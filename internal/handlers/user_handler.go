package handlers

import (
	"net/http"

	"dial2tech_backend/internal/middleware"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService *services.UserService
}

func NewUserHandler(base *BaseHandler, userService *services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	technicians := r.Group("/technicians")
	technicians.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		technicians.GET("", h.ListTechnicians)
		technicians.POST("/:technicianId/approve", h.ApproveTechnician)
		technicians.POST("/:technicianId/reject", h.RejectTechnician)
	}
}

func (h *UserHandler) ListTechnicians(c *gin.Context) {
	status := models.UserStatus(c.Query("status"))
	technicians, err := h.userService.ListTechnicians(status, c.Query("category"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technicians": technicians})
}

func (h *UserHandler) ApproveTechnician(c *gin.Context) {
	if err := h.userService.ApproveTechnician(c.Param("technicianId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Technician approved"})
}

func (h *UserHandler) RejectTechnician(c *gin.Context) {
	if err := h.userService.RejectTechnician(c.Param("technicianId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Technician rejected"})
}
