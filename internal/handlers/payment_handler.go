package handlers

import (
	"net/http"

	"dial2tech_backend/internal/middleware"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/services"
	"dial2tech_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService *services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.POST("/orders", middleware.RequireRoles(models.UserRoleCustomer, models.UserRoleAdmin), h.CreateOrder)
		payments.POST("/verify", h.Verify)
	}

	enquiries := r.Group("/enquiries")
	enquiries.Use(middleware.AuthMiddleware())
	{
		enquiries.GET("/:enquiryId/balance", h.Reconcile)
		enquiries.GET("/:enquiryId/payments", middleware.RequireRoles(models.UserRoleAdmin), h.ListPayments)
	}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.VerifyAndRecord(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) Reconcile(c *gin.Context) {
	resp, err := h.paymentService.Reconcile(c.Param("enquiryId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Param("enquiryId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
