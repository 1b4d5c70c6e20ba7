package handlers

import (
	"net/http"

	"dial2tech_backend/internal/middleware"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/services"
	"dial2tech_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type EnquiryHandler struct {
	*BaseHandler
	enquiryService *services.EnquiryService
}

func NewEnquiryHandler(base *BaseHandler, enquiryService *services.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{
		BaseHandler:    base,
		enquiryService: enquiryService,
	}
}

func (h *EnquiryHandler) RegisterRoutes(r *gin.RouterGroup) {
	me := r.Group("/me")
	me.Use(middleware.AuthMiddleware())
	me.GET("/enquiries", h.ListMine)

	enquiries := r.Group("/enquiries")
	enquiries.Use(middleware.AuthMiddleware())
	{
		enquiries.POST("", middleware.RequireRoles(models.UserRoleCustomer), h.Submit)
		enquiries.GET("/:enquiryId", h.Get)

		admin := enquiries.Group("", middleware.RequireRoles(models.UserRoleAdmin))
		{
			admin.GET("", h.ListAll)
			admin.POST("/:enquiryId/quotes", h.SendQuote)
			admin.POST("/:enquiryId/assign", h.AssignTechnician)
			admin.POST("/:enquiryId/complete", h.CompleteByAdmin)
			admin.POST("/:enquiryId/drop", h.Drop)
		}

		tech := enquiries.Group("", middleware.RequireRoles(models.UserRoleTechnician))
		{
			tech.POST("/:enquiryId/finish", h.CompleteByTechnician)
		}
	}

	quotes := r.Group("/quotes")
	quotes.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleTechnician))
	{
		quotes.POST("/:quoteId/accept", h.AcceptQuote)
		quotes.POST("/:quoteId/reject", h.RejectQuote)
	}
}

func (h *EnquiryHandler) Submit(c *gin.Context) {
	var req dto.CreateEnquiryRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	enquiry, err := h.enquiryService.Submit(h.CurrentUserID(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enquiry)
}

func (h *EnquiryHandler) Get(c *gin.Context) {
	resp, err := h.enquiryService.GetEnquiry(c.Param("enquiryId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMine returns the caller's enquiries: submitted ones for customers,
// assigned ones for technicians.
func (h *EnquiryHandler) ListMine(c *gin.Context) {
	var (
		enquiries []models.Enquiry
		err       error
	)
	if h.CurrentRole(c) == models.UserRoleTechnician {
		enquiries, err = h.enquiryService.ListForTechnician(h.CurrentUserID(c))
	} else {
		enquiries, err = h.enquiryService.ListForCustomer(h.CurrentUserID(c))
	}
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enquiries": enquiries})
}

func (h *EnquiryHandler) ListAll(c *gin.Context) {
	var q dto.ListEnquiriesQuery
	if !h.BindAndValidateQuery(c, &q) {
		return
	}

	enquiries, err := h.enquiryService.ListAll(q.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enquiries": enquiries})
}

func (h *EnquiryHandler) SendQuote(c *gin.Context) {
	var req dto.SendQuoteRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	quote, err := h.enquiryService.SendQuote(c.Param("enquiryId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *EnquiryHandler) AssignTechnician(c *gin.Context) {
	var req dto.AssignTechnicianRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.enquiryService.AssignTechnician(c.Param("enquiryId"), req.TechnicianID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Technician assigned"})
}

func (h *EnquiryHandler) AcceptQuote(c *gin.Context) {
	if err := h.enquiryService.AcceptQuote(h.CurrentUserID(c), c.Param("quoteId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quote accepted"})
}

func (h *EnquiryHandler) RejectQuote(c *gin.Context) {
	var req dto.RejectQuoteRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.enquiryService.RejectQuote(h.CurrentUserID(c), c.Param("quoteId"), req.Reason); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quote rejected"})
}

func (h *EnquiryHandler) CompleteByTechnician(c *gin.Context) {
	var req dto.CompleteEnquiryRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.enquiryService.CompleteByTechnician(h.CurrentUserID(c), c.Param("enquiryId"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enquiry completed"})
}

func (h *EnquiryHandler) CompleteByAdmin(c *gin.Context) {
	if err := h.enquiryService.CompleteByAdmin(h.CurrentUserID(c), c.Param("enquiryId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enquiry completed"})
}

func (h *EnquiryHandler) Drop(c *gin.Context) {
	var req dto.DropEnquiryRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.enquiryService.Drop(h.CurrentUserID(c), c.Param("enquiryId"), req.Reason); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enquiry dropped"})
}
