package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stars-shop-backend/internal/features/pricing/models"
	"stars-shop-backend/internal/features/pricing/service"
)

type PricingHandler struct {
	service service.PricingService
}

func NewPricingHandler(service service.PricingService) *PricingHandler {
	return &PricingHandler{
		service: service,
	}
}

func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/prices", h.getPrices)
}

func (h *PricingHandler) getPrices(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	quote, err := h.service.GetQuote(c.Request.Context(), req.Amount)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}
