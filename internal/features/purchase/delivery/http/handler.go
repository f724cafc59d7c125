package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/features/purchase/service"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(service service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		service: service,
	}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/purchase", h.createPurchase)
	router.GET("/purchase/:id", h.getPurchase)
}

func (h *PurchaseHandler) createPurchase(c *gin.Context) {
	var req models.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Отсутствуют обязательные поля"})
		case errors.Is(err, service.ErrMinAmount):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Минимальное количество звезд: 1"})
		case errors.Is(err, service.ErrUnsupportedCurrency):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Неподдерживаемая валюта"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания покупки"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PurchaseHandler) getPurchase(c *gin.Context) {
	resp, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Покупка не найдена"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
