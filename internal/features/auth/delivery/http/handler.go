package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stars-shop-backend/internal/features/auth/models"
	"stars-shop-backend/internal/features/auth/service"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/verify-init", h.verifyInit)
	router.POST("/verify-token", h.verifyToken)
}

func (h *AuthHandler) verifyInit(c *gin.Context) {
	var req models.VerifyInitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InitData == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Отсутствует initData"})
		return
	}

	user, err := h.service.VerifyInitData(c.Request.Context(), req.InitData)
	if err != nil {
		if err == service.ErrInvalidInitData {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Неверные данные initData"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) verifyToken(c *gin.Context) {
	var req models.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Отсутствует token"})
		return
	}

	user, err := h.service.VerifyLoginToken(c.Request.Context(), req.Token)
	if err != nil {
		if err == service.ErrInvalidToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Токен недействителен или уже использован"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}
