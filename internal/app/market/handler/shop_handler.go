package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/service"
)

// ShopHandler обрабатывает HTTP запросы магазинов
type ShopHandler struct {
	shopService service.ShopService
	validator   *validator.Validate
}

// NewShopHandler создает новый обработчик магазинов
func NewShopHandler(shopService service.ShopService) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
		validator:   validator.New(),
	}
}

// CreateShop обрабатывает POST /shops
func (h *ShopHandler) CreateShop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	shop, err := h.shopService.CreateShop(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err, "Failed to create shop")
		return
	}

	c.JSON(http.StatusCreated, shop)
}

// GetShop обрабатывает GET /shops/:id
func (h *ShopHandler) GetShop(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	shop, err := h.shopService.GetShop(c.Request.Context(), shopID)
	if err != nil {
		handleServiceError(c, err, "Failed to get shop")
		return
	}

	c.JSON(http.StatusOK, shop)
}

// GetOwnShop обрабатывает GET /shops/my
func (h *ShopHandler) GetOwnShop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	shop, err := h.shopService.GetOwnShop(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, "Failed to get shop")
		return
	}

	c.JSON(http.StatusOK, shop)
}

// ListShops обрабатывает GET /shops
func (h *ShopHandler) ListShops(c *gin.Context) {
	shops, err := h.shopService.ListShops(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to list shops")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shops": shops,
		"total": len(shops),
	})
}

// UpdateShop обрабатывает PUT /shops/:id
func (h *ShopHandler) UpdateShop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	var req entity.UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	shop, err := h.shopService.UpdateShop(c.Request.Context(), userID, shopID, &req)
	if err != nil {
		handleServiceError(c, err, "Failed to update shop")
		return
	}

	c.JSON(http.StatusOK, shop)
}

// DeleteShop обрабатывает DELETE /shops/:id
func (h *ShopHandler) DeleteShop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	if err := h.shopService.DeleteShop(c.Request.Context(), userID, shopID); err != nil {
		handleServiceError(c, err, "Failed to delete shop")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shop deleted"})
}
