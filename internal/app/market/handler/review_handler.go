package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/service"
)

// ReviewHandler обрабатывает HTTP запросы отзывов
type ReviewHandler struct {
	reviewService service.ReviewService
	validator     *validator.Validate
}

// NewReviewHandler создает новый обработчик отзывов
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// CreateReview обрабатывает POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetReview обрабатывает GET /reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get review")
		return
	}

	c.JSON(http.StatusOK, review)
}

// ListProductReviews обрабатывает GET /products/:id/reviews
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListProductReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

// ListShopReviews обрабатывает GET /shops/:id/reviews
func (h *ReviewHandler) ListShopReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListShopReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

// UpdateReview обрабатывает PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "Failed to update review")
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview обрабатывает DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := h.reviewService.DeleteReview(c.Request.Context(), userID, currentUserIsStaff(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// RateReview обрабатывает POST /reviews/:id/rate
func (h *ReviewHandler) RateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.RateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	rating, err := h.reviewService.RateReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "Failed to rate review")
		return
	}

	c.JSON(http.StatusCreated, rating)
}

// GetProductRating обрабатывает GET /products/:id/rating
func (h *ReviewHandler) GetProductRating(c *gin.Context) {
	summary, err := h.reviewService.ProductRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get product rating")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetShopRating обрабатывает GET /shops/:id/rating
func (h *ReviewHandler) GetShopRating(c *gin.Context) {
	summary, err := h.reviewService.ShopRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get shop rating")
		return
	}

	c.JSON(http.StatusOK, summary)
}
