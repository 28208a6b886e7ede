package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"ashtraymarket/internal/app/market/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// formatValidationError превращает ошибки validator в читаемое сообщение
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request data"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field '%s' is required", fieldErr.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("field '%s' must be a valid email", fieldErr.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("field '%s' is too short", fieldErr.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("field '%s' is too long", fieldErr.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("field '%s' must be greater than %s", fieldErr.Field(), fieldErr.Param()))
		case "gte":
			messages = append(messages, fmt.Sprintf("field '%s' must be at least %s", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field '%s' is invalid", fieldErr.Field()))
		}
	}

	return strings.Join(messages, "; ")
}

// handleServiceError переводит бизнес-ошибки сервисов в HTTP статусы.
// ErrStoreUnavailable отдаётся как 503: операция не выполнялась
// и клиент может безопасно повторить запрос
func handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrRatingOutOfRange),
		errors.Is(err, service.ErrTooManyColors),
		errors.Is(err, service.ErrInvalidOrderStatus):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrNotShopOwner):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrAddressNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateShopName),
		errors.Is(err, service.ErrDuplicateCategory),
		errors.Is(err, service.ErrAlreadyOwnsShop),
		errors.Is(err, service.ErrDuplicateReview),
		errors.Is(err, service.ErrDuplicateVote):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Storage temporarily unavailable, retry later")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
