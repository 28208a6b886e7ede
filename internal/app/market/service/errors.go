package service

import "errors"

var (
	// Аутентификация и пользователи
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrDuplicateEmail      = errors.New("user with this email already exists")
	ErrDuplicateUsername   = errors.New("user with this username already exists")
	ErrWeakPassword        = errors.New("password does not meet the policy")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("access forbidden")

	// Магазины
	ErrAlreadyOwnsShop   = errors.New("user already owns a shop")
	ErrDuplicateShopName = errors.New("shop with this name already exists")
	ErrNotShopOwner      = errors.New("shop does not belong to user")
	ErrTooManyColors     = errors.New("too many identity colors")
	ErrShopNotFound      = errors.New("shop not found")

	// Каталог
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category with this name already exists")

	// Заказы
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status transition")

	// Отзывы
	ErrReviewNotFound   = errors.New("review not found")
	ErrDuplicateReview  = errors.New("user has already reviewed this target")
	ErrDuplicateVote    = errors.New("user has already rated this review")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

	// Прочее
	ErrAddressNotFound = errors.New("address not found")
	ErrValidation      = errors.New("validation error")

	// ErrStoreUnavailable - хранилище временно недоступно.
	// Операция не выполнялась; повтор - ответственность вызывающего
	ErrStoreUnavailable = errors.New("store temporarily unavailable")
)
