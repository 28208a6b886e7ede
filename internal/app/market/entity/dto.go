package entity

import "github.com/google/uuid"

// === Аутентификация и пользователи ===

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=255"`
	Password string `json:"password" validate:"required"`
	UserAge  *int   `json:"user_age,omitempty" validate:"omitempty,min=1"`
	About    string `json:"about_user,omitempty" validate:"omitempty,max=2000"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=2,max=255"`
	UserAge  *int   `json:"user_age,omitempty" validate:"omitempty,min=1"`
	About    string `json:"about_user,omitempty" validate:"omitempty,max=2000"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type AuthResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type CreateAddressRequest struct {
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// === Магазины ===

type CreateShopRequest struct {
	Name              string   `json:"name" validate:"required,min=2,max=255"`
	IdentityColors    []string `json:"identity_colors,omitempty"`
	SellingCategories []string `json:"selling_categories,omitempty"`
	AboutShop         string   `json:"about_shop,omitempty" validate:"omitempty,max=2000"`
	PhysicalAddress   string   `json:"physical_address,omitempty" validate:"omitempty,max=255"`
}

type UpdateShopRequest struct {
	IdentityColors    *[]string `json:"identity_colors,omitempty"`
	SellingCategories *[]string `json:"selling_categories,omitempty"`
	AboutShop         *string   `json:"about_shop,omitempty"`
	PhysicalAddress   *string   `json:"physical_address,omitempty"`
	ShopImage         *string   `json:"shop_image,omitempty"`
	ShopLogo          *string   `json:"shop_logo,omitempty"`
}

// === Каталог ===

type CreateProductRequest struct {
	ShopID            uuid.UUID `json:"shop_id" validate:"required"`
	Name              string    `json:"name" validate:"required,min=2,max=150"`
	ShortDescription  string    `json:"short_description" validate:"omitempty,max=300"`
	LongDescription   string    `json:"long_description" validate:"omitempty"`
	Price             float64   `json:"price" validate:"required"`
	QuantityAvailable int       `json:"quantity_available" validate:"gte=0"`
	Dimensions        string    `json:"dimensions" validate:"omitempty,max=50"`
	Weight            float64   `json:"weight" validate:"omitempty,gt=0"`
	CategoryID        uuid.UUID `json:"category_id" validate:"required"`
	Image1            string    `json:"image_1,omitempty"`
	Image2            string    `json:"image_2,omitempty"`
	Image3            string    `json:"image_3,omitempty"`
}

type UpdateProductRequest struct {
	Name              *string        `json:"name,omitempty"`
	ShortDescription  *string        `json:"short_description,omitempty"`
	LongDescription   *string        `json:"long_description,omitempty"`
	QuantityAvailable *int           `json:"quantity_available,omitempty"`
	Status            *ProductStatus `json:"status,omitempty"`
	CategoryID        *uuid.UUID     `json:"category_id,omitempty"`
}

type ChangePriceRequest struct {
	Price float64 `json:"price" validate:"required"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image       string `json:"image,omitempty"`
}

type WishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// ProductFilter - параметры выборки товаров
type ProductFilter struct {
	ShopID     *uuid.UUID
	CategoryID *uuid.UUID
	Status     *ProductStatus
}

// === Заказы ===

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	TotalAmount float64            `json:"total_amount" validate:"required"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// === Отзывы ===

type CreateReviewRequest struct {
	ProductID string   `json:"product_id,omitempty"`
	ShopID    string   `json:"shop_id,omitempty"`
	Rating    int      `json:"rating" validate:"required"`
	Comment   string   `json:"comment" validate:"omitempty,max=5000"`
	Images    []string `json:"images,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

type RateReviewRequest struct {
	Value int `json:"value" validate:"required"`
}

// === Общие ответы ===

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
