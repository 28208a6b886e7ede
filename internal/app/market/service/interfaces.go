package service

import (
	"context"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
)

// MessagePublisher публикует события в Kafka
// Реализуется util.KafkaProducer
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// AccountService - операции с учетными записями
type AccountService interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.AuthResponse, error)
	CreateSuperuser(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error)
	Authenticate(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *entity.UpdateUserRequest) (*entity.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *entity.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, req *entity.CreateAddressRequest) (*entity.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]entity.Address, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, addressID uuid.UUID) error
}

// ShopService - операции с магазинами
type ShopService interface {
	CreateShop(ctx context.Context, ownerID uuid.UUID, req *entity.CreateShopRequest) (*entity.Shop, error)
	GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
	GetOwnShop(ctx context.Context, ownerID uuid.UUID) (*entity.Shop, error)
	ListShops(ctx context.Context) ([]entity.Shop, error)
	UpdateShop(ctx context.Context, ownerID uuid.UUID, shopID uuid.UUID, req *entity.UpdateShopRequest) (*entity.Shop, error)
	DeleteShop(ctx context.Context, ownerID uuid.UUID, shopID uuid.UUID) error
}

// CatalogService - операции с товарами, категориями и списками желаний
type CatalogService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	UpdateProduct(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error)
	ChangePrice(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID, req *entity.ChangePriceRequest) (*entity.Product, error)
	GetPriceHistory(ctx context.Context, productID uuid.UUID) ([]entity.PriceHistory, error)
	DeleteProduct(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID) error

	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetCategories(ctx context.Context) ([]entity.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.CreateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	AddToWishlist(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*entity.WishListItem, error)
	RemoveFromWishlist(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
	GetWishlist(ctx context.Context, userID uuid.UUID) ([]entity.WishListItem, error)
}

// OrderService - операции с заказами
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*entity.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) (*entity.Order, error)
}

// ReviewService - операции с отзывами
type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error)
	GetReview(ctx context.Context, id string) (*entity.Review, error)
	ListProductReviews(ctx context.Context, productID string) ([]entity.Review, error)
	ListShopReviews(ctx context.Context, shopID string) ([]entity.Review, error)
	UpdateReview(ctx context.Context, userID uuid.UUID, reviewID string, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, userID uuid.UUID, isStaff bool, reviewID string) error
	RateReview(ctx context.Context, userID uuid.UUID, reviewID string, req *entity.RateReviewRequest) (*entity.ReviewRating, error)
	ProductRating(ctx context.Context, productID string) (*entity.RatingSummary, error)
	ShopRating(ctx context.Context, shopID string) (*entity.RatingSummary, error)
}
