package repository

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already taken")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateShopName = errors.New("shop name already taken")
	ErrDuplicateCategory = errors.New("category name already taken")
	ErrOwnerHasShop      = errors.New("owner already has a shop")
	ErrShopNotOwned      = errors.New("shop not owned by user")
	ErrDuplicateReview   = errors.New("review already exists")
	ErrDuplicateVote     = errors.New("review already rated by user")

	// ErrUnavailable - хранилище временно недоступно (таймаут или обрыв соединения)
	// Единственный транзиентный класс ошибок; повтор - ответственность вызывающего
	ErrUnavailable = errors.New("store unavailable")
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPrivileges(ctx context.Context, id uuid.UUID, isStaff, isSuperuser, isVerified bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]entity.User, error)
	// ReconcileShopOwnerFlags пересчитывает флаг shop_owner по фактическому
	// наличию строки в shops и возвращает число исправленных пользователей
	ReconcileShopOwnerFlags(ctx context.Context) (int64, error)
	AdjustOrderCounters(ctx context.Context, id uuid.UUID, nowDelta, completedDelta int) error
}

type ShopRepository interface {
	// CreateWithOwner вставляет магазин и выставляет shop_owner владельцу
	// одной транзакцией; возвращает ErrOwnerHasShop, если флаг уже стоит
	CreateWithOwner(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Shop, error)
	List(ctx context.Context) ([]entity.Shop, error)
	Update(ctx context.Context, shop *entity.Shop) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	AddSales(ctx context.Context, id uuid.UUID, items int64, amount float64) error
	SetBestSellers(ctx context.Context, id uuid.UUID, productIDs []string) error
	ResetMonthlyCounters(ctx context.Context) (int64, error)
}

type AddressRepository interface {
	Create(ctx context.Context, address *entity.Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Address, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]entity.Address, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type ProductRepository interface {
	// CreateForOwner проверяет владение магазином и вставляет товар вместе с
	// первой строкой истории цен одной транзакцией;
	// возвращает ErrShopNotOwned, если магазин не принадлежит ownerID
	CreateForOwner(ctx context.Context, ownerID uuid.UUID, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// ChangePrice обновляет цену и добавляет строку истории одной транзакцией
	ChangePrice(ctx context.Context, id uuid.UUID, newPrice float64) (*entity.Product, error)
	PriceHistory(ctx context.Context, productID uuid.UUID) ([]entity.PriceHistory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	AddSold(ctx context.Context, id uuid.UUID, quantity int64) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderRepository interface {
	// CreateWithProducts вставляет заказ и все его позиции одной транзакцией
	CreateWithProducts(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type WishListRepository interface {
	// Add добавляет запись; при allowDuplicates=false существующая пара
	// (user, product) переиспользуется без ошибки
	Add(ctx context.Context, userID, productID uuid.UUID, allowDuplicates bool) (*entity.WishListItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.WishListItem, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.Review, error)
	ListByShop(ctx context.Context, shopID string) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id string) error
	CreateRating(ctx context.Context, rating *entity.ReviewRating) error
	AverageForProduct(ctx context.Context, productID string) (*entity.RatingSummary, error)
	AverageForShop(ctx context.Context, shopID string) (*entity.RatingSummary, error)
}

// IsUnavailable определяет транзиентные сбои хранилища:
// таймауты контекста, сетевые таймауты и ошибки соединения PostgreSQL (класс 08)
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}

	return false
}

// mapUnavailable подменяет транзиентные ошибки на ErrUnavailable,
// сохраняя исходный текст для логов
func mapUnavailable(err error) error {
	if IsUnavailable(err) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}
