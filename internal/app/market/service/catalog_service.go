package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ashtraymarket/internal/app/market/config"
	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/internal/app/market/util"
	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"

	"github.com/google/uuid"
)

const categoryCacheTTL = 10 * time.Minute

// catalogService обрабатывает бизнес-логику каталога:
// товары, категории и списки желаний
type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	shopRepo     repository.ShopRepository
	wishRepo     repository.WishListRepository
	cache        *util.RedisClient
	producer     MessagePublisher
	productTopic string
	wishlistCfg  config.WishlistConfig
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	shopRepo repository.ShopRepository,
	wishRepo repository.WishListRepository,
	cache *util.RedisClient,
	producer MessagePublisher,
	productTopic string,
	wishlistCfg config.WishlistConfig,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		shopRepo:     shopRepo,
		wishRepo:     wishRepo,
		cache:        cache,
		producer:     producer,
		productTopic: productTopic,
		wishlistCfg:  wishlistCfg,
	}
}

func (s *catalogService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) {
	if s.producer == nil {
		return
	}

	event := entity.ProductEvent{
		EventType: eventType,
		ProductID: product.ID,
		ShopID:    product.ShopID,
		Name:      product.Name,
		Price:     product.Price,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal product event")
		return
	}

	if err := s.producer.PublishMessage(ctx, product.ID.String(), payload); err != nil {
		metrics.RecordKafkaError("marketplace", s.productTopic, "produce")
		logger.Error().Err(err).Str("event", eventType).Msg("failed to publish product event")
		return
	}

	metrics.RecordKafkaMessageProduced("marketplace", s.productTopic)
}

func validateProductFields(name string, price float64, quantity int) error {
	if strings.TrimSpace(name) == "" || price <= 0 || quantity < 0 {
		return ErrValidation
	}
	return nil
}

// CreateProduct создает товар в магазине пользователя.
// Проверка принадлежности магазина идёт строго до валидации полей:
// не-владелец всегда получает ErrNotShopOwner и не узнаёт по ответу,
// существует ли магазин и корректны ли данные товара
func (s *catalogService) CreateProduct(ctx context.Context, ownerID uuid.UUID, req *entity.CreateProductRequest) (*entity.Product, error) {
	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordInvariantViolation("shop_not_owned")
			return nil, ErrNotShopOwner
		}
		return nil, mapStoreErr(err, "failed to get shop")
	}
	if shop.OwnerID != ownerID {
		metrics.RecordInvariantViolation("shop_not_owned")
		return nil, ErrNotShopOwner
	}

	if err := validateProductFields(req.Name, req.Price, req.QuantityAvailable); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, mapStoreErr(err, "failed to get category")
	}

	product := &entity.Product{
		ID:                uuid.New(),
		Name:              req.Name,
		ShortDescription:  req.ShortDescription,
		LongDescription:   req.LongDescription,
		Price:             req.Price,
		QuantityAvailable: req.QuantityAvailable,
		Dimensions:        req.Dimensions,
		Weight:            req.Weight,
		Image1:            req.Image1,
		Image2:            req.Image2,
		Image3:            req.Image3,
		Status:            entity.ProductStatusActive,
		ShopID:            req.ShopID,
		CategoryID:        req.CategoryID,
	}

	// Повторная проверка владения внутри транзакции вставки закрывает гонку
	// с удалением или передачей магазина между проверкой выше и записью
	if err := s.productRepo.CreateForOwner(ctx, ownerID, product); err != nil {
		if errors.Is(err, repository.ErrShopNotOwned) {
			metrics.RecordInvariantViolation("shop_not_owned")
			return nil, ErrNotShopOwner
		}
		return nil, mapStoreErr(err, "failed to create product")
	}

	metrics.ProductsCreated.Inc()
	s.publishProductEvent(ctx, "PRODUCT_CREATED", product)
	logger.Info().
		Str("product_id", product.ID.String()).
		Str("shop_id", product.ShopID.String()).
		Msg("product created")

	return product, nil
}

// GetProduct получает товар и засчитывает просмотр
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, mapStoreErr(err, "failed to get product")
	}

	if err := s.productRepo.IncrementViews(ctx, id); err != nil {
		logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to increment product views")
	}

	return product, nil
}

// ListProducts получает товары по фильтру
func (s *catalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list products")
	}
	return products, nil
}

func (s *catalogService) getOwnedProduct(ctx context.Context, ownerID, productID uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, mapStoreErr(err, "failed to get product")
	}

	shop, err := s.shopRepo.GetByID(ctx, product.ShopID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get shop")
	}
	if shop.OwnerID != ownerID {
		return nil, ErrNotShopOwner
	}

	return product, nil
}

// UpdateProduct обновляет товар после проверки принадлежности магазина
func (s *catalogService) UpdateProduct(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, err := s.getOwnedProduct(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrValidation
		}
		product.Name = *req.Name
	}
	if req.ShortDescription != nil {
		product.ShortDescription = *req.ShortDescription
	}
	if req.LongDescription != nil {
		product.LongDescription = *req.LongDescription
	}
	if req.QuantityAvailable != nil {
		if *req.QuantityAvailable < 0 {
			return nil, ErrValidation
		}
		product.QuantityAvailable = *req.QuantityAvailable
	}
	if req.Status != nil {
		if *req.Status != entity.ProductStatusActive && *req.Status != entity.ProductStatusInactive {
			return nil, ErrValidation
		}
		product.Status = *req.Status
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, mapStoreErr(err, "failed to get category")
		}
		product.CategoryID = *req.CategoryID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, mapStoreErr(err, "failed to update product")
	}

	s.publishProductEvent(ctx, "PRODUCT_UPDATED", product)
	return product, nil
}

// ChangePrice меняет цену товара. Строка истории цен добавляется той же
// транзакцией, что и обновление, история никогда не переписывается
func (s *catalogService) ChangePrice(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID, req *entity.ChangePriceRequest) (*entity.Product, error) {
	if _, err := s.getOwnedProduct(ctx, ownerID, productID); err != nil {
		return nil, err
	}

	if req.Price <= 0 {
		return nil, ErrValidation
	}

	product, err := s.productRepo.ChangePrice(ctx, productID, req.Price)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, mapStoreErr(err, "failed to change price")
	}

	metrics.PriceChanges.Inc()
	s.publishProductEvent(ctx, "PRODUCT_UPDATED", product)
	logger.Info().
		Str("product_id", productID.String()).
		Float64("price", req.Price).
		Msg("product price changed")

	return product, nil
}

// GetPriceHistory получает историю цен товара
func (s *catalogService) GetPriceHistory(ctx context.Context, productID uuid.UUID) ([]entity.PriceHistory, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, mapStoreErr(err, "failed to get product")
	}

	history, err := s.productRepo.PriceHistory(ctx, productID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get price history")
	}
	return history, nil
}

// DeleteProduct удаляет товар после проверки принадлежности магазина
func (s *catalogService) DeleteProduct(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID) error {
	product, err := s.getOwnedProduct(ctx, ownerID, productID)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return mapStoreErr(err, "failed to delete product")
	}

	s.publishProductEvent(ctx, "PRODUCT_DELETED", product)
	return nil
}

// CreateCategory создает категорию и сбрасывает кэш списка категорий
func (s *catalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrValidation
	}

	category := &entity.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		CreatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategory) {
			return nil, ErrDuplicateCategory
		}
		return nil, mapStoreErr(err, "failed to create category")
	}

	s.invalidateCategoryCache(ctx)
	return category, nil
}

// GetCategories получает все категории, сначала из кэша Redis
func (s *catalogService) GetCategories(ctx context.Context) ([]entity.Category, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCategories(ctx); err == nil && cached != nil {
			metrics.RecordCacheHit("marketplace", "categories")
			return cached, nil
		}
		metrics.RecordCacheMiss("marketplace", "categories")
	}

	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get categories")
	}

	if s.cache != nil {
		if err := s.cache.SetCategories(ctx, categories, categoryCacheTTL); err != nil {
			logger.Warn().Err(err).Msg("failed to cache categories")
		}
	}

	return categories, nil
}

// UpdateCategory обновляет категорию и сбрасывает кэш
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrValidation
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, mapStoreErr(err, "failed to get category")
	}

	category.Name = req.Name
	category.Description = req.Description
	if req.Image != "" {
		category.Image = req.Image
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategory) {
			return nil, ErrDuplicateCategory
		}
		return nil, mapStoreErr(err, "failed to update category")
	}

	s.invalidateCategoryCache(ctx)
	return category, nil
}

// DeleteCategory удаляет категорию и сбрасывает кэш
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return mapStoreErr(err, "failed to delete category")
	}

	s.invalidateCategoryCache(ctx)
	return nil
}

func (s *catalogService) invalidateCategoryCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCategories(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate category cache")
	}
}

// AddToWishlist добавляет товар в список желаний.
// Поведение при повторном добавлении определяется конфигурацией
func (s *catalogService) AddToWishlist(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*entity.WishListItem, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, mapStoreErr(err, "failed to get product")
	}

	item, err := s.wishRepo.Add(ctx, userID, productID, s.wishlistCfg.AllowDuplicates)
	if err != nil {
		return nil, mapStoreErr(err, "failed to add to wishlist")
	}

	return item, nil
}

// RemoveFromWishlist удаляет товар из списка желаний
func (s *catalogService) RemoveFromWishlist(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	if err := s.wishRepo.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return mapStoreErr(err, "failed to remove from wishlist")
	}
	return nil
}

// GetWishlist получает список желаний пользователя
func (s *catalogService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]entity.WishListItem, error) {
	items, err := s.wishRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get wishlist")
	}
	return items, nil
}
