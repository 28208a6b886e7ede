package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"

	"github.com/google/uuid"
)

// shopService обрабатывает бизнес-логику магазинов
type shopService struct {
	shopRepo repository.ShopRepository
	userRepo repository.UserRepository
}

// NewShopService создает новый сервис магазинов
func NewShopService(shopRepo repository.ShopRepository, userRepo repository.UserRepository) ShopService {
	return &shopService{
		shopRepo: shopRepo,
		userRepo: userRepo,
	}
}

func validateIdentityColors(colors []string) error {
	if len(colors) > entity.MaxIdentityColors {
		metrics.RecordInvariantViolation("too_many_colors")
		return ErrTooManyColors
	}
	return nil
}

// CreateShop создает магазин и атомарно переводит владельца в статус
// shop_owner. Один пользователь владеет не более чем одним магазином
func (s *shopService) CreateShop(ctx context.Context, ownerID uuid.UUID, req *entity.CreateShopRequest) (*entity.Shop, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrValidation
	}

	if err := validateIdentityColors(req.IdentityColors); err != nil {
		return nil, err
	}

	shop := &entity.Shop{
		ID:                uuid.New(),
		Name:              req.Name,
		OwnerID:           ownerID,
		IdentityColors:    req.IdentityColors,
		SellingCategories: req.SellingCategories,
		AboutShop:         req.AboutShop,
		PhysicalAddress:   req.PhysicalAddress,
		IsActive:          true,
		CreatedAt:         time.Now(),
	}

	if err := s.shopRepo.CreateWithOwner(ctx, shop); err != nil {
		switch {
		case errors.Is(err, repository.ErrOwnerHasShop):
			metrics.RecordInvariantViolation("already_owns_shop")
			return nil, ErrAlreadyOwnsShop
		case errors.Is(err, repository.ErrDuplicateShopName):
			return nil, ErrDuplicateShopName
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err, "failed to create shop")
	}

	metrics.ShopsCreated.Inc()
	logger.Info().
		Str("shop_id", shop.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("shop created")

	return shop, nil
}

// GetShop получает магазин по ID и засчитывает просмотр
func (s *shopService) GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, mapStoreErr(err, "failed to get shop")
	}

	if err := s.shopRepo.IncrementViews(ctx, id); err != nil {
		logger.Warn().Err(err).Str("shop_id", id.String()).Msg("failed to increment shop views")
	}

	return shop, nil
}

// GetOwnShop получает магазин текущего пользователя
func (s *shopService) GetOwnShop(ctx context.Context, ownerID uuid.UUID) (*entity.Shop, error) {
	shop, err := s.shopRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, mapStoreErr(err, "failed to get shop by owner")
	}
	return shop, nil
}

// ListShops получает все магазины
func (s *shopService) ListShops(ctx context.Context) ([]entity.Shop, error) {
	shops, err := s.shopRepo.List(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list shops")
	}
	return shops, nil
}

// UpdateShop обновляет магазин после проверки принадлежности
// Лимит фирменных цветов проверяется и при обновлении
func (s *shopService) UpdateShop(ctx context.Context, ownerID uuid.UUID, shopID uuid.UUID, req *entity.UpdateShopRequest) (*entity.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, mapStoreErr(err, "failed to get shop")
	}

	if shop.OwnerID != ownerID {
		return nil, ErrNotShopOwner
	}

	if req.IdentityColors != nil {
		if err := validateIdentityColors(*req.IdentityColors); err != nil {
			return nil, err
		}
		shop.IdentityColors = *req.IdentityColors
	}
	if req.SellingCategories != nil {
		shop.SellingCategories = *req.SellingCategories
	}
	if req.AboutShop != nil {
		shop.AboutShop = *req.AboutShop
	}
	if req.PhysicalAddress != nil {
		shop.PhysicalAddress = *req.PhysicalAddress
	}
	if req.ShopImage != nil {
		shop.ShopImage = *req.ShopImage
	}
	if req.ShopLogo != nil {
		shop.ShopLogo = *req.ShopLogo
	}

	if err := s.shopRepo.Update(ctx, shop); err != nil {
		return nil, mapStoreErr(err, "failed to update shop")
	}

	return shop, nil
}

// DeleteShop удаляет магазин после проверки принадлежности
// Флаг shop_owner владельца сбрасывается той же транзакцией
func (s *shopService) DeleteShop(ctx context.Context, ownerID uuid.UUID, shopID uuid.UUID) error {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShopNotFound
		}
		return mapStoreErr(err, "failed to get shop")
	}

	if shop.OwnerID != ownerID {
		return ErrNotShopOwner
	}

	if err := s.shopRepo.Delete(ctx, shopID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShopNotFound
		}
		return mapStoreErr(err, "failed to delete shop")
	}

	logger.Info().Str("shop_id", shopID.String()).Msg("shop deleted")
	return nil
}
