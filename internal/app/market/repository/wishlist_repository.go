package repository

import (
	"context"
	"fmt"
	"time"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type wishListRepository struct {
	db *gorm.DB
}

// NewWishListRepository создает новый репозиторий списков желаний
func NewWishListRepository(db *gorm.DB) WishListRepository {
	return &wishListRepository{db: db}
}

// Add добавляет товар в список желаний пользователя.
// При allowDuplicates=false повторное добавление той же пары возвращает
// существующую запись без ошибки и без новой строки
func (r *wishListRepository) Add(ctx context.Context, userID, productID uuid.UUID, allowDuplicates bool) (*entity.WishListItem, error) {
	item := entity.WishListItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	var err error
	if allowDuplicates {
		err = r.db.WithContext(ctx).Create(&item).Error
	} else {
		err = r.db.WithContext(ctx).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Attrs(entity.WishListItem{ID: item.ID, CreatedAt: item.CreatedAt}).
			FirstOrCreate(&item).Error
	}

	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to add wish list item: %w", err))
	}

	return &item, nil
}

// Remove удаляет все записи пары (user, product) из списка желаний
func (r *wishListRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&entity.WishListItem{})

	if result.Error != nil {
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser получает список желаний пользователя
func (r *wishListRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.WishListItem, error) {
	var items []entity.WishListItem
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items)

	if result.Error != nil {
		return nil, mapUnavailable(result.Error)
	}

	return items, nil
}
