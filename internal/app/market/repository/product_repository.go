package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// CreateForOwner вставляет товар и первую строку истории цен одной транзакцией.
// Строка магазина блокируется FOR UPDATE вместе с проверкой владения, поэтому
// магазин не может быть удалён или передан другому владельцу между проверкой
// и вставкой
func (r *productRepository) CreateForOwner(ctx context.Context, ownerID uuid.UUID, product *entity.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shopID uuid.UUID
		result := tx.Raw(
			`SELECT id FROM shops WHERE id = ? AND owner_id = ? FOR UPDATE`,
			product.ShopID, ownerID,
		).Scan(&shopID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrShopNotOwned
		}

		if err := tx.Create(product).Error; err != nil {
			return err
		}

		history := entity.PriceHistory{
			ID:        uuid.New(),
			ProductID: product.ID,
			Price:     product.Price,
			CreatedAt: time.Now(),
		}
		return tx.Create(&history).Error
	})

	if err != nil {
		if errors.Is(err, ErrShopNotOwned) {
			return err
		}
		return mapUnavailable(fmt.Errorf("failed to create product: %w", err))
	}

	return nil
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(result.Error)
	}

	return &product, nil
}

// List получает товары по фильтру, по умолчанию все
func (r *productRepository) List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var products []entity.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, mapUnavailable(err)
	}

	return products, nil
}

// Update обновляет изменяемые поля товара. Цена меняется только через ChangePrice
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Model(product).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":               product.Name,
		"short_description":  product.ShortDescription,
		"long_description":   product.LongDescription,
		"quantity_available": product.QuantityAvailable,
		"dimensions":         product.Dimensions,
		"weight":             product.Weight,
		"image_1":            product.Image1,
		"image_2":            product.Image2,
		"image_3":            product.Image3,
		"status":             product.Status,
		"category_id":        product.CategoryID,
	})

	if result.Error != nil {
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ChangePrice обновляет цену товара и добавляет строку истории цен одной
// транзакцией. История только растёт: старые строки не трогаются
func (r *productRepository) ChangePrice(ctx context.Context, id uuid.UUID, newPrice float64) (*entity.Product, error) {
	var product entity.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&product).Update("price", newPrice).Error; err != nil {
			return err
		}
		product.Price = newPrice

		history := entity.PriceHistory{
			ID:        uuid.New(),
			ProductID: product.ID,
			Price:     newPrice,
			CreatedAt: time.Now(),
		}
		return tx.Create(&history).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to change product price: %w", err))
	}

	return &product, nil
}

// PriceHistory возвращает историю цен товара от новых к старым
func (r *productRepository) PriceHistory(ctx context.Context, productID uuid.UUID) ([]entity.PriceHistory, error) {
	var history []entity.PriceHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&history).Error

	if err != nil {
		return nil, mapUnavailable(err)
	}

	return history, nil
}

// Delete удаляет товар вместе с историей цен
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&entity.PriceHistory{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return mapUnavailable(fmt.Errorf("failed to delete product: %w", err))
	}

	return nil
}

// IncrementViews увеличивает счётчик просмотров товара
func (r *productRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))

	if result.Error != nil {
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// AddSold увеличивает счётчик проданных единиц товара
func (r *productRepository) AddSold(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		UpdateColumn("sold", gorm.Expr("sold + ?", quantity))

	if result.Error != nil {
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
